package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"benchkeep/internal/benchdata"
)

// Client handles git interactions.
type Client struct {
	Timeout time.Duration
}

// NewClient creates a new Git client.
func NewClient() *Client {
	return &Client{Timeout: 30 * time.Second}
}

var (
	reGitHubPAT = regexp.MustCompile(`https://[^@:/]+@github\.com`)
	reBasicAuth = regexp.MustCompile(`https://[^:/]+:[^@/]+@`)
	reSCPLike   = regexp.MustCompile(`^[\w.-]+@([\w.-]+):(.+)$`)
	reNoReply   = regexp.MustCompile(`^(?:\d+\+)?([^@]+)@users\.noreply\.github\.com$`)
)

// mask hides credentials embedded in remote URLs.
func mask(s string) string {
	s = reGitHubPAT.ReplaceAllString(s, "https://[REDACTED]@github.com")
	return reBasicAuth.ReplaceAllString(s, "https://[REDACTED]@")
}

func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	// Enforce no prompting
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=/bin/true")
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\nStderr: %s", args[0], err, mask(errBuf.String()))
	}
	return outBuf.String(), nil
}

const logFormat = "%H%x00%T%x00%an%x00%ae%x00%cn%x00%ce%x00%aI%x00%B"

// CommitInfo returns metadata for rev. URL is left empty; see WithURL.
func (c *Client) CommitInfo(ctx context.Context, dir, rev string) (benchdata.Commit, error) {
	out, err := c.run(ctx, dir, "log", "-1", "--format="+logFormat, rev, "--")
	if err != nil {
		return benchdata.Commit{}, err
	}
	return parseLog(out)
}

// HeadCommit returns metadata for the checked out commit.
func (c *Client) HeadCommit(ctx context.Context, dir string) (benchdata.Commit, error) {
	return c.CommitInfo(ctx, dir, "HEAD")
}

// RemoteURL returns the browsable https URL of a remote.
func (c *Client) RemoteURL(ctx context.Context, dir, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	out, err := c.run(ctx, dir, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return NormalizeRemote(strings.TrimSpace(out)), nil
}

func parseLog(out string) (benchdata.Commit, error) {
	parts := strings.SplitN(strings.TrimRight(out, "\n"), "\x00", 8)
	if len(parts) != 8 {
		return benchdata.Commit{}, fmt.Errorf("unexpected git log output: %q", out)
	}
	return benchdata.Commit{
		Author:    person(parts[2], parts[3]),
		Committer: person(parts[4], parts[5]),
		Distinct:  true,
		ID:        parts[0],
		Message:   strings.TrimSpace(parts[7]),
		Timestamp: parts[6],
		TreeID:    parts[1],
	}, nil
}

func person(name, email string) benchdata.Person {
	p := benchdata.Person{Name: name, Email: email}
	if m := reNoReply.FindStringSubmatch(email); m != nil {
		p.Username = m[1]
	}
	return p
}

// WithURL fills in the commit URL for a repository URL.
func WithURL(c benchdata.Commit, repoURL string) benchdata.Commit {
	if repoURL != "" && c.ID != "" {
		c.URL = strings.TrimSuffix(repoURL, "/") + "/commit/" + c.ID
	}
	return c
}

// NormalizeRemote turns ssh, scp-like and credentialed remotes into
// https://host/owner/repo.
func NormalizeRemote(remote string) string {
	u := strings.TrimSpace(remote)
	if m := reSCPLike.FindStringSubmatch(u); m != nil && !strings.Contains(u, "://") {
		u = "https://" + m[1] + "/" + m[2]
	}
	for _, prefix := range []string{"ssh://", "git://", "http://"} {
		if strings.HasPrefix(u, prefix) {
			u = "https://" + strings.TrimPrefix(u, prefix)
		}
	}
	if strings.HasPrefix(u, "https://") {
		rest := strings.TrimPrefix(u, "https://")
		if at := strings.Index(rest, "@"); at >= 0 && at < strings.Index(rest+"/", "/") {
			rest = rest[at+1:]
		}
		u = "https://" + rest
	}
	u = strings.TrimSuffix(u, "/")
	return strings.TrimSuffix(u, ".git")
}
