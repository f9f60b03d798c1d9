package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/git"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// executeCommand runs root with args and returns everything written to stdout
// and stderr.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	return executeCommandWithInput(root, "", args...)
}

func executeCommandWithInput(root *cobra.Command, input string, args ...string) (string, error) {
	resetFlags(root)
	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				return
			}
			panic(r)
		}
	}()
	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	root.SetIn(bytes.NewBufferString(input))
	err := root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type fakeGit struct {
	commits []benchdata.Commit
	calls   int
}

func (f *fakeGit) CommitInfo(ctx context.Context, dir, rev string) (benchdata.Commit, error) {
	return f.HeadCommit(ctx, dir)
}

func (f *fakeGit) HeadCommit(ctx context.Context, dir string) (benchdata.Commit, error) {
	c := f.commits[f.calls%len(f.commits)]
	f.calls++
	return c, nil
}

func (f *fakeGit) RemoteURL(ctx context.Context, dir, remote string) (string, error) {
	return "https://github.com/acme/widget", nil
}

// useFakeGit makes record read commits from the list, in order.
func useFakeGit(t *testing.T, ids ...string) *fakeGit {
	t.Helper()
	f := &fakeGit{}
	for _, id := range ids {
		f.commits = append(f.commits, benchdata.Commit{
			ID:        id,
			Message:   "commit " + id[:7],
			Timestamp: "2026-10-01T12:00:00+02:00",
			Distinct:  true,
		})
	}
	orig := gitClientFactory
	gitClientFactory = func() git.IClient { return f }
	t.Cleanup(func() { gitClientFactory = orig })
	return f
}

func historyPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "dev", "bench", "data.js")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func goBenchOutput(encode, decode string) string {
	return "goos: linux\ngoarch: amd64\npkg: example.com/widget\n" +
		"BenchmarkEncode-8   \t 1000000\t " + encode + " ns/op\t  64 B/op\t 2 allocs/op\n" +
		"BenchmarkDecode-8   \t  500000\t " + decode + " ns/op\n" +
		"PASS\nok  \texample.com/widget\t3.2s\n"
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

const (
	sha1 = "1111111111111111111111111111111111111111"
	sha2 = "2222222222222222222222222222222222222222"
	sha3 = "3333333333333333333333333333333333333333"
)
