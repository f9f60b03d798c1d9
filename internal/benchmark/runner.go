package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner defines the interface for running benchmarks.
type Runner interface {
	Run(ctx context.Context, command []string) (string, error)
}

// CommandRunner runs a benchmark command and captures its output.
type CommandRunner struct {
	Dir string
	Env []string
}

func NewCommandRunner(dir string) *CommandRunner {
	return &CommandRunner{Dir: dir}
}

// DefaultCommand returns the usual invocation for a tool, or nil when the tool
// has no standard runner.
func DefaultCommand(tool string) []string {
	switch tool {
	case ToolGo:
		return []string{"go", "test", "-bench=.", "-benchmem", "-run=^$", "./..."}
	case ToolCargo:
		return []string{"cargo", "bench"}
	}
	return nil
}

func (r *CommandRunner) Run(ctx context.Context, command []string) (string, error) {
	if len(command) == 0 {
		return "", errors.New("empty benchmark command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	// Tools mostly print results on stdout, but cargo reports progress on stderr.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("benchmark command %q failed: %w\nOutput:\n%s",
			strings.Join(command, " "), err, out.String())
	}
	return out.String(), nil
}
