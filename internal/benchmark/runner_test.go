package benchmark

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandRunner_Run(t *testing.T) {
	requireShell(t)
	r := NewCommandRunner(t.TempDir())
	r.Env = []string{"BENCH_VALUE=42"}

	out, err := r.Run(context.Background(), []string{"sh", "-c", `echo "test b ... bench: $BENCH_VALUE ns/iter (+/- 1)"; echo progress >&2`})
	require.NoError(t, err)
	assert.Contains(t, out, "progress")

	results, err := Parse(ToolCargo, out)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 42.0, results[0].Value)
}

func TestCommandRunner_Failure(t *testing.T) {
	requireShell(t)
	out, err := NewCommandRunner("").Run(context.Background(), []string{"sh", "-c", "echo boom; exit 3"})
	require.Error(t, err)
	assert.Contains(t, out, "boom")
	assert.Contains(t, err.Error(), "boom")
}

func TestCommandRunner_Canceled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewCommandRunner("").Run(ctx, []string{"sh", "-c", "sleep 5"})
	assert.Error(t, err)
}

func TestCommandRunner_Empty(t *testing.T) {
	_, err := NewCommandRunner("").Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestDefaultCommand(t *testing.T) {
	assert.Equal(t, []string{"go", "test", "-bench=.", "-benchmem", "-run=^$", "./..."}, DefaultCommand(ToolGo))
	assert.Equal(t, []string{"cargo", "bench"}, DefaultCommand(ToolCargo))
	assert.Nil(t, DefaultCommand(ToolBenchmarkJS))
}
