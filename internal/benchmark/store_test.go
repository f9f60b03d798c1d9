package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkeep/internal/benchdata"
)

func sampleRun(id string, date int64, value float64) benchdata.Run {
	return benchdata.Run{
		Commit:  benchdata.Commit{ID: id},
		Date:    date,
		Tool:    ToolCargo,
		Benches: []benchdata.Bench{{Name: "B1", Value: value, Unit: "ns/iter"}},
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dev", "bench", "data.js")
	store, err := NewFileStore(path, "https://github.com/o/r")
	require.NoError(t, err)

	// Missing file loads as an empty document
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Entries)
	assert.Equal(t, "https://github.com/o/r", doc.RepoURL)

	_, err = store.Append(ctx, "suite", sampleRun("abc", 100, 100), 0)
	require.NoError(t, err)
	_, err = store.Append(ctx, "suite", sampleRun("def", 200, 110), 0)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "window.BENCHMARK_DATA = {"))

	doc, err = store.Load(ctx)
	require.NoError(t, err)
	runs, ok := doc.Suite("suite")
	require.True(t, ok)
	require.Len(t, runs, 2)
	assert.Equal(t, "abc", runs[0].Commit.ID)
	assert.Equal(t, "def", runs[1].Commit.ID)

	_, err = store.Append(ctx, "suite", sampleRun("ghi", 50, 1), 0)
	assert.ErrorIs(t, err, benchdata.ErrOutOfOrder)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_JSONExtension(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	store, err := NewFileStore(path, "")
	require.NoError(t, err)

	_, err = store.Append(ctx, "s", sampleRun("abc", 1, 1), 0)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{"))
}

func TestFileStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data.js"), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			_, err := store.Append(ctx, name, sampleRun(name, 1, float64(i)), 0)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Entries, 10)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.js")
	require.NoError(t, os.WriteFile(path, []byte("window.BENCHMARK_DATA = {oops"), 0644))
	store, err := NewFileStore(path, "")
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, benchdata.ErrMalformed)
}

func TestFileStore_CanceledContext(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data.js"), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
