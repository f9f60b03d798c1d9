package benchdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	old := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = old })
}

func testRun(id string, date int64, benches ...Bench) Run {
	if benches == nil {
		benches = []Bench{{Name: "b", Value: 1, Unit: "ns/iter"}}
	}
	return Run{
		Commit:  Commit{ID: id},
		Date:    date,
		Tool:    "cargo",
		Benches: benches,
	}
}

func TestAddRun_CreatesSuiteAndAppends(t *testing.T) {
	fixedNow(t, time.UnixMilli(5000))
	doc := New("https://github.com/o/r")

	require.NoError(t, doc.AddRun("suite", testRun("a", 100), 0))
	require.NoError(t, doc.AddRun("other", testRun("a", 100), 0))
	require.NoError(t, doc.AddRun("suite", testRun("b", 200), 0))

	assert.Equal(t, []string{"suite", "other"}, doc.SuiteNames())
	runs, ok := doc.Suite("suite")
	require.True(t, ok)
	assert.Len(t, runs, 2)
	assert.Equal(t, int64(5000), doc.LastUpdate)

	latest, _ := doc.Latest("suite")
	prev, _ := doc.Previous("suite")
	assert.Equal(t, "b", latest.Commit.ID)
	assert.Equal(t, "a", prev.Commit.ID)
	assert.Equal(t, 3, doc.RunCount())
}

func TestAddRun_Errors(t *testing.T) {
	doc := New("")
	assert.ErrorIs(t, doc.AddRun("", testRun("a", 1), 0), ErrEmptySuite)

	dup := testRun("a", 1, Bench{Name: "x", Unit: "u"}, Bench{Name: "x", Unit: "u"})
	assert.ErrorIs(t, doc.AddRun("s", dup, 0), ErrDuplicateBench)

	require.NoError(t, doc.AddRun("s", testRun("a", 100), 0))
	assert.ErrorIs(t, doc.AddRun("s", testRun("b", 50), 0), ErrOutOfOrder)
	runs, _ := doc.Suite("s")
	assert.Len(t, runs, 1)
}

func TestAddRun_SameCommitReplacesLatest(t *testing.T) {
	doc := New("")
	require.NoError(t, doc.AddRun("s", testRun("a", 100), 0))
	require.NoError(t, doc.AddRun("s", testRun("a", 90, Bench{Name: "new", Value: 2, Unit: "u"}), 0))

	runs, _ := doc.Suite("s")
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].Benches[0].Name)
}

func TestAddRun_SameCommitReplacementKeepsOrder(t *testing.T) {
	doc := New("")
	require.NoError(t, doc.AddRun("s", testRun("a", 100), 0))
	require.NoError(t, doc.AddRun("s", testRun("b", 200), 0))

	err := doc.AddRun("s", testRun("b", 50), 0)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	runs, _ := doc.Suite("s")
	require.Len(t, runs, 2)
	assert.Equal(t, int64(100), runs[0].Date)
	assert.Equal(t, int64(200), runs[1].Date)

	require.NoError(t, doc.AddRun("s", testRun("b", 150), 0))
	runs, _ = doc.Suite("s")
	assert.Equal(t, int64(150), runs[1].Date)
}

func TestAddRun_MaxItems(t *testing.T) {
	doc := New("")
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, doc.AddRun("s", testRun(string(rune('a'+i)), i*10), 3))
	}
	runs, _ := doc.Suite("s")
	require.Len(t, runs, 3)
	assert.Equal(t, int64(30), runs[0].Date)
	assert.Equal(t, int64(50), runs[2].Date)
}

func TestAddRun_NilBenchesEncodeAsEmptyList(t *testing.T) {
	doc := New("")
	run := testRun("a", 1)
	run.Benches = nil
	require.NoError(t, doc.AddRun("s", run, 0))
	runs, _ := doc.Suite("s")
	assert.NotNil(t, runs[0].Benches)
}

func TestTrimAndSort(t *testing.T) {
	doc := &Document{Entries: Entries{
		{Name: "a", Runs: []Run{testRun("3", 30), testRun("1", 10), testRun("2", 20)}},
		{Name: "b", Runs: []Run{testRun("1", 10)}},
	}}

	doc.Sort()
	runs, _ := doc.Suite("a")
	assert.Equal(t, []int64{10, 20, 30}, []int64{runs[0].Date, runs[1].Date, runs[2].Date})

	assert.Equal(t, 2, doc.Trim(1))
	runs, _ = doc.Suite("a")
	require.Len(t, runs, 1)
	assert.Equal(t, int64(30), runs[0].Date)
	assert.Equal(t, 0, doc.Trim(0))
}

func TestSuite_Missing(t *testing.T) {
	doc := New("")
	_, ok := doc.Suite("nope")
	assert.False(t, ok)
	_, ok = doc.Latest("nope")
	assert.False(t, ok)
	_, ok = doc.Previous("nope")
	assert.False(t, ok)
}
