package benchdata

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRun(id string, date int64) Run {
	return Run{
		Commit: Commit{
			Author:    Person{Name: "A", Email: "a@example.com", Username: "a"},
			Committer: Person{Name: "A", Email: "a@example.com", Username: "a"},
			Distinct:  true,
			ID:        id,
			Message:   "msg",
			Timestamp: "2020-09-27T11:05:53+13:00",
			TreeID:    "b3d64858ce9f7908b5db4c7bc6856358a23e629b",
			URL:       "https://github.com/o/r/commit/" + id,
		},
		Date: date,
		Tool: "cargo",
		Benches: []Bench{
			{Name: "x", Value: 1, Range: "± 2", Unit: "ns/iter"},
			{Name: "y", Value: 3, Range: "±1.5%", Unit: "ops/sec"},
		},
	}
}

const (
	idA = "ebe78291bbeef287617a89a0076b16d4f120a4bc"
	idB = "0123456789abcdef0123456789abcdef01234567"
)

func TestValidate_Fixture(t *testing.T) {
	doc, err := Parse(loadFixture(t))
	require.NoError(t, err)
	assert.Empty(t, Validate(doc))
	assert.NoError(t, Check(doc))
}

func TestValidate_Issues(t *testing.T) {
	bad := validRun("not-a-sha", 50)
	bad.Commit.Timestamp = "yesterday"
	bad.Commit.TreeID = "xyz"
	bad.Tool = ""
	bad.Benches = []Bench{
		{Name: "x", Value: 1, Unit: "ns/iter", Range: "about 3"},
		{Name: "x", Value: 2, Unit: ""},
	}

	doc := &Document{Entries: Entries{{Name: "s", Runs: []Run{validRun(idA, 100), bad}}}}
	issues := Validate(doc)

	fields := make(map[string]bool)
	for _, i := range issues {
		assert.Equal(t, "s", i.Suite)
		assert.Equal(t, 1, i.Run)
		fields[i.Field] = true
	}
	for _, f := range []string{
		"date", "tool", "commit.id", "commit.timestamp", "commit.tree_id",
		"benches[0].range", "benches[1].name", "benches[1].unit",
	} {
		assert.True(t, fields[f], "expected issue for %s", f)
	}
}

func TestValidate_SuiteLevel(t *testing.T) {
	doc := &Document{Entries: Entries{
		{Name: "s", Runs: []Run{validRun(idA, 1)}},
		{Name: "s", Runs: []Run{validRun(idB, 2)}},
		{Name: "", Runs: nil},
	}}
	issues := Validate(doc)
	require.Len(t, issues, 2)
	assert.Equal(t, -1, issues[0].Run)
	assert.Contains(t, issues[0].String(), "more than once")
	assert.Equal(t, "suite with empty name", issues[1].String())
}

func TestValidate_EmptyRun(t *testing.T) {
	run := validRun(idA, 1)
	run.Benches = nil
	doc := &Document{Entries: Entries{{Name: "s", Runs: []Run{run}}}}
	issues := Validate(doc)
	require.Len(t, issues, 1)
	assert.Equal(t, "benches", issues[0].Field)
}

func TestCheck_ValidationError(t *testing.T) {
	doc := &Document{Entries: Entries{{Name: "s", Runs: []Run{validRun(idA, 100), validRun(idB, 10)}}}}
	err := Check(doc)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, `invalid benchmark data: suite "s" run 1 date: run is older than the run before it`, err.Error())
}

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, ValidateSchema(loadFixture(t)))

	doc := New("https://github.com/o/r")
	require.NoError(t, doc.AddRun("s", validRun(idA, 1), 0))
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, doc))
	assert.NoError(t, ValidateSchema(buf.Bytes()))

	err := ValidateSchema([]byte(`{"lastUpdate": 1, "repoUrl": "r", "entries": {"s": [{"date": "today"}]}}`))
	assert.Error(t, err)

	err = ValidateSchema([]byte(`{"repoUrl": "r"}`))
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	a := &Document{RepoURL: "r", Entries: Entries{{Name: "x", Runs: []Run{}}, {Name: "y", Runs: []Run{}}}}
	b := &Document{RepoURL: "r", Entries: Entries{{Name: "y", Runs: []Run{}}, {Name: "x", Runs: []Run{}}}}

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Len(t, da, 64)
	assert.Equal(t, da, db)

	b.RepoURL = "other"
	dc, err := Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}
