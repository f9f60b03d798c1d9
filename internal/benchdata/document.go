package benchdata

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptySuite     = errors.New("suite name is empty")
	ErrDuplicateBench = errors.New("duplicate benchmark name in run")
	ErrOutOfOrder     = errors.New("run is older than the latest run of its suite")
)

var now = time.Now

// New returns an empty document for the given repository.
func New(repoURL string) *Document {
	return &Document{RepoURL: repoURL}
}

// SuiteNames returns suite names in document order.
func (d *Document) SuiteNames() []string {
	names := make([]string, 0, len(d.Entries))
	for _, s := range d.Entries {
		names = append(names, s.Name)
	}
	return names
}

// Suite returns the runs recorded for a suite, oldest first.
func (d *Document) Suite(name string) ([]Run, bool) {
	i := d.index(name)
	if i < 0 {
		return nil, false
	}
	return d.Entries[i].Runs, true
}

// Latest returns the most recent run of a suite.
func (d *Document) Latest(suite string) (Run, bool) {
	runs, _ := d.Suite(suite)
	if len(runs) == 0 {
		return Run{}, false
	}
	return runs[len(runs)-1], true
}

// Previous returns the run before the most recent one.
func (d *Document) Previous(suite string) (Run, bool) {
	runs, _ := d.Suite(suite)
	if len(runs) < 2 {
		return Run{}, false
	}
	return runs[len(runs)-2], true
}

// AddRun appends a run to a suite, creating the suite if needed, and keeps at most
// maxItems runs (0 keeps everything). A run for the same commit as the suite's
// latest run replaces it, provided it is not older than the run before that.
func (d *Document) AddRun(suite string, run Run, maxItems int) error {
	if suite == "" {
		return ErrEmptySuite
	}
	if name, dup := duplicateBench(run.Benches); dup {
		return fmt.Errorf("%w: %q", ErrDuplicateBench, name)
	}
	if run.Benches == nil {
		run.Benches = []Bench{}
	}

	i := d.index(suite)
	if i < 0 {
		d.Entries = append(d.Entries, Suite{Name: suite})
		i = len(d.Entries) - 1
	}

	s := &d.Entries[i]
	if n := len(s.Runs); n > 0 {
		last := s.Runs[n-1]
		switch {
		case last.Commit.ID != "" && last.Commit.ID == run.Commit.ID:
			if n > 1 && run.Date < s.Runs[n-2].Date {
				prev := s.Runs[n-2]
				return fmt.Errorf("%w: suite %q, %s < %s", ErrOutOfOrder, suite,
					run.Time().UTC().Format(time.RFC3339), prev.Time().UTC().Format(time.RFC3339))
			}
			s.Runs[n-1] = run
			d.touch()
			return nil
		case run.Date < last.Date:
			return fmt.Errorf("%w: suite %q, %s < %s", ErrOutOfOrder, suite,
				run.Time().UTC().Format(time.RFC3339), last.Time().UTC().Format(time.RFC3339))
		}
	}

	s.Runs = append(s.Runs, run)
	s.Runs = trimRuns(s.Runs, maxItems)
	d.touch()
	return nil
}

// Trim drops the oldest runs of every suite beyond maxItems and returns how many
// runs were removed.
func (d *Document) Trim(maxItems int) int {
	removed := 0
	for i := range d.Entries {
		before := len(d.Entries[i].Runs)
		d.Entries[i].Runs = trimRuns(d.Entries[i].Runs, maxItems)
		removed += before - len(d.Entries[i].Runs)
	}
	if removed > 0 {
		d.touch()
	}
	return removed
}

// Sort orders every suite's runs by date. Runs sharing a date keep their order.
func (d *Document) Sort() {
	for i := range d.Entries {
		runs := d.Entries[i].Runs
		sort.SliceStable(runs, func(a, b int) bool {
			return runs[a].Date < runs[b].Date
		})
	}
}

// RunCount returns the total number of runs across suites.
func (d *Document) RunCount() int {
	n := 0
	for _, s := range d.Entries {
		n += len(s.Runs)
	}
	return n
}

func (d *Document) index(name string) int {
	for i, s := range d.Entries {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func (d *Document) touch() {
	d.LastUpdate = now().UnixMilli()
}

func trimRuns(runs []Run, maxItems int) []Run {
	if maxItems <= 0 || len(runs) <= maxItems {
		return runs
	}
	return append([]Run(nil), runs[len(runs)-maxItems:]...)
}

func duplicateBench(benches []Bench) (string, bool) {
	seen := make(map[string]struct{}, len(benches))
	for _, b := range benches {
		if _, ok := seen[b.Name]; ok {
			return b.Name, true
		}
		seen[b.Name] = struct{}{}
	}
	return "", false
}
