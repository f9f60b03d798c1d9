// Package benchdata models the benchmark history document consumed by the chart
// page: a repository URL plus, per benchmark suite, the ordered list of run records.
package benchdata

import "time"

// Person identifies a commit author or committer.
type Person struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Commit is the commit metadata attached to a run.
type Commit struct {
	Author    Person `json:"author"`
	Committer Person `json:"committer"`
	Distinct  bool   `json:"distinct"`
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	TreeID    string `json:"tree_id"`
	URL       string `json:"url"`
}

// Bench is a single named measurement of a run.
type Bench struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Range string  `json:"range,omitempty"`
	Unit  string  `json:"unit"`
	Extra string  `json:"extra,omitempty"`
}

// Run is one historical data point: a commit and the measurements taken for it.
type Run struct {
	Commit  Commit  `json:"commit"`
	Date    int64   `json:"date"` // epoch milliseconds
	Tool    string  `json:"tool"`
	Benches []Bench `json:"benches"`
}

// Time returns the run date as a time.Time.
func (r Run) Time() time.Time {
	return time.UnixMilli(r.Date)
}

// Bench looks up a measurement by name.
func (r Run) Bench(name string) (Bench, bool) {
	for _, b := range r.Benches {
		if b.Name == name {
			return b, true
		}
	}
	return Bench{}, false
}

// Suite is a named, chronologically ordered list of runs.
type Suite struct {
	Name string
	Runs []Run
}

// Document is the full benchmark history.
type Document struct {
	LastUpdate int64   `json:"lastUpdate"`
	RepoURL    string  `json:"repoUrl"`
	Entries    Entries `json:"entries"`
}
