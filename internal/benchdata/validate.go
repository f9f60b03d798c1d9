package benchdata

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	commitIDRe = regexp.MustCompile(`^[0-9a-f]{40}$`)
	treeIDRe   = regexp.MustCompile(`^[0-9a-f]+$`)
	rangeRe    = regexp.MustCompile(`^(±|\+/-)\s*[0-9][0-9.,]*%?$`)
)

// Issue is a single problem found in a document. Run is -1 for suite level issues.
type Issue struct {
	Suite   string `json:"suite,omitempty"`
	Run     int    `json:"run"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	var loc []string
	if i.Suite != "" {
		loc = append(loc, fmt.Sprintf("suite %q", i.Suite))
	}
	if i.Run >= 0 {
		loc = append(loc, fmt.Sprintf("run %d", i.Run))
	}
	if i.Field != "" {
		loc = append(loc, i.Field)
	}
	if len(loc) == 0 {
		return i.Message
	}
	return strings.Join(loc, " ") + ": " + i.Message
}

// ValidationError carries every issue found by Validate.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid benchmark data: " + e.Issues[0].String()
	}
	return fmt.Sprintf("invalid benchmark data: %d issues, first: %s", len(e.Issues), e.Issues[0])
}

// Check returns a *ValidationError when Validate finds anything.
func Check(doc *Document) error {
	if issues := Validate(doc); len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Validate checks field shapes, chronological order of each suite and uniqueness
// of measurement names within each run.
func Validate(doc *Document) []Issue {
	var issues []Issue
	add := func(suite string, run int, field, format string, args ...any) {
		issues = append(issues, Issue{Suite: suite, Run: run, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool)
	for _, s := range doc.Entries {
		if s.Name == "" {
			add("", -1, "", "suite with empty name")
		}
		if seen[s.Name] {
			add(s.Name, -1, "", "suite listed more than once")
		}
		seen[s.Name] = true

		for i, r := range s.Runs {
			if i > 0 && r.Date < s.Runs[i-1].Date {
				add(s.Name, i, "date", "run is older than the run before it")
			}
			if r.Date <= 0 {
				add(s.Name, i, "date", "missing or non-positive date %d", r.Date)
			}
			if r.Tool == "" {
				add(s.Name, i, "tool", "missing tool")
			}
			validateCommit(r.Commit, func(field, format string, args ...any) {
				add(s.Name, i, "commit."+field, format, args...)
			})
			if len(r.Benches) == 0 {
				add(s.Name, i, "benches", "run has no measurements")
			}
			names := make(map[string]bool, len(r.Benches))
			for j, b := range r.Benches {
				field := fmt.Sprintf("benches[%d]", j)
				if b.Name == "" {
					add(s.Name, i, field+".name", "empty measurement name")
				} else if names[b.Name] {
					add(s.Name, i, field+".name", "duplicate measurement name %q", b.Name)
				}
				names[b.Name] = true
				if b.Unit == "" {
					add(s.Name, i, field+".unit", "missing unit")
				}
				if b.Range != "" && !rangeRe.MatchString(b.Range) {
					add(s.Name, i, field+".range", "unrecognized range %q", b.Range)
				}
			}
		}
	}
	return issues
}

func validateCommit(c Commit, add func(field, format string, args ...any)) {
	if !commitIDRe.MatchString(c.ID) {
		add("id", "expected 40 lowercase hex characters, got %q", c.ID)
	}
	if c.TreeID != "" && !treeIDRe.MatchString(c.TreeID) {
		add("tree_id", "not a hex object id: %q", c.TreeID)
	}
	if c.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, c.Timestamp); err != nil {
			add("timestamp", "not an ISO-8601 timestamp: %q", c.Timestamp)
		}
	}
}
