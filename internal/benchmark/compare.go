package benchmark

import (
	"fmt"
	"strconv"
	"strings"

	"benchkeep/internal/benchdata"
)

// DefaultThreshold is the ratio above which a change is reported as a regression.
const DefaultThreshold = 2.0

// Comparison pairs a measurement from the current run with the previous run.
type Comparison struct {
	Name string
	Prev benchdata.Bench
	Curr benchdata.Bench
	// Ratio is above 1 when the current run is worse.
	Ratio float64
	// Comparable is false when the previous value was zero or units differ.
	Comparable bool
}

// Compare returns comparisons for measurements present in both runs, in the
// current run's order.
func Compare(prev, curr benchdata.Run, biggerIsBetter bool) []Comparison {
	prevMap := make(map[string]benchdata.Bench, len(prev.Benches))
	for _, b := range prev.Benches {
		prevMap[b.Name] = b
	}

	var comparisons []Comparison
	for _, c := range curr.Benches {
		p, ok := prevMap[c.Name]
		if !ok {
			continue
		}
		comp := Comparison{Name: c.Name, Prev: p, Curr: c, Ratio: 1}
		if p.Unit == c.Unit {
			num, den := c.Value, p.Value
			if biggerIsBetter {
				num, den = p.Value, c.Value
			}
			if den != 0 {
				comp.Ratio = num / den
				comp.Comparable = true
			}
		}
		comparisons = append(comparisons, comp)
	}
	return comparisons
}

// Regressed reports whether the change exceeds threshold.
func (c Comparison) Regressed(threshold float64) bool {
	return c.Comparable && c.Ratio > threshold
}

// Change is the relative change of the current value, in percent.
func (c Comparison) Change() float64 {
	if c.Prev.Value == 0 {
		return 0
	}
	return (c.Curr.Value - c.Prev.Value) / c.Prev.Value * 100
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s: %+.2f%% (ratio %.2f)", c.Name, c.Change(), c.Ratio)
}

// Alerts returns the comparisons whose ratio exceeds threshold.
func Alerts(comps []Comparison, threshold float64) []Comparison {
	var out []Comparison
	for _, c := range comps {
		if c.Regressed(threshold) {
			out = append(out, c)
		}
	}
	return out
}

// ParseThreshold accepts "200%", "2" or "2.0".
func ParseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	if pct {
		v /= 100
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid threshold %q: must be positive", s)
	}
	return v, nil
}

// FormatThreshold renders a ratio threshold as a percentage.
func FormatThreshold(threshold float64) string {
	return strconv.FormatFloat(threshold*100, 'f', -1, 64) + "%"
}

// FormatAlert renders a markdown report for a regression.
func FormatAlert(suite string, prev, curr benchdata.Run, alerts []Comparison, threshold float64) string {
	var sb strings.Builder
	sb.WriteString("# :warning: **Performance Alert** :warning:\n\n")
	fmt.Fprintf(&sb, "Possible performance regression was detected for benchmark **'%s'**.\n", suite)
	fmt.Fprintf(&sb, "Benchmark result of this commit is worse than the previous benchmark result exceeding threshold `%s`.\n\n",
		FormatThreshold(threshold))

	fmt.Fprintf(&sb, "| Benchmark suite | Current: %s | Previous: %s | Ratio |\n", commitLink(curr.Commit), commitLink(prev.Commit))
	sb.WriteString("|-|-|-|-|\n")
	for _, a := range alerts {
		fmt.Fprintf(&sb, "| `%s` | `%s` | `%s` | `%s` |\n", a.Name, formatBench(a.Curr), formatBench(a.Prev),
			strconv.FormatFloat(a.Ratio, 'f', 2, 64))
	}
	return sb.String()
}

func commitLink(c benchdata.Commit) string {
	id := c.ID
	if id == "" {
		return "-"
	}
	if c.URL == "" {
		return id
	}
	return fmt.Sprintf("[%s](%s)", id, c.URL)
}

func formatBench(b benchdata.Bench) string {
	s := strconv.FormatFloat(b.Value, 'f', -1, 64) + " " + b.Unit
	if b.Range != "" {
		s += " (" + b.Range + ")"
	}
	return s
}
