package benchmark

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"benchkeep/internal/benchdata"
)

// Summary describes one measurement across a suite's history.
type Summary struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Samples int     `json:"samples"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stddev"`
	P95     float64 `json:"p95"`
	Latest  float64 `json:"latest"`
}

// Summarize computes per-measurement statistics over runs, in order of first
// appearance.
func Summarize(runs []benchdata.Run) ([]Summary, error) {
	var order []string
	values := make(map[string][]float64)
	units := make(map[string]string)
	for _, r := range runs {
		for _, b := range r.Benches {
			if _, ok := values[b.Name]; !ok {
				order = append(order, b.Name)
			}
			values[b.Name] = append(values[b.Name], b.Value)
			units[b.Name] = b.Unit
		}
	}

	summaries := make([]Summary, 0, len(order))
	for _, name := range order {
		data := stats.Float64Data(values[name])
		s := Summary{Name: name, Unit: units[name], Samples: len(data), Latest: data[len(data)-1]}

		var err error
		if s.Min, err = stats.Min(data); err != nil {
			return nil, fmt.Errorf("failed to calculate min for %s: %w", name, err)
		}
		if s.Max, err = stats.Max(data); err != nil {
			return nil, fmt.Errorf("failed to calculate max for %s: %w", name, err)
		}
		if s.Mean, err = stats.Mean(data); err != nil {
			return nil, fmt.Errorf("failed to calculate mean for %s: %w", name, err)
		}
		if s.Median, err = stats.Median(data); err != nil {
			return nil, fmt.Errorf("failed to calculate median for %s: %w", name, err)
		}
		if s.StdDev, err = stats.StandardDeviation(data); err != nil {
			return nil, fmt.Errorf("failed to calculate standard deviation for %s: %w", name, err)
		}
		if s.P95, err = stats.Percentile(data, 95); err != nil {
			return nil, fmt.Errorf("failed to calculate p95 for %s: %w", name, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
