package main

import (
	"fmt"
	"strconv"
	"time"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/benchmark"
	"benchkeep/internal/ui"
)

// printComparison renders curr against prev as a table, one row per measurement
// of the current run.
func printComparison(p *ui.Printer, prev *benchdata.Run, curr benchdata.Run, comps []benchmark.Comparison, threshold float64) {
	byName := make(map[string]benchmark.Comparison, len(comps))
	for _, c := range comps {
		byName[c.Name] = c
	}

	rows := make([][]string, 0, len(curr.Benches))
	for _, b := range curr.Benches {
		c, ok := byName[b.Name]
		if !ok || prev == nil {
			rows = append(rows, []string{b.Name, formatValue(b), "-", "-", p.Status(ui.StatusNew)})
			continue
		}
		change, ratio := "-", "-"
		if c.Comparable {
			change = fmt.Sprintf("%+.2f%%", c.Change())
			ratio = strconv.FormatFloat(c.Ratio, 'f', 2, 64)
		}
		rows = append(rows, []string{b.Name, formatValue(b), formatValue(c.Prev), change + " (" + ratio + ")", p.Status(status(c, threshold))})
	}
	p.Table([]string{"BENCHMARK", "CURRENT", "PREVIOUS", "CHANGE", "STATUS"}, rows)
}

func status(c benchmark.Comparison, threshold float64) ui.Status {
	switch {
	case !c.Comparable:
		return ui.StatusOK
	case c.Regressed(threshold):
		return ui.StatusRegressed
	case c.Ratio < 1/threshold:
		return ui.StatusImproved
	default:
		return ui.StatusOK
	}
}

func formatValue(b benchdata.Bench) string {
	s := strconv.FormatFloat(b.Value, 'f', -1, 64) + " " + b.Unit
	if b.Range != "" {
		s += " " + b.Range
	}
	return s
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	if id == "" {
		return "-"
	}
	return id
}

func formatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}
