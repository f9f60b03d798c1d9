package benchmark

import (
	"bufio"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"benchkeep/internal/benchdata"

	"github.com/montanaflynn/stats"
)

var (
	// BenchmarkName-8   1000000   1000 ns/op   100 B/op   10 allocs/op
	goBenchRe = regexp.MustCompile(`^(Benchmark\S*?)(?:-(\d+))?\s+(\d+)\s+(.+)$`)

	// test bench_name ... bench:  40,069,760 ns/iter (+/- 2,278,561)
	cargoBenchRe = regexp.MustCompile(`^test\s+(\S+)\s+\.\.\.\s+bench:\s+([0-9,.]+)\s+(\S+)\s+\(\+/-\s+([0-9,.]+)\)`)

	// fib(20) x 11,465 ops/sec ±1.12% (91 runs sampled)
	benchmarkJSRe = regexp.MustCompile(`^(.+) x ([0-9,.]+) (\S+) ±([0-9.]+%) \((\d+) runs? sampled\)`)
)

// Parse extracts measurements from a tool's raw output.
func Parse(tool, output string) ([]benchdata.Bench, error) {
	var (
		benches []benchdata.Bench
		err     error
	)
	switch tool {
	case ToolGo:
		benches, err = parseGo(output)
	case ToolCargo:
		benches, err = parseCargo(output)
	case ToolBenchmarkJS:
		benches, err = parseBenchmarkJS(output)
	case ToolGoogleCpp:
		benches, err = parseGoogleCpp(output)
	case ToolCustomBiggerIsBetter, ToolCustomSmallerIsBetter:
		benches, err = parseCustom(output)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s output: %w", tool, err)
	}
	if len(benches) == 0 {
		return nil, ErrNoBenchmarks
	}
	return benches, nil
}

func parseGo(output string) ([]benchdata.Bench, error) {
	var results []benchdata.Bench
	// go test -count=N repeats every line; repeats are merged by name.
	samples := make(map[string][]float64)
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		matches := goBenchRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if matches == nil {
			continue
		}
		name, procs, iterations := matches[1], matches[2], matches[3]

		// The remainder is a sequence of "<value> <unit>" pairs; ns/op comes first.
		fields := strings.Fields(matches[4])
		if len(fields) < 2 || len(fields)%2 != 0 {
			continue
		}

		extra := iterations + " times"
		if procs != "" {
			extra += "\n" + procs + " procs"
		}

		for i := 0; i < len(fields); i += 2 {
			val, err := parseNumber(fields[i])
			if err != nil {
				break
			}
			unit := fields[i+1]
			b := benchdata.Bench{Name: name, Value: val, Unit: unit, Extra: extra}
			if i > 0 {
				b.Name = name + " - " + unit
			}
			if _, seen := samples[b.Name]; !seen {
				results = append(results, b)
			}
			samples[b.Name] = append(samples[b.Name], val)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		values := samples[results[i].Name]
		if len(values) < 2 {
			continue
		}
		mean, err := stats.Mean(values)
		if err != nil {
			return nil, fmt.Errorf("bench %s: %w", results[i].Name, err)
		}
		sd, err := stats.StandardDeviationSample(values)
		if err != nil {
			return nil, fmt.Errorf("bench %s: %w", results[i].Name, err)
		}
		results[i].Value = mean
		results[i].Range = "± " + strconv.FormatFloat(sd, 'f', 2, 64)
		results[i].Extra += fmt.Sprintf("\n%d samples", len(values))
	}
	return results, nil
}

func parseCargo(output string) ([]benchdata.Bench, error) {
	var results []benchdata.Bench
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		matches := cargoBenchRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if matches == nil {
			continue
		}
		val, err := parseNumber(matches[2])
		if err != nil {
			return nil, fmt.Errorf("bench %s: %w", matches[1], err)
		}
		results = append(results, benchdata.Bench{
			Name:  matches[1],
			Value: val,
			Range: "± " + strings.ReplaceAll(matches[4], ",", ""),
			Unit:  matches[3],
		})
	}
	return results, scanner.Err()
}

func parseBenchmarkJS(output string) ([]benchdata.Bench, error) {
	var results []benchdata.Bench
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		matches := benchmarkJSRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if matches == nil {
			continue
		}
		val, err := parseNumber(matches[2])
		if err != nil {
			return nil, fmt.Errorf("bench %s: %w", matches[1], err)
		}
		results = append(results, benchdata.Bench{
			Name:  matches[1],
			Value: val,
			Range: "±" + matches[4],
			Unit:  matches[3],
			Extra: matches[5] + " samples",
		})
	}
	return results, scanner.Err()
}

type googleCppOutput struct {
	Benchmarks []struct {
		Name       string  `json:"name"`
		RunType    string  `json:"run_type"`
		Iterations int64   `json:"iterations"`
		RealTime   float64 `json:"real_time"`
		CPUTime    float64 `json:"cpu_time"`
		TimeUnit   string  `json:"time_unit"`
		Threads    int     `json:"threads"`
	} `json:"benchmarks"`
}

func parseGoogleCpp(output string) ([]benchdata.Bench, error) {
	var out googleCppOutput
	if err := json.Unmarshal([]byte(output), &out); err != nil {
		return nil, err
	}
	var results []benchdata.Bench
	for _, b := range out.Benchmarks {
		if b.RunType == "aggregate" {
			continue
		}
		results = append(results, benchdata.Bench{
			Name:  b.Name,
			Value: b.RealTime,
			Unit:  b.TimeUnit + "/iter",
			Extra: fmt.Sprintf("iterations: %d\ncpu: %s %s\nthreads: %d",
				b.Iterations, strconv.FormatFloat(b.CPUTime, 'f', -1, 64), b.TimeUnit, b.Threads),
		})
	}
	return results, nil
}

func parseCustom(output string) ([]benchdata.Bench, error) {
	var results []benchdata.Bench
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		return nil, err
	}
	for i, b := range results {
		if b.Name == "" || b.Unit == "" {
			return nil, fmt.Errorf("entry %d: name and unit are required", i)
		}
	}
	return results, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
