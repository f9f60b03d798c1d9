package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/benchmark"
	"benchkeep/internal/config"
	"benchkeep/internal/ui"
	"benchkeep/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	recordSuite       string
	recordTool        string
	recordOutputFile  string
	recordDir         string
	recordThreshold   string
	recordMaxItems    int
	recordFailOnAlert bool
	recordCommitID    string
	recordDate        int64
)

var recordCmd = &cobra.Command{
	Use:   "record [-- command args...]",
	Short: "Parse benchmark output and append it to the history",
	Long: `Parses the output of a benchmark tool and appends it as a new run of a suite.

The output is read from --output-file ("-" for stdin). Without one, the command after
"--" is executed, or the tool's default command (go test -bench, cargo bench) when
none is given. The run is compared with the previous run of the suite and an alert
is reported for every measurement that got worse by more than --threshold.`,
	Example: `  go test -bench=. ./... | benchkeep record -s "Go Benchmark" -t go -o -
  benchkeep record -s "Rust" -t cargo -- cargo bench --bench parser`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordSuite, "suite", "s", "", "Suite name the run is recorded under")
	recordCmd.Flags().StringVarP(&recordTool, "tool", "t", "", "Benchmark tool: go, cargo, benchmarkjs, googlecpp, customBiggerIsBetter, customSmallerIsBetter")
	recordCmd.Flags().StringVarP(&recordOutputFile, "output-file", "o", "", "File holding the tool output (- for stdin)")
	recordCmd.Flags().StringVar(&recordDir, "dir", ".", "Repository directory for commit metadata and the benchmark command")
	recordCmd.Flags().StringVar(&recordThreshold, "threshold", "", "Alert threshold as a ratio or percentage (default from config, 200%)")
	recordCmd.Flags().IntVar(&recordMaxItems, "max-items", -1, "Keep at most this many runs per suite (default from config, 0 keeps all)")
	recordCmd.Flags().BoolVar(&recordFailOnAlert, "fail-on-alert", false, "Exit with an error when a regression is detected")
	recordCmd.Flags().StringVar(&recordCommitID, "commit", "", "Record against this commit id instead of reading git")
	recordCmd.Flags().Int64Var(&recordDate, "date", 0, "Run date in epoch milliseconds (default now)")
	_ = recordCmd.MarkFlagRequired("suite")
	_ = recordCmd.MarkFlagRequired("tool")
}

func runRecord(cmd *cobra.Command, args []string) error {
	s := config.Current()

	threshold, err := resolveThreshold(recordThreshold, s.Threshold)
	if err != nil {
		return err
	}
	maxItems := s.MaxItems
	if recordMaxItems >= 0 {
		maxItems = recordMaxItems
	}

	output, err := readToolOutput(cmd.InOrStdin(), recordOutputFile)
	if err != nil {
		return err
	}
	if recordOutputFile != "" && output == "" {
		return fmt.Errorf("%s: %w", recordOutputFile, benchmark.ErrNoBenchmarks)
	}

	rec, err := newRecorder(s, recordDir)
	if err != nil {
		return err
	}
	if rec.Index != nil {
		defer rec.Index.Close()
	}

	cfg := workflow.RecordConfig{
		Suite:     recordSuite,
		Tool:      recordTool,
		Output:    output,
		Command:   args,
		Dir:       recordDir,
		RepoURL:   s.RepoURL,
		Threshold: threshold,
		MaxItems:  maxItems,
		Date:      recordDate,
	}
	if recordCommitID != "" {
		cfg.Commit = &benchdata.Commit{ID: recordCommitID, Distinct: true}
	}

	ctx, cancel := commandContext(cmd, s.CommandTimeout)
	defer cancel()

	res, err := rec.Record(ctx, cfg)
	if err != nil {
		return err
	}
	pushMetrics(cmd, s, rec)
	return reportResult(cmd, res, recordFailOnAlert)
}

// reportResult prints a recorded run and turns alerts into an error when asked to.
func reportResult(cmd *cobra.Command, res *workflow.Result, failOnAlert bool) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Title(fmt.Sprintf("%s @ %s", res.Suite, shortID(res.Run.Commit.ID)))
	printComparison(p, res.Previous, res.Run, res.Comparisons, res.Threshold)
	if res.IndexErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (run `benchkeep import` to rebuild the index)\n", res.IndexErr)
	}

	if !res.Regressed() {
		p.Muted("No regression above %s.", benchmark.FormatThreshold(res.Threshold))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout())
	p.Markdown(res.Report)
	if res.Notified {
		p.Muted("Alert sent.")
	}
	if failOnAlert {
		return fmt.Errorf("%w in suite %q: %d benchmark(s) above %s", workflow.ErrRegression,
			res.Suite, len(res.Alerts), benchmark.FormatThreshold(res.Threshold))
	}
	return nil
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

func resolveThreshold(flag, configured string) (float64, error) {
	raw := flag
	if raw == "" {
		raw = configured
	}
	if raw == "" {
		return benchmark.DefaultThreshold, nil
	}
	return benchmark.ParseThreshold(raw)
}

func readToolOutput(stdin io.Reader, path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read benchmark output from stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read benchmark output: %w", err)
		}
		return string(data), nil
	}
}
