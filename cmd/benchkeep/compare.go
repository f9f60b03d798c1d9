package main

import (
	"fmt"
	"strings"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/benchmark"
	"benchkeep/internal/config"
	"benchkeep/internal/ui"
	"benchkeep/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	compareSuite       string
	compareFrom        string
	compareTo          string
	compareThreshold   string
	compareFailOnAlert bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two recorded runs of a suite",
	Long: `Compares two runs of a suite. By default the latest run is compared with the one
before it; --from and --to select runs by commit id prefix.`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVarP(&compareSuite, "suite", "s", "", "Suite to compare")
	compareCmd.Flags().StringVar(&compareFrom, "from", "", "Commit id (prefix) of the baseline run")
	compareCmd.Flags().StringVar(&compareTo, "to", "", "Commit id (prefix) of the run to check")
	compareCmd.Flags().StringVar(&compareThreshold, "threshold", "", "Alert threshold (default from config, 200%)")
	compareCmd.Flags().BoolVar(&compareFailOnAlert, "fail-on-alert", false, "Exit with an error when a regression is detected")
	_ = compareCmd.MarkFlagRequired("suite")
}

func runCompare(cmd *cobra.Command, args []string) error {
	s := config.Current()
	threshold, err := resolveThreshold(compareThreshold, s.Threshold)
	if err != nil {
		return err
	}

	files, err := openFileStore(s)
	if err != nil {
		return err
	}
	doc, err := files.Load(cmd.Context())
	if err != nil {
		return err
	}
	runs, ok := doc.Suite(compareSuite)
	if !ok {
		return fmt.Errorf("suite %q not found in %s", compareSuite, files.Path())
	}

	curr, prev, err := selectRuns(runs, compareFrom, compareTo)
	if err != nil {
		return err
	}

	comps := benchmark.Compare(prev, curr, benchmark.BiggerIsBetter(curr.Tool))
	alerts := benchmark.Alerts(comps, threshold)

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Title(fmt.Sprintf("%s: %s vs %s", compareSuite, shortID(curr.Commit.ID), shortID(prev.Commit.ID)))
	printComparison(p, &prev, curr, comps, threshold)

	if len(alerts) == 0 {
		p.Muted("No regression above %s.", benchmark.FormatThreshold(threshold))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout())
	p.Markdown(benchmark.FormatAlert(compareSuite, prev, curr, alerts, threshold))
	if compareFailOnAlert {
		return fmt.Errorf("%w in suite %q: %d benchmark(s) above %s", workflow.ErrRegression,
			compareSuite, len(alerts), benchmark.FormatThreshold(threshold))
	}
	return nil
}

// selectRuns picks the run to check and its baseline. Without selectors they are
// the last two runs; with only --to the baseline is the run before it.
func selectRuns(runs []benchdata.Run, from, to string) (curr, prev benchdata.Run, err error) {
	currIdx := len(runs) - 1
	if to != "" {
		if currIdx, err = findRun(runs, to); err != nil {
			return
		}
	}
	prevIdx := currIdx - 1
	if from != "" {
		if prevIdx, err = findRun(runs, from); err != nil {
			return
		}
	}
	if currIdx < 0 || prevIdx < 0 {
		err = fmt.Errorf("need two runs to compare, suite has %d", len(runs))
		return
	}
	return runs[currIdx], runs[prevIdx], nil
}

func findRun(runs []benchdata.Run, prefix string) (int, error) {
	found := -1
	for i, r := range runs {
		if r.Commit.ID != "" && strings.HasPrefix(r.Commit.ID, prefix) {
			if found >= 0 && runs[found].Commit.ID != r.Commit.ID {
				return -1, fmt.Errorf("commit prefix %q is ambiguous", prefix)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("no run for commit %q", prefix)
	}
	return found, nil
}
