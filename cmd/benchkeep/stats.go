package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"benchkeep/internal/benchmark"
	"benchkeep/internal/config"
	"benchkeep/internal/ui"

	"github.com/spf13/cobra"
)

var (
	statsSuite string
	statsJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the history of every measurement in a suite",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsSuite, "suite", "s", "", "Suite to summarize")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON instead of a table")
	_ = statsCmd.MarkFlagRequired("suite")
}

func runStats(cmd *cobra.Command, args []string) error {
	files, err := openFileStore(config.Current())
	if err != nil {
		return err
	}
	doc, err := files.Load(cmd.Context())
	if err != nil {
		return err
	}
	runs, ok := doc.Suite(statsSuite)
	if !ok {
		return fmt.Errorf("suite %q not found in %s", statsSuite, files.Path())
	}

	summaries, err := benchmark.Summarize(runs)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Name, s.Unit, strconv.Itoa(s.Samples),
			f(s.Min), f(s.Median), f(s.Mean), f(s.StdDev), f(s.P95), f(s.Max), f(s.Latest),
		})
	}
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Title(statsSuite)
	p.Table([]string{"BENCHMARK", "UNIT", "N", "MIN", "MEDIAN", "MEAN", "STDDEV", "P95", "MAX", "LATEST"}, rows)
	return nil
}
