package main

import (
	"errors"
	"fmt"

	"benchkeep/internal/benchmark"
	"benchkeep/internal/config"
	"benchkeep/internal/workflow"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runDir         string
	runFailOnAlert bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record every suite listed in the manifest",
	Long: `Reads the manifest (benchkeep.yaml by default) and records one run per suite,
either by executing the suite's command or by parsing its output file. A failing
suite is reported and the remaining suites are still recorded.`,
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("manifest", "m", "", "Manifest file (default benchkeep.yaml)")
	runCmd.Flags().StringVar(&runDir, "dir", ".", "Repository directory")
	runCmd.Flags().BoolVar(&runFailOnAlert, "fail-on-alert", false, "Exit with an error when a regression is detected")
	viper.BindPFlag("manifest", runCmd.Flags().Lookup("manifest"))
}

func runManifest(cmd *cobra.Command, args []string) error {
	s := config.Current()

	m, err := benchmark.LoadManifest(s.Manifest)
	if err != nil {
		return err
	}
	threshold, err := resolveThreshold("", s.Threshold)
	if err != nil {
		return err
	}

	rec, err := newRecorder(s, runDir)
	if err != nil {
		return err
	}
	if rec.Index != nil {
		defer rec.Index.Close()
	}

	ctx, cancel := commandContext(cmd, s.CommandTimeout)
	defer cancel()

	results, runErr := rec.RunManifest(ctx, m, workflow.RecordConfig{
		Dir:       runDir,
		RepoURL:   s.RepoURL,
		Threshold: threshold,
		MaxItems:  s.MaxItems,
	})
	pushMetrics(cmd, s, rec)

	var alertErrs []error
	for _, res := range results {
		if err := reportResult(cmd, res, runFailOnAlert); err != nil {
			alertErrs = append(alertErrs, err)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d of %d suites.\n", len(results), len(m.Suites))

	return errors.Join(append([]error{runErr}, alertErrs...)...)
}
