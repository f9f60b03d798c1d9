package main

import (
	"errors"
	"fmt"
	"os"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/config"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a history file for structural problems",
	Long: `Parses the history file, checks it against the embedded JSON schema and runs the
structural checks: commit ids, timestamps, units, ranges, chronological order of
each suite and unique measurement names per run. Prints the canonical digest of a
valid file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := config.Current().DataFile
	if len(args) == 1 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := benchdata.ValidateSchema(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	doc, err := benchdata.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var verr *benchdata.ValidationError
	if err := benchdata.Check(doc); errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, issue)
		}
		return fmt.Errorf("%s: %d issue(s) found", path, len(verr.Issues))
	}

	digest, err := benchdata.Digest(doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d suites, %d runs)\n", path, len(doc.Entries), doc.RunCount())
	fmt.Fprintf(cmd.OutOrStdout(), "sha256:%s\n", digest)
	return nil
}
