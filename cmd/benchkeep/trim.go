package main

import (
	"errors"
	"fmt"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/config"
	"benchkeep/internal/ui"

	"github.com/spf13/cobra"
)

var (
	trimMaxItems int
	trimSort     bool
	trimYes      bool
)

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Drop the oldest runs beyond a per-suite limit",
	RunE:  runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)
	trimCmd.Flags().IntVarP(&trimMaxItems, "max-items", "n", 0, "Runs to keep per suite")
	trimCmd.Flags().BoolVar(&trimSort, "sort", false, "Sort every suite by date before trimming")
	trimCmd.Flags().BoolVarP(&trimYes, "yes", "y", false, "Do not ask for confirmation")
}

func runTrim(cmd *cobra.Command, args []string) error {
	if trimMaxItems <= 0 {
		return errors.New("--max-items must be positive")
	}

	files, err := openFileStore(config.Current())
	if err != nil {
		return err
	}
	doc, err := files.Load(cmd.Context())
	if err != nil {
		return err
	}

	if trimSort {
		doc.Sort()
	}

	excess := excessRuns(doc, trimMaxItems)
	if excess == 0 && !trimSort {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to trim.")
		return nil
	}

	if excess > 0 && !trimYes {
		ok, err := ui.Confirm(fmt.Sprintf("Remove %d run(s) from %s?", excess, files.Path()), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled.")
			return nil
		}
	}

	removed := doc.Trim(trimMaxItems)
	if err := files.Save(cmd.Context(), doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s); %d remaining.\n", removed, doc.RunCount())
	return nil
}

func excessRuns(doc *benchdata.Document, maxItems int) int {
	n := 0
	for _, s := range doc.Entries {
		if len(s.Runs) > maxItems {
			n += len(s.Runs) - maxItems
		}
	}
	return n
}
