package main

import (
	"fmt"

	"benchkeep/internal/config"
	"benchkeep/internal/db"
	"benchkeep/internal/telemetry"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Index the whole history into the SQL store",
	Long: `Writes every run of the history file into the SQL index (SQLite by default,
PostgreSQL with --store postgres). Runs that are already indexed are replaced, so
the command can be repeated safely.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	s := config.Current()

	files, err := openFileStore(s)
	if err != nil {
		return err
	}
	doc, err := files.Load(cmd.Context())
	if err != nil {
		return err
	}

	store, err := openIndexRequired(s)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := db.ImportDocument(cmd.Context(), store, doc)
	if err != nil {
		return err
	}

	telemetry.LogInfof("indexed %d runs from %s", n, files.Path())

	suites, err := store.ListSuites(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d run(s) from %s; index holds %d suite(s).\n", n, files.Path(), len(suites))
	return nil
}
