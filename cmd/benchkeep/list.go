package main

import (
	"fmt"
	"strconv"

	"benchkeep/internal/config"
	"benchkeep/internal/ui"

	"github.com/spf13/cobra"
)

var listSuite string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List suites, or the runs of one suite",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSuite, "suite", "s", "", "List the runs of this suite")
}

func runList(cmd *cobra.Command, args []string) error {
	s := config.Current()
	files, err := openFileStore(s)
	if err != nil {
		return err
	}
	doc, err := files.Load(cmd.Context())
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())

	if listSuite != "" {
		runs, ok := doc.Suite(listSuite)
		if !ok {
			return fmt.Errorf("suite %q not found in %s", listSuite, files.Path())
		}
		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{formatDate(r.Date), shortID(r.Commit.ID), r.Tool, strconv.Itoa(len(r.Benches)), firstLine(r.Commit.Message)})
		}
		p.Title(listSuite)
		p.Table([]string{"DATE", "COMMIT", "TOOL", "BENCHES", "MESSAGE"}, rows)
		return nil
	}

	if len(doc.Entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No suites found in %s.\n", files.Path())
		return nil
	}

	rows := make([][]string, 0, len(doc.Entries))
	for _, suite := range doc.Entries {
		latest, commit := "-", "-"
		if n := len(suite.Runs); n > 0 {
			latest = formatDate(suite.Runs[n-1].Date)
			commit = shortID(suite.Runs[n-1].Commit.ID)
		}
		rows = append(rows, []string{suite.Name, strconv.Itoa(len(suite.Runs)), latest, commit})
	}
	p.Table([]string{"SUITE", "RUNS", "LATEST", "COMMIT"}, rows)
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
