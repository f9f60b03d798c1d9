package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"benchkeep/internal/benchdata"

	"github.com/spf13/cobra"
)

var convertFormat string

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a history between the data.js and JSON forms",
	Long: `Reads a history in either form and writes it as JavaScript (window.BENCHMARK_DATA = ...)
or bare JSON. The output form follows --format, or the output file extension when
--format is not set (.json writes JSON). Use "-" as output for stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertFormat, "format", "", "Output format: js or json")
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", in, err)
	}
	defer f.Close()

	doc, err := benchdata.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	format := strings.ToLower(convertFormat)
	if format == "" {
		format = "js"
		if strings.EqualFold(filepath.Ext(out), ".json") {
			format = "json"
		}
	}

	var buf bytes.Buffer
	switch format {
	case "js":
		err = benchdata.Encode(&buf, doc)
	case "json":
		err = benchdata.EncodeJSON(&buf, doc)
	default:
		return fmt.Errorf("unknown format %q: want js or json", convertFormat)
	}
	if err != nil {
		return err
	}

	if out == "-" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s, %d runs)\n", out, format, doc.RunCount())
	return nil
}
