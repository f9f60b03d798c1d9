package main

import (
	"fmt"
	"os"

	"benchkeep/internal/config"
	"benchkeep/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string

// closeLog flushes the optional log file opened by initConfig.
var closeLog = func() {}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "benchkeep",
	Short: "Record benchmark results and track regressions over time",
	Long: `benchkeep maintains a benchmark history file (window.BENCHMARK_DATA = {...})
that a static chart page can read. It parses the output of common benchmark tools,
appends each run together with its commit metadata, compares it with the previous
run and raises an alert when a measurement regresses past the threshold.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()
	defer func() { closeLog() }()

	if err := rootCmd.Execute(); err != nil {
		telemetry.LogError("command failed", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")
	rootCmd.PersistentFlags().StringP("data-file", "f", "", "Benchmark history file (default dev/bench/data.js)")
	rootCmd.PersistentFlags().String("repo-url", "", "Repository URL recorded in the history")
	rootCmd.PersistentFlags().String("store", "", "SQL index backend: sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "SQL index connection string (SQLite path or Postgres DSN)")
	rootCmd.PersistentFlags().String("pushgateway", "", "Push record/run metrics to this Prometheus Pushgateway URL")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("data_file", rootCmd.PersistentFlags().Lookup("data-file"))
	viper.BindPFlag("repo_url", rootCmd.PersistentFlags().Lookup("repo-url"))
	viper.BindPFlag("store.type", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store.dsn", rootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("pushgateway_url", rootCmd.PersistentFlags().Lookup("pushgateway"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}

	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}

	closeLog()
	closeLog = telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"))
}
