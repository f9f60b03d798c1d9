package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"benchkeep/internal/config"
	"benchkeep/internal/metrics"
	"benchkeep/internal/telemetry"
	"benchkeep/internal/web"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveHost           string
	serveSeparateMetric bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the history, a chart page and a JSON API",
	Long: `Starts an HTTP server with the chart page at /, the history at /data.js, a JSON API
under /api/suites, /healthz and Prometheus metrics at /metrics. The history file is
watched and reloaded when it changes.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Address to bind")
	serveCmd.Flags().Int("metrics-port", 0, "Serve /metrics on a separate port (default 2112 with --separate-metrics)")
	serveCmd.Flags().BoolVar(&serveSeparateMetric, "separate-metrics", false, "Expose metrics on --metrics-port instead of the main port")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("metrics_port", serveCmd.Flags().Lookup("metrics-port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	s := config.Current()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := openFileStore(s)
	if err != nil {
		return err
	}
	index, err := openIndex(s)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Close()
	}

	m := metrics.NewMetrics()
	opts := web.Options{Files: files, Index: index, Logger: slog.Default()}
	if !serveSeparateMetric {
		opts.Metrics = m
	}

	srv, err := web.NewServer(ctx, opts)
	if err != nil {
		return err
	}

	if serveSeparateMetric {
		go func() {
			addr := fmt.Sprintf("%s:%d", serveHost, s.MetricsPort)
			if err := telemetry.StartMetricsServer(ctx, addr, m.Handler()); err != nil {
				slog.Warn("Metrics server stopped", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", serveHost, s.Port)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", files.Path(), addr)
	return srv.Start(ctx, addr)
}
