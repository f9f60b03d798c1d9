package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"benchkeep/internal/benchmark"
	"benchkeep/internal/config"
	"benchkeep/internal/db"
	"benchkeep/internal/git"
	"benchkeep/internal/metrics"
	"benchkeep/internal/notify"
	"benchkeep/internal/workflow"

	"github.com/spf13/cobra"
)

const pushTimeout = 10 * time.Second

// Factories are package variables so tests can swap in fakes.
var (
	gitClientFactory = func() git.IClient { return git.NewClient() }

	runnerFactory = func(dir string) benchmark.Runner { return benchmark.NewCommandRunner(dir) }

	alerterFactory = func(s config.SlackSettings) workflow.Alerter {
		if !s.Enabled {
			return nil
		}
		return notify.NewManager(notify.Config{
			SlackToken:   s.Token,
			SlackChannel: s.Channel,
			WebhookURL:   s.WebhookURL,
		}, slog.Default())
	}
)

func openFileStore(s config.Settings) (*benchmark.FileStore, error) {
	files, err := benchmark.NewFileStore(s.DataFile, s.RepoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return files, nil
}

// openIndex opens the SQL index, or returns nil when none is configured.
func openIndex(s config.Settings) (db.Store, error) {
	if s.StoreType == "" {
		return nil, nil
	}
	return openIndexRequired(s)
}

func openIndexRequired(s config.Settings) (db.Store, error) {
	store, err := db.NewStore(db.StoreConfig{Type: s.StoreType, ConnectionString: s.StoreDSN})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s index: %w", s.StoreType, err)
	}
	return store, nil
}

// newRecorder wires a Recorder from configuration. The caller closes the index.
// Metrics are collected only when a Pushgateway is configured.
func newRecorder(s config.Settings, dir string) (*workflow.Recorder, error) {
	files, err := openFileStore(s)
	if err != nil {
		return nil, err
	}
	index, err := openIndex(s)
	if err != nil {
		return nil, err
	}
	var m *metrics.Metrics
	if s.PushgatewayURL != "" {
		m = metrics.NewMetrics()
	}
	rec := &workflow.Recorder{
		Files:   files,
		Index:   index,
		Git:     gitClientFactory(),
		Runner:  runnerFactory(dir),
		Metrics: m,
		Logger:  slog.Default(),
	}
	if a := alerterFactory(s.Slack); a != nil {
		rec.Alerter = a
	}
	return rec, nil
}

// pushMetrics sends the recorder's metrics to the Pushgateway. Failures only warn.
func pushMetrics(cmd *cobra.Command, s config.Settings, rec *workflow.Recorder) {
	if rec.Metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), pushTimeout)
	defer cancel()
	if err := rec.Metrics.Push(ctx, s.PushgatewayURL, "benchkeep"); err != nil {
		slog.Warn("Failed to push metrics", "url", s.PushgatewayURL, "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to push metrics: %v\n", err)
	}
}
