package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/benchmark"
	"benchkeep/internal/db"
	"benchkeep/internal/git"
	"benchkeep/internal/metrics"
)

// ErrRegression is returned by callers that fail on alerts.
var ErrRegression = errors.New("performance regression detected")

// Alerter delivers a regression report.
type Alerter interface {
	NotifyAlert(ctx context.Context, suite, report string) error
}

// Recorder appends benchmark runs to the history and reports regressions.
// Only Files is required.
type Recorder struct {
	Files   benchmark.Store
	Index   db.Store
	Git     git.IClient
	Runner  benchmark.Runner
	Alerter Alerter
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// RecordConfig holds the parameters of one recorded run.
type RecordConfig struct {
	Suite string
	Tool  string
	// Output is captured tool output. When empty, Command (or the tool's
	// default command) is executed.
	Output  string
	Command []string
	// Dir is the repository the commit metadata and command come from.
	Dir       string
	RepoURL   string
	Threshold float64
	MaxItems  int
	// Commit overrides the metadata read from git.
	Commit *benchdata.Commit
	// Date overrides the run date in epoch milliseconds.
	Date int64
}

// Result describes a recorded run.
type Result struct {
	Suite       string
	Run         benchdata.Run
	Previous    *benchdata.Run
	Comparisons []benchmark.Comparison
	Alerts      []benchmark.Comparison
	Threshold   float64
	// Report is the markdown alert, empty when nothing regressed.
	Report   string
	Notified bool
	// IndexErr is set when the run was saved to the history but not to the SQL index.
	IndexErr error
}

// Regressed reports whether any measurement crossed the threshold.
func (r *Result) Regressed() bool {
	return len(r.Alerts) > 0
}

var now = time.Now

func (r *Recorder) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Record parses the run's measurements, appends them to the history, compares
// against the previous run and sends alerts.
func (r *Recorder) Record(ctx context.Context, cfg RecordConfig) (*Result, error) {
	logger := r.logger().With("suite", cfg.Suite, "tool", cfg.Tool)

	if cfg.Suite == "" {
		return nil, benchdata.ErrEmptySuite
	}
	if !benchmark.KnownTool(cfg.Tool) {
		return nil, fmt.Errorf("%w: %q", benchmark.ErrUnknownTool, cfg.Tool)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = benchmark.DefaultThreshold
	}

	output, err := r.output(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	benches, err := benchmark.Parse(cfg.Tool, output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", cfg.Tool, err)
	}
	logger.Debug("Parsed benchmark output", "benches", len(benches))

	commit, err := r.commit(ctx, cfg)
	if err != nil {
		return nil, err
	}

	run := benchdata.Run{
		Commit:  commit,
		Date:    cfg.Date,
		Tool:    cfg.Tool,
		Benches: benches,
	}
	if run.Date == 0 {
		run.Date = now().UnixMilli()
	}

	doc, err := r.Files.Append(ctx, cfg.Suite, run, cfg.MaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to append run to %s: %w", cfg.Suite, err)
	}
	logger.Info("Recorded benchmark run", "commit", commit.ID, "benches", len(benches))

	res := &Result{Suite: cfg.Suite, Run: run, Threshold: cfg.Threshold}
	if prev, ok := doc.Previous(cfg.Suite); ok {
		res.Previous = &prev
		res.Comparisons = benchmark.Compare(prev, run, benchmark.BiggerIsBetter(cfg.Tool))
		res.Alerts = benchmark.Alerts(res.Comparisons, cfg.Threshold)
	}

	// The history file is authoritative; `import` rebuilds a stale index.
	if r.Index != nil {
		if err := r.Index.SaveRun(ctx, cfg.Suite, run); err != nil {
			res.IndexErr = fmt.Errorf("failed to index run: %w", err)
			logger.Warn("Failed to index run", "error", err)
		}
	}

	if r.Metrics != nil {
		samples := make([]metrics.Sample, 0, len(benches))
		for _, b := range benches {
			samples = append(samples, metrics.Sample{Name: b.Name, Unit: b.Unit, Value: b.Value})
		}
		r.Metrics.ObserveRun(cfg.Suite, cfg.Tool, samples)
		r.Metrics.ObserveAlerts(cfg.Suite, len(res.Alerts))
	}

	if !res.Regressed() {
		return res, nil
	}

	res.Report = benchmark.FormatAlert(cfg.Suite, *res.Previous, run, res.Alerts, cfg.Threshold)
	logger.Warn("Performance regression detected", "alerts", len(res.Alerts),
		"threshold", benchmark.FormatThreshold(cfg.Threshold))

	if r.Alerter != nil {
		if err := r.Alerter.NotifyAlert(ctx, cfg.Suite, res.Report); err != nil {
			logger.Warn("Failed to deliver alert", "error", err)
		} else {
			res.Notified = true
		}
	}
	return res, nil
}

func (r *Recorder) output(ctx context.Context, cfg RecordConfig, logger *slog.Logger) (string, error) {
	if cfg.Output != "" {
		return cfg.Output, nil
	}
	command := cfg.Command
	if len(command) == 0 {
		command = benchmark.DefaultCommand(cfg.Tool)
	}
	if len(command) == 0 {
		return "", fmt.Errorf("no output or command given for tool %s", cfg.Tool)
	}
	if r.Runner == nil {
		return "", errors.New("no command runner configured")
	}
	logger.Info("Running benchmarks", "command", command)
	return r.Runner.Run(ctx, command)
}

func (r *Recorder) commit(ctx context.Context, cfg RecordConfig) (benchdata.Commit, error) {
	if cfg.Commit != nil {
		return git.WithURL(*cfg.Commit, cfg.RepoURL), nil
	}
	if r.Git == nil {
		return benchdata.Commit{}, errors.New("commit metadata unavailable: no git client configured")
	}
	commit, err := r.Git.HeadCommit(ctx, cfg.Dir)
	if err != nil {
		return benchdata.Commit{}, fmt.Errorf("failed to read commit metadata: %w", err)
	}
	repoURL := cfg.RepoURL
	if repoURL == "" {
		if u, err := r.Git.RemoteURL(ctx, cfg.Dir, "origin"); err == nil {
			repoURL = u
		}
	}
	return git.WithURL(commit, repoURL), nil
}

// RunManifest records every suite of a manifest. Suites are recorded in order and
// a failing suite does not stop the rest; the errors are joined.
func (r *Recorder) RunManifest(ctx context.Context, m *benchmark.Manifest, base RecordConfig) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for _, s := range m.Suites {
		cfg := base
		cfg.Suite = s.Name
		cfg.Tool = s.Tool
		cfg.Command = s.Command
		cfg.Output = ""
		cfg.Threshold = m.SuiteThreshold(s, base.Threshold)
		if m.MaxItems > 0 {
			cfg.MaxItems = m.MaxItems
		}

		dir := base.Dir
		if s.Dir != "" {
			dir = resolve(base.Dir, s.Dir)
		}

		rec := *r
		if s.OutputFile != "" {
			data, err := os.ReadFile(resolve(dir, s.OutputFile))
			if err != nil {
				errs = append(errs, fmt.Errorf("suite %q: %w", s.Name, err))
				continue
			}
			cfg.Output = string(data)
		} else if runner, ok := r.Runner.(*benchmark.CommandRunner); ok && s.Dir != "" {
			scoped := *runner
			scoped.Dir = dir
			rec.Runner = &scoped
		}

		res, err := rec.Record(ctx, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("suite %q: %w", s.Name, err))
			if res == nil {
				continue
			}
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}
