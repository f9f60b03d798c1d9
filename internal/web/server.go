package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"benchkeep/internal/benchdata"
	"benchkeep/internal/benchmark"
	"benchkeep/internal/db"
	"benchkeep/internal/metrics"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures a Server. Index and Metrics are optional.
type Options struct {
	Files   *benchmark.FileStore
	Index   db.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Server serves the benchmark history and a small chart page.
type Server struct {
	files   *benchmark.FileStore
	index   db.Store
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu   sync.RWMutex
	doc  *benchdata.Document
	body []byte
	etag string
}

// NewServer creates a server and loads the current history.
func NewServer(ctx context.Context, opts Options) (*Server, error) {
	if opts.Files == nil {
		return nil, errors.New("web: a history file store is required")
	}
	s := &Server{
		files:   opts.Files,
		index:   opts.Index,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the history file. On failure the previous snapshot is kept.
func (s *Server) Reload(ctx context.Context) error {
	doc, err := s.files.Load(ctx)
	if err != nil {
		s.countReload("error")
		return fmt.Errorf("failed to load history: %w", err)
	}

	var buf bytes.Buffer
	if err := benchdata.Encode(&buf, doc); err != nil {
		s.countReload("error")
		return fmt.Errorf("failed to encode history: %w", err)
	}
	digest, err := benchdata.Digest(doc)
	if err != nil {
		s.countReload("error")
		return fmt.Errorf("failed to digest history: %w", err)
	}

	s.mu.Lock()
	s.doc = doc
	s.body = buf.Bytes()
	s.etag = `"` + digest + `"`
	s.mu.Unlock()

	s.countReload("ok")
	if s.metrics != nil {
		s.metrics.DocumentRuns.Set(float64(doc.RunCount()))
		s.metrics.SetLatest(latestSamples(doc))
	}
	s.logger.Debug("Loaded history", "path", s.files.Path(), "suites", len(doc.Entries), "runs", doc.RunCount())
	return nil
}

func latestSamples(doc *benchdata.Document) map[string][]metrics.Sample {
	out := make(map[string][]metrics.Sample, len(doc.Entries))
	for _, name := range doc.SuiteNames() {
		run, ok := doc.Latest(name)
		if !ok {
			continue
		}
		samples := make([]metrics.Sample, 0, len(run.Benches))
		for _, b := range run.Benches {
			samples = append(samples, metrics.Sample{Name: b.Name, Unit: b.Unit, Value: b.Value})
		}
		out[name] = samples
	}
	return out
}

func (s *Server) countReload(result string) {
	if s.metrics != nil {
		s.metrics.DocumentReloads.WithLabelValues(result).Inc()
	}
}

func (s *Server) snapshot() (*benchdata.Document, []byte, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.body, s.etag
}

// Handler returns the HTTP routes, wrapped with request metrics when enabled.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	contentStatic, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /", http.FileServer(http.FS(contentStatic)))

	mux.HandleFunc("GET /data.js", s.handleData)
	mux.HandleFunc("GET /data.json", s.handleDataJSON)
	mux.HandleFunc("GET /api/suites", s.handleSuites)
	mux.HandleFunc("GET /api/suites/{suite}/stats", s.handleStats)
	mux.HandleFunc("GET /api/suites/{suite}/benches/{bench...}", s.handleSeries)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.metrics == nil {
		return mux
	}
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.metrics.RequestTrackingMiddleware(mux)
}

// Start serves on addr and watches the history file until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.Watch(ctx, DefaultDebounce); err != nil {
			s.logger.Error("History watcher stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Starting benchmark dashboard", "addr", addr, "history", s.files.Path())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	_, body, etag := s.snapshot()
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write(body)
}

// etagMatch reports whether an If-None-Match header names etag. The header may
// list several tags, use weak tags or be "*".
func etagMatch(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

func (s *Server) handleDataJSON(w http.ResponseWriter, r *http.Request) {
	doc, _, etag := s.snapshot()
	w.Header().Set("ETag", etag)
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := benchdata.EncodeJSON(w, doc); err != nil {
		s.logger.Error("Failed to write history", "error", err)
	}
}

// handleSuites lists suites in document order. With an index, run counts include
// runs the history file has since trimmed, and suites known only to the index
// follow the document's suites by name.
func (s *Server) handleSuites(w http.ResponseWriter, r *http.Request) {
	doc, _, _ := s.snapshot()
	if s.index != nil {
		suites, err := s.index.ListSuites(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		orderLike(suites, doc.SuiteNames())
		writeJSON(w, http.StatusOK, suites)
		return
	}

	suites := make([]db.SuiteInfo, 0, len(doc.Entries))
	for _, suite := range doc.Entries {
		info := db.SuiteInfo{Name: suite.Name, Runs: len(suite.Runs)}
		if n := len(suite.Runs); n > 0 {
			info.LastDate = suite.Runs[n-1].Date
		}
		suites = append(suites, info)
	}
	writeJSON(w, http.StatusOK, suites)
}

func orderLike(suites []db.SuiteInfo, names []string) {
	rank := make(map[string]int, len(names))
	for i, name := range names {
		rank[name] = i
	}
	pos := func(name string) int {
		if i, ok := rank[name]; ok {
			return i
		}
		return len(names)
	}
	sort.SliceStable(suites, func(a, b int) bool {
		return pos(suites[a].Name) < pos(suites[b].Name)
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	suite, bench := r.PathValue("suite"), r.PathValue("bench")

	var points []db.Point
	if s.index != nil {
		var err error
		if points, err = s.index.Series(r.Context(), suite, bench); err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	} else {
		doc, _, _ := s.snapshot()
		runs, ok := doc.Suite(suite)
		if !ok {
			s.writeError(w, http.StatusNotFound, fmt.Errorf("suite %q not found", suite))
			return
		}
		points = seriesFromRuns(runs, bench)
	}

	if len(points) == 0 {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("benchmark %q not found in suite %q", bench, suite))
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func seriesFromRuns(runs []benchdata.Run, bench string) []db.Point {
	var points []db.Point
	for _, run := range runs {
		b, ok := run.Bench(bench)
		if !ok {
			continue
		}
		points = append(points, db.Point{
			Date:     run.Date,
			CommitID: run.Commit.ID,
			Value:    b.Value,
			Range:    b.Range,
			Unit:     b.Unit,
		})
	}
	return points
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	suite := r.PathValue("suite")
	doc, _, _ := s.snapshot()
	runs, ok := doc.Suite(suite)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("suite %q not found", suite))
		return
	}
	summaries, err := benchmark.Summarize(runs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	doc, _, etag := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"suites": len(doc.Entries),
		"runs":   doc.RunCount(),
		"digest": etag,
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
