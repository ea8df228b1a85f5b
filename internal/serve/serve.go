// Package serve runs the local documentation server: one initial build,
// a static file server over the output directory, filesystem watching
// with debounced rebuilds, and optional scheduled rebuilds.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/history"
	"git.home.luguber.info/inful/docsmith/internal/logfields"
	"git.home.luguber.info/inful/docsmith/internal/metrics"
	"git.home.luguber.info/inful/docsmith/internal/notify"
	"git.home.luguber.info/inful/docsmith/internal/site"
	"git.home.luguber.info/inful/docsmith/internal/workspace"
)

// buildStatus tracks the latest build result for status display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastOutcome  string
	hasGoodBuild bool // true once at least one successful build exists
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	bs.lastOutcome = "failed"
}

func (bs *buildStatus) setSuccess(outcome string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.lastOutcome = outcome
	bs.hasGoodBuild = true
}

func (bs *buildStatus) snapshot() (lastError error, outcome string, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.lastOutcome, bs.hasGoodBuild
}

// Server hosts the built site and rebuilds it when sources change.
type Server struct {
	cfg       *config.Config
	generator *site.Generator
	registry  *prometheus.Registry
	hist      *history.Store
	notifier  *notify.Notifier
	status    buildStatus
}

// New creates a server around the given generator. When metrics are
// enabled in the configuration a Prometheus recorder is attached to the
// generator and exposed on /metrics.
func New(cfg *config.Config, generator *site.Generator) *Server {
	s := &Server{cfg: cfg, generator: generator}
	if cfg.Serve.Metrics {
		s.registry = prometheus.NewRegistry()
		generator.SetRecorder(metrics.NewPrometheusRecorder(s.registry))
	}
	return s
}

// SetHistory attaches a build record store. Records are appended after
// every build, including failed ones.
func (s *Server) SetHistory(h *history.Store) { s.hist = h }

// SetNotifier attaches a NATS notifier for build-completed events.
func (s *Server) SetNotifier(n *notify.Notifier) { s.notifier = n }

// Run builds once, then serves and watches until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	// A persistent checkout directory keeps repository pulls incremental
	// across rebuilds instead of recloning every time.
	if len(s.cfg.Source.Repos) > 0 {
		ws := workspace.NewPersistentManager(filepath.Dir(s.generator.OutputDir()), ".docsmith-sources")
		if err := ws.Create(); err != nil {
			return err
		}
		s.generator.SetWorkspace(ws.Path())
	}

	s.runBuild(ctx)

	httpServer, err := s.startHTTP()
	if err != nil {
		return err
	}

	watcher, err := s.setupWatcher()
	if err != nil {
		_ = s.shutdown(httpServer)
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := newDebouncer(debounceDelay)
	s.startRebuildWorker(ctx, rebuildReq)

	if interval := s.cfg.RebuildInterval(); interval > 0 {
		sched, err := NewScheduler(interval, func() { requestRebuild(rebuildReq) })
		if err != nil {
			_ = s.shutdown(httpServer)
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	ignore := s.ignoreRoots()
	for {
		select {
		case <-ctx.Done():
			return s.shutdown(httpServer)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleFileEvent(watcher, ev, ignore, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// runBuild performs one full build and records the result.
func (s *Server) runBuild(ctx context.Context) {
	rep, err := s.generator.Build(ctx)
	if err != nil {
		slog.Error("build failed", logfields.Error(err))
		s.status.setError(err)
	} else {
		s.status.setSuccess(rep.Outcome)
	}

	if rep == nil {
		return
	}
	if s.hist != nil {
		if err := s.hist.Append(ctx, history.FromReport(rep)); err != nil {
			slog.Warn("failed to record build history", logfields.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.PublishBuildCompleted(rep); err != nil {
			slog.Warn("failed to publish build event", logfields.Error(err))
		}
	}
}

// startRebuildWorker processes rebuild requests one at a time. The request
// channel holds at most one entry, so bursts coalesce while a build runs.
func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-rebuildReq:
				if !ok {
					return
				}
				slog.Info("Change detected; rebuilding site")
				s.runBuild(ctx)
			}
		}
	}()
}

// startHTTP binds the listener first so startup failures surface
// synchronously, then serves in the background.
func (s *Server) startHTTP() (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.generator.OutputDir())))
	mux.HandleFunc("/api/status", s.handleStatus)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}

	srv := &http.Server{
		Addr:         s.cfg.Serve.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("documentation server error", logfields.Error(err))
		}
	}()

	slog.Info("Serving documentation",
		logfields.Addr(srv.Addr),
		logfields.Path(s.generator.OutputDir()),
		slog.Bool("metrics", s.registry != nil))
	return srv, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	lastErr, outcome, good := s.status.snapshot()

	resp := map[string]any{
		"good_build": good,
		"outcome":    outcome,
	}
	if lastErr != nil {
		resp["error"] = lastErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to write status response", logfields.Error(err))
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	slog.Info("Shutting down documentation server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}

// handleFileEvent processes one filesystem event, extending the watch to
// newly created directories and ignoring noise.
func (s *Server) handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, ignore []string, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || underAny(ev.Name, ignore) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}
