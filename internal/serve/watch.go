package serve

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsmith/internal/logfields"
)

// debounceDelay batches editor save bursts into a single rebuild.
const debounceDelay = 300 * time.Millisecond

// setupWatcher watches every source and content root that exists.
func (s *Server) setupWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	roots := s.watchRoots()
	if len(roots) == 0 {
		_ = watcher.Close()
		return nil, fmt.Errorf("nothing to watch: no source or content directory exists")
	}

	for _, root := range roots {
		if err := addDirsRecursive(watcher, root); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	slog.Info("Watching for changes", logfields.Count(len(roots)), slog.Any("roots", roots))
	return watcher, nil
}

// watchRoots collects the directories worth watching: module search paths,
// the content declaration, page sources and extra static dirs. Directories
// that do not exist locally (e.g. remote-only sources) are skipped.
func (s *Server) watchRoots() []string {
	candidates := make([]string, 0, len(s.cfg.Source.Paths)+len(s.cfg.Site.Static)+2)
	candidates = append(candidates, s.cfg.Source.Paths...)
	candidates = append(candidates, filepath.Dir(s.cfg.Content.Root), s.cfg.Content.Pages)
	candidates = append(candidates, s.cfg.Site.Static...)

	seen := make(map[string]bool)
	var roots []string
	for _, dir := range candidates {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		if st, err := os.Stat(abs); err != nil || !st.IsDir() {
			slog.Debug("skipping missing watch root", logfields.Path(abs))
			continue
		}
		roots = append(roots, abs)
	}
	return roots
}

// ignoreRoots lists directories whose events never trigger rebuilds:
// the output directory and its staging siblings, which the builder
// itself writes into.
func (s *Server) ignoreRoots() []string {
	out := s.generator.OutputDir()
	roots := make([]string, 0, 3)
	for _, dir := range []string{out, out + "_stage", out + ".prev"} {
		if abs, err := filepath.Abs(dir); err == nil {
			roots = append(roots, abs)
		}
	}
	return roots
}

func underAny(path string, roots []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	if base == "Thumbs.db" {
		return true
	}

	return false
}

// newDebouncer returns a capacity-one request channel and a trigger that
// arms (or re-arms) a timer; the request is sent once the timer fires.
func newDebouncer(delay time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			requestRebuild(rebuildReq)
		})
	}

	return rebuildReq, trigger
}

func requestRebuild(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
