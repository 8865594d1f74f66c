package sync

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/wesm/inventoryview/internal/db"
	"github.com/wesm/inventoryview/internal/fixture"
)

// SeedSource names the bundled dataset in load metadata.
const SeedSource = "seed"

// Engine loads the configured dataset into the store.
type Engine struct {
	db     *db.DB
	path   string
	notify StatusFunc

	loadMu gosync.Mutex // serializes loads
	mu     gosync.RWMutex
	status Status
}

// NewEngine creates a loader for path. An empty path loads the
// bundled seed dataset. notify may be nil.
func NewEngine(
	database *db.DB, path string, notify StatusFunc,
) *Engine {
	return &Engine{
		db:     database,
		path:   path,
		notify: notify,
		status: Status{Phase: PhaseIdle},
	}
}

// Path returns the watched dataset file, or "" for the seed.
func (e *Engine) Path() string {
	return e.path
}

// Status returns the loader state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Load reads the dataset and replaces the stored one. On failure
// the stored dataset is left as it was.
func (e *Engine) Load(ctx context.Context) (LoadStats, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.setStatus(func(s *Status) {
		s.Phase = PhaseLoading
	})

	start := time.Now()
	stats, err := e.load(ctx)
	stats.Duration = time.Since(start)
	if err != nil {
		e.setStatus(func(s *Status) {
			s.Phase = PhaseFailed
			s.Error = err.Error()
		})
		return stats, err
	}

	e.setStatus(func(s *Status) {
		s.Phase = PhaseDone
		s.LastLoad = time.Now()
		s.Last = stats
		s.Error = ""
	})
	return stats, nil
}

func (e *Engine) load(ctx context.Context) (LoadStats, error) {
	source := SeedSource
	var (
		res fixture.Result
		err error
	)
	if e.path == "" {
		res, err = fixture.Seed()
	} else {
		source = e.path
		res, err = fixture.Load(e.path)
	}
	stats := LoadStats{Source: source}
	if err != nil {
		return stats, fmt.Errorf("loading dataset: %w", err)
	}
	if err := e.db.Replace(ctx, res.Dataset, source); err != nil {
		return stats, fmt.Errorf("storing dataset: %w", err)
	}
	stats.Version = res.Dataset.Version
	stats.Records = res.Dataset.Counts().Total()
	stats.Issues = res.Issues
	return stats, nil
}

func (e *Engine) setStatus(update func(*Status)) {
	e.mu.Lock()
	update(&e.status)
	s := e.status
	e.mu.Unlock()
	if e.notify != nil {
		e.notify(s)
	}
}

// OnChange is the Watcher callback. It reloads when one of paths
// is the dataset file and logs the outcome.
func (e *Engine) OnChange(paths []string) {
	if !e.matches(paths) {
		return
	}
	stats, err := e.Load(context.Background())
	if err != nil {
		log.Printf("reload failed, keeping previous dataset: %v", err)
		return
	}
	log.Printf(
		"reloaded %s: %d records, %d issue(s) in %s",
		filepath.Base(stats.Source), stats.Records,
		stats.IssueCount(), stats.Duration.Round(time.Millisecond),
	)
}

func (e *Engine) matches(paths []string) bool {
	if e.path == "" {
		return false
	}
	want := filepath.Clean(e.path)
	for _, p := range paths {
		if filepath.Clean(p) == want {
			return true
		}
	}
	return false
}
