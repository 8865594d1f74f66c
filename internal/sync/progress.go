package sync

import (
	"time"

	"github.com/wesm/inventoryview/internal/catalog"
)

// Phase describes the current load phase.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseDone    Phase = "done"
	PhaseFailed  Phase = "failed"
)

// LoadStats summarizes one dataset load.
type LoadStats struct {
	Source   string          `json:"source"`
	Version  string          `json:"version"`
	Records  int             `json:"records"`
	Issues   []catalog.Issue `json:"issues,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

// Status is the loader state reported to listeners.
type Status struct {
	Phase    Phase     `json:"phase"`
	LastLoad time.Time `json:"last_load,omitzero"`
	Last     LoadStats `json:"last"`
	// Error is the most recent failure. A failed reload keeps the
	// previously loaded dataset.
	Error string `json:"error,omitempty"`
}

// Healthy reports whether the last load attempt succeeded.
func (s Status) Healthy() bool {
	return s.Phase != PhaseFailed
}

// IssueCount returns the number of repairs made by the last load.
func (s LoadStats) IssueCount() int {
	return len(s.Issues)
}

// StatusFunc is called with status updates during loads.
type StatusFunc func(Status)
