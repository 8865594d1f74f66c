package server

import (
	"context"
	"log"
	"net/http"
	"time"

	syncpkg "github.com/wesm/inventoryview/internal/sync"
)

const (
	// pollInterval is how often the events stream checks the
	// loader status.
	pollInterval = 1500 * time.Millisecond
	// heartbeatTicks is how many poll intervals pass between
	// keepalives (~30s).
	heartbeatTicks = 20
)

// statusMonitor polls the loader status and sends it on the
// returned channel whenever a load finishes or fails. The channel
// is closed when ctx is done.
func (s *Server) statusMonitor(
	ctx context.Context, interval time.Duration,
) <-chan syncpkg.Status {
	ch := make(chan syncpkg.Status)
	go func() {
		defer close(ch)

		last := s.engine.Status()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur := s.engine.Status()
				if !statusChanged(last, cur) {
					continue
				}
				last = cur
				select {
				case ch <- cur:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

func statusChanged(prev, cur syncpkg.Status) bool {
	if cur.Phase == syncpkg.PhaseLoading {
		return false
	}
	return prev.Phase != cur.Phase ||
		!prev.LastLoad.Equal(cur.LastLoad) ||
		prev.Error != cur.Error
}

func (s *Server) handleEvents(
	w http.ResponseWriter, r *http.Request,
) {
	stream, err := NewSSEStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError,
			"streaming not supported")
		return
	}

	interval := pollInterval
	if s.eventInterval > 0 {
		interval = s.eventInterval
	}
	stream.Retry(interval)
	updates := s.statusMonitor(r.Context(), interval)
	heartbeat := time.NewTicker(interval * heartbeatTicks)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			event := "dataset_updated"
			if !st.Healthy() {
				event = "dataset_error"
			}
			stream.SendJSON(event, st)
		case <-heartbeat.C:
			stream.Send("heartbeat",
				time.Now().Format(time.RFC3339))
		}
	}
}

func (s *Server) handleReload(
	w http.ResponseWriter, r *http.Request,
) {
	stats, err := s.engine.Load(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("reload: %v", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatus(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleGetStats(
	w http.ResponseWriter, r *http.Request,
) {
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
