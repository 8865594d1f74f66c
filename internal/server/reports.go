package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/wesm/inventoryview/internal/render"
	"github.com/wesm/inventoryview/internal/report"
	"github.com/wesm/inventoryview/internal/trend"
)

// reportResponse is a resolved report plus its rendered artifacts.
type reportResponse struct {
	report.Report
	Artifacts []render.Artifact `json:"artifacts"`
}

func (s *Server) seed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Seed
}

// input snapshots the stored dataset for one request. Each request
// gets its own generator so equal requests produce equal trends.
func (s *Server) input(
	ctx context.Context, tr trend.TimeRange,
) (report.Input, error) {
	ds, err := s.db.Snapshot(ctx)
	if err != nil {
		return report.Input{}, err
	}
	return report.Input{
		Dataset:   ds,
		TimeRange: tr,
		Trend:     trend.New(s.seed()),
	}, nil
}

// parseRange reads the optional ?range= parameter. Absent means
// monthly.
func parseRange(r *http.Request) (trend.TimeRange, error) {
	v := r.URL.Query().Get("range")
	if v == "" {
		return trend.Monthly, nil
	}
	tr, err := trend.ParseTimeRange(v)
	if err != nil {
		return "", fmt.Errorf("%w: %q", report.ErrInvalidTimeRange, v)
	}
	return tr, nil
}

// buildReport resolves the {category}/{type} path and ?range=
// parameter. It writes the error response itself and returns false
// on failure.
func (s *Server) buildReport(
	w http.ResponseWriter, r *http.Request,
) (report.Report, bool) {
	tr, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return report.Report{}, false
	}
	in, err := s.input(r.Context(), tr)
	if err != nil {
		if handleContextError(w, err) {
			return report.Report{}, false
		}
		log.Printf("snapshot: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return report.Report{}, false
	}
	rep := s.registry.Build(
		r.PathValue("category"), r.PathValue("type"), in,
	)
	return rep, true
}

func (s *Server) writeReport(
	w http.ResponseWriter, rep report.Report,
) {
	arts, err := render.RenderReport(s.renderer, rep)
	if err != nil {
		log.Printf("render: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Report:    rep,
		Artifacts: arts,
	})
}

func (s *Server) handleListReports(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.registry.Menu(),
	})
}

func (s *Server) handleGetReport(
	w http.ResponseWriter, r *http.Request,
) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	s.writeReport(w, rep)
}

func (s *Server) handleCurrentReport(
	w http.ResponseWriter, r *http.Request,
) {
	in, err := s.input(r.Context(), "")
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("snapshot: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeReport(w, s.nav.Resolve(in))
}

func (s *Server) handleDownload(
	w http.ResponseWriter, r *http.Request,
) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	name, content := report.Download(rep)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, name),
	)
	_, _ = io.WriteString(w, content)
}

func (s *Server) handlePrint(
	w http.ResponseWriter, r *http.Request,
) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	s.writePrint(w, rep)
}

func (s *Server) handleIndex(
	w http.ResponseWriter, r *http.Request,
) {
	in, err := s.input(r.Context(), "")
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("snapshot: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePrint(w, s.nav.Resolve(in))
}

func (s *Server) writePrint(w http.ResponseWriter, rep report.Report) {
	arts, err := render.RenderReport(s.renderer, rep)
	if err != nil {
		log.Printf("render: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := render.Print(&buf, rep, arts, s.now()); err != nil {
		log.Printf("print: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleGetSection(
	w http.ResponseWriter, r *http.Request,
) {
	ds, err := s.db.Snapshot(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("snapshot: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeReport(w, report.Section(r.PathValue("section"), ds))
}

func (s *Server) handleGetSelection(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.nav.Current())
}

func (s *Server) handleSetSelection(
	w http.ResponseWriter, r *http.Request,
) {
	var req struct {
		Category string `json:"category"`
		Type     string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Category == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest,
			"category and type are required")
		return
	}
	writeJSON(w, http.StatusOK, s.nav.Select(req.Category, req.Type))
}

func (s *Server) handleSetTimeRange(
	w http.ResponseWriter, r *http.Request,
) {
	var req struct {
		TimeRange string `json:"time_range"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sel, err := s.nav.SelectTimeRange(req.TimeRange)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (s *Server) handleResetSelection(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.nav.Reset())
}
