package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/config"
	"github.com/wesm/inventoryview/internal/db"
	"github.com/wesm/inventoryview/internal/render"
	"github.com/wesm/inventoryview/internal/report"
	"github.com/wesm/inventoryview/internal/server"
	"github.com/wesm/inventoryview/internal/sync"
)

// --- Test helpers ---

// testEnv sets up a server over an in-memory store.
type testEnv struct {
	srv     *server.Server
	handler http.Handler
	db      *db.DB
	engine  *sync.Engine
	dataset string
}

// setupOption customizes the config used by setup.
type setupOption func(*config.Config)

func withWriteTimeout(d time.Duration) setupOption {
	return func(c *config.Config) { c.WriteTimeout = d }
}

// withDatasetFile writes content to a dataset file and points the
// config at it.
func withDatasetFile(t *testing.T, content string) setupOption {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}
	return func(c *config.Config) { c.DatasetPath = path }
}

func setup(
	t *testing.T,
	opts ...setupOption,
) *testEnv {
	return setupWithServerOpts(t, nil, opts...)
}

func setupWithServerOpts(
	t *testing.T,
	srvOpts []server.Option,
	opts ...setupOption,
) *testEnv {
	t.Helper()
	database, err := db.Open(db.Memory)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.Config{
		Host:         "127.0.0.1",
		Port:         0,
		DataDir:      t.TempDir(),
		Seed:         1,
		WriteTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	engine := sync.NewEngine(database, cfg.DatasetPath, nil)
	if _, err := engine.Load(context.Background()); err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	srv := server.New(cfg, database, engine, srvOpts...)

	return &testEnv{
		srv:     srv,
		handler: srv.Handler(),
		db:      database,
		engine:  engine,
		dataset: cfg.DatasetPath,
	}
}

// listenAndServe starts the server on a real port and returns the
// base URL. The server is shut down when the test finishes.
func (te *testEnv) listenAndServe(t *testing.T) string {
	t.Helper()
	port := server.FindAvailablePort("127.0.0.1", 40000)
	te.srv.SetPort(port)

	var serveErr error
	done := make(chan struct{})
	go func() {
		serveErr = te.srv.ListenAndServe()
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ready := false
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout(
			"tcp", addr, 50*time.Millisecond,
		)
		if err == nil {
			conn.Close()
			ready = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !ready {
		t.Fatalf("server not ready after 2s")
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second,
		)
		defer cancel()
		if err := te.srv.Shutdown(ctx); err != nil &&
			err != http.ErrServerClosed {
			t.Errorf("server shutdown error: %v", err)
		}
		select {
		case <-done:
			if serveErr != nil &&
				serveErr != http.ErrServerClosed {
				t.Errorf(
					"server exited with error: %v",
					serveErr,
				)
			}
		case <-time.After(5 * time.Second):
			t.Error("timed out waiting for server goroutine")
		}
	})

	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

func (te *testEnv) do(
	t *testing.T, method, path, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	te.handler.ServeHTTP(w, req)
	return w
}

func (te *testEnv) get(
	t *testing.T, path string,
) *httptest.ResponseRecorder {
	t.Helper()
	return te.do(t, http.MethodGet, path, "")
}

func (te *testEnv) put(
	t *testing.T, path, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	return te.do(t, http.MethodPut, path, body)
}

// decode unmarshals the response body into a typed struct.
func decode[T any](
	t *testing.T, w *httptest.ResponseRecorder,
) T {
	t.Helper()
	var result T
	if err := json.Unmarshal(
		w.Body.Bytes(), &result,
	); err != nil {
		t.Fatalf("decoding JSON: %v\nbody: %s",
			err, w.Body.String())
	}
	return result
}

func assertStatus(
	t *testing.T, w *httptest.ResponseRecorder, code int,
) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected status %d, got %d: %s",
			code, w.Code, w.Body.String())
	}
}

// assertTimeoutRace validates a timeout response where either
// the middleware (503 "request timed out") or the handler
// (504 "gateway timeout") may win the race.
func assertTimeoutRace(
	t *testing.T, w *httptest.ResponseRecorder,
) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf(
			"Content-Type = %q, want application/json", ct,
		)
	}
	switch w.Code {
	case http.StatusServiceUnavailable:
		assert.Contains(t, w.Body.String(), "request timed out")
	case http.StatusGatewayTimeout:
		assert.Contains(t, w.Body.String(), "gateway timeout")
	default:
		t.Fatalf(
			"expected 503 or 504, got %d: %s",
			w.Code, w.Body.String(),
		)
	}
}

// expiredContext returns a context with a deadline in the past.
func expiredContext(
	t *testing.T,
) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithDeadline(
		context.Background(), time.Now().Add(-1*time.Hour),
	)
}

// --- Typed response structs for JSON decoding ---

type menuResponse struct {
	Categories []report.MenuCategory `json:"categories"`
}

type reportResponse struct {
	Category  string         `json:"category"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Kind      report.Kind    `json:"kind"`
	TimeRange string         `json:"time_range"`
	Data      report.Data    `json:"data"`
	Panels    []report.Panel `json:"panels"`
	Artifacts []struct {
		Kind    report.Kind `json:"kind"`
		Title   string      `json:"title"`
		Message string      `json:"message"`
		Chart   *struct {
			Series []struct {
				Name   string `json:"name"`
				Points []struct {
					Label string  `json:"label"`
					Value float64 `json:"value"`
				} `json:"points"`
			} `json:"series"`
		} `json:"chart"`
	} `json:"artifacts"`
}

// --- Tests ---

func TestListReports(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/reports")
	assertStatus(t, w, http.StatusOK)

	resp := decode[menuResponse](t, w)
	names := make([]string, len(resp.Categories))
	count := 0
	for i, c := range resp.Categories {
		names[i] = c.Name
		count += len(c.Reports)
	}
	assert.Equal(t,
		[]string{"financial", "inventory", "customer", "products"},
		names)
	assert.Equal(t, 16, count)
}

func TestGetReport(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/reports/financial/income-statement")
	assertStatus(t, w, http.StatusOK)

	resp := decode[reportResponse](t, w)
	assert.Equal(t, "Financial Report - Income Statement", resp.Title)
	assert.Equal(t, report.KindTable, resp.Kind)
	require.Len(t, resp.Data.Buckets, 3)
	assert.Equal(t, 3375.84, resp.Data.Buckets[0].Value)
	require.NotEmpty(t, resp.Artifacts)
	assert.Equal(t, resp.Title, resp.Artifacts[0].Title)
}

func TestGetReport_TrendRange(t *testing.T) {
	te := setup(t)
	tests := []struct {
		query  string
		points int
	}{
		{"", 30},
		{"?range=weekly", 7},
		{"?range=monthly", 30},
		{"?range=yearly", 12},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := te.get(t, "/api/v1/reports/financial/overview"+tt.query)
			assertStatus(t, w, http.StatusOK)
			resp := decode[reportResponse](t, w)
			assert.Len(t, resp.Data.Points, tt.points)
			require.NotNil(t, resp.Artifacts[0].Chart)
			assert.Len(t, resp.Artifacts[0].Chart.Series[0].Points,
				tt.points)
		})
	}
}

func TestGetReport_Deterministic(t *testing.T) {
	te := setup(t)
	a := te.get(t, "/api/v1/reports/customer/retention-rate?range=weekly")
	b := te.get(t, "/api/v1/reports/customer/retention-rate?range=weekly")
	assertStatus(t, a, http.StatusOK)
	assert.Equal(t, a.Body.String(), b.Body.String())
}

func TestGetReport_InvalidRange(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/reports/financial/overview?range=daily")
	assertStatus(t, w, http.StatusBadRequest)
	resp := decode[map[string]string](t, w)
	assert.Contains(t, resp["error"], "invalid time range")
}

func TestGetReport_UnknownIsPlaceholder(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/reports/financial/unknown")
	assertStatus(t, w, http.StatusOK)

	resp := decode[reportResponse](t, w)
	assert.Equal(t, report.KindPlaceholder, resp.Kind)
	assert.Equal(t, "Select a report", resp.Title)
	assert.Empty(t, resp.Data.Buckets)
	require.Len(t, resp.Artifacts, 1)
	assert.Equal(t, "No report available for this selection.",
		resp.Artifacts[0].Message)
}

func TestDownload(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/reports/financial/income-statement/download")
	assertStatus(t, w, http.StatusOK)

	assert.Equal(t, "text/plain; charset=utf-8",
		w.Header().Get("Content-Type"))
	assert.Equal(t,
		`attachment; filename="financial-income-statement-report.txt"`,
		w.Header().Get("Content-Disposition"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body,
		"FINANCIAL REPORT - INCOME-STATEMENT\n\n"), body)
	assert.Contains(t, body, ": 3375.84\n")
}

func TestDownload_Placeholder(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/reports/nope/nothing/download")
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "NOPE REPORT - NOTHING\n\n", w.Body.String())
}

func TestPrint(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)
	te := setupWithServerOpts(t, []server.Option{
		server.WithClock(func() time.Time { return fixed }),
	})
	w := te.get(t, "/api/v1/reports/inventory/stock-levels/print")
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "text/html; charset=utf-8",
		w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "<title>Inventory Report - Stock Levels</title>")
	assert.Contains(t, body, "Generated 2026-03-04 05:06")
}

func TestIndex_PrintsCurrentSelection(t *testing.T) {
	te := setup(t)
	w := te.put(t, "/api/v1/selection",
		`{"category":"products","type":"price-ranges"}`)
	assertStatus(t, w, http.StatusOK)

	w = te.get(t, "/")
	assertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(),
		"<title>Product Report - Price Ranges</title>")
}

func TestSelection_Lifecycle(t *testing.T) {
	te := setup(t)

	w := te.get(t, "/api/v1/selection")
	assertStatus(t, w, http.StatusOK)
	sel := decode[report.Selection](t, w)
	assert.Equal(t, "financial", sel.Category)
	assert.Equal(t, "overview", sel.Type)
	assert.Equal(t, "monthly", string(sel.TimeRange))

	w = te.put(t, "/api/v1/selection",
		`{"category":"customer","type":"acquisition"}`)
	assertStatus(t, w, http.StatusOK)
	sel = decode[report.Selection](t, w)
	assert.Equal(t, "customer", sel.Category)
	assert.Equal(t, "monthly", string(sel.TimeRange))

	w = te.put(t, "/api/v1/selection/time-range",
		`{"time_range":"weekly"}`)
	assertStatus(t, w, http.StatusOK)

	w = te.get(t, "/api/v1/reports/current")
	assertStatus(t, w, http.StatusOK)
	cur := decode[reportResponse](t, w)
	// "acquisition" is not a customer report type.
	assert.Equal(t, report.KindPlaceholder, cur.Kind)

	w = te.put(t, "/api/v1/selection",
		`{"category":"customer","type":"customer-acquisition"}`)
	assertStatus(t, w, http.StatusOK)
	w = te.get(t, "/api/v1/reports/current")
	cur = decode[reportResponse](t, w)
	assert.Equal(t, report.KindLine, cur.Kind)
	assert.Equal(t, "weekly", cur.TimeRange)
	assert.Len(t, cur.Data.Points, 7)

	w = te.do(t, http.MethodDelete, "/api/v1/selection", "")
	assertStatus(t, w, http.StatusOK)
	sel = decode[report.Selection](t, w)
	assert.Equal(t, report.Selection{
		Category: "financial", Type: "overview", TimeRange: "monthly",
	}, sel)
}

func TestSelection_BadRequests(t *testing.T) {
	te := setup(t)
	tests := []struct {
		name string
		path string
		body string
	}{
		{"InvalidJSON", "/api/v1/selection", "{"},
		{"MissingType", "/api/v1/selection", `{"category":"financial"}`},
		{"InvalidRange", "/api/v1/selection/time-range",
			`{"time_range":"hourly"}`},
		{"EmptyRange", "/api/v1/selection/time-range", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := te.put(t, tt.path, tt.body)
			assertStatus(t, w, http.StatusBadRequest)
		})
	}

	// Failed updates leave the selection unchanged.
	sel := decode[report.Selection](t, te.get(t, "/api/v1/selection"))
	assert.Equal(t, "overview", sel.Type)
	assert.Equal(t, "monthly", string(sel.TimeRange))
}

func TestGetSection(t *testing.T) {
	te := setup(t)
	for _, name := range report.Sections {
		t.Run(name, func(t *testing.T) {
			w := te.get(t, "/api/v1/sections/"+name)
			assertStatus(t, w, http.StatusOK)
			resp := decode[reportResponse](t, w)
			assert.NotEqual(t, report.KindPlaceholder, resp.Kind)
			assert.Len(t, resp.Artifacts, 1+len(resp.Panels))
		})
	}

	w := te.get(t, "/api/v1/sections/employees")
	assertStatus(t, w, http.StatusOK)
	resp := decode[reportResponse](t, w)
	assert.Equal(t, report.KindPlaceholder, resp.Kind)
	assert.Equal(t, "No report available for this section", resp.Title)
}

func TestGetStats(t *testing.T) {
	te := setup(t)
	w := te.get(t, "/api/v1/stats")
	assertStatus(t, w, http.StatusOK)

	stats := decode[db.Stats](t, w)
	assert.Equal(t, 20, stats.Products)
	assert.Equal(t, 15, stats.Orders)
	assert.Equal(t, "v1.0.0", stats.Meta.Version)
	assert.Equal(t, sync.SeedSource, stats.Meta.Source)
}

func TestGetVersion(t *testing.T) {
	te := setupWithServerOpts(t, []server.Option{
		server.WithVersion(server.VersionInfo{Version: "1.2.3"}),
	})
	w := te.get(t, "/api/v1/version")
	assertStatus(t, w, http.StatusOK)
	v := decode[server.VersionInfo](t, w)
	assert.Equal(t, "1.2.3", v.Version)
}

const reloadDataset = `{
  "version": "1.0.0",
  "products": [
    {"id": "P1", "name": "Laptop", "category": "Electronics",
     "price": 1000, "stock": 2}
  ]
}`

func TestReload(t *testing.T) {
	te := setup(t, withDatasetFile(t, reloadDataset))

	w := te.get(t, "/api/v1/stats")
	assert.Equal(t, 1, decode[db.Stats](t, w).Products)

	updated := strings.Replace(reloadDataset, `"stock": 2}`,
		`"stock": 2},
    {"id": "P2", "name": "Novel", "category": "Books",
     "price": 10, "stock": 50}`, 1)
	require.NoError(t, os.WriteFile(te.dataset, []byte(updated), 0o644))

	w = te.do(t, http.MethodPost, "/api/v1/reload", "")
	assertStatus(t, w, http.StatusOK)
	stats := decode[sync.LoadStats](t, w)
	assert.Equal(t, 2, stats.Records)

	w = te.get(t, "/api/v1/reports/products/category-distribution")
	resp := decode[reportResponse](t, w)
	require.Len(t, resp.Data.Buckets, 2)
	assert.Equal(t, "Electronics", resp.Data.Buckets[0].Name)
	assert.Equal(t, "Books", resp.Data.Buckets[1].Name)
}

func TestReload_BadFileKeepsDataset(t *testing.T) {
	te := setup(t, withDatasetFile(t, reloadDataset))
	require.NoError(t, os.WriteFile(te.dataset, []byte("{nope"), 0o644))

	w := te.do(t, http.MethodPost, "/api/v1/reload", "")
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = te.get(t, "/api/v1/status")
	assertStatus(t, w, http.StatusOK)
	st := decode[sync.Status](t, w)
	assert.Equal(t, sync.PhaseFailed, st.Phase)
	assert.NotEmpty(t, st.Error)

	w = te.get(t, "/api/v1/stats")
	assert.Equal(t, 1, decode[db.Stats](t, w).Products)
}

func TestWithRegistry(t *testing.T) {
	reg, err := report.NewRegistry(
		[]report.CategoryInfo{{Name: "stock", Title: "Stock"}},
		[]report.Entry{{
			Category: "stock", Type: "count", Title: "Count",
			Kind: report.KindBar,
			Build: func(in report.Input) report.Data {
				return report.Data{Buckets: []aggregate.Bucket{
					{Name: "Products", Value: float64(len(in.Dataset.Products))},
				}}
			},
		}},
	)
	require.NoError(t, err)
	te := setupWithServerOpts(t, []server.Option{server.WithRegistry(reg)})

	menu := decode[menuResponse](t, te.get(t, "/api/v1/reports"))
	require.Len(t, menu.Categories, 1)
	assert.Equal(t, "stock", menu.Categories[0].Name)

	// The navigator starts at the custom registry's first entry.
	sel := decode[report.Selection](t, te.get(t, "/api/v1/selection"))
	assert.Equal(t, "count", sel.Type)

	w := te.get(t, "/api/v1/reports/stock/count/download")
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, "STOCK REPORT - COUNT\n\nProducts: 20\n", w.Body.String())
}

type failingRenderer struct{}

func (failingRenderer) Render(
	report.Kind, report.Data, render.Options,
) (render.Artifact, error) {
	return render.Artifact{}, render.ErrUnknownKind
}

func TestWithRenderer_Error(t *testing.T) {
	te := setupWithServerOpts(t, []server.Option{
		server.WithRenderer(failingRenderer{}),
	})
	for _, path := range []string{
		"/api/v1/reports/financial/overview",
		"/api/v1/reports/financial/overview/print",
		"/api/v1/sections/orders",
	} {
		w := te.get(t, path)
		assertStatus(t, w, http.StatusInternalServerError)
		assert.Contains(t, w.Body.String(), "unknown report kind")
	}

	// Downloads do not go through the renderer.
	w := te.get(t, "/api/v1/reports/financial/overview/download")
	assertStatus(t, w, http.StatusOK)
}

func TestCORSPreflight(t *testing.T) {
	te := setup(t)
	w := te.do(t, http.MethodOptions, "/api/v1/selection", "")
	assertStatus(t, w, http.StatusNoContent)
	assert.Contains(t,
		w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestMiddleware_Timeout(t *testing.T) {
	t.Parallel()
	te := setup(t)

	tests := []struct {
		name string
		path string
	}{
		{"GetReport", "/api/v1/reports/financial/overview"},
		{"CurrentReport", "/api/v1/reports/current"},
		{"GetSection", "/api/v1/sections/orders"},
		{"GetStats", "/api/v1/stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, cancel := expiredContext(t)
			defer cancel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil).WithContext(ctx)
			w := httptest.NewRecorder()
			te.handler.ServeHTTP(w, req)

			assertTimeoutRace(t, w)
		})
	}
}

func TestListenAndServe(t *testing.T) {
	te := setupWithServerOpts(t, []server.Option{
		server.WithVersion(server.VersionInfo{Version: "9.9.9"}),
	})
	base := te.listenAndServe(t)

	resp, err := http.Get(base + "/api/v1/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v server.VersionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "9.9.9", v.Version)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
