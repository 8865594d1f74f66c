package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wesm/inventoryview/internal/config"
	"github.com/wesm/inventoryview/internal/db"
	"github.com/wesm/inventoryview/internal/sync"
)

// testServer creates a Server for internal tests with the given
// write timeout, backed by an in-memory store holding the seed
// dataset.
func testServer(
	t *testing.T, writeTimeout time.Duration,
) *Server {
	t.Helper()
	return testServerOpts(t, writeTimeout)
}

// testServerOpts is testServer with internal field overrides.
func testServerOpts(
	t *testing.T, writeTimeout time.Duration,
	opts ...func(*Server),
) *Server {
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
		WriteTimeout: writeTimeout,
	}
	engine := sync.NewEngine(database, "", nil)
	if _, err := engine.Load(context.Background()); err != nil {
		t.Fatalf("loading seed: %v", err)
	}
	s := New(cfg, database, engine)
	for _, opt := range opts {
		opt(s)
	}
	if s.handlerDelay > 0 {
		// withTimeout captures the delay when routes are built.
		s.mux = http.NewServeMux()
		s.routes()
	}
	return s
}

// withHandlerDelay makes every timeout-wrapped handler sleep
// for d before running.
func withHandlerDelay(d time.Duration) func(*Server) {
	return func(s *Server) { s.handlerDelay = d }
}

// timeoutBody decodes a withTimeout 503 body. ok is false for any
// other response.
func timeoutBody(resp *http.Response) (msg string, ok bool) {
	if resp.StatusCode != http.StatusServiceUnavailable {
		return "", false
	}
	body, _ := io.ReadAll(resp.Body)
	var je jsonError
	if json.Unmarshal(body, &je) != nil {
		return string(body), false
	}
	return je.Error, true
}

// assertTimeoutResponse requires a JSON 503 "request timed out".
func assertTimeoutResponse(t *testing.T, resp *http.Response) {
	t.Helper()
	msg, ok := timeoutBody(resp)
	if !ok {
		t.Fatalf("status = %d body = %q, want JSON 503",
			resp.StatusCode, msg)
	}
	if msg != "request timed out" {
		t.Errorf("error = %q, want %q", msg, "request timed out")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// isTimeoutResponse reports whether resp is the withTimeout 503.
func isTimeoutResponse(t *testing.T, resp *http.Response) bool {
	t.Helper()
	msg, ok := timeoutBody(resp)
	return ok && msg == "request timed out"
}

// newTestContext returns a recorder and a GET request with the
// given query string.
func newTestContext(
	t *testing.T, query string,
) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	target := "/test"
	if query != "" {
		target += "?" + query
	}
	return httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, target, nil)
}

func assertRecorderStatus(
	t *testing.T, w *httptest.ResponseRecorder, code int,
) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected status %d, got %d: %s",
			code, w.Code, w.Body.String())
	}
}

func assertContentType(
	t *testing.T, w *httptest.ResponseRecorder, want string,
) {
	t.Helper()
	if got := w.Header().Get("Content-Type"); got != want {
		t.Errorf("Content-Type = %q, want %q", got, want)
	}
}

// expiredCtx returns a context whose deadline has passed.
func expiredCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithDeadline(
		context.Background(), time.Now().Add(-time.Hour),
	)
}
