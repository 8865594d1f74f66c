package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

// jsonError is the body of every API error response.
type jsonError struct {
	Error string `json:"error"`
}

// withTimeout bounds a handler by cfg.WriteTimeout. A handler still
// running when the timeout fires is answered with a JSON 503.
func (s *Server) withTimeout(h http.HandlerFunc) http.Handler {
	body, _ := json.Marshal(jsonError{Error: "request timed out"})

	inner := h
	if s.handlerDelay > 0 {
		delay := s.handlerDelay
		inner = func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(delay)
			h(w, r)
		}
	}
	handler := http.TimeoutHandler(inner, s.cfg.WriteTimeout, string(body))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(&contentTypeWrapper{
			ResponseWriter: w,
			contentType:    "application/json",
			triggerStatus:  http.StatusServiceUnavailable,
		}, r)
	})
}

// contentTypeWrapper sets contentType when the first header written
// carries triggerStatus and no Content-Type was chosen.
type contentTypeWrapper struct {
	http.ResponseWriter
	contentType   string
	triggerStatus int
	wroteHeader   bool
}

func (w *contentTypeWrapper) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	h := w.ResponseWriter.Header()
	if code == w.triggerStatus && h.Get("Content-Type") == "" {
		h.Set("Content-Type", w.contentType)
	}
	w.ResponseWriter.WriteHeader(code)
	w.wroteHeader = true
}

func (w *contentTypeWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// corsMiddleware allows any origin on /api/ routes and answers
// preflight requests itself.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps the events stream working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// logMiddleware logs each API request with its status and duration.
// The events stream is logged when it opens.
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/api/v1/events" {
			log.Printf("%s %s (stream)", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path,
			rec.status, time.Since(start).Round(time.Millisecond))
	})
}
