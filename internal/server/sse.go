package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// sseWriteTimeout bounds each event write so a stalled client
// cannot pin a handler.
const sseWriteTimeout = 3 * time.Second

// SSEStream writes Server-Sent Events to one client.
type SSEStream struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSEStream sets the event-stream headers and flushes them. It
// fails when w cannot stream.
func NewSSEStream(w http.ResponseWriter) (*SSEStream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	f.Flush()
	return &SSEStream{w: w, f: f}, nil
}

// Retry tells the client how long to wait before reconnecting.
func (s *SSEStream) Retry(d time.Duration) bool {
	return s.write("retry", fmt.Sprintf("retry: %d\n\n", d.Milliseconds()))
}

// Send writes one event. It returns false when the write fails.
func (s *SSEStream) Send(event, data string) bool {
	return s.write(event, fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))
}

// SendJSON writes one event with v encoded as its data. Values that
// fail to encode are logged and skipped.
func (s *SSEStream) SendJSON(event string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("SSE marshal error for %q: %v", event, err)
		return false
	}
	return s.Send(event, string(data))
}

func (s *SSEStream) write(event, frame string) bool {
	rc := http.NewResponseController(s.w)
	_ = rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout))
	defer func() { _ = rc.SetWriteDeadline(time.Time{}) }()

	if _, err := fmt.Fprint(s.w, frame); err != nil {
		log.Printf("SSE write error for %q: %v", event, err)
		return false
	}
	s.f.Flush()
	return true
}
