// internal/sse/encoder.go

// Package sse implements the server-sent event protocol used by the
// analysis pipeline: each event is an "event:" line, a "data:" line with
// a JSON payload, and a blank terminator. The decoder tolerates arbitrary
// chunking of the byte stream.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Event is one decoded protocol unit. Data is the raw JSON payload.
type Event struct {
	Name string
	Data json.RawMessage
}

// Encoder serializes events onto a writer. Writes are serialized with a
// mutex so concurrently-running specialist tasks can share one stream;
// each event is flushed immediately when the writer supports it.
type Encoder struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// Send encodes one event. Payloads that fail to marshal are a programming
// defect and reported as an error rather than written partially.
func (e *Encoder) Send(name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return fmt.Errorf("write %s event: %w", name, err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
