// internal/sse/decoder.go
package sse

import (
	"encoding/json"
	"strings"

	"crisis-atlas/internal/common/logger"
)

// Decoder reassembles events from a stream delivered in arbitrary
// fragments. Two pieces of state survive across deliveries: the trailing
// partial line, and the pending event name awaiting its data line. The
// pending name must persist across delivery boundaries or events whose
// name and data arrive in separate fragments are silently lost.
type Decoder struct {
	buffer       string
	pendingEvent string
	log          logger.Logger
}

func NewDecoder(log logger.Logger) *Decoder {
	return &Decoder{log: log}
}

// Write feeds one delivery of bytes and returns the events completed by
// it, in stream order. Malformed data lines are logged and dropped
// without disturbing subsequent events.
func (d *Decoder) Write(p []byte) []Event {
	d.buffer += string(p)

	lines := strings.Split(d.buffer, "\n")
	d.buffer = lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	var events []Event
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "event: "):
			d.pendingEvent = line[len("event: "):]
		case strings.HasPrefix(line, "data: "):
			if d.pendingEvent == "" {
				continue
			}
			raw := line[len("data: "):]
			if !json.Valid([]byte(raw)) {
				if d.log != nil {
					d.log.Warn("dropping malformed event payload", map[string]interface{}{
						"event": d.pendingEvent,
						"data":  raw,
					})
				}
				d.pendingEvent = ""
				continue
			}
			events = append(events, Event{
				Name: d.pendingEvent,
				Data: json.RawMessage(raw),
			})
			d.pendingEvent = ""
		}
	}
	return events
}

// Flush processes any trailing buffered line after the stream closes.
// A correctly terminated stream ends on a blank line, so this normally
// returns nothing.
func (d *Decoder) Flush() []Event {
	if d.buffer == "" {
		return nil
	}
	events := d.Write([]byte("\n"))
	d.buffer = ""
	return events
}
