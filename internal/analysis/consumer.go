// internal/analysis/consumer.go
package analysis

import (
	"context"
	"errors"
	"io"

	"crisis-atlas/internal/sse"
)

const readBufferSize = 4096

// Consume reads the event stream from r until EOF, cancellation, or a
// read error, applying every decoded event. Cancellation stops event
// processing at the next delivery boundary and is not recorded as a
// pipeline error; only one Consume may be in flight per machine, so
// callers starting a new run must Reset first.
func (m *StateMachine) Consume(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.cancel = cancel
	m.state.Status = RunActive
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.cancel != nil {
			m.cancel = nil
		}
		m.mu.Unlock()
	}()

	decoder := sse.NewDecoder(m.log)
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			// Re-check after a potentially long blocking read so no
			// state updates land after an abort.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			for _, ev := range decoder.Write(buf[:n]) {
				m.Apply(ev)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				for _, ev := range decoder.Flush() {
					m.Apply(ev)
				}
				return nil
			}
			return err
		}
	}
}
