// internal/analysis/consumer_test.go
package analysis

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-atlas/internal/models"
	"crisis-atlas/internal/sse"
)

func encodeRun(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := sse.NewEncoder(&buf)

	require.NoError(t, enc.Send(models.EventStatus, models.StatusPayload{Status: models.PhaseOrchestrating}))
	require.NoError(t, enc.Send(models.EventOrchestrator, models.RoutingDecision{
		ScenarioSummary: "Suez Canal closure",
		EventCategories: []models.EventCategory{models.CategoryGeopolitical},
	}))
	require.NoError(t, enc.Send(models.EventStatus, models.StatusPayload{Status: models.PhaseAnalyzing}))
	require.NoError(t, enc.Send(models.EventAgentChunk, models.AgentChunkPayload{Agent: models.AgentGeopolitics, Chunk: "Regional "}))
	require.NoError(t, enc.Send(models.EventAgentChunk, models.AgentChunkPayload{Agent: models.AgentGeopolitics, Chunk: "tensions rise."}))
	require.NoError(t, enc.Send(models.EventAgentComplete, models.AgentCompletePayload{
		Agent:      models.AgentGeopolitics,
		Structured: []byte(`{"affected_countries":[{"iso3":"EGY","impact_score":7}],"narrative":"n"}`),
	}))
	require.NoError(t, enc.Send(models.EventStatus, models.StatusPayload{Status: models.PhaseSynthesizing}))
	require.NoError(t, enc.Send(models.EventSynthesisChunk, models.SynthesisChunkPayload{Chunk: "Severe."}))
	require.NoError(t, enc.Send(models.EventComplete, models.CompletePayload{CompoundRiskScore: 29}))

	return buf.Bytes()
}

func TestConsumeFullStream(t *testing.T) {
	m := newMachine()

	err := m.Consume(context.Background(), bytes.NewReader(encodeRun(t)))
	require.NoError(t, err)

	s := m.Snapshot()
	assert.Equal(t, RunComplete, s.Status)
	require.NotNil(t, s.Decision)
	assert.Equal(t, "Suez Canal closure", s.Decision.ScenarioSummary)
	assert.Equal(t, "Regional tensions rise.", s.Geopolitics.Text)
	assert.Equal(t, models.StatusComplete, s.Geopolitics.Status)
	require.NotNil(t, s.Results.Geopolitics)
	require.NotNil(t, s.CompoundRiskScore)
	assert.Equal(t, 29, *s.CompoundRiskScore)
	assert.Empty(t, s.Errors)
}

// abortingReader cancels after the first delivery, then keeps offering
// data; nothing past the abort point may reach the state.
type abortingReader struct {
	first  []byte
	cancel context.CancelFunc
	calls  int
}

func (r *abortingReader) Read(p []byte) (int, error) {
	r.calls++
	if r.calls == 1 {
		n := copy(p, r.first)
		r.cancel()
		return n, nil
	}
	return copy(p, []byte("event: complete\ndata: {\"compound_risk_score\":99}\n\n")), nil
}

func TestConsumeAbortStopsProcessing(t *testing.T) {
	m := newMachine()
	ctx, cancel := context.WithCancel(context.Background())

	var buf bytes.Buffer
	enc := sse.NewEncoder(&buf)
	require.NoError(t, enc.Send(models.EventStatus, models.StatusPayload{Status: models.PhaseOrchestrating}))

	err := m.Consume(ctx, &abortingReader{first: buf.Bytes(), cancel: cancel})
	require.ErrorIs(t, err, context.Canceled)

	s := m.Snapshot()
	assert.Nil(t, s.CompoundRiskScore, "no state updates after the abort point")
	assert.Empty(t, s.Errors, "an abort is not a pipeline error")
}

func TestConsumeResetAbortsInFlight(t *testing.T) {
	m := newMachine()

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- m.Consume(context.Background(), pr)
	}()

	var buf bytes.Buffer
	enc := sse.NewEncoder(&buf)
	require.NoError(t, enc.Send(models.EventStatus, models.StatusPayload{Status: models.PhaseAnalyzing}))
	_, err := pw.Write(buf.Bytes())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return m.Snapshot().Phase == models.PhaseAnalyzing
	}, time.Second, time.Millisecond)

	m.Reset()
	pw.Close()

	<-done
	assert.Equal(t, initialState(), m.Snapshot())
}
