// internal/analysis/state_test.go
package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/models"
	"crisis-atlas/internal/sse"
)

func event(name string, payload interface{}) sse.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return sse.Event{Name: name, Data: data}
}

func newMachine(opts ...Option) *StateMachine {
	return NewStateMachine(logger.NewNop(), append([]Option{WithFlushInterval(0)}, opts...)...)
}

func TestStatusEventUpdatesPhase(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseOrchestrating,
		Message: "Analyzing scenario...",
	}))

	s := m.Snapshot()
	assert.Equal(t, RunActive, s.Status)
	assert.Equal(t, models.PhaseOrchestrating, s.Phase)
	assert.Equal(t, "Analyzing scenario...", s.Message)
	assert.Equal(t, models.StatusIdle, s.Economy.Status)
}

func TestOrchestratorEventStoresDecision(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventOrchestrator, models.RoutingDecision{
		ScenarioSummary: "Canal closure",
		Severity:        8,
		EventCategories: []models.EventCategory{models.CategoryGeopolitical},
	}))

	s := m.Snapshot()
	require.NotNil(t, s.Decision)
	assert.Equal(t, "Canal closure", s.Decision.ScenarioSummary)
	assert.Equal(t, models.PhaseAnalyzing, s.Phase)
}

func TestAgentChunkTransitionsAndAccumulates(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventAgentChunk, models.AgentChunkPayload{Agent: models.AgentEconomy, Chunk: "Trade "}))
	m.Apply(event(models.EventAgentChunk, models.AgentChunkPayload{Agent: models.AgentEconomy, Chunk: "routes halted"}))

	s := m.Snapshot()
	assert.Equal(t, models.StatusStreaming, s.Economy.Status)
	assert.Equal(t, "Trade routes halted", s.Economy.Text)
	assert.Equal(t, models.StatusIdle, s.Geopolitics.Status)
}

// Final accumulated text must not depend on the flush granularity.
func TestChunkCoalescingIsTextInvariant(t *testing.T) {
	chunks := []string{"Wheat ", "exports ", "from ", "the ", "region ", "halted."}

	immediate := newMachine()
	coalesced := NewStateMachine(logger.NewNop(), WithFlushInterval(time.Hour))

	for _, c := range chunks {
		p := models.AgentChunkPayload{Agent: models.AgentFoodSupply, Chunk: c}
		immediate.Apply(event(models.EventAgentChunk, p))
		coalesced.Apply(event(models.EventAgentChunk, p))
	}

	want := "Wheat exports from the region halted."
	assert.Equal(t, want, immediate.Snapshot().FoodSupply.Text)
	assert.Equal(t, want, coalesced.Snapshot().FoodSupply.Text)
}

func TestCoalescedFlushOnInterval(t *testing.T) {
	var notified int
	m := NewStateMachine(logger.NewNop(),
		WithFlushInterval(10*time.Millisecond),
		WithChangeListener(func(ClientAnalysisState) { notified++ }))

	for i := 0; i < 50; i++ {
		m.Apply(event(models.EventAgentChunk, models.AgentChunkPayload{Agent: models.AgentEconomy, Chunk: "x"}))
	}

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.pending) == 0
	}, time.Second, 5*time.Millisecond)

	// One streaming transition plus a handful of interval flushes, far
	// fewer notifications than chunks.
	assert.Less(t, notified, 10)
	assert.Equal(t, "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", m.Snapshot().Economy.Text)
}

func TestAgentCompleteRoutesDomainResult(t *testing.T) {
	m := newMachine()

	structured := json.RawMessage(`{"affected_countries":[{"iso3":"EGY","trade_disruption":9}],"narrative":"n"}`)
	m.Apply(event(models.EventAgentComplete, models.AgentCompletePayload{
		Agent:      models.AgentEconomy,
		Structured: structured,
		Narrative:  "full economy briefing",
	}))

	s := m.Snapshot()
	assert.Equal(t, models.StatusComplete, s.Economy.Status)
	assert.Equal(t, "full economy briefing", s.Economy.Text)
	require.NotNil(t, s.Results.Economy)
	assert.Equal(t, 9, s.Results.Economy.MaxSeverity())
	assert.Nil(t, s.SynthesisResult, "domain output must never land in the synthesis slot")
}

func TestAgentCompleteRoutesSynthesisResult(t *testing.T) {
	m := newMachine()

	structured, err := json.Marshal(models.SynthesisOutput{
		CascadingRiskChain: "a -> b",
		CompoundRiskScore:  70,
	})
	require.NoError(t, err)

	m.Apply(event(models.EventAgentComplete, models.AgentCompletePayload{
		Agent:      models.AgentSynthesis,
		Structured: structured,
	}))

	s := m.Snapshot()
	assert.Equal(t, models.StatusComplete, s.Synthesis.Status)
	require.NotNil(t, s.SynthesisResult)
	assert.Equal(t, "a -> b", s.SynthesisResult.CascadingRiskChain)
	assert.Nil(t, s.Results.Economy, "synthesis output must never land in a domain slot")
	assert.Nil(t, s.Results.Geopolitics)
}

func TestSynthesisChunk(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventSynthesisChunk, models.SynthesisChunkPayload{Chunk: "Overall, "}))
	m.Apply(event(models.EventSynthesisChunk, models.SynthesisChunkPayload{Chunk: "severe."}))

	s := m.Snapshot()
	assert.Equal(t, models.StatusStreaming, s.Synthesis.Status)
	assert.Equal(t, "Overall, severe.", s.Synthesis.Text)
}

func TestCompleteEventStoresScore(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventComplete, models.CompletePayload{CompoundRiskScore: 70}))

	s := m.Snapshot()
	assert.Equal(t, RunComplete, s.Status)
	require.NotNil(t, s.CompoundRiskScore)
	assert.Equal(t, 70, *s.CompoundRiskScore)
	assert.Equal(t, models.StatusComplete, s.Synthesis.Status)
}

func TestAgentScopedErrorDoesNotFailRun(t *testing.T) {
	m := newMachine()
	m.Apply(event(models.EventStatus, models.StatusPayload{Status: models.PhaseAnalyzing}))

	m.Apply(event(models.EventError, models.ErrorPayload{
		Message: "Agent timed out after 20s",
		Agent:   models.AgentInfrastructure,
	}))

	s := m.Snapshot()
	assert.Equal(t, RunActive, s.Status)
	assert.Empty(t, s.FailureReason)
	assert.Equal(t, models.StatusError, s.Infrastructure.Status)
	require.Len(t, s.Errors, 1)
}

func TestPipelineFatalErrorFailsRun(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventError, models.ErrorPayload{Message: "Routing failed: model unavailable"}))

	s := m.Snapshot()
	assert.Equal(t, RunError, s.Status)
	assert.Equal(t, "Routing failed: model unavailable", s.FailureReason)
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	m := newMachine()

	m.Apply(sse.Event{Name: models.EventComplete, Data: json.RawMessage(`{"compound_risk_score":"not a number"}`)})
	m.Apply(event(models.EventComplete, models.CompletePayload{CompoundRiskScore: 40}))

	s := m.Snapshot()
	require.NotNil(t, s.CompoundRiskScore)
	assert.Equal(t, 40, *s.CompoundRiskScore)
}

func TestResetRestoresInitialState(t *testing.T) {
	m := newMachine()

	m.Apply(event(models.EventStatus, models.StatusPayload{Status: models.PhaseAnalyzing}))
	m.Apply(event(models.EventOrchestrator, models.RoutingDecision{ScenarioSummary: "x"}))
	m.Apply(event(models.EventAgentChunk, models.AgentChunkPayload{Agent: models.AgentEconomy, Chunk: "text"}))
	m.Apply(event(models.EventError, models.ErrorPayload{Message: "boom"}))
	m.Apply(event(models.EventComplete, models.CompletePayload{CompoundRiskScore: 12}))

	m.Reset()

	assert.Equal(t, initialState(), m.Snapshot())
}
