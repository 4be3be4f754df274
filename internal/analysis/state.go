// internal/analysis/state.go

// Package analysis folds a decoded pipeline event stream into a client
// view of the run: per-agent status and accumulated narrative, the
// routing decision, specialist results, and the final score. Chunk
// appends are coalesced on a short interval so a token-rate stream does
// not trigger one notification per token.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/models"
	"crisis-atlas/internal/sse"
)

// RunStatus is the overall pipeline status as seen by the consumer.
type RunStatus string

const (
	RunIdle     RunStatus = "idle"
	RunActive   RunStatus = "active"
	RunComplete RunStatus = "complete"
	RunError    RunStatus = "error"
)

// AgentView is one agent's consumer-side state.
type AgentView struct {
	Status models.AgentStatus
	Text   string
}

// ClientAnalysisState is a snapshot of the run. Pointer fields are
// written once per run and never mutated afterward, so copies returned
// by Snapshot are safe to read concurrently.
type ClientAnalysisState struct {
	Status  RunStatus
	Phase   string
	Message string

	Decision *models.RoutingDecision

	Geopolitics    AgentView
	Economy        AgentView
	FoodSupply     AgentView
	Infrastructure AgentView
	CivilianImpact AgentView
	Synthesis      AgentView

	Results         models.SpecialistResults
	SynthesisResult *models.SynthesisOutput

	CompoundRiskScore *int

	Errors        []models.ErrorPayload
	FailureReason string
}

// AgentState returns the view for the named agent; the switch is
// exhaustive over the six agents.
func (s *ClientAnalysisState) AgentState(agent models.AgentName) (AgentView, error) {
	switch agent {
	case models.AgentGeopolitics:
		return s.Geopolitics, nil
	case models.AgentEconomy:
		return s.Economy, nil
	case models.AgentFoodSupply:
		return s.FoodSupply, nil
	case models.AgentInfrastructure:
		return s.Infrastructure, nil
	case models.AgentCivilianImpact:
		return s.CivilianImpact, nil
	case models.AgentSynthesis:
		return s.Synthesis, nil
	}
	return AgentView{}, fmt.Errorf("unknown agent %q", agent)
}

func (s *ClientAnalysisState) agentView(agent models.AgentName) *AgentView {
	switch agent {
	case models.AgentGeopolitics:
		return &s.Geopolitics
	case models.AgentEconomy:
		return &s.Economy
	case models.AgentFoodSupply:
		return &s.FoodSupply
	case models.AgentInfrastructure:
		return &s.Infrastructure
	case models.AgentCivilianImpact:
		return &s.CivilianImpact
	case models.AgentSynthesis:
		return &s.Synthesis
	}
	return nil
}

func initialState() ClientAnalysisState {
	s := ClientAnalysisState{Status: RunIdle}
	for _, domain := range models.SpecialistDomains() {
		s.agentView(domain).Status = models.StatusIdle
	}
	s.Synthesis.Status = models.StatusIdle
	return s
}

// DefaultFlushInterval bounds how often coalesced chunk appends surface
// in snapshots and change notifications.
const DefaultFlushInterval = 80 * time.Millisecond

// StateMachine applies decoded events to ClientAnalysisState. One
// machine instance owns one run's state; a new run must Reset first.
type StateMachine struct {
	mu    sync.Mutex
	state ClientAnalysisState

	pending       map[models.AgentName]*strings.Builder
	flushInterval time.Duration
	flushTimer    *time.Timer

	onChange func(ClientAnalysisState)
	log      logger.Logger

	cancel func()
}

// Option configures a StateMachine.
type Option func(*StateMachine)

// WithFlushInterval overrides the chunk coalescing interval. Zero
// disables coalescing: every chunk flushes immediately.
func WithFlushInterval(d time.Duration) Option {
	return func(m *StateMachine) { m.flushInterval = d }
}

// WithChangeListener registers a callback invoked with a snapshot after
// each visible state change.
func WithChangeListener(fn func(ClientAnalysisState)) Option {
	return func(m *StateMachine) { m.onChange = fn }
}

func NewStateMachine(log logger.Logger, opts ...Option) *StateMachine {
	m := &StateMachine{
		state:         initialState(),
		pending:       make(map[models.AgentName]*strings.Builder),
		flushInterval: DefaultFlushInterval,
		log:           log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the current state with all pending chunk appends
// applied. The accumulated text is identical regardless of flush
// granularity.
func (m *StateMachine) Snapshot() ClientAnalysisState {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushPendingLocked()
	return m.state
}

// Apply folds one decoded event into the state. Events with unknown
// names or undecodable payloads are logged and dropped; they never
// corrupt the state reached by the surrounding events.
func (m *StateMachine) Apply(ev sse.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.applyLocked(ev); err != nil {
		if m.log != nil {
			m.log.WithError(err).Warn("dropping event", map[string]interface{}{"event": ev.Name})
		}
	}
}

func (m *StateMachine) applyLocked(ev sse.Event) error {
	switch ev.Name {
	case models.EventStatus:
		var p models.StatusPayload
		if err := unmarshal(ev, &p); err != nil {
			return err
		}
		m.state.Status = RunActive
		m.state.Phase = p.Status
		m.state.Message = p.Message
		m.notifyLocked()

	case models.EventOrchestrator:
		var decision models.RoutingDecision
		if err := unmarshal(ev, &decision); err != nil {
			return err
		}
		m.state.Decision = &decision
		m.state.Phase = models.PhaseAnalyzing
		m.notifyLocked()

	case models.EventAgentChunk:
		var p models.AgentChunkPayload
		if err := unmarshal(ev, &p); err != nil {
			return err
		}
		view := m.state.agentView(p.Agent)
		if view == nil {
			return fmt.Errorf("unknown agent %q", p.Agent)
		}
		if view.Status == models.StatusIdle {
			view.Status = models.StatusStreaming
			m.notifyLocked()
		}
		m.appendChunkLocked(p.Agent, p.Chunk)

	case models.EventSynthesisChunk:
		var p models.SynthesisChunkPayload
		if err := unmarshal(ev, &p); err != nil {
			return err
		}
		if m.state.Synthesis.Status == models.StatusIdle {
			m.state.Synthesis.Status = models.StatusStreaming
			m.notifyLocked()
		}
		m.appendChunkLocked(models.AgentSynthesis, p.Chunk)

	case models.EventAgentComplete:
		var p models.AgentCompletePayload
		if err := unmarshal(ev, &p); err != nil {
			return err
		}
		m.flushPendingLocked()
		if p.Agent == models.AgentSynthesis {
			var out models.SynthesisOutput
			if err := unmarshal(sse.Event{Name: ev.Name, Data: p.Structured}, &out); err != nil {
				return err
			}
			m.state.SynthesisResult = &out
			m.state.Synthesis.Status = models.StatusComplete
		} else {
			if err := m.state.Results.Assign(p.Agent, p.Structured); err != nil {
				return err
			}
			view := m.state.agentView(p.Agent)
			view.Status = models.StatusComplete
			if p.Narrative != "" {
				view.Text = p.Narrative
			}
		}
		m.notifyLocked()

	case models.EventComplete:
		var p models.CompletePayload
		if err := unmarshal(ev, &p); err != nil {
			return err
		}
		m.flushPendingLocked()
		score := p.CompoundRiskScore
		m.state.CompoundRiskScore = &score
		m.state.Status = RunComplete
		m.state.Synthesis.Status = models.StatusComplete
		m.notifyLocked()

	case models.EventError:
		var p models.ErrorPayload
		if err := unmarshal(ev, &p); err != nil {
			return err
		}
		m.flushPendingLocked()
		m.state.Errors = append(m.state.Errors, p)
		if p.Agent == "" {
			m.state.Status = RunError
			m.state.FailureReason = p.Message
		} else if view := m.state.agentView(p.Agent); view != nil {
			view.Status = models.StatusError
		}
		m.notifyLocked()

	default:
		return fmt.Errorf("unknown event name %q", ev.Name)
	}
	return nil
}

// Reset cancels in-flight consumption, clears all buffers and timers,
// and restores the exact initial state.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	if m.flushTimer != nil {
		m.flushTimer.Stop()
		m.flushTimer = nil
	}
	m.pending = make(map[models.AgentName]*strings.Builder)
	m.state = initialState()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// appendChunkLocked buffers a chunk append and arms the flush timer. An
// interval of zero flushes synchronously.
func (m *StateMachine) appendChunkLocked(agent models.AgentName, chunk string) {
	buf, ok := m.pending[agent]
	if !ok {
		buf = &strings.Builder{}
		m.pending[agent] = buf
	}
	buf.WriteString(chunk)

	if m.flushInterval <= 0 {
		m.flushPendingLocked()
		m.notifyLocked()
		return
	}
	if m.flushTimer == nil {
		m.flushTimer = time.AfterFunc(m.flushInterval, m.flushNow)
	}
}

func (m *StateMachine) flushNow() {
	m.mu.Lock()
	m.flushPendingLocked()
	m.notifyLocked()
	m.mu.Unlock()
}

func (m *StateMachine) flushPendingLocked() {
	if m.flushTimer != nil {
		m.flushTimer.Stop()
		m.flushTimer = nil
	}
	for agent, buf := range m.pending {
		if view := m.state.agentView(agent); view != nil {
			view.Text += buf.String()
		}
	}
	if len(m.pending) > 0 {
		m.pending = make(map[models.AgentName]*strings.Builder)
	}
}

func (m *StateMachine) notifyLocked() {
	if m.onChange != nil {
		m.onChange(m.state)
	}
}

func unmarshal(ev sse.Event, v interface{}) error {
	if err := json.Unmarshal(ev.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.Name, err)
	}
	return nil
}
