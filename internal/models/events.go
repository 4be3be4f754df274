// internal/models/events.go
package models

import "encoding/json"

// Event names on the wire. One pipeline run emits, in order: status,
// orchestrator, interleaved agent_chunk/agent_complete/error per
// specialist, status, synthesis_chunk*, agent_complete(synthesis),
// complete — or terminates early with a pipeline-fatal error.
const (
	EventStatus         = "status"
	EventOrchestrator   = "orchestrator"
	EventAgentChunk     = "agent_chunk"
	EventAgentComplete  = "agent_complete"
	EventSynthesisChunk = "synthesis_chunk"
	EventComplete       = "complete"
	EventError          = "error"
)

// Pipeline phases reported via status events.
const (
	PhaseOrchestrating = "orchestrating"
	PhaseAnalyzing     = "analyzing"
	PhaseSynthesizing  = "synthesizing"
)

type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AgentChunkPayload struct {
	Agent AgentName `json:"agent"`
	Chunk string    `json:"chunk"`
}

// AgentCompletePayload carries an agent's structured output. Structured
// stays raw at the codec layer; consumers unmarshal it into the variant
// selected by Agent.
type AgentCompletePayload struct {
	Agent      AgentName       `json:"agent"`
	Structured json.RawMessage `json:"structured"`
	Narrative  string          `json:"narrative,omitempty"`
}

type SynthesisChunkPayload struct {
	Chunk string `json:"chunk"`
}

type CompletePayload struct {
	CompoundRiskScore int `json:"compound_risk_score"`
}

// ErrorPayload with an empty Agent is pipeline-fatal; with Agent set it
// is scoped to that specialist and the run continues.
type ErrorPayload struct {
	Message string    `json:"message"`
	Agent   AgentName `json:"agent,omitempty"`
}
