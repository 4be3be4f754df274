// Package errors provides standardized error handling for the analysis
// pipeline and its external collaborators.
package errors

import (
	"errors"
	"fmt"
	"time"

	"crisis-atlas/internal/models"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidScenario ErrorCode = "INVALID_SCENARIO"

	ErrCodeRouterFailed    ErrorCode = "ROUTER_FAILED"
	ErrCodeRouterTimeout   ErrorCode = "ROUTER_TIMEOUT"
	ErrCodeAgentFailed     ErrorCode = "AGENT_FAILED"
	ErrCodeAgentTimeout    ErrorCode = "AGENT_TIMEOUT"
	ErrCodeSynthesisFailed ErrorCode = "SYNTHESIS_FAILED"

	ErrCodeContextFetchFailed ErrorCode = "CONTEXT_FETCH_FAILED"
	ErrCodeLLMRequestFailed   ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMBadOutput       ErrorCode = "LLM_BAD_OUTPUT"

	ErrCodeUnknownCategory  ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodeCountryNotFound  ErrorCode = "COUNTRY_NOT_FOUND"
	ErrCodeDatabaseFailed   ErrorCode = "DATABASE_FAILED"
	ErrCodeConfigIncomplete ErrorCode = "CONFIG_INCOMPLETE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Agent     models.AgentName       `json:"agent,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsPipelineFatal reports whether the error terminates the whole run.
// Agent-scoped errors (Agent set) never escalate.
func (e *StandardError) IsPipelineFatal() bool {
	return e.Agent == ""
}

// New creates a StandardError with the given code and message.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentError creates an error scoped to a single specialist.
func NewAgentError(code ErrorCode, agent models.AgentName, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Agent:     agent,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidScenarioError rejects a malformed scenario before the
// pipeline starts.
func NewInvalidScenarioError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidScenario,
		Message:   "Scenario must be a non-empty string of at most 500 characters",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRouterFailedError is pipeline-fatal: no specialists run after it.
func NewRouterFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRouterFailed,
		Message:   "Routing agent failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentTimeoutError marks one specialist as timed out; the run continues.
func NewAgentTimeoutError(agent models.AgentName, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentTimeout,
		Message:   fmt.Sprintf("Agent timed out after %s", timeout),
		Agent:     agent,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisFailedError is pipeline-fatal; there is no recovery path
// once synthesis fails.
func NewSynthesisFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisFailed,
		Message:   "Synthesis agent failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard extracts a *StandardError from an error chain, wrapping
// unknown errors under the given code.
func AsStandard(err error, code ErrorCode) *StandardError {
	var std *StandardError
	if errors.As(err, &std) {
		return std
	}
	return New(code, err.Error())
}
