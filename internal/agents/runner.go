// internal/agents/runner.go

// Package agents implements the router, the five specialist agents, and
// the synthesis agent on top of the opaque LLM capability. Dispatch over
// the specialist domains is a closed, exhaustive switch rather than a
// runtime-keyed table.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/llm"
	"crisis-atlas/internal/models"
)

// SpecialistResult pairs a specialist's validated structured payload with
// its streamed narrative.
type SpecialistResult struct {
	Structured json.RawMessage
	Narrative  string
}

// SynthesisResult carries the synthesis agent's output before the score
// overwrite.
type SynthesisResult struct {
	Structured models.SynthesisOutput
	Narrative  string
}

type Runner struct {
	client llm.Client
	config *config.LLMConfig
	logger logger.Logger
}

func NewRunner(client llm.Client, cfg *config.LLMConfig, log logger.Logger) *Runner {
	return &Runner{
		client: client,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "agents"}),
	}
}

// RunRouter turns the free-text scenario into a RoutingDecision.
func (r *Runner) RunRouter(ctx context.Context, scenario string) (*models.RoutingDecision, error) {
	raw, err := r.client.GenerateObject(ctx, llm.ObjectRequest{
		Model:       r.config.RouterModel,
		System:      routerSystemPrompt,
		Prompt:      scenario,
		Schema:      routerSchema,
		Temperature: 0.2,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, fmt.Errorf("router invocation: %w", err)
	}

	var decision models.RoutingDecision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return nil, fmt.Errorf("decode routing decision: %w", err)
	}
	return &decision, nil
}

// RunSpecialist streams a domain specialist's narrative through onChunk
// and returns its schema-validated structured output. The switch over
// domains is exhaustive; an unknown domain is a programming defect.
func (r *Runner) RunSpecialist(
	ctx context.Context,
	domain models.AgentName,
	decision *models.RoutingDecision,
	newsContext string,
	onChunk func(string),
) (*SpecialistResult, error) {
	var system, schema string
	switch domain {
	case models.AgentGeopolitics:
		system, schema = geopoliticsSystemPrompt, geopoliticsSchema
	case models.AgentEconomy:
		system, schema = economySystemPrompt, economySchema
	case models.AgentFoodSupply:
		system, schema = foodSupplySystemPrompt, foodSupplySchema
	case models.AgentInfrastructure:
		system, schema = infrastructureSystemPrompt, infrastructureSchema
	case models.AgentCivilianImpact:
		system, schema = civilianImpactSystemPrompt, civilianImpactSchema
	default:
		return nil, fmt.Errorf("no specialist for agent %q", domain)
	}

	prompt := buildSpecialistPrompt(decision, newsContext)

	narrative, err := r.client.StreamText(ctx, llm.TextRequest{
		Model:       r.config.SpecialistModel,
		System:      system,
		Prompt:      prompt,
		Temperature: 0.4,
		MaxTokens:   r.config.MaxTokens,
	}, onChunk)
	if err != nil {
		return nil, fmt.Errorf("%s narrative: %w", domain, err)
	}

	structured, err := r.client.GenerateObject(ctx, llm.ObjectRequest{
		Model:       r.config.SpecialistModel,
		System:      system,
		Prompt:      prompt,
		Schema:      schema,
		Temperature: 0.3,
		MaxTokens:   r.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s structured output: %w", domain, err)
	}

	return &SpecialistResult{Structured: structured, Narrative: narrative}, nil
}

// RunSynthesis combines whatever specialist outputs completed into one
// cross-domain assessment. Absent slots render as null in the prompt;
// synthesis must tolerate partial input.
func (r *Runner) RunSynthesis(
	ctx context.Context,
	decision *models.RoutingDecision,
	results *models.SpecialistResults,
	onChunk func(string),
) (*SynthesisResult, error) {
	prompt := buildSynthesisPrompt(decision, results)

	narrative, err := r.client.StreamText(ctx, llm.TextRequest{
		Model:       r.config.SynthesisModel,
		System:      synthesisSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   r.config.MaxTokens,
	}, onChunk)
	if err != nil {
		return nil, fmt.Errorf("synthesis narrative: %w", err)
	}

	raw, err := r.client.GenerateObject(ctx, llm.ObjectRequest{
		Model:       r.config.SynthesisModel,
		System:      synthesisSystemPrompt,
		Prompt:      prompt,
		Schema:      synthesisSchema,
		Temperature: 0.3,
		MaxTokens:   r.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis structured output: %w", err)
	}

	var structured models.SynthesisOutput
	if err := json.Unmarshal(raw, &structured); err != nil {
		return nil, fmt.Errorf("decode synthesis output: %w", err)
	}

	return &SynthesisResult{Structured: structured, Narrative: narrative}, nil
}

// marshalSection renders one specialist output for the synthesis prompt.
func marshalSection(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(data)
}
