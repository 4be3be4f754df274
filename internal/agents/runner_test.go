// internal/agents/runner_test.go
package agents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/llm"
	"crisis-atlas/internal/models"
)

type fakeClient struct {
	generateObject func(ctx context.Context, req llm.ObjectRequest) (json.RawMessage, error)
	streamText     func(ctx context.Context, req llm.TextRequest, onDelta func(string)) (string, error)
}

func (f *fakeClient) GenerateObject(ctx context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
	return f.generateObject(ctx, req)
}

func (f *fakeClient) StreamText(ctx context.Context, req llm.TextRequest, onDelta func(string)) (string, error) {
	return f.streamText(ctx, req, onDelta)
}

func testLLMConfig() *config.LLMConfig {
	return &config.LLMConfig{
		RouterModel:     "router-model",
		SpecialistModel: "specialist-model",
		SynthesisModel:  "synthesis-model",
		MaxTokens:       2000,
	}
}

func suezDecision() *models.RoutingDecision {
	return &models.RoutingDecision{
		ScenarioSummary:  "Container ship grounding closes the Suez Canal to all traffic.",
		PrimaryRegions:   []string{"EGY", "SAU"},
		SecondaryRegions: []string{"DEU", "CHN"},
		Coordinates:      models.Coordinates{Lat: 30.46, Lon: 32.35},
		ZoomLevel:        6,
		TimeHorizon:      models.HorizonWeeks,
		Severity:         7,
		EventCategories:  []models.EventCategory{models.CategoryGeopolitical, models.CategoryEconomic},
	}
}

func TestRunRouterDecodesDecision(t *testing.T) {
	var captured llm.ObjectRequest
	client := &fakeClient{
		generateObject: func(_ context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
			captured = req
			return json.RawMessage(`{
				"scenario_summary": "Suez Canal closed by grounding.",
				"primary_regions": ["EGY", "SAU"],
				"secondary_regions": ["DEU", "CHN"],
				"coordinates": {"lat": 30.46, "lon": 32.35},
				"zoom_level": 6,
				"time_horizon": "weeks",
				"severity": 7,
				"event_categories": ["geopolitical", "economic"],
				"context_queries": {
					"geopolitics": "suez canal diplomacy",
					"economy": "suez canal shipping rates",
					"food": "suez canal grain shipments",
					"infrastructure": "suez canal port congestion",
					"civilian": "suez canal humanitarian"
				}
			}`), nil
		},
	}
	runner := NewRunner(client, testLLMConfig(), logger.NewNop())

	decision, err := runner.RunRouter(context.Background(), "Suez Canal blocked")
	require.NoError(t, err)

	assert.Equal(t, "router-model", captured.Model)
	assert.Equal(t, routerSystemPrompt, captured.System)
	assert.Equal(t, "Suez Canal blocked", captured.Prompt)
	assert.NotEmpty(t, captured.Schema)

	assert.Equal(t, []string{"EGY", "SAU"}, decision.PrimaryRegions)
	assert.Equal(t, models.HorizonWeeks, decision.TimeHorizon)
	assert.Equal(t, 7, decision.Severity)
	assert.Equal(t, "suez canal grain shipments", decision.ContextQueries.ForDomain(models.AgentFoodSupply))
}

func TestRunRouterPropagatesError(t *testing.T) {
	client := &fakeClient{
		generateObject: func(context.Context, llm.ObjectRequest) (json.RawMessage, error) {
			return nil, llm.ErrTimeout
		},
	}
	runner := NewRunner(client, testLLMConfig(), logger.NewNop())

	_, err := runner.RunRouter(context.Background(), "Suez Canal blocked")
	require.ErrorIs(t, err, llm.ErrTimeout)
}

func TestRunSpecialistStreamsBeforeStructured(t *testing.T) {
	var calls []string
	client := &fakeClient{
		streamText: func(_ context.Context, req llm.TextRequest, onDelta func(string)) (string, error) {
			calls = append(calls, "stream")
			assert.Equal(t, "specialist-model", req.Model)
			assert.Equal(t, economySystemPrompt, req.System)
			assert.Contains(t, req.Prompt, "RECENT NEWS CONTEXT:")
			assert.Contains(t, req.Prompt, "Primary Affected Regions: EGY, SAU")
			onDelta("Trade flows ")
			onDelta("reroute around the Cape.")
			return "Trade flows reroute around the Cape.", nil
		},
		generateObject: func(_ context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
			calls = append(calls, "object")
			assert.Equal(t, economySystemPrompt, req.System)
			assert.Equal(t, economySchema, req.Schema)
			return json.RawMessage(`{"affected_countries":[],"trade_routes_disrupted":[],"narrative":"x"}`), nil
		},
	}
	runner := NewRunner(client, testLLMConfig(), logger.NewNop())

	var chunks []string
	result, err := runner.RunSpecialist(context.Background(), models.AgentEconomy, suezDecision(),
		"- Headline about shipping", func(chunk string) { chunks = append(chunks, chunk) })
	require.NoError(t, err)

	assert.Equal(t, []string{"stream", "object"}, calls)
	assert.Equal(t, []string{"Trade flows ", "reroute around the Cape."}, chunks)
	assert.Equal(t, "Trade flows reroute around the Cape.", result.Narrative)
	assert.JSONEq(t, `{"affected_countries":[],"trade_routes_disrupted":[],"narrative":"x"}`,
		string(result.Structured))
}

func TestRunSpecialistSchemaPerDomain(t *testing.T) {
	expected := map[models.AgentName]string{
		models.AgentGeopolitics:    geopoliticsSchema,
		models.AgentEconomy:        economySchema,
		models.AgentFoodSupply:     foodSupplySchema,
		models.AgentInfrastructure: infrastructureSchema,
		models.AgentCivilianImpact: civilianImpactSchema,
	}

	for domain, schema := range expected {
		client := &fakeClient{
			streamText: func(context.Context, llm.TextRequest, func(string)) (string, error) {
				return "narrative", nil
			},
			generateObject: func(_ context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
				assert.Equal(t, schema, req.Schema, domain)
				return json.RawMessage(`{}`), nil
			},
		}
		runner := NewRunner(client, testLLMConfig(), logger.NewNop())

		_, err := runner.RunSpecialist(context.Background(), domain, suezDecision(), "", func(string) {})
		require.NoError(t, err, domain)
	}
}

func TestRunSpecialistRejectsNonSpecialistAgent(t *testing.T) {
	runner := NewRunner(&fakeClient{}, testLLMConfig(), logger.NewNop())

	_, err := runner.RunSpecialist(context.Background(), models.AgentSynthesis, suezDecision(), "", func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no specialist")
}

func TestRunSpecialistStructuredFailure(t *testing.T) {
	client := &fakeClient{
		streamText: func(context.Context, llm.TextRequest, func(string)) (string, error) {
			return "narrative", nil
		},
		generateObject: func(context.Context, llm.ObjectRequest) (json.RawMessage, error) {
			return nil, errors.New("schema mismatch")
		},
	}
	runner := NewRunner(client, testLLMConfig(), logger.NewNop())

	_, err := runner.RunSpecialist(context.Background(), models.AgentFoodSupply, suezDecision(), "", func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(models.AgentFoodSupply))
}

func TestRunSynthesisRendersMissingDomainsAsNull(t *testing.T) {
	results := &models.SpecialistResults{
		Economy: &models.EconomyAnalysis{
			AffectedCountries: []models.EconomyCountry{{ISO3: "EGY", TradeDisruption: 9}},
			Narrative:         "Canal fees lost.",
		},
	}

	client := &fakeClient{
		streamText: func(_ context.Context, req llm.TextRequest, onDelta func(string)) (string, error) {
			assert.Equal(t, "synthesis-model", req.Model)
			assert.Contains(t, req.Prompt, "=== ECONOMY ANALYSIS ===")
			assert.Contains(t, req.Prompt, "Canal fees lost.")
			assert.Contains(t, req.Prompt, "=== GEOPOLITICS ANALYSIS ===\nnull")
			onDelta("Unified view.")
			return "Unified view.", nil
		},
		generateObject: func(_ context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
			assert.Equal(t, synthesisSchema, req.Schema)
			return json.RawMessage(`{
				"cascading_risk_chain": "closure -> reroute -> inflation",
				"most_affected_population": "Egyptian port workers",
				"second_order_effect": "European energy prices rise",
				"compound_risk_score": 55,
				"narrative": "Unified view."
			}`), nil
		},
	}
	runner := NewRunner(client, testLLMConfig(), logger.NewNop())

	var chunks []string
	result, err := runner.RunSynthesis(context.Background(), suezDecision(), results,
		func(chunk string) { chunks = append(chunks, chunk) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Unified view."}, chunks)
	assert.Equal(t, "Unified view.", result.Narrative)
	assert.Equal(t, 55, result.Structured.CompoundRiskScore)
	assert.Equal(t, "Egyptian port workers", result.Structured.MostAffectedPopulation)
}

func TestRunSynthesisStreamFailure(t *testing.T) {
	client := &fakeClient{
		streamText: func(context.Context, llm.TextRequest, func(string)) (string, error) {
			return "", llm.ErrRequestFailed
		},
	}
	runner := NewRunner(client, testLLMConfig(), logger.NewNop())

	_, err := runner.RunSynthesis(context.Background(), suezDecision(), &models.SpecialistResults{}, func(string) {})
	require.ErrorIs(t, err, llm.ErrRequestFailed)
}
