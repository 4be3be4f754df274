// internal/pipeline/orchestrator.go

// Package pipeline drives one scenario through the multi-agent analysis:
// router, five parallel specialists, synthesis, deterministic scoring.
// It emits a single ordered event stream and always reaches a terminal
// event, either complete or a pipeline-fatal error.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"crisis-atlas/internal/agents"
	"crisis-atlas/internal/common/config"
	apperrors "crisis-atlas/internal/common/errors"
	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/common/metrics"
	"crisis-atlas/internal/common/observability"
	"crisis-atlas/internal/models"
	"crisis-atlas/internal/riskscore"
)

// Emitter receives encoded pipeline events. *sse.Encoder satisfies it;
// implementations must be safe for concurrent use because specialist
// tasks emit chunks in parallel.
type Emitter interface {
	Send(name string, payload interface{}) error
}

// ContextProvider fetches a news-context snippet for a query. It never
// fails: degraded lookups return a sentinel string.
type ContextProvider interface {
	Fetch(ctx context.Context, query string) string
}

// AgentRunner is the invocation contract the orchestrator drives.
type AgentRunner interface {
	RunRouter(ctx context.Context, scenario string) (*models.RoutingDecision, error)
	RunSpecialist(ctx context.Context, domain models.AgentName, decision *models.RoutingDecision,
		newsContext string, onChunk func(string)) (*agents.SpecialistResult, error)
	RunSynthesis(ctx context.Context, decision *models.RoutingDecision,
		results *models.SpecialistResults, onChunk func(string)) (*agents.SynthesisResult, error)
}

// ValidateScenario rejects malformed input before any pipeline work
// starts; a rejected scenario never enters the event stream.
func ValidateScenario(scenario string) error {
	if scenario == "" {
		return apperrors.NewInvalidScenarioError("scenario is empty")
	}
	// Bound is in characters, not bytes; non-ASCII scenarios count runes.
	if n := utf8.RuneCountInString(scenario); n > 500 {
		return apperrors.NewInvalidScenarioError(fmt.Sprintf("scenario is %d characters", n))
	}
	return nil
}

type Orchestrator struct {
	agents   AgentRunner
	contexts ContextProvider
	config   *config.PipelineConfig
	obs      *observability.Observability
	logger   logger.Logger
}

func New(runner AgentRunner, contexts ContextProvider, cfg *config.PipelineConfig,
	obs *observability.Observability, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		agents:   runner,
		contexts: contexts,
		config:   cfg,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Run executes the full pipeline for one validated scenario. The emitted
// stream always terminates with either a complete event or one
// pipeline-fatal error event; the returned error mirrors the fatal case
// for the caller's logs.
func (o *Orchestrator) Run(ctx context.Context, scenario string, emit Emitter) (err error) {
	runID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{"runId": runID})
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			log.Error("pipeline panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			emit.Send(models.EventError, models.ErrorPayload{Message: "internal pipeline failure"})
		}
		outcome := "complete"
		if err != nil {
			outcome = "error"
		}
		metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()
		if o.obs != nil {
			o.obs.RecordRun(ctx, outcome)
			o.obs.RecordRunDuration(ctx, time.Since(started), outcome)
		}
	}()

	log.Info("starting analysis run", map[string]interface{}{"scenarioLength": len(scenario)})

	// Step 1: routing. Failure here is pipeline-fatal and nothing else runs.
	emit.Send(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseOrchestrating,
		Message: "Analyzing scenario...",
	})

	decision, err := o.route(ctx, scenario)
	if err != nil {
		log.WithError(err).Error("routing failed", nil)
		emit.Send(models.EventError, models.ErrorPayload{Message: routerErrorMessage(err)})
		return err
	}
	emit.Send(models.EventOrchestrator, decision)

	emit.Send(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseAnalyzing,
		Message: "Running specialist agents...",
	})

	// Step 2: context enrichment, all five domains concurrently. Fetch
	// failures were already absorbed into the sentinel downstream.
	newsContext := o.fetchContexts(ctx, decision)

	// Step 3: parallel specialists with isolated failures.
	results := o.runSpecialists(ctx, log, decision, newsContext, emit)

	// Step 4: synthesis over whatever completed, then the deterministic
	// score overwrite.
	emit.Send(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseSynthesizing,
		Message: "Generating synthesis...",
	})

	synthCtx, endSpan := o.startSpan(ctx, "synthesis")
	synthesis, err := o.agents.RunSynthesis(synthCtx, decision, results, func(chunk string) {
		emit.Send(models.EventSynthesisChunk, models.SynthesisChunkPayload{Chunk: chunk})
	})
	endSpan()
	if err != nil {
		log.WithError(err).Error("synthesis failed", nil)
		metrics.AgentFailuresTotal.WithLabelValues(string(models.AgentSynthesis), string(apperrors.ErrCodeSynthesisFailed)).Inc()
		emit.Send(models.EventError, models.ErrorPayload{Message: "Synthesis failed: " + err.Error()})
		return err
	}

	score, err := riskscore.Compute(results.Severities(), decision.EventCategories)
	if err != nil {
		// Categories come from a closed enum upstream, so this is a
		// programming defect rather than a user-facing path.
		log.WithError(err).Error("scoring failed", nil)
		emit.Send(models.EventError, models.ErrorPayload{Message: "Scoring failed: " + err.Error()})
		return err
	}
	synthesis.Structured.CompoundRiskScore = score
	metrics.CompoundRiskScore.Observe(float64(score))

	emitAgentComplete(emit, models.AgentSynthesis, synthesis.Structured, synthesis.Narrative)

	// Step 5: terminal event.
	emit.Send(models.EventComplete, models.CompletePayload{CompoundRiskScore: score})

	log.Info("analysis run complete", map[string]interface{}{
		"compoundRiskScore": score,
		"durationMs":        time.Since(started).Milliseconds(),
	})
	return nil
}

func (o *Orchestrator) route(ctx context.Context, scenario string) (*models.RoutingDecision, error) {
	routeCtx, cancel := context.WithTimeout(ctx, config.GetDuration(o.config.RouterTimeout))
	defer cancel()

	spanCtx, endSpan := o.startSpan(routeCtx, "router")
	defer endSpan()

	return o.agents.RunRouter(spanCtx, scenario)
}

// fetchContexts launches all five domain lookups concurrently and
// collects their snippets into a fixed record keyed by domain order.
func (o *Orchestrator) fetchContexts(ctx context.Context, decision *models.RoutingDecision) map[models.AgentName]string {
	domains := models.SpecialistDomains()
	snippets := make([]string, len(domains))

	g, gctx := errgroup.WithContext(ctx)
	for i, domain := range domains {
		g.Go(func() error {
			snippets[i] = o.contexts.Fetch(gctx, decision.ContextQueries.ForDomain(domain))
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[models.AgentName]string, len(domains))
	for i, domain := range domains {
		out[domain] = snippets[i]
	}
	return out
}

// runSpecialists fans out the five domain agents and waits for all of
// them to settle. A specialist's failure or timeout emits one
// agent-scoped error event and leaves its result slot nil; it never
// cancels the other four.
func (o *Orchestrator) runSpecialists(
	ctx context.Context,
	log logger.Logger,
	decision *models.RoutingDecision,
	newsContext map[models.AgentName]string,
	emit Emitter,
) *models.SpecialistResults {
	results := &models.SpecialistResults{}
	var mu sync.Mutex

	timeout := config.GetDuration(o.config.AgentTimeout)

	var wg sync.WaitGroup
	for _, domain := range models.SpecialistDomains() {
		wg.Add(1)
		go func() {
			defer wg.Done()

			agentCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			spanCtx, endSpan := o.startSpan(agentCtx, "specialist",
				attribute.String("agent", string(domain)))
			defer endSpan()

			agentStart := time.Now()
			result, err := o.agents.RunSpecialist(spanCtx, domain, decision, newsContext[domain], func(chunk string) {
				emit.Send(models.EventAgentChunk, models.AgentChunkPayload{Agent: domain, Chunk: chunk})
			})
			metrics.AgentDuration.WithLabelValues(string(domain)).Observe(time.Since(agentStart).Seconds())

			if err != nil {
				code := apperrors.ErrCodeAgentFailed
				msg := err.Error()
				if agentCtx.Err() == context.DeadlineExceeded {
					code = apperrors.ErrCodeAgentTimeout
					msg = fmt.Sprintf("Agent timed out after %s", timeout)
				}
				log.WithError(err).Warn("specialist failed", map[string]interface{}{"agent": domain})
				metrics.AgentFailuresTotal.WithLabelValues(string(domain), string(code)).Inc()
				emit.Send(models.EventError, models.ErrorPayload{Message: msg, Agent: domain})
				return
			}

			mu.Lock()
			assignErr := results.Assign(domain, result.Structured)
			mu.Unlock()
			if assignErr != nil {
				log.WithError(assignErr).Warn("specialist output rejected", map[string]interface{}{"agent": domain})
				metrics.AgentFailuresTotal.WithLabelValues(string(domain), string(apperrors.ErrCodeLLMBadOutput)).Inc()
				emit.Send(models.EventError, models.ErrorPayload{Message: assignErr.Error(), Agent: domain})
				return
			}

			emit.Send(models.EventAgentComplete, models.AgentCompletePayload{
				Agent:      domain,
				Structured: result.Structured,
				Narrative:  result.Narrative,
			})
		}()
	}
	wg.Wait()

	return results
}

// startSpan tolerates a nil observability layer so tests can run the
// orchestrator without wiring tracing.
func (o *Orchestrator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if o.obs == nil {
		return ctx, func() {}
	}
	spanCtx, span := o.obs.StartSpan(ctx, name, attrs...)
	return spanCtx, func() { span.End() }
}

func emitAgentComplete(emit Emitter, agent models.AgentName, structured interface{}, narrative string) {
	raw, err := json.Marshal(structured)
	if err != nil {
		raw = json.RawMessage("null")
	}
	emit.Send(models.EventAgentComplete, models.AgentCompletePayload{
		Agent:      agent,
		Structured: raw,
		Narrative:  narrative,
	})
}

func routerErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Routing agent timed out"
	}
	return "Routing failed: " + err.Error()
}
