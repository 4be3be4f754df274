// internal/fallback/replay.go

// Package fallback replays pre-recorded golden-path analyses through the
// normal event protocol with artificial streaming delays. It serves the
// demo scenarios when live agent invocation is disabled or the router
// fails with fallback enabled.
package fallback

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/models"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Data is one recorded run: the routing decision, per-domain structured
// outputs, and the synthesis output, all kept raw so replay emits exactly
// what was recorded.
type Data struct {
	Scenario     string                               `json:"scenario"`
	Orchestrator json.RawMessage                      `json:"orchestrator"`
	AgentResults map[models.AgentName]json.RawMessage `json:"agentResults"`
	Synthesis    json.RawMessage                      `json:"synthesis"`
}

// Emitter matches the pipeline's event sink.
type Emitter interface {
	Send(name string, payload interface{}) error
}

const (
	defaultEventDelay = 100 * time.Millisecond
	defaultChunkDelay = 20 * time.Millisecond

	specialistChunkWords = 10
	synthesisChunkWords  = 8
)

// Replayer holds the loaded fixture set keyed by normalized scenario text.
type Replayer struct {
	scenarios  map[string]*Data
	delay      time.Duration
	chunkDelay time.Duration
	logger     logger.Logger
}

func NewReplayer(log logger.Logger) (*Replayer, error) {
	r := &Replayer{
		scenarios:  make(map[string]*Data),
		delay:      defaultEventDelay,
		chunkDelay: defaultChunkDelay,
		logger:     log.WithFields(map[string]interface{}{"component": "fallback"}),
	}

	entries, err := fs.Glob(fixtures, "fixtures/*.json")
	if err != nil {
		return nil, fmt.Errorf("list fallback fixtures: %w", err)
	}
	for _, path := range entries {
		raw, err := fixtures.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", path, err)
		}
		var data Data
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", path, err)
		}
		r.scenarios[normalize(data.Scenario)] = &data
	}
	return r, nil
}

// Match returns the recorded run for a scenario, comparing trimmed,
// lowercased text.
func (r *Replayer) Match(scenario string) (*Data, bool) {
	data, ok := r.scenarios[normalize(scenario)]
	return data, ok
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SetDelays overrides the inter-event and inter-chunk pacing.
func (r *Replayer) SetDelays(eventDelay, chunkDelay time.Duration) {
	if eventDelay > 0 {
		r.delay = eventDelay
	}
	if chunkDelay > 0 {
		r.chunkDelay = chunkDelay
	}
}

// Replay emits the recorded run as the standard event sequence. The
// narrative of each result streams as word-group chunks so consumers see
// the same protocol a live run produces. Cancellation stops the replay
// between events.
func (r *Replayer) Replay(ctx context.Context, data *Data, emit Emitter) error {
	r.logger.Info("replaying golden-path scenario", map[string]interface{}{"scenario": data.Scenario})

	emit.Send(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseOrchestrating,
		Message: "Analyzing scenario...",
	})
	if err := sleep(ctx, r.delay); err != nil {
		return err
	}
	emit.Send(models.EventOrchestrator, data.Orchestrator)
	if err := sleep(ctx, r.delay); err != nil {
		return err
	}

	emit.Send(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseAnalyzing,
		Message: "Running specialist agents...",
	})
	if err := sleep(ctx, r.delay); err != nil {
		return err
	}

	for _, domain := range models.SpecialistDomains() {
		structured, ok := data.AgentResults[domain]
		if !ok {
			continue
		}
		narrative := extractNarrative(structured)

		if err := r.streamChunks(ctx, narrative, specialistChunkWords, func(chunk string) {
			emit.Send(models.EventAgentChunk, models.AgentChunkPayload{Agent: domain, Chunk: chunk})
		}); err != nil {
			return err
		}

		emit.Send(models.EventAgentComplete, models.AgentCompletePayload{
			Agent:      domain,
			Structured: structured,
			Narrative:  narrative,
		})
		if err := sleep(ctx, r.delay); err != nil {
			return err
		}
	}

	emit.Send(models.EventStatus, models.StatusPayload{
		Status:  models.PhaseSynthesizing,
		Message: "Generating synthesis...",
	})
	if err := sleep(ctx, r.delay); err != nil {
		return err
	}

	synthesisNarrative := extractNarrative(data.Synthesis)
	if err := r.streamChunks(ctx, synthesisNarrative, synthesisChunkWords, func(chunk string) {
		emit.Send(models.EventSynthesisChunk, models.SynthesisChunkPayload{Chunk: chunk})
	}); err != nil {
		return err
	}

	emit.Send(models.EventAgentComplete, models.AgentCompletePayload{
		Agent:      models.AgentSynthesis,
		Structured: data.Synthesis,
		Narrative:  synthesisNarrative,
	})
	if err := sleep(ctx, r.delay); err != nil {
		return err
	}

	emit.Send(models.EventComplete, models.CompletePayload{
		CompoundRiskScore: extractScore(data.Synthesis),
	})
	return nil
}

func (r *Replayer) streamChunks(ctx context.Context, narrative string, wordsPerChunk int, send func(string)) error {
	if narrative == "" {
		return nil
	}
	words := strings.Split(narrative, " ")
	for i := 0; i < len(words); i += wordsPerChunk {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		send(strings.Join(words[i:end], " ") + " ")
		if err := sleep(ctx, r.chunkDelay); err != nil {
			return err
		}
	}
	return nil
}

func extractNarrative(structured json.RawMessage) string {
	var v struct {
		Narrative string `json:"narrative"`
	}
	if err := json.Unmarshal(structured, &v); err != nil {
		return ""
	}
	return v.Narrative
}

func extractScore(synthesis json.RawMessage) int {
	var v struct {
		Score int `json:"compound_risk_score"`
	}
	if err := json.Unmarshal(synthesis, &v); err != nil {
		return 0
	}
	return v.Score
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
