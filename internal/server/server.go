// internal/server/server.go

// Package server exposes the HTTP surface: scenario submission as a
// server-sent event stream, country reference data, health, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/countrydata"
	"crisis-atlas/internal/fallback"
	"crisis-atlas/internal/models"
	"crisis-atlas/internal/pipeline"
	"crisis-atlas/internal/sse"
)

// PipelineRunner drives one live analysis run onto an event sink.
type PipelineRunner interface {
	Run(ctx context.Context, scenario string, emit pipeline.Emitter) error
}

// CountryStore serves static country reference records.
type CountryStore interface {
	Get(ctx context.Context, iso3 string) (*models.CountryRecord, error)
	GetMany(ctx context.Context, codes []string) ([]models.CountryRecord, error)
}

type Server struct {
	runner    PipelineRunner
	replayer  *fallback.Replayer
	countries CountryStore
	config    *config.Config
	logger    logger.Logger
}

// New assembles the handler set. The replayer and country store may be
// nil when the deployment does not carry them.
func New(runner PipelineRunner, replayer *fallback.Replayer, countries CountryStore,
	cfg *config.Config, log logger.Logger) *Server {
	return &Server{
		runner:    runner,
		replayer:  replayer,
		countries: countries,
		config:    cfg,
		logger:    log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Routes returns the full route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/country-data", s.handleCountryData)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type analyzeRequest struct {
	Scenario string `json:"scenario"`
}

// handleAnalyze validates the scenario and streams the run. Validation
// failures are plain 400 responses; they never enter the event stream.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := pipeline.ValidateScenario(req.Scenario); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	encoder := sse.NewEncoder(w)

	// Golden-path scenarios replay a recorded run when fallback mode is
	// on, so demo deployments work without live model access.
	if s.config.Fallback.Enabled && s.replayer != nil {
		if data, ok := s.replayer.Match(req.Scenario); ok {
			if err := s.replayer.Replay(r.Context(), data, encoder); err != nil {
				s.logger.WithError(err).Warn("fallback replay aborted", nil)
			}
			return
		}
	}

	if err := s.runner.Run(r.Context(), req.Scenario, encoder); err != nil {
		// The stream already carries the fatal error event.
		s.logger.WithError(err).Error("analysis run failed", nil)
	}
}

func (s *Server) handleCountryData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.countries == nil {
		writeError(w, http.StatusServiceUnavailable, "country data unavailable")
		return
	}

	iso3 := strings.TrimSpace(r.URL.Query().Get("iso3"))

	// A comma-separated list resolves as a batch; misses and malformed
	// codes are skipped, so clients can pass a routing decision's region
	// lists verbatim.
	if strings.Contains(iso3, ",") {
		records, err := s.countries.GetMany(r.Context(), strings.Split(iso3, ","))
		if err != nil {
			s.logger.WithError(err).Error("country batch lookup failed", map[string]interface{}{"iso3": iso3})
			writeError(w, http.StatusInternalServerError, "country lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	if len(iso3) != 3 {
		writeError(w, http.StatusBadRequest, "iso3 query parameter must be a 3-letter country code")
		return
	}

	record, err := s.countries.Get(r.Context(), iso3)
	if err != nil {
		if errors.Is(err, countrydata.ErrNotFound) {
			writeError(w, http.StatusNotFound, "country not found")
			return
		}
		s.logger.WithError(err).Error("country lookup failed", map[string]interface{}{"iso3": iso3})
		writeError(w, http.StatusInternalServerError, "country lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.App.Name,
		"version": s.config.App.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
