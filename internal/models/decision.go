// internal/models/decision.go
package models

import "fmt"

// TimeHorizon is the router's estimate of when impacts materialize.
type TimeHorizon string

const (
	HorizonImmediate TimeHorizon = "immediate"
	HorizonWeeks     TimeHorizon = "weeks"
	HorizonMonths    TimeHorizon = "months"
	HorizonYears     TimeHorizon = "years"
)

// EventCategory classifies the scenario for weight selection in scoring.
type EventCategory string

const (
	CategoryGeopolitical   EventCategory = "geopolitical"
	CategoryClimate        EventCategory = "climate"
	CategoryInfrastructure EventCategory = "infrastructure"
	CategoryEconomic       EventCategory = "economic"
	CategoryHealth         EventCategory = "health"
)

// ParseEventCategory validates a category string coming off the wire.
func ParseEventCategory(s string) (EventCategory, error) {
	switch EventCategory(s) {
	case CategoryGeopolitical, CategoryClimate, CategoryInfrastructure,
		CategoryEconomic, CategoryHealth:
		return EventCategory(s), nil
	}
	return "", fmt.Errorf("unknown event category %q", s)
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ContextQueries carries one free-text news query per specialist domain.
type ContextQueries struct {
	Geopolitics    string `json:"geopolitics"`
	Economy        string `json:"economy"`
	Food           string `json:"food"`
	Infrastructure string `json:"infrastructure"`
	Civilian       string `json:"civilian"`
}

// ForDomain returns the query string for a specialist domain.
func (q ContextQueries) ForDomain(domain AgentName) string {
	switch domain {
	case AgentGeopolitics:
		return q.Geopolitics
	case AgentEconomy:
		return q.Economy
	case AgentFoodSupply:
		return q.Food
	case AgentInfrastructure:
		return q.Infrastructure
	case AgentCivilianImpact:
		return q.Civilian
	}
	return ""
}

// RoutingDecision is the router agent's structured output. It is created
// once per run and read by every downstream component.
type RoutingDecision struct {
	ScenarioSummary  string          `json:"scenario_summary"`
	PrimaryRegions   []string        `json:"primary_regions"`
	SecondaryRegions []string        `json:"secondary_regions"`
	Coordinates      Coordinates     `json:"coordinates"`
	ZoomLevel        int             `json:"zoom_level"`
	TimeHorizon      TimeHorizon     `json:"time_horizon"`
	Severity         int             `json:"severity"`
	EventCategories  []EventCategory `json:"event_categories"`
	ContextQueries   ContextQueries  `json:"context_queries"`
}
