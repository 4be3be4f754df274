// internal/models/agents.go
package models

import "fmt"

// AgentName identifies one analysis agent. The five specialist domains
// form a closed set; "synthesis" is the cross-domain aggregation agent
// and never appears in the specialist result record.
type AgentName string

const (
	AgentGeopolitics    AgentName = "geopolitics"
	AgentEconomy        AgentName = "economy"
	AgentFoodSupply     AgentName = "food_supply"
	AgentInfrastructure AgentName = "infrastructure"
	AgentCivilianImpact AgentName = "civilian_impact"
	AgentSynthesis      AgentName = "synthesis"
)

// SpecialistDomains returns the five specialist domains in canonical order.
// The order matches the weight-vector layout used by the scoring engine.
func SpecialistDomains() [5]AgentName {
	return [5]AgentName{
		AgentGeopolitics,
		AgentEconomy,
		AgentFoodSupply,
		AgentInfrastructure,
		AgentCivilianImpact,
	}
}

// ParseAgentName validates a wire-level agent name.
func ParseAgentName(s string) (AgentName, error) {
	switch AgentName(s) {
	case AgentGeopolitics, AgentEconomy, AgentFoodSupply,
		AgentInfrastructure, AgentCivilianImpact, AgentSynthesis:
		return AgentName(s), nil
	}
	return "", fmt.Errorf("unknown agent name %q", s)
}

// IsSpecialist reports whether the name is one of the five parallel domains.
func (a AgentName) IsSpecialist() bool {
	return a != AgentSynthesis && a != ""
}

// AgentStatus tracks an agent's lifecycle on the consumer side.
type AgentStatus string

const (
	StatusIdle      AgentStatus = "idle"
	StatusStreaming AgentStatus = "streaming"
	StatusComplete  AgentStatus = "complete"
	StatusError     AgentStatus = "error"
)
