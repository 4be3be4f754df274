// internal/models/results.go
package models

import (
	"encoding/json"
	"fmt"
)

// Assign unmarshals a specialist's structured payload into the slot for
// its domain. The switch is exhaustive over the five specialist domains;
// synthesis never lands in this record.
func (r *SpecialistResults) Assign(domain AgentName, raw json.RawMessage) error {
	switch domain {
	case AgentGeopolitics:
		var out GeopoliticsAnalysis
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode %s output: %w", domain, err)
		}
		r.Geopolitics = &out
	case AgentEconomy:
		var out EconomyAnalysis
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode %s output: %w", domain, err)
		}
		r.Economy = &out
	case AgentFoodSupply:
		var out FoodSupplyAnalysis
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode %s output: %w", domain, err)
		}
		r.FoodSupply = &out
	case AgentInfrastructure:
		var out InfrastructureAnalysis
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode %s output: %w", domain, err)
		}
		r.Infrastructure = &out
	case AgentCivilianImpact:
		var out CivilianImpactAnalysis
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode %s output: %w", domain, err)
		}
		r.CivilianImpact = &out
	default:
		return fmt.Errorf("no result slot for agent %q", domain)
	}
	return nil
}
