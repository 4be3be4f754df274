// internal/models/analysis.go
package models

// Per-domain specialist outputs. Shapes mirror the agent JSON schemas in
// internal/agents; each variant carries affected countries with a 1-10
// severity field, domain-specific geographic records, and a narrative.

// --- Geopolitics ---

type GeopoliticsCountry struct {
	ISO3            string   `json:"iso3"`
	ImpactScore     int      `json:"impact_score"`
	Stance          string   `json:"stance"`
	KeyConcerns     []string `json:"key_concerns"`
	AllianceImpacts []string `json:"alliance_impacts"`
}

type ConflictZone struct {
	Coordinates [2]float64 `json:"coordinates"`
	RadiusKm    float64    `json:"radius_km"`
	Intensity   int        `json:"intensity"`
	Type        string     `json:"type"`
}

type GeopoliticsAnalysis struct {
	AffectedCountries []GeopoliticsCountry `json:"affected_countries"`
	ConflictZones     []ConflictZone       `json:"conflict_zones"`
	Narrative         string               `json:"narrative"`
}

// MaxSeverity returns the highest per-country impact score, 0 when empty.
func (a *GeopoliticsAnalysis) MaxSeverity() int {
	max := 0
	for _, c := range a.AffectedCountries {
		if c.ImpactScore > max {
			max = c.ImpactScore
		}
	}
	return max
}

// --- Economy ---

type EconomyCountry struct {
	ISO3             string   `json:"iso3"`
	GDPImpactPct     float64  `json:"gdp_impact_pct"`
	TradeDisruption  int      `json:"trade_disruption"`
	KeySectors       []string `json:"key_sectors"`
	UnemploymentRisk string   `json:"unemployment_risk"`
}

type TradeRoute struct {
	From      [2]float64 `json:"from"`
	To        [2]float64 `json:"to"`
	Commodity string     `json:"commodity"`
	Severity  int        `json:"severity"`
}

type EconomyAnalysis struct {
	AffectedCountries    []EconomyCountry `json:"affected_countries"`
	TradeRoutesDisrupted []TradeRoute     `json:"trade_routes_disrupted"`
	Narrative            string           `json:"narrative"`
}

func (a *EconomyAnalysis) MaxSeverity() int {
	max := 0
	for _, c := range a.AffectedCountries {
		if c.TradeDisruption > max {
			max = c.TradeDisruption
		}
	}
	return max
}

// --- Food supply ---

type FoodSupplyCountry struct {
	ISO3               string   `json:"iso3"`
	FoodSecurityImpact int      `json:"food_security_impact"`
	PopulationAtRisk   int64    `json:"population_at_risk"`
	PrimaryThreats     []string `json:"primary_threats"`
	IsFoodDesert       bool     `json:"is_food_desert"`
}

type SupplyChainDisruption struct {
	From     [2]float64 `json:"from"`
	To       [2]float64 `json:"to"`
	Product  string     `json:"product"`
	Severity int        `json:"severity"`
}

type FoodSupplyAnalysis struct {
	AffectedCountries      []FoodSupplyCountry     `json:"affected_countries"`
	SupplyChainDisruptions []SupplyChainDisruption `json:"supply_chain_disruptions"`
	Narrative              string                  `json:"narrative"`
}

func (a *FoodSupplyAnalysis) MaxSeverity() int {
	max := 0
	for _, c := range a.AffectedCountries {
		if c.FoodSecurityImpact > max {
			max = c.FoodSecurityImpact
		}
	}
	return max
}

// --- Infrastructure ---

type InfrastructureCountry struct {
	ISO3               string   `json:"iso3"`
	InfrastructureRisk int      `json:"infrastructure_risk"`
	SystemsAtRisk      []string `json:"systems_at_risk"`
	CascadeRisk        int      `json:"cascade_risk"`
}

type OutageZone struct {
	Coordinates        [2]float64 `json:"coordinates"`
	RadiusKm           float64    `json:"radius_km"`
	Type               string     `json:"type"`
	Severity           int        `json:"severity"`
	PopulationAffected int64      `json:"population_affected"`
}

type InfrastructureAnalysis struct {
	AffectedCountries []InfrastructureCountry `json:"affected_countries"`
	OutageZones       []OutageZone            `json:"outage_zones"`
	Narrative         string                  `json:"narrative"`
}

func (a *InfrastructureAnalysis) MaxSeverity() int {
	max := 0
	for _, c := range a.AffectedCountries {
		if c.InfrastructureRisk > max {
			max = c.InfrastructureRisk
		}
	}
	return max
}

// --- Civilian impact ---

type CivilianCountry struct {
	ISO3              string   `json:"iso3"`
	HumanitarianScore int      `json:"humanitarian_score"`
	DisplacedEstimate int64    `json:"displaced_estimate"`
	HealthRisk        int      `json:"health_risk"`
	VulnerableGroups  []string `json:"vulnerable_groups"`
}

type DisplacementFlow struct {
	From            [2]float64 `json:"from"`
	To              [2]float64 `json:"to"`
	EstimatedPeople int64      `json:"estimated_people"`
	Urgency         string     `json:"urgency"`
}

type CivilianImpactAnalysis struct {
	AffectedCountries []CivilianCountry  `json:"affected_countries"`
	DisplacementFlows []DisplacementFlow `json:"displacement_flows"`
	Narrative         string             `json:"narrative"`
}

func (a *CivilianImpactAnalysis) MaxSeverity() int {
	max := 0
	for _, c := range a.AffectedCountries {
		if c.HumanitarianScore > max {
			max = c.HumanitarianScore
		}
	}
	return max
}

// --- Synthesis ---

// SynthesisOutput is the final cross-domain assessment. CompoundRiskScore
// is never trusted from the agent invocation; the pipeline overwrites it
// with the deterministic scoring engine result before it is surfaced.
type SynthesisOutput struct {
	CascadingRiskChain     string `json:"cascading_risk_chain"`
	MostAffectedPopulation string `json:"most_affected_population"`
	SecondOrderEffect      string `json:"second_order_effect"`
	CompoundRiskScore      int    `json:"compound_risk_score"`
	Narrative              string `json:"narrative"`
}

// SpecialistResults holds one optional slot per domain. A nil slot means
// that specialist failed or timed out; synthesis and scoring treat a nil
// slot as zero severity.
type SpecialistResults struct {
	Geopolitics    *GeopoliticsAnalysis
	Economy        *EconomyAnalysis
	FoodSupply     *FoodSupplyAnalysis
	Infrastructure *InfrastructureAnalysis
	CivilianImpact *CivilianImpactAnalysis
}

// Severities extracts the per-domain max severities in canonical order
// (geopolitics, economy, food, infrastructure, civilian). Nil slots
// contribute 0.
func (r *SpecialistResults) Severities() [5]int {
	var s [5]int
	if r.Geopolitics != nil {
		s[0] = r.Geopolitics.MaxSeverity()
	}
	if r.Economy != nil {
		s[1] = r.Economy.MaxSeverity()
	}
	if r.FoodSupply != nil {
		s[2] = r.FoodSupply.MaxSeverity()
	}
	if r.Infrastructure != nil {
		s[3] = r.Infrastructure.MaxSeverity()
	}
	if r.CivilianImpact != nil {
		s[4] = r.CivilianImpact.MaxSeverity()
	}
	return s
}
