// internal/models/country.go
package models

// CountryRecord is the reference-data record served by the country-data
// endpoint: static economic, risk and displacement indicators keyed by
// ISO 3166-1 alpha-3 code.
type CountryRecord struct {
	ISO3      string              `json:"iso3"`
	Name      string              `json:"name"`
	Economics CountryEconomics    `json:"economics"`
	Risk      CountryRisk         `json:"risk"`
	Displaced CountryDisplacement `json:"displacement"`
}

type CountryEconomics struct {
	GDP                float64 `json:"gdp"`
	Population         int64   `json:"population"`
	PovertyRate        float64 `json:"poverty_rate"`
	ArableLandPct      float64 `json:"arable_land_pct"`
	EnergyUsePerCapita float64 `json:"energy_use_per_capita"`
	TradePctGDP        float64 `json:"trade_pct_gdp"`
}

type CountryRisk struct {
	RiskScore            float64 `json:"risk_score"`
	HazardExposure       float64 `json:"hazard_exposure"`
	Vulnerability        float64 `json:"vulnerability"`
	LackOfCopingCapacity float64 `json:"lack_of_coping_capacity"`
}

type CountryDisplacement struct {
	Refugees      int64 `json:"refugees"`
	AsylumSeekers int64 `json:"asylum_seekers"`
	IDPs          int64 `json:"idps"`
	Stateless     int64 `json:"stateless"`
}
