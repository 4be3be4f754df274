// internal/agents/prompts.go
package agents

import (
	"fmt"
	"strings"

	"crisis-atlas/internal/models"
)

const routerSystemPrompt = `You are the routing agent for a catastrophic risk analysis platform. Parse the
user's natural-language scenario into a structured event description that five
specialist agents will consume.

RESPONSIBILITIES:
1. Summarize the scenario in 1-2 precise sentences, removing ambiguity.
2. Identify affected countries as ISO 3166-1 alpha-3 codes. List at least 2
   primary (directly impacted) and 2 secondary (impacted via trade, alliances,
   or proximity) regions. Never invent codes.
3. Determine the geographic center point (lat/lon) and a map zoom level
   (1 = whole world, 5 = continent, 8 = country, 12 = city).
4. Classify the time horizon: immediate, weeks, months, or years.
5. Rate overall severity from 1 (minor disruption) to 10 (civilization-level threat).
6. Tag event categories from: geopolitical, climate, infrastructure, economic, health.
7. Generate 5 targeted news search queries, one per specialist domain, specific
   enough to return relevant results.

OUTPUT: Respond ONLY with valid JSON matching the provided schema. No markdown, no prose.`

const geopoliticsSystemPrompt = `You are the geopolitics specialist. Analyze how the scenario reshapes
international relations, alliances, and conflict dynamics. For each affected
country assess impact (1-10) and posture: allied, opposed, neutral, or
destabilized. Map conflict zones with coordinates [lon, lat], radius in km,
intensity (1-10), and type: active_conflict, tension, or diplomatic_crisis.
Ground the analysis in the provided news context; do not invent events.
The narrative is a 200-400 word briefing for a policy audience.
Respond ONLY with valid JSON matching the provided schema.`

const economySystemPrompt = `You are the economy specialist. Analyze macroeconomic and trade impacts of the
scenario. For each affected country estimate GDP impact percentage, trade
disruption (1-10), key sectors, and unemployment risk: low, medium, high, or
severe. Map disrupted trade routes as from/to [lon, lat] pairs with the
commodity and severity (1-10). Ground the analysis in the provided news
context. The narrative is a 200-400 word briefing.
Respond ONLY with valid JSON matching the provided schema.`

const foodSupplySystemPrompt = `You are the food supply specialist. Analyze food security impacts of the
scenario. For each affected country assess food security impact (1-10),
population at risk, primary threats, and whether it becomes a food desert.
Map supply chain disruptions as from/to [lon, lat] pairs with the product and
severity (1-10). Ground the analysis in the provided news context. The
narrative is a 200-400 word briefing.
Respond ONLY with valid JSON matching the provided schema.`

const infrastructureSystemPrompt = `You are the infrastructure specialist. Analyze impacts on power, water,
telecom, transport, and digital systems. For each affected country assess
infrastructure risk (1-10), systems at risk, and cascade risk (1-10). Map
outage zones with coordinates [lon, lat], radius in km, type, severity (1-10),
and population affected. Ground the analysis in the provided news context.
The narrative is a 200-400 word briefing.
Respond ONLY with valid JSON matching the provided schema.`

const civilianImpactSystemPrompt = `You are the civilian impact specialist. Analyze humanitarian consequences of
the scenario. For each affected country assess humanitarian score (1-10),
displaced population estimate, health risk (1-10), and vulnerable groups. Map
displacement flows as from/to [lon, lat] pairs with estimated people and
urgency: low, medium, high, or critical. Ground the analysis in the provided
news context. The narrative is a 200-400 word briefing.
Respond ONLY with valid JSON matching the provided schema.`

const synthesisSystemPrompt = `You are the synthesis agent. Combine the specialist analyses into one
cross-domain assessment: the cascading risk chain, the most affected
population, the most significant second-order effect, and a unified narrative.
Some specialist sections may be absent; work with what is provided.
Respond ONLY with valid JSON matching the provided schema.`

// buildSpecialistPrompt renders the routing decision plus news context
// into the shared specialist prompt shape.
func buildSpecialistPrompt(decision *models.RoutingDecision, newsContext string) string {
	var b strings.Builder

	if newsContext != "" {
		fmt.Fprintf(&b, "RECENT NEWS CONTEXT:\n%s\n\n", newsContext)
	}

	fmt.Fprintf(&b, "SCENARIO ANALYSIS REQUEST:\n\n")
	fmt.Fprintf(&b, "Scenario Summary: %s\n\n", decision.ScenarioSummary)
	fmt.Fprintf(&b, "Primary Affected Regions: %s\n", strings.Join(decision.PrimaryRegions, ", "))
	fmt.Fprintf(&b, "Secondary Affected Regions: %s\n\n", strings.Join(decision.SecondaryRegions, ", "))
	fmt.Fprintf(&b, "Coordinates: lat %g, lon %g\n", decision.Coordinates.Lat, decision.Coordinates.Lon)
	fmt.Fprintf(&b, "Zoom Level: %d\n", decision.ZoomLevel)
	fmt.Fprintf(&b, "Time Horizon: %s\n", decision.TimeHorizon)
	fmt.Fprintf(&b, "Severity: %d/10\n", decision.Severity)
	fmt.Fprintf(&b, "Event Categories: %s\n\n", joinCategories(decision.EventCategories))
	b.WriteString("Please provide your analysis in JSON format matching the schema.")

	return b.String()
}

// buildSynthesisPrompt lays out the routing decision and every available
// specialist output. Missing domains render as null so the model sees the
// gap explicitly.
func buildSynthesisPrompt(decision *models.RoutingDecision, results *models.SpecialistResults) string {
	var b strings.Builder

	b.WriteString("SYNTHESIS ANALYSIS REQUEST\n\n")
	b.WriteString("Original Scenario:\n")
	fmt.Fprintf(&b, "- Summary: %s\n", decision.ScenarioSummary)
	fmt.Fprintf(&b, "- Primary Regions: %s\n", strings.Join(decision.PrimaryRegions, ", "))
	fmt.Fprintf(&b, "- Secondary Regions: %s\n", strings.Join(decision.SecondaryRegions, ", "))
	fmt.Fprintf(&b, "- Time Horizon: %s\n", decision.TimeHorizon)
	fmt.Fprintf(&b, "- Severity: %d/10\n", decision.Severity)
	fmt.Fprintf(&b, "- Event Categories: %s\n", joinCategories(decision.EventCategories))

	fmt.Fprintf(&b, "\n=== GEOPOLITICS ANALYSIS ===\n%s\n", marshalSection(results.Geopolitics))
	fmt.Fprintf(&b, "\n=== ECONOMY ANALYSIS ===\n%s\n", marshalSection(results.Economy))
	fmt.Fprintf(&b, "\n=== FOOD SUPPLY ANALYSIS ===\n%s\n", marshalSection(results.FoodSupply))
	fmt.Fprintf(&b, "\n=== INFRASTRUCTURE ANALYSIS ===\n%s\n", marshalSection(results.Infrastructure))
	fmt.Fprintf(&b, "\n=== CIVILIAN IMPACT ANALYSIS ===\n%s\n", marshalSection(results.CivilianImpact))

	b.WriteString("\nProvide your unified synthesis in JSON format matching the schema.")
	return b.String()
}

func joinCategories(cats []models.EventCategory) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
