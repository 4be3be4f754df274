// internal/agents/schemas.go
package agents

// JSON Schemas the LLM layer validates structured outputs against. Field
// names line up with the structs in internal/models.

const routerSchema = `{
  "type": "object",
  "properties": {
    "scenario_summary": {"type": "string"},
    "primary_regions": {"type": "array", "items": {"type": "string", "minLength": 3, "maxLength": 3}, "minItems": 2},
    "secondary_regions": {"type": "array", "items": {"type": "string", "minLength": 3, "maxLength": 3}, "minItems": 2},
    "coordinates": {
      "type": "object",
      "properties": {"lat": {"type": "number"}, "lon": {"type": "number"}},
      "required": ["lat", "lon"]
    },
    "zoom_level": {"type": "integer", "minimum": 1, "maximum": 18},
    "time_horizon": {"type": "string", "enum": ["immediate", "weeks", "months", "years"]},
    "severity": {"type": "integer", "minimum": 1, "maximum": 10},
    "event_categories": {
      "type": "array",
      "items": {"type": "string", "enum": ["geopolitical", "climate", "infrastructure", "economic", "health"]},
      "minItems": 1
    },
    "context_queries": {
      "type": "object",
      "properties": {
        "geopolitics": {"type": "string"},
        "economy": {"type": "string"},
        "food": {"type": "string"},
        "infrastructure": {"type": "string"},
        "civilian": {"type": "string"}
      },
      "required": ["geopolitics", "economy", "food", "infrastructure", "civilian"]
    }
  },
  "required": ["scenario_summary", "primary_regions", "secondary_regions", "coordinates",
    "zoom_level", "time_horizon", "severity", "event_categories", "context_queries"]
}`

const geopoliticsSchema = `{
  "type": "object",
  "properties": {
    "affected_countries": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "iso3": {"type": "string", "minLength": 3, "maxLength": 3},
          "impact_score": {"type": "integer", "minimum": 1, "maximum": 10},
          "stance": {"type": "string", "enum": ["allied", "opposed", "neutral", "destabilized"]},
          "key_concerns": {"type": "array", "items": {"type": "string"}},
          "alliance_impacts": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["iso3", "impact_score", "stance"]
      }
    },
    "conflict_zones": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "coordinates": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "radius_km": {"type": "number"},
          "intensity": {"type": "integer", "minimum": 1, "maximum": 10},
          "type": {"type": "string", "enum": ["active_conflict", "tension", "diplomatic_crisis"]}
        },
        "required": ["coordinates", "radius_km", "intensity", "type"]
      }
    },
    "narrative": {"type": "string"}
  },
  "required": ["affected_countries", "conflict_zones", "narrative"]
}`

const economySchema = `{
  "type": "object",
  "properties": {
    "affected_countries": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "iso3": {"type": "string", "minLength": 3, "maxLength": 3},
          "gdp_impact_pct": {"type": "number"},
          "trade_disruption": {"type": "integer", "minimum": 1, "maximum": 10},
          "key_sectors": {"type": "array", "items": {"type": "string"}},
          "unemployment_risk": {"type": "string", "enum": ["low", "medium", "high", "severe"]}
        },
        "required": ["iso3", "trade_disruption"]
      }
    },
    "trade_routes_disrupted": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "from": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "to": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "commodity": {"type": "string"},
          "severity": {"type": "integer", "minimum": 1, "maximum": 10}
        },
        "required": ["from", "to", "commodity", "severity"]
      }
    },
    "narrative": {"type": "string"}
  },
  "required": ["affected_countries", "trade_routes_disrupted", "narrative"]
}`

const foodSupplySchema = `{
  "type": "object",
  "properties": {
    "affected_countries": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "iso3": {"type": "string", "minLength": 3, "maxLength": 3},
          "food_security_impact": {"type": "integer", "minimum": 1, "maximum": 10},
          "population_at_risk": {"type": "number"},
          "primary_threats": {"type": "array", "items": {"type": "string"}},
          "is_food_desert": {"type": "boolean"}
        },
        "required": ["iso3", "food_security_impact"]
      }
    },
    "supply_chain_disruptions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "from": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "to": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "product": {"type": "string"},
          "severity": {"type": "integer", "minimum": 1, "maximum": 10}
        },
        "required": ["from", "to", "product", "severity"]
      }
    },
    "narrative": {"type": "string"}
  },
  "required": ["affected_countries", "supply_chain_disruptions", "narrative"]
}`

const infrastructureSchema = `{
  "type": "object",
  "properties": {
    "affected_countries": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "iso3": {"type": "string", "minLength": 3, "maxLength": 3},
          "infrastructure_risk": {"type": "integer", "minimum": 1, "maximum": 10},
          "systems_at_risk": {
            "type": "array",
            "items": {"type": "string", "enum": ["power", "water", "telecom", "transport", "digital"]}
          },
          "cascade_risk": {"type": "integer", "minimum": 1, "maximum": 10}
        },
        "required": ["iso3", "infrastructure_risk"]
      }
    },
    "outage_zones": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "coordinates": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "radius_km": {"type": "number"},
          "type": {"type": "string", "enum": ["power", "water", "telecom", "transport"]},
          "severity": {"type": "integer", "minimum": 1, "maximum": 10},
          "population_affected": {"type": "number"}
        },
        "required": ["coordinates", "radius_km", "type", "severity"]
      }
    },
    "narrative": {"type": "string"}
  },
  "required": ["affected_countries", "outage_zones", "narrative"]
}`

const civilianImpactSchema = `{
  "type": "object",
  "properties": {
    "affected_countries": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "iso3": {"type": "string", "minLength": 3, "maxLength": 3},
          "humanitarian_score": {"type": "integer", "minimum": 1, "maximum": 10},
          "displaced_estimate": {"type": "number"},
          "health_risk": {"type": "integer", "minimum": 1, "maximum": 10},
          "vulnerable_groups": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["iso3", "humanitarian_score"]
      }
    },
    "displacement_flows": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "from": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "to": {"type": "array", "items": {"type": "number"}, "minItems": 2, "maxItems": 2},
          "estimated_people": {"type": "number"},
          "urgency": {"type": "string", "enum": ["low", "medium", "high", "critical"]}
        },
        "required": ["from", "to", "estimated_people", "urgency"]
      }
    },
    "narrative": {"type": "string"}
  },
  "required": ["affected_countries", "displacement_flows", "narrative"]
}`

const synthesisSchema = `{
  "type": "object",
  "properties": {
    "cascading_risk_chain": {"type": "string"},
    "most_affected_population": {"type": "string"},
    "second_order_effect": {"type": "string"},
    "compound_risk_score": {"type": "integer", "minimum": 1, "maximum": 100},
    "narrative": {"type": "string"}
  },
  "required": ["cascading_risk_chain", "most_affected_population", "second_order_effect",
    "compound_risk_score", "narrative"]
}`
