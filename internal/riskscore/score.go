// internal/riskscore/score.go

// Package riskscore computes the deterministic 0-100 compound risk score
// from the five domain severities and the router's event categories.
// Pure computation, no I/O; the same inputs always produce the same score.
package riskscore

import (
	"fmt"
	"math"

	"crisis-atlas/internal/models"
)

// Domain order inside every weight vector: geopolitics, economy, food,
// infrastructure, civilian. Each vector sums to 1.0.
var categoryWeights = map[models.EventCategory][5]float64{
	models.CategoryGeopolitical:   {0.30, 0.20, 0.15, 0.15, 0.20},
	models.CategoryClimate:        {0.10, 0.20, 0.25, 0.20, 0.25},
	models.CategoryInfrastructure: {0.10, 0.25, 0.15, 0.30, 0.20},
	models.CategoryEconomic:       {0.15, 0.35, 0.15, 0.15, 0.20},
	models.CategoryHealth:         {0.15, 0.25, 0.10, 0.10, 0.40},
}

const highSeverityThreshold = 7

// Compute maps severities (0-10 each, 0 meaning "no result") plus a
// non-empty category list to an integer score.
//
//  1. Average the weight vectors of the supplied categories component-wise.
//  2. weighted_avg = sum(weight_i * severity_i).
//  3. cascade multiplier: 1.0 for at most one domain >= 7, then +0.1 per
//     additional high-severity domain.
//  4. round half away from zero, clamp at 100.
//
// An empty category list or an unknown category name is an error.
func Compute(severities [5]int, categories []models.EventCategory) (int, error) {
	weights, err := effectiveWeights(categories)
	if err != nil {
		return 0, err
	}

	weightedAvg := 0.0
	highSeverity := 0
	for i, sev := range severities {
		weightedAvg += weights[i] * float64(sev)
		if sev >= highSeverityThreshold {
			highSeverity++
		}
	}

	multiplier := 1.0
	if highSeverity > 1 {
		multiplier = 1.0 + float64(highSeverity-1)*0.1
	}

	raw := weightedAvg * multiplier * 10
	score := int(math.Round(raw))
	if score > 100 {
		score = 100
	}
	return score, nil
}

// effectiveWeights returns the component-wise arithmetic mean of the
// supplied categories' weight vectors.
func effectiveWeights(categories []models.EventCategory) ([5]float64, error) {
	var sum [5]float64
	if len(categories) == 0 {
		return sum, fmt.Errorf("at least one event category is required")
	}

	for _, cat := range categories {
		vec, ok := categoryWeights[cat]
		if !ok {
			return sum, fmt.Errorf("unknown event category %q", cat)
		}
		for i := range sum {
			sum[i] += vec[i]
		}
	}

	n := float64(len(categories))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}
