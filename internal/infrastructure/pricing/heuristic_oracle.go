package pricing

import (
	"context"
	"math"
	"strings"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"
)

const (
	MinimumFactor          = 0.7
	MaximumFactor          = 1.5
	FallbackSuggestedPrice = 500.0
	FallbackCategory       = "General Services"
)

// BoundsFromSuggested derives the allowed band around a suggested price.
// All three values are rounded to cents.
func BoundsFromSuggested(suggested float64, predictedCategory string) entities.PriceRange {
	if predictedCategory == "" {
		predictedCategory = FallbackCategory
	}
	return entities.PriceRange{
		Minimum:           round2(suggested * MinimumFactor),
		Suggested:         round2(suggested),
		Maximum:           round2(suggested * MaximumFactor),
		PredictedCategory: predictedCategory,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PriceRule maps a category, and the words that usually describe it, to a
// reference price.
type PriceRule struct {
	Category string
	Keywords []string
	Price    float64
}

// DefaultPriceRules is the reference table used when no remote model is configured.
var DefaultPriceRules = []PriceRule{
	{Category: "Plumbing", Keywords: []string{"leak", "pipe", "faucet", "drain", "toilet", "sink"}, Price: 300},
	{Category: "Electrical", Keywords: []string{"outlet", "wiring", "breaker", "switch", "light fixture", "shower"}, Price: 350},
	{Category: "Painting", Keywords: []string{"paint", "wall", "ceiling", "varnish"}, Price: 800},
	{Category: "Cleaning", Keywords: []string{"clean", "cleaning", "sanitize", "window wash"}, Price: 200},
	{Category: "Carpentry", Keywords: []string{"cabinet", "door", "shelf", "wood", "furniture"}, Price: 450},
	{Category: "Masonry", Keywords: []string{"brick", "concrete", "tile", "plaster"}, Price: 1200},
	{Category: "Air Conditioning", Keywords: []string{"air conditioning", "hvac", "split", "refrigerant"}, Price: 400},
	{Category: "Gardening", Keywords: []string{"garden", "lawn", "hedge", "tree", "mowing"}, Price: 250},
}

// HeuristicOracle estimates prices from a static category and keyword table.
// The request category wins over keywords when both match.
type HeuristicOracle struct {
	rules []PriceRule
}

var _ interfaces.IPricingOracle = (*HeuristicOracle)(nil)

func NewHeuristicOracle(rules []PriceRule) *HeuristicOracle {
	if len(rules) == 0 {
		rules = DefaultPriceRules
	}
	return &HeuristicOracle{rules: rules}
}

func (o *HeuristicOracle) Estimate(_ context.Context, category, description, _ string) (entities.PriceRange, error) {
	predicted := o.predictCategory(description)

	suggested := FallbackSuggestedPrice
	if rule, ok := o.ruleForCategory(category); ok {
		suggested = rule.Price
	} else if rule, ok := o.ruleForCategory(predicted); ok {
		suggested = rule.Price
	}
	return BoundsFromSuggested(suggested, predicted), nil
}

func (o *HeuristicOracle) predictCategory(description string) string {
	text := strings.ToLower(description)
	best, bestHits := "", 0
	for _, rule := range o.rules {
		hits := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = rule.Category, hits
		}
	}
	if best == "" {
		return FallbackCategory
	}
	return best
}

func (o *HeuristicOracle) ruleForCategory(category string) (PriceRule, bool) {
	category = strings.TrimSpace(category)
	for _, rule := range o.rules {
		if strings.EqualFold(rule.Category, category) {
			return rule, true
		}
	}
	return PriceRule{}, false
}
