package entities

import "math"

// PriceRange is the pricing oracle's estimate for a described job.
//
// A usable range satisfies 0 <= Minimum <= Suggested <= Maximum.
type PriceRange struct {
	Minimum           float64 `json:"minimum"`
	Suggested         float64 `json:"suggested"`
	Maximum           float64 `json:"maximum"`
	PredictedCategory string  `json:"predicted_category,omitempty"`
}

func (r PriceRange) Valid() bool {
	for _, v := range []float64{r.Minimum, r.Suggested, r.Maximum} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return r.Minimum <= r.Suggested && r.Suggested <= r.Maximum
}

// Contains reports whether v lies within the range, bounds included.
func (r PriceRange) Contains(v float64) bool {
	return v >= r.Minimum && v <= r.Maximum
}
