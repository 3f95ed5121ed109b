package interfaces

import (
	"context"

	"homequote/internal/domain/entities"
)

// IPricingOracle estimates a fair price range for a described job.
//
// Implementations are read-only and idempotent; they may be slow (remote model)
// and may fail. Callers must not assume the returned range is well formed.
type IPricingOracle interface {
	Estimate(ctx context.Context, category, description, location string) (entities.PriceRange, error)
}
