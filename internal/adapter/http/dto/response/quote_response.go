package response

import (
	"time"

	"homequote/internal/domain/entities"
)

type PriceLimitsResponse struct {
	Minimum           float64 `json:"minimum"`
	Suggested         float64 `json:"suggested"`
	Maximum           float64 `json:"maximum"`
	PredictedCategory string  `json:"predicted_category,omitempty"`
}

func FromPriceRange(r entities.PriceRange) PriceLimitsResponse {
	return PriceLimitsResponse{
		Minimum:           r.Minimum,
		Suggested:         r.Suggested,
		Maximum:           r.Maximum,
		PredictedCategory: r.PredictedCategory,
	}
}

// QuoteResponse is the provider's view of a quote and carries the oracle limits
// snapshot. Category and Description are only set in provider listings.
type QuoteResponse struct {
	ID                string              `json:"id"`
	ServiceRequestID  string              `json:"service_request_id"`
	ProviderID        string              `json:"provider_id"`
	Limits            PriceLimitsResponse `json:"limits"`
	ProposedValue     float64             `json:"proposed_value"`
	ExecutionDeadline string              `json:"execution_deadline"`
	Remarks           string              `json:"remarks,omitempty"`
	Conditions        string              `json:"conditions,omitempty"`
	Status            string              `json:"status"`
	Category          string              `json:"category,omitempty"`
	Description       string              `json:"description,omitempty"`
	StartedAt         *time.Time          `json:"started_at,omitempty"`
	FinishedAt        *time.Time          `json:"finished_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func FromQuote(q entities.Quote) QuoteResponse {
	return QuoteResponse{
		ID:                q.ID,
		ServiceRequestID:  q.ServiceRequestID,
		ProviderID:        q.ProviderID,
		Limits:            FromPriceRange(q.Limits),
		ProposedValue:     q.ProposedValue,
		ExecutionDeadline: q.ExecutionDeadline,
		Remarks:           q.Remarks,
		Conditions:        q.Conditions,
		Status:            string(q.Status),
		StartedAt:         q.StartedAt,
		FinishedAt:        q.FinishedAt,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

func FromProviderQuotes(qs []entities.ProviderQuote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(qs))
	for _, pq := range qs {
		resp := FromQuote(pq.Quote)
		resp.Category = pq.Category
		resp.Description = pq.Description
		out = append(out, resp)
	}
	return out
}

// QuoteOfferResponse is what the owning client sees. No oracle limits.
type QuoteOfferResponse struct {
	ID                string     `json:"id"`
	ServiceRequestID  string     `json:"service_request_id"`
	ProviderID        string     `json:"provider_id"`
	ProposedValue     float64    `json:"proposed_value"`
	ExecutionDeadline string     `json:"execution_deadline"`
	Remarks           string     `json:"remarks,omitempty"`
	Conditions        string     `json:"conditions,omitempty"`
	Status            string     `json:"status"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func FromQuoteOffers(offers []entities.QuoteOffer) []QuoteOfferResponse {
	out := make([]QuoteOfferResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, QuoteOfferResponse{
			ID:                o.ID,
			ServiceRequestID:  o.ServiceRequestID,
			ProviderID:        o.ProviderID,
			ProposedValue:     o.ProposedValue,
			ExecutionDeadline: o.ExecutionDeadline,
			Remarks:           o.Remarks,
			Conditions:        o.Conditions,
			Status:            string(o.Status),
			StartedAt:         o.StartedAt,
			FinishedAt:        o.FinishedAt,
			CreatedAt:         o.CreatedAt,
		})
	}
	return out
}
