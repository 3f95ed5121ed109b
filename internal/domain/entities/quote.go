package entities

import "time"

// QuoteStatus represents the lifecycle of a provider's quote.
//
// Domain notes:
//   - awaiting -> accepted -> completed is the only winning path.
//   - awaiting -> rejected happens automatically when a sibling quote is accepted.
//   - rejected and completed are terminal; accepted never goes back to awaiting.
type QuoteStatus string

const (
	QuoteStatusAwaiting  QuoteStatus = "awaiting"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusCompleted QuoteStatus = "completed"
)

func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusRejected || s == QuoteStatusCompleted
}

// IsWinner reports whether the quote holds the single-winner slot of its request.
func (s QuoteStatus) IsWinner() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusCompleted
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusAwaiting, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusCompleted:
		return true
	}
	return false
}

// Quote is a priced bid from a provider against a ServiceRequest.
//
// Limits is the oracle snapshot taken when the quote was created; it is never
// recomputed. ProposedValue is fixed once the quote is accepted.
// StartedAt is set on acceptance and FinishedAt on completion.
type Quote struct {
	ID                string      `json:"id"`
	ServiceRequestID  string      `json:"service_request_id"`
	ProviderID        string      `json:"provider_id"`
	Limits            PriceRange  `json:"limits"`
	ProposedValue     float64     `json:"proposed_value"`
	ExecutionDeadline string      `json:"execution_deadline"`
	Remarks           string      `json:"remarks,omitempty"`
	Conditions        string      `json:"conditions,omitempty"`
	Status            QuoteStatus `json:"status"`
	StartedAt         *time.Time  `json:"started_at,omitempty"`
	FinishedAt        *time.Time  `json:"finished_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ProviderQuote is the provider's view of its own quote, joined with the
// parent request's category and description for display.
type ProviderQuote struct {
	Quote
	Category    string `json:"category"`
	Description string `json:"description"`
}

// QuoteOffer is the client's view of a quote. Oracle bounds are provider-only
// and not part of it.
type QuoteOffer struct {
	ID                string      `json:"id"`
	ServiceRequestID  string      `json:"service_request_id"`
	ProviderID        string      `json:"provider_id"`
	ProposedValue     float64     `json:"proposed_value"`
	ExecutionDeadline string      `json:"execution_deadline"`
	Remarks           string      `json:"remarks,omitempty"`
	Conditions        string      `json:"conditions,omitempty"`
	Status            QuoteStatus `json:"status"`
	StartedAt         *time.Time  `json:"started_at,omitempty"`
	FinishedAt        *time.Time  `json:"finished_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}

func NewQuoteOffer(q Quote) QuoteOffer {
	return QuoteOffer{
		ID:                q.ID,
		ServiceRequestID:  q.ServiceRequestID,
		ProviderID:        q.ProviderID,
		ProposedValue:     q.ProposedValue,
		ExecutionDeadline: q.ExecutionDeadline,
		Remarks:           q.Remarks,
		Conditions:        q.Conditions,
		Status:            q.Status,
		StartedAt:         q.StartedAt,
		FinishedAt:        q.FinishedAt,
		CreatedAt:         q.CreatedAt,
	}
}
