package request

import "homequote/internal/usecase"

// CreateQuoteRequest is a provider's bid. Range checks against the oracle
// limits happen in the use case.
type CreateQuoteRequest struct {
	ServiceRequestID  string  `json:"service_request_id" binding:"required"`
	ProposedValue     float64 `json:"proposed_value" binding:"required"`
	ExecutionDeadline string  `json:"execution_deadline" binding:"required"`
	Remarks           string  `json:"remarks"`
	Conditions        string  `json:"conditions"`
}

func (r CreateQuoteRequest) ToInput(providerID string) usecase.CreateQuoteInput {
	return usecase.CreateQuoteInput{
		ProviderID:        providerID,
		ServiceRequestID:  r.ServiceRequestID,
		ProposedValue:     r.ProposedValue,
		ExecutionDeadline: r.ExecutionDeadline,
		Remarks:           r.Remarks,
		Conditions:        r.Conditions,
	}
}
