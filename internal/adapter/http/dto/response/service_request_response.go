package response

import (
	"time"

	"homequote/internal/domain/entities"
)

type ServiceRequestResponse struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	DesiredDeadline string    `json:"desired_deadline,omitempty"`
	AdditionalInfo  string    `json:"additional_info,omitempty"`
	Status          string    `json:"status"`
	QuoteCount      *int      `json:"quote_count,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FromServiceRequest(r entities.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:              r.ID,
		ClientID:        r.ClientID,
		Category:        r.Category,
		Description:     r.Description,
		Location:        r.Location,
		DesiredDeadline: r.DesiredDeadline,
		AdditionalInfo:  r.AdditionalInfo,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func FromServiceRequestListing(l entities.ServiceRequestListing) ServiceRequestResponse {
	resp := FromServiceRequest(l.ServiceRequest)
	count := l.QuoteCount
	resp.QuoteCount = &count
	return resp
}

func FromServiceRequestListings(ls []entities.ServiceRequestListing) []ServiceRequestResponse {
	out := make([]ServiceRequestResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, FromServiceRequestListing(l))
	}
	return out
}
