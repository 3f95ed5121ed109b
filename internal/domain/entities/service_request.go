package entities

import "time"

// ServiceRequestStatus represents the lifecycle of a client's service request.
//
// Domain notes:
//   - awaiting is the initial state; with_quotes means at least one quote exists.
//   - closed and cancelled are terminal.
//   - Status is only changed by the lifecycle use cases in reaction to quote events
//     or to the owning client's cancel action.
type ServiceRequestStatus string

const (
	ServiceRequestStatusAwaiting   ServiceRequestStatus = "awaiting"
	ServiceRequestStatusWithQuotes ServiceRequestStatus = "with_quotes"
	ServiceRequestStatusClosed     ServiceRequestStatus = "closed"
	ServiceRequestStatusCancelled  ServiceRequestStatus = "cancelled"
)

// OpenServiceRequestStatuses lists the statuses that still accept quotes.
var OpenServiceRequestStatuses = []ServiceRequestStatus{
	ServiceRequestStatusAwaiting,
	ServiceRequestStatusWithQuotes,
}

func (s ServiceRequestStatus) IsTerminal() bool {
	return s == ServiceRequestStatusClosed || s == ServiceRequestStatusCancelled
}

// IsOpen reports whether providers may still bid on a request in this status.
func (s ServiceRequestStatus) IsOpen() bool {
	return s == ServiceRequestStatusAwaiting || s == ServiceRequestStatusWithQuotes
}

func (s ServiceRequestStatus) Valid() bool {
	switch s {
	case ServiceRequestStatusAwaiting, ServiceRequestStatusWithQuotes, ServiceRequestStatusClosed, ServiceRequestStatusCancelled:
		return true
	}
	return false
}

// ServiceRequest is a job posted by a client that providers bid on.
//
// DesiredDeadline and AdditionalInfo are optional free text; empty means "not informed".
type ServiceRequest struct {
	ID              string               `json:"id"`
	ClientID        string               `json:"client_id"`
	Category        string               `json:"category"`
	Description     string               `json:"description"`
	Location        string               `json:"location"`
	DesiredDeadline string               `json:"desired_deadline,omitempty"`
	AdditionalInfo  string               `json:"additional_info,omitempty"`
	Status          ServiceRequestStatus `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ServiceRequestListing is the read model returned by list operations.
// QuoteCount is derived from the quote store on every read and never persisted.
type ServiceRequestListing struct {
	ServiceRequest
	QuoteCount int `json:"quote_count"`
}
