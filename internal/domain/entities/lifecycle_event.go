package entities

import "time"

type LifecycleEventType string

const (
	EventServiceRequestCreated   LifecycleEventType = "service_request.created"
	EventServiceRequestCancelled LifecycleEventType = "service_request.cancelled"
	EventServiceRequestDeleted   LifecycleEventType = "service_request.deleted"
	EventQuoteCreated            LifecycleEventType = "quote.created"
	EventQuoteAccepted           LifecycleEventType = "quote.accepted"
	EventQuoteCompleted          LifecycleEventType = "quote.completed"
	EventQuoteDeleted            LifecycleEventType = "quote.deleted"
)

// LifecycleEvent is emitted after a request or quote transition has been committed.
// QuoteID and ProviderID are empty for request-only events.
type LifecycleEvent struct {
	Type                 LifecycleEventType   `json:"type"`
	ServiceRequestID     string               `json:"service_request_id"`
	QuoteID              string               `json:"quote_id,omitempty"`
	ClientID             string               `json:"client_id,omitempty"`
	ProviderID           string               `json:"provider_id,omitempty"`
	ServiceRequestStatus ServiceRequestStatus `json:"service_request_status,omitempty"`
	QuoteStatus          QuoteStatus          `json:"quote_status,omitempty"`
	OccurredAt           time.Time            `json:"occurred_at"`
}
