package interfaces

import (
	"context"
	"errors"

	"homequote/internal/domain/entities"
)

// ErrConditionFailed is returned by stores when a conditional or transactional
// write loses against the current state (a concurrent decision, a closed request,
// a quote that is no longer awaiting). Nothing is written when it is returned.
var ErrConditionFailed = errors.New("store condition failed")

// ErrQuoteLimitReached is returned by stores that bound the number of quotes a
// request may hold, when a write would go past that bound.
var ErrQuoteLimitReached = errors.New("service request quote limit reached")

// IServiceRequestRepository abstracts persistence for ServiceRequest.
//
// Read methods return the zero ServiceRequest (ID == "") when nothing matches.
// List methods return the most recent requests first.
type IServiceRequestRepository interface {
	Create(ctx context.Context, r entities.ServiceRequest) (entities.ServiceRequest, error)
	GetByID(ctx context.Context, id string) (entities.ServiceRequest, error)
	ListByClientID(ctx context.Context, clientID string) ([]entities.ServiceRequest, error)
	// ListOpenByCategories returns awaiting/with_quotes requests whose category
	// is in categories; an empty slice matches every category.
	ListOpenByCategories(ctx context.Context, categories []string) ([]entities.ServiceRequest, error)
	// UpdateStatus moves the request to status only if its current status is in from.
	UpdateStatus(ctx context.Context, id string, from []entities.ServiceRequestStatus, to entities.ServiceRequestStatus) (entities.ServiceRequest, error)
	// Delete removes the request and all its quotes in one unit. It fails with
	// ErrConditionFailed when any quote is accepted or completed.
	Delete(ctx context.Context, id string) error
}
