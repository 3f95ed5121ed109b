package interfaces

import (
	"context"
	"time"

	"homequote/internal/domain/entities"
)

// IQuoteRepository abstracts persistence for Quote.
//
// Every mutating method is one atomic unit that also keeps the parent request's
// status coherent. Preconditions are re-checked inside that unit and a violation
// is reported as ErrConditionFailed:
//   - Create: the request exists, is awaiting/with_quotes and has no winner;
//     an awaiting request becomes with_quotes.
//   - Accept: the quote is awaiting and the request is open without a winner;
//     every other awaiting quote of the request becomes rejected and the
//     request ends in with_quotes.
//   - Complete: the quote is accepted and the request is open; the request
//     becomes closed.
//   - Delete: the quote is awaiting; when no quotes remain a with_quotes
//     request goes back to awaiting.
type IQuoteRepository interface {
	Create(ctx context.Context, q entities.Quote) (entities.Quote, error)
	GetByID(ctx context.Context, id string) (entities.Quote, error)
	// ListByProviderID returns the provider's quotes, newest first.
	ListByProviderID(ctx context.Context, providerID string) ([]entities.Quote, error)
	// ListByServiceRequestID returns the request's quotes, cheapest first.
	ListByServiceRequestID(ctx context.Context, serviceRequestID string) ([]entities.Quote, error)
	CountByServiceRequestID(ctx context.Context, serviceRequestID string) (int, error)
	Accept(ctx context.Context, id string, at time.Time) (entities.Quote, error)
	Complete(ctx context.Context, id string, at time.Time) (entities.Quote, error)
	Delete(ctx context.Context, id string) error
}
