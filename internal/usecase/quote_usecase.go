package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateQuoteInput carries a provider's bid.
type CreateQuoteInput struct {
	ProviderID        string
	ServiceRequestID  string
	ProposedValue     float64
	ExecutionDeadline string
	Remarks           string
	Conditions        string
}

// IQuoteUseCase is the quote lifecycle manager.
//
// Operations map to the marketplace flow:
//   - provider asks for price limits, then bids => EstimatePriceLimits(), Create()
//   - client compares bids and picks one => ListForServiceRequest(), Accept()
//   - provider finishes the job => MarkCompleted()
//   - provider withdraws an undecided bid => Delete()
type IQuoteUseCase interface {
	EstimatePriceLimits(ctx context.Context, serviceRequestID string) (entities.PriceRange, error)
	Create(ctx context.Context, in CreateQuoteInput) (entities.Quote, error)
	ListForProvider(ctx context.Context, providerID string) ([]entities.ProviderQuote, error)
	ListForServiceRequest(ctx context.Context, serviceRequestID, clientID string) ([]entities.QuoteOffer, error)
	Accept(ctx context.Context, id, clientID string) (entities.Quote, error)
	MarkCompleted(ctx context.Context, id, providerID string) (entities.Quote, error)
	Delete(ctx context.Context, id, providerID string) error
}

type QuoteUseCase struct {
	repo        interfaces.IQuoteRepository
	requestRepo interfaces.IServiceRequestRepository
	oracle      interfaces.IPricingOracle
	publisher   interfaces.IEventPublisher
}

var _ IQuoteUseCase = (*QuoteUseCase)(nil)

func NewQuoteUseCase(repo interfaces.IQuoteRepository, requestRepo interfaces.IServiceRequestRepository, oracle interfaces.IPricingOracle, publisher interfaces.IEventPublisher) *QuoteUseCase {
	return &QuoteUseCase{repo: repo, requestRepo: requestRepo, oracle: oracle, publisher: publisher}
}

func (u *QuoteUseCase) EstimatePriceLimits(ctx context.Context, serviceRequestID string) (entities.PriceRange, error) {
	r, err := u.loadRequest(ctx, serviceRequestID)
	if err != nil {
		return entities.PriceRange{}, err
	}
	if !r.Status.IsOpen() {
		return entities.PriceRange{}, fmt.Errorf("%w: id=%s status=%s", ErrServiceRequestNotOpen, r.ID, r.Status)
	}
	return u.estimate(ctx, r)
}

func (u *QuoteUseCase) Create(ctx context.Context, in CreateQuoteInput) (entities.Quote, error) {
	providerID, err := requireID(in.ProviderID, ErrInvalidProviderID)
	if err != nil {
		return entities.Quote{}, err
	}
	if math.IsNaN(in.ProposedValue) || math.IsInf(in.ProposedValue, 0) || in.ProposedValue <= 0 {
		return entities.Quote{}, ErrInvalidProposedValue
	}
	deadline := strings.TrimSpace(in.ExecutionDeadline)
	if deadline == "" {
		return entities.Quote{}, ErrInvalidExecutionDeadline
	}

	r, err := u.loadRequest(ctx, in.ServiceRequestID)
	if err != nil {
		return entities.Quote{}, err
	}
	if !r.Status.IsOpen() {
		return entities.Quote{}, fmt.Errorf("%w: id=%s status=%s", ErrServiceRequestNotOpen, r.ID, r.Status)
	}

	limits, err := u.estimate(ctx, r)
	if err != nil {
		return entities.Quote{}, err
	}
	if in.ProposedValue < limits.Minimum {
		log.Infof("[quote][usecase] proposed value below minimum service_request_id=%s provider_id=%s proposed=%.2f minimum=%.2f",
			r.ID, providerID, in.ProposedValue, limits.Minimum)
		return entities.Quote{}, &PriceOutOfRangeError{Proposed: in.ProposedValue, Bound: PriceBoundMinimum, Limit: limits.Minimum}
	}
	if in.ProposedValue > limits.Maximum {
		log.Infof("[quote][usecase] proposed value above maximum service_request_id=%s provider_id=%s proposed=%.2f maximum=%.2f",
			r.ID, providerID, in.ProposedValue, limits.Maximum)
		return entities.Quote{}, &PriceOutOfRangeError{Proposed: in.ProposedValue, Bound: PriceBoundMaximum, Limit: limits.Maximum}
	}

	now := time.Now().UTC()
	q := entities.Quote{
		ID:                uuid.NewString(),
		ServiceRequestID:  r.ID,
		ProviderID:        providerID,
		Limits:            limits,
		ProposedValue:     in.ProposedValue,
		ExecutionDeadline: deadline,
		Remarks:           strings.TrimSpace(in.Remarks),
		Conditions:        strings.TrimSpace(in.Conditions),
		Status:            entities.QuoteStatusAwaiting,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := u.repo.Create(ctx, q)
	if err != nil {
		if isQuoteLimitReached(err) {
			log.Infof("[quote][usecase] quote limit reached service_request_id=%s provider_id=%s", r.ID, providerID)
			return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrServiceRequestQuoteFull, r.ID)
		}
		if isConditionFailed(err) {
			return entities.Quote{}, u.explainClosedRequest(ctx, r.ID)
		}
		log.Errorf("[quote][usecase] create failed service_request_id=%s provider_id=%s err=%v", r.ID, providerID, err)
		return entities.Quote{}, err
	}
	log.Infof("[quote][usecase] created id=%s service_request_id=%s provider_id=%s proposed=%.2f", created.ID, r.ID, providerID, created.ProposedValue)

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:                 entities.EventQuoteCreated,
		ServiceRequestID:     r.ID,
		QuoteID:              created.ID,
		ClientID:             r.ClientID,
		ProviderID:           providerID,
		ServiceRequestStatus: entities.ServiceRequestStatusWithQuotes,
		QuoteStatus:          created.Status,
		OccurredAt:           now,
	})
	return created, nil
}

func (u *QuoteUseCase) ListForProvider(ctx context.Context, providerID string) ([]entities.ProviderQuote, error) {
	providerID, err := requireID(providerID, ErrInvalidProviderID)
	if err != nil {
		return nil, err
	}

	quotes, err := u.repo.ListByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	requests := make(map[string]entities.ServiceRequest)
	out := make([]entities.ProviderQuote, 0, len(quotes))
	for _, q := range quotes {
		r, ok := requests[q.ServiceRequestID]
		if !ok {
			r, err = u.requestRepo.GetByID(ctx, q.ServiceRequestID)
			if err != nil {
				return nil, err
			}
			requests[q.ServiceRequestID] = r
		}
		out = append(out, entities.ProviderQuote{Quote: q, Category: r.Category, Description: r.Description})
	}
	return out, nil
}

// ListForServiceRequest returns the bids on a request, cheapest first, without
// the oracle bounds.
func (u *QuoteUseCase) ListForServiceRequest(ctx context.Context, serviceRequestID, clientID string) ([]entities.QuoteOffer, error) {
	clientID, err := requireID(clientID, ErrInvalidClientID)
	if err != nil {
		return nil, err
	}
	r, err := u.loadRequest(ctx, serviceRequestID)
	if err != nil {
		return nil, err
	}
	if r.ClientID != clientID {
		return nil, fmt.Errorf("%w: id=%s", ErrNotServiceRequestOwner, r.ID)
	}

	quotes, err := u.repo.ListByServiceRequestID(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].ProposedValue != quotes[j].ProposedValue {
			return quotes[i].ProposedValue < quotes[j].ProposedValue
		}
		return quotes[i].CreatedAt.Before(quotes[j].CreatedAt)
	})

	out := make([]entities.QuoteOffer, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, entities.NewQuoteOffer(q))
	}
	return out, nil
}

// Accept makes the quote the single winner of its request. Sibling quotes still
// awaiting are rejected in the same store transaction.
func (u *QuoteUseCase) Accept(ctx context.Context, id, clientID string) (entities.Quote, error) {
	id, err := requireID(id, ErrInvalidQuoteID)
	if err != nil {
		return entities.Quote{}, err
	}
	clientID, err = requireID(clientID, ErrInvalidClientID)
	if err != nil {
		return entities.Quote{}, err
	}

	q, err := u.loadQuote(ctx, id)
	if err != nil {
		return entities.Quote{}, err
	}
	r, err := u.requestRepo.GetByID(ctx, q.ServiceRequestID)
	if err != nil {
		return entities.Quote{}, err
	}
	if r.ID == "" {
		return entities.Quote{}, fmt.Errorf("%w: id=%s quote_id=%s", ErrServiceRequestNotFound, q.ServiceRequestID, id)
	}
	if r.ClientID != clientID {
		return entities.Quote{}, fmt.Errorf("%w: id=%s quote_id=%s", ErrNotServiceRequestOwner, r.ID, id)
	}
	if q.Status != entities.QuoteStatusAwaiting {
		return entities.Quote{}, fmt.Errorf("%w: id=%s status=%s", ErrQuoteAlreadyDecided, id, q.Status)
	}
	if !r.Status.IsOpen() {
		return entities.Quote{}, fmt.Errorf("%w: id=%s status=%s", ErrServiceRequestNotOpen, r.ID, r.Status)
	}

	now := time.Now().UTC()
	accepted, err := u.repo.Accept(ctx, id, now)
	if err != nil {
		if isQuoteLimitReached(err) {
			log.Warnf("[quote][usecase] accept exceeds store limit id=%s service_request_id=%s err=%v", id, r.ID, err)
			return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrServiceRequestQuoteFull, r.ID)
		}
		if isConditionFailed(err) {
			log.Infof("[quote][usecase] accept lost race id=%s service_request_id=%s", id, r.ID)
			return entities.Quote{}, fmt.Errorf("%w: id=%s service_request_id=%s", ErrQuoteAlreadyDecided, id, r.ID)
		}
		log.Errorf("[quote][usecase] accept failed id=%s err=%v", id, err)
		return entities.Quote{}, err
	}
	if accepted.ID == "" {
		return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrQuoteNotFound, id)
	}
	log.Infof("[quote][usecase] accepted id=%s service_request_id=%s client_id=%s provider_id=%s", id, r.ID, clientID, accepted.ProviderID)

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:                 entities.EventQuoteAccepted,
		ServiceRequestID:     r.ID,
		QuoteID:              accepted.ID,
		ClientID:             clientID,
		ProviderID:           accepted.ProviderID,
		ServiceRequestStatus: entities.ServiceRequestStatusWithQuotes,
		QuoteStatus:          accepted.Status,
		OccurredAt:           now,
	})
	return accepted, nil
}

// MarkCompleted finishes an accepted quote and closes its request.
func (u *QuoteUseCase) MarkCompleted(ctx context.Context, id, providerID string) (entities.Quote, error) {
	id, err := requireID(id, ErrInvalidQuoteID)
	if err != nil {
		return entities.Quote{}, err
	}
	providerID, err = requireID(providerID, ErrInvalidProviderID)
	if err != nil {
		return entities.Quote{}, err
	}

	q, err := u.loadQuote(ctx, id)
	if err != nil {
		return entities.Quote{}, err
	}
	if q.ProviderID != providerID {
		return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrNotQuoteOwner, id)
	}
	if q.Status != entities.QuoteStatusAccepted {
		return entities.Quote{}, fmt.Errorf("%w: id=%s status=%s", ErrQuoteNotAccepted, id, q.Status)
	}
	r, err := u.requestRepo.GetByID(ctx, q.ServiceRequestID)
	if err != nil {
		return entities.Quote{}, err
	}
	if r.ID == "" {
		return entities.Quote{}, fmt.Errorf("%w: id=%s quote_id=%s", ErrServiceRequestNotFound, q.ServiceRequestID, id)
	}
	if !r.Status.IsOpen() {
		return entities.Quote{}, fmt.Errorf("%w: id=%s status=%s", ErrServiceRequestNotOpen, r.ID, r.Status)
	}

	now := time.Now().UTC()
	completed, err := u.repo.Complete(ctx, id, now)
	if err != nil {
		if isConditionFailed(err) {
			return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrQuoteNotAccepted, id)
		}
		log.Errorf("[quote][usecase] complete failed id=%s err=%v", id, err)
		return entities.Quote{}, err
	}
	if completed.ID == "" {
		return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrQuoteNotFound, id)
	}
	log.Infof("[quote][usecase] completed id=%s service_request_id=%s provider_id=%s", id, r.ID, providerID)

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:                 entities.EventQuoteCompleted,
		ServiceRequestID:     r.ID,
		QuoteID:              completed.ID,
		ClientID:             r.ClientID,
		ProviderID:           providerID,
		ServiceRequestStatus: entities.ServiceRequestStatusClosed,
		QuoteStatus:          completed.Status,
		OccurredAt:           now,
	})
	return completed, nil
}

// Delete withdraws an awaiting quote. When it was the last one, the request
// goes back to awaiting.
func (u *QuoteUseCase) Delete(ctx context.Context, id, providerID string) error {
	id, err := requireID(id, ErrInvalidQuoteID)
	if err != nil {
		return err
	}
	providerID, err = requireID(providerID, ErrInvalidProviderID)
	if err != nil {
		return err
	}

	q, err := u.loadQuote(ctx, id)
	if err != nil {
		return err
	}
	if q.ProviderID != providerID {
		return fmt.Errorf("%w: id=%s", ErrNotQuoteOwner, id)
	}
	if q.Status != entities.QuoteStatusAwaiting {
		return fmt.Errorf("%w: id=%s status=%s", ErrQuoteAlreadyDecided, id, q.Status)
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("%w: id=%s", ErrQuoteAlreadyDecided, id)
		}
		log.Errorf("[quote][usecase] delete failed id=%s err=%v", id, err)
		return err
	}
	log.Infof("[quote][usecase] deleted id=%s service_request_id=%s provider_id=%s", id, q.ServiceRequestID, providerID)

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:             entities.EventQuoteDeleted,
		ServiceRequestID: q.ServiceRequestID,
		QuoteID:          id,
		ProviderID:       providerID,
		QuoteStatus:      q.Status,
		OccurredAt:       time.Now().UTC(),
	})
	return nil
}

func (u *QuoteUseCase) estimate(ctx context.Context, r entities.ServiceRequest) (entities.PriceRange, error) {
	if u.oracle == nil {
		return entities.PriceRange{}, ErrPricingOracleNotAvailable
	}
	limits, err := u.oracle.Estimate(ctx, r.Category, r.Description, r.Location)
	if err != nil {
		log.Warnf("[quote][usecase] pricing oracle failed service_request_id=%s err=%v", r.ID, err)
		return entities.PriceRange{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if !limits.Valid() {
		log.Warnf("[quote][usecase] pricing oracle returned invalid range service_request_id=%s range=%+v", r.ID, limits)
		return entities.PriceRange{}, fmt.Errorf("%w: min=%.2f suggested=%.2f max=%.2f",
			ErrInvalidOraclePriceRange, limits.Minimum, limits.Suggested, limits.Maximum)
	}
	return limits, nil
}

// explainClosedRequest re-reads the request after a lost conditional write to
// tell the caller whether it was closed/cancelled or already has a winner.
func (u *QuoteUseCase) explainClosedRequest(ctx context.Context, id string) error {
	r, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("%w: id=%s", ErrServiceRequestNotFound, id)
	}
	if !r.Status.IsOpen() {
		return fmt.Errorf("%w: id=%s status=%s", ErrServiceRequestNotOpen, id, r.Status)
	}
	return fmt.Errorf("%w: id=%s", ErrServiceRequestHasWinner, id)
}

func (u *QuoteUseCase) loadRequest(ctx context.Context, id string) (entities.ServiceRequest, error) {
	id, err := requireID(id, ErrInvalidServiceRequestID)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	r, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	if r.ID == "" {
		return entities.ServiceRequest{}, fmt.Errorf("%w: id=%s", ErrServiceRequestNotFound, id)
	}
	return r, nil
}

func (u *QuoteUseCase) loadQuote(ctx context.Context, id string) (entities.Quote, error) {
	q, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Quote{}, err
	}
	if q.ID == "" {
		return entities.Quote{}, fmt.Errorf("%w: id=%s", ErrQuoteNotFound, id)
	}
	return q, nil
}
