package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateServiceRequestInput carries what a client informs when posting a job.
type CreateServiceRequestInput struct {
	ClientID        string
	Category        string
	Description     string
	Location        string
	DesiredDeadline string
	AdditionalInfo  string
}

// IServiceRequestUseCase is the request lifecycle manager.
//
// Clients create, inspect, cancel and delete their requests; providers browse
// the open ones. Quote-driven status changes live in IQuoteUseCase.
type IServiceRequestUseCase interface {
	Create(ctx context.Context, in CreateServiceRequestInput) (entities.ServiceRequest, error)
	GetForClient(ctx context.Context, id, clientID string) (entities.ServiceRequestListing, error)
	ListForClient(ctx context.Context, clientID string) ([]entities.ServiceRequestListing, error)
	ListAvailable(ctx context.Context, categories []string) ([]entities.ServiceRequestListing, error)
	Cancel(ctx context.Context, id, clientID string) (entities.ServiceRequest, error)
	Delete(ctx context.Context, id, clientID string) error
}

type ServiceRequestUseCase struct {
	repo      interfaces.IServiceRequestRepository
	quoteRepo interfaces.IQuoteRepository
	publisher interfaces.IEventPublisher
}

var _ IServiceRequestUseCase = (*ServiceRequestUseCase)(nil)

func NewServiceRequestUseCase(repo interfaces.IServiceRequestRepository, quoteRepo interfaces.IQuoteRepository, publisher interfaces.IEventPublisher) *ServiceRequestUseCase {
	return &ServiceRequestUseCase{repo: repo, quoteRepo: quoteRepo, publisher: publisher}
}

func (u *ServiceRequestUseCase) Create(ctx context.Context, in CreateServiceRequestInput) (entities.ServiceRequest, error) {
	clientID, err := requireID(in.ClientID, ErrInvalidClientID)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return entities.ServiceRequest{}, ErrInvalidCategory
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return entities.ServiceRequest{}, ErrInvalidDescription
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return entities.ServiceRequest{}, ErrInvalidLocation
	}

	now := time.Now().UTC()
	r := entities.ServiceRequest{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		Category:        category,
		Description:     description,
		Location:        location,
		DesiredDeadline: strings.TrimSpace(in.DesiredDeadline),
		AdditionalInfo:  strings.TrimSpace(in.AdditionalInfo),
		Status:          entities.ServiceRequestStatusAwaiting,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := u.repo.Create(ctx, r)
	if err != nil {
		log.Errorf("[service-request][usecase] create failed client_id=%s err=%v", clientID, err)
		return entities.ServiceRequest{}, err
	}
	log.Infof("[service-request][usecase] created id=%s client_id=%s category=%q", created.ID, clientID, category)

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:                 entities.EventServiceRequestCreated,
		ServiceRequestID:     created.ID,
		ClientID:             clientID,
		ServiceRequestStatus: created.Status,
		OccurredAt:           now,
	})
	return created, nil
}

func (u *ServiceRequestUseCase) GetForClient(ctx context.Context, id, clientID string) (entities.ServiceRequestListing, error) {
	r, err := u.loadOwned(ctx, id, clientID)
	if err != nil {
		return entities.ServiceRequestListing{}, err
	}
	listings, err := u.withQuoteCounts(ctx, []entities.ServiceRequest{r})
	if err != nil {
		return entities.ServiceRequestListing{}, err
	}
	return listings[0], nil
}

func (u *ServiceRequestUseCase) ListForClient(ctx context.Context, clientID string) ([]entities.ServiceRequestListing, error) {
	clientID, err := requireID(clientID, ErrInvalidClientID)
	if err != nil {
		return nil, err
	}

	requests, err := u.repo.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return u.withQuoteCounts(ctx, requests)
}

// ListAvailable returns the open requests a provider may bid on.
//
// An empty category set returns every open request. This mirrors the legacy
// behaviour (new providers without categories see everything) and is pending
// product confirmation.
func (u *ServiceRequestUseCase) ListAvailable(ctx context.Context, categories []string) ([]entities.ServiceRequestListing, error) {
	categories = normalizeCategories(categories)
	if len(categories) == 0 {
		log.Debugf("[service-request][usecase] list-available without categories; returning all open requests")
	}

	requests, err := u.repo.ListOpenByCategories(ctx, categories)
	if err != nil {
		return nil, err
	}
	return u.withQuoteCounts(ctx, requests)
}

func (u *ServiceRequestUseCase) Cancel(ctx context.Context, id, clientID string) (entities.ServiceRequest, error) {
	r, err := u.loadOwned(ctx, id, clientID)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	if r.Status.IsTerminal() {
		return entities.ServiceRequest{}, fmt.Errorf("%w: id=%s status=%s", ErrServiceRequestNotOpen, r.ID, r.Status)
	}

	cancelled, err := u.repo.UpdateStatus(ctx, r.ID, entities.OpenServiceRequestStatuses, entities.ServiceRequestStatusCancelled)
	if err != nil {
		if isConditionFailed(err) {
			return entities.ServiceRequest{}, fmt.Errorf("%w: id=%s", ErrServiceRequestNotOpen, r.ID)
		}
		log.Errorf("[service-request][usecase] cancel failed id=%s err=%v", r.ID, err)
		return entities.ServiceRequest{}, err
	}
	if cancelled.ID == "" {
		return entities.ServiceRequest{}, fmt.Errorf("%w: id=%s", ErrServiceRequestNotFound, r.ID)
	}
	log.Infof("[service-request][usecase] cancelled id=%s client_id=%s previous_status=%s", r.ID, r.ClientID, r.Status)

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:                 entities.EventServiceRequestCancelled,
		ServiceRequestID:     cancelled.ID,
		ClientID:             cancelled.ClientID,
		ServiceRequestStatus: cancelled.Status,
		OccurredAt:           cancelled.UpdatedAt,
	})
	return cancelled, nil
}

func (u *ServiceRequestUseCase) Delete(ctx context.Context, id, clientID string) error {
	r, err := u.loadOwned(ctx, id, clientID)
	if err != nil {
		return err
	}

	quotes, err := u.quoteRepo.ListByServiceRequestID(ctx, r.ID)
	if err != nil {
		return err
	}
	for _, q := range quotes {
		if q.Status.IsWinner() {
			return fmt.Errorf("%w: id=%s quote_id=%s quote_status=%s", ErrServiceRequestHasWinner, r.ID, q.ID, q.Status)
		}
	}

	if err := u.repo.Delete(ctx, r.ID); err != nil {
		if isQuoteLimitReached(err) {
			log.Warnf("[service-request][usecase] delete exceeds store limit id=%s quotes=%d err=%v", r.ID, len(quotes), err)
			return fmt.Errorf("%w: id=%s", ErrServiceRequestQuoteFull, r.ID)
		}
		if isConditionFailed(err) {
			return fmt.Errorf("%w: id=%s", ErrServiceRequestHasWinner, r.ID)
		}
		log.Errorf("[service-request][usecase] delete failed id=%s err=%v", r.ID, err)
		return err
	}
	log.Infof("[service-request][usecase] deleted id=%s client_id=%s cascaded_quotes=%d", r.ID, r.ClientID, len(quotes))

	publishEvent(ctx, u.publisher, entities.LifecycleEvent{
		Type:             entities.EventServiceRequestDeleted,
		ServiceRequestID: r.ID,
		ClientID:         r.ClientID,
		OccurredAt:       time.Now().UTC(),
	})
	return nil
}

func (u *ServiceRequestUseCase) loadOwned(ctx context.Context, id, clientID string) (entities.ServiceRequest, error) {
	id, err := requireID(id, ErrInvalidServiceRequestID)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	clientID, err = requireID(clientID, ErrInvalidClientID)
	if err != nil {
		return entities.ServiceRequest{}, err
	}

	r, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	if r.ID == "" {
		return entities.ServiceRequest{}, fmt.Errorf("%w: id=%s", ErrServiceRequestNotFound, id)
	}
	if r.ClientID != clientID {
		return entities.ServiceRequest{}, fmt.Errorf("%w: id=%s", ErrNotServiceRequestOwner, id)
	}
	return r, nil
}

func (u *ServiceRequestUseCase) withQuoteCounts(ctx context.Context, requests []entities.ServiceRequest) ([]entities.ServiceRequestListing, error) {
	out := make([]entities.ServiceRequestListing, 0, len(requests))
	for _, r := range requests {
		count, err := u.quoteRepo.CountByServiceRequestID(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, entities.ServiceRequestListing{ServiceRequest: r, QuoteCount: count})
	}
	return out, nil
}
