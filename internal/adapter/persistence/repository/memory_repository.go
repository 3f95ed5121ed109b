package repository

import (
	"context"
	"sync"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"
)

// memoryStore holds both collections behind one lock so compound operations
// (accept, delete-last-quote, cascade delete) are atomic.
type memoryStore struct {
	mu       sync.Mutex
	requests map[string]entities.ServiceRequest
	quotes   map[string]entities.Quote
}

// ServiceRequestMemoryRepository and QuoteMemoryRepository share a memoryStore.
// Used by tests and by STORAGE_DRIVER=memory.
type ServiceRequestMemoryRepository struct {
	s *memoryStore
}

type QuoteMemoryRepository struct {
	s *memoryStore
}

var (
	_ interfaces.IServiceRequestRepository = (*ServiceRequestMemoryRepository)(nil)
	_ interfaces.IQuoteRepository          = (*QuoteMemoryRepository)(nil)
)

func NewMemoryRepositories() (*ServiceRequestMemoryRepository, *QuoteMemoryRepository) {
	s := &memoryStore{}
	s.reset()
	return &ServiceRequestMemoryRepository{s: s}, &QuoteMemoryRepository{s: s}
}

func (s *memoryStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]entities.ServiceRequest)
	s.quotes = make(map[string]entities.Quote)
}

// Reset drops every request and quote of the shared store.
func (r *ServiceRequestMemoryRepository) Reset() {
	r.s.reset()
}

func (r *ServiceRequestMemoryRepository) Create(_ context.Context, sr entities.ServiceRequest) (entities.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.requests[sr.ID]; ok {
		return entities.ServiceRequest{}, interfaces.ErrConditionFailed
	}
	r.s.requests[sr.ID] = sr
	return sr, nil
}

func (r *ServiceRequestMemoryRepository) GetByID(_ context.Context, id string) (entities.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.requests[id], nil
}

func (r *ServiceRequestMemoryRepository) ListByClientID(_ context.Context, clientID string) ([]entities.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]entities.ServiceRequest, 0)
	for _, sr := range r.s.requests {
		if sr.ClientID == clientID {
			out = append(out, sr)
		}
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (r *ServiceRequestMemoryRepository) ListOpenByCategories(_ context.Context, categories []string) ([]entities.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	out := make([]entities.ServiceRequest, 0)
	for _, sr := range r.s.requests {
		if !sr.Status.IsOpen() {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[sr.Category]; !ok {
				continue
			}
		}
		out = append(out, sr)
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (r *ServiceRequestMemoryRepository) UpdateStatus(_ context.Context, id string, from []entities.ServiceRequestStatus, to entities.ServiceRequestStatus) (entities.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sr, ok := r.s.requests[id]
	if !ok {
		return entities.ServiceRequest{}, nil
	}
	if !statusIn(sr.Status, from) {
		return entities.ServiceRequest{}, interfaces.ErrConditionFailed
	}
	sr.Status = to
	sr.UpdatedAt = time.Now().UTC()
	r.s.requests[id] = sr
	return sr, nil
}

func (r *ServiceRequestMemoryRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.requests[id]; !ok {
		return nil
	}
	if r.s.winnerLocked(id) != "" {
		return interfaces.ErrConditionFailed
	}
	for qid, q := range r.s.quotes {
		if q.ServiceRequestID == id {
			delete(r.s.quotes, qid)
		}
	}
	delete(r.s.requests, id)
	return nil
}

func (r *QuoteMemoryRepository) Create(_ context.Context, q entities.Quote) (entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sr, ok := r.s.requests[q.ServiceRequestID]
	if !ok || !sr.Status.IsOpen() || r.s.winnerLocked(sr.ID) != "" {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}
	if _, exists := r.s.quotes[q.ID]; exists {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}

	r.s.quotes[q.ID] = q
	if sr.Status == entities.ServiceRequestStatusAwaiting {
		sr.Status = entities.ServiceRequestStatusWithQuotes
		sr.UpdatedAt = q.CreatedAt
		r.s.requests[sr.ID] = sr
	}
	return q, nil
}

func (r *QuoteMemoryRepository) GetByID(_ context.Context, id string) (entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.quotes[id], nil
}

func (r *QuoteMemoryRepository) ListByProviderID(_ context.Context, providerID string) ([]entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]entities.Quote, 0)
	for _, q := range r.s.quotes {
		if q.ProviderID == providerID {
			out = append(out, q)
		}
	}
	sortQuotesNewestFirst(out)
	return out, nil
}

func (r *QuoteMemoryRepository) ListByServiceRequestID(_ context.Context, serviceRequestID string) ([]entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := r.s.quotesOfLocked(serviceRequestID)
	sortQuotesCheapestFirst(out)
	return out, nil
}

func (r *QuoteMemoryRepository) CountByServiceRequestID(_ context.Context, serviceRequestID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.quotesOfLocked(serviceRequestID)), nil
}

func (r *QuoteMemoryRepository) Accept(_ context.Context, id string, at time.Time) (entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, ok := r.s.quotes[id]
	if !ok {
		return entities.Quote{}, nil
	}
	sr, ok := r.s.requests[q.ServiceRequestID]
	if !ok || q.Status != entities.QuoteStatusAwaiting || !sr.Status.IsOpen() || r.s.winnerLocked(sr.ID) != "" {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}

	for sid, sibling := range r.s.quotes {
		if sibling.ServiceRequestID != sr.ID || sid == id || sibling.Status != entities.QuoteStatusAwaiting {
			continue
		}
		sibling.Status = entities.QuoteStatusRejected
		sibling.UpdatedAt = at
		r.s.quotes[sid] = sibling
	}

	started := at
	q.Status = entities.QuoteStatusAccepted
	q.StartedAt = &started
	q.UpdatedAt = at
	r.s.quotes[id] = q

	sr.Status = entities.ServiceRequestStatusWithQuotes
	sr.UpdatedAt = at
	r.s.requests[sr.ID] = sr
	return q, nil
}

func (r *QuoteMemoryRepository) Complete(_ context.Context, id string, at time.Time) (entities.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, ok := r.s.quotes[id]
	if !ok {
		return entities.Quote{}, nil
	}
	sr, ok := r.s.requests[q.ServiceRequestID]
	if !ok || q.Status != entities.QuoteStatusAccepted || !sr.Status.IsOpen() {
		return entities.Quote{}, interfaces.ErrConditionFailed
	}

	finished := at
	q.Status = entities.QuoteStatusCompleted
	q.FinishedAt = &finished
	q.UpdatedAt = at
	r.s.quotes[id] = q

	sr.Status = entities.ServiceRequestStatusClosed
	sr.UpdatedAt = at
	r.s.requests[sr.ID] = sr
	return q, nil
}

func (r *QuoteMemoryRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	q, ok := r.s.quotes[id]
	if !ok {
		return nil
	}
	if q.Status != entities.QuoteStatusAwaiting {
		return interfaces.ErrConditionFailed
	}
	delete(r.s.quotes, id)

	sr, ok := r.s.requests[q.ServiceRequestID]
	if ok && sr.Status == entities.ServiceRequestStatusWithQuotes && len(r.s.quotesOfLocked(sr.ID)) == 0 {
		sr.Status = entities.ServiceRequestStatusAwaiting
		sr.UpdatedAt = time.Now().UTC()
		r.s.requests[sr.ID] = sr
	}
	return nil
}

func (s *memoryStore) quotesOfLocked(serviceRequestID string) []entities.Quote {
	out := make([]entities.Quote, 0)
	for _, q := range s.quotes {
		if q.ServiceRequestID == serviceRequestID {
			out = append(out, q)
		}
	}
	return out
}

// winnerLocked returns the id of the accepted or completed quote of a request, if any.
func (s *memoryStore) winnerLocked(serviceRequestID string) string {
	for _, q := range s.quotes {
		if q.ServiceRequestID == serviceRequestID && q.Status.IsWinner() {
			return q.ID
		}
	}
	return ""
}
