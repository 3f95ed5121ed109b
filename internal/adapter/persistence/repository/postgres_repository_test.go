package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/infrastructure/database"
	"homequote/internal/usecase/interfaces"

	"github.com/google/uuid"
)

// Runs only when TEST_DATABASE_URL points to a disposable Postgres.
func newPostgresRepos(t *testing.T) (*ServiceRequestPostgresRepository, *QuotePostgresRepository) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := database.ConnectPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewServiceRequestPostgresRepository(pool), NewQuotePostgresRepository(pool)
}

func TestPostgresRepositories_ConcurrentAccept(t *testing.T) {
	requests, quotes := newPostgresRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sr, err := requests.Create(ctx, entities.ServiceRequest{
		ID: uuid.NewString(), ClientID: "c1", Category: "Plumbing", Description: "leak", Location: "SP",
		Status: entities.ServiceRequestStatusAwaiting, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	t.Cleanup(func() { _ = requests.Delete(context.Background(), sr.ID) })

	const n = 8
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		q, err := quotes.Create(ctx, entities.Quote{
			ID: uuid.NewString(), ServiceRequestID: sr.ID, ProviderID: fmt.Sprintf("p%d", i),
			Limits:        entities.PriceRange{Minimum: 210, Suggested: 300, Maximum: 450},
			ProposedValue: 300, ExecutionDeadline: "tomorrow", Status: entities.QuoteStatusAwaiting,
			CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("create quote: %v", err)
		}
		ids = append(ids, q.ID)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := quotes.Accept(ctx, id, time.Now().UTC())
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			if !errors.Is(err, interfaces.ErrConditionFailed) {
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if err := requests.Delete(ctx, sr.ID); !errors.Is(err, interfaces.ErrConditionFailed) {
		t.Fatalf("expected delete to be refused with a winner, got %v", err)
	}
}
