package repository

import (
	"context"
	"errors"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const quoteColumns = `id, service_request_id, provider_id, min_price, suggested_price, max_price, predicted_category,
	proposed_value, execution_deadline, remarks, conditions, status, started_at, finished_at, created_at, updated_at`

// QuotePostgresRepository persists Quote entities in Postgres. Every compound
// write runs in one transaction that first locks the parent request row, so
// concurrent accepts, creates and deletes on a request are serialized.
type QuotePostgresRepository struct {
	pool *pgxpool.Pool
}

var _ interfaces.IQuoteRepository = (*QuotePostgresRepository)(nil)

func NewQuotePostgresRepository(pool *pgxpool.Pool) *QuotePostgresRepository {
	return &QuotePostgresRepository{pool: pool}
}

func (r *QuotePostgresRepository) Create(ctx context.Context, q entities.Quote) (entities.Quote, error) {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		status, err := lockServiceRequest(ctx, tx, q.ServiceRequestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return interfaces.ErrConditionFailed
			}
			return err
		}
		if !status.IsOpen() {
			return interfaces.ErrConditionFailed
		}
		hasWinner, err := requestHasWinner(ctx, tx, q.ServiceRequestID)
		if err != nil {
			return err
		}
		if hasWinner {
			return interfaces.ErrConditionFailed
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO quotes (`+quoteColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (id) DO NOTHING`,
			q.ID, q.ServiceRequestID, q.ProviderID,
			q.Limits.Minimum, q.Limits.Suggested, q.Limits.Maximum, q.Limits.PredictedCategory,
			q.ProposedValue, q.ExecutionDeadline, q.Remarks, q.Conditions, string(q.Status),
			q.StartedAt, q.FinishedAt, q.CreatedAt, q.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return interfaces.ErrConditionFailed
		}

		_, err = tx.Exec(ctx, `
			UPDATE service_requests SET status = 'with_quotes', updated_at = $2
			WHERE id = $1 AND status = 'awaiting'`, q.ServiceRequestID, q.CreatedAt)
		return err
	})
	if err != nil {
		return entities.Quote{}, err
	}
	return q, nil
}

func (r *QuotePostgresRepository) GetByID(ctx context.Context, id string) (entities.Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Quote{}, nil
	}
	return q, err
}

func (r *QuotePostgresRepository) ListByProviderID(ctx context.Context, providerID string) ([]entities.Quote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE provider_id = $1
		ORDER BY created_at DESC, id`, providerID)
	if err != nil {
		return nil, err
	}
	return collectQuotes(rows)
}

func (r *QuotePostgresRepository) ListByServiceRequestID(ctx context.Context, serviceRequestID string) ([]entities.Quote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE service_request_id = $1
		ORDER BY proposed_value ASC, created_at ASC, id`, serviceRequestID)
	if err != nil {
		return nil, err
	}
	return collectQuotes(rows)
}

func (r *QuotePostgresRepository) CountByServiceRequestID(ctx context.Context, serviceRequestID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE service_request_id = $1`, serviceRequestID).Scan(&n)
	return n, err
}

func (r *QuotePostgresRepository) Accept(ctx context.Context, id string, at time.Time) (entities.Quote, error) {
	var accepted entities.Quote
	err := r.withQuoteRequestLock(ctx, id, func(tx pgx.Tx, q entities.Quote, requestStatus entities.ServiceRequestStatus) error {
		if q.Status != entities.QuoteStatusAwaiting || !requestStatus.IsOpen() {
			return interfaces.ErrConditionFailed
		}
		hasWinner, err := requestHasWinner(ctx, tx, q.ServiceRequestID)
		if err != nil {
			return err
		}
		if hasWinner {
			return interfaces.ErrConditionFailed
		}

		accepted, err = scanQuote(tx.QueryRow(ctx, `
			UPDATE quotes SET status = 'accepted', started_at = $2, updated_at = $2
			WHERE id = $1
			RETURNING `+quoteColumns, id, at))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE quotes SET status = 'rejected', updated_at = $3
			WHERE service_request_id = $1 AND id <> $2 AND status = 'awaiting'`,
			q.ServiceRequestID, id, at); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE service_requests SET status = 'with_quotes', updated_at = $2 WHERE id = $1`,
			q.ServiceRequestID, at)
		return err
	})
	return accepted, err
}

func (r *QuotePostgresRepository) Complete(ctx context.Context, id string, at time.Time) (entities.Quote, error) {
	var completed entities.Quote
	err := r.withQuoteRequestLock(ctx, id, func(tx pgx.Tx, q entities.Quote, requestStatus entities.ServiceRequestStatus) error {
		if q.Status != entities.QuoteStatusAccepted || !requestStatus.IsOpen() {
			return interfaces.ErrConditionFailed
		}
		var err error
		completed, err = scanQuote(tx.QueryRow(ctx, `
			UPDATE quotes SET status = 'completed', finished_at = $2, updated_at = $2
			WHERE id = $1
			RETURNING `+quoteColumns, id, at))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE service_requests SET status = 'closed', updated_at = $2 WHERE id = $1`,
			q.ServiceRequestID, at)
		return err
	})
	return completed, err
}

func (r *QuotePostgresRepository) Delete(ctx context.Context, id string) error {
	return r.withQuoteRequestLock(ctx, id, func(tx pgx.Tx, q entities.Quote, requestStatus entities.ServiceRequestStatus) error {
		if q.Status != entities.QuoteStatusAwaiting {
			return interfaces.ErrConditionFailed
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id); err != nil {
			return err
		}
		if requestStatus != entities.ServiceRequestStatusWithQuotes {
			return nil
		}
		_, err := tx.Exec(ctx, `
			UPDATE service_requests SET status = 'awaiting', updated_at = NOW()
			WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM quotes WHERE service_request_id = $1)`,
			q.ServiceRequestID)
		return err
	})
}

// withQuoteRequestLock locks the quote's parent request, re-reads the quote
// under that lock and hands both to fn inside one transaction. A missing quote
// is a no-op and leaves the caller's result at its zero value.
func (r *QuotePostgresRepository) withQuoteRequestLock(
	ctx context.Context,
	id string,
	fn func(tx pgx.Tx, q entities.Quote, requestStatus entities.ServiceRequestStatus) error,
) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var requestID string
		err := tx.QueryRow(ctx, `SELECT service_request_id FROM quotes WHERE id = $1`, id).Scan(&requestID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		requestStatus, err := lockServiceRequest(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		q, err := scanQuote(tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return fn(tx, q, requestStatus)
	})
}

func scanQuote(row pgx.Row) (entities.Quote, error) {
	var (
		q      entities.Quote
		status string
	)
	err := row.Scan(&q.ID, &q.ServiceRequestID, &q.ProviderID,
		&q.Limits.Minimum, &q.Limits.Suggested, &q.Limits.Maximum, &q.Limits.PredictedCategory,
		&q.ProposedValue, &q.ExecutionDeadline, &q.Remarks, &q.Conditions, &status,
		&q.StartedAt, &q.FinishedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return entities.Quote{}, err
	}
	q.Status = entities.QuoteStatus(status)
	return q, nil
}

func collectQuotes(rows pgx.Rows) ([]entities.Quote, error) {
	defer rows.Close()
	out := make([]entities.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
