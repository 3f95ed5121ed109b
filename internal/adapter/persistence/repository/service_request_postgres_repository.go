package repository

import (
	"context"
	"errors"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceRequestColumns = `id, client_id, category, description, location, desired_deadline, additional_info, status, created_at, updated_at`

// ServiceRequestPostgresRepository persists ServiceRequest entities in Postgres.
// Quotes cascade through the quotes.service_request_id foreign key.
type ServiceRequestPostgresRepository struct {
	pool *pgxpool.Pool
}

var _ interfaces.IServiceRequestRepository = (*ServiceRequestPostgresRepository)(nil)

func NewServiceRequestPostgresRepository(pool *pgxpool.Pool) *ServiceRequestPostgresRepository {
	return &ServiceRequestPostgresRepository{pool: pool}
}

func (r *ServiceRequestPostgresRepository) Create(ctx context.Context, sr entities.ServiceRequest) (entities.ServiceRequest, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO service_requests (`+serviceRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		sr.ID, sr.ClientID, sr.Category, sr.Description, sr.Location,
		sr.DesiredDeadline, sr.AdditionalInfo, string(sr.Status), sr.CreatedAt, sr.UpdatedAt,
	)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	if tag.RowsAffected() == 0 {
		return entities.ServiceRequest{}, interfaces.ErrConditionFailed
	}
	return sr, nil
}

func (r *ServiceRequestPostgresRepository) GetByID(ctx context.Context, id string) (entities.ServiceRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+serviceRequestColumns+` FROM service_requests WHERE id = $1`, id)
	sr, err := scanServiceRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.ServiceRequest{}, nil
	}
	return sr, err
}

func (r *ServiceRequestPostgresRepository) ListByClientID(ctx context.Context, clientID string) ([]entities.ServiceRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceRequestColumns+`
		FROM service_requests
		WHERE client_id = $1
		ORDER BY created_at DESC, id`, clientID)
	if err != nil {
		return nil, err
	}
	return collectServiceRequests(rows)
}

func (r *ServiceRequestPostgresRepository) ListOpenByCategories(ctx context.Context, categories []string) ([]entities.ServiceRequest, error) {
	if categories == nil {
		categories = []string{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceRequestColumns+`
		FROM service_requests
		WHERE status = ANY($1)
		  AND (cardinality($2::text[]) = 0 OR category = ANY($2::text[]))
		ORDER BY created_at DESC, id`,
		statusStrings(entities.OpenServiceRequestStatuses), categories,
	)
	if err != nil {
		return nil, err
	}
	return collectServiceRequests(rows)
}

func (r *ServiceRequestPostgresRepository) UpdateStatus(ctx context.Context, id string, from []entities.ServiceRequestStatus, to entities.ServiceRequestStatus) (entities.ServiceRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE service_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+serviceRequestColumns,
		id, string(to), statusStrings(from),
	)
	sr, err := scanServiceRequest(row)
	if err == nil {
		return sr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return entities.ServiceRequest{}, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil || current.ID == "" {
		return entities.ServiceRequest{}, err
	}
	return entities.ServiceRequest{}, interfaces.ErrConditionFailed
}

func (r *ServiceRequestPostgresRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := lockServiceRequest(ctx, tx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		hasWinner, err := requestHasWinner(ctx, tx, id)
		if err != nil {
			return err
		}
		if hasWinner {
			return interfaces.ErrConditionFailed
		}
		_, err = tx.Exec(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
		return err
	})
}

// lockServiceRequest takes the row lock every compound write starts with.
func lockServiceRequest(ctx context.Context, tx pgx.Tx, id string) (entities.ServiceRequestStatus, error) {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM service_requests WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	return entities.ServiceRequestStatus(status), err
}

func requestHasWinner(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM quotes
			WHERE service_request_id = $1 AND status IN ('accepted', 'completed')
		)`, id).Scan(&exists)
	return exists, err
}

func scanServiceRequest(row pgx.Row) (entities.ServiceRequest, error) {
	var (
		sr     entities.ServiceRequest
		status string
	)
	err := row.Scan(&sr.ID, &sr.ClientID, &sr.Category, &sr.Description, &sr.Location,
		&sr.DesiredDeadline, &sr.AdditionalInfo, &status, &sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return entities.ServiceRequest{}, err
	}
	sr.Status = entities.ServiceRequestStatus(status)
	return sr, nil
}

func collectServiceRequests(rows pgx.Rows) ([]entities.ServiceRequest, error) {
	defer rows.Close()
	out := make([]entities.ServiceRequest, 0)
	for rows.Next() {
		sr, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
