package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// CallRepository encapsulates call record persistence.
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, id string) (*domain.Call, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Call, error)
}

type callRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository instantiates repository.
func NewCallRepository(pool *pgxpool.Pool) CallRepository {
	return &callRepository{pool: pool}
}

func (r *callRepository) Create(ctx context.Context, call *domain.Call) error {
	const query = `
        INSERT INTO calls (id, caller_id, customer_id, transcript, intent)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		call.ID,
		call.CallerID,
		call.CustomerID,
		call.Transcript,
		call.Intent,
	).Scan(&call.CreatedAt)
}

func (r *callRepository) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	const query = `
        SELECT id, caller_id, customer_id, transcript, intent, created_at
        FROM calls WHERE id=$1`
	var call domain.Call
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&call.ID,
		&call.CallerID,
		&call.CustomerID,
		&call.Transcript,
		&call.Intent,
		&call.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &call, nil
}

func (r *callRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Call, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, caller_id, customer_id, transcript, intent, created_at
        FROM calls WHERE customer_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Call
	for rows.Next() {
		var call domain.Call
		if err := rows.Scan(
			&call.ID,
			&call.CallerID,
			&call.CustomerID,
			&call.Transcript,
			&call.Intent,
			&call.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, call)
	}
	return result, rows.Err()
}
