package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callwise/voice-scheduler/internal/domain"
)

// KnowledgeRepository encapsulates knowledge item persistence.
type KnowledgeRepository interface {
	Create(ctx context.Context, item *domain.KnowledgeItem) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	Update(ctx context.Context, item *domain.KnowledgeItem) error
	Deactivate(ctx context.Context, id string) (bool, error)
	ListActive(ctx context.Context) ([]domain.KnowledgeItem, error)
}

type knowledgeRepository struct {
	pool *pgxpool.Pool
}

// NewKnowledgeRepository instantiates repository.
func NewKnowledgeRepository(pool *pgxpool.Pool) KnowledgeRepository {
	return &knowledgeRepository{pool: pool}
}

func (r *knowledgeRepository) Create(ctx context.Context, item *domain.KnowledgeItem) error {
	const query = `
        INSERT INTO knowledge_items (id, title, content, category, tags, version, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.ID,
		item.Title,
		item.Content,
		item.Category,
		item.Tags,
		item.Version,
		item.IsActive,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *knowledgeRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	const query = `
        SELECT id, title, content, category, tags, version, is_active, created_at, updated_at
        FROM knowledge_items WHERE id=$1`
	var item domain.KnowledgeItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Title,
		&item.Content,
		&item.Category,
		&item.Tags,
		&item.Version,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *knowledgeRepository) Update(ctx context.Context, item *domain.KnowledgeItem) error {
	const query = `
        UPDATE knowledge_items
        SET title=$2, content=$3, category=$4, tags=$5, version=$6, updated_at=NOW()
        WHERE id=$1
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		item.ID,
		item.Title,
		item.Content,
		item.Category,
		item.Tags,
		item.Version,
	).Scan(&item.UpdatedAt)
}

func (r *knowledgeRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE knowledge_items SET is_active=FALSE, updated_at=NOW() WHERE id=$1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *knowledgeRepository) ListActive(ctx context.Context) ([]domain.KnowledgeItem, error) {
	const query = `
        SELECT id, title, content, category, tags, version, is_active, created_at, updated_at
        FROM knowledge_items WHERE is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.KnowledgeItem
	for rows.Next() {
		var item domain.KnowledgeItem
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Content,
			&item.Category,
			&item.Tags,
			&item.Version,
			&item.IsActive,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
