package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stashbox/internal/common"
	"stashbox/internal/domain/model"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id string) error
}

type pgItemRepository struct {
	db *sql.DB
}

func NewPgItemRepository(db *sql.DB) ItemRepository {
	return &pgItemRepository{db: db}
}

// Tags live in a jsonb column so their order survives the round trip.
func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func (r *pgItemRepository) Create(ctx context.Context, item *model.Item) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Create: encode tags: %w", err)
	}

	query := `INSERT INTO items (id, title, slug, description, tags, owner_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		item.ID, item.Title, item.Slug, item.Description, tags, item.OwnerID,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Create: %w", err)
	}
	return nil
}

func (r *pgItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	query := `SELECT id, title, slug, description, tags, owner_id, created_at, updated_at
	          FROM items WHERE id = $1`
	item := &model.Item{}
	var tags []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Title, &item.Slug, &item.Description, &tags,
		&item.OwnerID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgItemRepository.FindByID: %w", err)
	}
	if err := json.Unmarshal(tags, &item.Tags); err != nil {
		return nil, fmt.Errorf("pgItemRepository.FindByID: decode tags: %w", err)
	}
	return item, nil
}

func (r *pgItemRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Item, error) {
	query := `SELECT id, title, slug, description, tags, owner_id, created_at, updated_at
	          FROM items WHERE owner_id = $1 ORDER BY created_at LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgItemRepository.ListByOwner: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		var tags []byte
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Slug, &item.Description, &tags,
			&item.OwnerID, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgItemRepository.ListByOwner: %w", err)
		}
		if err := json.Unmarshal(tags, &item.Tags); err != nil {
			return nil, fmt.Errorf("pgItemRepository.ListByOwner: decode tags: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgItemRepository.ListByOwner: %w", err)
	}
	return items, nil
}

func (r *pgItemRepository) Update(ctx context.Context, item *model.Item) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Update: encode tags: %w", err)
	}

	query := `UPDATE items SET
	            title = $1, slug = $2, description = $3, tags = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, item.Title, item.Slug, item.Description, tags, item.ID)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Update: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgItemRepository.Delete: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
