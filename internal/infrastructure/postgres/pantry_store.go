package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pantrypal/backend/internal/domain"
)

// PantryStore is a domain.PantryStore backed by the pantry_items table
type PantryStore struct {
	pool *pgxpool.Pool
}

// NewPantryStore creates a pantry store on the pool
func NewPantryStore(pool *pgxpool.Pool) *PantryStore {
	return &PantryStore{pool: pool}
}

// List returns the owner's items oldest first
func (s *PantryStore) List(ctx context.Context, ownerID string) ([]domain.PantryItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, quantity, unit, category, expiry_date, created_at, updated_at
		FROM pantry_items
		WHERE owner_id = $1
		ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.PantryItem{}
	for rows.Next() {
		var (
			item     domain.PantryItem
			category string
			expiry   *time.Time
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Unit, &category, &expiry, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Category = domain.ParseCategory(category)
		if expiry != nil {
			d := domain.DateOf(*expiry)
			item.ExpiryDate = &d
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create inserts an item with a fresh id
func (s *PantryStore) Create(ctx context.Context, ownerID string, item domain.PantryItem) (*domain.PantryItem, error) {
	item.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO pantry_items (id, owner_id, name, quantity, unit, category, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, item.ID, ownerID, item.Name, item.Quantity, item.Unit, string(item.Category), dateParam(item.ExpiryDate)).
		Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies the set fields of patch
func (s *PantryStore) Update(ctx context.Context, ownerID, id string, patch domain.PantryItemPatch) error {
	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE pantry_items SET
			name = COALESCE($3, name),
			quantity = COALESCE($4, quantity),
			unit = COALESCE($5, unit),
			category = COALESCE($6, category),
			expiry_date = CASE WHEN $7::boolean THEN NULL ELSE COALESCE($8::date, expiry_date) END,
			updated_at = now()
		WHERE owner_id = $1 AND id = $2
	`, ownerID, id, patch.Name, patch.Quantity, patch.Unit, category, patch.ClearExpiry, dateParam(patch.ExpiryDate))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an item
func (s *PantryStore) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pantry_items WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func dateParam(d *domain.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
