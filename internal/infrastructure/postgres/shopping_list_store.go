package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pantrypal/backend/internal/domain"
)

// ShoppingListStore keeps one JSON state document per owner
type ShoppingListStore struct {
	pool *pgxpool.Pool
}

// NewShoppingListStore creates a shopping list store on the pool
func NewShoppingListStore(pool *pgxpool.Pool) *ShoppingListStore {
	return &ShoppingListStore{pool: pool}
}

// Get returns the owner's list, or an empty one
func (s *ShoppingListStore) Get(ctx context.Context, ownerID string) (*domain.ShoppingListState, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM shopping_lists WHERE owner_id = $1`, ownerID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		empty := domain.EmptyShoppingList()
		return &empty, nil
	}
	if err != nil {
		return nil, err
	}

	state := domain.EmptyShoppingList()
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("decode shopping list: %w", err)
	}
	return &state, nil
}

// Put replaces the owner's list
func (s *ShoppingListStore) Put(ctx context.Context, ownerID string, state domain.ShoppingListState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode shopping list: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO shopping_lists (owner_id, state, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (owner_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()
	`, ownerID, doc)
	return err
}

// Clear drops the owner's list
func (s *ShoppingListStore) Clear(ctx context.Context, ownerID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM shopping_lists WHERE owner_id = $1`, ownerID)
	return err
}
