package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pantrypal/backend/internal/domain"
)

// RecipeStore keeps recipes as JSON documents in the recipes table
type RecipeStore struct {
	pool *pgxpool.Pool
}

// NewRecipeStore creates a recipe store on the pool
func NewRecipeStore(pool *pgxpool.Pool) *RecipeStore {
	return &RecipeStore{pool: pool}
}

// List returns the owner's recipes oldest first
func (s *RecipeStore) List(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, doc, created_at FROM recipes WHERE owner_id = $1 ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []domain.Recipe{}
	for rows.Next() {
		var (
			r   domain.Recipe
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc, &r.CreatedAt); err != nil {
			return nil, err
		}
		createdAt := r.CreatedAt
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", id, err)
		}
		r.ID, r.CreatedAt = id, createdAt
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// Get returns one recipe
func (s *RecipeStore) Get(ctx context.Context, ownerID, id string) (*domain.Recipe, error) {
	var r domain.Recipe
	var doc []byte
	err := s.pool.QueryRow(ctx, `
		SELECT doc, created_at FROM recipes WHERE owner_id = $1 AND id = $2
	`, ownerID, id).Scan(&doc, &r.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	createdAt := r.CreatedAt
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	r.ID, r.CreatedAt = id, createdAt
	return &r, nil
}

// Create stores a recipe with a fresh id
func (s *RecipeStore) Create(ctx context.Context, ownerID string, recipe domain.Recipe) (*domain.Recipe, error) {
	recipe.ID = uuid.NewString()
	doc, err := json.Marshal(recipe)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO recipes (id, owner_id, doc) VALUES ($1, $2, $3) RETURNING created_at
	`, recipe.ID, ownerID, doc).Scan(&recipe.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Delete removes a recipe
func (s *RecipeStore) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
