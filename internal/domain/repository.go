package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PantryStore persists pantry items per owner
type PantryStore interface {
	List(ctx context.Context, ownerID string) ([]PantryItem, error)
	Create(ctx context.Context, ownerID string, item PantryItem) (*PantryItem, error)
	Update(ctx context.Context, ownerID, id string, patch PantryItemPatch) error
	Delete(ctx context.Context, ownerID, id string) error
}

// RecipeStore persists recipes per owner
type RecipeStore interface {
	List(ctx context.Context, ownerID string) ([]Recipe, error)
	Get(ctx context.Context, ownerID, id string) (*Recipe, error)
	Create(ctx context.Context, ownerID string, recipe Recipe) (*Recipe, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ShoppingListStore is the durable home of merged entries and check state.
// Get returns an empty state when the owner has none.
type ShoppingListStore interface {
	Get(ctx context.Context, ownerID string) (*ShoppingListState, error)
	Put(ctx context.Context, ownerID string, state ShoppingListState) error
	Clear(ctx context.Context, ownerID string) error
}

// RecipeProvider imports and generates recipes through an external service
type RecipeProvider interface {
	FromURL(ctx context.Context, url string) (*Recipe, error)
	Suggestions(ctx context.Context, pantryCSV string) ([]Recipe, error)
	SearchByName(ctx context.Context, query string) ([]Recipe, error)
}

// ReceiptScanner extracts candidate pantry items from a receipt image.
// Candidates carry a provisional category and no expiry date.
type ReceiptScanner interface {
	Extract(ctx context.Context, image []byte, filename string) ([]PantryItem, error)
}
