// Package bolt implements the stores on a single bbolt file. Each owner gets
// a nested bucket; values are JSON.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/pantrypal/backend/internal/domain"
)

var (
	pantryBucket   = []byte("pantry")
	recipesBucket  = []byte("recipes")
	shoppingBucket = []byte("shopping_lists")
)

// Open opens or creates the database file and its top-level buckets
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{pantryBucket, recipesBucket, shoppingBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return db, nil
}

// ownerBucket returns the owner's bucket under root, or nil when absent and create is false
func ownerBucket(tx *bbolt.Tx, root []byte, ownerID string, create bool) (*bbolt.Bucket, error) {
	parent := tx.Bucket(root)
	if !create {
		return parent.Bucket([]byte(ownerID)), nil
	}
	return parent.CreateBucketIfNotExists([]byte(ownerID))
}

// PantryStore is a domain.PantryStore on bbolt
type PantryStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewPantryStore creates a pantry store on db
func NewPantryStore(db *bbolt.DB) *PantryStore {
	return &PantryStore{db: db, now: time.Now}
}

// List returns the owner's items oldest first
func (s *PantryStore) List(ctx context.Context, ownerID string) ([]domain.PantryItem, error) {
	items := []domain.PantryItem{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _ := ownerBucket(tx, pantryBucket, ownerID, false)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var item domain.PantryItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode pantry item %s: %w", k, err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Create stores an item with a fresh id
func (s *PantryStore) Create(ctx context.Context, ownerID string, item domain.PantryItem) (*domain.PantryItem, error) {
	now := s.now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := ownerBucket(tx, pantryBucket, ownerID, true)
		if err != nil {
			return err
		}
		return putJSON(b, item.ID, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies the set fields of patch
func (s *PantryStore) Update(ctx context.Context, ownerID, id string, patch domain.PantryItemPatch) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, _ := ownerBucket(tx, pantryBucket, ownerID, false)
		if b == nil {
			return domain.ErrNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return domain.ErrNotFound
		}
		var item domain.PantryItem
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("decode pantry item %s: %w", id, err)
		}
		patch.Apply(&item)
		item.UpdatedAt = s.now().UTC()
		return putJSON(b, id, item)
	})
}

// Delete removes an item
func (s *PantryStore) Delete(ctx context.Context, ownerID, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteKey(tx, pantryBucket, ownerID, id)
	})
}

// RecipeStore is a domain.RecipeStore on bbolt
type RecipeStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewRecipeStore creates a recipe store on db
func NewRecipeStore(db *bbolt.DB) *RecipeStore {
	return &RecipeStore{db: db, now: time.Now}
}

// List returns the owner's recipes oldest first
func (s *RecipeStore) List(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	recipes := []domain.Recipe{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _ := ownerBucket(tx, recipesBucket, ownerID, false)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var r domain.Recipe
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode recipe %s: %w", k, err)
			}
			recipes = append(recipes, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		if !recipes[i].CreatedAt.Equal(recipes[j].CreatedAt) {
			return recipes[i].CreatedAt.Before(recipes[j].CreatedAt)
		}
		return recipes[i].ID < recipes[j].ID
	})
	return recipes, nil
}

// Get returns one recipe
func (s *RecipeStore) Get(ctx context.Context, ownerID, id string) (*domain.Recipe, error) {
	var r domain.Recipe
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _ := ownerBucket(tx, recipesBucket, ownerID, false)
		if b == nil {
			return domain.ErrNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return domain.ErrNotFound
		}
		return json.Unmarshal(v, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create stores a recipe with a fresh id
func (s *RecipeStore) Create(ctx context.Context, ownerID string, recipe domain.Recipe) (*domain.Recipe, error) {
	recipe.ID = uuid.NewString()
	recipe.CreatedAt = s.now().UTC()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := ownerBucket(tx, recipesBucket, ownerID, true)
		if err != nil {
			return err
		}
		return putJSON(b, recipe.ID, recipe)
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Delete removes a recipe
func (s *RecipeStore) Delete(ctx context.Context, ownerID, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteKey(tx, recipesBucket, ownerID, id)
	})
}

// ShoppingListStore keeps one JSON state per owner key
type ShoppingListStore struct {
	db *bbolt.DB
}

// NewShoppingListStore creates a shopping list store on db
func NewShoppingListStore(db *bbolt.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

// Get returns the owner's list, or an empty one
func (s *ShoppingListStore) Get(ctx context.Context, ownerID string) (*domain.ShoppingListState, error) {
	state := domain.EmptyShoppingList()
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(shoppingBucket).Get([]byte(ownerID))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &state)
	})
	if err != nil {
		return nil, fmt.Errorf("decode shopping list: %w", err)
	}
	return &state, nil
}

// Put replaces the owner's list
func (s *ShoppingListStore) Put(ctx context.Context, ownerID string, state domain.ShoppingListState) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(shoppingBucket), ownerID, state)
	})
}

// Clear drops the owner's list
func (s *ShoppingListStore) Clear(ctx context.Context, ownerID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(shoppingBucket).Delete([]byte(ownerID))
	})
}

func putJSON(b *bbolt.Bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func deleteKey(tx *bbolt.Tx, root []byte, ownerID, id string) error {
	b, _ := ownerBucket(tx, root, ownerID, false)
	if b == nil || b.Get([]byte(id)) == nil {
		return domain.ErrNotFound
	}
	return b.Delete([]byte(id))
}
