// Package memory holds process-local stores used in development and tests.
// Data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pantrypal/backend/internal/domain"
)

// PantryStore is a thread-safe in-memory domain.PantryStore
type PantryStore struct {
	mutex sync.RWMutex
	items map[string][]domain.PantryItem
	now   func() time.Time
}

// NewPantryStore creates an empty pantry store
func NewPantryStore() *PantryStore {
	return &PantryStore{items: make(map[string][]domain.PantryItem), now: time.Now}
}

// List returns a copy of the owner's items in insertion order
func (s *PantryStore) List(ctx context.Context, ownerID string) ([]domain.PantryItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]domain.PantryItem, len(s.items[ownerID]))
	copy(out, s.items[ownerID])
	return out, nil
}

// Create assigns an id and timestamps and stores the item
func (s *PantryStore) Create(ctx context.Context, ownerID string, item domain.PantryItem) (*domain.PantryItem, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now().UTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[ownerID] = append(s.items[ownerID], item)
	return &item, nil
}

// Update applies a partial update
func (s *PantryStore) Update(ctx context.Context, ownerID, id string, patch domain.PantryItemPatch) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	items := s.items[ownerID]
	for i := range items {
		if items[i].ID == id {
			patch.Apply(&items[i])
			items[i].UpdatedAt = s.now().UTC()
			return nil
		}
	}
	return domain.ErrNotFound
}

// Delete removes an item
func (s *PantryStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	items := s.items[ownerID]
	for i := range items {
		if items[i].ID == id {
			s.items[ownerID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// RecipeStore is a thread-safe in-memory domain.RecipeStore
type RecipeStore struct {
	mutex   sync.RWMutex
	recipes map[string][]domain.Recipe
	now     func() time.Time
}

// NewRecipeStore creates an empty recipe store
func NewRecipeStore() *RecipeStore {
	return &RecipeStore{recipes: make(map[string][]domain.Recipe), now: time.Now}
}

// List returns the owner's recipes in insertion order
func (s *RecipeStore) List(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]domain.Recipe, len(s.recipes[ownerID]))
	copy(out, s.recipes[ownerID])
	return out, nil
}

// Get returns one recipe
func (s *RecipeStore) Get(ctx context.Context, ownerID, id string) (*domain.Recipe, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, r := range s.recipes[ownerID] {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create assigns an id and stores the recipe
func (s *RecipeStore) Create(ctx context.Context, ownerID string, recipe domain.Recipe) (*domain.Recipe, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	recipe.ID = uuid.NewString()
	recipe.CreatedAt = s.now().UTC()
	s.recipes[ownerID] = append(s.recipes[ownerID], recipe)
	return &recipe, nil
}

// Delete removes a recipe
func (s *RecipeStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	recipes := s.recipes[ownerID]
	for i := range recipes {
		if recipes[i].ID == id {
			s.recipes[ownerID] = append(recipes[:i:i], recipes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ShoppingListStore is a thread-safe in-memory domain.ShoppingListStore
type ShoppingListStore struct {
	mutex sync.RWMutex
	lists map[string]domain.ShoppingListState
}

// NewShoppingListStore creates an empty shopping list store
func NewShoppingListStore() *ShoppingListStore {
	return &ShoppingListStore{lists: make(map[string]domain.ShoppingListState)}
}

// Get returns the owner's list, or an empty one
func (s *ShoppingListStore) Get(ctx context.Context, ownerID string) (*domain.ShoppingListState, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state, ok := s.lists[ownerID]
	if !ok {
		empty := domain.EmptyShoppingList()
		return &empty, nil
	}
	cp := cloneState(state)
	return &cp, nil
}

// Put replaces the owner's list
func (s *ShoppingListStore) Put(ctx context.Context, ownerID string, state domain.ShoppingListState) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lists[ownerID] = cloneState(state)
	return nil
}

// Clear drops the owner's list
func (s *ShoppingListStore) Clear(ctx context.Context, ownerID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.lists, ownerID)
	return nil
}

// cloneState deep-copies the slices so callers cannot mutate stored state
func cloneState(state domain.ShoppingListState) domain.ShoppingListState {
	out := domain.ShoppingListState{
		Items:             make([]domain.ShoppingListEntry, len(state.Items)),
		CheckedItems:      append([]string{}, state.CheckedItems...),
		SelectedRecipeIDs: append([]string{}, state.SelectedRecipeIDs...),
		RemovedItems:      append([]string{}, state.RemovedItems...),
	}
	for i, e := range state.Items {
		e.Recipes = append([]string{}, e.Recipes...)
		if e.Sourced != nil {
			sourced := *e.Sourced
			e.Sourced = &sourced
		}
		if e.Override != nil {
			override := *e.Override
			e.Override = &override
		}
		out.Items[i] = e
	}
	return out
}
