package usecase

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
)

// EntryEdit changes a shopping list entry's amount. Nil fields are kept.
type EntryEdit struct {
	Name     *string
	Quantity *float64
	Unit     *string
}

// ShoppingListService keeps an owner's shopping list reconciled with the
// selected recipes and the pantry
type ShoppingListService struct {
	lists    domain.ShoppingListStore
	recipes  domain.RecipeStore
	pantry   domain.PantryStore
	matching *MatchingService
	newID    func() string
	locks    ownerLocks
	log      *zap.Logger
}

// ownerLocks serializes read-modify-write cycles per owner within one process
type ownerLocks struct {
	mu    sync.Mutex
	owner map[string]*sync.Mutex
}

func (l *ownerLocks) lock(ownerID string) func() {
	l.mu.Lock()
	if l.owner == nil {
		l.owner = make(map[string]*sync.Mutex)
	}
	m, ok := l.owner[ownerID]
	if !ok {
		m = &sync.Mutex{}
		l.owner[ownerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// NewShoppingListService creates a new shopping list service
func NewShoppingListService(
	lists domain.ShoppingListStore,
	recipes domain.RecipeStore,
	pantry domain.PantryStore,
	matching *MatchingService,
	log *zap.Logger,
) *ShoppingListService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShoppingListService{
		lists:    lists,
		recipes:  recipes,
		pantry:   pantry,
		matching: matching,
		newID:    uuid.NewString,
		log:      log,
	}
}

// Get returns the list reconciled against current recipes and pantry,
// persisting it when reconciliation changed anything.
func (s *ShoppingListService) Get(ctx context.Context, ownerID string) (*domain.ShoppingListState, error) {
	return s.mutate(ctx, ownerID, func(*domain.ShoppingListState) error { return nil })
}

// SelectRecipes replaces the recipe selection. Unknown ids are rejected.
func (s *ShoppingListService) SelectRecipes(ctx context.Context, ownerID string, ids []string) (*domain.ShoppingListState, error) {
	recipes, err := s.recipes.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	known := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		known[r.ID] = true
	}
	selection := []string{}
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: recipe %s", domain.ErrNotFound, id)
		}
		selection = appendUnique(selection, id)
	}

	return s.mutate(ctx, ownerID, func(state *domain.ShoppingListState) error {
		state.SelectedRecipeIDs = selection
		return nil
	})
}

// AddCustom appends a user-typed entry that never merges with others
func (s *ShoppingListService) AddCustom(ctx context.Context, ownerID, name string, quantity float64, unit string) (*domain.ShoppingListState, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidRequest)
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}

	return s.mutate(ctx, ownerID, func(state *domain.ShoppingListState) error {
		state.Items = append(state.Items, domain.ShoppingListEntry{
			ID:       CustomEntryPrefix + s.newID(),
			Name:     name,
			Quantity: quantity,
			Unit:     strings.TrimSpace(unit),
			Recipes:  []string{},
			IsCustom: true,
		})
		return nil
	})
}

// EditEntry changes an entry. Recipe-derived entries record the change as
// an override that survives later reconciliation; their names are fixed.
func (s *ShoppingListService) EditEntry(ctx context.Context, ownerID, id string, edit EntryEdit) (*domain.ShoppingListState, error) {
	if edit.Quantity != nil {
		if err := validateQuantity(*edit.Quantity); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, ownerID, func(state *domain.ShoppingListState) error {
		e := findEntry(state, id)
		if e == nil {
			return fmt.Errorf("%w: shopping list entry %s", domain.ErrNotFound, id)
		}

		if e.IsCustom {
			if edit.Name != nil && strings.TrimSpace(*edit.Name) != "" {
				e.Name = strings.TrimSpace(*edit.Name)
			}
			if edit.Quantity != nil {
				e.Quantity = *edit.Quantity
			}
			if edit.Unit != nil {
				e.Unit = strings.TrimSpace(*edit.Unit)
			}
			return nil
		}

		if edit.Name != nil && EntryKey(*edit.Name) != e.ID {
			return fmt.Errorf("%w: recipe ingredients cannot be renamed", domain.ErrInvalidRequest)
		}
		override := domain.Amount{Quantity: e.Quantity, Unit: e.Unit}
		if edit.Quantity != nil {
			override.Quantity = *edit.Quantity
		}
		if edit.Unit != nil {
			override.Unit = strings.TrimSpace(*edit.Unit)
		}
		e.Override = &override
		e.Effective()
		return nil
	})
}

// RemoveEntry deletes an entry. Removed recipe-derived entries stay hidden
// until the ingredient stops being required.
func (s *ShoppingListService) RemoveEntry(ctx context.Context, ownerID, id string) (*domain.ShoppingListState, error) {
	return s.mutate(ctx, ownerID, func(state *domain.ShoppingListState) error {
		if findEntry(state, id) == nil {
			return fmt.Errorf("%w: shopping list entry %s", domain.ErrNotFound, id)
		}
		removeEntries(state, map[string]bool{id: true})
		return nil
	})
}

// ToggleChecked strikes an entry off or back on
func (s *ShoppingListService) ToggleChecked(ctx context.Context, ownerID, id string) (*domain.ShoppingListState, error) {
	return s.mutate(ctx, ownerID, func(state *domain.ShoppingListState) error {
		if findEntry(state, id) == nil {
			return fmt.Errorf("%w: shopping list entry %s", domain.ErrNotFound, id)
		}
		if state.IsChecked(id) {
			state.CheckedItems = without(state.CheckedItems, id)
		} else {
			state.CheckedItems = append(state.CheckedItems, id)
		}
		return nil
	})
}

// ClearChecked removes every checked entry
func (s *ShoppingListService) ClearChecked(ctx context.Context, ownerID string) (*domain.ShoppingListState, error) {
	return s.mutate(ctx, ownerID, func(state *domain.ShoppingListState) error {
		removeEntries(state, toSet(state.CheckedItems))
		return nil
	})
}

// Clear drops the whole list, including the recipe selection
func (s *ShoppingListService) Clear(ctx context.Context, ownerID string) error {
	defer s.locks.lock(ownerID)()
	return storeErr(s.lists.Clear(ctx, ownerID))
}

// ExportText renders the list one entry per line, checked entries marked ☑
func (s *ShoppingListService) ExportText(ctx context.Context, ownerID string) (string, error) {
	state, err := s.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return FormatShoppingList(*state), nil
}

// FormatShoppingList renders "☐ 2 cups Rice" style lines
func FormatShoppingList(state domain.ShoppingListState) string {
	var b strings.Builder
	for _, e := range state.Items {
		mark := "☐"
		if state.IsChecked(e.ID) {
			mark = "☑"
		}
		parts := []string{mark, strconv.FormatFloat(e.Quantity, 'f', -1, 64)}
		if e.Unit != "" {
			parts = append(parts, e.Unit)
		}
		parts = append(parts, e.Name)
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// mutate loads the state, applies fn, reconciles and persists when changed.
// Calls for the same owner run one at a time.
func (s *ShoppingListService) mutate(ctx context.Context, ownerID string, fn func(*domain.ShoppingListState) error) (*domain.ShoppingListState, error) {
	defer s.locks.lock(ownerID)()

	current, err := s.lists.Get(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if current == nil {
		empty := domain.EmptyShoppingList()
		current = &empty
	}
	recipes, err := s.recipes.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	pantry, err := s.pantry.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}

	working := s.matching.Reconcile(*current, recipes, pantry)
	if err := fn(&working); err != nil {
		return nil, err
	}
	next := s.matching.Reconcile(working, recipes, pantry)

	if !reflect.DeepEqual(normalizeState(*current), next) {
		if err := s.lists.Put(ctx, ownerID, next); err != nil {
			return nil, storeErr(err)
		}
		s.log.Debug("shopping list saved",
			zap.String("owner", ownerID),
			zap.Int("items", len(next.Items)),
			zap.Int("checked", len(next.CheckedItems)))
	}
	return &next, nil
}

func findEntry(state *domain.ShoppingListState, id string) *domain.ShoppingListEntry {
	for i := range state.Items {
		if state.Items[i].ID == id {
			return &state.Items[i]
		}
	}
	return nil
}

// removeEntries drops entries by id and remembers recipe-derived ones
func removeEntries(state *domain.ShoppingListState, ids map[string]bool) {
	kept := state.Items[:0]
	for _, e := range state.Items {
		if !ids[e.ID] {
			kept = append(kept, e)
			continue
		}
		if !e.IsCustom {
			state.RemovedItems = appendUnique(state.RemovedItems, e.ID)
		}
		state.CheckedItems = without(state.CheckedItems, e.ID)
	}
	state.Items = kept
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// normalizeState gives nil slices their empty value so stored and
// reconciled states compare equal
func normalizeState(s domain.ShoppingListState) domain.ShoppingListState {
	if s.Items == nil {
		s.Items = []domain.ShoppingListEntry{}
	}
	if s.CheckedItems == nil {
		s.CheckedItems = []string{}
	}
	if s.SelectedRecipeIDs == nil {
		s.SelectedRecipeIDs = []string{}
	}
	if s.RemovedItems == nil {
		s.RemovedItems = []string{}
	}
	return s
}
