package usecase

import (
	"strings"

	"github.com/pantrypal/backend/internal/domain"
)

// CustomEntryPrefix marks ids of user-typed shopping list entries
const CustomEntryPrefix = "custom-"

// EntryKey is the merge key of recipe-derived shopping list entries
func EntryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SelectRecipes returns the recipes whose id is in ids, in collection order
func SelectRecipes(recipes []domain.Recipe, ids []string) []domain.Recipe {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	selected := make([]domain.Recipe, 0, len(ids))
	for _, r := range recipes {
		if want[r.ID] {
			selected = append(selected, r)
		}
	}
	return selected
}

// AggregateMissing merges the missing ingredients of the given recipes into
// one entry per distinct lowercase name. Quantities are summed as raw numbers
// and the unit of the first contributor is kept.
func (s *MatchingService) AggregateMissing(recipes []domain.Recipe, pantry []domain.PantryItem) []domain.ShoppingListEntry {
	entries := []domain.ShoppingListEntry{}
	index := make(map[string]int)

	for _, recipe := range recipes {
		availability := s.Partition(recipe, pantry, false)
		for _, ing := range availability.Missing {
			key := EntryKey(ing.Name)
			if key == "" {
				continue
			}
			used := usageQuantity(s.log, ing)

			if i, ok := index[key]; ok {
				e := &entries[i]
				e.Sourced.Quantity += used
				e.Recipes = appendUnique(e.Recipes, recipe.Name)
				e.Effective()
				continue
			}

			e := domain.ShoppingListEntry{
				ID:      key,
				Name:    strings.TrimSpace(ing.Name),
				Recipes: []string{recipe.Name},
				Sourced: &domain.Amount{Quantity: used, Unit: ing.Unit},
			}
			e.Effective()
			index[key] = len(entries)
			entries = append(entries, e)
		}
	}
	return entries
}

// Reconcile recomputes the recipe-derived part of a shopping list for the
// recipes selected in prev.
//
// Custom entries are always kept. Entries still required get fresh sourced
// amounts and keep any user override. Entries no longer required survive
// only when checked or overridden. Newly required entries are appended
// unless the user removed them. Running Reconcile on its own output with
// the same inputs changes nothing.
func (s *MatchingService) Reconcile(prev domain.ShoppingListState, recipes []domain.Recipe, pantry []domain.PantryItem) domain.ShoppingListState {
	fresh := s.AggregateMissing(SelectRecipes(recipes, prev.SelectedRecipeIDs), pantry)
	freshByID := make(map[string]domain.ShoppingListEntry, len(fresh))
	for _, e := range fresh {
		freshByID[e.ID] = e
	}

	checked := toSet(prev.CheckedItems)
	removed := toSet(prev.RemovedItems)
	seen := make(map[string]bool, len(prev.Items))

	next := domain.EmptyShoppingList()
	next.SelectedRecipeIDs = append(next.SelectedRecipeIDs, prev.SelectedRecipeIDs...)

	for _, e := range prev.Items {
		if seen[e.ID] {
			continue
		}
		if e.IsCustom {
			seen[e.ID] = true
			next.Items = append(next.Items, e)
			continue
		}

		if f, ok := freshByID[e.ID]; ok {
			e.Name = f.Name
			e.Recipes = f.Recipes
			sourced := *f.Sourced
			e.Sourced = &sourced
			e.Effective()
			seen[e.ID] = true
			next.Items = append(next.Items, e)
			continue
		}

		if checked[e.ID] || e.IsEdited() {
			seen[e.ID] = true
			next.Items = append(next.Items, e)
		}
	}

	for _, f := range fresh {
		if seen[f.ID] || removed[f.ID] {
			continue
		}
		seen[f.ID] = true
		next.Items = append(next.Items, f)
	}

	for _, id := range prev.RemovedItems {
		if _, ok := freshByID[id]; ok && !seen[id] {
			next.RemovedItems = appendUnique(next.RemovedItems, id)
		}
	}
	for _, id := range prev.CheckedItems {
		if seen[id] {
			next.CheckedItems = appendUnique(next.CheckedItems, id)
		}
	}
	return next
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
