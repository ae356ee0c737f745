package domain

// Amount is a quantity with its display unit. Units are never converted.
type Amount struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ShoppingListEntry is an aggregated missing ingredient, or a user-typed item.
// Quantity and Unit are the effective values: the override when the user
// edited the entry, otherwise the recipe-sourced amount.
type ShoppingListEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Recipes  []string `json:"recipes"`
	IsCustom bool     `json:"isCustom"`
	Sourced  *Amount  `json:"sourced,omitempty"`
	Override *Amount  `json:"override,omitempty"`
}

// IsEdited reports whether the user overrode the recipe-sourced amount
func (e ShoppingListEntry) IsEdited() bool {
	return e.Override != nil
}

// Effective recomputes Quantity and Unit from the override or sourced amount
func (e *ShoppingListEntry) Effective() {
	switch {
	case e.Override != nil:
		e.Quantity, e.Unit = e.Override.Quantity, e.Override.Unit
	case e.Sourced != nil:
		e.Quantity, e.Unit = e.Sourced.Quantity, e.Sourced.Unit
	}
}

// ShoppingListState is the durable shopping list of one owner
type ShoppingListState struct {
	Items             []ShoppingListEntry `json:"items"`
	CheckedItems      []string            `json:"checkedItems"`
	SelectedRecipeIDs []string            `json:"selectedRecipeIds"`
	RemovedItems      []string            `json:"removedItems"`
}

// EmptyShoppingList returns a state with non-nil slices
func EmptyShoppingList() ShoppingListState {
	return ShoppingListState{
		Items:             []ShoppingListEntry{},
		CheckedItems:      []string{},
		SelectedRecipeIDs: []string{},
		RemovedItems:      []string{},
	}
}

// IsChecked reports whether the entry id is struck off
func (s ShoppingListState) IsChecked(id string) bool {
	for _, c := range s.CheckedItems {
		if c == id {
			return true
		}
	}
	return false
}
