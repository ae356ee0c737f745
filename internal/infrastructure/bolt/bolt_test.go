package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/pantrypal/backend/internal/domain"
)

func openTestDB(t *testing.T) *bbolt.DB {
	db, err := Open(filepath.Join(t.TempDir(), "pantry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPantryStore(t *testing.T) {
	ctx := context.Background()
	store := NewPantryStore(openTestDB(t))
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	expiry := domain.NewDate(2026, 1, 22)
	rice, err := store.Create(ctx, "alice", domain.PantryItem{Name: "Rice", Quantity: 5, ExpiryDate: &expiry})
	require.NoError(t, err)
	_, err = store.Create(ctx, "alice", domain.PantryItem{Name: "Eggs", Quantity: 12})
	require.NoError(t, err)

	items, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Rice", items[0].Name, "oldest first")
	require.NotNil(t, items[0].ExpiryDate)
	assert.Equal(t, "2026-01-22", items[0].ExpiryDate.String())

	empty, err := store.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, empty)

	qty := 2.0
	require.NoError(t, store.Update(ctx, "alice", rice.ID, domain.PantryItemPatch{Quantity: &qty, ClearExpiry: true}))
	items, _ = store.List(ctx, "alice")
	assert.Equal(t, 2.0, items[0].Quantity)
	assert.Nil(t, items[0].ExpiryDate)

	assert.ErrorIs(t, store.Update(ctx, "bob", rice.ID, domain.PantryItemPatch{Quantity: &qty}), domain.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "alice", rice.ID))
	assert.ErrorIs(t, store.Delete(ctx, "alice", rice.ID), domain.ErrNotFound)
}

func TestRecipeStore(t *testing.T) {
	ctx := context.Background()
	store := NewRecipeStore(openTestDB(t))

	created, err := store.Create(ctx, "alice", domain.Recipe{
		Name:         "Omelette",
		Ingredients:  []domain.RecipeIngredient{{Name: "Eggs", Quantity: domain.Quantity{Raw: "2"}, Group: "Main"}},
		Instructions: domain.StepInstructions([]domain.Step{{InstructionText: "Whisk"}, {InstructionText: "Fry"}}),
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", got.Name)
	assert.Len(t, got.Instructions.Steps(), 2)

	_, err = store.Get(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "alice", created.ID))
	recipes, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestShoppingListStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewShoppingListStore(db)

	empty, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyShoppingList(), *empty)

	state := domain.EmptyShoppingList()
	state.Items = append(state.Items, domain.ShoppingListEntry{
		ID: "custom-1", Name: "Napkins", Quantity: 2, Unit: "packs", Recipes: []string{}, IsCustom: true,
	})
	state.CheckedItems = []string{"custom-1"}
	require.NoError(t, store.Put(ctx, "alice", state))

	got, err := NewShoppingListStore(db).Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, state, *got)

	require.NoError(t, store.Clear(ctx, "alice"))
	got, _ = store.Get(ctx, "alice")
	assert.Empty(t, got.Items)
}
