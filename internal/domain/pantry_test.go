package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		input string
		want  Category
	}{
		{"vegetable", CategoryVegetable},
		{"Dairy", CategoryDairy},
		{" Grains ", CategoryGrain},
		{"Fats & Oils", CategoryFat},
		{"Proteins", CategoryProtein},
		{"produce", CategoryVegetable},
		{"snacks", CategoryOther},
		{"", CategoryOther},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCategory(tc.input))
		})
	}
	assert.Equal(t, "Fats & Oils", CategoryFat.Label())
	assert.Equal(t, "Other", Category("bogus").Label())
}

func TestParseDate(t *testing.T) {
	want := NewDate(2026, time.January, 22)

	for _, input := range []string{"2026-01-22", "2026-01-22T18:30:00Z", "01/22/2026", "Jan 22, 2026"} {
		t.Run(input, func(t *testing.T) {
			got, err := ParseDate(input)
			require.NoError(t, err)
			assert.True(t, got.Equal(want.Time), "got %v", got)
		})
	}

	zero, err := ParseDate("  ")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseDate("next tuesday-ish")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPantryItemJSON(t *testing.T) {
	var item PantryItem
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Milk","quantity":1,"category":"dairy","expiryDate":"2026-01-22"}`), &item))
	require.True(t, item.HasExpiry())
	assert.Equal(t, "2026-01-22", item.ExpiryDate.String())

	out, err := json.Marshal(PantryItem{Name: "Salt"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"expiryDate":null`)
}

func TestPantryItemPatch(t *testing.T) {
	expiry := NewDate(2026, time.March, 1)
	item := PantryItem{Name: "Milk", Quantity: 2, ExpiryDate: &expiry}

	qty := 0.5
	PantryItemPatch{Quantity: &qty}.Apply(&item)
	assert.Equal(t, 0.5, item.Quantity)
	assert.Equal(t, "Milk", item.Name)
	assert.True(t, item.HasExpiry())

	PantryItemPatch{ClearExpiry: true}.Apply(&item)
	assert.False(t, item.HasExpiry())

	assert.True(t, PantryItemPatch{}.IsEmpty())
	assert.False(t, PantryItemPatch{ClearExpiry: true}.IsEmpty())
}
