package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pantrypal/backend/internal/domain"
)

func TestPantryQuantity(t *testing.T) {
	testCases := []struct {
		raw        string
		want       float64
		wantLogged bool
	}{
		{"2", 2, false},
		{"1.5 kg", 1.5, false},
		{"1/2", 0.5, false},
		{"", 0, false},
		{"lots", 0, true},
		{"-3", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			got := PantryQuantity(zap.New(core), "Rice", domain.Quantity{Raw: tc.raw})

			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantLogged, logs.FilterMessage("malformed pantry quantity").Len() == 1)
		})
	}
}

func TestIngredientQuantityDefaults(t *testing.T) {
	log := zap.NewNop()

	if got := usageQuantity(log, ingredient("Salt", "a pinch")); got != 1 {
		t.Errorf("usageQuantity(a pinch) = %v, want 1", got)
	}
	if got := usageQuantity(log, ingredient("Salt", "0")); got != 1 {
		t.Errorf("usageQuantity(0) = %v, want 1", got)
	}
	if got := requiredQuantity(log, ingredient("Salt", "a pinch")); got != 0 {
		t.Errorf("requiredQuantity(a pinch) = %v, want 0", got)
	}
	if got := requiredQuantity(log, ingredient("Flour", "2 1/2")); got != 2.5 {
		t.Errorf("requiredQuantity(2 1/2) = %v, want 2.5", got)
	}
}
