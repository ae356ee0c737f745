package usecase

import (
	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
)

// Defaults applied when an ingredient quantity cannot be read
const (
	defaultUsageQuantity      = 1.0
	defaultComparisonQuantity = 0.0
)

// usageQuantity is the amount an ingredient consumes or adds to a shopping
// list. Unreadable and zero amounts count as 1.
func usageQuantity(log *zap.Logger, ing domain.RecipeIngredient) float64 {
	v, ok := ing.Quantity.Parse()
	if !ok {
		logMalformedQuantity(log, ing, defaultUsageQuantity)
		return defaultUsageQuantity
	}
	if v == 0 {
		return defaultUsageQuantity
	}
	return v
}

// requiredQuantity is the amount a strict availability check compares
// against. Unreadable amounts count as 0 so only existence is required.
func requiredQuantity(log *zap.Logger, ing domain.RecipeIngredient) float64 {
	v, ok := ing.Quantity.Parse()
	if !ok {
		logMalformedQuantity(log, ing, defaultComparisonQuantity)
		return defaultComparisonQuantity
	}
	return v
}

// PantryQuantity converts a user-entered or imported pantry amount.
// Unreadable amounts count as 0 and are logged at debug.
func PantryQuantity(log *zap.Logger, name string, q domain.Quantity) float64 {
	v, ok := q.Parse()
	if !ok {
		if q.Raw != "" && log != nil {
			log.Debug("malformed pantry quantity",
				zap.String("item", name),
				zap.String("raw", q.Raw),
				zap.Float64("default", defaultComparisonQuantity))
		}
		return defaultComparisonQuantity
	}
	return v
}

func logMalformedQuantity(log *zap.Logger, ing domain.RecipeIngredient, def float64) {
	if log == nil {
		return
	}
	log.Debug("malformed ingredient quantity",
		zap.String("ingredient", ing.Name),
		zap.String("raw", ing.Quantity.Raw),
		zap.Float64("default", def))
}
