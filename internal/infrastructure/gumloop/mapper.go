package gumloop

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/infrastructure/pantrycsv"
)

// wireRecipe is the loosely typed recipe the language model emits
type wireRecipe struct {
	Name         string           `json:"name"`
	RecipeName   string           `json:"recipe_name"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	PrepTime     interface{}      `json:"prep_time"`
	CookTime     interface{}      `json:"cook_time"`
	Servings     interface{}      `json:"servings"`
	Ingredients  []wireIngredient `json:"ingredients"`
	Instructions json.RawMessage  `json:"instructions"`
}

type wireIngredient struct {
	Name             string          `json:"name"`
	Quantity         domain.Quantity `json:"quantity"`
	Unit             string          `json:"unit"`
	PreparationNotes string          `json:"preparation_notes"`
	Group            string          `json:"group"`
}

type wireReceiptItem struct {
	FoodName     string          `json:"food_name"`
	Name         string          `json:"name"`
	Quantity     domain.Quantity `json:"quantity"`
	Unit         string          `json:"unit"`
	FoodCategory string          `json:"food_category"`
	Category     string          `json:"category"`
}

// outputText returns a pipeline output as plain text. Outputs arrive either
// as JSON strings or as inline JSON values.
func outputText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return stripFences(s)
	}
	return stripFences(string(raw))
}

// stripFences removes a surrounding markdown code fence
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeRecipes maps recipe output to domain recipes. It accepts a single
// object, an array, or an object with a "recipes" array.
func DecodeRecipes(text string) ([]domain.Recipe, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty recipe output", domain.ErrUpstreamFailure)
	}

	var wire []wireRecipe
	switch {
	case strings.HasPrefix(text, "["):
		if err := json.Unmarshal([]byte(text), &wire); err != nil {
			return nil, fmt.Errorf("%w: malformed recipe list: %v", domain.ErrUpstreamFailure, err)
		}
	case strings.HasPrefix(text, "{"):
		var wrapped struct {
			Recipes []wireRecipe `json:"recipes"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err == nil && len(wrapped.Recipes) > 0 {
			wire = wrapped.Recipes
			break
		}
		var single wireRecipe
		if err := json.Unmarshal([]byte(text), &single); err != nil {
			return nil, fmt.Errorf("%w: malformed recipe: %v", domain.ErrUpstreamFailure, err)
		}
		wire = []wireRecipe{single}
	default:
		return nil, fmt.Errorf("%w: recipe output is not JSON", domain.ErrUpstreamFailure)
	}

	recipes := make([]domain.Recipe, 0, len(wire))
	for _, w := range wire {
		recipes = append(recipes, w.toDomain())
	}
	return recipes, nil
}

func (w wireRecipe) toDomain() domain.Recipe {
	name := firstNonEmpty(w.Name, w.RecipeName, w.Title)

	ingredients := make([]domain.RecipeIngredient, 0, len(w.Ingredients))
	for _, ing := range w.Ingredients {
		ingredients = append(ingredients, domain.RecipeIngredient{
			Name:             strings.TrimSpace(ing.Name),
			Quantity:         ing.Quantity,
			Unit:             cleanUnit(ing.Unit),
			PreparationNotes: strings.TrimSpace(ing.PreparationNotes),
			Group:            strings.TrimSpace(ing.Group),
		})
	}

	var instructions domain.Instructions
	if len(w.Instructions) > 0 {
		// unreadable instructions are dropped rather than failing the recipe
		_ = json.Unmarshal(w.Instructions, &instructions)
	}

	return domain.Recipe{
		Name:         strings.TrimSpace(name),
		Description:  strings.TrimSpace(w.Description),
		PrepTime:     leadingInt(w.PrepTime),
		CookTime:     leadingInt(w.CookTime),
		Servings:     leadingInt(w.Servings),
		Ingredients:  ingredients,
		Instructions: instructions,
	}
}

// leadingInt reads values such as 15, "15", "15 minutes" or "4 servings"
func leadingInt(v interface{}) int {
	if v == nil {
		return 0
	}
	if n, err := cast.ToFloat64E(v); err == nil {
		return int(math.Round(math.Max(n, 0)))
	}
	if n, ok := domain.ParseQuantity(cast.ToString(v)); ok {
		return int(math.Round(n))
	}
	return 0
}

// DecodeReceipt maps receipt output to candidate pantry items. The pipeline
// emits either pantry CSV or a JSON array of items.
func DecodeReceipt(text string) ([]domain.PantryItem, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty receipt output", domain.ErrUpstreamFailure)
	}

	if strings.HasPrefix(text, "[") {
		var wire []wireReceiptItem
		if err := json.Unmarshal([]byte(text), &wire); err != nil {
			return nil, fmt.Errorf("%w: malformed receipt items: %v", domain.ErrUpstreamFailure, err)
		}
		items := make([]domain.PantryItem, 0, len(wire))
		for _, w := range wire {
			items = append(items, receiptItem(firstNonEmpty(w.FoodName, w.Name), w.Quantity.Raw, w.Unit, firstNonEmpty(w.FoodCategory, w.Category)))
		}
		return items, nil
	}

	rows, err := pantrycsv.Decode(trimLines(text))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed receipt csv: %v", domain.ErrUpstreamFailure, err)
	}
	items := make([]domain.PantryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, receiptItem(row.FoodName, row.Quantity, row.Unit, row.FoodCategory))
	}
	return items, nil
}

func receiptItem(name, quantity, unit, category string) domain.PantryItem {
	qty, ok := domain.ParseQuantity(quantity)
	if !ok {
		qty = 0
	}
	return domain.PantryItem{
		Name:     strings.TrimSpace(name),
		Quantity: qty,
		Unit:     cleanUnit(unit),
		Category: domain.ParseCategory(category),
	}
}

// cleanUnit drops the placeholder values models write for "no unit"
func cleanUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	switch strings.ToLower(unit) {
	case "null", "none", "n/a", "-":
		return ""
	}
	return unit
}

func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
