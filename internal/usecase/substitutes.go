package usecase

import (
	"strings"

	"github.com/pantrypal/backend/internal/domain"
)

var substituteTable = map[string][]string{
	"chicken breast": {"Turkey Breast", "Tofu", "Tempeh", "Eggs"},
	"milk":           {"Almond Milk", "Oat Milk", "Soy Milk", "Coconut Milk"},
	"eggs":           {"Flax Eggs", "Chia Eggs", "Applesauce", "Mashed Banana"},
	"butter":         {"Olive Oil", "Coconut Oil", "Avocado", "Greek Yogurt"},
	"rice":           {"Quinoa", "Cauliflower Rice", "Pasta", "Bulgur"},
	"pasta":          {"Zucchini Noodles", "Rice", "Spaghetti Squash"},
	"cheese":         {"Nutritional Yeast", "Vegan Cheese", "Eggs"},
	"soy sauce":      {"Olive Oil", "Salt"},
	"tomatoes":       {"Spinach", "Broccoli"},
	"spinach":        {"Broccoli", "Tomatoes"},
}

// Substitutes returns the known substitutes for an ingredient
func Substitutes(ingredient string) []string {
	subs := substituteTable[strings.ToLower(strings.TrimSpace(ingredient))]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// Substitute is a replacement ingredient the pantry already holds
type Substitute struct {
	Name string            `json:"name"`
	Item domain.PantryItem `json:"item"`
}

// PantrySubstitutes returns the substitutes for ingredient whose name equals
// a pantry item, case-insensitively, paired with the first such item.
func PantrySubstitutes(ingredient string, pantry []domain.PantryItem) []Substitute {
	ordered := OrderPantry(pantry)
	out := []Substitute{}
	for _, name := range Substitutes(ingredient) {
		for _, item := range ordered {
			if strings.EqualFold(strings.TrimSpace(item.Name), name) {
				out = append(out, Substitute{Name: name, Item: item})
				break
			}
		}
	}
	return out
}
