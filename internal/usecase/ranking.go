package usecase

import (
	"sort"

	"github.com/pantrypal/backend/internal/domain"
)

// RankedRecipe is a recipe scored against the pantry
type RankedRecipe struct {
	Recipe          domain.Recipe `json:"recipe"`
	MatchCount      int           `json:"matchCount"`
	MatchPercentage int           `json:"matchPercentage"`
	ExpiringMatch   int           `json:"expiringMatch"`
	MissingCount    int           `json:"missingCount"`
}

// RankRecipes orders recipes by how many expiring pantry items they use,
// then by match percentage. Ties keep input order. Nothing is mutated.
func (s *MatchingService) RankRecipes(recipes []domain.Recipe, pantry []domain.PantryItem, expiringIDs map[string]bool) []RankedRecipe {
	ordered := OrderPantry(pantry)
	ranked := make([]RankedRecipe, 0, len(recipes))

	for _, recipe := range recipes {
		r := RankedRecipe{Recipe: recipe}
		for _, ing := range recipe.Ingredients {
			idx := s.FindPantryMatch(ordered, ing.Name)
			if idx < 0 {
				r.MissingCount++
				continue
			}
			r.MatchCount++
			if expiringIDs[ordered[idx].ID] {
				r.ExpiringMatch++
			}
		}
		r.MatchPercentage = MatchPercentage(r.MatchCount, len(recipe.Ingredients))
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ExpiringMatch != ranked[j].ExpiringMatch {
			return ranked[i].ExpiringMatch > ranked[j].ExpiringMatch
		}
		return ranked[i].MatchPercentage > ranked[j].MatchPercentage
	})
	return ranked
}
