package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
)

// CookResult reports what cooking a recipe did to the pantry
type CookResult struct {
	RecipeID string     `json:"recipeId"`
	Applied  []Mutation `json:"applied"`
	Skipped  []string   `json:"skipped"`
}

// CookService depletes the pantry when a recipe is cooked
type CookService struct {
	pantry   domain.PantryStore
	recipes  domain.RecipeStore
	matching *MatchingService
	log      *zap.Logger
}

// NewCookService creates a new cook service
func NewCookService(pantry domain.PantryStore, recipes domain.RecipeStore, matching *MatchingService, log *zap.Logger) *CookService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CookService{pantry: pantry, recipes: recipes, matching: matching, log: log}
}

// Cook plans depletion over a fresh pantry snapshot and applies it. On a
// store failure the returned result holds the mutations already applied and
// the error is a *DepletionError.
func (s *CookService) Cook(ctx context.Context, ownerID, recipeID string) (*CookResult, error) {
	recipe, err := s.recipes.Get(ctx, ownerID, recipeID)
	if err != nil {
		return nil, storeErr(err)
	}
	pantry, err := s.pantry.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}

	plan := s.matching.PlanDepletion(pantry, *recipe)
	applied, err := ApplyDepletion(ctx, s.pantry, ownerID, plan, s.log)
	result := &CookResult{RecipeID: recipe.ID, Applied: applied, Skipped: plan.Skipped}
	if err != nil {
		return result, err
	}

	s.log.Info("recipe cooked",
		zap.String("owner", ownerID),
		zap.String("recipe", recipe.ID),
		zap.Int("mutations", len(applied)),
		zap.Strings("skipped", plan.Skipped))
	return result, nil
}
