package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
)

// MutationKind distinguishes a quantity update from a removal
type MutationKind string

const (
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Mutation is one pantry change produced by cooking a recipe
type Mutation struct {
	Kind      MutationKind `json:"kind"`
	ItemID    string       `json:"itemId"`
	ItemName  string       `json:"itemName"`
	Used      float64      `json:"used"`
	Remaining float64      `json:"remaining"`
}

// DepletionPlan lists the pantry mutations for one cook, in ingredient order,
// plus the ingredients that matched nothing.
type DepletionPlan struct {
	Mutations []Mutation `json:"mutations"`
	Skipped   []string   `json:"skipped"`
}

// DepletionError reports a cook that stopped part way. Applied holds the
// mutations that reached the store before Err; they are not rolled back.
type DepletionError struct {
	Applied []Mutation
	Failed  Mutation
	Err     error
}

func (e *DepletionError) Error() string {
	return fmt.Sprintf("depletion stopped after %d of the planned mutations at %s %q: %v",
		len(e.Applied), e.Failed.Kind, e.Failed.ItemName, e.Err)
}

func (e *DepletionError) Unwrap() error {
	return e.Err
}

// PlanDepletion computes the mutations cooking recipe applies to pantry.
// Each ingredient takes its first match in a working copy of the pantry,
// so two ingredients hitting the same item see each other's effect and a
// deleted item cannot be matched again.
func (s *MatchingService) PlanDepletion(pantry []domain.PantryItem, recipe domain.Recipe) DepletionPlan {
	working := OrderPantry(pantry)
	plan := DepletionPlan{Mutations: []Mutation{}, Skipped: []string{}}

	for _, ing := range recipe.Ingredients {
		idx := s.FindPantryMatch(working, ing.Name)
		if idx < 0 {
			plan.Skipped = append(plan.Skipped, strings.TrimSpace(ing.Name))
			continue
		}

		item := working[idx]
		used := usageQuantity(s.log, ing)
		remaining := item.Quantity - used

		if remaining <= 0 {
			plan.Mutations = append(plan.Mutations, Mutation{
				Kind: MutationDelete, ItemID: item.ID, ItemName: item.Name, Used: used,
			})
			working = append(working[:idx], working[idx+1:]...)
			continue
		}

		plan.Mutations = append(plan.Mutations, Mutation{
			Kind: MutationUpdate, ItemID: item.ID, ItemName: item.Name, Used: used, Remaining: remaining,
		})
		working[idx].Quantity = remaining
	}
	return plan
}

// ApplyDepletion writes the plan to the store in order and stops at the
// first failure, returning a *DepletionError.
func ApplyDepletion(ctx context.Context, store domain.PantryStore, ownerID string, plan DepletionPlan, log *zap.Logger) ([]Mutation, error) {
	if log == nil {
		log = zap.NewNop()
	}
	applied := make([]Mutation, 0, len(plan.Mutations))

	for _, m := range plan.Mutations {
		var err error
		switch m.Kind {
		case MutationDelete:
			err = store.Delete(ctx, ownerID, m.ItemID)
		default:
			remaining := m.Remaining
			err = store.Update(ctx, ownerID, m.ItemID, domain.PantryItemPatch{Quantity: &remaining})
		}
		if err != nil {
			log.Warn("cook depletion stopped",
				zap.String("owner", ownerID),
				zap.String("item", m.ItemID),
				zap.Int("applied", len(applied)),
				zap.Error(err))
			return applied, &DepletionError{Applied: applied, Failed: m, Err: err}
		}
		applied = append(applied, m)
	}
	return applied, nil
}
