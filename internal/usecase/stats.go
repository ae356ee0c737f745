package usecase

import (
	"math"

	"github.com/pantrypal/backend/internal/domain"
)

// recommendedMix is the target share of each category, in percent.
// Categories not listed are ignored by the balance score.
var recommendedMix = []struct {
	Category domain.Category
	Percent  float64
}{
	{domain.CategoryVegetable, 40},
	{domain.CategoryFruit, 20},
	{domain.CategoryProtein, 20},
	{domain.CategoryGrain, 15},
	{domain.CategoryDairy, 5},
}

// CategoryShare is the item count of one category
type CategoryShare struct {
	Category    domain.Category `json:"category"`
	Label       string          `json:"label"`
	Count       int             `json:"count"`
	Percentage  float64         `json:"percentage"`
	Recommended float64         `json:"recommended"`
}

// PantryStats summarizes the category make-up of a pantry
type PantryStats struct {
	TotalItems   int             `json:"totalItems"`
	Distribution []CategoryShare `json:"distribution"`
	BalanceScore int             `json:"balanceScore"`
	Expiring     int             `json:"expiringSoon"`
	Expired      int             `json:"expired"`
}

// ComputeStats counts items per category and scores the pantry against
// recommendedMix: each category scores max(0, 100 - 2*|recommended - actual|)
// and the balance score is the rounded mean. An empty pantry scores 0.
func ComputeStats(items []domain.PantryItem, report ExpiryReport) PantryStats {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, item := range items {
		c := item.Category
		if c == "" {
			c = domain.CategoryOther
		}
		counts[c]++
	}

	stats := PantryStats{
		TotalItems:   len(items),
		Distribution: make([]CategoryShare, 0, len(domain.Categories)),
		Expiring:     len(report.ExpiringSoon),
		Expired:      len(report.Expired),
	}

	recommended := make(map[domain.Category]float64, len(recommendedMix))
	for _, r := range recommendedMix {
		recommended[r.Category] = r.Percent
	}

	for _, c := range domain.Categories {
		share := CategoryShare{
			Category:    c,
			Label:       c.Label(),
			Count:       counts[c],
			Recommended: recommended[c],
		}
		if len(items) > 0 {
			share.Percentage = percentOf(counts[c], len(items))
		}
		stats.Distribution = append(stats.Distribution, share)
	}

	if len(items) == 0 {
		return stats
	}

	var total float64
	for _, r := range recommendedMix {
		actual := percentOf(counts[r.Category], len(items))
		total += math.Max(0, 100-2*math.Abs(r.Percent-actual))
	}
	stats.BalanceScore = int(math.Round(total / float64(len(recommendedMix))))
	return stats
}

func percentOf(n, total int) float64 {
	return 100 * float64(n) / float64(total)
}
