package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/pantrypal/backend/internal/domain"
)

// DefaultExpiryWindowDays is the expiring-soon lookahead
const DefaultExpiryWindowDays = 3

// ExpiryStatus classifies a pantry item by its expiry date
type ExpiryStatus string

const (
	ExpiryNone         ExpiryStatus = "none"
	ExpiryFresh        ExpiryStatus = "fresh"
	ExpiryExpiringSoon ExpiryStatus = "expiring_soon"
	ExpiryExpired      ExpiryStatus = "expired"
)

const day = 24 * time.Hour

// ClassifyExpiry compares the item's expiry date with the calendar date of
// now. Items without an expiry date are ExpiryNone.
func ClassifyExpiry(item domain.PantryItem, now time.Time, windowDays int) ExpiryStatus {
	if !item.HasExpiry() {
		return ExpiryNone
	}
	if windowDays < 0 {
		windowDays = DefaultExpiryWindowDays
	}

	today := domain.DateOf(now.UTC())
	expiry := domain.DateOf(item.ExpiryDate.Time)
	if expiry.Before(today.Time) {
		return ExpiryExpired
	}

	diffDays := int(math.Ceil(float64(expiry.Sub(today.Time)) / float64(day)))
	if diffDays >= 0 && diffDays <= windowDays {
		return ExpiryExpiringSoon
	}
	return ExpiryFresh
}

// ExpiringItem pairs an item with its classification and days left
type ExpiringItem struct {
	Item     domain.PantryItem `json:"item"`
	Status   ExpiryStatus      `json:"status"`
	DaysLeft int               `json:"daysLeft"`
}

// ExpiryReport groups a pantry by expiry status
type ExpiryReport struct {
	ExpiringSoon []ExpiringItem `json:"expiringSoon"`
	Expired      []ExpiringItem `json:"expired"`
}

// ClassifyPantry buckets every dated item that is expired or expiring soon,
// soonest first.
func ClassifyPantry(items []domain.PantryItem, now time.Time, windowDays int) ExpiryReport {
	report := ExpiryReport{ExpiringSoon: []ExpiringItem{}, Expired: []ExpiringItem{}}
	today := domain.DateOf(now.UTC())

	for _, item := range sortByExpiry(items) {
		status := ClassifyExpiry(item, now, windowDays)
		if status != ExpiryExpiringSoon && status != ExpiryExpired {
			continue
		}
		entry := ExpiringItem{
			Item:     item,
			Status:   status,
			DaysLeft: int(math.Ceil(float64(domain.DateOf(item.ExpiryDate.Time).Sub(today.Time)) / float64(day))),
		}
		if status == ExpiryExpired {
			report.Expired = append(report.Expired, entry)
		} else {
			report.ExpiringSoon = append(report.ExpiringSoon, entry)
		}
	}
	return report
}

// ExpiringIDs returns the ids of items expiring soon, for ranking
func ExpiringIDs(items []domain.PantryItem, now time.Time, windowDays int) map[string]bool {
	ids := make(map[string]bool)
	for _, item := range items {
		if ClassifyExpiry(item, now, windowDays) == ExpiryExpiringSoon {
			ids[item.ID] = true
		}
	}
	return ids
}

func sortByExpiry(items []domain.PantryItem) []domain.PantryItem {
	ordered := OrderPantry(items)
	out := ordered[:0:0]
	for _, item := range ordered {
		if item.HasExpiry() {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(out[j].ExpiryDate.Time)
	})
	return out
}
