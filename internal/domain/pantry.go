package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Category is the fixed food grouping of a pantry item
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryProtein   Category = "protein"
	CategoryGrain     Category = "grain"
	CategoryDairy     Category = "dairy"
	CategoryFruit     Category = "fruit"
	CategoryFat       Category = "fat"
	CategoryCondiment Category = "condiment"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryVegetable, CategoryProtein, CategoryGrain, CategoryDairy,
	CategoryFruit, CategoryFat, CategoryCondiment, CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryVegetable: "Vegetables",
	CategoryProtein:   "Protein",
	CategoryGrain:     "Grains",
	CategoryDairy:     "Dairy",
	CategoryFruit:     "Fruits",
	CategoryFat:       "Fats & Oils",
	CategoryCondiment: "Condiments",
	CategoryOther:     "Other",
}

// categoryAliases maps labels produced by receipt OCR and recipe pipelines
var categoryAliases = map[string]Category{
	"vegetables": CategoryVegetable, "veg": CategoryVegetable, "veggies": CategoryVegetable, "produce": CategoryVegetable,
	"proteins": CategoryProtein, "meat": CategoryProtein, "meats": CategoryProtein, "seafood": CategoryProtein,
	"grains": CategoryGrain, "bread": CategoryGrain, "bakery": CategoryGrain,
	"fruits": CategoryFruit,
	"fats": CategoryFat, "fats & oils": CategoryFat, "fats and oils": CategoryFat, "oil": CategoryFat, "oils": CategoryFat,
	"condiments": CategoryCondiment, "sauce": CategoryCondiment, "sauces": CategoryCondiment, "spices": CategoryCondiment,
}

// ParseCategory maps free text to a Category. Unknown values become CategoryOther.
func ParseCategory(s string) Category {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == key {
			return c
		}
	}
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	return CategoryOther
}

// Label returns the human readable category name
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryOther]
}

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts YYYY-MM-DD as well as the looser renderings receipt and
// recipe importers produce (RFC3339 timestamps, 01/22/2026, "Jan 22 2026").
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: unparseable date %q", ErrInvalidRequest, s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD", or null when zero
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a date string, an empty string or null
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PantryItem is a quantity of a named foodstuff owned by a user
type PantryItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	Category   Category  `json:"category"`
	ExpiryDate *Date     `json:"expiryDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasExpiry reports whether the item carries a usable expiry date
func (p PantryItem) HasExpiry() bool {
	return p.ExpiryDate != nil && !p.ExpiryDate.IsZero()
}

// PantryItemPatch is a partial update. Nil fields are left untouched.
type PantryItemPatch struct {
	Name        *string
	Quantity    *float64
	Unit        *string
	Category    *Category
	ExpiryDate  *Date
	ClearExpiry bool
}

// Apply copies the set fields of the patch onto item
func (p PantryItemPatch) Apply(item *PantryItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.ClearExpiry {
		item.ExpiryDate = nil
	} else if p.ExpiryDate != nil {
		d := *p.ExpiryDate
		item.ExpiryDate = &d
	}
}

// IsEmpty reports whether the patch changes nothing
func (p PantryItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil && p.Unit == nil &&
		p.Category == nil && p.ExpiryDate == nil && !p.ClearExpiry
}
