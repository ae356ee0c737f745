// Package pantrycsv renders a pantry as the CSV document the recipe
// suggestion pipeline reads.
package pantrycsv

import (
	"fmt"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/pantrypal/backend/internal/domain"
)

// Row is one pantry item in the suggestion pipeline's input format
type Row struct {
	FoodName     string `csv:"food_name"`
	Quantity     string `csv:"quantity"`
	Unit         string `csv:"unit"`
	FoodCategory string `csv:"food_category"`
}

// Header is the first line of every encoded document
const Header = "food_name,quantity,unit,food_category"

// Rows converts pantry items in the given order
func Rows(items []domain.PantryItem) []*Row {
	rows := make([]*Row, 0, len(items))
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = domain.CategoryOther
		}
		rows = append(rows, &Row{
			FoodName:     item.Name,
			Quantity:     strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			Unit:         item.Unit,
			FoodCategory: string(category),
		})
	}
	return rows
}

// Encode renders items with a header row and standard CSV quoting. An empty
// pantry encodes to the header alone.
func Encode(items []domain.PantryItem) (string, error) {
	if len(items) == 0 {
		return Header + "\n", nil
	}
	out, err := gocsv.MarshalString(Rows(items))
	if err != nil {
		return "", fmt.Errorf("encode pantry csv: %w", err)
	}
	return out, nil
}

// Decode parses a document produced by Encode
func Decode(doc string) ([]*Row, error) {
	var rows []*Row
	if err := gocsv.UnmarshalString(doc, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode pantry csv: %v", domain.ErrInvalidRequest, err)
	}
	return rows, nil
}
