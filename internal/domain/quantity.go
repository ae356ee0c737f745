package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

var (
	mixedNumberPattern = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)`)
	fractionPattern    = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)`)
	leadingNumber      = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
)

// ParseQuantity reads the leading amount of free text such as "2", "0.5",
// "1 1/2", "3/4" or "2 cups". It returns false for text with no leading
// number and for negative amounts. Zero is a valid parse.
func ParseQuantity(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if m := mixedNumberPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return 0, false
		}
		return whole + num/den, true
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den == 0 {
			return 0, false
		}
		return num / den, true
	}

	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Quantity is an amount as entered by a user or produced by an importer.
// The raw text is kept so display round-trips; JSON accepts numbers and strings.
type Quantity struct {
	Raw string
}

// NewQuantity wraps a numeric amount
func NewQuantity(v float64) Quantity {
	return Quantity{Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Parse returns the numeric value of the quantity
func (q Quantity) Parse() (float64, bool) {
	return ParseQuantity(q.Raw)
}

// MarshalJSON emits a JSON number when the raw text is a plain number, a string otherwise
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Raw == "" {
		return []byte(`""`), nil
	}
	if v, err := strconv.ParseFloat(q.Raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return json.Marshal(q.Raw)
}

// UnmarshalJSON accepts numbers, strings and null
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		q.Raw = ""
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Errorf("%w: quantity must be a number or string", ErrInvalidRequest)
	}
	q.Raw = strings.TrimSpace(s)
	return nil
}
