package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	testCases := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"2", 2, true},
		{"0.5", 0.5, true},
		{".25", 0.25, true},
		{"3/4", 0.75, true},
		{"1 1/2", 1.5, true},
		{"2 cups", 2, true},
		{"  4 ", 4, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"a pinch", 0, false},
		{"-1", 0, false},
		{"1/0", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := ParseQuantity(tc.input)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ParseQuantity(%q) = (%v, %v), want (%v, %v)", tc.input, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestQuantityJSON(t *testing.T) {
	t.Run("accepts numbers strings and null", func(t *testing.T) {
		var got struct {
			A Quantity `json:"a"`
			B Quantity `json:"b"`
			C Quantity `json:"c"`
		}
		if err := json.Unmarshal([]byte(`{"a": 2.5, "b": "1 1/2", "c": null}`), &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.A.Raw != "2.5" || got.B.Raw != "1 1/2" || got.C.Raw != "" {
			t.Errorf("decoded = %+v", got)
		}
	})

	t.Run("rejects objects", func(t *testing.T) {
		var q Quantity
		err := json.Unmarshal([]byte(`{"amount": 1}`), &q)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("plain numbers encode as numbers", func(t *testing.T) {
		out, _ := json.Marshal(NewQuantity(3))
		if string(out) != "3" {
			t.Errorf("Marshal(3) = %s", out)
		}
		out, _ = json.Marshal(Quantity{Raw: "2 cups"})
		if string(out) != `"2 cups"` {
			t.Errorf("Marshal(2 cups) = %s", out)
		}
	})
}
