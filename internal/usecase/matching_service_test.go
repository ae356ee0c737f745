package usecase

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/pantrypal/backend/internal/domain"
)

var baseTime = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func pantryItem(id, name string, quantity float64, age int) domain.PantryItem {
	return domain.PantryItem{
		ID:        id,
		Name:      name,
		Quantity:  quantity,
		Category:  domain.CategoryOther,
		CreatedAt: baseTime.Add(time.Duration(age) * time.Minute),
	}
}

func ingredient(name, quantity string) domain.RecipeIngredient {
	return domain.RecipeIngredient{Name: name, Quantity: domain.Quantity{Raw: quantity}, Group: domain.DefaultIngredientGroup}
}

func recipe(id, name string, ingredients ...domain.RecipeIngredient) domain.Recipe {
	return domain.Recipe{ID: id, Name: name, Ingredients: ingredients}
}

func TestNewMatchingService(t *testing.T) {
	t.Run("defaults to substring matching", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{}, nil)
		if _, ok := svc.Matcher().(SubstringMatcher); !ok {
			t.Errorf("Matcher() = %T, want SubstringMatcher", svc.Matcher())
		}
	})

	t.Run("token strategy uses default edit distance when zero", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{Strategy: StrategyToken, EnableFuzzy: true}, nil)
		m, ok := svc.Matcher().(TokenMatcher)
		if !ok {
			t.Fatalf("Matcher() = %T, want TokenMatcher", svc.Matcher())
		}
		if m.FuzzyEditDistance != 1 {
			t.Errorf("FuzzyEditDistance = %v, want 1 (default)", m.FuzzyEditDistance)
		}
	})

	t.Run("unknown strategy falls back to substring", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{Strategy: "soundex"}, nil)
		if _, ok := svc.Matcher().(SubstringMatcher); !ok {
			t.Errorf("Matcher() = %T, want SubstringMatcher", svc.Matcher())
		}
	})
}

// exactNameMatcher only accepts case-insensitive equal names
type exactNameMatcher struct{}

func (exactNameMatcher) Matches(pantryName, ingredientName string) bool {
	return strings.EqualFold(strings.TrimSpace(pantryName), strings.TrimSpace(ingredientName))
}

func TestNewMatchingServiceWith(t *testing.T) {
	svc := NewMatchingServiceWith(exactNameMatcher{}, zaptest.NewLogger(t))
	pantry := []domain.PantryItem{pantryItem("pine", "Pineapple", 1, 0)}
	r := recipe("tart", "Apple Tart", ingredient("Apple", "2"), ingredient("pineapple", "1"))

	got := svc.Partition(r, pantry, false)

	if got.MatchPercentage != 50 {
		t.Errorf("MatchPercentage = %d, want 50", got.MatchPercentage)
	}
	if len(got.Missing) != 1 || got.Missing[0].Name != "Apple" {
		t.Errorf("Missing = %+v, want only Apple", got.Missing)
	}

	plan := svc.PlanDepletion(pantry, r)
	if len(plan.Skipped) != 1 || plan.Skipped[0] != "Apple" {
		t.Errorf("Skipped = %v, want [Apple]", plan.Skipped)
	}
}

func TestSubstringMatcher(t *testing.T) {
	testCases := []struct {
		name       string
		pantryName string
		ingredient string
		want       bool
	}{
		{"exact", "Rice", "Rice", true},
		{"case insensitive", "RICE", "rice", true},
		{"pantry name inside ingredient", "Chicken", "Chicken Breast", true},
		{"ingredient inside pantry name", "Brown Rice", "rice", true},
		{"shared substring false positive", "Apple", "Pineapple", true},
		{"unrelated", "Soy Sauce", "Rice", false},
		{"surrounding whitespace ignored", "  milk ", "Milk", true},
		{"empty pantry name never matches", "", "Rice", false},
		{"empty ingredient never matches", "Rice", "   ", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SubstringMatcher{}.Matches(tc.pantryName, tc.ingredient)
			if got != tc.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tc.pantryName, tc.ingredient, got, tc.want)
			}
		})
	}
}

func TestTokenMatcher(t *testing.T) {
	strict := TokenMatcher{}
	fuzzy := TokenMatcher{EnableFuzzy: true, FuzzyEditDistance: 1}

	testCases := []struct {
		name       string
		matcher    TokenMatcher
		pantryName string
		ingredient string
		want       bool
	}{
		{"subset of tokens", strict, "Chicken", "Chicken Breast", true},
		{"no substring false positive", strict, "Apple", "Pineapple", false},
		{"plural and preparation words", strict, "Tomatoes", "Diced tomato", true},
		{"quantities and units ignored", strict, "Flour", "2 cups flour", true},
		{"extra token on both sides", strict, "Red Onion", "Onion Powder", false},
		{"typo rejected without fuzzy", strict, "Chiken", "Chicken Breast", false},
		{"typo accepted with fuzzy", fuzzy, "Chiken", "Chicken Breast", true},
		{"empty never matches", strict, "", "Rice", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.matcher.Matches(tc.pantryName, tc.ingredient)
			if got != tc.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tc.pantryName, tc.ingredient, got, tc.want)
			}
		})
	}
}

func TestOrderPantry(t *testing.T) {
	items := []domain.PantryItem{
		pantryItem("c", "Late", 1, 10),
		pantryItem("b", "Tie B", 1, 0),
		pantryItem("a", "Tie A", 1, 0),
	}

	ordered := OrderPantry(items)

	got := []string{ordered[0].ID, ordered[1].ID, ordered[2].ID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if items[0].ID != "c" {
		t.Error("OrderPantry must not reorder its input")
	}
}

func TestFindPantryMatch(t *testing.T) {
	svc := NewMatchingService(MatchConfig{EnableDebugLogging: true}, zaptest.NewLogger(t))
	items := OrderPantry([]domain.PantryItem{
		pantryItem("brown", "Brown Rice", 1, 5),
		pantryItem("white", "Rice", 5, 1),
	})

	t.Run("first match in creation order wins", func(t *testing.T) {
		idx := svc.FindPantryMatch(items, "rice")
		if idx < 0 || items[idx].ID != "white" {
			t.Errorf("FindPantryMatch() matched %v, want white", idx)
		}
	})

	t.Run("no match returns -1", func(t *testing.T) {
		if idx := svc.FindPantryMatch(items, "Soy Sauce"); idx != -1 {
			t.Errorf("FindPantryMatch() = %v, want -1", idx)
		}
	})
}

func TestHasEnough(t *testing.T) {
	svc := NewMatchingService(MatchConfig{}, zaptest.NewLogger(t))
	items := OrderPantry([]domain.PantryItem{
		pantryItem("rice", "Rice", 2, 0),
		pantryItem("salt", "Salt", 0, 1),
	})

	testCases := []struct {
		name string
		ing  domain.RecipeIngredient
		want bool
	}{
		{"enough", ingredient("Rice", "2"), true},
		{"not enough", ingredient("Rice", "3"), false},
		{"mixed number", ingredient("Rice", "1 1/2"), true},
		{"units are ignored", ingredient("Rice", "2 kg"), true},
		{"malformed quantity compares as zero", ingredient("Salt", "a pinch"), true},
		{"empty quantity compares as zero", ingredient("Salt", ""), true},
		{"no match", ingredient("Pepper", "1"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.HasEnough(items, tc.ing); got != tc.want {
				t.Errorf("HasEnough(%q %q) = %v, want %v", tc.ing.Name, tc.ing.Quantity.Raw, got, tc.want)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	svc := NewMatchingService(MatchConfig{}, zaptest.NewLogger(t))
	pantry := []domain.PantryItem{
		pantryItem("1", "Rice", 1, 0),
		pantryItem("2", "Chicken", 3, 1),
	}
	r := recipe("r1", "Fried Rice",
		ingredient("Rice", "2"),
		ingredient("Chicken Breast", "1"),
		ingredient("Soy Sauce", "1"),
	)

	t.Run("existence only", func(t *testing.T) {
		got := svc.Partition(r, pantry, false)
		if len(got.Available) != 2 || len(got.Missing) != 1 {
			t.Fatalf("available=%d missing=%d, want 2 and 1", len(got.Available), len(got.Missing))
		}
		if got.Missing[0].Name != "Soy Sauce" {
			t.Errorf("missing = %q, want Soy Sauce", got.Missing[0].Name)
		}
		if got.MatchPercentage != 67 {
			t.Errorf("MatchPercentage = %v, want 67", got.MatchPercentage)
		}
	})

	t.Run("strict counts short quantities as missing", func(t *testing.T) {
		got := svc.Partition(r, pantry, true)
		if len(got.Available) != 1 || got.Available[0].Name != "Chicken Breast" {
			t.Errorf("available = %v, want only Chicken Breast", got.Available)
		}
		if got.MatchPercentage != 33 {
			t.Errorf("MatchPercentage = %v, want 33", got.MatchPercentage)
		}
	})

	t.Run("empty recipe is zero percent", func(t *testing.T) {
		got := svc.Partition(recipe("r2", "Air"), pantry, false)
		if got.MatchPercentage != 0 {
			t.Errorf("MatchPercentage = %v, want 0", got.MatchPercentage)
		}
		if got.Available == nil || got.Missing == nil {
			t.Error("partition slices must be non-nil")
		}
	})
}

func TestExactNameIsAlwaysAvailable(t *testing.T) {
	matchers := map[string]*MatchingService{
		"substring": NewMatchingService(MatchConfig{Strategy: StrategySubstring}, nil),
		"token":     NewMatchingService(MatchConfig{Strategy: StrategyToken}, nil),
	}
	names := []string{"Rice", "Soy Sauce", "Chicken Breast", "extra virgin olive oil", "Eggs"}

	for label, svc := range matchers {
		for _, name := range names {
			pantry := OrderPantry([]domain.PantryItem{
				pantryItem("x", "Unrelated Thing", 1, 0),
				pantryItem("y", strings.ToUpper(name), 1, 1),
			})
			if !svc.IsAvailable(pantry, ingredient(name, "1")) {
				t.Errorf("%s: %q not available against exact pantry name", label, name)
			}
		}
	}
}

func TestMatchPercentage(t *testing.T) {
	testCases := []struct {
		available int
		total     int
		want      int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 2, 50},
	}

	for _, tc := range testCases {
		got := MatchPercentage(tc.available, tc.total)
		if got != tc.want {
			t.Errorf("MatchPercentage(%d, %d) = %v, want %v", tc.available, tc.total, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Errorf("MatchPercentage(%d, %d) = %v out of bounds", tc.available, tc.total, got)
		}
	}
}

func TestTokenize(t *testing.T) {
	testCases := []struct {
		input string
		want  []string
	}{
		{"Chicken Breast", []string{"chicken", "breast"}},
		{"2 cups of flour", []string{"flour"}},
		{"Fresh, diced tomatoes!", []string{"tomatoes"}},
		{"", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got := tokenize(tc.input)
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("tokenize(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestSingular(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"tomatoes", "tomato"},
		{"berries", "berry"},
		{"eggs", "egg"},
		{"glass", "glass"},
		{"peas", "pea"},
		{"rice", "rice"},
	}

	for _, tc := range testCases {
		if got := singular(tc.input); got != tc.want {
			t.Errorf("singular(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	testCases := []struct {
		input string
		want  bool
	}{
		{"123", true},
		{"0", true},
		{"", false},
		{"12a", false},
		{"12.5", false}, // dot is not a digit
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := isNumeric(tc.input); got != tc.want {
				t.Errorf("isNumeric(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	testCases := []struct {
		s1   string
		s2   string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"abc", "abd", 1},        // substitution
		{"abc", "abcd", 1},       // insertion
		{"kitten", "sitting", 3}, // classic example
		{"milk", "mlik", 2},      // transposition (2 edits)
	}

	for _, tc := range testCases {
		t.Run(tc.s1+"_"+tc.s2, func(t *testing.T) {
			if got := levenshteinDistance(tc.s1, tc.s2); got != tc.want {
				t.Errorf("levenshteinDistance(%q, %q) = %v, want %v", tc.s1, tc.s2, got, tc.want)
			}
		})
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	testCases := []struct {
		token1    string
		token2    string
		threshold int
		want      bool
	}{
		{"milk", "milk", 1, true},
		{"abc", "abd", 1, false}, // too short for fuzzy
		{"chicken", "chiken", 1, true},
		{"chicken", "chikin", 1, false},
		{"chicken", "chikin", 2, true},
		{"strawberry", "strawbery", 1, true},
	}

	for _, tc := range testCases {
		t.Run(tc.token1+"_"+tc.token2, func(t *testing.T) {
			got := fuzzyTokenMatch(tc.token1, tc.token2, tc.threshold)
			if got != tc.want {
				t.Errorf("fuzzyTokenMatch(%q, %q, %d) = %v, want %v",
					tc.token1, tc.token2, tc.threshold, got, tc.want)
			}
		})
	}
}
