package usecase

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Matching strategies selectable through configuration
const (
	StrategySubstring = "substring"
	StrategyToken     = "token"
)

// NameMatcher decides whether a pantry item name satisfies an ingredient name.
// Aggregation, depletion and ranking only ever see this predicate.
type NameMatcher interface {
	Matches(pantryName, ingredientName string) bool
}

// SubstringMatcher treats names as matching when either lowercased name
// contains the other. "Chicken" matches "Chicken Breast"; so does "Apple"
// and "Pineapple".
type SubstringMatcher struct{}

// Matches implements NameMatcher
func (SubstringMatcher) Matches(pantryName, ingredientName string) bool {
	p := strings.ToLower(strings.TrimSpace(pantryName))
	i := strings.ToLower(strings.TrimSpace(ingredientName))
	if p == "" || i == "" {
		return false
	}
	return strings.Contains(i, p) || strings.Contains(p, i)
}

// TokenMatcher matches when every token of the shorter name appears in the
// longer one, optionally tolerating small spelling differences.
type TokenMatcher struct {
	EnableFuzzy       bool
	FuzzyEditDistance int
}

// Matches implements NameMatcher
func (m TokenMatcher) Matches(pantryName, ingredientName string) bool {
	a := tokenize(pantryName)
	b := tokenize(ingredientName)
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	for _, t := range a {
		if !m.containsToken(b, t) {
			return false
		}
	}
	return true
}

func (m TokenMatcher) containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want || singular(t) == singular(want) {
			return true
		}
		if m.EnableFuzzy && fuzzyTokenMatch(t, want, m.FuzzyEditDistance) {
			return true
		}
	}
	return false
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Strategy           string
	EnableFuzzy        bool
	FuzzyEditDistance  int
	EnableDebugLogging bool
}

// MatchingService answers availability questions for recipe ingredients
// against a pantry snapshot.
type MatchingService struct {
	matcher            NameMatcher
	log                *zap.Logger
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, log *zap.Logger) *MatchingService {
	if log == nil {
		log = zap.NewNop()
	}

	var matcher NameMatcher = SubstringMatcher{}
	if config.Strategy == StrategyToken {
		fuzzyDist := config.FuzzyEditDistance
		if fuzzyDist <= 0 {
			fuzzyDist = 1 // Default edit distance of 1
		}
		matcher = TokenMatcher{EnableFuzzy: config.EnableFuzzy, FuzzyEditDistance: fuzzyDist}
	}

	return &MatchingService{
		matcher:            matcher,
		log:                log,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// NewMatchingServiceWith wraps an arbitrary predicate
func NewMatchingServiceWith(matcher NameMatcher, log *zap.Logger) *MatchingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatchingService{matcher: matcher, log: log}
}

// Matcher returns the predicate in use
func (s *MatchingService) Matcher() NameMatcher {
	return s.matcher
}

// OrderPantry returns a copy of items sorted by creation time, then id.
// Every "first match" in this package is taken over this order.
func OrderPantry(items []domain.PantryItem) []domain.PantryItem {
	out := make([]domain.PantryItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindPantryMatch returns the index of the first item whose name matches the
// ingredient, or -1. items must already be in OrderPantry order.
func (s *MatchingService) FindPantryMatch(items []domain.PantryItem, ingredientName string) int {
	for idx, item := range items {
		if s.matcher.Matches(item.Name, ingredientName) {
			if s.enableDebugLogging {
				s.log.Debug("ingredient matched pantry item",
					zap.String("ingredient", ingredientName),
					zap.String("pantryItem", item.Name),
					zap.String("id", item.ID))
			}
			return idx
		}
	}
	return -1
}

// IsAvailable is the existence-only availability check
func (s *MatchingService) IsAvailable(items []domain.PantryItem, ingredient domain.RecipeIngredient) bool {
	return s.FindPantryMatch(items, ingredient.Name) >= 0
}

// HasEnough is the strict availability check: the first matching item must
// hold at least the required quantity. Units are not compared.
func (s *MatchingService) HasEnough(items []domain.PantryItem, ingredient domain.RecipeIngredient) bool {
	idx := s.FindPantryMatch(items, ingredient.Name)
	if idx < 0 {
		return false
	}
	return items[idx].Quantity >= requiredQuantity(s.log, ingredient)
}

// Availability partitions a recipe's ingredients against a pantry
type Availability struct {
	Available       []domain.RecipeIngredient `json:"available"`
	Missing         []domain.RecipeIngredient `json:"missing"`
	MatchPercentage int                       `json:"matchPercentage"`
}

// Partition splits the recipe's ingredients into available and missing.
// strict selects HasEnough over IsAvailable.
func (s *MatchingService) Partition(recipe domain.Recipe, pantry []domain.PantryItem, strict bool) Availability {
	ordered := OrderPantry(pantry)
	result := Availability{
		Available: []domain.RecipeIngredient{},
		Missing:   []domain.RecipeIngredient{},
	}

	for _, ing := range recipe.Ingredients {
		var ok bool
		if strict {
			ok = s.HasEnough(ordered, ing)
		} else {
			ok = s.IsAvailable(ordered, ing)
		}
		if ok {
			result.Available = append(result.Available, ing)
		} else {
			result.Missing = append(result.Missing, ing)
		}
	}

	result.MatchPercentage = MatchPercentage(len(result.Available), len(recipe.Ingredients))
	return result
}

// MatchPercentage is round(100 * available / total), defined as 0 for an empty recipe
func MatchPercentage(available, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(available) / float64(total)))
}

// extendedStopWords includes basic English stop words plus ingredient-list noise
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "to": true, "for": true,
	"with": true, "from": true,
	// Size/quantity units
	"oz": true, "fl": true, "lb": true, "lbs": true, "ml": true,
	"gallon": true, "quart": true, "pint": true, "liter": true, "liters": true,
	"gram": true, "grams": true, "kg": true, "ounce": true, "ounces": true,
	"cup": true, "cups": true, "tbsp": true, "tsp": true,
	// Preparation words that do not change what the food is
	"fresh": true, "chopped": true, "diced": true, "minced": true, "sliced": true,
	"large": true, "small": true, "medium": true,
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if extendedStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// singular strips a plural suffix so "tomatoes" and "tomato" compare equal
func singular(token string) string {
	switch {
	case strings.HasSuffix(token, "oes") && len(token) > 4:
		return strings.TrimSuffix(token, "es")
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3:
		return strings.TrimSuffix(token, "s")
	}
	return token
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens > 4 chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
