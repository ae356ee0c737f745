package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/infrastructure/pantrycsv"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// RecipeServiceConfig holds configuration for the recipe service
type RecipeServiceConfig struct {
	CacheTTL         time.Duration
	ExpiryWindowDays int
}

// RecipeService manages an owner's recipes and talks to the recipe pipeline
type RecipeService struct {
	recipes    domain.RecipeStore
	pantry     domain.PantryStore
	provider   domain.RecipeProvider
	cache      domain.CacheRepository
	matching   *MatchingService
	cacheTTL   time.Duration
	windowDays int
	now        func() time.Time
	log        *zap.Logger
}

// NewRecipeService creates a new recipe service with dependencies
func NewRecipeService(
	recipes domain.RecipeStore,
	pantry domain.PantryStore,
	provider domain.RecipeProvider,
	cache domain.CacheRepository,
	matching *MatchingService,
	config RecipeServiceConfig,
	log *zap.Logger,
) *RecipeService {
	if log == nil {
		log = zap.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	windowDays := config.ExpiryWindowDays
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}

	return &RecipeService{
		recipes:    recipes,
		pantry:     pantry,
		provider:   provider,
		cache:      cache,
		matching:   matching,
		cacheTTL:   cacheTTL,
		windowDays: windowDays,
		now:        time.Now,
		log:        log,
	}
}

// List returns the owner's recipes in stored order
func (s *RecipeService) List(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	recipes, err := s.recipes.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return recipes, nil
}

// Get returns one recipe
func (s *RecipeService) Get(ctx context.Context, ownerID, id string) (*domain.Recipe, error) {
	recipe, err := s.recipes.Get(ctx, ownerID, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return recipe, nil
}

// Create validates and stores a recipe
func (s *RecipeService) Create(ctx context.Context, ownerID string, recipe domain.Recipe) (*domain.Recipe, error) {
	normalized, err := NormalizeRecipe(recipe)
	if err != nil {
		return nil, err
	}
	created, err := s.recipes.Create(ctx, ownerID, normalized)
	if err != nil {
		return nil, storeErr(err)
	}
	s.log.Info("recipe created",
		zap.String("owner", ownerID),
		zap.String("id", created.ID),
		zap.Int("ingredients", len(created.Ingredients)))
	return created, nil
}

// Delete removes a recipe
func (s *RecipeService) Delete(ctx context.Context, ownerID, id string) error {
	return storeErr(s.recipes.Delete(ctx, ownerID, id))
}

// Availability partitions a stored recipe against the owner's pantry
func (s *RecipeService) Availability(ctx context.Context, ownerID, id string, strict bool) (*Availability, error) {
	recipe, pantry, err := s.recipeAndPantry(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	a := s.matching.Partition(*recipe, pantry, strict)
	return &a, nil
}

// MissingIngredients returns the shopping entries one recipe would add
func (s *RecipeService) MissingIngredients(ctx context.Context, ownerID, id string) ([]domain.ShoppingListEntry, error) {
	recipe, pantry, err := s.recipeAndPantry(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.matching.AggregateMissing([]domain.Recipe{*recipe}, pantry), nil
}

// Rank scores every stored recipe against the pantry and its expiring items
func (s *RecipeService) Rank(ctx context.Context, ownerID string) ([]RankedRecipe, error) {
	recipes, err := s.recipes.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	pantry, err := s.pantry.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	expiring := ExpiringIDs(pantry, s.now(), s.windowDays)
	return s.matching.RankRecipes(recipes, pantry, expiring), nil
}

// Import fetches a recipe from a web page through the pipeline and stores it.
// Pipeline results are cached by normalized URL.
func (s *RecipeService) Import(ctx context.Context, ownerID, rawURL string) (*domain.Recipe, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: recipe url must be an absolute http(s) url", domain.ErrInvalidRequest)
	}

	cacheKey := "recipes:import:" + canonicalURL(u)
	var imported *domain.Recipe
	if cached, err := s.getRecipe(ctx, cacheKey); err == nil {
		imported = cached
	} else {
		imported, err = s.provider.FromURL(ctx, u.String())
		if err != nil {
			return nil, upstreamErr(err)
		}
		s.setCache(ctx, cacheKey, imported)
	}

	recipe := *imported
	source := u.Host
	sourceURL := u.String()
	recipe.Source = &source
	recipe.SourceURL = &sourceURL
	return s.Create(ctx, ownerID, recipe)
}

// Search asks the pipeline for recipes matching a dish name
func (s *RecipeService) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidRequest)
	}

	cacheKey := "recipes:search:" + normalizeForCacheKey(query)
	if cached, err := s.getRecipes(ctx, cacheKey); err == nil {
		return cached, nil
	}

	recipes, err := s.provider.SearchByName(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, upstreamErr(err)
	}
	recipes = normalizeAll(recipes, s.log)
	s.setCache(ctx, cacheKey, recipes)
	return recipes, nil
}

// Generate asks the pipeline for recipes that use what the pantry holds
func (s *RecipeService) Generate(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	pantry, err := s.pantry.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	if len(pantry) == 0 {
		return nil, fmt.Errorf("%w: pantry is empty", domain.ErrInvalidRequest)
	}

	doc, err := pantrycsv.Encode(OrderPantry(pantry))
	if err != nil {
		return nil, err
	}

	cacheKey := "recipes:suggest:" + digest(doc)
	if cached, err := s.getRecipes(ctx, cacheKey); err == nil {
		return cached, nil
	}

	recipes, err := s.provider.Suggestions(ctx, doc)
	if err != nil {
		return nil, upstreamErr(err)
	}
	recipes = normalizeAll(recipes, s.log)
	s.setCache(ctx, cacheKey, recipes)
	return recipes, nil
}

func (s *RecipeService) recipeAndPantry(ctx context.Context, ownerID, id string) (*domain.Recipe, []domain.PantryItem, error) {
	recipe, err := s.recipes.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	pantry, err := s.pantry.List(ctx, ownerID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return recipe, pantry, nil
}

// NormalizeRecipe trims names, fills default ingredient groups and drops
// ingredients without a name. A recipe needs a name and one ingredient.
func NormalizeRecipe(recipe domain.Recipe) (domain.Recipe, error) {
	recipe.Name = strings.TrimSpace(recipe.Name)
	if recipe.Name == "" {
		return recipe, fmt.Errorf("%w: recipe name is required", domain.ErrInvalidRequest)
	}
	if recipe.Servings < 0 || recipe.PrepTime < 0 || recipe.CookTime < 0 {
		return recipe, fmt.Errorf("%w: times and servings must not be negative", domain.ErrInvalidRequest)
	}

	ingredients := make([]domain.RecipeIngredient, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ing.Unit = strings.TrimSpace(ing.Unit)
		ing.Group = strings.TrimSpace(ing.Group)
		if ing.Group == "" {
			ing.Group = domain.DefaultIngredientGroup
		}
		ingredients = append(ingredients, ing)
	}
	if len(ingredients) == 0 {
		return recipe, fmt.Errorf("%w: recipe needs at least one ingredient", domain.ErrInvalidRequest)
	}
	recipe.Ingredients = ingredients
	return recipe, nil
}

func normalizeAll(recipes []domain.Recipe, log *zap.Logger) []domain.Recipe {
	out := make([]domain.Recipe, 0, len(recipes))
	for _, r := range recipes {
		n, err := NormalizeRecipe(r)
		if err != nil {
			log.Debug("dropping pipeline recipe", zap.String("name", r.Name), zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes special characters, and trims whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// digest keys a cache entry on the exact text of doc
func digest(doc string) string {
	sum := sha256.Sum256([]byte(doc))
	return hex.EncodeToString(sum[:])
}

// canonicalURL lowercases the scheme and host only. Paths and queries are case-sensitive.
func canonicalURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	return c.String()
}

func (s *RecipeService) getRecipe(ctx context.Context, key string) (*domain.Recipe, error) {
	var recipe domain.Recipe
	if err := s.getCached(ctx, key, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) getRecipes(ctx context.Context, key string) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	if err := s.getCached(ctx, key, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// getCached decodes a cached value into out. The memory cache hands back
// JSON snapshots; anything else is re-encoded first.
func (s *RecipeService) getCached(ctx context.Context, key string, out interface{}) error {
	if s.cache == nil {
		return domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return err
	}

	var raw []byte
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		if raw, err = json.Marshal(v); err != nil {
			return domain.ErrCacheMiss
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return domain.ErrCacheMiss
	}
	return nil
}

func (s *RecipeService) setCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache pipeline result", zap.String("key", key), zap.Error(err))
	}
}
