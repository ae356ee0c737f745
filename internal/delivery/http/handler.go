package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/usecase"
)

const maxReceiptBytes = 10 << 20

// Services bundles the use cases the handlers drive
type Services struct {
	Pantry   *usecase.PantryService
	Recipes  *usecase.RecipeService
	Cook     *usecase.CookService
	Shopping *usecase.ShoppingListService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pantry   *usecase.PantryService
	recipes  *usecase.RecipeService
	cook     *usecase.CookService
	shopping *usecase.ShoppingListService
	log      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		pantry:   services.Pantry,
		recipes:  services.Recipes,
		cook:     services.Cook,
		shopping: services.Shopping,
		log:      log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pantrypal-backend",
		"version": "1.0.0",
	})
}

// respondError writes the status mapped from err. Server-side failures are
// logged and answered with a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// owner resolves the authenticated owner or answers 401
func (h *Handler) owner(c *gin.Context) (string, bool) {
	id, err := ownerID(c)
	if err != nil {
		h.respondError(c, err)
		return "", false
	}
	return id, true
}

func (h *Handler) bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		h.respondError(c, invalid(err))
		return false
	}
	return true
}

func invalid(err error) error {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
}

// ---- pantry ----

type pantryItemRequest struct {
	Name       string          `json:"name"`
	Quantity   domain.Quantity `json:"quantity"`
	Unit       string          `json:"unit"`
	Category   string          `json:"category"`
	ExpiryDate *domain.Date    `json:"expiryDate"`
}

func (r pantryItemRequest) toDomain(log *zap.Logger) domain.PantryItem {
	return domain.PantryItem{
		Name:       r.Name,
		Quantity:   usecase.PantryQuantity(log, r.Name, r.Quantity),
		Unit:       r.Unit,
		Category:   domain.ParseCategory(r.Category),
		ExpiryDate: r.ExpiryDate,
	}
}

type pantryPatchRequest struct {
	Name       *string          `json:"name"`
	Quantity   *domain.Quantity `json:"quantity"`
	Unit       *string          `json:"unit"`
	Category   *string          `json:"category"`
	ExpiryDate json.RawMessage  `json:"expiryDate"`
}

func (r pantryPatchRequest) toPatch() (domain.PantryItemPatch, error) {
	patch := domain.PantryItemPatch{Name: r.Name, Unit: r.Unit}
	if r.Quantity != nil {
		qty, ok := r.Quantity.Parse()
		if !ok {
			return patch, fmt.Errorf("%w: quantity must be a non-negative number", domain.ErrInvalidRequest)
		}
		patch.Quantity = &qty
	}
	if r.Category != nil {
		category := domain.ParseCategory(*r.Category)
		patch.Category = &category
	}
	if len(r.ExpiryDate) > 0 {
		var date domain.Date
		if err := json.Unmarshal(r.ExpiryDate, &date); err != nil {
			return patch, invalid(err)
		}
		if date.IsZero() {
			patch.ClearExpiry = true
		} else {
			patch.ExpiryDate = &date
		}
	}
	return patch, nil
}

// ListPantry returns the owner's pantry
func (h *Handler) ListPantry(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	items, err := h.pantry.List(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreatePantryItem adds one item
func (h *Handler) CreatePantryItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req pantryItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.pantry.Create(c.Request.Context(), owner, req.toDomain(h.log))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// CreatePantryItems adds several items, typically reviewed receipt candidates
func (h *Handler) CreatePantryItems(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req struct {
		Items []pantryItemRequest `json:"items"`
	}
	if !h.bindJSON(c, &req) {
		return
	}
	items := make([]domain.PantryItem, 0, len(req.Items))
	for _, r := range req.Items {
		items = append(items, r.toDomain(h.log))
	}
	created, err := h.pantry.CreateMany(c.Request.Context(), owner, items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": created})
}

// UpdatePantryItem applies a partial update
func (h *Handler) UpdatePantryItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req pantryPatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.pantry.Update(c.Request.Context(), owner, c.Param("id"), patch); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeletePantryItem removes an item
func (h *Handler) DeletePantryItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	if err := h.pantry.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExpiringPantry returns items expiring soon and already expired
func (h *Handler) ExpiringPantry(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	report, err := h.pantry.Expiring(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportPantry downloads the pantry as CSV
func (h *Handler) ExportPantry(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	doc, err := h.pantry.ExportCSV(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pantry.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(doc))
}

// ScanReceipt reads an uploaded receipt image into candidate items. Nothing is stored.
func (h *Handler) ScanReceipt(c *gin.Context) {
	if _, ok := h.owner(c); !ok {
		return
	}
	header, err := c.FormFile("receipt")
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: multipart field 'receipt' is required", domain.ErrInvalidRequest))
		return
	}
	if header.Size > maxReceiptBytes {
		h.respondError(c, fmt.Errorf("%w: receipt image is larger than 10MB", domain.ErrInvalidRequest))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(c, invalid(err))
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes))
	if err != nil {
		h.respondError(c, invalid(err))
		return
	}

	items, err := h.pantry.ScanReceipt(c.Request.Context(), image, header.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Stats returns the category distribution and balance score
func (h *Handler) Stats(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	stats, err := h.pantry.Stats(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Substitutes lists known substitutes for an ingredient and which of them are in the pantry
func (h *Handler) Substitutes(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	name := c.Param("name")
	all, inPantry, err := h.pantry.Substitutes(c.Request.Context(), owner, name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredient": name, "substitutes": all, "inPantry": inPantry})
}

// ---- recipes ----

// ListRecipes returns the owner's recipes
func (h *Handler) ListRecipes(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	recipes, err := h.recipes.List(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// CreateRecipe stores a user-authored recipe
func (h *Handler) CreateRecipe(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var recipe domain.Recipe
	if !h.bindJSON(c, &recipe) {
		return
	}
	created, err := h.recipes.Create(c.Request.Context(), owner, recipe)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRecipe returns one recipe
func (h *Handler) GetRecipe(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe
func (h *Handler) DeleteRecipe(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecipeAvailability partitions a recipe's ingredients against the pantry
func (h *Handler) RecipeAvailability(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	strict := false
	if raw := c.Query("strict"); raw != "" {
		var err error
		if strict, err = strconv.ParseBool(raw); err != nil {
			h.respondError(c, fmt.Errorf("%w: strict must be a boolean", domain.ErrInvalidRequest))
			return
		}
	}
	availability, err := h.recipes.Availability(c.Request.Context(), owner, c.Param("id"), strict)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

// RecipeShoppingList returns the entries one recipe would add to a shopping list
func (h *Handler) RecipeShoppingList(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	entries, err := h.recipes.MissingIngredients(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// CookRecipe depletes the pantry by a recipe's ingredients. A partial failure
// answers 500 with the mutations that were applied.
func (h *Handler) CookRecipe(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	result, err := h.cook.Cook(c.Request.Context(), owner, c.Param("id"))
	var depletionErr *usecase.DepletionError
	if errors.As(err, &depletionErr) {
		h.log.Error("cook stopped part way",
			zap.String("owner", owner),
			zap.String("recipe", c.Param("id")),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "pantry update stopped part way",
			"applied": depletionErr.Applied,
			"failed":  depletionErr.Failed,
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RankRecipes orders recipes by expiring ingredients used, then by match percentage
func (h *Handler) RankRecipes(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	ranked, err := h.recipes.Rank(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": ranked})
}

// GenerateRecipes asks the pipeline for recipes built from the pantry
func (h *Handler) GenerateRecipes(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	recipes, err := h.recipes.Generate(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// SearchRecipes looks recipes up by dish name
func (h *Handler) SearchRecipes(c *gin.Context) {
	if _, ok := h.owner(c); !ok {
		return
	}
	recipes, err := h.recipes.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// ImportRecipe imports and stores the recipe published at a URL
func (h *Handler) ImportRecipe(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if !h.bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipes.Import(c.Request.Context(), owner, req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// ---- shopping list ----

func (h *Handler) respondList(c *gin.Context, state *domain.ShoppingListState, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetShoppingList returns the reconciled shopping list
func (h *Handler) GetShoppingList(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	state, err := h.shopping.Get(c.Request.Context(), owner)
	h.respondList(c, state, err)
}

// SelectShoppingRecipes replaces the set of recipes the list is built from
func (h *Handler) SelectShoppingRecipes(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req struct {
		RecipeIDs []string `json:"recipeIds"`
	}
	if !h.bindJSON(c, &req) {
		return
	}
	state, err := h.shopping.SelectRecipes(c.Request.Context(), owner, req.RecipeIDs)
	h.respondList(c, state, err)
}

// AddShoppingItem adds a custom entry
func (h *Handler) AddShoppingItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req struct {
		Name     string          `json:"name"`
		Quantity domain.Quantity `json:"quantity"`
		Unit     string          `json:"unit"`
	}
	if !h.bindJSON(c, &req) {
		return
	}
	qty, parsed := req.Quantity.Parse()
	if !parsed && strings.TrimSpace(req.Quantity.Raw) != "" {
		h.respondError(c, fmt.Errorf("%w: quantity must be a non-negative number", domain.ErrInvalidRequest))
		return
	}
	state, err := h.shopping.AddCustom(c.Request.Context(), owner, req.Name, qty, req.Unit)
	h.respondList(c, state, err)
}

// EditShoppingItem changes an entry's quantity or unit, or a custom entry's name
func (h *Handler) EditShoppingItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req struct {
		Name     *string          `json:"name"`
		Quantity *domain.Quantity `json:"quantity"`
		Unit     *string          `json:"unit"`
	}
	if !h.bindJSON(c, &req) {
		return
	}
	edit := usecase.EntryEdit{Name: req.Name, Unit: req.Unit}
	if req.Quantity != nil {
		qty, parsed := req.Quantity.Parse()
		if !parsed {
			h.respondError(c, fmt.Errorf("%w: quantity must be a non-negative number", domain.ErrInvalidRequest))
			return
		}
		edit.Quantity = &qty
	}
	state, err := h.shopping.EditEntry(c.Request.Context(), owner, c.Param("id"), edit)
	h.respondList(c, state, err)
}

// RemoveShoppingItem removes an entry
func (h *Handler) RemoveShoppingItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	state, err := h.shopping.RemoveEntry(c.Request.Context(), owner, c.Param("id"))
	h.respondList(c, state, err)
}

// ToggleShoppingItem flips an entry's checked state
func (h *Handler) ToggleShoppingItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	state, err := h.shopping.ToggleChecked(c.Request.Context(), owner, c.Param("id"))
	h.respondList(c, state, err)
}

// ClearCheckedShoppingItems removes every checked entry
func (h *Handler) ClearCheckedShoppingItems(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	state, err := h.shopping.ClearChecked(c.Request.Context(), owner)
	h.respondList(c, state, err)
}

// ClearShoppingList drops the whole list
func (h *Handler) ClearShoppingList(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	if err := h.shopping.Clear(c.Request.Context(), owner); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportShoppingList renders the list as plain text
func (h *Handler) ExportShoppingList(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	text, err := h.shopping.ExportText(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}
