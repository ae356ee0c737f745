package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pantrypal/backend/internal/domain"
)

// MockPantryStore is a mock implementation of domain.PantryStore
type MockPantryStore struct {
	items       []domain.PantryItem
	nextID      int
	listError   error
	createError error
	updateError error
	deleteError error
	updates     int
	deletes     int
}

func NewMockPantryStore(items ...domain.PantryItem) *MockPantryStore {
	return &MockPantryStore{items: append([]domain.PantryItem(nil), items...)}
}

func (m *MockPantryStore) List(ctx context.Context, ownerID string) ([]domain.PantryItem, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return append([]domain.PantryItem(nil), m.items...), nil
}

func (m *MockPantryStore) Create(ctx context.Context, ownerID string, item domain.PantryItem) (*domain.PantryItem, error) {
	if m.createError != nil {
		return nil, m.createError
	}
	m.nextID++
	item.ID = fmt.Sprintf("item-%d", m.nextID)
	item.CreatedAt = baseTime.Add(time.Duration(len(m.items)) * time.Hour)
	m.items = append(m.items, item)
	return &item, nil
}

func (m *MockPantryStore) Update(ctx context.Context, ownerID, id string, patch domain.PantryItemPatch) error {
	if m.updateError != nil {
		return m.updateError
	}
	for i := range m.items {
		if m.items[i].ID == id {
			patch.Apply(&m.items[i])
			m.updates++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockPantryStore) Delete(ctx context.Context, ownerID, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			m.deletes++
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockRecipeStore is a mock implementation of domain.RecipeStore
type MockRecipeStore struct {
	recipes   []domain.Recipe
	listError error
}

func NewMockRecipeStore(recipes ...domain.Recipe) *MockRecipeStore {
	return &MockRecipeStore{recipes: append([]domain.Recipe(nil), recipes...)}
}

func (m *MockRecipeStore) List(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return append([]domain.Recipe(nil), m.recipes...), nil
}

func (m *MockRecipeStore) Get(ctx context.Context, ownerID, id string) (*domain.Recipe, error) {
	for _, r := range m.recipes {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRecipeStore) Create(ctx context.Context, ownerID string, recipe domain.Recipe) (*domain.Recipe, error) {
	recipe.ID = fmt.Sprintf("recipe-%d", len(m.recipes)+1)
	m.recipes = append(m.recipes, recipe)
	return &recipe, nil
}

func (m *MockRecipeStore) Delete(ctx context.Context, ownerID, id string) error {
	for i, r := range m.recipes {
		if r.ID == id {
			m.recipes = append(m.recipes[:i], m.recipes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// MockShoppingListStore is a mock implementation of domain.ShoppingListStore
type MockShoppingListStore struct {
	state    *domain.ShoppingListState
	putCalls int
	putError error
}

func NewMockShoppingListStore() *MockShoppingListStore {
	return &MockShoppingListStore{}
}

func (m *MockShoppingListStore) Get(ctx context.Context, ownerID string) (*domain.ShoppingListState, error) {
	if m.state == nil {
		empty := domain.EmptyShoppingList()
		return &empty, nil
	}
	s := *m.state
	return &s, nil
}

func (m *MockShoppingListStore) Put(ctx context.Context, ownerID string, state domain.ShoppingListState) error {
	if m.putError != nil {
		return m.putError
	}
	m.putCalls++
	m.state = &state
	return nil
}

func (m *MockShoppingListStore) Clear(ctx context.Context, ownerID string) error {
	m.state = nil
	return nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockRecipeProvider is a mock implementation of domain.RecipeProvider
type MockRecipeProvider struct {
	urlResult     *domain.Recipe
	listResult    []domain.Recipe
	err           error
	calls         int
	lastPantryCSV string
	lastQuery     string
}

func (m *MockRecipeProvider) FromURL(ctx context.Context, url string) (*domain.Recipe, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	r := *m.urlResult
	return &r, nil
}

func (m *MockRecipeProvider) Suggestions(ctx context.Context, pantryCSV string) ([]domain.Recipe, error) {
	m.calls++
	m.lastPantryCSV = pantryCSV
	if m.err != nil {
		return nil, m.err
	}
	return m.listResult, nil
}

func (m *MockRecipeProvider) SearchByName(ctx context.Context, query string) ([]domain.Recipe, error) {
	m.calls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.listResult, nil
}

// MockReceiptScanner is a mock implementation of domain.ReceiptScanner
type MockReceiptScanner struct {
	items []domain.PantryItem
	err   error
}

func (m *MockReceiptScanner) Extract(ctx context.Context, image []byte, filename string) ([]domain.PantryItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}
