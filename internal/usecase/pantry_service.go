package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/infrastructure/pantrycsv"
)

// PantryServiceConfig holds configuration for the pantry service
type PantryServiceConfig struct {
	ExpiryWindowDays   int
	EnableDebugLogging bool
}

// PantryService manages an owner's pantry items
type PantryService struct {
	store      domain.PantryStore
	scanner    domain.ReceiptScanner
	normalizer *ReceiptNormalizer
	windowDays int
	now        func() time.Time
	log        *zap.Logger
}

// NewPantryService creates a new pantry service. scanner may be nil when
// receipt scanning is not configured.
func NewPantryService(store domain.PantryStore, scanner domain.ReceiptScanner, config PantryServiceConfig, log *zap.Logger) *PantryService {
	if log == nil {
		log = zap.NewNop()
	}
	windowDays := config.ExpiryWindowDays
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}
	return &PantryService{
		store:      store,
		scanner:    scanner,
		normalizer: NewReceiptNormalizer(log, config.EnableDebugLogging),
		windowDays: windowDays,
		now:        time.Now,
		log:        log,
	}
}

// List returns the owner's pantry in matching order
func (s *PantryService) List(ctx context.Context, ownerID string) ([]domain.PantryItem, error) {
	items, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return OrderPantry(items), nil
}

// Create validates and stores a pantry item
func (s *PantryService) Create(ctx context.Context, ownerID string, item domain.PantryItem) (*domain.PantryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Unit = strings.TrimSpace(item.Unit)
	if item.Name == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidRequest)
	}
	if err := validateQuantity(item.Quantity); err != nil {
		return nil, err
	}
	item.Category = domain.ParseCategory(string(item.Category))
	if item.ExpiryDate != nil && item.ExpiryDate.IsZero() {
		item.ExpiryDate = nil
	}

	created, err := s.store.Create(ctx, ownerID, item)
	if err != nil {
		return nil, storeErr(err)
	}
	return created, nil
}

// CreateMany stores items one at a time and stops at the first failure,
// returning what was stored so far.
func (s *PantryService) CreateMany(ctx context.Context, ownerID string, items []domain.PantryItem) ([]domain.PantryItem, error) {
	created := make([]domain.PantryItem, 0, len(items))
	for _, item := range items {
		c, err := s.Create(ctx, ownerID, item)
		if err != nil {
			return created, err
		}
		created = append(created, *c)
	}
	return created, nil
}

// Update applies a partial update
func (s *PantryService) Update(ctx context.Context, ownerID, id string, patch domain.PantryItemPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", domain.ErrInvalidRequest)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: item name is required", domain.ErrInvalidRequest)
		}
		patch.Name = &name
	}
	if patch.Quantity != nil {
		if err := validateQuantity(*patch.Quantity); err != nil {
			return err
		}
	}
	if patch.Category != nil {
		c := domain.ParseCategory(string(*patch.Category))
		patch.Category = &c
	}
	return storeErr(s.store.Update(ctx, ownerID, id, patch))
}

// Delete removes an item
func (s *PantryService) Delete(ctx context.Context, ownerID, id string) error {
	return storeErr(s.store.Delete(ctx, ownerID, id))
}

// Expiring reports the items that are expired or expiring soon
func (s *PantryService) Expiring(ctx context.Context, ownerID string) (ExpiryReport, error) {
	items, err := s.store.List(ctx, ownerID)
	if err != nil {
		return ExpiryReport{}, storeErr(err)
	}
	return ClassifyPantry(items, s.now(), s.windowDays), nil
}

// ExportCSV renders the pantry in the suggestion pipeline's CSV format
func (s *PantryService) ExportCSV(ctx context.Context, ownerID string) (string, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return pantrycsv.Encode(items)
}

// Stats summarizes the pantry's category balance and expiry counts
func (s *PantryService) Stats(ctx context.Context, ownerID string) (PantryStats, error) {
	items, err := s.store.List(ctx, ownerID)
	if err != nil {
		return PantryStats{}, storeErr(err)
	}
	return ComputeStats(items, ClassifyPantry(items, s.now(), s.windowDays)), nil
}

// Substitutes lists known substitutes for an ingredient and the ones
// already in the pantry
func (s *PantryService) Substitutes(ctx context.Context, ownerID, ingredient string) ([]string, []Substitute, error) {
	if strings.TrimSpace(ingredient) == "" {
		return nil, nil, fmt.Errorf("%w: ingredient name is required", domain.ErrInvalidRequest)
	}
	items, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return Substitutes(ingredient), PantrySubstitutes(ingredient, items), nil
}

// ScanReceipt extracts candidate items from a receipt image. Candidates are
// returned for review and are not stored.
func (s *PantryService) ScanReceipt(ctx context.Context, image []byte, filename string) ([]domain.PantryItem, error) {
	if s.scanner == nil {
		return nil, fmt.Errorf("%w: receipt scanning is not configured", domain.ErrUpstreamFailure)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: receipt image is empty", domain.ErrInvalidRequest)
	}

	candidates, err := s.scanner.Extract(ctx, image, filename)
	if err != nil {
		return nil, upstreamErr(err)
	}
	items := s.normalizer.Normalize(candidates)
	s.log.Info("receipt scanned",
		zap.String("file", filename),
		zap.Int("lines", len(candidates)),
		zap.Int("items", len(items)))
	return items, nil
}

func validateQuantity(q float64) error {
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("%w: quantity must be a non-negative number", domain.ErrInvalidRequest)
	}
	return nil
}
