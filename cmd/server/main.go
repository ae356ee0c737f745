package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/config"
	httpDelivery "github.com/pantrypal/backend/internal/delivery/http"
	"github.com/pantrypal/backend/internal/domain"
	"github.com/pantrypal/backend/internal/infrastructure/bolt"
	"github.com/pantrypal/backend/internal/infrastructure/cache"
	"github.com/pantrypal/backend/internal/infrastructure/gumloop"
	"github.com/pantrypal/backend/internal/infrastructure/identity"
	"github.com/pantrypal/backend/internal/infrastructure/logging"
	"github.com/pantrypal/backend/internal/infrastructure/memory"
	"github.com/pantrypal/backend/internal/infrastructure/postgres"
	"github.com/pantrypal/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// stores bundles the persistence backend picked by configuration
type stores struct {
	pantry   domain.PantryStore
	recipes  domain.RecipeStore
	lists    domain.ShoppingListStore
	shutdown func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Mode:       cfg.Log.Mode,
		Level:      cfg.Log.Level,
		FileEnable: cfg.Log.FileEnable,
		Filename:   cfg.Log.Filename,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	logger.Info("starting PantryPal backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Type))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.shutdown()

	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval, logger)
	defer func() { _ = memoryCache.Close() }()

	pipeline := gumloop.NewClient(gumloop.Config{
		APIKey:            cfg.Gumloop.APIKey,
		BaseURL:           cfg.Gumloop.BaseURL,
		UserID:            cfg.Gumloop.UserID,
		SuggestPipelineID: cfg.Gumloop.SuggestPipelineID,
		SearchPipelineID:  cfg.Gumloop.SearchPipelineID,
		ImportPipelineID:  cfg.Gumloop.ImportPipelineID,
		ReceiptPipelineID: cfg.Gumloop.ReceiptPipelineID,
		PollInterval:      cfg.Gumloop.PollInterval,
		MaxWait:           cfg.Gumloop.MaxWait,
		RequestsPerHour:   cfg.RateLimit.Upstream,
	}, logger)
	if cfg.Gumloop.APIKey == "" {
		logger.Warn("pipeline API key not configured, import, search, generate and receipt scanning will fail")
	}

	verifier, err := identity.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	// Initialize usecase layer
	matching := usecase.NewMatchingService(usecase.MatchConfig{
		Strategy:           cfg.Matching.Strategy,
		EnableFuzzy:        cfg.Matching.EnableFuzzy,
		FuzzyEditDistance:  cfg.Matching.FuzzyEditDistance,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, logger)

	services := httpDelivery.Services{
		Pantry: usecase.NewPantryService(st.pantry, pipeline, usecase.PantryServiceConfig{
			ExpiryWindowDays:   cfg.Expiry.WindowDays,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		}, logger),
		Recipes: usecase.NewRecipeService(st.recipes, st.pantry, pipeline, memoryCache, matching, usecase.RecipeServiceConfig{
			CacheTTL:         cfg.Cache.TTL,
			ExpiryWindowDays: cfg.Expiry.WindowDays,
		}, logger),
		Cook:     usecase.NewCookService(st.pantry, st.recipes, matching, logger),
		Shopping: usecase.NewShoppingListService(st.lists, st.recipes, st.pantry, matching, logger),
	}

	handler := httpDelivery.NewHandler(services, logger)
	router := httpDelivery.SetupRouter(cfg, handler, verifier, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Store.Type {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Store.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &stores{
			pantry:   postgres.NewPantryStore(pool),
			recipes:  postgres.NewRecipeStore(pool),
			lists:    postgres.NewShoppingListStore(pool),
			shutdown: pool.Close,
		}, nil
	case "bolt":
		db, err := bolt.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
		logger.Info("bolt store opened", zap.String("path", cfg.Store.BoltPath))
		return &stores{
			pantry:  bolt.NewPantryStore(db),
			recipes: bolt.NewRecipeStore(db),
			lists:   bolt.NewShoppingListStore(db),
			shutdown: func() {
				if err := db.Close(); err != nil {
					logger.Warn("closing bolt store", zap.Error(err))
				}
			},
		}, nil
	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			pantry:   memory.NewPantryStore(),
			recipes:  memory.NewRecipeStore(),
			lists:    memory.NewShoppingListStore(),
			shutdown: func() {},
		}, nil
	}
}
