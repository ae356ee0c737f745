package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantrypal/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, verifier TokenVerifier, log *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxReceiptBytes

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.GET("/health", handler.HealthCheck)

	api := v1.Group("")
	api.Use(AuthMiddleware(verifier))
	{
		pantry := api.Group("/pantry")
		{
			pantry.GET("", handler.ListPantry)
			pantry.POST("", handler.CreatePantryItem)
			pantry.POST("/batch", handler.CreatePantryItems)
			pantry.PUT("/:id", handler.UpdatePantryItem)
			pantry.DELETE("/:id", handler.DeletePantryItem)
			pantry.GET("/expiring", handler.ExpiringPantry)
			pantry.GET("/export", handler.ExportPantry)
			pantry.POST("/receipt", handler.ScanReceipt)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("", handler.ListRecipes)
			recipes.POST("", handler.CreateRecipe)
			recipes.GET("/suggestions", handler.RankRecipes)
			recipes.GET("/search", handler.SearchRecipes)
			recipes.POST("/generate", handler.GenerateRecipes)
			recipes.POST("/import", handler.ImportRecipe)
			recipes.GET("/:id", handler.GetRecipe)
			recipes.DELETE("/:id", handler.DeleteRecipe)
			recipes.GET("/:id/availability", handler.RecipeAvailability)
			recipes.GET("/:id/shopping-list", handler.RecipeShoppingList)
			recipes.POST("/:id/cook", handler.CookRecipe)
		}

		shopping := api.Group("/shopping-list")
		{
			shopping.GET("", handler.GetShoppingList)
			shopping.DELETE("", handler.ClearShoppingList)
			shopping.GET("/export", handler.ExportShoppingList)
			shopping.PUT("/selection", handler.SelectShoppingRecipes)
			shopping.POST("/items", handler.AddShoppingItem)
			shopping.PATCH("/items/:id", handler.EditShoppingItem)
			shopping.DELETE("/items/:id", handler.RemoveShoppingItem)
			shopping.POST("/items/:id/toggle", handler.ToggleShoppingItem)
			shopping.POST("/clear-checked", handler.ClearCheckedShoppingItems)
		}

		api.GET("/stats", handler.Stats)
		api.GET("/ingredients/:name/substitutes", handler.Substitutes)
	}

	return router
}
