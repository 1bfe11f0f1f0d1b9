package http

import (
	"github.com/gin-gonic/gin"

	"github.com/scrapedgit/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		chat := v1.Group("/chat")
		{
			chat.POST("", handler.Chat)
			chat.POST("/accumulate", handler.Accumulate)
			chat.GET("/sessions/:id", handler.GetSession)
			chat.DELETE("/sessions/:id", handler.DeleteSession)
		}

		v1.POST("/recommendations/score", handler.ScoreProducts)

		shipping := v1.Group("/shipping")
		{
			shipping.GET("/estimate", handler.EstimateShipping)
			shipping.GET("/cities", handler.ShippingCities)
		}

		v1.POST("/export", handler.Export)
	}

	return router
}
