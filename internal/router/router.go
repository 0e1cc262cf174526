package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"savemymoney/internal/config"
	"savemymoney/internal/handler"
	"savemymoney/internal/middleware"

	_ "savemymoney/docs" // registers the OpenAPI spec with swag
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	receiptH *handler.ReceiptHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	receipts := v1.Group("/receipts")
	receipts.POST("/extract", middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst), receiptH.Extract)
	receipts.GET("/runs", receiptH.ListRuns)

	return r
}
