package router

import (
	"github.com/gin-gonic/gin"

	"agroprice/internal/domain"
	"agroprice/internal/handler"
	"agroprice/internal/middleware"
	"agroprice/internal/service"
)

// multipartMemory caps the in-memory part of a parsed multipart upload; larger
// bodies spill to temporary files.
const multipartMemory = 32 << 20

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	priceH *handler.PriceTrendHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = multipartMemory

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Admin routes - price trend ingestion
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(authSvc))
	admin.Use(middleware.RequireRole(domain.RoleAdmin))

	prices := admin.Group("/price-trends")
	prices.POST("/price-data", priceH.CreateParseTask)
	prices.GET("/tasks", priceH.ListTasks)
	prices.GET("/task-status/:taskId", priceH.GetTaskStatus)
	prices.POST("/task-status/:taskId/cancel", priceH.CancelTask)
	prices.GET("/task-status/:taskId/export", priceH.ExportTask)
	prices.POST("/save-price-data", priceH.SavePriceData)

	return r
}
