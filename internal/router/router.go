package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"helix/internal/auth"
	"helix/internal/handler"
	"helix/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *zap.Logger,
	corsOrigins []string,
	verifier auth.TokenVerifier,
	consoleH *handler.ConsoleHandler,
	routingH *handler.RoutingHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes - require a valid operator JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(verifier))

	v1.GET("/routing", routingH.Catalogue)

	con := v1.Group("/console")
	con.GET("", consoleH.Get)
	con.PUT("/routing", consoleH.SetRouting)
	con.POST("/files", consoleH.AddFiles)
	con.DELETE("/files", consoleH.ClearFiles)
	con.DELETE("/files/:id", consoleH.RemoveFile)
	con.POST("/validate", consoleH.Validate)
	con.POST("/submit", consoleH.Submit)
	con.POST("/cancel", consoleH.Cancel)
	con.GET("/batches", consoleH.ListBatches)
	con.GET("/batches/:id", consoleH.GetBatch)
	con.GET("/batches/:id/export", consoleH.ExportBatch)

	return r
}
