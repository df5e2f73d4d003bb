package api

import (
	"context"
	"net/http"
	"time"

	"github.com/consultancy-portal-api/internal/auth"
	"github.com/consultancy-portal-api/internal/config"
	"github.com/consultancy-portal-api/internal/models"
	"github.com/consultancy-portal-api/internal/service"
	"github.com/consultancy-portal-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. db may be nil.
func NewRouter(services *service.Services, cfg *config.Config, db HealthChecker, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	metrics := newHTTPMetrics()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(metrics.middleware())
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(services, log)
	articleHandler := NewArticleHandler(services, log)
	kycHandler := NewKYCHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)

	anyRole := requireRoles(services.Access, log, auth.RoleAdmin, auth.RoleKYCReviewer)
	adminOnly := requireRoles(services.Access, log, auth.RoleAdmin)

	// Health check
	router.GET("/health", healthCheck(db))
	router.GET("/metrics", metricsHandler(services))
	router.GET("/metrics/prometheus", metrics.handler())

	// API v1
	v1 := router.Group("/api/v1")
	{
		gates := v1.Group("/auth")
		{
			gates.POST("/admin", authHandler.AdminLogin)
			gates.POST("/kyc", authHandler.KYCLogin)
			gates.GET("/me", anyRole, authHandler.Me)
		}

		// Public endpoints
		v1.GET("/articles", articleHandler.ListPublished)
		v1.GET("/articles/:slug", articleHandler.GetPublished)
		v1.POST("/kyc", bodyLimit(cfg.KYC.MaxUploadSize), kycHandler.Submit)

		// Reviewer endpoints
		review := v1.Group("", anyRole)
		{
			review.GET("/kyc", kycHandler.List)
			review.GET("/kyc/:id", kycHandler.Get)
			review.PATCH("/kyc/:id", kycHandler.UpdateReview)
			review.GET("/kyc/:id/documents/:type", kycHandler.Document)
			review.GET("/exports", exportHandler.StreamExport)
		}

		// Admin endpoints
		admin := v1.Group("/admin", adminOnly)
		{
			admin.GET("/articles", articleHandler.List)
			admin.POST("/articles", articleHandler.Create)
			admin.GET("/articles/:id", articleHandler.Get)
			admin.PUT("/articles/:id", articleHandler.Update)
			admin.DELETE("/articles/:id", articleHandler.Delete)
			admin.DELETE("/kyc/:id", kycHandler.Delete)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{}

		if db != nil {
			ctx, cancel := contextWithTimeout(c, 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks["database"] = err.Error()
			} else {
				checks["database"] = "ok"
			}
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":    state,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
			"checks":    checks,
		})
	}
}

// metricsHandler returns record counts per resource
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		articlesCount, _ := services.Export.GetCount(ctx, models.ResourceArticles)
		kycCount, _ := services.Export.GetCount(ctx, models.ResourceKYC)

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"articles":        articlesCount,
				"kyc_submissions": kycCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+apiKeyHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, Retry-After")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
