package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplango/backend/internal/database"
	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies collects what the routes need.
type Dependencies struct {
	DB          *gorm.DB
	Plans       *PlanHandler
	Webhooks    *WebhookHandler
	RateLimiter *middleware.RateLimiter
	Auth        middleware.TokenValidator
	Identity    identity.Options
}

// HealthCheck returns the health status of the API
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := database.HealthCheck(ctx, db); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "database unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "MealPlanGo API is running",
		})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheck(deps.DB))
	router.GET("/api/health", HealthCheck(deps.DB))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Webhooks carry no client identity or session.
	deps.Webhooks.RegisterRoutes(api)

	client := api.Group("")
	client.Use(middleware.Identity(deps.Identity))
	client.Use(middleware.OptionalAuth(deps.Auth))

	var limit gin.HandlerFunc
	if deps.RateLimiter != nil {
		limit = deps.RateLimiter.RateLimitMiddleware()
	}
	deps.Plans.RegisterRoutes(client, limit)
}
