package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplango/backend/internal/entitlement"
	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/metrics"
	"github.com/pageza/mealplango/backend/internal/middleware"
	"github.com/pageza/mealplango/backend/internal/render"
	"github.com/pageza/mealplango/backend/internal/service"
	"github.com/pageza/mealplango/backend/internal/types"
	"github.com/rs/zerolog"
)

// PlanHandler serves meal plan generation and the entitlement lookups the
// web client makes before it.
type PlanHandler struct {
	resolver  *entitlement.Resolver
	usage     *entitlement.UsageCounter
	generator service.IPlanGenerator
	renderer  service.IPlanRenderer
	archive   service.IPlanArchive
	trials    service.ITrialLedger
	profiles  service.IProfileStore
	// legacyAuth trusts the body's user object when no token verifier is configured.
	legacyAuth bool
}

// PlanHandlerConfig wires a PlanHandler. Archive may be nil.
type PlanHandlerConfig struct {
	Trials     service.ITrialLedger
	Profiles   service.IProfileStore
	Generator  service.IPlanGenerator
	Renderer   service.IPlanRenderer
	Archive    service.IPlanArchive
	Policy     entitlement.Policy
	LegacyAuth bool
}

// NewPlanHandler creates a new PlanHandler instance
func NewPlanHandler(cfg PlanHandlerConfig) *PlanHandler {
	return &PlanHandler{
		resolver:   entitlement.NewResolver(cfg.Trials, cfg.Profiles, cfg.Policy),
		usage:      entitlement.NewUsageCounter(cfg.Profiles),
		generator:  cfg.Generator,
		renderer:   cfg.Renderer,
		archive:    cfg.Archive,
		trials:     cfg.Trials,
		profiles:   cfg.Profiles,
		legacyAuth: cfg.LegacyAuth,
	}
}

// RegisterRoutes registers the plan routes. limit guards generation only.
func (h *PlanHandler) RegisterRoutes(router *gin.RouterGroup, limit gin.HandlerFunc) {
	if limit != nil {
		router.POST("/generate-plan", limit, h.GeneratePlan)
	} else {
		router.POST("/generate-plan", h.GeneratePlan)
	}
	router.GET("/check-trial", h.CheckTrial)
	router.POST("/get-plan", h.GetPlan)
}

// GeneratePlan gates, generates and streams a meal plan PDF.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())

	var req types.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	attempt := h.attempt(c, &req)
	decision := h.resolver.Resolve(c.Request.Context(), attempt)
	metrics.EntitlementDecisions.WithLabelValues(string(decision.Code), string(decision.Grant)).Inc()

	if !decision.Allowed() {
		if decision.Failed() {
			logger.Error().Err(decision.Err).Str("outcome", string(decision.Code)).Msg("Entitlement lookup failed")
		} else {
			logger.Debug().
				Str("outcome", string(decision.Code)).
				Bool("authenticated", attempt.Authenticated).
				Msg("Generation denied")
		}
		c.JSON(decision.HTTPStatus(), gin.H{"error": decision.Code, "message": decision.Message()})
		return
	}

	prefs := req.Preferences()
	start := time.Now()
	plan, err := h.generator.GeneratePlan(c.Request.Context(), prefs)
	if err != nil {
		result := "llm_error"
		if errors.Is(err, service.ErrMalformedPlan) {
			result = "malformed_plan"
		}
		metrics.GenerationDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		logger.Error().Err(err).Str("grant", string(decision.Grant)).Msg("Meal plan generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "generation_failed",
			"message": "We could not generate your meal plan. Please try again.",
		})
		return
	}

	document, err := h.renderer.Render(plan, types.RenderOptions{
		PeopleCount: prefs.PeopleCount,
		Preview:     decision.Grant == entitlement.GrantTrial,
	})
	if err != nil {
		metrics.GenerationDuration.WithLabelValues("render_error").Observe(time.Since(start).Seconds())
		logger.Error().Err(err).Msg("Meal plan rendering failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "generation_failed",
			"message": "We could not generate your meal plan. Please try again.",
		})
		return
	}
	metrics.GenerationDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	if !h.deliver(c, document) {
		logger.Warn().Str("grant", string(decision.Grant)).Msg("Meal plan delivery failed, usage not charged")
		return
	}

	// Post-delivery writes outlive a client that hangs up.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.usage.Record(ctx, decision); err != nil {
		metrics.UsageIncrementFailures.Inc()
		logger.Error().Err(err).Str("account", decision.Account).Msg("Failed to record usage")
	}

	if h.archive != nil {
		if key, err := h.archive.Store(ctx, document); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive meal plan")
		} else {
			logger.Debug().Str("key", key).Msg("Meal plan archived")
		}
	}

	logger.Info().
		Str("grant", string(decision.Grant)).
		Int("days", len(plan.Meals)).
		Int("bytes", len(document)).
		Msg("Meal plan delivered")
}

// deliver writes the PDF and reports whether every byte reached the writer.
func (h *PlanHandler) deliver(c *gin.Context, document []byte) bool {
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="`+render.Filename+`"`)
	c.Status(http.StatusOK)
	n, err := c.Writer.Write(document)
	return err == nil && n == len(document)
}

func (h *PlanHandler) attempt(c *gin.Context, req *types.GenerateRequest) entitlement.Attempt {
	key, ok := middleware.ClientIdentity(c)
	if !ok {
		key = identity.Derive(c.GetHeader("X-Forwarded-For"), c.GetHeader("User-Agent"), identity.Options{})
	}

	a := entitlement.Attempt{Identity: key}
	if email, ok := middleware.AuthenticatedEmail(c); ok {
		a.Authenticated = true
		a.Account = email
		return a
	}
	if h.legacyAuth && req.User != nil {
		a.Authenticated = true
		a.Account = req.Account()
	}
	return a
}

// CheckTrial reports whether the caller's free plan is still available.
// It never consumes the trial.
func (h *PlanHandler) CheckTrial(c *gin.Context) {
	key, ok := middleware.ClientIdentity(c)
	if !ok {
		key = identity.Derive(c.GetHeader("X-Forwarded-For"), c.GetHeader("User-Agent"), identity.Options{})
	}

	used, err := h.trials.HasUsed(c.Request.Context(), key)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Trial lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": entitlement.CodeTrialLookupFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trial": gin.H{"allowed": !used}})
}

// GetPlan returns the tier and usage of an account.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	var req types.PlanLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), req.Email)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Profile lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": entitlement.CodeProfileLookupFailed})
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success", "plan": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"plan":   profile.Tier,
		"usage":  profile.GenerationsUsed,
		"limit":  h.resolver.Policy().MonthlyCap,
	})
}
