package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplango/backend/internal/entitlement"
	"github.com/pageza/mealplango/backend/internal/metrics"
	"github.com/pageza/mealplango/backend/internal/service"
	"github.com/rs/zerolog"
)

const (
	maxWebhookBodySize = 1 << 20
	signatureHeader    = "X-Signature"
)

// WebhookHandler applies payment provider events to account profiles.
type WebhookHandler struct {
	activator *entitlement.Activator
	secret    string
	deduper   service.IWebhookDeduper
}

// NewWebhookHandler creates a new WebhookHandler instance. deduper may be nil.
func NewWebhookHandler(store entitlement.PlanStore, secret string, deduper service.IWebhookDeduper) *WebhookHandler {
	return &WebhookHandler{
		activator: entitlement.NewActivator(store),
		secret:    secret,
		deduper:   deduper,
	}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/lemon", h.HandleLemon)
}

// HandleLemon verifies and applies a Lemon Squeezy webhook.
func (h *WebhookHandler) HandleLemon(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())
	eventType := "unknown"
	respond := func(status int, body gin.H) {
		metrics.WebhookRequestsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
		c.JSON(status, body)
	}

	if h.secret == "" {
		logger.Error().Msg("Webhook secret is not configured")
		respond(http.StatusInternalServerError, gin.H{"error": "server_misconfigured"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodySize))
	if err != nil {
		respond(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	if !entitlement.VerifySignature(body, c.GetHeader(signatureHeader), h.secret) {
		logger.Warn().
			Bool("security", true).
			Str("remote_addr", c.ClientIP()).
			Msg("Rejected webhook with invalid signature")
		respond(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
		return
	}

	ev, err := entitlement.ParseEvent(body)
	if err != nil {
		logger.Warn().Err(err).Msg("Unparseable webhook payload")
		respond(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	if ev.Name != "" {
		eventType = ev.Name
	}

	deliveryID := ""
	if h.deduper != nil && ev.Name == entitlement.EventSubscriptionPaymentSuccess && ev.ID != "" {
		deliveryID = ev.Name + ":" + ev.ID
		first, err := h.deduper.FirstDelivery(c.Request.Context(), deliveryID)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Webhook dedupe unavailable, processing anyway")
			deliveryID = ""
		case !first:
			logger.Info().Str("event", ev.Name).Str("id", ev.ID).Msg("Duplicate webhook delivery ignored")
			respond(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	res, err := h.activator.Activate(c.Request.Context(), ev)
	if err != nil {
		h.release(c.Request.Context(), deliveryID)
		if errors.Is(err, entitlement.ErrMissingAccount) {
			logger.Error().Str("event", ev.Name).Str("id", ev.ID).Msg("Webhook payload carries no account")
			respond(http.StatusBadRequest, gin.H{"error": "user_not_found"})
			return
		}
		logger.Error().Err(err).Str("event", ev.Name).Msg("Plan activation failed")
		respond(http.StatusInternalServerError, gin.H{"error": "db_update_failed"})
		return
	}

	if res.Ignored != "" {
		if res.Ignored == "unknown_account" {
			logger.Warn().Str("account", ev.Account).Msg("Payment for unknown account acknowledged")
		}
		respond(http.StatusOK, gin.H{"received": true, "ignored": res.Ignored})
		return
	}

	logger.Info().Str("account", ev.Account).Msg("Plan activated")
	respond(http.StatusOK, gin.H{"ok": true})
}

func (h *WebhookHandler) release(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := h.deduper.Release(context.WithoutCancel(ctx), id); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to release webhook delivery")
	}
}
