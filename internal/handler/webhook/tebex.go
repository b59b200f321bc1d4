package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/handler"
	"github.com/dukerupert/deltamc/internal/middleware"
	"github.com/dukerupert/deltamc/internal/tebex"
	"github.com/dukerupert/deltamc/internal/telemetry"
)

// maxWebhookBody bounds the webhook payload read into memory.
const maxWebhookBody = 1 << 20

// EventHandler applies verified Tebex webhook events.
type EventHandler interface {
	HandleWebhook(ctx context.Context, event *tebex.WebhookEvent) error
}

// TebexHandler receives Tebex payment webhooks.
type TebexHandler struct {
	events EventHandler
	secret string
}

func NewTebexHandler(events EventHandler, secret string) *TebexHandler {
	return &TebexHandler{events: events, secret: secret}
}

// HandleWebhook handles POST /api/webhook
//
// The signature is checked against the raw body before anything is parsed.
// Authenticated requests are always acknowledged; processing failures are
// logged and reported to sentry.
func (h *TebexHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	if err := tebex.VerifySignature(h.secret, payload, r.Header.Get(tebex.SignatureHeader)); err != nil {
		reason := "invalid_signature"
		switch {
		case errors.Is(err, tebex.ErrNoSecret):
			reason = "no_secret"
		case errors.Is(err, tebex.ErrMissingSignature):
			reason = "missing_signature"
		}
		logger.Warn("rejected tebex webhook", "reason", reason)
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues("unknown", reason).Inc()
		}
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature"))
		return
	}

	event, err := tebex.ParseWebhook(payload)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON"))
		return
	}

	logger.Info("tebex webhook received", "type", event.Type, "webhook_id", event.ID)

	if err := h.events.HandleWebhook(r.Context(), event); err != nil {
		logger.Error("failed to process tebex webhook",
			"type", event.Type,
			"webhook_id", event.ID,
			"error", err,
		)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"webhook_type": event.Type,
			"webhook_id":   event.ID,
		})
	}

	handler.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
