package routes

import (
	"github.com/dukerupert/deltamc/internal/router"
)

// RegisterWebhookRoutes registers the Tebex webhook.
//
// The route has no rate limit: the handler authenticates every delivery
// with the X-Tebex-Signature HMAC before doing any work.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/api/webhook", deps.Tebex.HandleWebhook)
}
