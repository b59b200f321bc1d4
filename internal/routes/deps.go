package routes

import (
	"net/http"

	"github.com/dukerupert/deltamc/internal/handler/api"
	"github.com/dukerupert/deltamc/internal/handler/webhook"
	"github.com/dukerupert/deltamc/internal/router"
)

// APIDeps contains the storefront JSON API handlers
type APIDeps struct {
	Shop     *api.ShopHandler
	Cart     *api.CartHandler
	Orders   *api.OrderHandler
	Rewards  *api.RewardHandler
	Users    *api.UserHandler
	Events   *api.EventHandler
	Payments *api.PaymentHandler
	Health   *api.HealthHandler

	// Strict is the per-client limiter for endpoints that write.
	Strict router.Middleware

	// Timeout bounds ordinary API requests.
	Timeout router.Middleware

	// CheckoutTimeout replaces Timeout on order placement and redemption,
	// which wait on the ledger transaction and the email channels.
	CheckoutTimeout router.Middleware
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	Tebex *webhook.TebexHandler
}

// MetricsDeps exposes the Prometheus scrape endpoint
type MetricsDeps struct {
	Handler http.Handler
}
