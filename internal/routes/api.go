package routes

import (
	"github.com/dukerupert/deltamc/internal/router"
)

// RegisterAPIRoutes registers the storefront API under /api.
// Players are identified by their Minecraft username; carts by the
// X-Cart-Session header.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	std := r.Group(compact(deps.Timeout)...)
	writes := r.Group(compact(deps.Strict, deps.Timeout)...)
	ledger := r.Group(compact(deps.Strict, deps.CheckoutTimeout)...)

	std.Get("/api/health", deps.Health.Check)

	// Shop
	std.Get("/api/shop", deps.Shop.Items)
	std.Get("/api/shop/{name}", deps.Shop.Item)
	std.Get("/api/supporters", deps.Shop.Supporters)
	std.Get("/api/online-players", deps.Shop.OnlinePlayers)

	// Cart
	std.Get("/api/cart", deps.Cart.Get)
	std.Delete("/api/cart", deps.Cart.Clear)
	std.Post("/api/cart/items", deps.Cart.AddItem)
	std.Put("/api/cart/items/{id}", deps.Cart.UpdateQuantity)
	std.Delete("/api/cart/items/{id}", deps.Cart.RemoveItem)
	std.Post("/api/cart/giftcard", deps.Cart.ApplyGiftcard)
	std.Delete("/api/cart/giftcard", deps.Cart.RemoveGiftcard)

	// Orders and rewards
	ledger.Post("/api/orders", deps.Orders.Place)
	std.Get("/api/rewards", deps.Rewards.List)
	std.Post("/api/rewards/validate", deps.Rewards.ValidateCode)
	ledger.Post("/api/rewards/redeem", deps.Rewards.Redeem)

	// Players
	writes.Post("/api/users/login", deps.Users.Login)
	std.Get("/api/users/{username}/purchases", deps.Users.Purchases)
	std.Get("/api/users/{username}/owned", deps.Users.Owned)

	// Events
	std.Get("/api/events", deps.Events.List)
	writes.Post("/api/events/{id}/join", deps.Events.Join)

	// Tebex checkout
	writes.Post("/api/create-checkout", deps.Payments.CreateCheckout)
}

// RegisterMetricsRoute exposes /metrics outside the /api rate limits.
func RegisterMetricsRoute(r *router.Router, deps MetricsDeps) {
	r.Handle("", "/metrics", deps.Handler)
}

func compact(mw ...router.Middleware) []router.Middleware {
	out := make([]router.Middleware, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
