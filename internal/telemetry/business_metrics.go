package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for shop-level observability.
type BusinessMetrics struct {
	// Cart
	CartItemsAdd     *prometheus.CounterVec
	CartItemsRemoved *prometheus.CounterVec
	CartCleared      *prometheus.CounterVec
	CartValue        *prometheus.HistogramVec

	// Giftcards
	GiftcardApplied  *prometheus.CounterVec
	GiftcardRejected *prometheus.CounterVec

	// Checkout funnel
	CheckoutStarted   *prometheus.CounterVec
	CheckoutCompleted *prometheus.CounterVec
	CheckoutFailed    *prometheus.CounterVec
	DuplicateOrders   *prometheus.CounterVec

	// Orders
	OrdersCreated  *prometheus.CounterVec
	OrderValue     *prometheus.HistogramVec
	OrderItemCount *prometheus.HistogramVec

	// Event rewards
	RewardsRedeemed *prometheus.CounterVec
	EventJoins      *prometheus.CounterVec

	// Payments
	PaymentSucceeded *prometheus.CounterVec
	PaymentDeclined  *prometheus.CounterVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Email delivery
	EmailSent   *prometheus.CounterVec
	EmailFailed *prometheus.CounterVec

	// Owned items cache
	OwnedItemsLookups *prometheus.CounterVec

	// Order events
	EventsPublished *prometheus.CounterVec

	// External API performance
	TebexAPILatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewBusinessMetricsWith registers the metrics on reg. Tests pass a fresh
// registry so metrics can be created more than once per process.
func NewBusinessMetricsWith(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "deltamc"
	}

	subsystem := "business"
	factory := promauto.With(reg)

	m := &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdd: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"item"},
		),
		CartItemsRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_removed_total",
				Help:      "Total remove from cart actions",
			},
			[]string{"item"},
		),
		CartCleared: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts emptied",
			},
			[]string{"reason"}, // reason: user, order
		),
		CartValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value_euros",
				Help:      "Cart subtotal at checkout",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 50, 100, 250},
			},
			[]string{},
		),

		// =======================================================================
		// Giftcards
		// =======================================================================
		GiftcardApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "giftcard_applied_total",
				Help:      "Total giftcard codes accepted",
			},
			[]string{"use"}, // use: cart, reward
		),
		GiftcardRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "giftcard_rejected_total",
				Help:      "Total giftcard codes rejected",
			},
			[]string{"reason"}, // reason: not_found, used, event_only, no_balance
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total order submissions",
			},
			[]string{"payment_method"},
		),
		CheckoutCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_completed_total",
				Help:      "Total orders recorded",
			},
			[]string{"payment_method"},
		),
		CheckoutFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_failed_total",
				Help:      "Total order submissions that were rejected or aborted",
			},
			[]string{"reason"}, // reason: invalid, empty_cart, giftcard, store
		),
		DuplicateOrders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duplicate_orders_total",
				Help:      "Total order submissions answered from a previous idempotency key",
			},
			[]string{},
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
			[]string{"kind"}, // kind: shop, reward
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_euros",
				Help:      "Order value distribution after discounts",
				Buckets:   []float64{0, 1, 2.5, 5, 10, 20, 50, 100, 250},
			},
			[]string{"kind"},
		),
		OrderItemCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
			[]string{},
		),

		// =======================================================================
		// Event Rewards
		// =======================================================================
		RewardsRedeemed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rewards_redeemed_total",
				Help:      "Total event rewards redeemed",
			},
			[]string{"reward_id"},
		),
		EventJoins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "event_joins_total",
				Help:      "Total event registrations",
			},
			[]string{"result"}, // result: joined, duplicate, full
		),

		// =======================================================================
		// Payments
		// =======================================================================
		PaymentSucceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_succeeded_total",
				Help:      "Total completed Tebex payments",
			},
			[]string{},
		),
		PaymentDeclined: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_declined_total",
				Help:      "Total declined Tebex payments",
			},
			[]string{},
		),

		// =======================================================================
		// Webhooks
		// =======================================================================
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhooks processed successfully",
			},
			[]string{"event_type"},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhooks that failed",
			},
			[]string{"event_type", "reason"},
		),
		WebhookLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook processing duration",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"event_type"},
		),

		// =======================================================================
		// Email Delivery
		// =======================================================================
		EmailSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_sent_total",
				Help:      "Total emails delivered",
			},
			[]string{"channel"}, // channel: smtp, endpoint
		),
		EmailFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "email_failed_total",
				Help:      "Total email delivery attempts that failed",
			},
			[]string{"channel"},
		),

		// =======================================================================
		// Owned Items Cache
		// =======================================================================
		OwnedItemsLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "owned_items_lookups_total",
				Help:      "Owned items lookups by cache result",
			},
			[]string{"result"}, // result: hit, miss
		),

		// =======================================================================
		// Order Events
		// =======================================================================
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_events_published_total",
				Help:      "Order events handed to the broker",
			},
			[]string{"subject", "result"},
		),

		// =======================================================================
		// External API Performance
		// =======================================================================
		TebexAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tebex_api_duration_seconds",
				Help:      "Tebex API call duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"}, // operation: create_basket, add_package, get_basket
		),
	}

	return m
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
