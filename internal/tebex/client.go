// Package tebex talks to the Tebex headless API and authenticates its webhooks.
package tebex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/deltamc/internal/telemetry"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// DefaultBaseURL is the Tebex headless API root.
const DefaultBaseURL = "https://headless.tebex.io/api"

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("tebex: service unavailable")

	// ErrNoCheckoutLink is returned when a basket has no checkout link.
	ErrNoCheckoutLink = errors.New("tebex: basket has no checkout link")
)

// Config holds the Tebex account settings.
type Config struct {
	BaseURL     string
	AccountID   string // public webstore token used in /accounts/{id}
	Secret      string // bearer secret
	PackageID   string // custom-amount package
	FrontendURL string // used for default return and cancel urls
}

// APIError is a non-2xx reply from Tebex.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tebex API error (status %d): %s", e.StatusCode, e.Body)
}

// BasketID accepts both numeric and string ids.
type BasketID string

func (b *BasketID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*b = ""
		return nil
	}
	*b = BasketID(s)
	return nil
}

// BasketCustom is the custom payload stored on a basket at creation.
type BasketCustom struct {
	Player  string          `json:"player"`
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// Basket is the subset of a Tebex basket this service reads.
type Basket struct {
	ID     BasketID     `json:"id"`
	Ident  string       `json:"ident"`
	Custom BasketCustom `json:"custom"`
	Links  struct {
		Checkout string `json:"checkout"`
	} `json:"links"`
}

// CheckoutRequest describes a custom-amount checkout.
type CheckoutRequest struct {
	Amount    decimal.Decimal
	Currency  string
	ReturnURL string
	CancelURL string
	Player    string
	OrderID   string
}

// Checkout is the result of CreateCheckout.
type Checkout struct {
	URL      string
	BasketID string
}

// Client is a Tebex headless API client. Every call runs through a circuit
// breaker so a Tebex outage fails fast instead of tying up request handlers.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a Tebex client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &telemetry.HTTPTransport{Transport: http.DefaultTransport},
		},
		logger: logger,
		now:    time.Now,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tebex",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// client errors are the caller's fault, not an outage
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c
}

// CreateCheckout creates a basket carrying the player and order in its custom
// field, adds the custom-amount package priced at req.Amount, and returns the
// basket's checkout link.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("tebex: amount must be positive")
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = fmt.Sprintf("order_%d", c.now().UnixMilli())
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.FrontendURL + "/payment/success"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = c.cfg.FrontendURL + "/payment/cancel"
	}

	createBody := map[string]any{
		"return_url":   returnURL,
		"cancel_url":   cancelURL,
		"complete_url": c.cfg.FrontendURL + "/payment/success",
		"custom": map[string]any{
			"player":   req.Player,
			"order_id": orderID,
			"amount":   req.Amount.InexactFloat64(),
		},
	}

	var created struct {
		Data Basket `json:"data"`
	}
	if err := c.do(ctx, "create_basket", http.MethodPost, c.accountPath("/baskets"), createBody, &created); err != nil {
		return nil, fmt.Errorf("failed to create basket: %w", err)
	}
	basketID := string(created.Data.ID)
	if basketID == "" {
		basketID = created.Data.Ident
	}

	packageBody := map[string]any{
		"package_id": c.cfg.PackageID,
		"quantity":   1,
		"variables": map[string]any{
			"custom_price": req.Amount.InexactFloat64(),
		},
	}
	if err := c.do(ctx, "add_package", http.MethodPost, c.accountPath("/baskets/"+basketID+"/packages"), packageBody, nil); err != nil {
		return nil, fmt.Errorf("failed to add package to basket %s: %w", basketID, err)
	}

	basket, err := c.GetBasket(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if basket.Links.Checkout == "" {
		return nil, ErrNoCheckoutLink
	}

	c.logger.Info("tebex checkout created",
		"basket_id", basketID,
		"order_id", orderID,
		"player", req.Player,
	)

	return &Checkout{URL: basket.Links.Checkout, BasketID: basketID}, nil
}

// GetBasket fetches a basket by id.
func (c *Client) GetBasket(ctx context.Context, basketID string) (*Basket, error) {
	var resp struct {
		Data Basket `json:"data"`
	}
	if err := c.do(ctx, "get_basket", http.MethodGet, c.accountPath("/baskets/"+basketID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get basket %s: %w", basketID, err)
	}
	return &resp.Data, nil
}

func (c *Client) accountPath(path string) string {
	return c.cfg.BaseURL + "/accounts/" + c.cfg.AccountID + path
}

// do sends a JSON request through the breaker and decodes the reply into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, operation, method, url string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	start := c.now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, url, payload)
	})
	if telemetry.Business != nil {
		telemetry.Business.TebexAPILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Secret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
