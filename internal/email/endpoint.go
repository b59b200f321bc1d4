package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// EndpointChannel posts the order confirmation as JSON to an HTTP mail
// endpoint. It is used when SMTP delivery fails.
type EndpointChannel struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

type endpointResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// NewEndpointChannel creates a channel that posts to url.
func NewEndpointChannel(url string, logger *slog.Logger) *EndpointChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndpointChannel{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (e *EndpointChannel) Name() string {
	return "endpoint"
}

// SendOrderConfirmation posts data to the endpoint. A 2xx reply counts as
// delivered unless the body is JSON carrying success=false.
func (e *EndpointChannel) SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error {
	if data.ToEmail == "" {
		return ErrInvalidToAddress
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail endpoint error (status %d): %s", resp.StatusCode, string(body))
	}

	var result endpointResponse
	if err := json.Unmarshal(body, &result); err != nil {
		// non-JSON body with a 2xx status is treated as delivered
		e.logger.Debug("mail endpoint returned non-JSON body", "status", resp.StatusCode)
		return nil
	}

	if result.Success != nil && !*result.Success {
		e.logger.Warn("mail endpoint rejected message",
			"order_number", data.OrderNumber,
			"message", result.Message,
		)
		return ErrRejected
	}

	return nil
}
