package tebex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Tebex-Signature"

// Webhook event types handled by the service.
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentDeclined  = "payment.declined"
)

var (
	ErrMissingSignature = errors.New("tebex: missing webhook signature")
	ErrInvalidSignature = errors.New("tebex: invalid webhook signature")
	ErrNoSecret         = errors.New("tebex: webhook secret not configured")
)

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the raw body in constant time.
// An empty secret rejects everything, since anyone can sign with it.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return ErrNoSecret
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// WebhookEvent is a Tebex webhook envelope.
type WebhookEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Subject struct {
		ID BasketID `json:"id"`
	} `json:"subject"`
}

// ParseWebhook decodes an already verified webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("failed to parse webhook: missing type")
	}
	return &event, nil
}
