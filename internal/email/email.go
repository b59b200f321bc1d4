package email

import "context"

// Email represents an email message to be sent.
type Email struct {
	To       []string          // Recipient email addresses
	From     string            // Sender email address
	Subject  string            // Email subject
	TextBody string            // Plain text body
	HTMLBody string            // HTML body (optional)
	Headers  map[string]string // Custom headers (optional)
}

// Sender delivers a composed email.
type Sender interface {
	// Send sends an email message.
	// Returns the message ID from the email provider (if available).
	Send(ctx context.Context, email *Email) (string, error)
}

// OrderConfirmation is the payload of an order confirmation. The JSON field
// names are the ones the mail endpoint expects.
type OrderConfirmation struct {
	ToEmail       string `json:"to_email"`
	ToName        string `json:"to_name"`
	CustomerName  string `json:"customer_name"`
	OrderNumber   string `json:"order_number"`
	Products      string `json:"products"`
	TotalPrice    string `json:"total_price"`
	PaymentMethod string `json:"payment_method"`
}

// Channel is one way of delivering an order confirmation.
type Channel interface {
	Name() string
	SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error
}
