package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Service composes order confirmations from the embedded templates and hands
// them to a Sender. It is the primary delivery channel.
type Service struct {
	sender        Sender
	fromAddress   string
	fromName      string
	templateCache *template.Template
}

// NewService creates a new email service
func NewService(sender Sender, fromAddress, fromName string) (*Service, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &Service{
		sender:        sender,
		fromAddress:   fromAddress,
		fromName:      fromName,
		templateCache: tmpl,
	}, nil
}

func (s *Service) Name() string {
	return "smtp"
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error {
	if data.ToEmail == "" {
		return ErrInvalidToAddress
	}

	tmpl := OrderConfirmationEmail{OrderConfirmation: data}
	htmlBody, textBody, err := s.renderTemplate(tmpl.TemplateName(), tmpl)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	to := data.ToEmail
	if data.ToName != "" {
		to = fmt.Sprintf("%s <%s>", data.ToName, data.ToEmail)
	}

	email := &Email{
		To:       []string{to},
		From:     s.from(),
		Subject:  tmpl.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	_, err = s.sender.Send(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}

	return nil
}

func (s *Service) from() string {
	if s.fromName == "" {
		return s.fromAddress
	}
	return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
}

// Helper method to render a template
func (s *Service) renderTemplate(templateName string, data interface{}) (string, string, error) {
	var htmlBuf bytes.Buffer
	err := s.templateCache.ExecuteTemplate(&htmlBuf, templateName, data)
	if err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()

	plainText := generatePlainText(htmlBody)

	return htmlBody, plainText, nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := stripBlock(html, "<style", "</style>")

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

// stripBlock removes every open...close section, tags included.
func stripBlock(s, open, close string) string {
	for {
		start := strings.Index(s, open)
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], close)
		if end < 0 {
			return s[:start]
		}
		s = s[:start] + s[start+end+len(close):]
	}
}
