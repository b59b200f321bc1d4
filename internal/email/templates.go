package email

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// OrderConfirmationEmail wraps the order payload for the HTML template.
type OrderConfirmationEmail struct {
	OrderConfirmation
}

func (e OrderConfirmationEmail) Subject() string {
	return "🎮 Je bestelling is succesvol geplaatst!"
}

func (e OrderConfirmationEmail) TemplateName() string {
	return "order_confirmation"
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
