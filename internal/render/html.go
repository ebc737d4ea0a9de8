package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/summary_email.html"))

// EmailData is the template input for the summary email.
type EmailData struct {
	Nickname string
	View     View
}

// HTML renders the summary email body.
func HTML(data EmailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.ExecuteTemplate(&buf, "summary_email.html", data); err != nil {
		return "", fmt.Errorf("render summary email: %w", err)
	}
	return buf.String(), nil
}
