package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type welcomeEmailData struct {
	baseEmailData
	DisplayName   string
	CommunityName string
}

type transferReceiptEmailData struct {
	baseEmailData
	CounterpartyName string
	Amount           string
	EntryID          string
	Incoming         bool
}

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderEmailTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
