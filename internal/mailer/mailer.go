package mailer

import (
	"bytes"
	"embed"
	"html/template"
)

const (
	MAX_RETRY = 3

	DOCUMENT_SIGNED_TEMPLATE = "document_signed.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, toUsername, toEmail string, data any) (int, error)
}

// DocumentSignedData fills templates/document_signed.tmpl.
type DocumentSignedData struct {
	AppName      string
	Username     string
	DocumentName string
	PageNumber   int
	SignedAt     string
}

// Render executes the "subject" and "body" blocks of templateFile.
func Render(templateFile string, data any) (string, string, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return "", "", err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return "", "", err
	}

	return subject.String(), body.String(), nil
}
