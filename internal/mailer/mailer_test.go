package mailer

import (
	"net/http"
	"strings"
	"testing"
)

func TestRenderDocumentSigned(t *testing.T) {
	subject, body, err := Render(DOCUMENT_SIGNED_TEMPLATE, DocumentSignedData{
		AppName:      "DocSign",
		Username:     "Jane",
		DocumentName: "contract.pdf",
		PageNumber:   2,
		SignedAt:     "2026-10-17 09:30 UTC",
	})
	if err != nil {
		t.Fatal(err)
	}

	if subject != "contract.pdf has been signed" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Hi Jane", "page 2", "<strong>contract.pdf</strong>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	_, body, err := Render(DOCUMENT_SIGNED_TEMPLATE, DocumentSignedData{DocumentName: "<script>x</script>.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "<script>") {
		t.Error("expected document name to be escaped")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, err := Render("missing.tmpl", nil); err == nil {
		t.Error("expected error for a missing template")
	}
}

func TestNopMailer(t *testing.T) {
	var c Client = NewNopMailer(nil)

	status, err := c.Send(DOCUMENT_SIGNED_TEMPLATE, "Jane", "jane@example.com", DocumentSignedData{DocumentName: "a.pdf"})
	if err != nil || status != http.StatusOK {
		t.Errorf("Send() = %d, %v", status, err)
	}
}
