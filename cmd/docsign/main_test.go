package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SeakMengs/DocSign/internal/config"
	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/SeakMengs/DocSign/pkg/docsign"
)

type testDocument struct {
	pages []docsign.Size
}

func (d *testDocument) PageCount() int {
	return len(d.pages)
}

func (d *testDocument) PageSize(page int) (docsign.Size, error) {
	if page < 1 || page > len(d.pages) {
		return docsign.Size{}, fmt.Errorf("page %d out of range", page)
	}
	return d.pages[page-1], nil
}

func (d *testDocument) Rasterize(page, width, height int) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, width, height)), nil
}

type testRenderer struct {
	pages []docsign.Size
}

func (r testRenderer) Open(rs io.ReadSeeker) (docsign.RenderedDocument, error) {
	return &testDocument{pages: r.pages}, nil
}

// backend is a minimal Document Store.
type backend struct {
	mu       sync.Mutex
	status   string
	signBody map[string]any
}

func (b *backend) envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "message": "", "errors": []any{}, "data": data})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer tok" {
		b.envelope(w, http.StatusUnauthorized, nil)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/docs/doc-1":
		b.envelope(w, http.StatusOK, map[string]any{"document": map[string]any{"id": "doc-1", "name": "contract.pdf", "status": b.status}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/docs/view/doc-1":
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7 "+b.status)
	case r.Method == http.MethodPost && r.URL.Path == "/api/docs/sign/doc-1":
		_ = json.NewDecoder(r.Body).Decode(&b.signBody)
		b.status = "signed"
		b.envelope(w, http.StatusOK, map[string]any{"document": map[string]any{"id": "doc-1", "status": b.status}})
	case r.Method == http.MethodPut && r.URL.Path == "/api/docs/doc-1":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.status = body["status"]
		b.envelope(w, http.StatusOK, map[string]any{"document": map[string]any{"id": "doc-1", "status": b.status}})
	default:
		b.envelope(w, http.StatusNotFound, nil)
	}
}

func newTestCLI(t *testing.T, token string) (*cli, *backend, *bytes.Buffer) {
	t.Helper()

	be := &backend{status: "pending"}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	tokenFile := filepath.Join(t.TempDir(), "token")
	if token != "" {
		if err := os.WriteFile(tokenFile, []byte(token), 0600); err != nil {
			t.Fatal(err)
		}
	}

	out := &bytes.Buffer{}
	a, err := newCLI(config.ClientConfig{
		BACKEND_URL:   srv.URL,
		TOKEN_FILE:    tokenFile,
		Timeout:       5 * time.Second,
		ViewportWidth: 600,
		PreviewDir:    t.TempDir(),
		SettleDelay:   time.Millisecond,
	}, util.NewNopLogger(), out)
	if err != nil {
		t.Fatal(err)
	}
	a.renderer = testRenderer{pages: []docsign.Size{{Width: 600, Height: 800}, {Width: 300, Height: 300}}}
	return a, be, out
}

func TestParseStrokes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"one stroke", "10,10 20,20 30,15", 1, false},
		{"two strokes", "10,10 20,20; 5,5 6,6", 2, false},
		{"trailing separator", "1,1 2,2;", 1, false},
		{"missing comma", "10 10", 0, true},
		{"not a number", "a,1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStrokes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStrokes(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("parseStrokes(%q) = %d stroke(s), want %d", tt.input, len(got), tt.want)
			}
		})
	}
}

func TestSignCommandSendsRenderedGeometry(t *testing.T) {
	a, be, out := newTestCLI(t, "tok")
	output := filepath.Join(t.TempDir(), "signed.pdf")

	err := a.dispatch(context.Background(), []string{"sign", "-mode", "text", "-text", "Jane Doe", "-x", "120", "-y", "80", "-o", output, "doc-1"})
	if err != nil {
		t.Fatal(err)
	}

	be.mu.Lock()
	body := be.signBody
	be.mu.Unlock()

	pos, _ := body["signaturePosition"].(map[string]any)
	dims, _ := body["pdfPageDimensions"].(map[string]any)
	if pos["x"] != 120.0 || pos["y"] != 80.0 {
		t.Errorf("position = %v", pos)
	}
	if dims["width"] != 600.0 || dims["height"] != 800.0 {
		t.Errorf("dimensions = %v", dims)
	}
	if body["signatureType"] != "text" || body["pageNumber"] != 1.0 {
		t.Errorf("unexpected body %v", body)
	}
	if !strings.HasPrefix(body["signatureData"].(string), "data:image/png;base64,") {
		t.Error("expected a png data url")
	}

	if !strings.Contains(out.String(), "status signed") {
		t.Errorf("output = %q", out.String())
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != "%PDF-1.7 signed" {
		t.Errorf("downloaded %q, %v", data, err)
	}
}

func TestSignCommandFitsPageToWidth(t *testing.T) {
	a, be, _ := newTestCLI(t, "tok")

	err := a.dispatch(context.Background(), []string{"sign", "-mode", "draw", "-strokes", "10,10 80,40", "-page", "2", "-width", "150", "-x", "500", "-y", "500", "doc-1"})
	if err != nil {
		t.Fatal(err)
	}

	be.mu.Lock()
	body := be.signBody
	be.mu.Unlock()

	dims, _ := body["pdfPageDimensions"].(map[string]any)
	pos, _ := body["signaturePosition"].(map[string]any)
	if dims["width"] != 150.0 || dims["height"] != 150.0 || body["pageNumber"] != 2.0 {
		t.Errorf("unexpected body %v", body)
	}
	// dragged past the edge, clamped into the rendered page
	if pos["x"].(float64) > 150 || pos["y"].(float64) > 150 {
		t.Errorf("position %v escaped the page", pos)
	}
}

func TestSignCommandWithoutSignature(t *testing.T) {
	a, be, _ := newTestCLI(t, "tok")

	err := a.dispatch(context.Background(), []string{"sign", "-mode", "draw", "doc-1"})
	if !docsign.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if be.signBody != nil {
		t.Error("no sign request should be sent")
	}
}

func TestReviewCommand(t *testing.T) {
	a, be, out := newTestCLI(t, "tok")

	if err := a.dispatch(context.Background(), []string{"review", "doc-1"}); err != nil {
		t.Fatal(err)
	}
	if be.status != "reviewed" || !strings.Contains(out.String(), "reviewed") {
		t.Errorf("status %q, output %q", be.status, out.String())
	}
}

func TestAuthErrorForgetsToken(t *testing.T) {
	a, _, _ := newTestCLI(t, "expired")

	err := a.dispatch(context.Background(), []string{"show", "doc-1"})
	if !docsign.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if a.auth.Authenticated() {
		t.Error("expected token to be cleared")
	}
	if _, err := os.Stat(a.tokens.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected token file removed, stat error = %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	a, _, out := newTestCLI(t, "")

	if err := a.dispatch(context.Background(), []string{"frobnicate"}); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if !strings.Contains(out.String(), "Unknown command: frobnicate") {
		t.Errorf("output = %q", out.String())
	}
}
