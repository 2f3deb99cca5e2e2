package docsign

import (
	"context"
	"sync"
	"time"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusReviewed DocumentStatus = "reviewed"
	DocumentStatusSigned   DocumentStatus = "signed"
	DocumentStatusArchived DocumentStatus = "archived"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusReviewed, DocumentStatusSigned, DocumentStatusArchived:
		return true
	}
	return false
}

type Document struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	OriginalName string         `json:"originalName"`
	FileType     string         `json:"fileType"`
	FileSize     int64          `json:"fileSize"`
	Status       DocumentStatus `json:"status"`
	LastSignedAt *time.Time     `json:"lastSignedAt,omitempty"`
	UserID       string         `json:"userId"`
	CreatedAt    *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time     `json:"updatedAt,omitempty"`
}

// DocumentStore is the backend holding documents and compositing signatures.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*Document, error)
	ViewDocument(ctx context.Context, id string) ([]byte, error)
	SignDocument(ctx context.Context, req *PlacementRequest) (*Document, error)
	UpdateStatus(ctx context.Context, id string, status DocumentStatus) (*Document, error)
}

// AuthContext carries the bearer token issued by the authentication service.
type AuthContext struct {
	mu       sync.Mutex
	token    string
	onLogout []func()
}

func NewAuthContext(token string) *AuthContext {
	return &AuthContext{token: token}
}

func (a *AuthContext) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *AuthContext) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *AuthContext) Authenticated() bool {
	return a.Token() != ""
}

// OnLogout registers fn to run when the session is cleared, e.g. to route to login.
func (a *AuthContext) OnLogout(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLogout = append(a.onLogout, fn)
}

// Clear drops the token and runs the logout hooks.
func (a *AuthContext) Clear() {
	a.mu.Lock()
	a.token = ""
	hooks := append([]func(){}, a.onLogout...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
