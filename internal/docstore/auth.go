package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SeakMengs/DocSign/pkg/docsign"
	"github.com/sendgrid/rest"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*User, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, call{method: rest.Post, path: path, body: body, public: true})
	if err != nil {
		return nil, err
	}

	var out authResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &docsign.ServerError{StatusCode: resp.StatusCode, Message: "response has no token"}
	}

	c.auth.SetToken(out.Token)
	return &out.User, nil
}

// Login exchanges credentials for a token and stores it in the client's AuthContext.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, docsign.NewValidationError("email and password are required")
	}
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, docsign.NewValidationError("name, email and password are required")
	}
	return c.authenticate(ctx, "/api/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, call{method: rest.Get, path: "/api/auth/me"})
	if err != nil {
		return nil, err
	}

	var out struct {
		User User `json:"user"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// TokenFile persists the bearer token between CLI invocations.
type TokenFile struct {
	path string
}

func NewTokenFile(path string) *TokenFile {
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "docsign", "token")
		} else {
			path = filepath.Join(os.TempDir(), "docsign", "token")
		}
	}
	return &TokenFile{path: path}
}

func (t *TokenFile) Path() string {
	return t.path
}

// Load returns the stored token, or "" when none was saved.
func (t *TokenFile) Load() (string, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (t *TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(t.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (t *TokenFile) Remove() error {
	if err := os.Remove(t.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Bind loads the stored token into auth and removes the file whenever auth is cleared.
func (t *TokenFile) Bind(auth *docsign.AuthContext) error {
	token, err := t.Load()
	if err != nil {
		return err
	}
	if token != "" {
		auth.SetToken(token)
	}
	auth.OnLogout(func() { _ = t.Remove() })
	return nil
}
