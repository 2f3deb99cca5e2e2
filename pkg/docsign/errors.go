package docsign

import (
	"errors"
	"fmt"
)

const (
	ErrMsgUnsupportedFileType = "unsupported file type"
	ErrMsgFileTooLarge        = "file too large"
	ErrMsgEmptySignature      = "no signature to apply"
)

// ValidationError is raised locally before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// AuthError is the only error that ends the session.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "session expired, please log in again"
	}
	return e.Message
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "you are not authorized to access this document"
	}
	return e.Message
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "document not found or access denied"
	}
	return e.Message
}

// NetworkError wraps transport failures and timeouts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// PlacementError means the placement could not be computed, e.g. the page has no measurable size.
type PlacementError struct {
	Message string
}

func (e *PlacementError) Error() string {
	return e.Message
}

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
