package util

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerScheme = "Bearer"

var (
	ErrNoAuthorizationHeader = errors.New("no authorization header specified")
	ErrNotBearerToken        = errors.New("invalid token type; expected 'Bearer'")
)

// BearerAuthorization is the Authorization header value carrying token.
func BearerAuthorization(token string) string {
	return bearerScheme + " " + token
}

// ParseBearerToken extracts the token from an Authorization header value. The scheme is matched
// case-insensitively.
func ParseBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoAuthorizationHeader
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrNotBearerToken
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", errors.New("token is empty")
	}
	return token, nil
}

// ReadBearerToken reads the token from the request's Authorization header.
func ReadBearerToken(ctx *gin.Context) (string, error) {
	return ParseBearerToken(ctx.GetHeader("Authorization"))
}
