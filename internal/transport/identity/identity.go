// Package identity resolves the requester behind an HTTP request.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrInvalidToken means the auth service rejected the token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnavailable means the auth service could not be reached.
	ErrUnavailable = errors.New("auth service unavailable")
)

const mePath = "/api/auth/me"

// Client looks bearer tokens up in the auth service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an auth service client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type meResponse struct {
	User *struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	} `json:"user"`
}

// Resolve returns the user id that owns token.
func (c *Client) Resolve(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+mePath, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", ErrInvalidToken
	}

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if me.User == nil {
		return "", ErrInvalidToken
	}
	if me.User.MongoID != "" {
		return me.User.MongoID, nil
	}
	if me.User.ID != "" {
		return me.User.ID, nil
	}
	return "", fmt.Errorf("%w: user id missing", ErrInvalidToken)
}

type ctxKey struct{}

// WithUserID stores the resolved requester in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the requester stored in ctx, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
