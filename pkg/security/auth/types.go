package auth

import (
	"context"
	"errors"
)

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("missing API key")

	// ErrInvalidKey is returned for keys that are not configured.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrDisabledKey is returned for configured keys that are disabled.
	ErrDisabledKey = errors.New("API key disabled")
)

// Client is an authenticated API caller.
type Client struct {
	Name string
}

type contextKey struct{}

// WithClient returns a context carrying c.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ClientFromContext returns the client stored by WithClient.
func ClientFromContext(ctx context.Context) (*Client, bool) {
	c, ok := ctx.Value(contextKey{}).(*Client)
	return c, ok
}
