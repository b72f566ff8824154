package auth

import (
	"net/http"
	"strings"

	"mercator-hq/importcheck/pkg/config"
)

// Authenticator extracts and checks the API key of a request.
type Authenticator struct {
	store  *KeyStore
	header string
}

// NewAuthenticator creates an authenticator from the server auth config.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	store, err := NewKeyStore(cfg.Keys)
	if err != nil {
		return nil, err
	}
	header := cfg.Header
	if header == "" {
		header = config.DefaultAuthHeader
	}
	return &Authenticator{store: store, header: header}, nil
}

// NewAuthenticatorWithStore creates an authenticator reading keys from header.
func NewAuthenticatorWithStore(store *KeyStore, header string) *Authenticator {
	return &Authenticator{store: store, header: header}
}

// Authenticate returns the client identified by the request's API key. The
// key is read from the configured header, then from an
// "Authorization: Bearer" header.
func (a *Authenticator) Authenticate(r *http.Request) (*Client, error) {
	key := extractKey(r, a.header)
	if key == "" {
		return nil, ErrMissingKey
	}
	return a.store.Validate(key)
}

// Store returns the underlying key store.
func (a *Authenticator) Store() *KeyStore {
	return a.store
}

func extractKey(r *http.Request, header string) string {
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return v
	}
	v := r.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "Bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}
