// Package auth fetches the access token the search backend expects and
// hands it to the state and the browser.
package auth

import (
	"context"
	"errors"
	"fmt"

	"docsift/internal/state"
)

// CookieName is the cookie the backend reads the access token from
const CookieName = "docsift-auth"

// ErrNoToken is returned by a provider that has no credential to give
var ErrNoToken = errors.New("auth: no token available")

// TokenProvider fetches an access token without user interaction
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticTokenProvider always returns the same configured token
type StaticTokenProvider string

func (p StaticTokenProvider) Token(context.Context) (string, error) {
	if p == "" {
		return "", ErrNoToken
	}
	return string(p), nil
}

// CookieSink stores a cookie on the client
type CookieSink interface {
	SetCookie(name, value string)
}

// LoadToken fetches a token and writes it to st and to a cookie. Nothing is
// written when the fetch fails.
func LoadToken(ctx context.Context, provider TokenProvider, st *state.AppState, sink CookieSink) error {
	token, err := provider.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}

	st.SetAuthToken(token)
	sink.SetCookie(CookieName, token)
	return nil
}
