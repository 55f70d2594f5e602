package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsift/internal/state"
)

type cookieJar map[string]string

func (j cookieJar) SetCookie(name, value string) { j[name] = value }

func TestLoadTokenWritesStateAndCookie(t *testing.T) {
	st := state.NewAppState(nil)
	jar := cookieJar{}

	require.NoError(t, LoadToken(context.Background(), StaticTokenProvider("tok-123"), st, jar))

	assert.Equal(t, "tok-123", st.AuthToken())
	assert.Equal(t, "tok-123", jar[CookieName])
}

func TestLoadTokenFailureWritesNothing(t *testing.T) {
	st := state.NewAppState(nil)
	jar := cookieJar{}
	boom := errors.New("network down")

	err := LoadToken(context.Background(), TokenProviderFunc(func(context.Context) (string, error) {
		return "", boom
	}), st, jar)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "", st.AuthToken())
	assert.Empty(t, jar)
}

func TestStaticTokenProviderEmpty(t *testing.T) {
	_, err := StaticTokenProvider("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenProviderFuncSeesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := TokenProviderFunc(func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	err := LoadToken(ctx, p, state.NewAppState(nil), cookieJar{})
	assert.ErrorIs(t, err, context.Canceled)
}
