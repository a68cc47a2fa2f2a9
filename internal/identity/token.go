// Package identity supplies the opaque bearer token used by both the control
// surface and the stream. Where the token comes from is up to the caller.
package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/rxtech-lab/axon-client/pkg/errors"
)

// TokenProvider returns the current identity token. Tokens may rotate, so
// callers ask again before every request or reconnect.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken is a TokenProvider holding a token that can be replaced at runtime.
type StaticToken struct {
	mu    sync.RWMutex
	token string
}

// NewStaticToken creates a StaticToken.
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{
		mu:    sync.RWMutex{},
		token: token,
	}
}

// Token implements TokenProvider.
func (s *StaticToken) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token, nil
}

// Set replaces the token.
func (s *StaticToken) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Require fetches a token and fails with ErrCodeMissingToken when it is empty.
func Require(ctx context.Context, provider TokenProvider) (string, error) {
	if provider == nil {
		return "", errors.New(errors.ErrCodeMissingToken, "no identity token provider configured")
	}

	token, err := provider.Token(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMissingToken, "failed to obtain identity token", err)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New(errors.ErrCodeMissingToken, "identity token is required")
	}

	return token, nil
}
