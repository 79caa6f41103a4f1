// Package auth supplies the bearer credential sent with every provider request.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
	"github.com/MrSnakeDoc/seatwatch/internal/logger"
)

// TokenProvider returns a credential that is valid right now.
// Errors match domain.ErrAuth.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken serves a token taken from configuration (for example copied from a
// browser session) for as long as its JWT expiry lies in the future.
type StaticToken struct {
	token string
	now   func() time.Time
}

// NewStaticToken wraps token. An empty token always fails.
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: strings.TrimSpace(token), now: time.Now}
}

func (s *StaticToken) Token(_ context.Context) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("%w: no static token configured", domain.ErrAuth)
	}
	if exp, ok := Expiry(s.token); ok && !exp.After(s.now()) {
		return "", fmt.Errorf("%w: static token expired at %s", domain.ErrAuth, exp.Format(time.RFC3339))
	}
	return s.token, nil
}

// Expiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens report ok=false and are treated as non-expiring.
func Expiry(token string) (time.Time, bool) {
	raw := strings.TrimSpace(token)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Chain asks each provider in order and returns the first token obtained.
type Chain struct {
	providers []TokenProvider
	logger    logger.Logger
}

func NewChain(log logger.Logger, providers ...TokenProvider) *Chain {
	return &Chain{providers: providers, logger: log}
}

func (c *Chain) Token(ctx context.Context) (string, error) {
	var errs error
	for i, p := range c.providers {
		token, err := p.Token(ctx)
		if err == nil {
			if i > 0 {
				c.logger.Debug("using fallback credential provider", logger.Int("position", i))
			}
			return token, nil
		}
		c.logger.Debug("credential provider failed", logger.Int("position", i), logger.Error(err))
		errs = multierr.Append(errs, err)
	}
	if errs == nil {
		return "", fmt.Errorf("%w: no credential provider configured", domain.ErrAuth)
	}
	return "", fmt.Errorf("%w: all credential providers failed: %v", domain.ErrAuth, errs)
}
