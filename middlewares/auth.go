package middlewares

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/dmitrymomot/forgecore/internal"
)

// principalKey is the request bag key holding the authenticated principal.
const principalKey = "forgecore.principal"

// TokenValidator checks a bearer token and returns the authenticated
// principal. Returning ErrInvalidToken (or any error) rejects the request
// with 401.
type TokenValidator func(ctx context.Context, token string) (any, error)

// AuthConfig configures the auth middleware.
type AuthConfig struct {
	Extractor internal.Extractor
}

// AuthOption configures AuthConfig.
type AuthOption func(*AuthConfig)

// WithAuthExtractor sets the token extractor chain.
// The default reads a Bearer token from the Authorization header.
func WithAuthExtractor(ext internal.Extractor) AuthOption {
	return func(cfg *AuthConfig) {
		cfg.Extractor = ext
	}
}

// Auth returns middleware that short-circuits with an authorization error
// when the request carries no valid token. Inner stages and the handler are
// not called in that case.
func Auth(validate TokenValidator, opts ...AuthOption) internal.Middleware {
	cfg := &AuthConfig{
		Extractor: internal.NewExtractor(internal.FromBearerToken()),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			token, ok := cfg.Extractor.Extract(r)
			if !ok {
				return nil, internal.ErrUnauthorized("missing authentication token",
					internal.WithCause(ErrMissingToken),
				)
			}

			principal, err := validate(r.Context(), token)
			if err != nil {
				return nil, internal.ErrUnauthorized("invalid authentication token",
					internal.WithCause(errors.Join(ErrInvalidToken, err)),
				)
			}

			r.Set(principalKey, principal)
			return next(r)
		}
	}
}

// StaticTokens validates tokens against a fixed set using constant-time
// comparison. The matched token is the principal.
func StaticTokens(tokens ...string) TokenValidator {
	valid := make([][]byte, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			valid = append(valid, []byte(t))
		}
	}
	return func(_ context.Context, token string) (any, error) {
		tb := []byte(token)
		for _, v := range valid {
			if subtle.ConstantTimeCompare(tb, v) == 1 {
				return token, nil
			}
		}
		return nil, ErrInvalidToken
	}
}

// Principal returns the principal stored by Auth, or the zero value of T.
func Principal[T any](r *internal.Request) T {
	return internal.Value[T](r, principalKey)
}
