package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ganot/report-results/internal/domain/identity"
)

type callerKey struct{}

// CallerResolver resolves the caller behind a bearer token.
type CallerResolver interface {
	ResolveToken(ctx context.Context, token string) (identity.Caller, error)
}

// CallerFromContext returns the authenticated caller, if present.
func CallerFromContext(ctx context.Context) (identity.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(identity.Caller)
	return caller, ok && caller.UserID != ""
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller identity.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			caller, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrUnauthorized) || errors.Is(err, identity.ErrUserNotFound) {
					http.Error(w, "invalid bearer token", http.StatusUnauthorized)
					return
				}
				http.Error(w, "cannot resolve caller", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// FixedCallerMiddleware runs every request as caller. It stands in for
// AuthMiddleware when auth is disabled.
func FixedCallerMiddleware(caller identity.Caller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
