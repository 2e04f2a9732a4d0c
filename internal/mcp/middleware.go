package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/report-results/internal/domain/identity"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const callerKey contextKey = iota

// callerFrom extracts the resolved caller from context.
func callerFrom(ctx context.Context) (identity.Caller, bool) {
	c, ok := ctx.Value(callerKey).(identity.Caller)
	return c, ok && c.UserID != ""
}

// CallerResolver resolves the caller behind a bearer token.
type CallerResolver interface {
	ResolveToken(ctx context.Context, token string) (identity.Caller, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver CallerResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshake runs before the client has a reason to authenticate.
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			caller, err := resolver.ResolveToken(ctx, token)
			if err != nil {
				if errors.Is(err, identity.ErrUnauthorized) || errors.Is(err, identity.ErrUserNotFound) {
					return nil, fmt.Errorf("unauthorized: invalid bearer token")
				}
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			ctx = context.WithValue(ctx, callerKey, caller)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware injects a fixed caller when auth is disabled.
func noAuthMiddleware(caller identity.Caller) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, callerKey, caller)
			return next(ctx, method, req)
		}
	}
}
