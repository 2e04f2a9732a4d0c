package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps how much of a request or response is logged.
// Report payloads can run to megabytes.
const maxLoggedPayload = 2048

// trafficLoggingMiddleware logs every MCP message at debug level. It is a
// no-op unless debug logging is enabled.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			log := logger.With("direction", direction, "method", method, "session_id", sessionIDOf(req))
			if caller, ok := callerFrom(ctx); ok {
				log = log.With("user_id", caller.UserID)
			}
			log.Debug("mcp request", "params", loggable(paramsOf(req)))

			started := time.Now()
			res, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return res, err
			}
			attrs := []any{"elapsed", time.Since(started), "result", loggable(res)}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			log.Debug("mcp response", attrs...)
			return res, err
		}
	}
}

// sessionIDOf and paramsOf tolerate requests whose session or params
// are not populated yet, which the SDK allows during the handshake.
func sessionIDOf(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func paramsOf(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func loggable(v any) string {
	if v == nil {
		return "<nil>"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	if len(data) > maxLoggedPayload {
		return fmt.Sprintf("%s... (%d bytes)", data[:maxLoggedPayload], len(data))
	}
	return string(data)
}
