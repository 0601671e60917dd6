package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Dosada05/team-roster/services"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	loggerContextKey    contextKey = "logger"
)

// PrincipalFromContext returns the caller set by Authenticate.
func PrincipalFromContext(ctx context.Context) (*services.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*services.Principal)
	return p, ok && p != nil && p.User != nil
}

func WithPrincipal(ctx context.Context, p *services.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// LoggerFromContext returns the request scoped logger, or slog.Default().
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
