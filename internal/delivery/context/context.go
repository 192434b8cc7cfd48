// Package context carries request-scoped values between the delivery
// middleware and the layers below it: the request id, the request-scoped
// logger, and the authenticated principal.
package context

import (
	"context"
	"log/slog"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// ctxKey keeps this package's context values from colliding with keys set
// by other packages.
type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyLogger    ctxKey = "logger"
	keyPrincipal ctxKey = "principal"
)

// HeaderXRequestID is the HTTP header carrying the request id.
const HeaderXRequestID = "X-Request-Id"

// Principal is the authenticated caller attached to a request after token
// verification. It mirrors the verified claims, not the stored identity, so
// handlers can authorize without a database round trip.
type Principal struct {
	SubjectID uuid.UUID
	Email     string
	Role      entity.Role
	Class     entity.TokenClass
}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// GetRequestID returns the request id, generating one when absent so log
// lines are always correlatable.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(keyRequestID).(string); ok && id != "" {
		return id
	}

	return uuid.New().String()
}

// WithLogger returns a context carrying the request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLoggerOrDefault returns the request-scoped logger, or the fallback when
// the request never passed through the request id middleware.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return fallback
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// GetPrincipal returns the authenticated principal, or nil when the request
// was not authenticated.
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(keyPrincipal).(*Principal); ok {
		return p
	}

	return nil
}
