package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// SubdomainKey is the context key for the resolved tenant subdomain
	SubdomainKey contextKey = "subdomain"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns the enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithSubdomain adds the tenant subdomain to context and returns the
// enriched logger
func WithSubdomain(ctx context.Context, logger *zap.Logger, subdomain string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, SubdomainKey, subdomain)
	enriched := logger.With(zap.String("subdomain", subdomain))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetSubdomain retrieves the tenant subdomain from context
func GetSubdomain(ctx context.Context) string {
	if subdomain, ok := ctx.Value(SubdomainKey).(string); ok {
		return subdomain
	}
	return ""
}
