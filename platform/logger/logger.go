// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and user_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("user_id", userID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// AuthEvent logs authentication events
func (l *Logger) AuthEvent(event, email string, success bool, reason string) {
	if success {
		l.Info("auth_event",
			slog.String("event", event),
			slog.String("email", email),
			slog.Bool("success", success),
		)
	} else {
		l.Warn("auth_event",
			slog.String("event", event),
			slog.String("email", email),
			slog.Bool("success", success),
			slog.String("reason", reason),
		)
	}
}

// TenantSpoofAttempt logs an authenticated request that carried a client
// tenant hint conflicting with the credential's tenant claim. The claim
// always wins; the hint is recorded for audit.
func (l *Logger) TenantSpoofAttempt(claimTenant, hintTenant, clientIP, path string) {
	l.Warn("tenant_spoof_attempt",
		slog.String("claim_tenant", claimTenant),
		slog.String("hint_tenant", hintTenant),
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// UnscopedAccess logs a tenant-scoped read executed without a resolved
// tenant context (tooling/migration fallback).
func (l *Logger) UnscopedAccess(table, op string) {
	l.Warn("unscoped_tenant_access",
		slog.String("table", table),
		slog.String("operation", op),
	)
}

// TransferEvent logs the outcome of a wallet transfer attempt.
func (l *Logger) TransferEvent(outcome string, tenantID, senderID, receiverID string, amount string) {
	l.Info("wallet_transfer",
		slog.String("outcome", outcome),
		slog.String("tenant_id", tenantID),
		slog.String("sender_id", senderID),
		slog.String("receiver_id", receiverID),
		slog.String("amount", amount),
	)
}

// SideEffectFailure logs a failed best-effort side effect. These never
// unwind the operation that triggered them.
func (l *Logger) SideEffectFailure(effect string, err error) {
	l.Error("side_effect_failure",
		slog.String("effect", effect),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
