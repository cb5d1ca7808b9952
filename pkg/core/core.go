package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

// AuthKey is a custom context key type for storing the Google access token in context.
type AuthKey struct{}

// RequestIDKey is a custom context key type for storing the request ID in context.
type RequestIDKey struct{}

// SessionKey is a custom context key type for storing the current Session in context.
type SessionKey struct{}

// WithRequestID returns a new context with a generated request ID set.
func WithRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, uuid.New().String())
}

// RequestIDFromContext returns the request ID stored in ctx, or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	reqID, _ := ctx.Value(RequestIDKey{}).(string)
	return reqID
}

// withAuthKey returns a new context with the provided access token set.
func withAuthKey(ctx context.Context, auth string) context.Context {
	return context.WithValue(ctx, AuthKey{}, auth)
}

// AuthFromRequest extracts the bearer token from the Authorization header
// and stores it in the context. Used for HTTP transport.
func AuthFromRequest(ctx context.Context, r *http.Request) context.Context {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		auth = strings.TrimSpace(auth[7:])
	}
	return withAuthKey(ctx, auth)
}

// AuthFromEnv reads GOOGLE_ACCESS_TOKEN and stores it in the context.
// Used for stdio transport.
func AuthFromEnv(ctx context.Context) context.Context {
	return withAuthKey(ctx, os.Getenv("GOOGLE_ACCESS_TOKEN"))
}

// TokenFromContext retrieves the access token from the context.
// Returns an error if the token is missing or empty.
func TokenFromContext(ctx context.Context) (string, error) {
	auth, ok := ctx.Value(AuthKey{}).(string)
	if !ok || auth == "" {
		return "", fmt.Errorf("missing auth")
	}
	return auth, nil
}

// LoggerFromCtx returns a slog.Logger with request_id field if present in context.
// If no request ID is found, it returns the default logger.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		return slog.Default().With("request_id", reqID)
	}
	return slog.Default()
}

// WithSession returns a new context carrying the given Session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, SessionKey{}, s)
}

// SessionFromContext retrieves the Session from the context.
func SessionFromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(SessionKey{}).(*Session)
	if !ok || s == nil {
		return nil, fmt.Errorf("missing session")
	}
	return s, nil
}
