package middleware

import "context"

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxToken  contextKey = "accessToken"
)

// UserIDFromContext returns the authenticated user id, or "" when the
// request did not pass through Auth.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// TokenFromContext returns the raw bearer token the request authenticated
// with, or "" when absent.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxToken).(string); ok {
		return v
	}
	return ""
}

// WithUserID seeds the user id, for handlers under test.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithToken seeds the bearer token, for handlers under test.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxToken, token)
}
