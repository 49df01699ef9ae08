package appcore

import (
	"context"
	"errors"
)

// Context keys
type contextKey string

const (
	sessionUserKey contextKey = "sessionUser"
	requestIDKey   contextKey = "requestID"
)

var ErrSessionUserNotFound = errors.New("session user not found in context")

// SessionUser is the signed-in user attached to a pageserve session.
type SessionUser struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	GAuthToken string `json:"gauth_token"`
}

// GetSessionUser extracts the signed-in user from the context
func GetSessionUser(ctx context.Context) (*SessionUser, error) {
	user, ok := ctx.Value(sessionUserKey).(*SessionUser)
	if !ok || user == nil {
		return nil, ErrSessionUserNotFound
	}
	return user, nil
}

// WithSessionUser adds the signed-in user to the context
func WithSessionUser(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

// GetRequestID extracts the request ID from the context, or "" when absent
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
