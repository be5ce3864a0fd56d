// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains the *models.User resolved by the authentication gate.
	// Set by: middleware.AuthMiddleware
	// Required by: all protected API endpoints
	UserKey Key = "current_user"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: request logging, security event logging
	RequestIDKey Key = "request_id"
)

// WithUser attaches the authenticated user to the context
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFrom retrieves the authenticated user from the context, or nil if
// no authentication gate has run
func UserFrom(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithRequestID attaches a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFrom retrieves the request ID from the context
func RequestIDFrom(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
