package testutil

import (
	"context"
	"net/http"

	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsedUserID))
	}
	return req
}

// WithRole adds a role to the request context.
// Invalid roles are silently ignored.
func WithRole(req *http.Request, role string) *http.Request {
	if parsedRole, err := id.ParseRole(role); err == nil {
		return req.WithContext(requestcontext.WithRole(req.Context(), parsedRole))
	}
	return req
}

// WithAuth adds a user ID and role to the request context.
// This is the typical state for an authenticated request.
// Invalid values are silently ignored.
func WithAuth(req *http.Request, userID string, role string) *http.Request {
	return WithRole(WithUserID(req, userID), role)
}

// WithSession adds a session ID to the request context.
// Invalid IDs are silently ignored.
func WithSession(req *http.Request, sessionID string) *http.Request {
	if parsed, err := id.ParseSessionID(sessionID); err == nil {
		return req.WithContext(requestcontext.WithSessionID(req.Context(), parsed))
	}
	return req
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
