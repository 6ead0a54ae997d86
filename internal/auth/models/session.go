// Package models defines the session records kept alongside issued tokens.
package models

import (
	"time"

	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
)

// Session is the server-side record behind an access token. Sessions live in
// Redis with a TTL matching ExpiresAt; deleting one revokes the token.
type Session struct {
	ID         id.SessionID `json:"id"`
	UserID     id.UserID    `json:"user_id"`
	Role       id.Role      `json:"role"`
	DeviceName string       `json:"device_name"`
	ClientIP   string       `json:"client_ip,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionSummary is the user-facing view of one login.
type SessionSummary struct {
	SessionID  id.SessionID `json:"session_id"`
	Device     string       `json:"device"`
	ClientIP   string       `json:"client_ip,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
	IsCurrent  bool         `json:"is_current"`
}

// SessionsResult is the body for the session listing endpoint.
type SessionsResult struct {
	Sessions []SessionSummary `json:"sessions"`
}

// Summarize renders a session for listing, marking the caller's own session.
func (s *Session) Summarize(currentID id.SessionID) SessionSummary {
	return SessionSummary{
		SessionID:  s.ID,
		Device:     s.DeviceName,
		ClientIP:   s.ClientIP,
		CreatedAt:  s.CreatedAt,
		LastSeenAt: s.LastSeenAt,
		ExpiresAt:  s.ExpiresAt,
		IsCurrent:  s.ID == currentID,
	}
}
