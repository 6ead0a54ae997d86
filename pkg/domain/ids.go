// Package domain provides typed identifiers and small domain primitives shared
// across bounded contexts.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects passing a
// donor ID where a request ID is expected. Construct them from external input
// via the Parse* functions, which enforce the invariant that IDs are valid,
// non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// Typed identifiers. Each is a distinct type; cross-assignment is a compile
// error.
type (
	// UserID identifies a user account (donor, recipient, or admin).
	UserID uuid.UUID

	// RequestID identifies a blood request.
	RequestID uuid.UUID

	// DonationID identifies a donation offer.
	DonationID uuid.UUID

	// SessionID identifies an authenticated session.
	SessionID uuid.UUID
)

// NewUserID generates a random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRequestID generates a random request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewDonationID generates a random donation ID.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// NewSessionID generates a random session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", kind)
	}
	return u, nil
}

// ParseUserID constructs a UserID from external input.
//
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseRequestID constructs a RequestID from external input.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

// ParseDonationID constructs a DonationID from external input.
func ParseDonationID(s string) (DonationID, error) {
	u, err := parseUUID(s, "donation id")
	if err != nil {
		return DonationID{}, err
	}
	return DonationID(u), nil
}

// ParseSessionID constructs a SessionID from external input.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id RequestID) String() string  { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
