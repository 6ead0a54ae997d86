package models

import (
	"time"

	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// Status is the lifecycle state of a donation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a donation status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidStatus, "unknown donation status %q", s)
	}
}

func (s Status) String() string { return string(s) }

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

const maxUnits = 10

// Donation is a donor's offer against one blood request.
//
// Invariants:
//   - At most one donation exists per (request, donor) pair; the store's
//     uniqueness constraint enforces this under concurrency.
//   - Status moves pending -> confirmed -> completed, with cancellation
//     allowed from pending and confirmed. Terminal states never change.
//   - Donations are never deleted, only cancelled.
type Donation struct {
	ID           id.DonationID `json:"id"`
	RequestID    id.RequestID  `json:"request_id"`
	DonorID      id.UserID     `json:"donor_id"`
	Units        int           `json:"units"`
	Status       Status        `json:"status"`
	DonationDate *time.Time    `json:"donation_date,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewDonation constructs a pending donation, enforcing creation invariants.
func NewDonation(donationID id.DonationID, requestID id.RequestID, donorID id.UserID,
	units int, notes string, now time.Time) (*Donation, error) {
	if donationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "donation id is required")
	}
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request id is required")
	}
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "donor id is required")
	}
	if units < 1 || units > maxUnits {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "units must be between 1 and %d", maxUnits)
	}

	return &Donation{
		ID:        donationID,
		RequestID: requestID,
		DonorID:   donorID,
		Units:     units,
		Status:    StatusPending,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Can reports whether the transition is allowed by the state diagram.
func (d *Donation) Can(next Status) bool {
	if d.Status == next {
		return false
	}
	switch d.Status {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// StatusUpdate carries the optional fields merged during a transition.
// Nil means "keep the current value", never "clear".
type StatusUpdate struct {
	DonationDate *time.Time
	Notes        *string
}

// Apply performs a guarded transition and merges the optional fields.
func (d *Donation) Apply(next Status, update StatusUpdate, now time.Time) error {
	if !d.Can(next) {
		return dErrors.Newf(dErrors.CodeConflict,
			"cannot transition donation from %s to %s", d.Status, next)
	}
	d.Status = next
	if update.DonationDate != nil {
		date := *update.DonationDate
		d.DonationDate = &date
	}
	if update.Notes != nil {
		d.Notes = *update.Notes
	}
	// A completed donation has happened; default the date when omitted.
	if next == StatusCompleted && d.DonationDate == nil {
		date := now
		d.DonationDate = &date
	}
	d.UpdatedAt = now
	return nil
}

// Cancel force-cancels a pending donation. Used by the admin cascade, which
// bypasses per-donation authorization but still respects terminal states.
func (d *Donation) Cancel(now time.Time) error {
	return d.Apply(StatusCancelled, StatusUpdate{}, now)
}
