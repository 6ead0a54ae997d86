package models

import (
	"strings"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// Status is the lifecycle state of a blood request.
type Status string

const (
	StatusOpen               Status = "open"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusFulfilled          Status = "fulfilled"
	StatusCancelled          Status = "cancelled"
)

// ParseStatus validates a request status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusPartiallyFulfilled, StatusFulfilled, StatusCancelled:
		return Status(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidStatus, "unknown request status %q", s)
	}
}

func (s Status) String() string { return string(s) }

// AcceptsDonations reports whether donors may still express interest.
func (s Status) AcceptsDonations() bool {
	return s == StatusOpen || s == StatusPartiallyFulfilled
}

const (
	maxNotesLength = 1024
	maxCityLength  = 128
	maxUnits       = 20
)

// BloodRequest is a recipient's call for donors.
//
// Invariants:
//   - ID and RequesterID are non-nil.
//   - BloodType is one of the eight valid types and never changes after
//     creation.
//   - UnitsNeeded is between 1 and 20.
//   - NeededBy is in the future at creation time.
//   - Status follows open -> partially_fulfilled -> fulfilled, with
//     cancellation possible from any non-terminal state.
type BloodRequest struct {
	ID          id.RequestID `json:"id"`
	RequesterID id.UserID    `json:"requester_id"`
	BloodType   blood.Type   `json:"blood_type"`
	UnitsNeeded int          `json:"units_needed"`
	Urgency     id.Urgency   `json:"urgency"`
	City        string       `json:"city,omitempty"`
	Location    geo.Point    `json:"location"`
	NeededBy    time.Time    `json:"needed_by"`
	Status      Status       `json:"status"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewBloodRequest constructs an open request, enforcing creation invariants.
func NewBloodRequest(requestID id.RequestID, requesterID id.UserID, bloodType blood.Type,
	units int, urgency id.Urgency, neededBy time.Time, now time.Time) (*BloodRequest, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request id is required")
	}
	if requesterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requester id is required")
	}
	if !bloodType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidBloodType, "invalid blood type %q", string(bloodType))
	}
	if units < 1 || units > maxUnits {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "units must be between 1 and %d", maxUnits)
	}
	if !urgency.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "invalid urgency %q", string(urgency))
	}
	if !neededBy.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "needed-by date must be in the future")
	}

	return &BloodRequest{
		ID:          requestID,
		RequesterID: requesterID,
		BloodType:   bloodType,
		UnitsNeeded: units,
		Urgency:     urgency,
		NeededBy:    neededBy,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsTerminal reports whether the request can no longer change state.
func (r *BloodRequest) IsTerminal() bool {
	return r.Status == StatusFulfilled || r.Status == StatusCancelled
}

// CanTransitionTo reports whether the status change is allowed.
func (r *BloodRequest) CanTransitionTo(next Status) bool {
	if r.Status == next {
		return false
	}
	switch r.Status {
	case StatusOpen:
		return next == StatusPartiallyFulfilled || next == StatusFulfilled || next == StatusCancelled
	case StatusPartiallyFulfilled:
		return next == StatusFulfilled || next == StatusCancelled
	default:
		return false
	}
}

// Transition applies a status change, rejecting moves the state diagram
// forbids.
func (r *BloodRequest) Transition(next Status, now time.Time) error {
	if !r.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeConflict,
			"cannot transition request from %s to %s", r.Status, next)
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// RecordFulfilledUnits recomputes the request status from the total units
// completed so far. Terminal requests are left untouched.
func (r *BloodRequest) RecordFulfilledUnits(completedUnits int, now time.Time) error {
	if r.IsTerminal() {
		return nil
	}
	switch {
	case completedUnits >= r.UnitsNeeded:
		return r.Transition(StatusFulfilled, now)
	case completedUnits > 0 && r.Status == StatusOpen:
		return r.Transition(StatusPartiallyFulfilled, now)
	default:
		return nil
	}
}

// Update carries the requester-editable fields. Nil means keep the current
// value.
type Update struct {
	UnitsNeeded *int
	Urgency     *id.Urgency
	City        *string
	Location    *geo.Point
	NeededBy    *time.Time
	Notes       *string
}

// Apply merges the update into the request.
func (r *BloodRequest) Apply(update Update, now time.Time) error {
	if r.IsTerminal() {
		return dErrors.Newf(dErrors.CodeConflict, "cannot update a %s request", r.Status)
	}
	if update.UnitsNeeded != nil {
		if *update.UnitsNeeded < 1 || *update.UnitsNeeded > maxUnits {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "units must be between 1 and %d", maxUnits)
		}
		r.UnitsNeeded = *update.UnitsNeeded
	}
	if update.Urgency != nil {
		if !update.Urgency.IsValid() {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "invalid urgency %q", string(*update.Urgency))
		}
		r.Urgency = *update.Urgency
	}
	if update.City != nil {
		city := strings.TrimSpace(*update.City)
		if len(city) > maxCityLength {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "city must be at most %d characters", maxCityLength)
		}
		r.City = city
	}
	if update.Location != nil {
		if err := update.Location.Validate(); err != nil {
			return err
		}
		r.Location = *update.Location
	}
	if update.NeededBy != nil {
		if !update.NeededBy.After(now) {
			return dErrors.New(dErrors.CodeInvariantViolation, "needed-by date must be in the future")
		}
		r.NeededBy = *update.NeededBy
	}
	if update.Notes != nil {
		if len(*update.Notes) > maxNotesLength {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "notes must be at most %d characters", maxNotesLength)
		}
		r.Notes = *update.Notes
	}
	r.UpdatedAt = now
	return nil
}
