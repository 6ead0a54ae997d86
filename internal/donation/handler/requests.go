package handler

import (
	"strings"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

const maxNotesLength = 1024

// ExpressInterestRequest is the HTTP request body for
// POST /requests/{requestID}/donations.
type ExpressInterestRequest struct {
	Units int    `json:"units"`
	Notes string `json:"notes"`
}

// Validate validates the request. A zero units field means one unit.
func (r *ExpressInterestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Units < 0 {
		return dErrors.New(dErrors.CodeValidation, "units must be positive")
	}
	r.Notes = strings.TrimSpace(r.Notes)
	if len(r.Notes) > maxNotesLength {
		return dErrors.Newf(dErrors.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}
	return nil
}

func (r *ExpressInterestRequest) units() int {
	if r.Units == 0 {
		return 1
	}
	return r.Units
}

// SetStatusRequest is the HTTP request body for PUT /donations/{donationID}/status.
type SetStatusRequest struct {
	Status       string  `json:"status"`
	DonationDate *string `json:"donation_date"`
	Notes        *string `json:"notes"`

	status          models.Status
	parsedDonatedAt *time.Time
}

// Validate validates and parses the request.
func (r *SetStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status

	if r.DonationDate != nil {
		donatedAt, err := parseDate(*r.DonationDate)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "donation_date must be an RFC 3339 date")
		}
		r.parsedDonatedAt = &donatedAt
	}
	if r.Notes != nil && len(*r.Notes) > maxNotesLength {
		return dErrors.Newf(dErrors.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}
	return nil
}

// Update returns the validated status patch.
func (r *SetStatusRequest) Update() models.StatusUpdate {
	return models.StatusUpdate{
		DonationDate: r.parsedDonatedAt,
		Notes:        r.Notes,
	}
}

// ListResponse is the body for donation list endpoints.
type ListResponse struct {
	Donations []*models.Donation `json:"donations"`
	Count     int                `json:"count"`
}

// parseDate accepts either a full RFC 3339 timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
