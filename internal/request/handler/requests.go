package handler

import (
	"net/url"
	"strings"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

const (
	maxCityLength  = 128
	maxNotesLength = 1024
)

// CreateRequest is the HTTP request body for POST /requests.
type CreateRequest struct {
	BloodType string   `json:"blood_type"`
	Units     int      `json:"units_needed"`
	Urgency   string   `json:"urgency"`
	City      string   `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	NeededBy  string   `json:"needed_by"`
	Notes     string   `json:"notes"`

	// Parsed values (populated by Validate)
	parsedBloodType blood.Type
	parsedUrgency   id.Urgency
	parsedNeededBy  time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	bloodType, err := blood.ParseType(r.BloodType)
	if err != nil {
		return err
	}
	r.parsedBloodType = bloodType

	if r.Units < 1 {
		return dErrors.New(dErrors.CodeValidation, "units_needed must be at least 1")
	}

	urgency, err := id.ParseUrgency(r.Urgency)
	if err != nil {
		return err
	}
	r.parsedUrgency = urgency

	r.City = strings.TrimSpace(r.City)
	if len(r.City) > maxCityLength {
		return dErrors.Newf(dErrors.CodeValidation, "city must be at most %d characters", maxCityLength)
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.Newf(dErrors.CodeValidation, "notes must be at most %d characters", maxNotesLength)
	}

	neededBy, err := parseDate(r.NeededBy)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "needed_by must be an RFC 3339 date")
	}
	r.parsedNeededBy = neededBy

	loc := geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
	return loc.Validate()
}

// Params returns the validated creation input.
func (r *CreateRequest) Params() service.CreateParams {
	return service.CreateParams{
		BloodType: r.parsedBloodType,
		Units:     r.Units,
		Urgency:   r.parsedUrgency,
		City:      r.City,
		Location:  geo.Point{Latitude: r.Latitude, Longitude: r.Longitude},
		NeededBy:  r.parsedNeededBy,
		Notes:     strings.TrimSpace(r.Notes),
	}
}

// UpdateRequest is the HTTP request body for PUT /requests/{requestID}.
// Absent fields are left unchanged.
type UpdateRequest struct {
	Units     *int     `json:"units_needed"`
	Urgency   *string  `json:"urgency"`
	City      *string  `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	NeededBy  *string  `json:"needed_by"`
	Notes     *string  `json:"notes"`

	parsedUrgency  *id.Urgency
	parsedNeededBy *time.Time
}

// Validate validates and parses the request.
func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.Units != nil && *r.Units < 1 {
		return dErrors.New(dErrors.CodeValidation, "units_needed must be at least 1")
	}
	if r.Urgency != nil {
		urgency, err := id.ParseUrgency(*r.Urgency)
		if err != nil {
			return err
		}
		r.parsedUrgency = &urgency
	}
	if r.NeededBy != nil {
		neededBy, err := parseDate(*r.NeededBy)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "needed_by must be an RFC 3339 date")
		}
		r.parsedNeededBy = &neededBy
	}
	if r.Latitude != nil || r.Longitude != nil {
		loc := geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
		if err := loc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Update returns the validated request patch.
func (r *UpdateRequest) Update() models.Update {
	update := models.Update{
		UnitsNeeded: r.Units,
		Urgency:     r.parsedUrgency,
		City:        r.City,
		NeededBy:    r.parsedNeededBy,
		Notes:       r.Notes,
	}
	if r.Latitude != nil || r.Longitude != nil {
		update.Location = &geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
	}
	return update
}

// ListResponse is the body for GET /requests.
type ListResponse struct {
	Requests []*models.BloodRequest `json:"requests"`
	Count    int                    `json:"count"`
}

// filterFromQuery builds a typed filter from the list query string.
func filterFromQuery(values url.Values) (service.Filter, error) {
	var filter service.Filter

	if v := values.Get("blood_type"); v != "" {
		bloodType, err := blood.ParseType(v)
		if err != nil {
			return service.Filter{}, err
		}
		filter.BloodType = bloodType
	}
	if v := values.Get("urgency"); v != "" {
		urgency, err := id.ParseUrgency(v)
		if err != nil {
			return service.Filter{}, err
		}
		filter.Urgency = urgency
	}
	if v := values.Get("status"); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			return service.Filter{}, err
		}
		filter.Status = status
	}
	filter.City = strings.TrimSpace(values.Get("city"))
	return filter, nil
}

// parseDate accepts either a full RFC 3339 timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
