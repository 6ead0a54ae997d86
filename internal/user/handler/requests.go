package handler

import (
	"strings"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/service"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

const (
	maxNameLength     = 128
	maxPhoneLength    = 32
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
)

// RegisterRequest is the HTTP request body for POST /users/register.
type RegisterRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	BloodType string   `json:"blood_type"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Parsed values (populated by Validate)
	parsedRole      id.Role
	parsedBloodType blood.Type
	parsedLocation  geo.Point
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", maxNameLength)
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}

	if len(r.Password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	if len(r.Password) > maxPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at most %d characters", maxPasswordLength)
	}

	role, err := id.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role

	bloodType, err := blood.ParseType(r.BloodType)
	if err != nil {
		return err
	}
	r.parsedBloodType = bloodType

	if len(r.Phone) > maxPhoneLength {
		return dErrors.Newf(dErrors.CodeValidation, "phone must be at most %d characters", maxPhoneLength)
	}

	r.parsedLocation = geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
	if err := r.parsedLocation.Validate(); err != nil {
		return err
	}

	return nil
}

// Params returns the validated registration input.
func (r *RegisterRequest) Params() service.RegisterParams {
	return service.RegisterParams{
		Name:      r.Name,
		Email:     r.Email,
		Password:  r.Password,
		Role:      r.parsedRole,
		BloodType: r.parsedBloodType,
		Phone:     strings.TrimSpace(r.Phone),
		Location:  r.parsedLocation,
	}
}

// UpdateProfileRequest is the HTTP request body for PUT /users/me.
// Absent fields are left unchanged.
type UpdateProfileRequest struct {
	Name        *string  `json:"name"`
	Phone       *string  `json:"phone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	IsAvailable *bool    `json:"is_available"`
}

// Validate validates the request.
func (r *UpdateProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		if len(trimmed) > maxNameLength {
			return dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", maxNameLength)
		}
		r.Name = &trimmed
	}
	if r.Phone != nil && len(*r.Phone) > maxPhoneLength {
		return dErrors.Newf(dErrors.CodeValidation, "phone must be at most %d characters", maxPhoneLength)
	}
	if r.Latitude != nil || r.Longitude != nil {
		loc := geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
		if err := loc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Update returns the validated profile update.
func (r *UpdateProfileRequest) Update() models.ProfileUpdate {
	update := models.ProfileUpdate{
		Name:        r.Name,
		Phone:       r.Phone,
		IsAvailable: r.IsAvailable,
	}
	if r.Latitude != nil || r.Longitude != nil {
		update.Location = &geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
	}
	return update
}

// UpdateHealthRequest is the HTTP request body for PUT /users/me/health.
// Absent fields are left unchanged; a present but empty health_conditions
// list clears the recorded conditions.
type UpdateHealthRequest struct {
	DateOfBirth      *string  `json:"date_of_birth"`
	WeightKg         *float64 `json:"weight_kg"`
	HealthConditions []string `json:"health_conditions"`
	LastDonationDate *string  `json:"last_donation_date"`

	parsedDateOfBirth      *time.Time
	parsedLastDonationDate *time.Time
}

// Validate validates and parses the request.
func (r *UpdateHealthRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.DateOfBirth != nil {
		t, err := parseDate(*r.DateOfBirth)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "date_of_birth must be an RFC 3339 date")
		}
		r.parsedDateOfBirth = &t
	}
	if r.LastDonationDate != nil {
		t, err := parseDate(*r.LastDonationDate)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "last_donation_date must be an RFC 3339 date")
		}
		r.parsedLastDonationDate = &t
	}
	if r.WeightKg != nil && *r.WeightKg <= 0 {
		return dErrors.New(dErrors.CodeValidation, "weight_kg must be positive")
	}
	for i, condition := range r.HealthConditions {
		r.HealthConditions[i] = strings.TrimSpace(condition)
	}
	return nil
}

// Update returns the validated health update.
func (r *UpdateHealthRequest) Update() models.HealthUpdate {
	return models.HealthUpdate{
		DateOfBirth:      r.parsedDateOfBirth,
		WeightKg:         r.WeightKg,
		HealthConditions: r.HealthConditions,
		LastDonationDate: r.parsedLastDonationDate,
	}
}

// parseDate accepts either a full RFC 3339 timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
