package models

import (
	"strings"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/eligibility"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// User is the aggregate root for an account: donor, recipient, both, or admin.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Email is non-empty, contains '@', and at most 254 characters
//   - Role is one of the supported roles
//   - BloodType is one of the eight supported types
//   - Location is either absent or a full, in-range coordinate pair
//   - Medical fields (LastDonationDate, DateOfBirth, WeightKg,
//     HealthConditions) are optional; eligibility treats absence as permissive
//
// Availability is donor-controlled. The donation lifecycle reads it as a gate
// but never flips it; completing a donation updates LastDonationDate instead.
type User struct {
	ID           id.UserID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         id.Role    `json:"role"`
	BloodType    blood.Type `json:"blood_type"`
	Phone        string     `json:"phone,omitempty"`
	Location     geo.Point  `json:"location"`

	IsAvailable      bool       `json:"is_available"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	WeightKg         *float64   `json:"weight_kg,omitempty"`
	HealthConditions []string   `json:"health_conditions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser constructs a User and validates its invariants.
func NewUser(userID id.UserID, name, email, passwordHash string, role id.Role, bloodType blood.Type, location geo.Point, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot exceed 128 characters")
	}
	if email == "" || !strings.Contains(email, "@") || len(email) > 254 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email is not valid")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role is not valid")
	}
	if !bloodType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidBloodType, "blood type is not valid")
	}
	if err := location.Validate(); err != nil {
		return nil, err
	}

	return &User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		BloodType:    bloodType,
		Location:     location,
		IsAvailable:  role.CanDonate(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsDonor reports whether the user may act as a donor.
func (u *User) IsDonor() bool {
	return u.Role.CanDonate()
}

// EligibilityProfile projects the medical fields eligibility rules read.
func (u *User) EligibilityProfile() eligibility.Profile {
	return eligibility.Profile{
		LastDonationDate: u.LastDonationDate,
		DateOfBirth:      u.DateOfBirth,
		WeightKg:         u.WeightKg,
		HealthConditions: u.HealthConditions,
	}
}

// RecordDonation stamps the donation date after a completed donation.
func (u *User) RecordDonation(donatedAt, now time.Time) {
	d := donatedAt
	u.LastDonationDate = &d
	u.UpdatedAt = now
}

// ProfileUpdate carries the donor-editable profile fields. Nil means "leave
// unchanged".
type ProfileUpdate struct {
	Name        *string
	Phone       *string
	Location    *geo.Point
	IsAvailable *bool
}

// Apply merges the update into the user.
func (u *User) Apply(update ProfileUpdate, now time.Time) error {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" || len(name) > 128 {
			return dErrors.New(dErrors.CodeInvariantViolation, "name is not valid")
		}
		u.Name = name
	}
	if update.Phone != nil {
		u.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Location != nil {
		if err := update.Location.Validate(); err != nil {
			return err
		}
		u.Location = *update.Location
	}
	if update.IsAvailable != nil {
		u.IsAvailable = *update.IsAvailable
	}
	u.UpdatedAt = now
	return nil
}

// HealthUpdate carries the donor-editable medical fields. Nil means "leave
// unchanged"; an empty condition slice clears the list.
type HealthUpdate struct {
	DateOfBirth      *time.Time
	WeightKg         *float64
	HealthConditions []string
	LastDonationDate *time.Time
}

// ApplyHealth merges the update into the user.
func (u *User) ApplyHealth(update HealthUpdate, now time.Time) error {
	if update.WeightKg != nil && *update.WeightKg <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "weight must be positive")
	}
	if update.DateOfBirth != nil && update.DateOfBirth.After(now) {
		return dErrors.New(dErrors.CodeInvariantViolation, "date of birth cannot be in the future")
	}
	if update.DateOfBirth != nil {
		u.DateOfBirth = update.DateOfBirth
	}
	if update.WeightKg != nil {
		u.WeightKg = update.WeightKg
	}
	if update.HealthConditions != nil {
		u.HealthConditions = update.HealthConditions
	}
	if update.LastDonationDate != nil {
		u.LastDonationDate = update.LastDonationDate
	}
	u.UpdatedAt = now
	return nil
}
