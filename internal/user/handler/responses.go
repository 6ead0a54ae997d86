package handler

import (
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/eligibility"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/models"
)

// UserResponse is the owner-facing view of a user account.
type UserResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	BloodType        string     `json:"blood_type"`
	Phone            string     `json:"phone,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	IsAvailable      bool       `json:"is_available"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	WeightKg         *float64   `json:"weight_kg,omitempty"`
	HealthConditions []string   `json:"health_conditions,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// FromUser converts a user aggregate into the owner-facing response.
func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID:               u.ID.String(),
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role.String(),
		BloodType:        string(u.BloodType),
		Phone:            u.Phone,
		Latitude:         u.Location.Latitude,
		Longitude:        u.Location.Longitude,
		IsAvailable:      u.IsAvailable,
		LastDonationDate: u.LastDonationDate,
		DateOfBirth:      u.DateOfBirth,
		WeightKg:         u.WeightKg,
		HealthConditions: u.HealthConditions,
		CreatedAt:        u.CreatedAt,
	}
}

// PublicUserResponse is the view other authenticated users may see.
// Medical details and contact email stay private.
type PublicUserResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	BloodType   string `json:"blood_type"`
	IsAvailable bool   `json:"is_available"`
}

// FromUserPublic converts a user aggregate into the restricted view.
func FromUserPublic(u *models.User) PublicUserResponse {
	return PublicUserResponse{
		ID:          u.ID.String(),
		Name:        u.Name,
		Role:        u.Role.String(),
		BloodType:   string(u.BloodType),
		IsAvailable: u.IsAvailable,
	}
}

// HealthResponse pairs the updated profile with the refreshed eligibility
// report.
type HealthResponse struct {
	User        UserResponse        `json:"user"`
	Eligibility *eligibility.Status `json:"eligibility"`
}
