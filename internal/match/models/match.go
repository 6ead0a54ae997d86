package models

import (
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	requestmodels "github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
)

// DonorMatch is one ranked donor in a search result. DistanceKm is nil when
// either side has no coordinates; such donors rank after every
// distance-ranked donor.
type DonorMatch struct {
	DonorID          id.UserID  `json:"donor_id"`
	Name             string     `json:"name"`
	BloodType        blood.Type `json:"blood_type"`
	Phone            string     `json:"phone,omitempty"`
	DistanceKm       *float64   `json:"distance_km"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
}

// DonorMatchResult is the outcome of a donor search for one blood request.
// TotalMatches counts the filtered pool before the limit is applied.
type DonorMatchResult struct {
	RequestID       id.RequestID `json:"request_id"`
	BloodType       blood.Type   `json:"blood_type"`
	CompatibleTypes []blood.Type `json:"compatible_types"`
	TotalMatches    int          `json:"total_matches"`
	Donors          []DonorMatch `json:"donors"`
}

// RequestMatch is one ranked open request in a donor's search result.
type RequestMatch struct {
	Request    *requestmodels.BloodRequest `json:"request"`
	DistanceKm *float64                    `json:"distance_km"`
}

// RequestMatchResult is the outcome of a request search for one donor.
type RequestMatchResult struct {
	DonorBloodType blood.Type     `json:"donor_blood_type"`
	CanDonateTo    []blood.Type   `json:"can_donate_to"`
	TotalMatches   int            `json:"total_matches"`
	Requests       []RequestMatch `json:"requests"`
}
