// Package notify defines the notification port the donation lifecycle and
// matchers publish through. Delivery is best-effort: implementations log
// failures and never propagate them into the originating state transition.
package notify

import (
	"context"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
)

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Notifier

// Event kinds carried on the notifications topic. The out-of-process mailer
// selects a template per kind.
const (
	KindDonorOffered  = "donor_offered"
	KindStatusChanged = "donation_status_changed"
	KindMatchAlert    = "match_alert"
)

// DonorOfferedEvent tells a requester that a donor volunteered.
type DonorOfferedEvent struct {
	RequestID   id.RequestID `json:"request_id"`
	RequesterID id.UserID    `json:"requester_id"`
	DonorID     id.UserID    `json:"donor_id"`
	DonorName   string       `json:"donor_name"`
	BloodType   blood.Type   `json:"blood_type"`
	Units       int          `json:"units"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// StatusChangedEvent tells a donor their donation changed status.
type StatusChangedEvent struct {
	DonationID id.DonationID `json:"donation_id"`
	RequestID  id.RequestID  `json:"request_id"`
	DonorID    id.UserID     `json:"donor_id"`
	Status     string        `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// MatchAlertEvent tells a donor a compatible request appeared nearby.
type MatchAlertEvent struct {
	DonorID    id.UserID    `json:"donor_id"`
	RequestID  id.RequestID `json:"request_id"`
	BloodType  blood.Type   `json:"blood_type"`
	Urgency    id.Urgency   `json:"urgency"`
	DistanceKm *float64     `json:"distance_km,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Notifier is the dispatch port. Implementations must return quickly and
// swallow delivery errors after logging them.
type Notifier interface {
	DonorOffered(ctx context.Context, event DonorOfferedEvent)
	DonationStatusChanged(ctx context.Context, event StatusChangedEvent)
	MatchAlert(ctx context.Context, event MatchAlertEvent)
}
