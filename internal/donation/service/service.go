package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/eligibility"
	"github.com/SashiniHimaya/blood-donation-system/internal/notify"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	requestmodels "github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks DonationStore,UserSource,RequestSource

// DonationStore is the persistence port for donations. CreateIfAbsent must
// enforce the (request_id, donor_id) uniqueness atomically and return
// sentinel.ErrConflict on violation.
type DonationStore interface {
	CreateIfAbsent(ctx context.Context, donation *models.Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	Update(ctx context.Context, donation *models.Donation) error
	ListForRequest(ctx context.Context, requestID id.RequestID) ([]*models.Donation, error)
	ListForDonor(ctx context.Context, donorID id.UserID, status models.Status) ([]*models.Donation, error)
	SumCompletedUnits(ctx context.Context, requestID id.RequestID) (int, error)
	ListPendingForRequest(ctx context.Context, requestID id.RequestID) ([]*models.Donation, error)
}

// UserSource reads and writes donor profiles.
type UserSource interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
	Update(ctx context.Context, user *usermodels.User) error
}

// RequestSource reads and writes blood requests.
type RequestSource interface {
	FindByID(ctx context.Context, requestID id.RequestID) (*requestmodels.BloodRequest, error)
	Update(ctx context.Context, request *requestmodels.BloodRequest) error
}

// Service drives the donation state machine: admitting new donations through
// the eligibility and compatibility gates, transitioning status, and
// cascading cancellations.
type Service struct {
	donations DonationStore
	users     UserSource
	requests  RequestSource
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// New constructs a Service.
func New(donations DonationStore, users UserSource, requests RequestSource, opts ...Option) *Service {
	s := &Service{
		donations: donations,
		users:     users,
		requests:  requests,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpressInterest admits a new pending donation after the full precondition
// chain. Each failure is a distinct coded error so callers can render the
// exact reason.
func (s *Service) ExpressInterest(ctx context.Context, requestID id.RequestID, units int, notes string) (*models.Donation, error) {
	donorID := requestcontext.UserID(ctx)
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	donor, err := s.users.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	if !donor.Role.CanDonate() {
		return nil, dErrors.New(dErrors.CodeNotADonor, "user is not a donor")
	}
	if !donor.IsAvailable {
		return nil, dErrors.New(dErrors.CodeDonorUnavailable, "donor is not currently available")
	}
	status := eligibility.Evaluate(donor.EligibilityProfile(), now)
	if !status.Eligible {
		return nil, dErrors.New(dErrors.CodeNotEligible, "donor is not eligible to donate").
			WithDetails(status)
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if !request.Status.AcceptsDonations() {
		return nil, dErrors.Newf(dErrors.CodeRequestNotOpen, "request is %s", request.Status)
	}
	if !blood.CanDonateTo(donor.BloodType, request.BloodType) {
		return nil, dErrors.Newf(dErrors.CodeIncompatibleBloodType,
			"blood type %s cannot donate to %s", donor.BloodType, request.BloodType)
	}

	donation, err := models.NewDonation(id.NewDonationID(), request.ID, donor.ID, units, notes, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	// The unique (request_id, donor_id) index decides races between
	// concurrent attempts by the same donor.
	if err := s.donations.CreateIfAbsent(ctx, donation); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateDonation, "donor has already offered for this request")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation")
	}

	s.logAudit(ctx, "donation.created",
		"donation_id", donation.ID.String(),
		"blood_request_id", request.ID.String(),
		"donor_id", donor.ID.String(),
	)
	if s.metrics != nil {
		s.metrics.DonationsCreated.Inc()
	}
	if s.notifier != nil {
		s.notifier.DonorOffered(ctx, notify.DonorOfferedEvent{
			RequestID:   request.ID,
			RequesterID: request.RequesterID,
			DonorID:     donor.ID,
			DonorName:   donor.Name,
			BloodType:   donor.BloodType,
			Units:       donation.Units,
			OccurredAt:  now,
		})
	}
	return donation, nil
}

// SetStatus transitions a donation. Only the request's requester or the
// donation's donor may act; the state diagram is enforced strictly.
func (s *Service) SetStatus(ctx context.Context, donationID id.DonationID, next models.Status, update models.StatusUpdate) (*models.Donation, error) {
	donation, err := s.getDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	request, err := s.requests.FindByID(ctx, donation.RequestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}

	actor := requestcontext.UserID(ctx)
	if actor != request.RequesterID && actor != donation.DonorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requester or the donor can update this donation")
	}

	now := requestcontext.Now(ctx)
	if err := donation.Apply(next, update, now); err != nil {
		return nil, err
	}
	if err := s.donations.Update(ctx, donation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation")
	}

	if next == models.StatusCompleted {
		s.recordCompletion(ctx, donation, request, now)
	}

	s.logAudit(ctx, "donation.status_changed",
		"donation_id", donation.ID.String(),
		"status", next.String(),
		"actor_id", actor.String(),
	)
	if s.metrics != nil {
		s.metrics.DonationTransitions.WithLabelValues(next.String()).Inc()
	}
	if s.notifier != nil && (next == models.StatusConfirmed || next == models.StatusCancelled) {
		s.notifier.DonationStatusChanged(ctx, notify.StatusChangedEvent{
			DonationID: donation.ID,
			RequestID:  donation.RequestID,
			DonorID:    donation.DonorID,
			Status:     next.String(),
			OccurredAt: now,
		})
	}
	return donation, nil
}

// recordCompletion stamps the donor's last donation date and recomputes the
// request status from the completed-unit total. Both are best-effort follow
// ups: the donation transition itself is already durable.
func (s *Service) recordCompletion(ctx context.Context, donation *models.Donation, request *requestmodels.BloodRequest, now time.Time) {
	donatedAt := now
	if donation.DonationDate != nil {
		donatedAt = *donation.DonationDate
	}
	if donor, err := s.users.FindByID(ctx, donation.DonorID); err == nil {
		donor.RecordDonation(donatedAt, now)
		if err := s.users.Update(ctx, donor); err != nil {
			s.logError(ctx, "failed to stamp donor last donation date", err)
		}
	} else {
		s.logError(ctx, "failed to load donor after completion", err)
	}

	completed, err := s.donations.SumCompletedUnits(ctx, donation.RequestID)
	if err != nil {
		s.logError(ctx, "failed to sum completed units", err)
		return
	}
	before := request.Status
	if err := request.RecordFulfilledUnits(completed, now); err != nil {
		s.logError(ctx, "failed to recompute request status", err)
		return
	}
	if request.Status != before {
		if err := s.requests.Update(ctx, request); err != nil {
			s.logError(ctx, "failed to persist request status", err)
		}
	}
}

// CancelPendingForRequest force-cancels every pending donation on a request.
// Used by admin request cancellation; intentionally sends no notifications.
func (s *Service) CancelPendingForRequest(ctx context.Context, requestID id.RequestID) (int, error) {
	pending, err := s.donations.ListPendingForRequest(ctx, requestID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending donations")
	}

	now := requestcontext.Now(ctx)
	cancelled := 0
	for _, donation := range pending {
		if err := donation.Cancel(now); err != nil {
			continue
		}
		if err := s.donations.Update(ctx, donation); err != nil {
			s.logError(ctx, "failed to cancel pending donation", err)
			continue
		}
		cancelled++
		if s.metrics != nil {
			s.metrics.DonationTransitions.WithLabelValues(models.StatusCancelled.String()).Inc()
		}
	}

	s.logAudit(ctx, "donation.cascade_cancelled",
		"blood_request_id", requestID.String(),
		"cancelled", cancelled,
	)
	return cancelled, nil
}

// ListForRequest returns a request's donations. Only the request owner or an
// admin may view them.
func (s *Service) ListForRequest(ctx context.Context, requestID id.RequestID) ([]*models.Donation, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	actor := requestcontext.UserID(ctx)
	if actor != request.RequesterID && requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requester can view these donations")
	}

	donations, err := s.donations.ListForRequest(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return donations, nil
}

// ListMine returns the authenticated donor's donations, optionally filtered
// by status.
func (s *Service) ListMine(ctx context.Context, status models.Status) ([]*models.Donation, error) {
	donorID := requestcontext.UserID(ctx)
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	donations, err := s.donations.ListForDonor(ctx, donorID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return donations, nil
}

func (s *Service) getDonation(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	return donation, nil
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
