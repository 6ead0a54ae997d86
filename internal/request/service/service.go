package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// Filter selects blood requests by typed attributes. Zero values mean "no
// filter". Stores translate this into parameterized queries.
type Filter struct {
	BloodType   blood.Type
	Urgency     id.Urgency
	Status      models.Status
	City        string
	RequesterID id.UserID
}

// RequestStore is the persistence port for blood requests.
type RequestStore interface {
	Create(ctx context.Context, request *models.BloodRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error)
	Update(ctx context.Context, request *models.BloodRequest) error
	List(ctx context.Context, filter Filter) ([]*models.BloodRequest, error)
	ListOpen(ctx context.Context) ([]*models.BloodRequest, error)
}

// DonorAlerter fans an urgent request out to the donors who match it.
type DonorAlerter interface {
	AlertDonors(ctx context.Context, request *models.BloodRequest) int
}

// Service orchestrates blood request lifecycle operations.
type Service struct {
	requests RequestStore
	alerter  DonorAlerter
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func WithAlerter(a DonorAlerter) Option {
	return func(s *Service) {
		s.alerter = a
	}
}

// New constructs a Service.
func New(requests RequestStore, opts ...Option) *Service {
	s := &Service{requests: requests}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries validated request-creation input.
type CreateParams struct {
	BloodType blood.Type
	Units     int
	Urgency   id.Urgency
	City      string
	Location  geo.Point
	NeededBy  time.Time
	Notes     string
}

// Create opens a new blood request on behalf of the authenticated requester.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.BloodRequest, error) {
	requesterID := requestcontext.UserID(ctx)
	if requesterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if role := requestcontext.Role(ctx); role != "" && !role.CanRequest() && role != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only recipients can create blood requests")
	}

	now := requestcontext.Now(ctx)
	request, err := models.NewBloodRequest(id.NewRequestID(), requesterID,
		params.BloodType, params.Units, params.Urgency, params.NeededBy, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	update := models.Update{}
	if params.City != "" {
		update.City = &params.City
	}
	if params.Location.HasCoordinates() {
		update.Location = &params.Location
	}
	if params.Notes != "" {
		update.Notes = &params.Notes
	}
	if err := request.Apply(update, now); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}

	s.logAudit(ctx, "request.created",
		"blood_request_id", request.ID.String(),
		"blood_type", request.BloodType.String(),
		"urgency", request.Urgency.String(),
	)
	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}
	if s.alerter != nil && request.Urgency.MoreUrgentThan(id.UrgencyMedium) {
		s.alerter.AlertDonors(ctx, request)
	}
	return request, nil
}

// Get fetches a single request.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	return request, nil
}

// List returns requests matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*models.BloodRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	return requests, nil
}

// UpdateRequest merges requester-editable fields. Only the owner may update.
func (s *Service) UpdateRequest(ctx context.Context, requestID id.RequestID, update models.Update) (*models.BloodRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor := requestcontext.UserID(ctx); actor != request.RequesterID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requester can update this request")
	}

	if err := request.Apply(update, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request")
	}

	s.logAudit(ctx, "request.updated", "blood_request_id", request.ID.String())
	return request, nil
}

// Cancel soft-cancels a request. The owner or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	actor := requestcontext.UserID(ctx)
	if actor != request.RequesterID && requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requester or an admin can cancel this request")
	}

	if err := request.Transition(models.StatusCancelled, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel request")
	}

	s.logAudit(ctx, "request.cancelled",
		"blood_request_id", request.ID.String(),
		"actor_id", actor.String(),
	)
	return request, nil
}

// ApplyFulfillment recomputes the request status after donation completions.
// Called by the donation lifecycle, not exposed over HTTP.
func (s *Service) ApplyFulfillment(ctx context.Context, requestID id.RequestID, completedUnits int) (*models.BloodRequest, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	before := request.Status
	if err := request.RecordFulfilledUnits(completedUnits, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if request.Status == before {
		return request, nil
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request status")
	}

	s.logAudit(ctx, "request.fulfillment_updated",
		"blood_request_id", request.ID.String(),
		"status", request.Status.String(),
		"completed_units", completedUnits,
	)
	return request, nil
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
