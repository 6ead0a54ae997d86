package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/match/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/notify"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	requestmodels "github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// Search defaults applied when the caller leaves options zero-valued.
const (
	DefaultMaxDistanceKm = 50.0
	DefaultLimit         = 20
)

// DonorPool supplies the point-in-time donor snapshot a search runs over.
type DonorPool interface {
	ListAvailableDonors(ctx context.Context) ([]*usermodels.User, error)
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// RequestPool supplies the open-request snapshot and request lookups.
type RequestPool interface {
	FindByID(ctx context.Context, requestID id.RequestID) (*requestmodels.BloodRequest, error)
	ListOpen(ctx context.Context) ([]*requestmodels.BloodRequest, error)
}

// Service runs compatibility, availability, and distance filtering over
// snapshots and produces ranked match lists. Results are advisory: nothing
// is reserved, and concurrent status changes are not reflected.
type Service struct {
	donors   DonorPool
	requests RequestPool
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	maxDistanceKm float64
	limit         int
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

// WithDefaults overrides the search radius and result limit defaults.
func WithDefaults(maxDistanceKm float64, limit int) Option {
	return func(s *Service) {
		if maxDistanceKm > 0 {
			s.maxDistanceKm = maxDistanceKm
		}
		if limit > 0 {
			s.limit = limit
		}
	}
}

// New constructs a Service.
func New(donors DonorPool, requests RequestPool, opts ...Option) *Service {
	s := &Service{
		donors:        donors,
		requests:      requests,
		maxDistanceKm: DefaultMaxDistanceKm,
		limit:         DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchOptions tune a single search. Zero values fall back to the service
// defaults; Urgency narrows request searches only.
type SearchOptions struct {
	MaxDistanceKm float64
	Limit         int
	Urgency       id.Urgency
}

func (s *Service) resolve(opts SearchOptions) SearchOptions {
	if opts.MaxDistanceKm <= 0 {
		opts.MaxDistanceKm = s.maxDistanceKm
	}
	if opts.Limit <= 0 {
		opts.Limit = s.limit
	}
	return opts
}

// FindDonors returns the ranked, compatible, available donors for an open
// request.
func (s *Service) FindDonors(ctx context.Context, requestID id.RequestID, opts SearchOptions) (*models.DonorMatchResult, error) {
	opts = s.resolve(opts)

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if request.Status != requestmodels.StatusOpen {
		return nil, dErrors.Newf(dErrors.CodeRequestNotOpen, "request is %s", request.Status)
	}

	compatibleTypes, err := blood.CompatibleDonors(request.BloodType)
	if err != nil {
		return nil, err
	}
	compatible := make(map[blood.Type]bool, len(compatibleTypes))
	for _, t := range compatibleTypes {
		compatible[t] = true
	}

	pool, err := s.donors.ListAvailableDonors(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor pool")
	}

	type candidate struct {
		donor    *usermodels.User
		distance *float64
	}
	var candidates []candidate
	for _, donor := range pool {
		if !donor.Role.CanDonate() || !donor.IsAvailable || !compatible[donor.BloodType] {
			continue
		}
		distance := distanceBetween(request.Location, donor.Location)
		if request.Location.HasCoordinates() && distance != nil && *distance > opts.MaxDistanceKm {
			continue
		}
		candidates = append(candidates, candidate{donor: donor, distance: distance})
	}

	// Rank the full filtered pool, then truncate.
	if request.Location.HasCoordinates() {
		sort.SliceStable(candidates, func(i, j int) bool {
			return lessByDistance(candidates[i].distance, candidates[j].distance)
		})
	} else {
		// No request location: reward the longest-waiting donors.
		sort.SliceStable(candidates, func(i, j int) bool {
			return lessByLastDonation(candidates[i].donor.LastDonationDate, candidates[j].donor.LastDonationDate)
		})
	}

	total := len(candidates)
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	matches := make([]models.DonorMatch, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, models.DonorMatch{
			DonorID:          c.donor.ID,
			Name:             c.donor.Name,
			BloodType:        c.donor.BloodType,
			Phone:            c.donor.Phone,
			DistanceKm:       c.distance,
			LastDonationDate: c.donor.LastDonationDate,
		})
	}

	s.observeSearch(ctx, "donors", total)
	return &models.DonorMatchResult{
		RequestID:       request.ID,
		BloodType:       request.BloodType,
		CompatibleTypes: compatibleTypes,
		TotalMatches:    total,
		Donors:          matches,
	}, nil
}

// AlertDonors fans a newly opened urgent request out to its matching donors
// and returns how many were alerted. Delivery is best-effort: failures are
// logged and never block the request that triggered the alert.
func (s *Service) AlertDonors(ctx context.Context, request *requestmodels.BloodRequest) int {
	if s.notifier == nil {
		return 0
	}

	result, err := s.FindDonors(ctx, request.ID, SearchOptions{})
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "donor alert search failed",
				"blood_request_id", request.ID.String(),
				"error", err,
			)
		}
		return 0
	}

	now := requestcontext.Now(ctx)
	for _, donor := range result.Donors {
		s.notifier.MatchAlert(ctx, notify.MatchAlertEvent{
			DonorID:    donor.DonorID,
			RequestID:  request.ID,
			BloodType:  request.BloodType,
			Urgency:    request.Urgency,
			DistanceKm: donor.DistanceKm,
			OccurredAt: now,
		})
	}
	return len(result.Donors)
}

// FindRequests returns the ranked open requests a donor may fulfill, most
// urgent first.
func (s *Service) FindRequests(ctx context.Context, donorID id.UserID, opts SearchOptions) (*models.RequestMatchResult, error) {
	opts = s.resolve(opts)

	donor, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	if !donor.Role.CanDonate() {
		return nil, dErrors.New(dErrors.CodeNotADonor, "user is not a donor")
	}

	canDonateTo, err := blood.CompatibleRecipients(donor.BloodType)
	if err != nil {
		return nil, err
	}
	recipients := make(map[blood.Type]bool, len(canDonateTo))
	for _, t := range canDonateTo {
		recipients[t] = true
	}

	pool, err := s.requests.ListOpen(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load open requests")
	}

	today := requestcontext.Now(ctx).Truncate(24 * time.Hour)
	var matches []models.RequestMatch
	for _, request := range pool {
		if request.Status != requestmodels.StatusOpen || !recipients[request.BloodType] {
			continue
		}
		if request.NeededBy.Before(today) {
			continue
		}
		if opts.Urgency != "" && request.Urgency != opts.Urgency {
			continue
		}
		distance := distanceBetween(donor.Location, request.Location)
		if donor.Location.HasCoordinates() && distance != nil && *distance > opts.MaxDistanceKm {
			continue
		}
		matches = append(matches, models.RequestMatch{Request: request, DistanceKm: distance})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := matches[i].Request.Urgency.Rank(), matches[j].Request.Urgency.Rank()
		if ri != rj {
			return ri < rj
		}
		return lessByDistance(matches[i].DistanceKm, matches[j].DistanceKm)
	})

	total := len(matches)
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}

	s.observeSearch(ctx, "requests", total)
	return &models.RequestMatchResult{
		DonorBloodType: donor.BloodType,
		CanDonateTo:    canDonateTo,
		TotalMatches:   total,
		Requests:       matches,
	}, nil
}

// distanceBetween returns the rounded great-circle distance, or nil when
// either point has no coordinates.
func distanceBetween(a, b geo.Point) *float64 {
	d, ok := geo.DistanceKm(a, b)
	if !ok {
		return nil
	}
	rounded := geo.RoundKm(d)
	return &rounded
}

// lessByDistance orders ascending with nil distances last.
func lessByDistance(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// lessByLastDonation orders ascending with absent dates first (never-donated
// donors have waited the longest).
func lessByLastDonation(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}

func (s *Service) observeSearch(ctx context.Context, kind string, total int) {
	if s.metrics != nil {
		s.metrics.MatchSearches.WithLabelValues(kind).Inc()
		s.metrics.MatchCandidates.Observe(float64(total))
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "match search completed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"total_matches", total,
		)
	}
}
