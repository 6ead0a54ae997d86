// Package service implements the admin surface: system statistics, donation
// analytics, user management, and request cancellation with cascade.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	donationmodels "github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	requestmodels "github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	requestservice "github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

const (
	// DefaultAnalyticsWindowDays bounds the donation analytics lookback.
	DefaultAnalyticsWindowDays = 30
	MaxAnalyticsWindowDays     = 365

	DefaultPageSize = 50
	MaxPageSize     = 200

	topDonorCount = 10
)

// UserDirectory is the slice of the user store the admin surface needs.
type UserDirectory interface {
	List(ctx context.Context) ([]*usermodels.User, error)
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
	Update(ctx context.Context, user *usermodels.User) error
}

// RequestDirectory reads blood requests for stats and per-user activity.
type RequestDirectory interface {
	List(ctx context.Context, filter requestservice.Filter) ([]*requestmodels.BloodRequest, error)
}

// DonationDirectory reads donations for stats and analytics.
type DonationDirectory interface {
	ListSince(ctx context.Context, since time.Time) ([]*donationmodels.Donation, error)
	ListForDonor(ctx context.Context, donorID id.UserID, status donationmodels.Status) ([]*donationmodels.Donation, error)
}

// RequestCanceller cancels a blood request on behalf of an admin.
type RequestCanceller interface {
	Cancel(ctx context.Context, requestID id.RequestID) (*requestmodels.BloodRequest, error)
}

// DonationCanceller cascades cancellation over a request's pending donations.
type DonationCanceller interface {
	CancelPendingForRequest(ctx context.Context, requestID id.RequestID) (int, error)
}

// Service implements the admin operations. Every method requires the admin
// role; handlers additionally sit behind the role middleware.
type Service struct {
	users     UserDirectory
	requests  RequestDirectory
	donations DonationDirectory

	requestCanceller  RequestCanceller
	donationCanceller DonationCanceller

	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs an admin service.
func New(users UserDirectory, requests RequestDirectory, donations DonationDirectory,
	requestCanceller RequestCanceller, donationCanceller DonationCanceller, opts ...Option) *Service {
	s := &Service{
		users:             users,
		requests:          requests,
		donations:         donations,
		requestCanceller:  requestCanceller,
		donationCanceller: donationCanceller,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) requireAdmin(ctx context.Context) error {
	if requestcontext.UserID(ctx).IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

// SystemStats is the aggregate dashboard snapshot.
type SystemStats struct {
	Users       UserStats      `json:"users"`
	Requests    RequestStats   `json:"requests"`
	Donations   DonationStats  `json:"donations"`
	BloodTypes  map[string]int `json:"blood_type_distribution"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type UserStats struct {
	Total           int            `json:"total"`
	ByRole          map[string]int `json:"by_role"`
	AvailableDonors int            `json:"available_donors"`
}

type RequestStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByUrgency  map[string]int `json:"by_urgency"`
	OpenUnits  int            `json:"open_units_needed"`
	RecentWeek int            `json:"created_last_7_days"`
}

type DonationStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	CompletedUnits int            `json:"completed_units"`
	RecentWeek     int            `json:"created_last_7_days"`
}

// Stats loads the three snapshots in parallel and aggregates them.
func (s *Service) Stats(ctx context.Context) (*SystemStats, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	var (
		users     []*usermodels.User
		requests  []*requestmodels.BloodRequest
		donations []*donationmodels.Donation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		requests, err = s.requests.List(gctx, requestservice.Filter{})
		return err
	})
	g.Go(func() (err error) {
		donations, err = s.donations.ListSince(gctx, time.Time{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load system stats")
	}

	now := requestcontext.Now(ctx)
	weekAgo := now.AddDate(0, 0, -7)

	stats := &SystemStats{
		Users: UserStats{
			Total:  len(users),
			ByRole: make(map[string]int),
		},
		Requests: RequestStats{
			Total:     len(requests),
			ByStatus:  make(map[string]int),
			ByUrgency: make(map[string]int),
		},
		Donations: DonationStats{
			Total:    len(donations),
			ByStatus: make(map[string]int),
		},
		BloodTypes:  make(map[string]int),
		GeneratedAt: now,
	}

	for _, u := range users {
		stats.Users.ByRole[u.Role.String()]++
		stats.BloodTypes[u.BloodType.String()]++
		if u.Role.CanDonate() && u.IsAvailable {
			stats.Users.AvailableDonors++
		}
	}
	for _, r := range requests {
		stats.Requests.ByStatus[r.Status.String()]++
		stats.Requests.ByUrgency[r.Urgency.String()]++
		if r.Status == requestmodels.StatusOpen || r.Status == requestmodels.StatusPartiallyFulfilled {
			stats.Requests.OpenUnits += r.UnitsNeeded
		}
		if r.CreatedAt.After(weekAgo) {
			stats.Requests.RecentWeek++
		}
	}
	for _, d := range donations {
		stats.Donations.ByStatus[d.Status.String()]++
		if d.Status == donationmodels.StatusCompleted {
			stats.Donations.CompletedUnits += d.Units
		}
		if d.CreatedAt.After(weekAgo) {
			stats.Donations.RecentWeek++
		}
	}
	return stats, nil
}

// DonationAnalytics summarizes donation activity over a trailing window.
type DonationAnalytics struct {
	WindowDays  int            `json:"window_days"`
	Total       int            `json:"total"`
	Completed   int            `json:"completed"`
	ByBloodType map[string]int `json:"completed_by_blood_type"`
	Timeline    []DayCount     `json:"timeline"`
	TopDonors   []DonorRank    `json:"top_donors"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Units int    `json:"units"`
}

type DonorRank struct {
	DonorID   id.UserID `json:"donor_id"`
	Name      string    `json:"name"`
	BloodType string    `json:"blood_type"`
	Completed int       `json:"completed"`
	Units     int       `json:"units"`
}

// Analytics aggregates donations created within the last windowDays days.
func (s *Service) Analytics(ctx context.Context, windowDays int) (*DonationAnalytics, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = DefaultAnalyticsWindowDays
	}
	if windowDays > MaxAnalyticsWindowDays {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"window cannot exceed %d days", MaxAnalyticsWindowDays)
	}

	now := requestcontext.Now(ctx)
	since := now.AddDate(0, 0, -windowDays)

	var (
		donations []*donationmodels.Donation
		users     []*usermodels.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		donations, err = s.donations.ListSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.users.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load analytics")
	}

	byID := make(map[id.UserID]*usermodels.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	analytics := &DonationAnalytics{
		WindowDays:  windowDays,
		Total:       len(donations),
		ByBloodType: make(map[string]int),
	}
	days := make(map[string]*DayCount)
	perDonor := make(map[id.UserID]*DonorRank)

	for _, d := range donations {
		day := d.CreatedAt.Format("2006-01-02")
		bucket, ok := days[day]
		if !ok {
			bucket = &DayCount{Date: day}
			days[day] = bucket
		}
		bucket.Count++

		if d.Status != donationmodels.StatusCompleted {
			continue
		}
		analytics.Completed++
		bucket.Units += d.Units

		donor := byID[d.DonorID]
		if donor == nil {
			continue
		}
		analytics.ByBloodType[donor.BloodType.String()] += d.Units
		rank, ok := perDonor[d.DonorID]
		if !ok {
			rank = &DonorRank{
				DonorID:   donor.ID,
				Name:      donor.Name,
				BloodType: donor.BloodType.String(),
			}
			perDonor[d.DonorID] = rank
		}
		rank.Completed++
		rank.Units += d.Units
	}

	analytics.Timeline = make([]DayCount, 0, len(days))
	for _, bucket := range days {
		analytics.Timeline = append(analytics.Timeline, *bucket)
	}
	sort.Slice(analytics.Timeline, func(i, j int) bool {
		return analytics.Timeline[i].Date < analytics.Timeline[j].Date
	})

	analytics.TopDonors = make([]DonorRank, 0, len(perDonor))
	for _, rank := range perDonor {
		analytics.TopDonors = append(analytics.TopDonors, *rank)
	}
	sort.Slice(analytics.TopDonors, func(i, j int) bool {
		if analytics.TopDonors[i].Completed != analytics.TopDonors[j].Completed {
			return analytics.TopDonors[i].Completed > analytics.TopDonors[j].Completed
		}
		return analytics.TopDonors[i].DonorID.String() < analytics.TopDonors[j].DonorID.String()
	})
	if len(analytics.TopDonors) > topDonorCount {
		analytics.TopDonors = analytics.TopDonors[:topDonorCount]
	}
	return analytics, nil
}

// UserFilter selects accounts for the admin listing.
type UserFilter struct {
	Role          id.Role
	BloodType     string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users  []*usermodels.User `json:"users"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// ListUsers pages through accounts. Total counts the filtered set.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) (*UserPage, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}

	filtered := users[:0:0]
	for _, u := range users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.BloodType != "" && u.BloodType.String() != filter.BloodType {
			continue
		}
		if filter.AvailableOnly && !u.IsAvailable {
			continue
		}
		filtered = append(filtered, u)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	page := &UserPage{
		Total:  len(filtered),
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Users:  []*usermodels.User{},
	}
	if filter.Offset < len(filtered) {
		end := filter.Offset + filter.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page.Users = filtered[filter.Offset:end]
	}
	return page, nil
}

// DonationFilter narrows the admin donation listing.
type DonationFilter struct {
	Status donationmodels.Status
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// DonationPage is one page of the filtered donation listing, newest first.
type DonationPage struct {
	Donations []*donationmodels.Donation `json:"donations"`
	Total     int                        `json:"total"`
	Limit     int                        `json:"limit"`
	Offset    int                        `json:"offset"`
}

// ListDonations pages through donations filtered by status and creation
// window. Total counts the filtered set.
func (s *Service) ListDonations(ctx context.Context, filter DonationFilter) (*DonationPage, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, dErrors.New(dErrors.CodeValidation, "to_date must not precede from_date")
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	donations, err := s.donations.ListSince(ctx, filter.From)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}

	filtered := donations[:0:0]
	for _, d := range donations {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if !filter.To.IsZero() && d.CreatedAt.After(filter.To) {
			continue
		}
		filtered = append(filtered, d)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	page := &DonationPage{
		Total:     len(filtered),
		Limit:     filter.Limit,
		Offset:    filter.Offset,
		Donations: []*donationmodels.Donation{},
	}
	if filter.Offset < len(filtered) {
		end := filter.Offset + filter.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page.Donations = filtered[filter.Offset:end]
	}
	return page, nil
}

// UserActivity is the admin detail view of one account.
type UserActivity struct {
	User      *usermodels.User              `json:"user"`
	Donations []*donationmodels.Donation    `json:"donations"`
	Requests  []*requestmodels.BloodRequest `json:"requests"`
}

// GetUserActivity loads an account with its donations and requests.
func (s *Service) GetUserActivity(ctx context.Context, userID id.UserID) (*UserActivity, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	activity := &UserActivity{User: user}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		activity.Donations, err = s.donations.ListForDonor(gctx, userID, "")
		return err
	})
	g.Go(func() (err error) {
		activity.Requests, err = s.requests.List(gctx, requestservice.Filter{RequesterID: userID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user activity")
	}
	return activity, nil
}

// SetAvailability overrides a donor's availability flag.
func (s *Service) SetAvailability(ctx context.Context, userID id.UserID, available bool) (*usermodels.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.Role.CanDonate() {
		return nil, dErrors.New(dErrors.CodeNotADonor, "user is not registered as a donor")
	}

	user.IsAvailable = available
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.logAudit(ctx, "admin.availability_overridden",
		"user_id", userID.String(),
		"is_available", available,
	)
	return user, nil
}

// CancelResult reports an admin cancellation and its cascade.
type CancelResult struct {
	Request            *requestmodels.BloodRequest `json:"request"`
	CancelledDonations int                         `json:"cancelled_donations"`
}

// CancelRequest cancels a request and every pending donation attached to it.
// The cascade is silent: affected donors get no notification.
func (s *Service) CancelRequest(ctx context.Context, requestID id.RequestID) (*CancelResult, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	request, err := s.requestCanceller.Cancel(ctx, requestID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.donationCanceller.CancelPendingForRequest(ctx, requestID)
	if err != nil {
		// The request is already cancelled; report the partial cascade
		s.logger.ErrorContext(ctx, "donation cascade failed",
			"blood_request_id", requestID.String(),
			"error", err,
		)
	}

	s.logAudit(ctx, "admin.request_cancelled",
		"blood_request_id", requestID.String(),
		"cancelled_donations", cancelled,
	)
	return &CancelResult{Request: request, CancelledDonations: cancelled}, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	attributes = append(attributes,
		"actor_id", requestcontext.UserID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
		"event", event,
		"log_type", "audit",
	)
	s.logger.InfoContext(ctx, event, attributes...)
}
