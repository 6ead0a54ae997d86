package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SashiniHimaya/blood-donation-system/internal/auth/secrets"
	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	donationmodels "github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/eligibility"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// UserStore is the persistence port for user accounts.
type UserStore interface {
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]*models.User, error)
}

// DonationLog reads a donor's donation rows for the history summary attached
// to eligibility checks.
type DonationLog interface {
	ListForDonor(ctx context.Context, donorID id.UserID, status donationmodels.Status) ([]*donationmodels.Donation, error)
}

// Service orchestrates account registration and profile management.
type Service struct {
	users     UserStore
	donations DonationLog
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

// WithDonationHistory attaches the donation log consulted by eligibility
// checks. Without it the history summary stays empty.
func WithDonationHistory(donations DonationLog) Option {
	return func(s *Service) {
		s.donations = donations
	}
}

// New constructs a Service.
func New(users UserStore, opts ...Option) *Service {
	s := &Service{users: users}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries validated registration input.
type RegisterParams struct {
	Name      string
	Email     string
	Password  string
	Role      id.Role
	BloodType blood.Type
	Phone     string
	Location  geo.Point
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	hash, err := secrets.Hash(params.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	// Use constructor which validates invariants
	user, err := models.NewUser(id.NewUserID(), params.Name, params.Email, hash,
		params.Role, params.BloodType, params.Location, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	user.Phone = params.Phone

	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, "user.registered",
		"user_id", user.ID.String(),
		"role", user.Role.String(),
	)
	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	return user, nil
}

// GetUser fetches a single account.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// ListUsers returns every account. Admin surface only.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// UpdateProfile merges donor-editable profile fields and persists the result.
// Only the account owner may update their profile.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, update models.ProfileUpdate) (*models.User, error) {
	if actor := requestcontext.UserID(ctx); !actor.IsNil() && actor != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot update another user's profile")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Apply(update, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.logAudit(ctx, "user.profile_updated", "user_id", user.ID.String())
	return user, nil
}

// UpdateHealthInfo merges medical fields and returns the refreshed
// eligibility report alongside the profile.
func (s *Service) UpdateHealthInfo(ctx context.Context, userID id.UserID, update models.HealthUpdate) (*models.User, *eligibility.Status, error) {
	if actor := requestcontext.UserID(ctx); !actor.IsNil() && actor != userID {
		return nil, nil, dErrors.New(dErrors.CodeForbidden, "cannot update another user's health info")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsDonor() {
		return nil, nil, dErrors.New(dErrors.CodeNotADonor, "only donors track health info")
	}

	now := requestcontext.Now(ctx)
	if err := user.ApplyHealth(update, now); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	status := eligibility.Evaluate(user.EligibilityProfile(), now)
	s.logAudit(ctx, "user.health_updated",
		"user_id", user.ID.String(),
		"eligible", status.Eligible,
	)
	return user, &status, nil
}

// DonationHistory summarizes a donor's past donations.
type DonationHistory struct {
	TotalDonations     int        `json:"total_donations"`
	CompletedDonations int        `json:"completed_donations"`
	LastCompleted      *time.Time `json:"last_completed_donation,omitempty"`
}

// EligibilityReport pairs the eligibility evaluation with the donor's
// donation history.
type EligibilityReport struct {
	Eligibility eligibility.Status `json:"eligibility"`
	History     DonationHistory    `json:"donation_history"`
}

// CheckEligibility evaluates the donor's current eligibility without
// mutating anything.
func (s *Service) CheckEligibility(ctx context.Context, userID id.UserID) (*EligibilityReport, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsDonor() {
		return nil, dErrors.New(dErrors.CodeNotADonor, "user is not a donor")
	}

	status := eligibility.Evaluate(user.EligibilityProfile(), requestcontext.Now(ctx))
	if s.metrics != nil {
		outcome := "eligible"
		if !status.Eligible {
			outcome = "ineligible"
		}
		s.metrics.EligibilityChecks.WithLabelValues(outcome).Inc()
	}

	history, err := s.donationHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &EligibilityReport{Eligibility: status, History: history}, nil
}

func (s *Service) donationHistory(ctx context.Context, donorID id.UserID) (DonationHistory, error) {
	var history DonationHistory
	if s.donations == nil {
		return history, nil
	}

	donations, err := s.donations.ListForDonor(ctx, donorID, "")
	if err != nil {
		return history, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation history")
	}
	history.TotalDonations = len(donations)
	for _, d := range donations {
		if d.Status != donationmodels.StatusCompleted {
			continue
		}
		history.CompletedDonations++
		if d.DonationDate == nil {
			continue
		}
		if history.LastCompleted == nil || d.DonationDate.After(*history.LastCompleted) {
			history.LastCompleted = d.DonationDate
		}
	}
	return history, nil
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
