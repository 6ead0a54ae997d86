// Package handler exposes the admin endpoints. All routes are mounted behind
// the admin role middleware.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SashiniHimaya/blood-donation-system/internal/admin/service"
	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	donationmodels "github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/httputil"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// Service defines the interface for admin operations.
type Service interface {
	Stats(ctx context.Context) (*service.SystemStats, error)
	Analytics(ctx context.Context, windowDays int) (*service.DonationAnalytics, error)
	ListUsers(ctx context.Context, filter service.UserFilter) (*service.UserPage, error)
	ListDonations(ctx context.Context, filter service.DonationFilter) (*service.DonationPage, error)
	GetUserActivity(ctx context.Context, userID id.UserID) (*service.UserActivity, error)
	SetAvailability(ctx context.Context, userID id.UserID, available bool) (*usermodels.User, error)
	CancelRequest(ctx context.Context, requestID id.RequestID) (*service.CancelResult, error)
}

// Handler wires admin endpoints to the admin service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admin handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/stats", h.HandleStats)
	r.Get("/admin/analytics/donations", h.HandleAnalytics)
	r.Get("/admin/users", h.HandleListUsers)
	r.Get("/admin/donations", h.HandleListDonations)
	r.Get("/admin/users/{userID}", h.HandleGetUser)
	r.Put("/admin/users/{userID}/availability", h.HandleSetAvailability)
	r.Delete("/admin/requests/{requestID}", h.HandleCancelRequest)
}

// HandleStats handles GET /admin/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleAnalytics handles GET /admin/analytics/donations with an optional
// days window.
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	var days int
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "days must be a positive integer"))
			return
		}
		days = parsed
	}

	analytics, err := h.service.Analytics(r.Context(), days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analytics)
}

// HandleListUsers handles GET /admin/users with filters and pagination.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	filter, err := userFilterFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleListDonations handles GET /admin/donations with status, date-window,
// and pagination query parameters.
func (h *Handler) HandleListDonations(w http.ResponseWriter, r *http.Request) {
	filter, err := donationFilterFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.ListDonations(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleGetUser handles GET /admin/users/{userID}.
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	activity, err := h.service.GetUserActivity(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, activity)
}

// AvailabilityRequest is the HTTP request body for the availability override.
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

// Validate validates the request.
func (r *AvailabilityRequest) Validate() error {
	if r == nil || r.IsAvailable == nil {
		return dErrors.New(dErrors.CodeValidation, "is_available is required")
	}
	return nil
}

// HandleSetAvailability handles PUT /admin/users/{userID}/availability.
func (h *Handler) HandleSetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AvailabilityRequest](w, r, h.logger, ctx, traceID)
	if !ok {
		return
	}

	user, err := h.service.SetAvailability(ctx, userID, *req.IsAvailable)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleCancelRequest handles DELETE /admin/requests/{requestID}, cancelling
// the request and cascading over its pending donations.
func (h *Handler) HandleCancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CancelRequest(ctx, requestID)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin cancellation failed",
			"request_id", requestcontext.RequestID(ctx),
			"blood_request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// userFilterFromQuery builds a typed filter from the listing query string.
func userFilterFromQuery(values url.Values) (service.UserFilter, error) {
	var filter service.UserFilter

	if v := values.Get("role"); v != "" {
		role, err := id.ParseRole(v)
		if err != nil {
			return service.UserFilter{}, err
		}
		filter.Role = role
	}
	if v := values.Get("blood_type"); v != "" {
		bloodType, err := blood.ParseType(v)
		if err != nil {
			return service.UserFilter{}, err
		}
		filter.BloodType = bloodType.String()
	}
	filter.AvailableOnly = values.Get("available") == "true"

	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return service.UserFilter{}, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	if v := values.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return service.UserFilter{}, dErrors.New(dErrors.CodeValidation, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}

// donationFilterFromQuery builds a typed filter from the donation listing
// query string. Dates are YYYY-MM-DD; to_date bounds the creation timestamp
// at that day's midnight.
func donationFilterFromQuery(values url.Values) (service.DonationFilter, error) {
	var filter service.DonationFilter

	if v := values.Get("status"); v != "" {
		status, err := donationmodels.ParseStatus(v)
		if err != nil {
			return service.DonationFilter{}, err
		}
		filter.Status = status
	}
	if v := values.Get("from_date"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return service.DonationFilter{}, dErrors.New(dErrors.CodeValidation, "from_date must be YYYY-MM-DD")
		}
		filter.From = from
	}
	if v := values.Get("to_date"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return service.DonationFilter{}, dErrors.New(dErrors.CodeValidation, "to_date must be YYYY-MM-DD")
		}
		filter.To = to
	}

	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return service.DonationFilter{}, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	if v := values.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return service.DonationFilter{}, dErrors.New(dErrors.CodeValidation, "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}
