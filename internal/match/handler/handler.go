package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SashiniHimaya/blood-donation-system/internal/match/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/match/service"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/httputil"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

const maxLimit = 100

// Service defines the interface for match searches.
type Service interface {
	FindDonors(ctx context.Context, requestID id.RequestID, opts service.SearchOptions) (*models.DonorMatchResult, error)
	FindRequests(ctx context.Context, donorID id.UserID, opts service.SearchOptions) (*models.RequestMatchResult, error)
}

// Handler wires match endpoints to the match service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a match handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterPublic mounts the donor search, which needs no authentication.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/requests/{requestID}/donors", h.HandleFindDonors)
}

// Register mounts the authenticated donor-facing search.
func (h *Handler) Register(r chi.Router) {
	r.Get("/matches/requests", h.HandleFindRequests)
}

// HandleFindDonors handles GET /requests/{requestID}/donors.
func (h *Handler) HandleFindDonors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := requestcontext.RequestID(ctx)

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	opts, err := optionsFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.FindDonors(ctx, requestID, opts)
	if err != nil {
		h.logger.ErrorContext(ctx, "donor search failed",
			"request_id", traceID,
			"blood_request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleFindRequests handles GET /matches/requests for the authenticated
// donor.
func (h *Handler) HandleFindRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := requestcontext.RequestID(ctx)

	donorID := requestcontext.UserID(ctx)
	if donorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	opts, err := optionsFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.FindRequests(ctx, donorID, opts)
	if err != nil {
		h.logger.ErrorContext(ctx, "request search failed",
			"request_id", traceID,
			"donor_id", donorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// optionsFromQuery parses the shared search tuning parameters.
func optionsFromQuery(values url.Values) (service.SearchOptions, error) {
	var opts service.SearchOptions

	if v := values.Get("max_distance_km"); v != "" {
		distance, err := strconv.ParseFloat(v, 64)
		if err != nil || distance <= 0 {
			return opts, dErrors.New(dErrors.CodeValidation, "max_distance_km must be a positive number")
		}
		opts.MaxDistanceKm = distance
	}
	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return opts, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		opts.Limit = limit
	}
	if v := values.Get("urgency"); v != "" {
		urgency, err := id.ParseUrgency(v)
		if err != nil {
			return opts, err
		}
		opts.Urgency = urgency
	}
	return opts, nil
}
