package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/httputil"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// Service defines the interface for donation lifecycle operations.
type Service interface {
	ExpressInterest(ctx context.Context, requestID id.RequestID, units int, notes string) (*models.Donation, error)
	SetStatus(ctx context.Context, donationID id.DonationID, next models.Status, update models.StatusUpdate) (*models.Donation, error)
	ListForRequest(ctx context.Context, requestID id.RequestID) ([]*models.Donation, error)
	ListMine(ctx context.Context, status models.Status) ([]*models.Donation, error)
}

// Handler wires donation endpoints to the donation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a donation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the donation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests/{requestID}/donations", h.HandleExpressInterest)
	r.Get("/requests/{requestID}/donations", h.HandleListForRequest)
	r.Put("/donations/{donationID}/status", h.HandleSetStatus)
	r.Get("/donations/me", h.HandleListMine)
}

// HandleExpressInterest handles POST /requests/{requestID}/donations.
func (h *Handler) HandleExpressInterest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := requestcontext.RequestID(ctx)

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ExpressInterestRequest](w, r, h.logger, ctx, traceID)
	if !ok {
		return
	}

	donation, err := h.service.ExpressInterest(ctx, requestID, req.units(), req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "donation offer failed",
			"request_id", traceID,
			"blood_request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, donation)
}

// HandleListForRequest handles GET /requests/{requestID}/donations.
func (h *Handler) HandleListForRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	donations, err := h.service.ListForRequest(ctx, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Donations: donations,
		Count:     len(donations),
	})
}

// HandleSetStatus handles PUT /donations/{donationID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := requestcontext.RequestID(ctx)

	donationID, err := id.ParseDonationID(chi.URLParam(r, "donationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, traceID)
	if !ok {
		return
	}

	updated, err := h.service.SetStatus(ctx, donationID, req.status, req.Update())
	if err != nil {
		h.logger.ErrorContext(ctx, "donation status change failed",
			"request_id", traceID,
			"donation_id", donationID,
			"to_status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleListMine handles GET /donations/me with an optional status filter.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var status models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}

	donations, err := h.service.ListMine(ctx, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Donations: donations,
		Count:     len(donations),
	})
}
