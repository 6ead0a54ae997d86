package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/httputil"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// Service defines the interface for blood request operations.
type Service interface {
	Create(ctx context.Context, params service.CreateParams) (*models.BloodRequest, error)
	Get(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error)
	List(ctx context.Context, filter service.Filter) ([]*models.BloodRequest, error)
	UpdateRequest(ctx context.Context, requestID id.RequestID, update models.Update) (*models.BloodRequest, error)
	Cancel(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error)
}

// Handler wires blood request endpoints to the request service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a request handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the request endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.HandleCreate)
	r.Get("/requests", h.HandleList)
	r.Get("/requests/{requestID}", h.HandleGet)
	r.Put("/requests/{requestID}", h.HandleUpdate)
	r.Delete("/requests/{requestID}", h.HandleCancel)
}

// HandleCreate handles POST /requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "request creation failed",
			"request_id", requestID,
			"blood_type", req.BloodType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleList handles GET /requests with optional query filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	requests, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Requests: requests,
		Count:    len(requests),
	})
}

// HandleGet handles GET /requests/{requestID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.Get(ctx, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

// HandleUpdate handles PUT /requests/{requestID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := requestcontext.RequestID(ctx)

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, traceID)
	if !ok {
		return
	}

	updated, err := h.service.UpdateRequest(ctx, requestID, req.Update())
	if err != nil {
		h.logger.ErrorContext(ctx, "request update failed",
			"request_id", traceID,
			"blood_request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// HandleCancel handles DELETE /requests/{requestID}. Cancellation is a soft
// status change, never a row delete.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cancelled, err := h.service.Cancel(ctx, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cancelled)
}
