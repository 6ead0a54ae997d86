// Package httputil provides shared helpers for JSON request decoding and
// response writing.
//
// Handlers stay thin: decode with DecodeAndPrepare, call the service, then
// finish with WriteJSON or WriteError. WriteError owns the mapping from domain
// error codes to HTTP statuses so no handler hand-rolls status codes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// maxBodyBytes caps request bodies to guard against oversized payloads.
const maxBodyBytes = 1 << 20 // 1 MiB

// Validatable is implemented by request DTOs that can validate themselves
// after decoding.
type Validatable interface {
	Validate() error
}

// errorResponse is the JSON error envelope.
// Description is omitted for internal errors so infrastructure details never
// leak to clients.
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Details     any    `json:"details,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures are
// unrecoverable at this point (headers already sent), so they are swallowed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates err into the JSON error envelope.
//
// Coded domain errors map to their HTTP status and expose their message;
// anything uncoded is treated as internal and its message is withheld.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: string(dErrors.CodeInternal)})
		return
	}

	resp := errorResponse{Error: string(de.Code)}
	if de.Code != dErrors.CodeInternal {
		resp.Description = de.Message
		resp.Details = de.Details
	}
	WriteJSON(w, StatusForCode(de.Code), resp)
}

// StatusForCode maps a domain error code to its HTTP status.
func StatusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest,
		dErrors.CodeInvalidBloodType, dErrors.CodeInvalidStatus:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeNotADonor:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeRequestNotOpen, dErrors.CodeDonorUnavailable,
		dErrors.CodeNotEligible, dErrors.CodeIncompatibleBloodType, dErrors.CodeDuplicateDonation:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes the request body into T and validates it. On
// failure it writes the error response, logs at debug, and returns ok=false;
// the handler should simply return.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	req := PT(new(T))

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		logger.DebugContext(ctx, "request decode failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body"))
		return nil, false
	}

	if err := req.Validate(); err != nil {
		logger.DebugContext(ctx, "request validation failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
