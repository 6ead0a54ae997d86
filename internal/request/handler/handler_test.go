package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/store/request"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/testutil"
)

func newRequestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := request.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store, service.WithLogger(logger))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func createRequest(t *testing.T, router http.Handler, requesterID string, payload map[string]any) map[string]any {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req = testutil.WithAuth(req, requesterID, "recipient")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, "create failed: %s", rec.Body.String())

	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	return created
}

func validPayload() map[string]any {
	return map[string]any{
		"blood_type":   "A+",
		"units_needed": 2,
		"urgency":      "high",
		"city":         "Colombo",
		"needed_by":    time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}
}

func TestCreateRequest(t *testing.T) {
	router := newRequestRouter(t)
	requesterID := id.NewUserID().String()

	created := createRequest(t, router, requesterID, validPayload())
	assert.Equal(t, "A+", created["blood_type"])
	assert.Equal(t, "open", created["status"])
	assert.Equal(t, requesterID, created["requester_id"])
}

func TestCreateRequestValidation(t *testing.T) {
	router := newRequestRouter(t)
	requesterID := id.NewUserID().String()

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{"bad blood type", func(p map[string]any) { p["blood_type"] = "Z+" }, http.StatusBadRequest},
		{"zero units", func(p map[string]any) { p["units_needed"] = 0 }, http.StatusBadRequest},
		{"bad urgency", func(p map[string]any) { p["urgency"] = "whenever" }, http.StatusBadRequest},
		{"past needed_by", func(p map[string]any) { p["needed_by"] = "2001-01-01" }, http.StatusBadRequest},
		{"malformed needed_by", func(p map[string]any) { p["needed_by"] = "soon" }, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			tc.mutate(payload)
			body, _ := json.Marshal(payload)
			req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
			req = testutil.WithAuth(req, requesterID, "recipient")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code, "body: %s", rec.Body.String())
		})
	}
}

func TestCreateRequestRoleGate(t *testing.T) {
	router := newRequestRouter(t)

	body, _ := json.Marshal(validPayload())
	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req = testutil.WithAuth(req, id.NewUserID().String(), "donor")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListWithFilters(t *testing.T) {
	router := newRequestRouter(t)
	requesterID := id.NewUserID().String()

	createRequest(t, router, requesterID, validPayload())
	critical := validPayload()
	critical["blood_type"] = "O-"
	critical["urgency"] = "critical"
	createRequest(t, router, requesterID, critical)

	req := httptest.NewRequest(http.MethodGet, "/requests?urgency=critical", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "O-", resp.Requests[0].BloodType.String())

	badReq := httptest.NewRequest(http.MethodGet, "/requests?status=expired", nil)
	badRec := httptest.NewRecorder()
	router.ServeHTTP(badRec, badReq)
	assert.Equal(t, http.StatusBadRequest, badRec.Code)
}

func TestUpdateOwnership(t *testing.T) {
	router := newRequestRouter(t)
	ownerID := id.NewUserID().String()
	created := createRequest(t, router, ownerID, validPayload())
	requestID := created["id"].(string)

	body, _ := json.Marshal(map[string]any{"urgency": "critical"})

	// A stranger cannot update
	req := httptest.NewRequest(http.MethodPut, "/requests/"+requestID, bytes.NewReader(body))
	req = testutil.WithAuth(req, id.NewUserID().String(), "recipient")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owner can
	req = httptest.NewRequest(http.MethodPut, "/requests/"+requestID, bytes.NewReader(body))
	req = testutil.WithAuth(req, ownerID, "recipient")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "critical", updated["urgency"])
}

func TestCancelIsSoft(t *testing.T) {
	router := newRequestRouter(t)
	ownerID := id.NewUserID().String()
	created := createRequest(t, router, ownerID, validPayload())
	requestID := created["id"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/requests/"+requestID, nil)
	req = testutil.WithAuth(req, ownerID, "recipient")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Still fetchable, just cancelled
	getReq := httptest.NewRequest(http.MethodGet, "/requests/"+requestID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var fetched map[string]any
	require.NoError(t, json.NewDecoder(getRec.Body).Decode(&fetched))
	assert.Equal(t, "cancelled", fetched["status"])

	// Cancelling twice conflicts
	again := httptest.NewRequest(http.MethodDelete, "/requests/"+requestID, nil)
	again = testutil.WithAuth(again, ownerID, "recipient")
	againRec := httptest.NewRecorder()
	router.ServeHTTP(againRec, again)
	assert.Equal(t, http.StatusConflict, againRec.Code)
}

func TestAdminCanCancel(t *testing.T) {
	router := newRequestRouter(t)
	ownerID := id.NewUserID().String()
	created := createRequest(t, router, ownerID, validPayload())
	requestID := created["id"].(string)

	req := httptest.NewRequest(http.MethodDelete, "/requests/"+requestID, nil)
	req = testutil.WithAuth(req, id.NewUserID().String(), "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
