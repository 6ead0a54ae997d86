package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminhandler "github.com/SashiniHimaya/blood-donation-system/internal/admin/handler"
	adminservice "github.com/SashiniHimaya/blood-donation-system/internal/admin/service"
	authhandler "github.com/SashiniHimaya/blood-donation-system/internal/auth/handler"
	authservice "github.com/SashiniHimaya/blood-donation-system/internal/auth/service"
	sessionstore "github.com/SashiniHimaya/blood-donation-system/internal/auth/store/session"
	donationhandler "github.com/SashiniHimaya/blood-donation-system/internal/donation/handler"
	donationservice "github.com/SashiniHimaya/blood-donation-system/internal/donation/service"
	donationstore "github.com/SashiniHimaya/blood-donation-system/internal/donation/store/donation"
	jwttoken "github.com/SashiniHimaya/blood-donation-system/internal/jwt_token"
	matchhandler "github.com/SashiniHimaya/blood-donation-system/internal/match/handler"
	matchservice "github.com/SashiniHimaya/blood-donation-system/internal/match/service"
	requesthandler "github.com/SashiniHimaya/blood-donation-system/internal/request/handler"
	requestservice "github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	requeststore "github.com/SashiniHimaya/blood-donation-system/internal/request/store/request"
	userhandler "github.com/SashiniHimaya/blood-donation-system/internal/user/handler"
	userservice "github.com/SashiniHimaya/blood-donation-system/internal/user/service"
	userstore "github.com/SashiniHimaya/blood-donation-system/internal/user/store/user"
)

// newTestRouter assembles the whole stack on in-memory stores, the same way
// main does against real backends.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := userstore.NewInMemory()
	requests := requeststore.NewInMemory()
	donations := donationstore.NewInMemory()
	sessions := sessionstore.NewInMemory()

	tokens := jwttoken.NewJWTService("router-test-key", "bloodlink", "bloodlink-api")

	userSvc := userservice.New(users, userservice.WithLogger(logger),
		userservice.WithDonationHistory(donations))
	authSvc := authservice.New(sessions, users, tokens, authservice.WithLogger(logger))
	requestSvc := requestservice.New(requests, requestservice.WithLogger(logger))
	donationSvc := donationservice.New(donations, users, requests,
		donationservice.WithLogger(logger))
	matchSvc := matchservice.New(users, requests, matchservice.WithLogger(logger))
	adminSvc := adminservice.New(users, requests, donations,
		requestSvc, donationSvc, adminservice.WithLogger(logger))

	return NewRouter(Deps{
		Logger:    logger,
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		Sessions:  authSvc,
		Users:     userhandler.New(userSvc, logger),
		Auth:      authhandler.New(authSvc, logger),
		Requests:  requesthandler.New(requestSvc, logger),
		Donations: donationhandler.New(donationSvc, logger),
		Matches:   matchhandler.New(matchSvc, logger),
		Admin:     adminhandler.New(adminSvc, logger),
	})
}

func postJSON(t *testing.T, router http.Handler, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := postJSON(t, router, "/users/register", "", map[string]any{
		"name":       "Router Donor",
		"email":      "router-donor@example.com",
		"password":   "hunter2hunter2",
		"role":       "donor",
		"blood_type": "O-",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register: %s", rec.Body.String())

	rec = postJSON(t, router, "/auth/login", "", map[string]any{
		"email":    "router-donor@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code, "login: %s", rec.Body.String())

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := get(router, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(router, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticationChain(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router)

	rec := get(router, "/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(router, "/users/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(router, "/users/me", token)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var profile struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, "router-donor@example.com", profile.Email)
}

func TestLogoutRevokesAccess(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router)

	rec := postJSON(t, router, "/auth/logout", token, map[string]any{})
	require.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())

	// The JWT is still well-formed but its session is gone.
	rec = get(router, "/users/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router)

	rec := get(router, "/admin/stats", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(router, "/admin/stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
