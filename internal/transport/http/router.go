// Package httptransport assembles the HTTP surface: middleware chain, route
// groups, and operational endpoints. Handlers stay thin; everything here is
// wiring.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "github.com/SashiniHimaya/blood-donation-system/internal/admin/handler"
	authhandler "github.com/SashiniHimaya/blood-donation-system/internal/auth/handler"
	donationhandler "github.com/SashiniHimaya/blood-donation-system/internal/donation/handler"
	matchhandler "github.com/SashiniHimaya/blood-donation-system/internal/match/handler"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/middleware"
	requesthandler "github.com/SashiniHimaya/blood-donation-system/internal/request/handler"
	userhandler "github.com/SashiniHimaya/blood-donation-system/internal/user/handler"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/httputil"
)

// Deps carries everything the router mounts. Metrics and Sessions are
// optional; when Sessions is nil revocation checks are skipped, which only
// happens in tests.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Validator middleware.JWTValidator
	Sessions  middleware.SessionChecker

	Users     *userhandler.Handler
	Auth      *authhandler.Handler
	Requests  *requesthandler.Handler
	Donations *donationhandler.Handler
	Matches   *matchhandler.Handler
	Admin     *adminhandler.Handler
}

// NewRouter builds the full route tree.
//
// Three groups share one middleware spine (request id, client metadata,
// metrics): public routes, authenticated routes behind JWT validation plus
// session revocation, and admin routes behind the role gate.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public: account registration, login, donor search.
	r.Group(func(r chi.Router) {
		deps.Users.RegisterPublic(r)
		deps.Auth.RegisterPublic(r)
		deps.Matches.RegisterPublic(r)
	})

	// Authenticated.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		if deps.Sessions != nil {
			r.Use(middleware.RequireActiveSession(deps.Sessions, deps.Logger))
		}

		deps.Users.Register(r)
		deps.Auth.Register(r)
		deps.Requests.Register(r)
		deps.Donations.Register(r)
		deps.Matches.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Logger, id.RoleAdmin))
			deps.Admin.Register(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
