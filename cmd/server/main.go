// Command server assembles the blood donation API: stores, services,
// handlers, and the HTTP lifecycle. Business logic lives in the internal
// service packages; main only wires.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	adminhandler "github.com/SashiniHimaya/blood-donation-system/internal/admin/handler"
	adminservice "github.com/SashiniHimaya/blood-donation-system/internal/admin/service"
	authhandler "github.com/SashiniHimaya/blood-donation-system/internal/auth/handler"
	authservice "github.com/SashiniHimaya/blood-donation-system/internal/auth/service"
	sessionstore "github.com/SashiniHimaya/blood-donation-system/internal/auth/store/session"
	donationhandler "github.com/SashiniHimaya/blood-donation-system/internal/donation/handler"
	donationmodels "github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	donationservice "github.com/SashiniHimaya/blood-donation-system/internal/donation/service"
	donationstore "github.com/SashiniHimaya/blood-donation-system/internal/donation/store/donation"
	jwttoken "github.com/SashiniHimaya/blood-donation-system/internal/jwt_token"
	matchhandler "github.com/SashiniHimaya/blood-donation-system/internal/match/handler"
	matchservice "github.com/SashiniHimaya/blood-donation-system/internal/match/service"
	"github.com/SashiniHimaya/blood-donation-system/internal/notify"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/config"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/httpserver"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/logger"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/postgres"
	platformredis "github.com/SashiniHimaya/blood-donation-system/internal/platform/redis"
	requesthandler "github.com/SashiniHimaya/blood-donation-system/internal/request/handler"
	requestservice "github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	requeststore "github.com/SashiniHimaya/blood-donation-system/internal/request/store/request"
	httptransport "github.com/SashiniHimaya/blood-donation-system/internal/transport/http"
	userhandler "github.com/SashiniHimaya/blood-donation-system/internal/user/handler"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	userservice "github.com/SashiniHimaya/blood-donation-system/internal/user/service"
	userstore "github.com/SashiniHimaya/blood-donation-system/internal/user/store/user"
	"github.com/SashiniHimaya/blood-donation-system/migrations"
)

// userBackend and donationBackend extend the core store interfaces with the
// extra reads the match and admin surfaces need, so one concrete store serves
// every consumer.
type userBackend interface {
	userservice.UserStore
	ListAvailableDonors(ctx context.Context) ([]*usermodels.User, error)
}

type donationBackend interface {
	donationservice.DonationStore
	ListSince(ctx context.Context, since time.Time) ([]*donationmodels.Donation, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	// Postgres is optional: without DATABASE_URL every store runs in memory,
	// which is how local development works.
	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.Postgres.URL,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}

	var (
		users     userBackend
		requests  requestservice.RequestStore
		donations donationBackend
	)
	if db != nil {
		defer db.Close()
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
		users = userstore.NewPostgres(db)
		requests = requeststore.NewPostgres(db)
		donations = donationstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		users = userstore.NewInMemory()
		requests = requeststore.NewInMemory()
		donations = donationstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var sessions authservice.SessionStore
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessions = sessionstore.NewInMemory()
		log.Warn("REDIS_URL not set, using in-memory session store")
	}

	var notifier notify.Notifier
	if cfg.Kafka.Brokers != "" {
		publisher, err := notify.NewKafkaPublisher(ctx,
			strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic, log,
			notify.WithKafkaMetrics(m))
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifier = publisher
		log.Info("publishing notifications to kafka", "topic", cfg.Kafka.Topic)
	} else {
		notifier = notify.NewLogNotifier(log)
		log.Warn("KAFKA_BROKERS not set, notifications go to the log")
	}

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, "bloodlink", "bloodlink-api")

	userSvc := userservice.New(users,
		userservice.WithLogger(log), userservice.WithMetrics(m),
		userservice.WithDonationHistory(donations))
	authSvc := authservice.New(sessions, users, tokens,
		authservice.WithLogger(log), authservice.WithMetrics(m),
		authservice.WithSessionTTL(cfg.Auth.SessionTTL))
	matchSvc := matchservice.New(users, requests,
		matchservice.WithLogger(log), matchservice.WithMetrics(m),
		matchservice.WithNotifier(notifier),
		matchservice.WithDefaults(cfg.Match.MaxDistanceKm, cfg.Match.Limit))
	requestSvc := requestservice.New(requests,
		requestservice.WithLogger(log), requestservice.WithMetrics(m),
		requestservice.WithAlerter(matchSvc))
	donationSvc := donationservice.New(donations, users, requests,
		donationservice.WithLogger(log), donationservice.WithMetrics(m),
		donationservice.WithNotifier(notifier))
	adminSvc := adminservice.New(users, requests, donations,
		requestSvc, donationSvc, adminservice.WithLogger(log))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		Sessions:  authSvc,
		Users:     userhandler.New(userSvc, log),
		Auth:      authhandler.New(authSvc, log),
		Requests:  requesthandler.New(requestSvc, log),
		Donations: donationhandler.New(donationSvc, log),
		Matches:   matchhandler.New(matchSvc, log),
		Admin:     adminhandler.New(adminSvc, log),
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting server", "addr", cfg.Server.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	return g.Wait()
}
