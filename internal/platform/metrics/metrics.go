package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	UsersCreated    prometheus.Counter
	RequestsCreated prometheus.Counter
	Logins          *prometheus.CounterVec

	DonationsCreated     prometheus.Counter
	DonationTransitions  *prometheus.CounterVec
	EligibilityChecks    *prometheus.CounterVec
	MatchSearches        *prometheus.CounterVec
	MatchCandidates      prometheus.Histogram
	NotificationsSent    *prometheus.CounterVec
	NotificationFailures prometheus.Counter

	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_users_created_total",
			Help: "Total number of user accounts created",
		}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_blood_requests_created_total",
			Help: "Total number of blood requests created",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		DonationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donations_created_total",
			Help: "Total number of donation offers created",
		}),
		DonationTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_donation_transitions_total",
			Help: "Donation status transitions by target status",
		}, []string{"to_status"}),
		EligibilityChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_eligibility_checks_total",
			Help: "Eligibility evaluations by outcome",
		}, []string{"outcome"}),
		MatchSearches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_match_searches_total",
			Help: "Match searches by kind (donors or requests)",
		}, []string{"kind"}),
		MatchCandidates: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloodlink_match_candidates",
			Help:    "Number of candidates returned per match search, pre-limit",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_notifications_sent_total",
			Help: "Notifications published by kind",
		}, []string{"kind"}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_notification_failures_total",
			Help: "Notification publish failures (delivery is fire-and-forget)",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodlink_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
