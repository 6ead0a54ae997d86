package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notification events to the log. Used in development
// and when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) DonorOffered(ctx context.Context, event DonorOfferedEvent) {
	n.logger.InfoContext(ctx, "notification",
		"kind", KindDonorOffered,
		"blood_request_id", event.RequestID.String(),
		"donor_id", event.DonorID.String(),
		"units", event.Units,
	)
}

func (n *LogNotifier) DonationStatusChanged(ctx context.Context, event StatusChangedEvent) {
	n.logger.InfoContext(ctx, "notification",
		"kind", KindStatusChanged,
		"donation_id", event.DonationID.String(),
		"status", event.Status,
	)
}

func (n *LogNotifier) MatchAlert(ctx context.Context, event MatchAlertEvent) {
	n.logger.InfoContext(ctx, "notification",
		"kind", KindMatchAlert,
		"blood_request_id", event.RequestID.String(),
		"donor_id", event.DonorID.String(),
		"urgency", event.Urgency.String(),
	)
}
