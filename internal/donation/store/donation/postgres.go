package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

// Postgres persists donations in PostgreSQL. The donations_request_donor_unique
// constraint backs CreateIfAbsent's atomicity.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donation store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const donationColumns = `
	id, request_id, donor_id, units, status, donation_date, notes,
	created_at, updated_at
`

func (s *Postgres) CreateIfAbsent(ctx context.Context, donation *models.Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id, donor_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(donation.ID), uuid.UUID(donation.RequestID), uuid.UUID(donation.DonorID),
		donation.Units, donation.Status.String(), donation.DonationDate, donation.Notes,
		donation.CreatedAt, donation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	donation, err := scanDonation(s.db.QueryRowContext(ctx, query, uuid.UUID(donationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find donation by id: %w", err)
	}
	return donation, nil
}

func (s *Postgres) Update(ctx context.Context, donation *models.Donation) error {
	query := `
		UPDATE donations SET
			units = $2, status = $3, donation_date = $4, notes = $5,
			updated_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(donation.ID), donation.Units, donation.Status.String(),
		donation.DonationDate, donation.Notes, donation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListForRequest(ctx context.Context, requestID id.RequestID) ([]*models.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE request_id = $1
		ORDER BY created_at ASC
	`
	return s.queryDonations(ctx, query, uuid.UUID(requestID))
}

func (s *Postgres) ListForDonor(ctx context.Context, donorID id.UserID, status models.Status) ([]*models.Donation, error) {
	if status != "" {
		query := `
			SELECT ` + donationColumns + `
			FROM donations
			WHERE donor_id = $1 AND status = $2
			ORDER BY created_at ASC
		`
		return s.queryDonations(ctx, query, uuid.UUID(donorID), status.String())
	}
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE donor_id = $1
		ORDER BY created_at ASC
	`
	return s.queryDonations(ctx, query, uuid.UUID(donorID))
}

func (s *Postgres) SumCompletedUnits(ctx context.Context, requestID id.RequestID) (int, error) {
	query := `
		SELECT COALESCE(SUM(units), 0)
		FROM donations
		WHERE request_id = $1 AND status = $2
	`
	var total int
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(requestID), models.StatusCompleted.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum completed units: %w", err)
	}
	return total, nil
}

func (s *Postgres) ListPendingForRequest(ctx context.Context, requestID id.RequestID) ([]*models.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE request_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	return s.queryDonations(ctx, query, uuid.UUID(requestID), models.StatusPending.String())
}

func (s *Postgres) ListSince(ctx context.Context, since time.Time) ([]*models.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`
	return s.queryDonations(ctx, query, since)
}

func (s *Postgres) queryDonations(ctx context.Context, query string, args ...any) ([]*models.Donation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var donations []*models.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("list donations: %w", err)
		}
		donations = append(donations, donation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*models.Donation, error) {
	var (
		d          models.Donation
		donationID uuid.UUID
		requestID  uuid.UUID
		donorID    uuid.UUID
		status     string
	)
	err := row.Scan(
		&donationID, &requestID, &donorID, &d.Units, &status,
		&d.DonationDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ID = id.DonationID(donationID)
	d.RequestID = id.RequestID(requestID)
	d.DonorID = id.UserID(donorID)
	d.Status = models.Status(status)
	return &d, nil
}
