package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

// Postgres persists blood requests in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const requestColumns = `
	id, requester_id, blood_type, units_needed, urgency, city,
	latitude, longitude, needed_by, status, notes, created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, request *models.BloodRequest) error {
	query := `
		INSERT INTO blood_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(request.ID), uuid.UUID(request.RequesterID),
		request.BloodType.String(), request.UnitsNeeded, request.Urgency.String(),
		request.City, request.Location.Latitude, request.Location.Longitude,
		request.NeededBy, request.Status.String(), request.Notes,
		request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`
	request, err := scanRequest(s.db.QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return request, nil
}

func (s *Postgres) Update(ctx context.Context, request *models.BloodRequest) error {
	query := `
		UPDATE blood_requests SET
			units_needed = $2, urgency = $3, city = $4, latitude = $5,
			longitude = $6, needed_by = $7, status = $8, notes = $9,
			updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(request.ID), request.UnitsNeeded, request.Urgency.String(),
		request.City, request.Location.Latitude, request.Location.Longitude,
		request.NeededBy, request.Status.String(), request.Notes,
		request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List translates the typed filter into a parameterized query. Filter fields
// become numbered placeholders; values never enter the query text.
func (s *Postgres) List(ctx context.Context, filter service.Filter) ([]*models.BloodRequest, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, clause+" $"+strconv.Itoa(len(args)))
	}

	if filter.BloodType != "" {
		addCondition("blood_type =", filter.BloodType.String())
	}
	if filter.Urgency != "" {
		addCondition("urgency =", filter.Urgency.String())
	}
	if filter.Status != "" {
		addCondition("status =", filter.Status.String())
	}
	if filter.City != "" {
		addCondition("city ILIKE", "%"+filter.City+"%")
	}
	if !filter.RequesterID.IsNil() {
		addCondition("requester_id =", uuid.UUID(filter.RequesterID))
	}

	query := `SELECT ` + requestColumns + ` FROM blood_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	return s.queryRequests(ctx, query, args...)
}

func (s *Postgres) ListOpen(ctx context.Context) ([]*models.BloodRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM blood_requests
		WHERE status = $1
		ORDER BY created_at ASC
	`
	return s.queryRequests(ctx, query, models.StatusOpen.String())
}

func (s *Postgres) queryRequests(ctx context.Context, query string, args ...any) ([]*models.BloodRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.BloodRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.BloodRequest, error) {
	var (
		r           models.BloodRequest
		requestID   uuid.UUID
		requesterID uuid.UUID
		bloodType   string
		urgency     string
		status      string
	)
	err := row.Scan(
		&requestID, &requesterID, &bloodType, &r.UnitsNeeded, &urgency, &r.City,
		&r.Location.Latitude, &r.Location.Longitude, &r.NeededBy, &status,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RequestID(requestID)
	r.RequesterID = id.UserID(requesterID)
	r.BloodType = blood.Type(bloodType)
	r.Urgency = id.Urgency(urgency)
	r.Status = models.Status(status)
	return &r, nil
}
