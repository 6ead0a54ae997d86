package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
)

// Postgres persists users in PostgreSQL.
// This store is pure I/O — validation and business rules belong in the
// service.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `
	id, name, email, password_hash, role, blood_type, phone,
	latitude, longitude, is_available, last_donation_date,
	date_of_birth, weight_kg, health_conditions, created_at, updated_at
`

func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, user *models.User) error {
	conditions, err := json.Marshal(user.HealthConditions)
	if err != nil {
		return fmt.Errorf("marshal health conditions: %w", err)
	}
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (email) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Name, user.Email, user.PasswordHash,
		string(user.Role), user.BloodType.String(), user.Phone,
		user.Location.Latitude, user.Location.Longitude, user.IsAvailable,
		user.LastDonationDate, user.DateOfBirth, user.WeightKg,
		conditions, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *Postgres) Update(ctx context.Context, user *models.User) error {
	conditions, err := json.Marshal(user.HealthConditions)
	if err != nil {
		return fmt.Errorf("marshal health conditions: %w", err)
	}
	query := `
		UPDATE users SET
			name = $2, email = $3, password_hash = $4, phone = $5,
			latitude = $6, longitude = $7, is_available = $8,
			last_donation_date = $9, date_of_birth = $10, weight_kg = $11,
			health_conditions = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Name, user.Email, user.PasswordHash, user.Phone,
		user.Location.Latitude, user.Location.Longitude, user.IsAvailable,
		user.LastDonationDate, user.DateOfBirth, user.WeightKg,
		conditions, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListAvailableDonors returns available users whose role permits donating.
// The partial index idx_users_donor_pool covers this query.
func (s *Postgres) ListAvailableDonors(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role IN ('donor', 'both') AND is_available
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available donors: %w", err)
	}
	defer rows.Close()

	var donors []*models.User
	for rows.Next() {
		donor, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list available donors: %w", err)
		}
		donors = append(donors, donor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available donors: %w", err)
	}
	return donors, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		userID     uuid.UUID
		role       string
		bloodType  string
		conditions []byte
	)
	err := row.Scan(
		&userID, &u.Name, &u.Email, &u.PasswordHash, &role, &bloodType, &u.Phone,
		&u.Location.Latitude, &u.Location.Longitude, &u.IsAvailable,
		&u.LastDonationDate, &u.DateOfBirth, &u.WeightKg,
		&conditions, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.Role = id.Role(role)
	u.BloodType = blood.Type(bloodType)
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &u.HealthConditions); err != nil {
			return nil, fmt.Errorf("unmarshal health conditions: %w", err)
		}
	}
	return &u, nil
}
