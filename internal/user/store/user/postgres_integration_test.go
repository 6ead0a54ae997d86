//go:build integration

package user_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/user/store/user"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "donations", "blood_requests", "users")
	s.Require().NoError(err)
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	weight := 72.0
	dob := now.AddDate(-30, 0, 0)
	return &models.User{
		ID:               id.NewUserID(),
		Name:             "Integration Donor",
		Email:            email,
		PasswordHash:     "$2a$10$fakehashfortests",
		Role:             id.RoleDonor,
		BloodType:        blood.ONeg,
		Phone:            "+94 71 234 5678",
		Location:         geo.NewPoint(6.9271, 79.8612),
		IsAvailable:      true,
		DateOfBirth:      &dob,
		WeightKg:         &weight,
		HealthConditions: []string{"asthma"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	u := newTestUser("roundtrip@example.com")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, found.Email)
	s.Equal(u.BloodType, found.BloodType)
	s.Equal(u.Role, found.Role)
	s.Require().NotNil(found.Location.Latitude)
	s.InDelta(6.9271, *found.Location.Latitude, 1e-9)
	s.Require().NotNil(found.WeightKg)
	s.Equal(72.0, *found.WeightKg)
	s.Equal([]string{"asthma"}, found.HealthConditions)

	byEmail, err := s.store.FindByEmail(ctx, "ROUNDTRIP@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	u := newTestUser("update@example.com")
	s.Require().NoError(s.store.CreateIfEmailAvailable(ctx, u))

	u.IsAvailable = false
	last := time.Now().UTC().Truncate(time.Microsecond)
	u.LastDonationDate = &last
	u.HealthConditions = nil
	s.Require().NoError(s.store.Update(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.False(found.IsAvailable)
	s.Require().NotNil(found.LastDonationDate)
	s.WithinDuration(last, *found.LastDonationDate, time.Millisecond)
	s.Empty(found.HealthConditions)
}

// TestConcurrentEmailUniqueness verifies that concurrent registrations with
// the same email result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentEmailUniqueness() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := s.store.CreateIfEmailAvailable(ctx, newTestUser("concurrent@example.com"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict")
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Update(ctx, newTestUser("ghost@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
