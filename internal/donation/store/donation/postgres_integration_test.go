//go:build integration

package donation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/donation/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/donation/store/donation"
	requestmodels "github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	requeststore "github.com/SashiniHimaya/blood-donation-system/internal/request/store/request"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	userstore "github.com/SashiniHimaya/blood-donation-system/internal/user/store/user"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/testutil/containers"
)

type PostgresDonationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *donation.Postgres
	users    *userstore.Postgres
	requests *requeststore.Postgres

	donor   *usermodels.User
	request *requestmodels.BloodRequest
}

func TestPostgresDonationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDonationSuite))
}

func (s *PostgresDonationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = donation.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
	s.requests = requeststore.NewPostgres(s.postgres.DB)
}

// SetupTest resets the tables and seeds the rows the donation foreign keys
// point at: a donor, a requester, and an open request.
func (s *PostgresDonationSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "donations", "blood_requests", "users")
	s.Require().NoError(err)

	now := time.Now().UTC().Truncate(time.Microsecond)

	s.donor = s.seedUser(ctx, "donor@example.com", id.RoleDonor, blood.ONeg, now)
	requester := s.seedUser(ctx, "requester@example.com", id.RoleRecipient, blood.APos, now)

	request, err := requestmodels.NewBloodRequest(id.NewRequestID(), requester.ID,
		blood.APos, 2, id.UrgencyHigh, now.Add(96*time.Hour), now)
	s.Require().NoError(err)
	s.Require().NoError(s.requests.Create(ctx, request))
	s.request = request
}

func (s *PostgresDonationSuite) seedUser(ctx context.Context, email string, role id.Role, bloodType blood.Type, now time.Time) *usermodels.User {
	u := &usermodels.User{
		ID:           id.NewUserID(),
		Name:         "Integration User",
		Email:        email,
		PasswordHash: "$2a$10$fakehashfortests",
		Role:         role,
		BloodType:    bloodType,
		IsAvailable:  role.CanDonate(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.users.CreateIfEmailAvailable(ctx, u))
	return u
}

func (s *PostgresDonationSuite) newDonation(donorID id.UserID) *models.Donation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	d, err := models.NewDonation(id.NewDonationID(), s.request.ID, donorID, 1, "integration", now)
	s.Require().NoError(err)
	return d
}

func (s *PostgresDonationSuite) TestRoundTrip() {
	ctx := context.Background()
	d := s.newDonation(s.donor.ID)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, d))

	found, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(s.request.ID, found.RequestID)
	s.Equal(s.donor.ID, found.DonorID)
	s.Equal(models.StatusPending, found.Status)
	s.Equal("integration", found.Notes)
	s.Nil(found.DonationDate)
}

func (s *PostgresDonationSuite) TestUpdateStatusAndDate() {
	ctx := context.Background()
	d := s.newDonation(s.donor.ID)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, d))

	donatedAt := time.Now().UTC().Truncate(time.Microsecond)
	d.Status = models.StatusCompleted
	d.DonationDate = &donatedAt
	d.UpdatedAt = donatedAt
	s.Require().NoError(s.store.Update(ctx, d))

	found, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, found.Status)
	s.Require().NotNil(found.DonationDate)
	s.WithinDuration(donatedAt, *found.DonationDate, time.Millisecond)

	sum, err := s.store.SumCompletedUnits(ctx, s.request.ID)
	s.Require().NoError(err)
	s.Equal(1, sum)
}

// TestConcurrentDuplicatePair verifies the (request_id, donor_id) constraint
// under concurrent offers: exactly one insert wins.
func (s *PostgresDonationSuite) TestConcurrentDuplicatePair() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := s.store.CreateIfAbsent(ctx, s.newDonation(s.donor.ID))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one offer should land")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict")

	donations, err := s.store.ListForRequest(ctx, s.request.ID)
	s.Require().NoError(err)
	s.Len(donations, 1)
}

func (s *PostgresDonationSuite) TestListsAndPending() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	other := s.seedUser(ctx, "second-donor@example.com", id.RoleDonor, blood.OPos, now)

	first := s.newDonation(s.donor.ID)
	second := s.newDonation(other.ID)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, first))
	s.Require().NoError(s.store.CreateIfAbsent(ctx, second))

	second.Status = models.StatusConfirmed
	s.Require().NoError(s.store.Update(ctx, second))

	forRequest, err := s.store.ListForRequest(ctx, s.request.ID)
	s.Require().NoError(err)
	s.Len(forRequest, 2)

	pending, err := s.store.ListPendingForRequest(ctx, s.request.ID)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(first.ID, pending[0].ID)

	mine, err := s.store.ListForDonor(ctx, other.ID, models.StatusConfirmed)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(second.ID, mine[0].ID)
}

func (s *PostgresDonationSuite) TestNotFound() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, id.NewDonationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Update(ctx, s.newDonation(s.donor.ID)), sentinel.ErrNotFound)
}
