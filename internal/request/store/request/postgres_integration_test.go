//go:build integration

package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/geo"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/store/request"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	userstore "github.com/SashiniHimaya/blood-donation-system/internal/user/store/user"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/testutil/containers"
)

type PostgresRequestSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *request.Postgres
	users     *userstore.Postgres
	requester *usermodels.User
}

func TestPostgresRequestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRequestSuite))
}

func (s *PostgresRequestSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = request.NewPostgres(s.postgres.DB)
	s.users = userstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresRequestSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "donations", "blood_requests", "users"))

	// Requests carry a foreign key to their requester
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.requester = &usermodels.User{
		ID:           id.NewUserID(),
		Name:         "Requesting Hospital",
		Email:        "hospital@example.com",
		PasswordHash: "$2a$10$fakehashfortests",
		Role:         id.RoleRecipient,
		BloodType:    blood.ABPos,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.users.CreateIfEmailAvailable(ctx, s.requester))
}

func (s *PostgresRequestSuite) newRequest(bloodType blood.Type, urgency id.Urgency) *models.BloodRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	r, err := models.NewBloodRequest(id.NewRequestID(), s.requester.ID, bloodType,
		3, urgency, now.Add(96*time.Hour), now)
	s.Require().NoError(err)
	return r
}

func (s *PostgresRequestSuite) TestRoundTrip() {
	ctx := context.Background()
	r := s.newRequest(blood.APos, id.UrgencyHigh)
	r.City = "Colombo"
	r.Location = geo.NewPoint(6.9271, 79.8612)
	r.Notes = "pre-op transfusion"
	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(s.requester.ID, found.RequesterID)
	s.Equal(blood.APos, found.BloodType)
	s.Equal(id.UrgencyHigh, found.Urgency)
	s.Equal("Colombo", found.City)
	s.Equal("pre-op transfusion", found.Notes)
	s.Require().NotNil(found.Location.Latitude)
	s.InDelta(6.9271, *found.Location.Latitude, 1e-9)
	s.WithinDuration(r.NeededBy, found.NeededBy, time.Millisecond)
}

func (s *PostgresRequestSuite) TestFilteredList() {
	ctx := context.Background()
	critical := s.newRequest(blood.ONeg, id.UrgencyCritical)
	critical.City = "Colombo General"
	low := s.newRequest(blood.ONeg, id.UrgencyLow)
	other := s.newRequest(blood.BPos, id.UrgencyCritical)
	for _, r := range []*models.BloodRequest{critical, low, other} {
		s.Require().NoError(s.store.Create(ctx, r))
	}

	results, err := s.store.List(ctx, service.Filter{BloodType: blood.ONeg, Urgency: id.UrgencyCritical})
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(critical.ID, results[0].ID)

	byCity, err := s.store.List(ctx, service.Filter{City: "colombo"})
	s.Require().NoError(err)
	s.Require().Len(byCity, 1)
	s.Equal(critical.ID, byCity[0].ID)
}

func (s *PostgresRequestSuite) TestStatusLifecycle() {
	ctx := context.Background()
	r := s.newRequest(blood.APos, id.UrgencyMedium)
	s.Require().NoError(s.store.Create(ctx, r))

	s.Require().NoError(r.RecordFulfilledUnits(1, time.Now().UTC()))
	s.Require().NoError(s.store.Update(ctx, r))

	open, err := s.store.ListOpen(ctx)
	s.Require().NoError(err)
	s.Empty(open, "partially fulfilled request is no longer open")

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPartiallyFulfilled, found.Status)
}

func (s *PostgresRequestSuite) TestUpdateMissing() {
	ctx := context.Background()
	ghost := s.newRequest(blood.APos, id.UrgencyLow)
	s.Require().ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
}
