package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/request/service"
	requeststore "github.com/SashiniHimaya/blood-donation-system/internal/request/store/request"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

type fakeAlerter struct {
	calls  int
	lastID id.RequestID
}

func (f *fakeAlerter) AlertDonors(_ context.Context, request *models.BloodRequest) int {
	f.calls++
	f.lastID = request.ID
	return 1
}

func requesterCtx(now time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithUserID(ctx, id.NewUserID())
	return requestcontext.WithRole(ctx, id.RoleRecipient)
}

func TestCreateAlertsDonorsForUrgentRequests(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	alerter := &fakeAlerter{}
	svc := service.New(requeststore.NewInMemory(), service.WithAlerter(alerter))

	params := service.CreateParams{
		BloodType: blood.APos,
		Units:     2,
		NeededBy:  now.Add(72 * time.Hour),
	}

	params.Urgency = id.UrgencyCritical
	created, err := svc.Create(requesterCtx(now), params)
	require.NoError(t, err)
	assert.Equal(t, 1, alerter.calls)
	assert.Equal(t, created.ID, alerter.lastID)

	params.Urgency = id.UrgencyHigh
	_, err = svc.Create(requesterCtx(now), params)
	require.NoError(t, err)
	assert.Equal(t, 2, alerter.calls)

	// Routine requests do not page donors.
	params.Urgency = id.UrgencyMedium
	_, err = svc.Create(requesterCtx(now), params)
	require.NoError(t, err)
	assert.Equal(t, 2, alerter.calls)
}
