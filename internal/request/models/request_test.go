package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SashiniHimaya/blood-donation-system/internal/blood"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

func newOpenRequest(t *testing.T, now time.Time) *BloodRequest {
	t.Helper()
	r, err := NewBloodRequest(id.NewRequestID(), id.NewUserID(), blood.APos,
		3, id.UrgencyHigh, now.Add(72*time.Hour), now)
	require.NoError(t, err)
	return r
}

func TestNewBloodRequestInvariants(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		fn   func() (*BloodRequest, error)
		code dErrors.Code
	}{
		{
			name: "invalid blood type",
			fn: func() (*BloodRequest, error) {
				return NewBloodRequest(id.NewRequestID(), id.NewUserID(), blood.Type("Z+"), 1, id.UrgencyLow, future, now)
			},
			code: dErrors.CodeInvalidBloodType,
		},
		{
			name: "zero units",
			fn: func() (*BloodRequest, error) {
				return NewBloodRequest(id.NewRequestID(), id.NewUserID(), blood.ONeg, 0, id.UrgencyLow, future, now)
			},
			code: dErrors.CodeInvariantViolation,
		},
		{
			name: "too many units",
			fn: func() (*BloodRequest, error) {
				return NewBloodRequest(id.NewRequestID(), id.NewUserID(), blood.ONeg, 21, id.UrgencyLow, future, now)
			},
			code: dErrors.CodeInvariantViolation,
		},
		{
			name: "unknown urgency",
			fn: func() (*BloodRequest, error) {
				return NewBloodRequest(id.NewRequestID(), id.NewUserID(), blood.ONeg, 1, id.Urgency("panic"), future, now)
			},
			code: dErrors.CodeInvariantViolation,
		},
		{
			name: "needed-by in the past",
			fn: func() (*BloodRequest, error) {
				return NewBloodRequest(id.NewRequestID(), id.NewUserID(), blood.ONeg, 1, id.UrgencyLow, now.Add(-time.Hour), now)
			},
			code: dErrors.CodeInvariantViolation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fn()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestTransitions(t *testing.T) {
	now := time.Now().UTC()

	t.Run("open accepts donations", func(t *testing.T) {
		r := newOpenRequest(t, now)
		assert.True(t, r.Status.AcceptsDonations())
	})

	t.Run("fulfilled is terminal", func(t *testing.T) {
		r := newOpenRequest(t, now)
		require.NoError(t, r.Transition(StatusFulfilled, now))
		assert.True(t, r.IsTerminal())
		err := r.Transition(StatusOpen, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("cancelled cannot reopen", func(t *testing.T) {
		r := newOpenRequest(t, now)
		require.NoError(t, r.Transition(StatusCancelled, now))
		for _, next := range []Status{StatusOpen, StatusPartiallyFulfilled, StatusFulfilled} {
			assert.False(t, r.CanTransitionTo(next), "cancelled -> %s must be rejected", next)
		}
	})
}

func TestRecordFulfilledUnits(t *testing.T) {
	now := time.Now().UTC()

	r := newOpenRequest(t, now) // needs 3 units
	require.NoError(t, r.RecordFulfilledUnits(0, now))
	assert.Equal(t, StatusOpen, r.Status)

	require.NoError(t, r.RecordFulfilledUnits(1, now))
	assert.Equal(t, StatusPartiallyFulfilled, r.Status)

	// Staying partial is not a transition
	require.NoError(t, r.RecordFulfilledUnits(2, now))
	assert.Equal(t, StatusPartiallyFulfilled, r.Status)

	require.NoError(t, r.RecordFulfilledUnits(3, now))
	assert.Equal(t, StatusFulfilled, r.Status)

	// Terminal requests are untouched
	require.NoError(t, r.RecordFulfilledUnits(10, now))
	assert.Equal(t, StatusFulfilled, r.Status)
}

func TestApplyUpdate(t *testing.T) {
	now := time.Now().UTC()
	r := newOpenRequest(t, now)

	units := 5
	urgency := id.UrgencyCritical
	notes := "surgery moved up"
	require.NoError(t, r.Apply(Update{UnitsNeeded: &units, Urgency: &urgency, Notes: &notes}, now))
	assert.Equal(t, 5, r.UnitsNeeded)
	assert.Equal(t, id.UrgencyCritical, r.Urgency)
	assert.Equal(t, notes, r.Notes)

	past := now.Add(-time.Hour)
	err := r.Apply(Update{NeededBy: &past}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	require.NoError(t, r.Transition(StatusCancelled, now))
	err = r.Apply(Update{UnitsNeeded: &units}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}
