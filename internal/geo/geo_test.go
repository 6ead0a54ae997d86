package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

func TestDistanceKm(t *testing.T) {
	t.Run("identical points are zero", func(t *testing.T) {
		p := NewPoint(6.9271, 79.8612)
		d, ok := DistanceKm(p, p)
		require.True(t, ok)
		assert.Zero(t, d)
	})

	t.Run("known city pair", func(t *testing.T) {
		// Times Square to the Empire State Building is just under 1.1 km.
		timesSquare := NewPoint(40.7580, -73.9855)
		empireState := NewPoint(40.7484, -73.9857)

		d, ok := DistanceKm(timesSquare, empireState)
		require.True(t, ok)
		assert.InDelta(t, 1.07, d, 0.05)
	})

	t.Run("long haul", func(t *testing.T) {
		// London to New York, roughly 5570 km.
		london := NewPoint(51.5074, -0.1278)
		newYork := NewPoint(40.7128, -74.0060)

		d, ok := DistanceKm(london, newYork)
		require.True(t, ok)
		assert.InDelta(t, 5570, d, 30)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := NewPoint(6.9271, 79.8612)
		b := NewPoint(7.2906, 80.6337)

		d1, ok1 := DistanceKm(a, b)
		d2, ok2 := DistanceKm(b, a)
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, d1, d2)
	})

	t.Run("missing coordinates yield no distance", func(t *testing.T) {
		known := NewPoint(6.9271, 79.8612)

		_, ok := DistanceKm(known, Point{})
		assert.False(t, ok)

		_, ok = DistanceKm(Point{}, known)
		assert.False(t, ok)

		lat := 6.9271
		_, ok = DistanceKm(known, Point{Latitude: &lat})
		assert.False(t, ok)
	})
}

func TestPointValidate(t *testing.T) {
	t.Run("absent point is valid", func(t *testing.T) {
		assert.NoError(t, Point{}.Validate())
	})

	t.Run("full point in range is valid", func(t *testing.T) {
		assert.NoError(t, NewPoint(-89.9, 179.9).Validate())
	})

	t.Run("partial point is invalid", func(t *testing.T) {
		lat := 10.0
		err := Point{Latitude: &lat}.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("out of range is invalid", func(t *testing.T) {
		require.Error(t, NewPoint(91, 0).Validate())
		require.Error(t, NewPoint(0, -181).Validate())
	})
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 12.3, RoundKm(12.34))
	assert.Equal(t, 12.4, RoundKm(12.35))
	assert.Equal(t, 0.0, RoundKm(0.04))
}
