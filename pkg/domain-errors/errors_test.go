package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeDuplicateDonation, "already offered")
		assert.True(t, HasCode(err, CodeDuplicateDonation))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeNotEligible, "wait 12 more days"))
		assert.True(t, HasCode(err, CodeNotEligible))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeRequestNotOpen, CodeOf(New(CodeRequestNotOpen, "closed")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("db down")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("unique constraint")
	err := Wrap(cause, CodeDuplicateDonation, "donation already exists")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "duplicate_donation")
	assert.Contains(t, err.Error(), "unique constraint")
}

func TestWithDetails(t *testing.T) {
	base := New(CodeNotEligible, "not currently eligible")
	detailed := base.WithDetails(map[string]int{"days_until_eligible": 26})

	require.NotNil(t, detailed.Details)
	assert.Nil(t, base.Details, "WithDetails must not mutate the original")
	assert.Equal(t, base.Code, detailed.Code)
}
