package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupiesSlot(t *testing.T) {
	for _, s := range []string{BookingPending, BookingConfirmed, BookingInProgress} {
		assert.True(t, OccupiesSlot(s), s)
	}
	for _, s := range []string{BookingDraft, BookingCompleted, BookingCancelled, BookingNoShow, BookingRescheduled, "bogus"} {
		assert.False(t, OccupiesSlot(s), s)
	}
}

func TestHasAvailability(t *testing.T) {
	d := &DailyAvailability{TotalSlots: 7, AvailableSlots: 1, IsAvailable: true}
	assert.True(t, d.HasAvailability())

	d.IsAvailable = false
	assert.False(t, d.HasAvailability(), "closed day is never bookable")

	d.IsAvailable = true
	d.AvailableSlots = 0
	assert.False(t, d.HasAvailability())
	assert.Equal(t, 7, d.BookedSlots())
}

func TestParseDateNormalizes(t *testing.T) {
	d, err := ParseDate("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), d)

	loc := time.FixedZone("UTC-3", -3*3600)
	assert.Equal(t, d, NormalizeDate(time.Date(2026, 3, 14, 22, 30, 0, 0, loc)))

	_, err = ParseDate("14/03/2026")
	assert.Error(t, err)
}

func TestValidReason(t *testing.T) {
	assert.True(t, ValidReason(ReasonSale))
	assert.True(t, ValidReason(ReasonInitial))
	assert.False(t, ValidReason("sale"))
	assert.False(t, ValidReason(""))
}
