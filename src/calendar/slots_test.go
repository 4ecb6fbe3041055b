package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hour int) time.Time {
	return time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC)
}

func TestCandidateSlotsKeepBusinessHours(t *testing.T) {
	// Midnight to midnight yields exactly the 9-to-16 start times.
	slots := candidateSlots(day(0), day(0).AddDate(0, 0, 1))

	require.Len(t, slots, 8)
	assert.Equal(t, day(9), slots[0])
	assert.Equal(t, day(16), slots[len(slots)-1])
}

func TestCandidateSlotsMidRangeStart(t *testing.T) {
	slots := candidateSlots(day(14), day(17))

	// 14:00, 15:00, 16:00; the walk is inclusive of the end but 17:00
	// is past closing.
	assert.Equal(t, []time.Time{day(14), day(15), day(16)}, slots)
}

func TestCandidateSlotsEmptyOutsideBusinessHours(t *testing.T) {
	slots := candidateSlots(day(18), day(20))
	assert.Empty(t, slots)
}

func TestFilterAvailableRemovesOverlaps(t *testing.T) {
	slots := []time.Time{day(9), day(10), day(11), day(12)}
	busy := []busyInterval{
		{start: day(10).Add(30 * time.Minute), end: day(11).Add(15 * time.Minute)},
	}

	free := filterAvailable(slots, busy)

	// The 10:00 and 11:00 slots both overlap the busy window.
	assert.Equal(t, []time.Time{day(9), day(12)}, free)
}

func TestFilterAvailableTouchingEdgesAreFree(t *testing.T) {
	slots := []time.Time{day(9), day(10)}
	// Busy block starts exactly when the 9:00 slot ends.
	busy := []busyInterval{{start: day(10), end: day(10).Add(30 * time.Minute)}}

	free := filterAvailable(slots, busy)
	assert.Contains(t, free, day(9))
	assert.NotContains(t, free, day(10))
}

func TestFilterAvailableNoBusyTimes(t *testing.T) {
	slots := []time.Time{day(9), day(10)}
	assert.Equal(t, slots, filterAvailable(slots, nil))
}

func TestIsoLocalFormat(t *testing.T) {
	assert.Equal(t, "2025-03-10T09:00:00", isoLocal(day(9)))
}
