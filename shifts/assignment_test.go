package shifts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/shifts"
)

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

// =============================================================================
// SCALAR / SET REPRESENTATION
// =============================================================================

func TestAssignment_ManyCollapsesSingletonToScalar(t *testing.T) {
	// A one-element set is never stored as a set; the two representations
	// are the same value to callers.
	assert.True(t, shifts.Many("day").Equal(shifts.Single("day")))
	assert.True(t, shifts.Many("day").IsSingle())
	assert.True(t, shifts.Many("day", "day").IsSingle())
	assert.True(t, shifts.Many().IsZero())
}

func TestAssignment_EqualIgnoresOrder(t *testing.T) {
	assert.True(t, shifts.Many("day", "night").Equal(shifts.Many("night", "day")))
	assert.False(t, shifts.Many("day", "night").Equal(shifts.Single("day")))
}

func TestSchedule_AddUpgradeRules(t *testing.T) {
	// Free date -> scalar; differing scalar -> two-element set;
	// re-adding a present shift is idempotent.
	s := make(shifts.Schedule)
	d := date(2024, time.January, 1)

	s.Add(d, "day")
	a, ok := s.At(d)
	require.True(t, ok)
	assert.True(t, a.Equal(shifts.Single("day")))

	s.Add(d, "day")
	a, _ = s.At(d)
	assert.True(t, a.IsSingle(), "idempotent add must not upgrade")

	s.Add(d, "night")
	a, _ = s.At(d)
	assert.True(t, a.Equal(shifts.Many("day", "night")))

	s.Add(d, "night")
	a, _ = s.At(d)
	assert.Len(t, a.Shifts(), 2)
}

func TestSchedule_RemoveCollapseRules(t *testing.T) {
	// GIVEN: a date upgraded to a two-element set
	// THEN: removing one collapses to scalar, removing the last deletes
	//       the entry entirely
	s := make(shifts.Schedule)
	d := date(2024, time.January, 1)
	s.Add(d, "day")
	s.Add(d, "night")

	s.Remove(d, "night")
	a, ok := s.At(d)
	require.True(t, ok)
	assert.True(t, a.Equal(shifts.Single("day")))

	s.Remove(d, "day")
	_, ok = s.At(d)
	assert.False(t, ok, "empty entry must be deleted, never kept")
}

func TestSchedule_AddThenRemoveRoundTrip(t *testing.T) {
	// Adding then removing the same shift on a date that started empty
	// returns the schedule to "no entry at that date".
	s := make(shifts.Schedule)
	d := date(2024, time.March, 10)

	s.Add(d, "day")
	s.Remove(d, "day")

	_, ok := s.At(d)
	assert.False(t, ok)
	assert.Empty(t, s.Dates())
}

func TestSchedule_RemoveAbsentIsNoOp(t *testing.T) {
	s := make(shifts.Schedule)
	d := date(2024, time.January, 1)

	s.Remove(d, "day") // nothing there at all
	s.Add(d, "day")
	s.Remove(d, "night") // not in the assignment

	a, ok := s.At(d)
	require.True(t, ok)
	assert.True(t, a.Equal(shifts.Single("day")))
}

func TestSchedule_DatesSortedAndCloneIndependent(t *testing.T) {
	s := make(shifts.Schedule)
	s.Add(date(2024, time.February, 1), "day")
	s.Add(date(2024, time.January, 1), "night")

	dates := s.Dates()
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Before(dates[1]))

	clone := s.Clone()
	clone.Remove(date(2024, time.January, 1), "night")
	_, ok := s.At(date(2024, time.January, 1))
	assert.True(t, ok, "mutating the clone must not touch the original")
}
