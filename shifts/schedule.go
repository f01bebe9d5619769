/*
schedule.go - Per-employee date-to-assignment map

PURPOSE:
  One employee's calendar of shift assignments. The map carries Assignment
  values; the scalar/set rules stay inside Assignment, so Add and Remove here
  just maintain the "never an empty entry" invariant.
*/
package shifts

import (
	"sort"

	"github.com/warp/leave-ledger/calendar"
)

// Schedule maps dates to assignments for one employee.
type Schedule map[calendar.Date]Assignment

// Add inserts a shift on a date: a free date gets the scalar, a differing
// scalar upgrades to a two-element set, a set gains the shift if absent.
func (s Schedule) Add(d calendar.Date, shift Shift) {
	s[d] = s[d].add(shift)
}

// Remove takes a shift off a date, collapsing set to scalar and deleting
// the entry when nothing remains. Removing an absent shift is a no-op.
func (s Schedule) Remove(d calendar.Date, shift Shift) {
	next := s[d].remove(shift)
	if next.IsZero() {
		delete(s, d)
		return
	}
	s[d] = next
}

// At returns the assignment on a date; ok is false for a free date.
func (s Schedule) At(d calendar.Date) (Assignment, bool) {
	a, ok := s[d]
	return a, ok
}

// Dates returns the assigned dates in chronological order.
func (s Schedule) Dates() []calendar.Date {
	out := make([]calendar.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Clone returns an independent copy.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for d, a := range s {
		out[d] = a
	}
	return out
}
