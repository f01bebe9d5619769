/*
Package shifts implements the shift-assignment store and the shift-exchange
ledger.

PURPOSE:
  A calendar date normally carries one shift per employee, but a trade can
  land a second assignment on a date that already has one. The store keeps a
  scalar-or-set representation per date and owns the upgrade/collapse rules;
  the exchange ledger on top executes two-party trades and reverses them
  exactly once.

KEY CONCEPTS IN THIS FILE (assignment.go):
  - Shift: a shift-type value ("day", "night", ...)
  - Assignment: what one employee holds on one date - one shift, or a
    non-empty set of shifts
  - Schedule: per-employee map from date to Assignment

INVARIANTS:
  1. A date key is never present with an empty assignment.
  2. A singleton is the scalar representation, never a one-element set;
     the two are equivalent to callers.
  3. Add and Remove are the only mutators, so the collapse/upgrade rules
     live here and nowhere else.

SEE ALSO:
  - exchange.go: swap/restore transactions built on Add/Remove
*/
package shifts

import (
	"sort"
	"strings"
)

// =============================================================================
// SHIFT AND ASSIGNMENT
// =============================================================================

// Shift is a shift-type value.
type Shift string

// Assignment is the shift content of one employee's date: a single shift or
// a non-empty set of concurrent shifts. The zero value means "no assignment".
// Assignments are immutable values; mutation happens through Schedule.
type Assignment struct {
	shifts []Shift // sorted, deduplicated; len 1 = scalar representation
}

// Single builds a scalar assignment.
func Single(s Shift) Assignment { return Assignment{shifts: []Shift{s}} }

// Many builds a set-valued assignment. Duplicates collapse; a singleton
// input collapses to the scalar representation; an empty input is the zero
// Assignment.
func Many(ss ...Shift) Assignment {
	seen := make(map[Shift]struct{}, len(ss))
	var out []Shift
	for _, s := range ss {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Assignment{shifts: out}
}

// IsZero reports whether the assignment is empty ("no entry at that date").
func (a Assignment) IsZero() bool { return len(a.shifts) == 0 }

// IsSingle reports the scalar representation.
func (a Assignment) IsSingle() bool { return len(a.shifts) == 1 }

// Shifts returns the contained shifts in sorted order.
func (a Assignment) Shifts() []Shift {
	out := make([]Shift, len(a.shifts))
	copy(out, a.shifts)
	return out
}

// Contains reports whether the assignment holds the shift.
func (a Assignment) Contains(s Shift) bool {
	for _, have := range a.shifts {
		if have == s {
			return true
		}
	}
	return false
}

// Equal reports content equality regardless of construction order.
func (a Assignment) Equal(b Assignment) bool {
	if len(a.shifts) != len(b.shifts) {
		return false
	}
	for i := range a.shifts {
		if a.shifts[i] != b.shifts[i] {
			return false
		}
	}
	return true
}

func (a Assignment) String() string {
	if a.IsZero() {
		return "(none)"
	}
	if a.IsSingle() {
		return string(a.shifts[0])
	}
	parts := make([]string, len(a.shifts))
	for i, s := range a.shifts {
		parts[i] = string(s)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// add returns the assignment with the shift inserted. Idempotent.
func (a Assignment) add(s Shift) Assignment {
	if a.Contains(s) {
		return a
	}
	return Many(append(a.Shifts(), s)...)
}

// remove returns the assignment with the shift removed; removing an absent
// shift is a no-op. A set collapses back to scalar at one element and to
// the zero Assignment at none.
func (a Assignment) remove(s Shift) Assignment {
	if !a.Contains(s) {
		return a
	}
	var out []Shift
	for _, have := range a.shifts {
		if have != s {
			out = append(out, have)
		}
	}
	return Assignment{shifts: out}
}
