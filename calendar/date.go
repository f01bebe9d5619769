/*
Package calendar provides the day-granularity date type and the fiscal-year
accounting rules used by the leave ledger.

PURPOSE:
  Leave accounting works on whole calendar days. This package wraps the
  year/month/day triple in a small comparable value type so that dates can be
  used directly as map keys, and centralizes the fiscal-year mapping that
  decides which annual quota a given day is charged against.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: a calendar day (year, month, day). Comparable, usable as a map key.
  - Parsing: dates arrive from persisted records as "YYYY-MM-DD" strings and
    may be malformed (historical data outlives schema changes). Parse reports
    failure instead of guessing.

DESIGN PRINCIPLES:
  1. Value semantics: Date is immutable and comparable with ==.
  2. Validity: NewDate normalizes nothing; ParseDate rejects impossible days
     (Feb 30) instead of rolling them over.
  3. No clock: nothing in this package reads time.Now. "Today" is always an
     argument supplied by the caller.

SEE ALSO:
  - fiscal.go: fiscal-year resolution and accounting windows
  - leave package: uses Date for records, quotas and balance queries
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date identifies a single calendar day. The zero value is not a valid date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components without validation.
// Use ParseDate for untrusted input.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateLayout is the wire format for dates throughout the system.
const DateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD" and rejects impossible days.
// time.Parse alone would accept "2024-02-30" by rolling it into March;
// the round-trip check catches that.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	d := Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	if d.String() != s {
		return Date{}, fmt.Errorf("invalid date %q: no such day", s)
	}
	return d, nil
}

// FromTime truncates a time.Time to its calendar day.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns the date as a UTC midnight time.Time.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool  { return d.Time().After(other.Time()) }
func (d Date) Equal(other Date) bool  { return d == other }

func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return FromTime(d.Time().AddDate(0, 0, n)) }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
