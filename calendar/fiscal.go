/*
fiscal.go - Fiscal-year resolution and accounting windows

PURPOSE:
  Maps a calendar date to the year whose quota it is charged against.
  Annual leave runs on an April-March fiscal year; every other leave type
  runs on the plain calendar year.

THE APRIL-MARCH RULE:
  Fiscal year Y spans April of calendar year Y through March of Y+1.
  So for annual leave:
    2024-04-01 .. 2024-12-31 -> fiscal year 2024
    2025-01-01 .. 2025-03-31 -> fiscal year 2024
  For any other type, 2025-01-15 is simply accounting year 2025.

ACCOUNTING WINDOWS:
  The carryover policy in the leave package needs the two halves of a fiscal
  year separately:
    CoreWindow(Y):      Apr 1 Y  - Dec 31 Y   (charged to Y in full)
    SpilloverWindow(Y): Jan 1 Y+1 - Mar 31 Y+1 (charged to Y only while Y
                        still has balance; the rest belongs to Y+1)

SEE ALSO:
  - leave/usage.go: consumes the windows to implement the carryover split
*/
package calendar

import "time"

// FiscalYearStartMonth is the month that opens a fiscal year.
const FiscalYearStartMonth = time.April

// FiscalYearOf returns the April-March fiscal year owning the date.
// Dates in January-March belong to the previous year's fiscal year.
func FiscalYearOf(d Date) int {
	if d.Month >= FiscalYearStartMonth {
		return d.Year
	}
	return d.Year - 1
}

// AccountingYear resolves the year a date is charged against: the fiscal
// year for annual leave, the plain calendar year for everything else.
func AccountingYear(d Date, annual bool) int {
	if annual {
		return FiscalYearOf(d)
	}
	return d.Year
}

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive date range [Start, End].
type Period struct {
	Start Date
	End   Date
}

// Contains reports whether the date falls inside the period.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// CalendarYear returns the accounting period for non-annual leave types.
func CalendarYear(year int) Period {
	return Period{
		Start: NewDate(year, time.January, 1),
		End:   NewDate(year, time.December, 31),
	}
}

// CoreWindow returns the April-December portion of fiscal year y.
// Usage in this window is always charged to y.
func CoreWindow(y int) Period {
	return Period{
		Start: NewDate(y, time.April, 1),
		End:   NewDate(y, time.December, 31),
	}
}

// SpilloverWindow returns the January-March tail of fiscal year y, which
// falls in calendar year y+1. Usage here draws down y's leftover balance
// first and only then starts consuming y+1's own quota.
func SpilloverWindow(y int) Period {
	return Period{
		Start: NewDate(y+1, time.January, 1),
		End:   NewDate(y+1, time.March, 31),
	}
}

// FiscalYearPeriod returns the full April-March span of fiscal year y.
func FiscalYearPeriod(y int) Period {
	return Period{
		Start: NewDate(y, time.April, 1),
		End:   NewDate(y+1, time.March, 31),
	}
}

// InFirstQuarter reports whether the date falls in January-March.
// The non-annual expiry rule keys off this: once the new year's Q1 is over,
// last year's non-carryover quotas have lapsed.
func InFirstQuarter(d Date) bool {
	return d.Month <= time.March
}
