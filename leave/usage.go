/*
usage.go - Distinct-date usage aggregation with Q1 carryover

PURPOSE:
  Computes, per employee / accounting year / leave type, how many days have
  been used. This feeds the remaining-balance calculation in ledger.go.

COUNTING RULES:
  - Usage is counted by DISTINCT DATE, not record count. Duplicate entries of
    the same type on the same day are one unit of usage.
  - Non-annual types: distinct dates in the plain calendar year.
  - Annual leave: two windows charge against fiscal year Y:
      (i)  the core window, Apr-Dec of Y, charged in full;
      (ii) the spillover window, Jan-Mar of Y+1, charged to Y only up to
           whatever balance Y still has after (i). Anything beyond that
           belongs to Y+1's own quota.

THE CARRYOVER POLICY:
  Window (ii) is what lets unused prior-year annual leave be spent in the
  following January-March before the new allotment is touched. It also means
  Y's own usage must absorb the overflow the PREVIOUS spillover pushed past
  Y-1's balance:

    usage(Y) = |Apr-Dec of Y|
             + min(|Jan-Mar of Y+1|, remaining after core window of Y)
             + overflow(Y)   // Jan-Mar of Y dates that exceeded Y-1's balance

  Because usage credits against a quota, the split needs the configured
  quota; the aggregator takes it as a lookup function.

EXAMPLE:
  Fiscal 2023 quota 3, all unused. Annual leave on 2024-01-10 and 2024-02-10:
  both land in 2023's spillover window, 2023 remaining drops to 1, and fiscal
  2024 is untouched. A third and fourth January date would exhaust 2023 and
  the fourth would start consuming 2024.

SEE ALSO:
  - calendar/fiscal.go: the window definitions
  - ledger.go: remaining = max(0, quota - usage)
*/
package leave

import "github.com/warp/leave-ledger/calendar"

// quotaFn resolves the configured annual-leave quota for a fiscal year.
type quotaFn func(fiscalYear int) Days

// usageFor computes the usage charged to the accounting year for one
// employee and type, optionally excluding a single record by id.
func usageFor(records []Record, employee string, year int, t Type, excludeID string, quota quotaFn) Days {
	if t.IsAnnual() {
		return annualUsage(records, employee, year, excludeID, quota)
	}
	n := distinctDates(records, And(
		ByEmployee(employee),
		ByType(t),
		InPeriod(calendar.CalendarYear(year)),
		Excluding(excludeID),
	))
	return DaysOf(n)
}

// annualUsage implements the fiscal-year split for annual leave.
func annualUsage(records []Record, employee string, y int, excludeID string, quota quotaFn) Days {
	count := func(p calendar.Period) int {
		return distinctDates(records, And(
			ByEmployee(employee),
			ByType(TypeAnnual),
			InPeriod(p),
			Excluding(excludeID),
		))
	}

	core := DaysOf(count(calendar.CoreWindow(y)))
	spill := DaysOf(count(calendar.SpilloverWindow(y)))

	// Spillover is charged to y only while y has balance left after the
	// core window.
	room := quota(y).Sub(core).ClampZero()
	charged := core.Add(spill.Min(room))

	// Whatever last year's spillover window (Jan-Mar of calendar year y)
	// could not charge to y-1 lands on y's own quota.
	prevCore := DaysOf(count(calendar.CoreWindow(y - 1)))
	prevSpill := DaysOf(count(calendar.SpilloverWindow(y - 1)))
	prevRoom := quota(y - 1).Sub(prevCore).ClampZero()
	overflow := prevSpill.Sub(prevRoom).ClampZero()

	return charged.Add(overflow)
}
