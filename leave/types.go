/*
Package leave implements the leave-entitlement accounting core.

PURPOSE:
  Tracks, per employee and leave type, how many days of an annual allotment
  remain. The interesting policy lives here:
  - annual leave is accounted on an April-March fiscal year, and unused
    balance may spill into the following January-March before the new
    year's allotment is touched (Q1 carryover);
  - every other type is accounted on the plain calendar year and lapses
    once the following year's first quarter ends;
  - when a requested type is exhausted, allocation cascades down a fixed
    priority list instead of silently overdrawing.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: a leave type with its cascade priority order
  - Days: exact day arithmetic (decimal-backed)
  - Record: one persisted leave entry for one employee and day
  - QuotaEntry: configured allotment per employee x fiscal year x type

DESIGN PRINCIPLES:
  1. The Ledger owns its collections; callers mutate only through its API.
  2. Balance queries take the reference date explicitly - no global clock.
  3. Historical data is tolerated: malformed records are excluded from
     aggregation, never fatal.

SEE ALSO:
  - usage.go: distinct-date usage counting and the carryover split
  - ledger.go: quota bookkeeping and remaining-balance queries
  - planner.go: cascading type-fallback allocation
*/
package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-ledger/calendar"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// Type identifies a leave type.
type Type string

const (
	TypeMarriage         Type = "marriage_leave"
	TypeParental         Type = "parental_leave"
	TypeAnnual           Type = "annual_leave"
	TypePaidPersonalSick Type = "paid_personal_sick_leave"
)

// IsAnnual reports whether the type uses the April-March fiscal year and
// participates in Q1 carryover. Every other type runs on the calendar year.
func (t Type) IsAnnual() bool { return t == TypeAnnual }

// CascadeOrder is the fixed fallback priority for allocation, most
// constrained first. Scarce, policy-mandated types are exhausted before the
// flexible ones. Types outside this list never cascade.
var CascadeOrder = []Type{
	TypeMarriage,
	TypeParental,
	TypeAnnual,
	TypePaidPersonalSick,
}

// cascadeRank returns the position of t in CascadeOrder, or -1 if t does not
// participate in cascading.
func cascadeRank(t Type) int {
	for i, c := range CascadeOrder {
		if c == t {
			return i
		}
	}
	return -1
}

// =============================================================================
// DAYS - Exact day arithmetic
// =============================================================================

// Days is a count of leave days. Backed by decimal so quota arithmetic stays
// exact; quotas are configured as whole days but the representation leaves
// room for half-day grants.
type Days struct {
	Value decimal.Decimal
}

func DaysOf(n int) Days            { return Days{Value: decimal.NewFromInt(int64(n))} }
func ZeroDays() Days               { return Days{Value: decimal.Zero} }

// ParseDays parses a decimal day count, e.g. "10" or "0.5".
func ParseDays(s string) (Days, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, err
	}
	return Days{Value: v}, nil
}
func (d Days) Add(o Days) Days     { return Days{Value: d.Value.Add(o.Value)} }
func (d Days) Sub(o Days) Days     { return Days{Value: d.Value.Sub(o.Value)} }
func (d Days) IsZero() bool        { return d.Value.IsZero() }
func (d Days) IsNegative() bool    { return d.Value.IsNegative() }
func (d Days) IsPositive() bool    { return d.Value.IsPositive() }
func (d Days) Equal(o Days) bool   { return d.Value.Equal(o.Value) }
func (d Days) LessThan(o Days) bool { return d.Value.LessThan(o.Value) }

func (d Days) Min(o Days) Days {
	if d.LessThan(o) {
		return d
	}
	return o
}

// ClampZero floors the value at zero. Balances are never reported negative.
func (d Days) ClampZero() Days {
	if d.IsNegative() {
		return ZeroDays()
	}
	return d
}

func (d Days) String() string { return d.Value.String() }

// =============================================================================
// RECORD - One leave entry
// =============================================================================

// Record is a single persisted leave entry. Date is kept in its wire form
// ("YYYY-MM-DD"): historical data may carry dates that no longer parse, and
// the aggregator excludes those rather than failing the whole ledger.
type Record struct {
	ID       string
	Employee string
	Date     string
	Type     Type
	Note     string
}

// Day parses the record's date. ok is false for malformed dates.
func (r Record) Day() (calendar.Date, bool) {
	d, err := calendar.ParseDate(r.Date)
	if err != nil {
		return calendar.Date{}, false
	}
	return d, true
}

// =============================================================================
// QUOTA ENTRY - Configured allotment
// =============================================================================

// QuotaKey addresses one configured quota.
type QuotaKey struct {
	Employee   string
	FiscalYear int
	Type       Type
}

// QuotaEntry is a configured allotment. An absent entry means quota zero.
type QuotaEntry struct {
	Employee   string
	FiscalYear int
	Type       Type
	Quota      Days
}

func (q QuotaEntry) Key() QuotaKey {
	return QuotaKey{Employee: q.Employee, FiscalYear: q.FiscalYear, Type: q.Type}
}
