/*
filter.go - Record predicates

PURPOSE:
  Usage aggregation asks the same question over and over: "which of this
  employee's records are of type T inside window W?". Composing small
  predicates keeps that logic in one place instead of re-deriving the
  matching rules at each query site.

MALFORMED RECORDS:
  A record whose date fails to parse, or whose type is empty, matches no
  window predicate and so drops out of every aggregate. That is deliberate:
  historical data may outlive schema changes, and accounting must keep
  working around it (strict mode can still surface the exclusions as
  warnings).

SEE ALSO:
  - usage.go: builds filters for the accounting windows
*/
package leave

import "github.com/warp/leave-ledger/calendar"

// Filter is a predicate over records.
type Filter func(Record) bool

// And composes filters; a record must satisfy all of them.
func And(filters ...Filter) Filter {
	return func(r Record) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

// ByEmployee matches records owned by the employee.
func ByEmployee(employee string) Filter {
	return func(r Record) bool { return r.Employee == employee }
}

// ByType matches records of the given leave type. Records with an empty
// type never match.
func ByType(t Type) Filter {
	return func(r Record) bool { return r.Type != "" && r.Type == t }
}

// InPeriod matches records whose date parses and falls inside the period.
// Malformed dates never match.
func InPeriod(p calendar.Period) Filter {
	return func(r Record) bool {
		d, ok := r.Day()
		return ok && p.Contains(d)
	}
}

// Excluding drops one specific record by id; used when re-evaluating an
// edit-in-place before committing it. An empty id excludes nothing.
func Excluding(id string) Filter {
	return func(r Record) bool { return id == "" || r.ID != id }
}

// distinctDates counts the distinct calendar days among the matching
// records. Same-day duplicates of the same type are one unit of usage.
func distinctDates(records []Record, f Filter) int {
	seen := make(map[calendar.Date]struct{})
	for _, r := range records {
		if !f(r) {
			continue
		}
		if d, ok := r.Day(); ok {
			seen[d] = struct{}{}
		}
	}
	return len(seen)
}
