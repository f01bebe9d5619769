/*
ledger.go - The quota ledger

PURPOSE:
  Owns the two leave collections - configured quotas and leave records - and
  answers remaining-balance queries. Nothing outside this package mutates the
  collections directly; every mutation goes through the Ledger so the
  single-mutex serialization story holds. The read-then-decide-then-write
  pattern in Allocate is a check-then-act race under interleaving, so all
  mutating and deciding operations share one lock.

REMAINING BALANCE:
  remaining = max(0, configured quota - usage), where usage comes from
  usage.go. An unset quota is zero. An optional record exclusion supports
  re-evaluating an edit-in-place before committing it.

EXPIRY RULE:
  Non-annual quotas lapse: when the reference date falls in Jan-Mar of year
  Y, a request dated in year Y-1 has remaining zero regardless of usage.
  Annual leave is exempt - it is the type that carries over. The reference
  date is always an explicit parameter; this package never reads the clock.

DATA INTEGRITY:
  Records whose date does not parse or whose type is empty still live in the
  collection (history is preserved) but are excluded from every aggregate.
  The ledger logs each such record once, on the way in, at Warn.

SEE ALSO:
  - usage.go: usage aggregation
  - planner.go: allocation decisions on top of Remaining
*/
package leave

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/leave-ledger/calendar"
	"go.uber.org/zap"
)

// =============================================================================
// LEDGER - Owns quotas and records
// =============================================================================

// Ledger holds the configured quotas and leave records for all employees.
// All methods are safe for concurrent use; mutations are serialized behind
// one mutex.
type Ledger struct {
	mu      sync.RWMutex
	quotas  map[QuotaKey]Days
	records []Record

	log *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger installs a logger for data-integrity warnings.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		quotas: make(map[QuotaKey]Days),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// QUOTA CONFIGURATION
// =============================================================================

// SetQuota configures the allotment for employee x fiscal year x type.
// Setting a quota to zero is allowed and equivalent to absence.
func (l *Ledger) SetQuota(employee string, fiscalYear int, t Type, quota Days) error {
	if quota.IsNegative() {
		return ErrNegativeQuota
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quotas[QuotaKey{Employee: employee, FiscalYear: fiscalYear, Type: t}] = quota
	return nil
}

// Quota returns the configured allotment, zero if unset.
func (l *Ledger) Quota(employee string, fiscalYear int, t Type) Days {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quotaLocked(employee, fiscalYear, t)
}

func (l *Ledger) quotaLocked(employee string, fiscalYear int, t Type) Days {
	if q, ok := l.quotas[QuotaKey{Employee: employee, FiscalYear: fiscalYear, Type: t}]; ok {
		return q
	}
	return ZeroDays()
}

// Quotas returns all configured quota entries, sorted for stable output.
func (l *Ledger) Quotas() []QuotaEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]QuotaEntry, 0, len(l.quotas))
	for k, q := range l.quotas {
		entries = append(entries, QuotaEntry{
			Employee: k.Employee, FiscalYear: k.FiscalYear, Type: k.Type, Quota: q,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Employee != b.Employee {
			return a.Employee < b.Employee
		}
		if a.FiscalYear != b.FiscalYear {
			return a.FiscalYear < b.FiscalYear
		}
		return a.Type < b.Type
	})
	return entries
}

// =============================================================================
// RECORD MANAGEMENT
// =============================================================================

// AddRecord files a leave record and returns it with its assigned id.
// The date is kept as given; a malformed date is tolerated (and excluded
// from aggregation) but logged.
func (l *Ledger) AddRecord(employee, date string, t Type, note string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addLocked(employee, date, t, note)
}

func (l *Ledger) addLocked(employee, date string, t Type, note string) Record {
	rec := Record{
		ID:       uuid.NewString(),
		Employee: employee,
		Date:     date,
		Type:     t,
		Note:     note,
	}
	l.warnIfMalformed(rec)
	l.records = append(l.records, rec)
	return rec
}

// UpdateRecord replaces the record with the same id.
func (l *Ledger) UpdateRecord(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].ID == rec.ID {
			l.warnIfMalformed(rec)
			l.records[i] = rec
			return nil
		}
	}
	return ErrRecordNotFound
}

// DeleteRecord removes a record by id.
func (l *Ledger) DeleteRecord(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

// Records returns a copy of all records.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// RecordsOf returns a copy of one employee's records.
func (l *Ledger) RecordsOf(employee string) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, r := range l.records {
		if r.Employee == employee {
			out = append(out, r)
		}
	}
	return out
}

// ReplaceAll swaps in a freshly loaded state. Used by the persistence
// collaborator at startup.
func (l *Ledger) ReplaceAll(records []Record, quotas []QuotaEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make([]Record, len(records))
	copy(l.records, records)
	l.quotas = make(map[QuotaKey]Days, len(quotas))
	for _, q := range quotas {
		l.quotas[q.Key()] = q.Quota
	}
	for _, r := range l.records {
		l.warnIfMalformed(r)
	}
}

func (l *Ledger) warnIfMalformed(r Record) {
	if _, ok := r.Day(); !ok {
		l.log.Warn("leave record excluded from accounting: unparsable date",
			zap.String("record_id", r.ID),
			zap.String("employee", r.Employee),
			zap.String("date", r.Date))
	}
	if r.Type == "" {
		l.log.Warn("leave record excluded from accounting: empty type",
			zap.String("record_id", r.ID),
			zap.String("employee", r.Employee))
	}
}

// =============================================================================
// BALANCE QUERIES
// =============================================================================

// Usage returns the days charged to the accounting year for the employee
// and type.
func (l *Ledger) Usage(employee string, year int, t Type) Days {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.usageLocked(employee, year, t, "")
}

func (l *Ledger) usageLocked(employee string, year int, t Type, excludeID string) Days {
	return usageFor(l.records, employee, year, t, excludeID, func(y int) Days {
		return l.quotaLocked(employee, y, TypeAnnual)
	})
}

// Remaining returns the balance left for charging a record on the given
// date: max(0, quota - usage). asOf is the reference date for the expiry
// rule and must be supplied by the caller.
func (l *Ledger) Remaining(employee string, date calendar.Date, t Type, asOf calendar.Date) Days {
	return l.RemainingExcluding(employee, date, t, asOf, "")
}

// RemainingExcluding is Remaining with one record left out of the usage
// count - the record being edited, when re-evaluating an edit-in-place.
func (l *Ledger) RemainingExcluding(employee string, date calendar.Date, t Type, asOf calendar.Date, excludeID string) Days {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.remainingLocked(employee, date, t, asOf, excludeID)
}

func (l *Ledger) remainingLocked(employee string, date calendar.Date, t Type, asOf calendar.Date, excludeID string) Days {
	year := calendar.AccountingYear(date, t.IsAnnual())

	// Non-annual quotas lapse after the following first quarter. Annual
	// leave is exempt: its prior-year balance is exactly what Q1 spillover
	// spends.
	if !t.IsAnnual() && calendar.InFirstQuarter(asOf) && year == asOf.Year-1 {
		return ZeroDays()
	}

	quota := l.quotaLocked(employee, year, t)
	used := l.usageLocked(employee, year, t, excludeID)
	return quota.Sub(used).ClampZero()
}
