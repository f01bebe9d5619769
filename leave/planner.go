/*
planner.go - Cascading type-fallback allocation

PURPOSE:
  Decides which leave type a new record should be charged to. Some types
  (marriage, parental) are scarce and policy-mandated to be exhausted before
  the flexible ones, so when the requested type has no balance the planner
  walks the fixed priority order and substitutes the first type that does.

DECISION RULES:
  1. Requested type has remaining > 0: allocate as requested, no cascade.
  2. Requested type is in the cascade order: walk the entries strictly after
     it; the first with remaining > 0 wins, flagged as cascaded.
  3. Otherwise (outside the order, or order exhausted): ExhaustedError
     naming every type tried.

  The decision is pure - the caller commits the resulting record (using the
  allocated type, not the requested one) and persists it. Never silently
  overdraws a balance.

DECIDE-THEN-COMMIT:
  A remaining-balance check followed by a commit is a check-then-act race
  under interleaving. Callers with concurrent users must go through
  AllocateAndAdd / AllocateAndUpdate, which hold the ledger mutex across
  both steps so the second caller's decision sees the first caller's
  commit. The bare Allocate stays available for what-if queries.

SEE ALSO:
  - ledger.go: Remaining, which the walk consults
  - errors.go: ExhaustedError
*/
package leave

import "github.com/warp/leave-ledger/calendar"

// Allocation is the planner's decision: which type to charge, and whether
// it differs from the requested one.
type Allocation struct {
	Type     Type
	Cascaded bool
}

// Allocate picks the leave type a record on the given date should be
// charged to. asOf is the reference date for expiry evaluation.
func (l *Ledger) Allocate(employee string, date calendar.Date, requested Type, asOf calendar.Date) (Allocation, error) {
	return l.AllocateExcluding(employee, date, requested, asOf, "")
}

// AllocateExcluding is Allocate with one record left out of the balance
// computation - used when deciding whether an edit-in-place still fits.
func (l *Ledger) AllocateExcluding(employee string, date calendar.Date, requested Type, asOf calendar.Date, excludeID string) (Allocation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allocateLocked(employee, date, requested, asOf, excludeID)
}

// AllocateAndAdd decides and commits in one critical section: the record is
// filed under the allocated type before the mutex is released, so two
// callers racing for the last remaining day cannot both be approved.
func (l *Ledger) AllocateAndAdd(employee string, date calendar.Date, requested Type, asOf calendar.Date, note string) (Allocation, Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	alloc, err := l.allocateLocked(employee, date, requested, asOf, "")
	if err != nil {
		return Allocation{}, Record{}, err
	}
	rec := l.addLocked(employee, date.String(), alloc.Type, note)
	return alloc, rec, nil
}

// AllocateAndUpdate is the edit-in-place counterpart: it re-decides with
// the record under edit excluded from its own balance and replaces it, all
// inside one critical section.
func (l *Ledger) AllocateAndUpdate(id string, date calendar.Date, requested Type, asOf calendar.Date, note string) (Allocation, Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var current *Record
	for i := range l.records {
		if l.records[i].ID == id {
			current = &l.records[i]
			break
		}
	}
	if current == nil {
		return Allocation{}, Record{}, ErrRecordNotFound
	}

	alloc, err := l.allocateLocked(current.Employee, date, requested, asOf, id)
	if err != nil {
		return Allocation{}, Record{}, err
	}

	updated := Record{
		ID:       id,
		Employee: current.Employee,
		Date:     date.String(),
		Type:     alloc.Type,
		Note:     note,
	}
	l.warnIfMalformed(updated)
	*current = updated
	return alloc, updated, nil
}

func (l *Ledger) allocateLocked(employee string, date calendar.Date, requested Type, asOf calendar.Date, excludeID string) (Allocation, error) {
	if l.remainingLocked(employee, date, requested, asOf, excludeID).IsPositive() {
		return Allocation{Type: requested}, nil
	}

	tried := []Type{requested}
	if rank := cascadeRank(requested); rank >= 0 {
		for _, fallback := range CascadeOrder[rank+1:] {
			if l.remainingLocked(employee, date, fallback, asOf, excludeID).IsPositive() {
				return Allocation{Type: fallback, Cascaded: true}, nil
			}
			tried = append(tried, fallback)
		}
	}

	return Allocation{}, &ExhaustedError{
		Employee:  employee,
		Requested: requested,
		Tried:     tried,
	}
}
