/*
exchange.go - Two-party shift trades and their exact reversal

PURPOSE:
  Executes swaps between two employees' dated shift assignments and undoes
  them. Each successful swap files one immutable transaction under BOTH
  calendar dates it touches; restore inverts the trade from the recorded
  original values and deletes the transaction. A trade reverses exactly
  once: Active -> Reversed is the whole lifecycle, and a reversed (deleted)
  transaction cannot be restored again.

SWAP SEMANTICS:
  Same date:  the two employees exchange their stored assignment values in
              place - no date movement.
  Cross date: each employee's original assignment leaves their own date and
              lands on the other party's date, merging into whatever that
              date already carries (this is why dates are set-valued).

RESTORE SEMANTICS:
  Defined purely in terms of the transaction's recorded originals, never the
  current board state: the swapped-in shifts are removed and the originals
  added back through the store's Add/Remove, so unrelated assignments that
  arrived on either date after the trade survive the reversal.

ATOMICITY:
  A swap either fully commits (both schedule mutations plus the two date
  filings) or rejects without touching anything. Validation happens up
  front; mutations are staged on schedule copies and committed together
  under the ledger mutex. Restore likewise unfiles from both date buckets
  in the same critical section - a transaction filed under only one date
  would be a programming error, not a data state.

SEE ALSO:
  - assignment.go, schedule.go: the store the trades mutate
  - errors.go: the rejection taxonomy
*/
package shifts

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-ledger/calendar"
)

// =============================================================================
// TRANSACTION - Immutable record of one trade
// =============================================================================

// Transaction records a completed swap. It is immutable once created;
// reversal deletes it rather than mutating it.
type Transaction struct {
	ID      string
	PersonA string
	PersonB string
	DateA   calendar.Date
	DateB   calendar.Date

	// The assignments each party held at their own date when the trade
	// executed. Restore is computed from these, not from the board.
	ShiftA Assignment
	ShiftB Assignment

	At time.Time
}

// SameDate reports an in-place trade.
func (t Transaction) SameDate() bool { return t.DateA == t.DateB }

// References reports whether the person is a party to the trade.
func (t Transaction) References(person string) bool {
	return t.PersonA == person || t.PersonB == person
}

// placedFor returns what the trade put on the board for the person at the
// date, if anything. This is what HasExchange narrows on.
func (t Transaction) placedFor(person string, d calendar.Date) (Assignment, bool) {
	if t.SameDate() {
		if d != t.DateA {
			return Assignment{}, false
		}
		switch person {
		case t.PersonA:
			return t.ShiftB, true // A took over B's value
		case t.PersonB:
			return t.ShiftA, true
		}
		return Assignment{}, false
	}
	// Cross-date: each party's own original landed on the other's date.
	if person == t.PersonA && d == t.DateB {
		return t.ShiftA, true
	}
	if person == t.PersonB && d == t.DateA {
		return t.ShiftB, true
	}
	return Assignment{}, false
}

// =============================================================================
// EXCHANGE LEDGER - Roster, schedules and the trade log
// =============================================================================

// Ledger owns the employee roster, every employee's shift schedule, and the
// per-date index of exchange transactions. All mutating operations are
// serialized behind one mutex; the swap decision reads balance-like state
// and then writes, which is not safe under interleaving.
type Ledger struct {
	mu        sync.RWMutex
	schedules map[string]Schedule
	byID      map[string]Transaction
	byDate    map[calendar.Date][]string // transaction ids, oldest first

	now   func() time.Time
	newID func() string
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithIDSource overrides swap-id generation.
func WithIDSource(newID func() string) LedgerOption {
	return func(l *Ledger) { l.newID = newID }
}

// NewLedger creates an empty exchange ledger.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		schedules: make(map[string]Schedule),
		byID:      make(map[string]Transaction),
		byDate:    make(map[calendar.Date][]string),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// ROSTER AND DIRECT SCHEDULE EDITS
// =============================================================================

// AddEmployee puts an employee on the roster with an empty schedule.
// Adding an existing employee is a no-op.
func (l *Ledger) AddEmployee(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.schedules[name]; !ok {
		l.schedules[name] = make(Schedule)
	}
}

// Employees returns the roster, sorted.
func (l *Ledger) Employees() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.schedules))
	for name := range l.schedules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasEmployee reports roster membership.
func (l *Ledger) HasEmployee(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.schedules[name]
	return ok
}

// AddShift assigns a shift to an employee's date (the calendar UI's direct
// edit, outside any trade). Unknown employees are enrolled on first use.
func (l *Ledger) AddShift(person string, d calendar.Date, shift Shift) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.schedules[person]; !ok {
		l.schedules[person] = make(Schedule)
	}
	l.schedules[person].Add(d, shift)
}

// RemoveShift removes a shift from an employee's date; absent shifts are a
// no-op.
func (l *Ledger) RemoveShift(person string, d calendar.Date, shift Shift) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sched, ok := l.schedules[person]; ok {
		sched.Remove(d, shift)
	}
}

// ScheduleOf returns a copy of one employee's schedule.
func (l *Ledger) ScheduleOf(person string) Schedule {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if sched, ok := l.schedules[person]; ok {
		return sched.Clone()
	}
	return nil
}

// =============================================================================
// SWAP
// =============================================================================

// Swap trades the assignments of (personA, dateA) and (personB, dateB) and
// files the transaction under both dates. On any precondition failure it
// rejects without mutating anything.
func (l *Ledger) Swap(personA, personB string, dateA, dateB calendar.Date) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	schedA, ok := l.schedules[personA]
	if !ok {
		return Transaction{}, &UnknownEmployeeError{Person: personA}
	}
	schedB, ok := l.schedules[personB]
	if !ok {
		return Transaction{}, &UnknownEmployeeError{Person: personB}
	}
	if personA == personB && dateA == dateB {
		return Transaction{}, ErrSelfExchange
	}

	origA, ok := schedA.At(dateA)
	if !ok {
		return Transaction{}, &NoAssignmentError{Person: personA, Date: dateA}
	}
	origB, ok := schedB.At(dateB)
	if !ok {
		return Transaction{}, &NoAssignmentError{Person: personB, Date: dateB}
	}

	tx := Transaction{
		ID:      l.newID(),
		PersonA: personA,
		PersonB: personB,
		DateA:   dateA,
		DateB:   dateB,
		ShiftA:  origA,
		ShiftB:  origB,
		At:      l.now(),
	}

	// Stage the schedule mutations on copies, then commit together with
	// the two date filings.
	nextA, nextB := schedA.Clone(), schedB.Clone()
	if personA == personB {
		nextB = nextA
	}
	if tx.SameDate() {
		// In-place value exchange, no date movement.
		nextA[dateA] = origB
		nextB[dateB] = origA
	} else {
		// Each party's assignment moves to the other party's date,
		// merging into whatever that date already carries.
		for _, s := range origA.Shifts() {
			nextA.Remove(dateA, s)
		}
		for _, s := range origB.Shifts() {
			nextB.Remove(dateB, s)
		}
		for _, s := range origA.Shifts() {
			nextA.Add(dateB, s)
		}
		for _, s := range origB.Shifts() {
			nextB.Add(dateA, s)
		}
	}

	l.schedules[personA] = nextA
	l.schedules[personB] = nextB
	l.file(tx)
	return tx, nil
}

// =============================================================================
// RESTORE
// =============================================================================

// Restore reverses the most recent trade filed under the date that
// references the person, then deletes the transaction from both its date
// buckets. A second restore of the same trade rejects cleanly.
func (l *Ledger) Restore(person string, d calendar.Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.findLocked(person, d)
	if !ok {
		return &NoExchangeError{Person: person, Date: d}
	}

	// A party that left the roster after the trade has no schedule to put
	// the originals back onto.
	schedA, ok := l.schedules[tx.PersonA]
	if !ok {
		return &UnknownEmployeeError{Person: tx.PersonA}
	}
	schedB, ok := l.schedules[tx.PersonB]
	if !ok {
		return &UnknownEmployeeError{Person: tx.PersonB}
	}

	nextA, nextB := schedA.Clone(), schedB.Clone()
	if tx.PersonA == tx.PersonB {
		nextB = nextA
	}
	if tx.SameDate() {
		// Take the swapped-in values off and put the originals back,
		// preserving anything added to the date since the trade.
		for _, s := range tx.ShiftB.Shifts() {
			nextA.Remove(tx.DateA, s)
		}
		for _, s := range tx.ShiftA.Shifts() {
			nextB.Remove(tx.DateB, s)
		}
		for _, s := range tx.ShiftA.Shifts() {
			nextA.Add(tx.DateA, s)
		}
		for _, s := range tx.ShiftB.Shifts() {
			nextB.Add(tx.DateB, s)
		}
	} else {
		for _, s := range tx.ShiftA.Shifts() {
			nextA.Remove(tx.DateB, s)
		}
		for _, s := range tx.ShiftB.Shifts() {
			nextB.Remove(tx.DateA, s)
		}
		for _, s := range tx.ShiftA.Shifts() {
			nextA.Add(tx.DateA, s)
		}
		for _, s := range tx.ShiftB.Shifts() {
			nextB.Add(tx.DateB, s)
		}
	}

	l.schedules[tx.PersonA] = nextA
	l.schedules[tx.PersonB] = nextB
	l.unfile(tx)
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// HasExchange reports whether a trade filed under the date references the
// person. With shifts given, it narrows to "are these shift values among
// what the trade placed there for this person".
func (l *Ledger) HasExchange(person string, d calendar.Date, shift ...Shift) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, id := range l.byDate[d] {
		tx := l.byID[id]
		if !tx.References(person) {
			continue
		}
		if len(shift) == 0 {
			return true
		}
		if placed, ok := tx.placedFor(person, d); ok && containsAll(placed, shift) {
			return true
		}
	}
	return false
}

func containsAll(a Assignment, shifts []Shift) bool {
	for _, s := range shifts {
		if !a.Contains(s) {
			return false
		}
	}
	return true
}

// TransactionsOn returns the trades filed under a date, oldest first.
func (l *Ledger) TransactionsOn(d calendar.Date) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transaction, 0, len(l.byDate[d]))
	for _, id := range l.byDate[d] {
		out = append(out, l.byID[id])
	}
	return out
}

// Transactions returns every active trade, oldest first.
func (l *Ledger) Transactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transaction, 0, len(l.byID))
	for _, tx := range l.byID {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Schedules returns a deep copy of every employee's schedule.
func (l *Ledger) Schedules() map[string]Schedule {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Schedule, len(l.schedules))
	for name, sched := range l.schedules {
		out[name] = sched.Clone()
	}
	return out
}

// ReplaceAll swaps in a freshly loaded state. Used by the persistence
// collaborator at startup.
func (l *Ledger) ReplaceAll(schedules map[string]Schedule, txs []Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.schedules = make(map[string]Schedule, len(schedules))
	for name, sched := range schedules {
		l.schedules[name] = sched.Clone()
	}
	l.byID = make(map[string]Transaction, len(txs))
	l.byDate = make(map[calendar.Date][]string)
	for _, tx := range txs {
		l.file(tx)
	}
}

// =============================================================================
// DATE-BUCKET INDEX
// =============================================================================

// file records the transaction under both of its dates (once, when equal).
func (l *Ledger) file(tx Transaction) {
	l.byID[tx.ID] = tx
	l.byDate[tx.DateA] = append(l.byDate[tx.DateA], tx.ID)
	if !tx.SameDate() {
		l.byDate[tx.DateB] = append(l.byDate[tx.DateB], tx.ID)
	}
}

// unfile deletes the transaction from both date buckets.
func (l *Ledger) unfile(tx Transaction) {
	delete(l.byID, tx.ID)
	l.byDate[tx.DateA] = dropID(l.byDate[tx.DateA], tx.ID)
	if len(l.byDate[tx.DateA]) == 0 {
		delete(l.byDate, tx.DateA)
	}
	if !tx.SameDate() {
		l.byDate[tx.DateB] = dropID(l.byDate[tx.DateB], tx.ID)
		if len(l.byDate[tx.DateB]) == 0 {
			delete(l.byDate, tx.DateB)
		}
	}
}

// findLocked returns the most recent trade under the date referencing the
// person.
func (l *Ledger) findLocked(person string, d calendar.Date) (Transaction, bool) {
	ids := l.byDate[d]
	for i := len(ids) - 1; i >= 0; i-- {
		if tx := l.byID[ids[i]]; tx.References(person) {
			return tx, true
		}
	}
	return Transaction{}, false
}

func dropID(ids []string, id string) []string {
	for i, have := range ids {
		if have == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
