/*
errors.go - Error types for the leave core

PURPOSE:
  All error types for leave accounting in one place. The taxonomy matters:
  quota exhaustion is a planning outcome the caller shows to the user, not a
  fault, and nothing in this package raises an unrecoverable error for bad
  input.

ERROR CATEGORIES:
  1. Quota exhaustion - allocation found no type with balance
  2. Validation rejection - bad quota configuration, unknown record
  3. Not found - record lookups for edit/delete

USAGE:
  Callers branch with errors.Is / errors.As:

    alloc, err := ledger.Allocate(emp, day, leave.TypeAnnual, today)
    var ex *leave.ExhaustedError
    if errors.As(err, &ex) {
        // show ex.Error() verbatim, do not persist the record
    }

SEE ALSO:
  - planner.go: returns ExhaustedError
  - ledger.go: returns ErrRecordNotFound, ErrNegativeQuota
*/
package leave

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrQuotaExhausted is returned when allocation walked the cascade order
	// and found no type with remaining balance.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrRecordNotFound is returned when an update or delete references a
	// record id the ledger does not hold.
	ErrRecordNotFound = errors.New("leave record not found")

	// ErrNegativeQuota is returned when a caller tries to configure a
	// negative allotment.
	ErrNegativeQuota = errors.New("quota must not be negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ExhaustedError reports that a leave request cannot be charged anywhere:
// the requested type and every cascade fallback after it are out of balance.
// This is a planning outcome, not a fault; the UI surfaces the message
// verbatim and refuses to persist the record.
type ExhaustedError struct {
	Employee  string
	Requested Type
	Tried     []Type // requested type plus every fallback walked, in order
}

func (e *ExhaustedError) Error() string {
	names := make([]string, len(e.Tried))
	for i, t := range e.Tried {
		names[i] = string(t)
	}
	return fmt.Sprintf("no remaining balance for %s (tried %s)",
		e.Requested, strings.Join(names, ", "))
}

func (e *ExhaustedError) Unwrap() error { return ErrQuotaExhausted }

// IsRejection reports whether err is a caller-facing rejection rather than
// an internal fault. HTTP layers map these to 4xx statuses.
func IsRejection(err error) bool {
	return errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrNegativeQuota)
}
