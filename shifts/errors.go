/*
errors.go - Error types for shift exchanges

PURPOSE:
  Every misuse of the exchange ledger yields a typed rejection the caller
  can show to the user; nothing here is a fatal fault. The structured types
  name the offending side, as the rejection messages must.

ERROR CATEGORIES:
  1. Validation rejection - unknown employee, self-swap, missing assignment
  2. Transaction-not-found - restore on a date with no exchange record

SEE ALSO:
  - exchange.go: returns these from Swap and Restore
*/
package shifts

import (
	"errors"
	"fmt"

	"github.com/warp/leave-ledger/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a swap references an employee
	// that is not on the roster.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrSelfExchange is returned for a swap of one person's date with
	// itself - there is nothing to trade.
	ErrSelfExchange = errors.New("cannot exchange a shift with itself")

	// ErrNoAssignment is returned when one side of a swap has no shift on
	// the requested date. A swap cannot manufacture an assignment.
	ErrNoAssignment = errors.New("no shift assigned on requested date")

	// ErrNoExchangeRecord is returned by Restore when the date holds no
	// transaction referencing the person. Retrying a restore after it
	// succeeded keeps failing with this error - a trade reverses once.
	ErrNoExchangeRecord = errors.New("no exchange record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownEmployeeError names the missing party.
type UnknownEmployeeError struct {
	Person string
}

func (e *UnknownEmployeeError) Error() string {
	return fmt.Sprintf("employee %q not found", e.Person)
}

func (e *UnknownEmployeeError) Unwrap() error { return ErrEmployeeNotFound }

// NoAssignmentError names the side of a swap that has nothing to trade.
type NoAssignmentError struct {
	Person string
	Date   calendar.Date
}

func (e *NoAssignmentError) Error() string {
	return fmt.Sprintf("%s has no shift on %s", e.Person, e.Date)
}

func (e *NoAssignmentError) Unwrap() error { return ErrNoAssignment }

// NoExchangeError reports a failed restore lookup.
type NoExchangeError struct {
	Person string
	Date   calendar.Date
}

func (e *NoExchangeError) Error() string {
	return fmt.Sprintf("no exchange record for %s on %s", e.Person, e.Date)
}

func (e *NoExchangeError) Unwrap() error { return ErrNoExchangeRecord }

// IsRejection reports whether err is a caller-facing rejection rather than
// an internal fault. HTTP layers map these to 4xx statuses.
func IsRejection(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrSelfExchange) ||
		errors.Is(err, ErrNoAssignment) ||
		errors.Is(err, ErrNoExchangeRecord)
}
