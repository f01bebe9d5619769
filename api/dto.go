/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/shifts"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents a roster entry in API responses.
type EmployeeDTO struct {
	Name string `json:"name"`
}

// CreateEmployeeRequest is the request to enroll an employee.
type CreateEmployeeRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// LEAVE
// =============================================================================

// RecordDTO represents a leave record in API responses.
type RecordDTO struct {
	ID       string `json:"id"`
	Employee string `json:"employee"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	Note     string `json:"note,omitempty"`
}

// CreateRecordRequest is the request to file a leave record. The type is the
// requested one; the server may charge a cascade fallback instead.
type CreateRecordRequest struct {
	Employee string `json:"employee"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	Note     string `json:"note,omitempty"`
	AsOf     string `json:"as_of,omitempty"` // defaults to the record date
}

// UpdateRecordRequest is the request to edit a record in place.
type UpdateRecordRequest struct {
	Date string `json:"date"`
	Type string `json:"type"`
	Note string `json:"note,omitempty"`
	AsOf string `json:"as_of,omitempty"`
}

// AllocationDTO reports where a record was actually charged.
type AllocationDTO struct {
	Record   RecordDTO `json:"record"`
	Cascaded bool      `json:"cascaded"`
}

// QuotaDTO represents one allotment entry.
type QuotaDTO struct {
	Employee   string `json:"employee"`
	FiscalYear int    `json:"fiscal_year"`
	Type       string `json:"type"`
	Quota      string `json:"quota"`
}

// BalanceDTO is the remaining-balance answer for one employee and type.
type BalanceDTO struct {
	Employee  string `json:"employee"`
	Type      string `json:"type"`
	Year      int    `json:"year"`
	Quota     string `json:"quota"`
	Used      string `json:"used"`
	Remaining string `json:"remaining"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// AssignmentDTO is one dated schedule entry. Shifts always lists every
// shift; Single marks the scalar case.
type AssignmentDTO struct {
	Date   string   `json:"date"`
	Shifts []string `json:"shifts"`
	Single bool     `json:"single"`
}

// ShiftRequest adds or removes one shift on one date.
type ShiftRequest struct {
	Date  string `json:"date"`
	Shift string `json:"shift"`
}

// SwapRequest asks for a two-party trade.
type SwapRequest struct {
	PersonA string `json:"person_a"`
	DateA   string `json:"date_a"`
	PersonB string `json:"person_b"`
	DateB   string `json:"date_b"`
}

// RestoreRequest undoes the most recent trade referencing the person at
// the date.
type RestoreRequest struct {
	Person string `json:"person"`
	Date   string `json:"date"`
}

// TransactionDTO represents a completed trade.
type TransactionDTO struct {
	ID      string   `json:"id"`
	PersonA string   `json:"person_a"`
	PersonB string   `json:"person_b"`
	DateA   string   `json:"date_a"`
	DateB   string   `json:"date_b"`
	ShiftA  []string `json:"shift_a"`
	ShiftB  []string `json:"shift_b"`
	At      string   `json:"at"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRecordDTO(r leave.Record) RecordDTO {
	return RecordDTO{
		ID:       r.ID,
		Employee: r.Employee,
		Date:     r.Date,
		Type:     string(r.Type),
		Note:     r.Note,
	}
}

func toQuotaDTO(q leave.QuotaEntry) QuotaDTO {
	return QuotaDTO{
		Employee:   q.Employee,
		FiscalYear: q.FiscalYear,
		Type:       string(q.Type),
		Quota:      q.Quota.String(),
	}
}

func shiftNames(a shifts.Assignment) []string {
	ss := a.Shifts()
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = string(s)
	}
	return names
}

func toTransactionDTO(tx shifts.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:      tx.ID,
		PersonA: tx.PersonA,
		PersonB: tx.PersonB,
		DateA:   tx.DateA.String(),
		DateB:   tx.DateB.String(),
		ShiftA:  shiftNames(tx.ShiftA),
		ShiftB:  shiftNames(tx.ShiftB),
		At:      tx.At.UTC().Format(time.RFC3339),
	}
}
