/*
handlers.go - HTTP API handlers for the leave and shift-exchange ledgers

PURPOSE:
  Exposes the accounting core via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                     List the roster
    POST   /api/employees                     Enroll an employee
    GET    /api/employees/{name}/schedule     Dated shift assignments
    POST   /api/employees/{name}/shifts       Add one shift on one date
    DELETE /api/employees/{name}/shifts       Remove one shift on one date
    GET    /api/employees/{name}/records      Leave records of one employee
    GET    /api/employees/{name}/balance      Remaining balance for a type

  Leave:
    GET    /api/records                       All leave records
    POST   /api/records                       File a record (allocate + commit)
    PUT    /api/records/{id}                  Edit in place (re-allocates)
    DELETE /api/records/{id}                  Delete a record
    GET    /api/quotas                        All quota entries
    PUT    /api/quotas                        Set one allotment

  Exchanges:
    POST   /api/exchanges/swap                Two-party trade
    POST   /api/exchanges/restore             Undo the latest trade
    GET    /api/exchanges/check               HasExchange lookup
    GET    /api/exchanges                     Trade log (?date= filters)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (ledgers)
  4. Persist a snapshot after a successful mutation
  5. Serialize response

ERROR HANDLING:
  Domain rejections surface with their message verbatim:
  - 400: Validation rejections, invalid input
  - 404: Unknown employee, record or exchange transaction
  - 409: Quota exhausted across the whole cascade
  - 500: Persistence faults

BALANCE QUERIES:
  Every balance answer is relative to an explicit as_of date supplied by the
  client; the server never consults the wall clock for accounting decisions.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/shifts"
	"github.com/warp/leave-ledger/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
//
// Mutating handlers serialize behind mu from the domain mutation through the
// snapshot capture: each request is served on its own goroutine, and a
// capture racing a mutation could persist a torn snapshot (a transaction
// without its schedule effect, a record without its quota).
type Handler struct {
	Leave  *leave.Ledger
	Shifts *shifts.Ledger
	Store  *sqlite.Store
	Log    *zap.Logger

	mu sync.Mutex
}

// NewHandler creates a new handler. store may be nil for a purely in-memory
// server; log may be nil.
func NewHandler(ll *leave.Ledger, sl *shifts.Ledger, store *sqlite.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Leave: ll, Shifts: sl, Store: store, Log: log}
}

// persist writes a full snapshot after a successful mutation. The mutation
// itself already committed in memory; a persistence fault is logged and
// reported but does not roll it back.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request) bool {
	if h.Store == nil {
		return true
	}
	if err := h.Store.Save(r.Context(), sqlite.Capture(h.Leave, h.Shifts)); err != nil {
		h.Log.Error("snapshot save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to persist state", err)
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	names := h.Shifts.Employees()
	dtos := make([]EmployeeDTO, len(names))
	for i, n := range names {
		dtos[i] = EmployeeDTO{Name: n}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee enrolls an employee with an empty schedule.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.Shifts.AddEmployee(req.Name)
	if !h.persist(w, r) {
		return
	}
	writeJSON(w, http.StatusCreated, EmployeeDTO{Name: req.Name})
}

// GetSchedule returns one employee's dated assignments.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if !h.Shifts.HasEmployee(name) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	sched := h.Shifts.ScheduleOf(name)
	dtos := make([]AssignmentDTO, 0, len(sched))
	for _, d := range sched.Dates() {
		a, _ := sched.At(d)
		dtos = append(dtos, AssignmentDTO{
			Date:   d.String(),
			Shifts: shiftNames(a),
			Single: a.IsSingle(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddShift puts one shift on one date, enrolling the employee if needed.
func (h *Handler) AddShift(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	var req ShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Shift == "" {
		writeError(w, http.StatusBadRequest, "Shift is required", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.Shifts.AddShift(name, d, shifts.Shift(req.Shift))
	if !h.persist(w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveShift takes one shift off one date. Removing an absent shift is a
// no-op, mirroring the store semantics.
func (h *Handler) RemoveShift(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	var req ShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if !h.Shifts.HasEmployee(name) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.Shifts.RemoveShift(name, d, shifts.Shift(req.Shift))
	if !h.persist(w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEmployeeRecords returns one employee's leave records.
func (h *Handler) GetEmployeeRecords(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	records := h.Leave.RecordsOf(name)
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance answers the remaining balance for one employee and leave type.
// Query params: type (required), date (the day the balance is for, required),
// as_of (expiry reference date, defaults to date).
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	q := r.URL.Query()

	leaveType := leave.Type(q.Get("type"))
	if leaveType == "" {
		writeError(w, http.StatusBadRequest, "Query param 'type' is required", nil)
		return
	}
	d, err := calendar.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'date' (use YYYY-MM-DD)", err)
		return
	}
	asOf := d
	if s := q.Get("as_of"); s != "" {
		if asOf, err = calendar.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'as_of' (use YYYY-MM-DD)", err)
			return
		}
	}

	year := calendar.AccountingYear(d, leaveType.IsAnnual())
	writeJSON(w, http.StatusOK, BalanceDTO{
		Employee:  name,
		Type:      string(leaveType),
		Year:      year,
		Quota:     h.Leave.Quota(name, year, leaveType).String(),
		Used:      h.Leave.Usage(name, year, leaveType).String(),
		Remaining: h.Leave.Remaining(name, d, leaveType, asOf).String(),
	})
}

// =============================================================================
// LEAVE RECORD HANDLERS
// =============================================================================

// ListRecords returns every leave record.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records := h.Leave.Records()
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRecord allocates a leave type for the request and commits the record
// under it, in one critical section on the ledger: concurrent requests for
// the last remaining day cannot both be approved. The response reports
// whether a cascade fallback was charged.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Employee == "" {
		writeError(w, http.StatusBadRequest, "Employee is required", nil)
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	asOf, ok := h.parseAsOf(w, req.AsOf, d)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	alloc, rec, err := h.Leave.AllocateAndAdd(req.Employee, d, leave.Type(req.Type), asOf, req.Note)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !h.persist(w, r) {
		return
	}
	writeJSON(w, http.StatusCreated, AllocationDTO{
		Record:   toRecordDTO(rec),
		Cascaded: alloc.Cascaded,
	})
}

// UpdateRecord edits a record in place. The record under edit is excluded
// from the balance computation so moving it within the same type never
// rejects against its own usage.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	asOf, ok := h.parseAsOf(w, req.AsOf, d)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	alloc, updated, err := h.Leave.AllocateAndUpdate(id, d, leave.Type(req.Type), asOf, req.Note)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !h.persist(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, AllocationDTO{
		Record:   toRecordDTO(updated),
		Cascaded: alloc.Cascaded,
	})
}

// DeleteRecord removes a leave record.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Leave.DeleteRecord(id); err != nil {
		writeRejection(w, err)
		return
	}
	if !h.persist(w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseAsOf(w http.ResponseWriter, raw string, fallback calendar.Date) (calendar.Date, bool) {
	if raw == "" {
		return fallback, true
	}
	asOf, err := calendar.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return calendar.Date{}, false
	}
	return asOf, true
}

// =============================================================================
// QUOTA HANDLERS
// =============================================================================

// ListQuotas returns every allotment entry.
func (h *Handler) ListQuotas(w http.ResponseWriter, r *http.Request) {
	entries := h.Leave.Quotas()
	dtos := make([]QuotaDTO, len(entries))
	for i, q := range entries {
		dtos[i] = toQuotaDTO(q)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetQuota configures one allotment.
func (h *Handler) SetQuota(w http.ResponseWriter, r *http.Request) {
	var req QuotaDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Employee == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "Employee and type are required", nil)
		return
	}
	quota, err := leave.ParseDays(req.Quota)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quota value", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Leave.SetQuota(req.Employee, req.FiscalYear, leave.Type(req.Type), quota); err != nil {
		writeRejection(w, err)
		return
	}
	if !h.persist(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// EXCHANGE HANDLERS
// =============================================================================

// Swap executes a two-party trade.
func (h *Handler) Swap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dateA, err := calendar.ParseDate(req.DateA)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_a format (use YYYY-MM-DD)", err)
		return
	}
	dateB, err := calendar.ParseDate(req.DateB)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_b format (use YYYY-MM-DD)", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	tx, err := h.Shifts.Swap(req.PersonA, req.PersonB, dateA, dateB)
	if err != nil {
		writeRejection(w, err)
		return
	}
	if !h.persist(w, r) {
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// RestoreSwap undoes the most recent trade referencing the person at the date.
func (h *Handler) RestoreSwap(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.Shifts.Restore(req.Person, d); err != nil {
		writeRejection(w, err)
		return
	}
	if !h.persist(w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckExchange answers whether a trade placed something for the person at
// the date. Query params: person, date, shift (optional, repeatable).
func (h *Handler) CheckExchange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	person := q.Get("person")
	d, err := calendar.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'date' (use YYYY-MM-DD)", err)
		return
	}

	var narrowing []shifts.Shift
	for _, s := range q["shift"] {
		narrowing = append(narrowing, shifts.Shift(s))
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"exchanged": h.Shifts.HasExchange(person, d, narrowing...),
	})
}

// ListTransactions returns the trade log, optionally filtered to one date.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var txs []shifts.Transaction
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := calendar.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'date' (use YYYY-MM-DD)", err)
			return
		}
		txs = h.Shifts.TransactionsOn(d)
	} else {
		txs = h.Shifts.Transactions()
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeRejection maps a domain rejection to a 4xx status and surfaces its
// message verbatim.
func writeRejection(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, leave.ErrRecordNotFound),
		errors.Is(err, shifts.ErrEmployeeNotFound),
		errors.Is(err, shifts.ErrNoExchangeRecord):
		status = http.StatusNotFound
	case errors.Is(err, leave.ErrQuotaExhausted):
		status = http.StatusConflict
	case leave.IsRejection(err), shifts.IsRejection(err):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
