/*
handlers_test.go - HTTP tests for the API layer

Tests for:
- Roster and schedule endpoints
- Leave record filing with cascade allocation
- Balance queries with explicit as_of
- Swap / restore / check round trips over HTTP
- Snapshot persistence after mutations
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-ledger/api"
	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/shifts"
	"github.com/warp/leave-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router http.Handler
	leave  *leave.Ledger
	shifts *shifts.Ledger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ll := leave.NewLedger()
	sl := shifts.NewLedger()
	h := api.NewHandler(ll, sl, nil, nil)
	return &testServer{router: api.NewRouter(h), leave: ll, shifts: sl}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func mustDate(t *testing.T, s string) calendar.Date {
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

// =============================================================================
// EMPLOYEES AND SCHEDULES
// =============================================================================

func TestEmployees_CreateAndList(t *testing.T) {
	// GIVEN: An empty roster
	// WHEN: Enrolling two employees and listing
	// THEN: Both appear, sorted

	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{Name: "bob"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{Name: "alice"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.EmployeeDTO](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Name)
	assert.Equal(t, "bob", list[1].Name)
}

func TestSchedule_AddRemoveShift(t *testing.T) {
	// GIVEN: An employee with one shift
	// WHEN: Adding a second shift on the same date and removing the first
	// THEN: The schedule reflects the set upgrade and the collapse

	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/employees/alice/shifts",
		api.ShiftRequest{Date: "2024-07-01", Shift: "day"})
	ts.do(t, http.MethodPost, "/api/employees/alice/shifts",
		api.ShiftRequest{Date: "2024-07-01", Shift: "night"})

	rec := ts.do(t, http.MethodGet, "/api/employees/alice/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sched := decode[[]api.AssignmentDTO](t, rec)
	require.Len(t, sched, 1)
	assert.Equal(t, []string{"day", "night"}, sched[0].Shifts)
	assert.False(t, sched[0].Single)

	rec = ts.do(t, http.MethodDelete, "/api/employees/alice/shifts",
		api.ShiftRequest{Date: "2024-07-01", Shift: "day"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/employees/alice/schedule", nil)
	sched = decode[[]api.AssignmentDTO](t, rec)
	require.Len(t, sched, 1)
	assert.Equal(t, []string{"night"}, sched[0].Shifts)
	assert.True(t, sched[0].Single)
}

func TestSchedule_UnknownEmployee(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/employees/ghost/schedule", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// LEAVE RECORDS
// =============================================================================

func TestCreateRecord_CascadesWhenRequestedExhausted(t *testing.T) {
	// GIVEN: No annual quota but five sick days
	// WHEN: Filing an annual-leave record
	// THEN: The record commits under paid_personal_sick_leave, flagged cascaded

	ts := newTestServer(t)
	require.NoError(t, ts.leave.SetQuota("alice", 2024, leave.TypePaidPersonalSick, leave.DaysOf(5)))

	rec := ts.do(t, http.MethodPost, "/api/records", api.CreateRecordRequest{
		Employee: "alice",
		Date:     "2024-06-10",
		Type:     "annual_leave",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	alloc := decode[api.AllocationDTO](t, rec)
	assert.True(t, alloc.Cascaded)
	assert.Equal(t, "paid_personal_sick_leave", alloc.Record.Type)
	assert.Equal(t, "2024-06-10", alloc.Record.Date)

	// The committed record consumed sick balance.
	usage := ts.leave.Usage("alice", 2024, leave.TypePaidPersonalSick)
	assert.True(t, usage.Equal(leave.DaysOf(1)))
}

func TestCreateRecord_ExhaustedEverywhere(t *testing.T) {
	// GIVEN: No quota anywhere
	// WHEN: Filing an annual-leave record
	// THEN: 409 with the rejection message naming every type tried

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/records", api.CreateRecordRequest{
		Employee: "alice",
		Date:     "2024-06-10",
		Type:     "annual_leave",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t,
		"no remaining balance for annual_leave (tried annual_leave, paid_personal_sick_leave)",
		resp.Error)
}

func TestCreateRecord_InvalidDate(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/records", api.CreateRecordRequest{
		Employee: "alice",
		Date:     "2024-02-30",
		Type:     "annual_leave",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRecord_EditInPlaceExcludesItself(t *testing.T) {
	// GIVEN: A quota of one day, fully used by one record
	// WHEN: Moving that record to another date within the same type
	// THEN: The edit succeeds; its own usage does not block it

	ts := newTestServer(t)
	require.NoError(t, ts.leave.SetQuota("alice", 2024, leave.TypeAnnual, leave.DaysOf(1)))
	created := decode[api.AllocationDTO](t, ts.do(t, http.MethodPost, "/api/records",
		api.CreateRecordRequest{Employee: "alice", Date: "2024-06-10", Type: "annual_leave"}))

	rec := ts.do(t, http.MethodPut, "/api/records/"+created.Record.ID, api.UpdateRecordRequest{
		Date: "2024-06-11",
		Type: "annual_leave",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[api.AllocationDTO](t, rec)
	assert.Equal(t, "2024-06-11", updated.Record.Date)
	assert.Equal(t, "annual_leave", updated.Record.Type)
	assert.False(t, updated.Cascaded)
}

func TestDeleteRecord_NotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodDelete, "/api/records/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBalance(t *testing.T) {
	// GIVEN: Quota 10, two distinct annual days used in FY2024
	// WHEN: Querying the balance with an explicit as_of
	// THEN: Quota, usage and remaining come back as decimal strings

	ts := newTestServer(t)
	require.NoError(t, ts.leave.SetQuota("alice", 2024, leave.TypeAnnual, leave.DaysOf(10)))
	ts.leave.AddRecord("alice", "2024-06-10", leave.TypeAnnual, "")
	ts.leave.AddRecord("alice", "2024-06-11", leave.TypeAnnual, "")

	rec := ts.do(t, http.MethodGet,
		"/api/employees/alice/balance?type=annual_leave&date=2024-06-10&as_of=2024-07-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bal := decode[api.BalanceDTO](t, rec)
	assert.Equal(t, 2024, bal.Year)
	assert.Equal(t, "10", bal.Quota)
	assert.Equal(t, "2", bal.Used)
	assert.Equal(t, "8", bal.Remaining)
}

func TestSetQuota_Negative(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPut, "/api/quotas", api.QuotaDTO{
		Employee: "alice", FiscalYear: 2024, Type: "annual_leave", Quota: "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EXCHANGES
// =============================================================================

func exchangeFixture(t *testing.T) *testServer {
	ts := newTestServer(t)
	ts.shifts.AddShift("alice", mustDate(t, "2024-07-01"), "day")
	ts.shifts.AddShift("bob", mustDate(t, "2024-07-05"), "night")
	return ts
}

func TestSwap_CrossDate_ThenRestore(t *testing.T) {
	// GIVEN: alice day@Jul1, bob night@Jul5
	// WHEN: Swapping across dates and then restoring
	// THEN: The trade moves each shift to the other date; restore reverts it

	ts := exchangeFixture(t)

	rec := ts.do(t, http.MethodPost, "/api/exchanges/swap", api.SwapRequest{
		PersonA: "alice", DateA: "2024-07-01",
		PersonB: "bob", DateB: "2024-07-05",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	tx := decode[api.TransactionDTO](t, rec)
	assert.Equal(t, []string{"day"}, tx.ShiftA)
	assert.Equal(t, []string{"night"}, tx.ShiftB)

	// Filed under both dates.
	byDate := decode[[]api.TransactionDTO](t, ts.do(t, http.MethodGet,
		"/api/exchanges?date=2024-07-01", nil))
	require.Len(t, byDate, 1)
	assert.Equal(t, tx.ID, byDate[0].ID)

	// The check endpoint sees the placed value.
	check := decode[map[string]bool](t, ts.do(t, http.MethodGet,
		"/api/exchanges/check?person=alice&date=2024-07-05&shift=day", nil))
	assert.True(t, check["exchanged"])

	rec = ts.do(t, http.MethodPost, "/api/exchanges/restore", api.RestoreRequest{
		Person: "alice", Date: "2024-07-05",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	sched := decode[[]api.AssignmentDTO](t, ts.do(t, http.MethodGet,
		"/api/employees/alice/schedule", nil))
	require.Len(t, sched, 1)
	assert.Equal(t, "2024-07-01", sched[0].Date)
	assert.Equal(t, []string{"day"}, sched[0].Shifts)
}

func TestSwap_UnknownEmployee(t *testing.T) {
	ts := exchangeFixture(t)
	rec := ts.do(t, http.MethodPost, "/api/exchanges/swap", api.SwapRequest{
		PersonA: "alice", DateA: "2024-07-01",
		PersonB: "ghost", DateB: "2024-07-05",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Contains(t, resp.Error, "ghost")
}

func TestRestore_NoExchangeRecord(t *testing.T) {
	ts := exchangeFixture(t)
	rec := ts.do(t, http.MethodPost, "/api/exchanges/restore", api.RestoreRequest{
		Person: "alice", Date: "2024-07-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestMutations_PersistSnapshot(t *testing.T) {
	// GIVEN: A handler wired to an in-memory store
	// WHEN: Enrolling an employee and filing a record over HTTP
	// THEN: A fresh load from the store sees both

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ll := leave.NewLedger()
	sl := shifts.NewLedger()
	require.NoError(t, ll.SetQuota("alice", 2024, leave.TypeAnnual, leave.DaysOf(10)))
	router := api.NewRouter(api.NewHandler(ll, sl, store, nil))

	ts := &testServer{router: router, leave: ll, shifts: sl}
	rec := ts.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{Name: "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/records", api.CreateRecordRequest{
		Employee: "alice", Date: "2024-06-10", Type: "annual_leave",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, snap.Employees)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "2024-06-10", snap.Records[0].Date)
}

func TestRecords_ConcurrentFilingHonorsQuota(t *testing.T) {
	// GIVEN: One marriage day, a store-wired handler, and many callers
	//        racing to claim it
	// THEN: Exactly one filing is approved and the persisted snapshot
	//       holds exactly that one record

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ll := leave.NewLedger()
	sl := shifts.NewLedger()
	require.NoError(t, ll.SetQuota("alice", 2024, leave.TypeMarriage, leave.DaysOf(1)))
	router := api.NewRouter(api.NewHandler(ll, sl, store, nil))

	const callers = 8
	codes := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf bytes.Buffer
			require.NoError(t, json.NewEncoder(&buf).Encode(api.CreateRecordRequest{
				Employee: "alice", Date: "2024-06-10", Type: "marriage_leave",
			}))
			req := httptest.NewRequest(http.MethodPost, "/api/records", &buf)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	approved := 0
	for code := range codes {
		if code == http.StatusCreated {
			approved++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, approved)
	assert.True(t, ll.Usage("alice", 2024, leave.TypeMarriage).Equal(leave.DaysOf(1)))

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, leave.TypeMarriage, snap.Records[0].Type)
}
