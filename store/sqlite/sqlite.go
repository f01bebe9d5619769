/*
Package sqlite persists the two ledgers to a SQLite database.

PURPOSE:
  Serializes the full accounting state - employee roster, leave records,
  quota entries, shift schedules and exchange transactions - to SQLite.
  In production, the same patterns apply to PostgreSQL; only minor SQL
  dialect differences.

MODEL:
  The ledgers are the source of truth at runtime. The store works on whole
  snapshots: Save replaces every table's contents inside one database
  transaction, Load reads everything back so both ledgers can be rebuilt
  via ReplaceAll. There is no per-row update path.

KEY TABLES:
  employees:             The roster, including people with empty schedules
  leave_quotas:          Allotment per (employee, fiscal year, leave type)
  leave_records:         One row per leave usage record; dates stay raw text
                         so malformed historical rows round-trip untouched
  shift_assignments:     One row per (employee, date); the shifts column
                         holds a JSON array of shift names
  exchange_transactions: The swap log, filed under both of its dates

CONCURRENCY:
  Uses sync.Mutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency
  and crash recovery.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snap, err := store.Load(ctx)
  snap.Apply(leaveLedger, shiftLedger)

SEE ALSO:
  - leave/ledger.go: ReplaceAll consuming the leave half of a snapshot
  - shifts/exchange.go: ReplaceAll consuming the shift half
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/shifts"
)

// Store persists ledger snapshots to SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		person TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS leave_quotas (
		employee TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		leave_type TEXT NOT NULL,
		quota TEXT NOT NULL,
		PRIMARY KEY (employee, fiscal_year, leave_type)
	);

	CREATE TABLE IF NOT EXISTS leave_records (
		id TEXT PRIMARY KEY,
		employee TEXT NOT NULL,
		date TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		note TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_leave_records_employee
		ON leave_records(employee);
	CREATE INDEX IF NOT EXISTS idx_leave_records_date
		ON leave_records(date);

	CREATE TABLE IF NOT EXISTS shift_assignments (
		employee TEXT NOT NULL,
		date TEXT NOT NULL,
		shifts TEXT NOT NULL,
		PRIMARY KEY (employee, date)
	);

	CREATE INDEX IF NOT EXISTS idx_shift_assignments_date
		ON shift_assignments(date);

	CREATE TABLE IF NOT EXISTS exchange_transactions (
		id TEXT PRIMARY KEY,
		person_a TEXT NOT NULL,
		person_b TEXT NOT NULL,
		date_a TEXT NOT NULL,
		date_b TEXT NOT NULL,
		shift_a TEXT NOT NULL,
		shift_b TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exchange_transactions_date_a
		ON exchange_transactions(date_a);
	CREATE INDEX IF NOT EXISTS idx_exchange_transactions_date_b
		ON exchange_transactions(date_b);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT - Everything both ledgers hold
// =============================================================================

// Snapshot is the complete persisted state.
type Snapshot struct {
	Employees []string
	Records   []leave.Record
	Quotas    []leave.QuotaEntry
	Schedules map[string]shifts.Schedule
	Exchanges []shifts.Transaction
}

// Capture reads both ledgers into a snapshot.
func Capture(ll *leave.Ledger, sl *shifts.Ledger) Snapshot {
	return Snapshot{
		Employees: sl.Employees(),
		Records:   ll.Records(),
		Quotas:    ll.Quotas(),
		Schedules: sl.Schedules(),
		Exchanges: sl.Transactions(),
	}
}

// Apply rebuilds both ledgers from the snapshot.
func (snap Snapshot) Apply(ll *leave.Ledger, sl *shifts.Ledger) {
	ll.ReplaceAll(snap.Records, snap.Quotas)

	schedules := make(map[string]shifts.Schedule, len(snap.Employees))
	for _, person := range snap.Employees {
		schedules[person] = make(shifts.Schedule)
	}
	for person, sched := range snap.Schedules {
		schedules[person] = sched
	}
	sl.ReplaceAll(schedules, snap.Exchanges)
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save replaces the entire database contents with the snapshot, atomically.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"employees", "leave_quotas", "leave_records",
		"shift_assignments", "exchange_transactions",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, person := range snap.Employees {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO employees (person) VALUES (?)", person,
		); err != nil {
			return fmt.Errorf("failed to save employee: %w", err)
		}
	}

	for _, q := range snap.Quotas {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO leave_quotas (employee, fiscal_year, leave_type, quota) VALUES (?, ?, ?, ?)",
			q.Employee, q.FiscalYear, string(q.Type), q.Quota.String(),
		); err != nil {
			return fmt.Errorf("failed to save quota: %w", err)
		}
	}

	for _, r := range snap.Records {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO leave_records (id, employee, date, leave_type, note) VALUES (?, ?, ?, ?, ?)",
			r.ID, r.Employee, r.Date, string(r.Type), r.Note,
		); err != nil {
			return fmt.Errorf("failed to save leave record: %w", err)
		}
	}

	for person, sched := range snap.Schedules {
		for _, d := range sched.Dates() {
			a, _ := sched.At(d)
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO shift_assignments (employee, date, shifts) VALUES (?, ?, ?)",
				person, d.String(), encodeAssignment(a),
			); err != nil {
				return fmt.Errorf("failed to save assignment: %w", err)
			}
		}
	}

	for _, ex := range snap.Exchanges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exchange_transactions
			 (id, person_a, person_b, date_a, date_b, shift_a, shift_b, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ex.ID, ex.PersonA, ex.PersonB,
			ex.DateA.String(), ex.DateB.String(),
			encodeAssignment(ex.ShiftA), encodeAssignment(ex.ShiftB),
			ex.At.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to save exchange: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads the complete persisted state. An empty database yields an
// empty snapshot, not an error.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Schedules: make(map[string]shifts.Schedule)}

	if err := s.loadEmployees(ctx, &snap); err != nil {
		return Snapshot{}, err
	}
	if err := s.loadQuotas(ctx, &snap); err != nil {
		return Snapshot{}, err
	}
	if err := s.loadRecords(ctx, &snap); err != nil {
		return Snapshot{}, err
	}
	if err := s.loadAssignments(ctx, &snap); err != nil {
		return Snapshot{}, err
	}
	if err := s.loadExchanges(ctx, &snap); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

func (s *Store) loadEmployees(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, "SELECT person FROM employees ORDER BY person")
	if err != nil {
		return fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var person string
		if err := rows.Scan(&person); err != nil {
			return err
		}
		snap.Employees = append(snap.Employees, person)
	}
	return rows.Err()
}

func (s *Store) loadQuotas(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT employee, fiscal_year, leave_type, quota FROM leave_quotas",
	)
	if err != nil {
		return fmt.Errorf("failed to query quotas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q        leave.QuotaEntry
			typeName string
			quota    string
		)
		if err := rows.Scan(&q.Employee, &q.FiscalYear, &typeName, &quota); err != nil {
			return err
		}
		if q.Quota, err = leave.ParseDays(quota); err != nil {
			return fmt.Errorf("failed to parse quota %q: %w", quota, err)
		}
		q.Type = leave.Type(typeName)
		snap.Quotas = append(snap.Quotas, q)
	}
	return rows.Err()
}

func (s *Store) loadRecords(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, employee, date, leave_type, note FROM leave_records",
	)
	if err != nil {
		return fmt.Errorf("failed to query leave records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        leave.Record
			typeName string
			note     sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Employee, &r.Date, &typeName, &note); err != nil {
			return err
		}
		r.Type = leave.Type(typeName)
		r.Note = note.String
		snap.Records = append(snap.Records, r)
	}
	return rows.Err()
}

func (s *Store) loadAssignments(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT employee, date, shifts FROM shift_assignments",
	)
	if err != nil {
		return fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var person, dateStr, encoded string
		if err := rows.Scan(&person, &dateStr, &encoded); err != nil {
			return err
		}
		d, err := calendar.ParseDate(dateStr)
		if err != nil {
			return fmt.Errorf("failed to parse assignment date %q: %w", dateStr, err)
		}
		a, err := decodeAssignment(encoded)
		if err != nil {
			return err
		}
		sched, ok := snap.Schedules[person]
		if !ok {
			sched = make(shifts.Schedule)
			snap.Schedules[person] = sched
		}
		for _, sh := range a.Shifts() {
			sched.Add(d, sh)
		}
	}
	return rows.Err()
}

func (s *Store) loadExchanges(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_a, person_b, date_a, date_b, shift_a, shift_b, created_at
		 FROM exchange_transactions
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ex                       shifts.Transaction
			dateA, dateB             string
			shiftA, shiftB, createdAt string
		)
		if err := rows.Scan(&ex.ID, &ex.PersonA, &ex.PersonB,
			&dateA, &dateB, &shiftA, &shiftB, &createdAt); err != nil {
			return err
		}
		if ex.DateA, err = calendar.ParseDate(dateA); err != nil {
			return fmt.Errorf("failed to parse exchange date %q: %w", dateA, err)
		}
		if ex.DateB, err = calendar.ParseDate(dateB); err != nil {
			return fmt.Errorf("failed to parse exchange date %q: %w", dateB, err)
		}
		if ex.ShiftA, err = decodeAssignment(shiftA); err != nil {
			return err
		}
		if ex.ShiftB, err = decodeAssignment(shiftB); err != nil {
			return err
		}
		if ex.At, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return fmt.Errorf("failed to parse exchange timestamp %q: %w", createdAt, err)
		}
		snap.Exchanges = append(snap.Exchanges, ex)
	}
	return rows.Err()
}

// =============================================================================
// ASSIGNMENT ENCODING
// =============================================================================

// Every assignment is stored as a JSON array of shift names, scalar and set
// alike; the scalar-or-set distinction is representational and Many
// re-collapses singletons on load. A bare-name fast path for scalars would
// misparse shift names that themselves start with '['.

func encodeAssignment(a shifts.Assignment) string {
	encoded, _ := json.Marshal(a.Shifts())
	return string(encoded)
}

func decodeAssignment(encoded string) (shifts.Assignment, error) {
	var ss []shifts.Shift
	if err := json.Unmarshal([]byte(encoded), &ss); err != nil {
		return shifts.Assignment{}, fmt.Errorf("failed to decode assignment %q: %w", encoded, err)
	}
	return shifts.Many(ss...), nil
}
