// Package tracestore persists completed-path witnesses — the concrete
// variable assignments a finished Path's query interface reports — to a
// relational backend, selected by DSN scheme exactly as the teacher's
// internal/database.DBManager.Connect dispatches on a dbType string to one
// of its three sql.DB drivers. Only the scheme changes: tracestore reads
// and writes one fixed schema (runs, witnesses) instead of running
// arbitrary caller SQL.
package tracestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"symexec/internal/state"
)

// Store persists finished exploration runs and their path witnesses.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn, picking a driver by its leading scheme
// ("sqlite://", "postgres://", "mysql://", "sqlserver://") the way
// DBManager.Connect maps its dbType argument to a driver name, and
// ensures the runs/witnesses schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, conn := splitDSN(dsn)
	db, err := sql.Open(driver, conn)
	if err != nil {
		return nil, fmt.Errorf("tracestore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore: ping: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func splitDSN(dsn string) (driver, conn string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", strings.TrimPrefix(dsn, "mysql://")
	case strings.HasPrefix(dsn, "sqlserver://"):
		return "sqlserver", dsn
	default:
		return "sqlite", dsn
	}
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("tracestore: migrate runs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS witnesses (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			path_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			variable TEXT NOT NULL,
			value TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("tracestore: migrate witnesses: %w", err)
	}
	return nil
}

// Run is one exploration invocation; Witness rows reference it by ID.
type Run struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// BeginRun records a new run, returning its generated ID.
func (s *Store) BeginRun(ctx context.Context, source string) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Source: source, StartedAt: time.Now()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Source, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("tracestore: begin run: %w", err)
	}
	return run, nil
}

// FinishRun stamps a run's completion time.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("tracestore: finish run: %w", err)
	}
	return nil
}

// Witness is one variable's concrete value along a completed path, as
// internal/state's query interface reports it.
type Witness struct {
	PathID   int
	Status   string
	Variable string
	Value    string
}

// RecordWitnesses bulk-inserts every witness produced by one path.
func (s *Store) RecordWitnesses(ctx context.Context, runID string, witnesses []Witness) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tracestore: begin tx: %w", err)
	}
	for _, w := range witnesses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO witnesses (id, run_id, path_id, status, variable, value) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), runID, w.PathID, w.Status, w.Variable, w.Value); err != nil {
			tx.Rollback()
			return fmt.Errorf("tracestore: insert witness: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tracestore: commit: %w", err)
	}
	return nil
}

// Witnesses returns every witness recorded for runID, optionally filtered
// to a single path.
func (s *Store) Witnesses(ctx context.Context, runID string, pathID *int) ([]Witness, error) {
	query := `SELECT path_id, status, variable, value FROM witnesses WHERE run_id = ?`
	args := []interface{}{runID}
	if pathID != nil {
		query += ` AND path_id = ?`
		args = append(args, *pathID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tracestore: query witnesses: %w", err)
	}
	defer rows.Close()

	var out []Witness
	for rows.Next() {
		var w Witness
		if err := rows.Scan(&w.PathID, &w.Status, &w.Variable, &w.Value); err != nil {
			return nil, fmt.Errorf("tracestore: scan witness: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// CollectWitnesses reads every (name, ctx) the object manager tracked for
// st and resolves each to a printable witness value via the Any* query
// interface, skipping names for which no witness can be produced rather
// than failing the whole path.
func CollectWitnesses(st *state.State, pathID int, status string) ([]Witness, error) {
	var out []Witness
	for _, nc := range st.Objects.Names() {
		if i, ok, err := st.AnyInt(nc.Name, nc.Ctx); err != nil {
			return nil, err
		} else if ok {
			out = append(out, Witness{PathID: pathID, Status: status, Variable: nc.Name, Value: fmt.Sprintf("%d", i)})
			continue
		}
		if str, ok, err := st.AnyStr(nc.Name, nc.Ctx); err != nil {
			return nil, err
		} else if ok {
			out = append(out, Witness{PathID: pathID, Status: status, Variable: nc.Name, Value: str})
		}
	}
	return out, nil
}
