package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"workcal/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListAll returns every appointment ordered by date and start time.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Appointment, error) {
	rows, err := r.queries.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := make([]core.Appointment, 0, len(rows))
	for _, row := range rows {
		a, err := toCore(row)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", row.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Upsert inserts a or replaces the stored record with the same id.
func (r *SQLiteRepository) Upsert(ctx context.Context, a core.Appointment) error {
	if err := r.queries.UpsertAppointment(ctx, toParams(a)); err != nil {
		return fmt.Errorf("upsert appointment: %w", err)
	}
	slog.DebugContext(ctx, "Appointment saved to SQLite", "id", a.ID, "date", a.Date.String())
	return nil
}

// UpsertAll upserts every element in one transaction.
func (r *SQLiteRepository) UpsertAll(ctx context.Context, as []core.Appointment) error {
	return r.inTx(ctx, func(q *Queries) error {
		return upsertEach(ctx, q, as)
	})
}

func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	if err := r.queries.DeleteAllAppointments(ctx); err != nil {
		return fmt.Errorf("delete appointments: %w", err)
	}
	slog.InfoContext(ctx, "All appointments deleted from SQLite")
	return nil
}

// Replace swaps the whole collection for as. Either the new contents are
// committed or nothing changes.
func (r *SQLiteRepository) Replace(ctx context.Context, as []core.Appointment) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllAppointments(ctx); err != nil {
			return fmt.Errorf("delete appointments: %w", err)
		}
		return upsertEach(ctx, q, as)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Appointments replaced in SQLite", "count", len(as))
	return nil
}

// Count returns the number of stored appointments.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountAppointments(ctx)
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func upsertEach(ctx context.Context, q *Queries, as []core.Appointment) error {
	for _, a := range as {
		if err := q.UpsertAppointment(ctx, toParams(a)); err != nil {
			return fmt.Errorf("upsert appointment %s: %w", a.ID, err)
		}
	}
	return nil
}

func toParams(a core.Appointment) UpsertAppointmentParams {
	return UpsertAppointmentParams{
		ID:              a.ID,
		ClientName:      a.ClientName,
		Phone:           a.Phone,
		ProcedureName:   a.ProcedureName,
		DurationMinutes: int64(a.DurationMinutes),
		StartTime:       a.StartTime,
		CostKopecks:     a.Cost.Kopecks,
		Date:            a.Date.String(),
	}
}

func toCore(row Appointment) (core.Appointment, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Appointment{}, err
	}
	return core.Appointment{
		ID:              row.ID,
		ClientName:      row.ClientName,
		Phone:           row.Phone,
		ProcedureName:   row.ProcedureName,
		DurationMinutes: int(row.DurationMinutes),
		StartTime:       row.StartTime,
		Cost:            core.Money{Kopecks: row.CostKopecks},
		Date:            d,
	}, nil
}
