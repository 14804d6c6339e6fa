// Package store owns the appointment collection. Every committed mutation
// produces a new immutable Snapshot that is pushed to all observers.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"workcal/internal/core"
)

// Repository is the persistent backend behind a Store.
type Repository interface {
	ListAll(ctx context.Context) ([]core.Appointment, error)
	Upsert(ctx context.Context, a core.Appointment) error
	UpsertAll(ctx context.Context, as []core.Appointment) error
	ClearAll(ctx context.Context) error
	Replace(ctx context.Context, as []core.Appointment) error
}

// Snapshot is the collection at one version, ordered by date and start time.
// Appointments must not be modified.
type Snapshot struct {
	Version      uint64
	Appointments []core.Appointment
}

type Store struct {
	repo Repository

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	subs    map[chan Snapshot]struct{}
}

// Open loads the repository contents as version 1.
func Open(ctx context.Context, repo Repository) (*Store, error) {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	core.SortAppointments(all)
	s := &Store{repo: repo, subs: make(map[chan Snapshot]struct{})}
	s.current.Store(&Snapshot{Version: 1, Appointments: all})
	slog.InfoContext(ctx, "Appointment store opened", "count", len(all))
	return s, nil
}

// Snapshot returns the latest committed snapshot.
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

// ByDate returns the latest appointments on d ordered by start time.
func (s *Store) ByDate(d core.Date) []core.Appointment {
	return core.DayAppointments(d, s.Snapshot().Appointments)
}

// ListAll returns a copy of the latest collection.
func (s *Store) ListAll(ctx context.Context) ([]core.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	return append([]core.Appointment(nil), snap.Appointments...), nil
}

// Insert upserts a by id.
func (s *Store) Insert(ctx context.Context, a core.Appointment) error {
	return s.mutate(ctx, "insert", func() error {
		return s.repo.Upsert(ctx, a)
	}, func(cur []core.Appointment) []core.Appointment {
		return upsert(cur, []core.Appointment{a})
	})
}

// InsertAll upserts each element in order; a later duplicate id wins.
func (s *Store) InsertAll(ctx context.Context, as []core.Appointment) error {
	return s.mutate(ctx, "insert all", func() error {
		return s.repo.UpsertAll(ctx, as)
	}, func(cur []core.Appointment) []core.Appointment {
		return upsert(cur, as)
	})
}

// ClearAll removes every appointment.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.mutate(ctx, "clear", func() error {
		return s.repo.ClearAll(ctx)
	}, func([]core.Appointment) []core.Appointment {
		return nil
	})
}

// Replace makes the collection exactly as, in one storage transaction.
func (s *Store) Replace(ctx context.Context, as []core.Appointment) error {
	return s.mutate(ctx, "replace", func() error {
		return s.repo.Replace(ctx, as)
	}, func([]core.Appointment) []core.Appointment {
		return upsert(nil, as)
	})
}

func (s *Store) mutate(ctx context.Context, op string, write func() error, apply func([]core.Appointment) []core.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := write(); err != nil {
		return fmt.Errorf("%s appointments: %w", op, err)
	}

	cur := s.current.Load()
	next := apply(cur.Appointments)
	if next == nil {
		next = []core.Appointment{}
	}
	core.SortAppointments(next)
	snap := &Snapshot{Version: cur.Version + 1, Appointments: next}
	s.current.Store(snap)

	for ch := range s.subs {
		offer(ch, *snap)
	}
	slog.DebugContext(ctx, "Appointments changed", "op", op, "version", snap.Version, "count", len(next), "observers", len(s.subs))
	return nil
}

// upsert returns a new slice: cur with as applied by id.
func upsert(cur, as []core.Appointment) []core.Appointment {
	index := make(map[string]int, len(cur)+len(as))
	out := make([]core.Appointment, 0, len(cur)+len(as))
	for _, a := range cur {
		index[a.ID] = len(out)
		out = append(out, a)
	}
	for _, a := range as {
		if i, ok := index[a.ID]; ok {
			out[i] = a
			continue
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
