package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"workcal/internal/backup"
	"workcal/internal/core"
)

// Store keeps appointments in process memory. Contents are lost on exit.
type Store struct {
	mu    sync.Mutex
	items map[string]core.Appointment
}

func New(seed ...core.Appointment) *Store {
	s := &Store{items: make(map[string]core.Appointment, len(seed))}
	for _, a := range seed {
		s.items[a.ID] = a
	}
	return s
}

// NewFromFile seeds the store from a backup file. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := backup.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(seed...), nil
}

func (s *Store) ListAll(ctx context.Context) ([]core.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Appointment, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	core.SortAppointments(out)
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, a core.Appointment) error {
	return s.UpsertAll(ctx, []core.Appointment{a})
}

func (s *Store) UpsertAll(ctx context.Context, as []core.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range as {
		s.items[a.ID] = a
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	return s.Replace(ctx, nil)
}

// Replace swaps the whole collection under one lock.
func (s *Store) Replace(ctx context.Context, as []core.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := make(map[string]core.Appointment, len(as))
	for _, a := range as {
		next[a.ID] = a
	}
	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored appointments.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error { return nil }
