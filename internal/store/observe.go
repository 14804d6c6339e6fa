package store

import (
	"context"

	"workcal/internal/core"
)

// Subscribe returns a channel that immediately holds the current snapshot and
// then receives every later one. A slow reader only ever sees the newest
// pending snapshot. The channel is closed when ctx is done.
func (s *Store) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- *s.current.Load()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// ObserveAll emits the full ordered collection after every change.
func (s *Store) ObserveAll(ctx context.Context) <-chan []core.Appointment {
	return project(s.Subscribe(ctx), func(snap Snapshot) []core.Appointment {
		return snap.Appointments
	})
}

// ObserveByDate emits the appointments on d, ordered by start time, after
// every change.
func (s *Store) ObserveByDate(ctx context.Context, d core.Date) <-chan []core.Appointment {
	return project(s.Subscribe(ctx), func(snap Snapshot) []core.Appointment {
		return core.DayAppointments(d, snap.Appointments)
	})
}

// Observers returns the number of live subscriptions.
func (s *Store) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func project[T any](in <-chan Snapshot, fn func(Snapshot) T) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		for snap := range in {
			offer(out, fn(snap))
		}
	}()
	return out
}

// offer puts v into a buffered channel of capacity one, replacing any unread
// value. The caller must be the only sender on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
