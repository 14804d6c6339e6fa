package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"workcal/internal/cache"
	"workcal/internal/core"
	"workcal/internal/store"
)

// SnapshotSource exposes the latest appointment snapshot.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

// CalendarService answers read-side questions: a day's list and earnings
// over a range. Earnings reports are cached per snapshot version.
type CalendarService struct {
	source  SnapshotSource
	reports *cache.LRUCache[core.EarningsReport]
	group   singleflight.Group
	// newest snapshot version seen; older reports are purged past it
	version atomic.Uint64
}

func NewCalendarService(source SnapshotSource, cacheSize int, cacheTTL time.Duration) *CalendarService {
	return &CalendarService{
		source:  source,
		reports: cache.NewLRUCache[core.EarningsReport](cacheSize, cacheTTL),
	}
}

// Cache exposes the report cache for periodic cleanup.
func (s *CalendarService) Cache() *cache.LRUCache[core.EarningsReport] {
	return s.reports
}

// Day returns the appointments on d ordered by start time.
func (s *CalendarService) Day(d core.Date) []core.Appointment {
	return core.DayAppointments(d, s.source.Snapshot().Appointments)
}

// All returns every appointment ordered by date and start time.
func (s *CalendarService) All() []core.Appointment {
	return s.source.Snapshot().Appointments
}

// Earnings aggregates over r. Endpoints may be given in either order.
func (s *CalendarService) Earnings(ctx context.Context, r core.DateRange) core.EarningsReport {
	snap := s.source.Snapshot()
	r = core.NewDateRange(r.Start, r.End)
	key := fmt.Sprintf("%d|%s", snap.Version, r)
	if seen := s.version.Load(); snap.Version > seen && s.version.CompareAndSwap(seen, snap.Version) {
		s.reports.Purge()
	}

	if rep, ok := s.reports.Get(key); ok {
		return rep
	}

	v, _, shared := s.group.Do(key, func() (interface{}, error) {
		rep := core.Earnings(r, snap.Appointments)
		s.reports.Set(key, rep)
		return rep, nil
	})
	slog.DebugContext(ctx, "Earnings computed",
		"range", r.String(),
		"version", snap.Version,
		"shared", shared)
	return v.(core.EarningsReport)
}
