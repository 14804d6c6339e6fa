package sheets

import (
	"context"
	"time"

	"workcal/internal/core"
)

// SnapshotMirror receives a full copy of the appointment collection.
type SnapshotMirror interface {
	MirrorAppointments(ctx context.Context, all []core.Appointment, exportedAt time.Time) error
}
