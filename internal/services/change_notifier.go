package services

import (
	"context"
	"log/slog"

	"workcal/internal/store"
)

// ChangePublisher is the outbound notification port.
type ChangePublisher interface {
	PublishAppointmentsChanged(ctx context.Context, version uint64, count int) error
}

// Subscriber hands out snapshot streams.
type Subscriber interface {
	Snapshot() store.Snapshot
	Subscribe(ctx context.Context) <-chan store.Snapshot
}

// ChangeNotifier forwards store changes to a ChangePublisher. Publish
// failures are logged only; the local write has already succeeded.
type ChangeNotifier struct {
	store     Subscriber
	publisher ChangePublisher
}

func NewChangeNotifier(store Subscriber, publisher ChangePublisher) *ChangeNotifier {
	return &ChangeNotifier{store: store, publisher: publisher}
}

// Run blocks until ctx is done.
func (n *ChangeNotifier) Run(ctx context.Context) error {
	if n.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, change notifications disabled")
		<-ctx.Done()
		return nil
	}

	// Versions up to the one current at startup are not changes.
	last := n.store.Snapshot().Version
	snaps := n.store.Subscribe(ctx)

	for snap := range snaps {
		if snap.Version <= last {
			continue
		}
		last = snap.Version
		if err := n.publisher.PublishAppointmentsChanged(ctx, snap.Version, len(snap.Appointments)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish change notification",
				"version", snap.Version,
				"error", err)
		}
	}
	return nil
}
