package domain

import (
	"context"
	"time"
)

// AlertStateStore holds the last-sent timestamp per opportunity key for the
// alert cooldown. The in-memory implementation loses state on restart; the
// Redis implementation survives it.
type AlertStateStore interface {
	// LastSent returns the last stamp for key and whether one exists.
	LastSent(ctx context.Context, key string) (time.Time, bool, error)

	// Stamp records that an alert for key was forwarded at the given time.
	Stamp(ctx context.Context, key string, at time.Time) error
}

// OpportunityStore persists detected opportunities for later analysis.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]OpportunityRecord, error)
}

// SnapshotPublisher pushes the serialized stats snapshot to a remote store
// after the local atomic write, for dashboards not colocated with the
// scanner.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot []byte, at time.Time) error
}
