package domain

import "context"

// SnapshotStore persists the latest snapshot. Older snapshots are replaced,
// not kept.
type SnapshotStore interface {
	ReplaceLatest(ctx context.Context, snap Snapshot) error
	Latest(ctx context.Context) (Snapshot, error)
}

// ReportSink receives every finished snapshot.
type ReportSink interface {
	Name() string
	Store(ctx context.Context, snap Snapshot) error
}
