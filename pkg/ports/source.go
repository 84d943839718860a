package ports

import "context"

// SnapshotSource yields the latest raw command tree payload.
// A nil payload means the source has nothing (e.g. the telemetry key is absent).
type SnapshotSource interface {
	Fetch(ctx context.Context) (*string, error)
}
