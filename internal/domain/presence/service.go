package presence

import (
	"context"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
)

// Tracker maintains the per-connection responder position set.
type Tracker interface {
	// ReportLocation upserts the entry for connectionID and returns the
	// snapshot that was broadcast.
	ReportLocation(ctx context.Context, connectionID string, actor *user.Actor, lat, lng float64) ([]Presence, error)

	// Disconnect removes the entry for connectionID, if any, and broadcasts
	// the refreshed snapshot.
	Disconnect(ctx context.Context, connectionID string) []Presence

	// Snapshot returns a copy of the current set.
	Snapshot() []Presence
}

// Broadcaster publishes presence snapshots.
type Broadcaster interface {
	ResponderLocations(snapshot []Presence)
}
