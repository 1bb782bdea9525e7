package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/presence"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/validator"
)

var _ presence.Tracker = (*PresenceTracker)(nil)

// PresenceTracker keeps the last known position per responder connection.
// Snapshots are taken and broadcast under the same lock as the mutation, so
// subscribers observe snapshots in mutation order.
type PresenceTracker struct {
	mu          sync.Mutex
	entries     map[string]presence.Presence
	broadcaster presence.Broadcaster
	logger      *logger.Logger
	now         func() time.Time
}

// NewPresenceTracker creates an empty tracker
func NewPresenceTracker(broadcaster presence.Broadcaster, log *logger.Logger) *PresenceTracker {
	return &PresenceTracker{
		entries:     make(map[string]presence.Presence),
		broadcaster: broadcaster,
		logger:      log,
		now:         time.Now,
	}
}

// ReportLocation upserts the position for connectionID
func (t *PresenceTracker) ReportLocation(ctx context.Context, connectionID string, actor *user.Actor, lat, lng float64) ([]presence.Presence, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Only EMS personnel can share location")
	}
	if errs := validateCoordinates(lat, lng); len(errs) > 0 {
		return nil, errors.ValidationError("Invalid location", errs)
	}

	name := actor.Name
	if name == "" {
		name = actor.ID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[connectionID] = presence.Presence{
		ConnectionID:  connectionID,
		ResponderID:   actor.ID,
		ResponderName: name,
		Latitude:      lat,
		Longitude:     lng,
		UpdatedAt:     t.now(),
	}

	snap := t.snapshotLocked()
	metrics.SetPresenceEntries(len(snap))
	t.broadcaster.ResponderLocations(snap)
	return snap, nil
}

// Disconnect drops the entry for connectionID and broadcasts the remaining set
func (t *PresenceTracker) Disconnect(ctx context.Context, connectionID string) []presence.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[connectionID]; ok {
		delete(t.entries, connectionID)
		t.logger.WithFields(map[string]interface{}{
			"connection_id": connectionID,
		}).Debug("Responder went off duty")
	}

	snap := t.snapshotLocked()
	metrics.SetPresenceEntries(len(snap))
	t.broadcaster.ResponderLocations(snap)
	return snap
}

// Snapshot returns a copy of all entries ordered by connection ID
func (t *PresenceTracker) Snapshot() []presence.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *PresenceTracker) snapshotLocked() []presence.Presence {
	snap := make([]presence.Presence, 0, len(t.entries))
	for _, p := range t.entries {
		snap = append(snap, p)
	}
	sort.Slice(snap, func(i, j int) bool {
		return snap[i].ConnectionID < snap[j].ConnectionID
	})
	return snap
}

func validateCoordinates(lat, lng float64) []validator.ValidationError {
	var errs []validator.ValidationError
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		errs = append(errs, validator.ValidationError{Field: "lat", Tag: "latitude", Message: "lat must be a latitude between -90 and 90"})
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		errs = append(errs, validator.ValidationError{Field: "lng", Tag: "longitude", Message: "lng must be a longitude between -180 and 180"})
	}
	return errs
}
