package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/testutil"
)

func TestPresenceTracker_ReportAndDisconnect(t *testing.T) {
	b := &testutil.RecordingBroadcaster{}
	tracker := NewPresenceTracker(b, testutil.NewTestLogger())
	ctx := context.Background()

	r1 := &user.Actor{ID: "medic-1", Role: user.RoleEMSPersonnel, Name: "Ana Reyes"}
	r2 := &user.Actor{ID: "medic-2", Role: user.RoleEMSPersonnel}

	snap, err := tracker.ReportLocation(ctx, "conn-1", r1, 14.5995, 120.9842)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "Ana Reyes", snap[0].ResponderName)

	snap, err = tracker.ReportLocation(ctx, "conn-2", r2, 14.6, 121.0)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "medic-2", snap[1].ResponderName, "name falls back to the responder ID")

	snap, err = tracker.ReportLocation(ctx, "conn-1", r1, 14.61, 120.99)
	require.NoError(t, err)
	require.Len(t, snap, 2, "a repeat report replaces the connection's entry")
	assert.Equal(t, 14.61, snap[0].Latitude)

	snap = tracker.Disconnect(ctx, "conn-1")
	require.Len(t, snap, 1)
	assert.Equal(t, "conn-2", snap[0].ConnectionID)

	assert.Equal(t, 4, b.Count())
	assert.Equal(t, snap, b.Last())
	assert.Equal(t, snap, tracker.Snapshot())
}

func TestPresenceTracker_DisconnectUnknownStillBroadcasts(t *testing.T) {
	b := &testutil.RecordingBroadcaster{}
	tracker := NewPresenceTracker(b, testutil.NewTestLogger())

	snap := tracker.Disconnect(context.Background(), "never-reported")
	assert.Empty(t, snap)
	assert.Equal(t, 1, b.Count())
}

func TestPresenceTracker_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		actor    *user.Actor
		lat, lng float64
		wantCode string
	}{
		{name: "citizen", actor: &user.Actor{ID: "c", Role: user.RoleCitizen}, lat: 1, lng: 1, wantCode: errors.ErrCodeForbidden},
		{name: "anonymous", actor: nil, lat: 1, lng: 1, wantCode: errors.ErrCodeForbidden},
		{name: "latitude too large", actor: &user.Actor{ID: "m", Role: user.RoleEMSPersonnel}, lat: 90.5, lng: 0, wantCode: errors.ErrCodeValidation},
		{name: "longitude too small", actor: &user.Actor{ID: "m", Role: user.RoleEMSPersonnel}, lat: 0, lng: -181, wantCode: errors.ErrCodeValidation},
		{name: "not a number", actor: &user.Actor{ID: "m", Role: user.RoleAdmin}, lat: math.NaN(), lng: 0, wantCode: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &testutil.RecordingBroadcaster{}
			tracker := NewPresenceTracker(b, testutil.NewTestLogger())

			_, err := tracker.ReportLocation(context.Background(), "conn", tt.actor, tt.lat, tt.lng)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Zero(t, b.Count())
			assert.Empty(t, tracker.Snapshot())
		})
	}
}

func TestPresenceTracker_ConcurrentReports(t *testing.T) {
	b := &testutil.RecordingBroadcaster{}
	tracker := NewPresenceTracker(b, testutil.NewTestLogger())
	ctx := context.Background()

	const responders = 20
	var wg sync.WaitGroup
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := &user.Actor{ID: fmt.Sprintf("medic-%d", i), Role: user.RoleEMSPersonnel}
			_, err := tracker.ReportLocation(ctx, fmt.Sprintf("conn-%02d", i), actor, 10, 20)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, tracker.Snapshot(), responders)
	assert.Equal(t, responders, b.Count())

	// Snapshots are broadcast in mutation order, so sizes grow by one each time.
	for i, snap := range b.Snapshots {
		assert.Len(t, snap, i+1)
	}
}
