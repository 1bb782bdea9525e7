package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/realtime"
	"github.com/pratik-mahalle/emsdispatch/internal/services"
	"github.com/pratik-mahalle/emsdispatch/internal/testutil"
)

type realtimeFixture struct {
	bus     *realtime.Bus
	tracker *services.PresenceTracker
	handler *RealtimeHandler
}

func newRealtimeFixture() *realtimeFixture {
	log := testutil.NewTestLogger()
	bus := realtime.NewBus(16, log)
	tracker := services.NewPresenceTracker(bus, log)
	cfg := config.RealtimeConfig{
		PingInterval:   time.Second,
		PongWait:       5 * time.Second,
		WriteTimeout:   time.Second,
		MaxMessageSize: 1024,
	}
	return &realtimeFixture{
		bus:     bus,
		tracker: tracker,
		handler: NewRealtimeHandler(bus, tracker, cfg, []string{"*"}, log),
	}
}

// serve mounts h behind a fixed actor, standing in for the auth middleware.
func serve(actor *user.Actor, h http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(middleware.WithActor(r.Context(), actor)))
	}))
}

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Code string          `json:"code"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestRealtimeHandler_WebSocketLocationUpdates(t *testing.T) {
	f := newRealtimeFixture()
	srv := serve(medic, f.handler.WebSocket)
	defer srv.Close()

	conn := dial(t, srv)

	hello := readMessage(t, conn)
	require.Equal(t, realtime.EventConnected, hello.Type)
	var connected struct {
		ConnectionID string `json:"connectionId"`
		UserID       string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(hello.Data, &connected))
	assert.Equal(t, "medic-1", connected.UserID)
	assert.NotEmpty(t, connected.ConnectionID)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "location-update", "lat": 14.6, "lng": 121.0}))

	msg := readMessage(t, conn)
	require.Equal(t, realtime.EventResponderLocations, msg.Type)
	var snapshot []struct {
		ConnectionID string  `json:"connectionId"`
		ResponderID  string  `json:"responderId"`
		Lat          float64 `json:"lat"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, connected.ConnectionID, snapshot[0].ConnectionID)
	assert.Equal(t, "medic-1", snapshot[0].ResponderID)
	assert.InDelta(t, 14.6, snapshot[0].Lat, 1e-9)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return len(f.tracker.Snapshot()) == 0 }, 2*time.Second, 10*time.Millisecond,
		"presence entry should be removed when the session ends")
	assert.Eventually(t, func() bool { return f.bus.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRealtimeHandler_WebSocketRejectsBadMessages(t *testing.T) {
	tests := []struct {
		name    string
		actor   *user.Actor
		message string
		code    string
	}{
		{name: "not json", actor: medic, message: "hello", code: "BAD_REQUEST"},
		{name: "unknown type", actor: medic, message: `{"type":"teleport"}`, code: "BAD_REQUEST"},
		{name: "missing coordinates", actor: medic, message: `{"type":"location-update","lat":1}`, code: "VALIDATION_ERROR"},
		{name: "out of range", actor: medic, message: `{"type":"location-update","lat":91,"lng":0}`, code: "VALIDATION_ERROR"},
		{name: "citizen location", actor: citizen, message: `{"type":"location-update","lat":1,"lng":1}`, code: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRealtimeFixture()
			srv := serve(tt.actor, f.handler.WebSocket)
			defer srv.Close()

			conn := dial(t, srv)
			defer conn.Close()
			readMessage(t, conn)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.message)))
			msg := readMessage(t, conn)
			assert.Equal(t, "error", msg.Type)
			assert.Equal(t, tt.code, msg.Code)
			assert.Empty(t, f.tracker.Snapshot())
		})
	}
}

func TestRealtimeHandler_WebSocketOffDuty(t *testing.T) {
	f := newRealtimeFixture()
	srv := serve(medic, f.handler.WebSocket)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "location-update", "lat": 1.0, "lng": 2.0}))
	require.Equal(t, realtime.EventResponderLocations, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "off-duty"}))
	msg := readMessage(t, conn)
	require.Equal(t, realtime.EventResponderLocations, msg.Type)
	assert.JSONEq(t, "[]", string(msg.Data))
}

func TestRealtimeHandler_WebSocketReceivesAlertEvents(t *testing.T) {
	f := newRealtimeFixture()
	srv := serve(medic, f.handler.WebSocket)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	readMessage(t, conn)

	f.bus.AlertCreated(&alert.View{Alert: &alert.Alert{
		ID:           "alert-1",
		IncidentType: alert.IncidentStroke,
		Status:       alert.StatusNew,
	}})
	f.bus.AlertArchived("alert-1")

	created := readMessage(t, conn)
	require.Equal(t, realtime.EventAlertCreated, created.Type)
	var a struct {
		ID            string `json:"id"`
		IncidentLabel string `json:"incidentLabel"`
	}
	require.NoError(t, json.Unmarshal(created.Data, &a))
	assert.Equal(t, "alert-1", a.ID)
	assert.Equal(t, "Stroke", a.IncidentLabel)

	archived := readMessage(t, conn)
	require.Equal(t, realtime.EventAlertArchived, archived.Type)
	assert.JSONEq(t, `{"alertId":"alert-1"}`, string(archived.Data))
}

func TestRealtimeHandler_WebSocketClosedOnShutdown(t *testing.T) {
	f := newRealtimeFixture()
	srv := serve(medic, f.handler.WebSocket)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	readMessage(t, conn)

	f.bus.CloseAll()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestRealtimeHandler_Events(t *testing.T) {
	f := newRealtimeFixture()
	srv := serve(admin, f.handler.Events)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	next := func(prefix string) string {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream ended")
				if strings.HasPrefix(line, prefix) {
					return strings.TrimPrefix(line, prefix)
				}
			case <-deadline:
				t.Fatalf("no line with prefix %q", prefix)
			}
		}
	}

	assert.Equal(t, realtime.EventConnected, next("event: "))
	next("data: ")

	f.bus.AlertArchived("alert-9")

	assert.Equal(t, realtime.EventAlertArchived, next("event: "))
	var ev struct {
		Type string `json:"type"`
		Data struct {
			AlertID string `json:"alertId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(next("data: ")), &ev))
	assert.Equal(t, "alert-9", ev.Data.AlertID)

	cancel()
	assert.Eventually(t, func() bool { return f.bus.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://dispatch.example.org"})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://dispatch.example.org", want: true},
		{origin: "https://evil.example.com", want: false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/realtime/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, check(r), "origin %q", tt.origin)
	}
}
