package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pratik-mahalle/emsdispatch/internal/api/dto"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/presence"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
	"github.com/pratik-mahalle/emsdispatch/internal/realtime"
)

const (
	transportWebSocket = "websocket"
	transportSSE       = "sse"
)

// RealtimeHandler serves realtime sessions over WebSocket and server-sent events
type RealtimeHandler struct {
	bus      *realtime.Bus
	tracker  presence.Tracker
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewRealtimeHandler creates a new realtime handler. allowedOrigins limits
// browser websocket origins; "*" allows any.
func NewRealtimeHandler(bus *realtime.Bus, tracker presence.Tracker, cfg config.RealtimeConfig, allowedOrigins []string, log *logger.Logger) *RealtimeHandler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = cfg.PingInterval * 2
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}

	h := &RealtimeHandler{
		bus:     bus,
		tracker: tracker,
		cfg:     cfg,
		logger:  log.WithComponent("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// WebSocket upgrades the request to a bidirectional session
// @Summary Realtime WebSocket session
// @Description Streams alert and presence events. Staff clients may send location-update and off-duty messages.
// @Tags Realtime
// @Param token query string false "Access token when headers cannot be set"
// @Success 101 "Switching protocols"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /realtime/ws [get]
func (h *RealtimeHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnWithErr(err, "WebSocket upgrade failed")
		return
	}

	sub := h.bus.Subscribe(realtime.SubscriberInfo{UserID: actor.ID, Transport: transportWebSocket})
	s := &wsSession{
		handler: h,
		conn:    conn,
		sub:     sub,
		actor:   actor,
		replies: make(chan interface{}, 8),
		logger: h.logger.WithFields(map[string]interface{}{
			"connection_id": sub.ID,
			"user_id":       actor.ID,
		}),
	}

	metrics.SessionOpened(transportWebSocket)
	s.logger.Info("WebSocket session opened")

	go s.writePump()
	s.readPump()

	metrics.SessionClosed(transportWebSocket)
	s.logger.Info("WebSocket session closed")
}

type wsSession struct {
	handler *RealtimeHandler
	conn    *websocket.Conn
	sub     *realtime.Subscription
	actor   *user.Actor
	replies chan interface{}
	logger  *logger.Logger
}

// readPump handles client messages until the connection fails. Leaving
// removes the session's presence entry and ends the subscription.
func (s *wsSession) readPump() {
	cfg := s.handler.cfg
	defer func() {
		s.handler.tracker.Disconnect(context.Background(), s.sub.ID)
		s.sub.Close()
	}()

	s.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WarnWithErr(err, "WebSocket read failed")
			}
			return
		}
		s.handleMessage(data)
	}
}

func (s *wsSession) handleMessage(data []byte) {
	var msg dto.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.reply(errors.BadRequest("Message must be a JSON object"))
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case dto.MessageLocationUpdate:
		if msg.Lat == nil || msg.Lng == nil {
			s.reply(errors.ValidationError("lat and lng are required", nil))
			return
		}
		if _, err := s.handler.tracker.ReportLocation(ctx, s.sub.ID, s.actor, *msg.Lat, *msg.Lng); err != nil {
			s.reply(err)
		}
	case dto.MessageOffDuty:
		s.handler.tracker.Disconnect(ctx, s.sub.ID)
	default:
		s.reply(errors.BadRequest(fmt.Sprintf("Unknown message type %q", msg.Type)))
	}
}

// reply queues an error for the client. Replies are dropped when the
// session is not draining them.
func (s *wsSession) reply(err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("Message failed", err)
	}
	select {
	case s.replies <- dto.ErrorMessage{Type: "error", Code: appErr.Code, Message: appErr.Message}:
	default:
	}
}

// writePump is the only writer on the connection.
func (s *wsSession) writePump() {
	cfg := s.handler.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	write := func(v interface{}) error {
		_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
		return s.conn.WriteJSON(v)
	}

	if err := write(connectedEvent(s.sub.ID, s.actor)); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-s.sub.Events():
			if !ok {
				_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := write(WireEvent(ev)); err != nil {
				s.logger.WarnWithErr(err, "WebSocket write failed")
				return
			}
		case msg := <-s.replies:
			if err := write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Events streams realtime events as server-sent events
// @Summary Realtime event stream
// @Description Read-only stream of alert and presence events for dashboards
// @Tags Realtime
// @Produce text/event-stream
// @Param token query string false "Access token when headers cannot be set"
// @Success 200 "Event stream"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /realtime/events [get]
func (h *RealtimeHandler) Events(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	sub := h.bus.Subscribe(realtime.SubscriberInfo{UserID: actor.ID, Transport: transportSSE})
	defer sub.Close()

	metrics.SessionOpened(transportSSE)
	defer metrics.SessionClosed(transportSSE)

	log := h.logger.WithFields(map[string]interface{}{
		"connection_id": sub.ID,
		"user_id":       actor.ID,
	})
	log.Info("Event stream opened")
	defer log.Info("Event stream closed")

	send := func(ev realtime.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(connectedEvent(sub.ID, actor)); err != nil {
		return
	}

	keepalive := time.NewTicker(h.cfg.PingInterval)
	defer keepalive.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := send(WireEvent(ev)); err != nil {
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func connectedEvent(connectionID string, actor *user.Actor) realtime.Event {
	return realtime.Event{
		Type: realtime.EventConnected,
		Data: dto.ConnectedMessage{
			ConnectionID: connectionID,
			UserID:       actor.ID,
			Role:         string(actor.Role),
		},
		Timestamp: time.Now(),
	}
}

// WireEvent converts domain payloads to their API form.
func WireEvent(ev realtime.Event) realtime.Event {
	switch data := ev.Data.(type) {
	case *alert.View:
		ev.Data = dto.FromView(data)
	case alert.ArchivedEvent:
		ev.Data = dto.ArchivedEventDTO{AlertID: data.AlertID}
	}
	return ev
}
