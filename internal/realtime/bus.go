// Package realtime fans lifecycle and presence events out to connected sessions.
package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/presence"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
)

// Event kinds
const (
	EventAlertCreated       = "alert-created"
	EventAlertUpdated       = "alert-updated"
	EventAlertArchived      = "alert-archived"
	EventResponderLocations = "responder-locations"
	EventConnected          = "connected"
)

// DefaultBufferSize is the per-subscriber queue length used when none is configured.
const DefaultBufferSize = 64

// Event is one message delivered to every subscriber.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriberInfo describes who is behind a subscription, for logs.
type SubscriberInfo struct {
	UserID    string
	Transport string
}

// Subscription is a handle to one subscriber's event stream.
type Subscription struct {
	ID   string
	Info SubscriberInfo

	ch     chan Event
	bus    *Bus
	once   sync.Once
	closed bool // guarded by bus.mu
}

// Events returns the receive side of the subscription. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

// Bus is an in-process publish/subscribe registry. Publishing never blocks on
// a slow subscriber: when a subscriber's buffer is full the event is dropped
// for that subscriber only.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	bufferSize int
	logger     *logger.Logger
	now        func() time.Time
}

// NewBus creates a bus whose subscribers buffer up to bufferSize events.
func NewBus(bufferSize int, log *logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		subs:       make(map[string]*Subscription),
		bufferSize: bufferSize,
		logger:     log,
		now:        time.Now,
	}
}

// Subscribe registers a new subscriber. Events published before this call are not replayed.
func (b *Bus) Subscribe(info SubscriberInfo) *Subscription {
	sub := &Subscription{
		ID:   uuid.New().String(),
		Info: info,
		ch:   make(chan Event, b.bufferSize),
		bus:  b,
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	count := len(b.subs)
	b.mu.Unlock()

	b.logger.WithFields(map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         info.UserID,
		"transport":       info.Transport,
		"subscribers":     count,
	}).Debug("Realtime subscriber added")

	return sub
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[sub.ID]; ok {
		delete(b.subs, sub.ID)
	}
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
	count := len(b.subs)
	b.mu.Unlock()

	b.logger.WithFields(map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         sub.Info.UserID,
		"subscribers":     count,
	}).Debug("Realtime subscriber removed")
}

// Publish delivers an event to every current subscriber.
func (b *Bus) Publish(eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data, Timestamp: b.now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			metrics.RecordDroppedEvent(eventType)
			b.logger.WithFields(map[string]interface{}{
				"subscription_id": sub.ID,
				"event":           eventType,
			}).Debug("Subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// CloseAll closes every subscription, ending all sessions.
func (b *Bus) CloseAll() {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.Close()
	}
}

// AlertCreated publishes a newly persisted alert.
func (b *Bus) AlertCreated(view *alert.View) {
	b.Publish(EventAlertCreated, view)
}

// AlertUpdated publishes a status change.
func (b *Bus) AlertUpdated(view *alert.View) {
	b.Publish(EventAlertUpdated, view)
}

// AlertArchived publishes the ID of an alert that left the live store.
func (b *Bus) AlertArchived(id string) {
	b.Publish(EventAlertArchived, alert.ArchivedEvent{AlertID: id})
}

// ResponderLocations publishes a full presence snapshot.
func (b *Bus) ResponderLocations(snapshot []presence.Presence) {
	b.Publish(EventResponderLocations, snapshot)
}
