package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
)

const newAlertTitle = "New Emergency Alert!"

var _ alert.Notifier = (*NotificationService)(nil)

// NotificationService pushes new-alert multicasts to staff devices from a
// bounded background queue. Delivery failures are logged and never returned
// to the submitter.
type NotificationService struct {
	gateway notification.Gateway
	tokens  notification.TokenSource
	logs    notification.Repository
	logger  *logger.Logger

	queue   chan *alert.Alert
	workers int
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NotificationConfig sizes the dispatcher
type NotificationConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// NewNotificationService creates a dispatcher. logs may be nil.
func NewNotificationService(
	gateway notification.Gateway,
	tokens notification.TokenSource,
	logs notification.Repository,
	cfg NotificationConfig,
	log *logger.Logger,
) *NotificationService {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &NotificationService{
		gateway: gateway,
		tokens:  tokens,
		logs:    logs,
		logger:  log.WithComponent("notifications"),
		queue:   make(chan *alert.Alert, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.Timeout,
	}
}

// Start launches the worker goroutines
func (s *NotificationService) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.logger.WithFields(map[string]interface{}{
		"workers": s.workers,
		"gateway": s.gateway.Name(),
	}).Info("Notification dispatcher started")
}

// Stop stops accepting work, drains the queue and waits for the workers
func (s *NotificationService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Notification dispatcher stopped")
}

// NotifyStaffOfNewAlert enqueues a push for a. It never blocks: when the
// queue is full the notification is dropped with a warning.
func (s *NotificationService) NotifyStaffOfNewAlert(a *alert.Alert) {
	cp := *a

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		s.logger.WithFields(map[string]interface{}{"alert_id": a.ID}).Warn("Dispatcher stopped, notification dropped")
		return
	}

	select {
	case s.queue <- &cp:
	default:
		metrics.RecordPushSend("dropped", 0)
		s.logger.WithFields(map[string]interface{}{"alert_id": a.ID}).Warn("Notification queue full, notification dropped")
	}
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for a := range s.queue {
		s.dispatch(a)
	}
}

// dispatch runs detached from any request with its own deadline
func (s *NotificationService) dispatch(a *alert.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.logger.WithFields(map[string]interface{}{"alert_id": a.ID})

	tokens, err := s.tokens.StaffTokens(ctx)
	if err != nil {
		log.ErrorWithErr(errors.NotificationFailure(err), "Failed to resolve staff push tokens")
		metrics.RecordPushSend("failed", 0)
		return
	}
	if len(tokens) == 0 {
		log.Debug("No staff push tokens registered, skipping notification")
		metrics.RecordPushSend("skipped", 0)
		return
	}

	msg := NewAlertMessage(a, tokens)
	entry := s.openLog(ctx, a, msg)

	start := time.Now()
	res, err := s.gateway.Send(ctx, msg)
	elapsed := time.Since(start)

	if err != nil {
		appErr := errors.NotificationFailure(err)
		metrics.RecordPushSend("failed", elapsed)
		log.WithFields(map[string]interface{}{
			"gateway":    s.gateway.Name(),
			"recipients": len(tokens),
		}).ErrorWithErr(appErr, "Failed to send new alert notification")
		s.closeLog(ctx, entry, notification.DeliveryStatusFailed, appErr.Error())
		return
	}

	metrics.RecordPushSend("sent", elapsed)
	log.WithFields(map[string]interface{}{
		"gateway":       s.gateway.Name(),
		"success_count": res.SuccessCount,
		"failure_count": res.FailureCount,
	}).Info("New alert notification sent")

	errMsg := ""
	if res.FailureCount > 0 {
		errMsg = fmt.Sprintf("%d of %d tokens rejected", res.FailureCount, len(tokens))
	}
	s.closeLog(ctx, entry, notification.DeliveryStatusSent, errMsg)
}

func (s *NotificationService) openLog(ctx context.Context, a *alert.Alert, msg *notification.PushMessage) *notification.Log {
	if s.logs == nil {
		return nil
	}

	payload, _ := json.Marshal(map[string]string{"title": msg.Title, "body": msg.Body})
	entry := &notification.Log{
		AlertID:          a.ID,
		Channel:          notification.ChannelPush,
		NotificationType: notification.NotificationTypeNewAlert,
		Status:           notification.DeliveryStatusPending,
		Recipients:       len(msg.Tokens),
		Payload:          payload,
	}
	if err := s.logs.CreateLog(ctx, entry); err != nil {
		s.logger.WarnWithErr(err, "Failed to record notification log")
		return nil
	}
	return entry
}

func (s *NotificationService) closeLog(ctx context.Context, entry *notification.Log, status notification.DeliveryStatus, errMsg string) {
	if entry == nil {
		return
	}
	entry.Status = status
	entry.ErrorMessage = errMsg
	if status == notification.DeliveryStatusSent {
		now := time.Now()
		entry.SentAt = &now
	}
	if err := s.logs.UpdateLog(ctx, entry); err != nil {
		s.logger.WarnWithErr(err, "Failed to update notification log")
	}
}

// NewAlertMessage builds the staff multicast for a.
func NewAlertMessage(a *alert.Alert, tokens []string) *notification.PushMessage {
	return &notification.PushMessage{
		Tokens: tokens,
		Title:  newAlertTitle,
		Body:   fmt.Sprintf("Incident: %s at %s", a.IncidentType.Label(), a.Location.Address),
		Data: map[string]string{
			"alertId":      a.ID,
			"incidentType": string(a.IncidentType),
		},
	}
}

// StaffTokenSource reads staff push tokens straight from the user store.
type StaffTokenSource struct {
	users user.Repository
}

// NewStaffTokenSource creates a token source backed by users
func NewStaffTokenSource(users user.Repository) *StaffTokenSource {
	return &StaffTokenSource{users: users}
}

// StaffTokens implements notification.TokenSource
func (s *StaffTokenSource) StaffTokens(ctx context.Context) ([]string, error) {
	return s.users.ListPushTokensByRoles(ctx, user.StaffRoles())
}
