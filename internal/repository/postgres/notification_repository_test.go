package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
)

func TestNotificationRepository_Lifecycle(t *testing.T) {
	db, dialect := newTestDB(t)
	repo := NewNotificationRepository(db, dialect)
	ctx := context.Background()

	entry := &notification.Log{
		AlertID:          "alert-1",
		Channel:          notification.ChannelPush,
		NotificationType: notification.NotificationTypeNewAlert,
		Status:           notification.DeliveryStatusPending,
		Recipients:       3,
		Payload:          []byte(`{"title":"New Emergency Alert!"}`),
	}
	if err := repo.CreateLog(ctx, entry); err != nil {
		t.Fatalf("CreateLog() error = %v", err)
	}
	if entry.ID == "" {
		t.Fatal("CreateLog() did not set ID")
	}

	sent := time.Now().UTC()
	entry.Status = notification.DeliveryStatusSent
	entry.SentAt = &sent
	if err := repo.UpdateLog(ctx, entry); err != nil {
		t.Fatalf("UpdateLog() error = %v", err)
	}

	_ = repo.CreateLog(ctx, &notification.Log{
		AlertID:          "alert-2",
		Channel:          notification.ChannelPush,
		NotificationType: notification.NotificationTypeNewAlert,
		Status:           notification.DeliveryStatusFailed,
		ErrorMessage:     "gateway unavailable",
	})

	logs, total, err := repo.ListLogs(ctx, notification.LogFilter{Status: notification.DeliveryStatusSent}, 10, 0)
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if total != 1 || len(logs) != 1 {
		t.Fatalf("ListLogs() = %d items, total %d", len(logs), total)
	}
	got := logs[0]
	if got.AlertID != "alert-1" || got.Recipients != 3 || got.SentAt == nil || string(got.Payload) != `{"title":"New Emergency Alert!"}` {
		t.Errorf("log = %+v", got)
	}

	all, total, _ := repo.ListLogs(ctx, notification.LogFilter{}, 10, 0)
	if total != 2 || len(all) != 2 {
		t.Errorf("ListLogs(all) = %d items, total %d", len(all), total)
	}

	missing := &notification.Log{ID: "missing", Status: notification.DeliveryStatusSent}
	if err := repo.UpdateLog(ctx, missing); err == nil {
		t.Error("UpdateLog(missing) error = nil")
	}
}
