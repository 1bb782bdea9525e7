package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
)

// NotificationRepository implements notification.Repository for PostgreSQL/SQLite
type NotificationRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, dialect Dialect) *NotificationRepository {
	return &NotificationRepository{db: db, dialect: dialect}
}

// CreateLog creates a notification log entry
func (r *NotificationRepository) CreateLog(ctx context.Context, l *notification.Log) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notification_logs (id, alert_id, channel, notification_type, status, recipients, payload, error_message, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		l.ID,
		l.AlertID,
		string(l.Channel),
		string(l.NotificationType),
		string(l.Status),
		l.Recipients,
		nullString(string(l.Payload)),
		l.ErrorMessage,
		nullTime(l.SentAt),
		formatTime(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}
	return nil
}

// UpdateLog updates a notification log entry
func (r *NotificationRepository) UpdateLog(ctx context.Context, l *notification.Log) error {
	query := `
		UPDATE notification_logs
		SET status = ?, recipients = ?, error_message = ?, sent_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		string(l.Status),
		l.Recipients,
		l.ErrorMessage,
		nullTime(l.SentAt),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification log: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("notification log not found")
	}
	return nil
}

// ListLogs lists notification logs with filters
func (r *NotificationRepository) ListLogs(ctx context.Context, filter notification.LogFilter, limit, offset int) ([]*notification.Log, int64, error) {
	where := []string{"1 = 1"}
	var args []interface{}

	if filter.AlertID != "" {
		where = append(where, "alert_id = ?")
		args = append(args, filter.AlertID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM notification_logs WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notification logs: %w", err)
	}

	query := `
		SELECT id, alert_id, channel, notification_type, status, recipients, payload, error_message, sent_at, created_at
		FROM notification_logs
		WHERE ` + whereClause + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*notification.Log
	for rows.Next() {
		var l notification.Log
		var channel, nType, status, createdAt string
		var payload, sentAt sql.NullString

		if err := rows.Scan(&l.ID, &l.AlertID, &channel, &nType, &status, &l.Recipients, &payload, &l.ErrorMessage, &sentAt, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification log: %w", err)
		}

		l.Channel = notification.Channel(channel)
		l.NotificationType = notification.NotificationType(nType)
		l.Status = notification.DeliveryStatus(status)
		if payload.Valid {
			l.Payload = []byte(payload.String)
		}
		if sentAt.Valid {
			t := parseTime(sentAt.String)
			l.SentAt = &t
		}
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, &l)
	}

	return logs, total, rows.Err()
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
