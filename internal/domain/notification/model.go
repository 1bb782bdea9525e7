package notification

import (
	"encoding/json"
	"time"
)

// PushMessage is one multicast sent to a set of device tokens.
type PushMessage struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// SendResult summarises a multicast.
type SendResult struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// Log represents a notification log entry
type Log struct {
	ID               string           `json:"id"`
	AlertID          string           `json:"alert_id"`
	Channel          Channel          `json:"channel"`
	NotificationType NotificationType `json:"notification_type"`
	Status           DeliveryStatus   `json:"status"`
	Recipients       int              `json:"recipients"`
	Payload          json.RawMessage  `json:"payload,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	SentAt           *time.Time       `json:"sent_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Channel represents a notification channel
type Channel string

const (
	ChannelPush Channel = "push"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeNewAlert NotificationType = "new_alert"
)

// DeliveryStatus represents the status of a notification delivery
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
	DeliveryStatusSkipped DeliveryStatus = "skipped"
)

// LogFilter contains log filtering options
type LogFilter struct {
	AlertID string
	Status  DeliveryStatus
}
