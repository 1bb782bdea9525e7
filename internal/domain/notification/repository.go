package notification

import "context"

// Repository defines the notification repository interface
type Repository interface {
	CreateLog(ctx context.Context, log *Log) error
	UpdateLog(ctx context.Context, log *Log) error
	ListLogs(ctx context.Context, filter LogFilter, limit, offset int) ([]*Log, int64, error)
}

// TokenSource resolves the device tokens of on-call staff.
type TokenSource interface {
	StaffTokens(ctx context.Context) ([]string, error)
}
