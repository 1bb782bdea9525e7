package alert

import (
	"context"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
)

// Service defines the interface for alert lifecycle business logic
type Service interface {
	// Submit validates and records a new alert. actor is nil for anonymous reporters.
	Submit(ctx context.Context, actor *user.Actor, sub Submission) (*View, error)

	// Transition moves an alert to a new status. A nil view is returned when
	// the alert was archived by the move.
	Transition(ctx context.Context, actor *user.Actor, id string, to Status, note string) (*View, error)

	// Get retrieves a live alert
	Get(ctx context.Context, id string) (*View, error)

	// ListLive retrieves live alerts newest first
	ListLive(ctx context.Context, filter Filter) ([]*View, int64, error)

	// ListArchived retrieves archived alerts. Staff only.
	ListArchived(ctx context.Context, actor *user.Actor, sort ArchiveSort, limit, offset int) ([]*ArchivedView, int64, error)

	// GetArchived retrieves one archived alert. Staff only.
	GetArchived(ctx context.Context, actor *user.Actor, id string) (*ArchivedView, error)

	// DeleteArchived permanently removes an archived alert. Admin only.
	DeleteArchived(ctx context.Context, actor *user.Actor, id string) error
}

// Publisher receives lifecycle events after they have been persisted.
type Publisher interface {
	AlertCreated(view *View)
	AlertUpdated(view *View)
	AlertArchived(id string)
}

// Notifier is told about new alerts. Implementations must not block.
type Notifier interface {
	NotifyStaffOfNewAlert(a *Alert)
}
