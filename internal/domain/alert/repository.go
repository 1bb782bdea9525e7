package alert

import "context"

// Repository defines the interface for live alert data access
type Repository interface {
	// Create persists a new alert
	Create(ctx context.Context, alert *Alert) error

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, id string) (*Alert, error)

	// ListLive returns alerts newest first together with the unpaginated total
	ListLive(ctx context.Context, filter Filter) ([]*Alert, int64, error)

	// ListIDs returns the IDs of every live alert
	ListIDs(ctx context.Context) ([]string, error)

	// Update applies mutate to the stored alert inside a transaction and
	// persists the result. The mutator's error aborts the update.
	Update(ctx context.Context, id string, mutate func(*Alert) error) (*Alert, error)

	// Delete removes an alert
	Delete(ctx context.Context, id string) error
}

// ArchiveRepository defines the interface for archived alert data access
type ArchiveRepository interface {
	// Insert stores an archived alert. Inserting an existing ID is a no-op.
	Insert(ctx context.Context, alert *ArchivedAlert) error

	// GetByID retrieves an archived alert by ID
	GetByID(ctx context.Context, id string) (*ArchivedAlert, error)

	// Exists reports whether id has been archived
	Exists(ctx context.Context, id string) (bool, error)

	// FilterExisting returns the subset of ids that have been archived
	FilterExisting(ctx context.Context, ids []string) ([]string, error)

	// List returns archived alerts in the requested order with the total count
	List(ctx context.Context, sort ArchiveSort, limit, offset int) ([]*ArchivedAlert, int64, error)

	// Delete removes an archived alert
	Delete(ctx context.Context, id string) error
}
