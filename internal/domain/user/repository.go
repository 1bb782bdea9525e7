package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetMany retrieves the users with the given IDs keyed by ID. Unknown IDs are skipped.
	GetMany(ctx context.Context, ids []string) (map[string]*User, error)

	// AddPushToken registers a device token for a user. Duplicate tokens are ignored.
	AddPushToken(ctx context.Context, userID, token string) error

	// ListPushTokensByRoles returns every token held by users with one of the roles
	ListPushTokensByRoles(ctx context.Context, roles []Role) ([]string, error)
}
