package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// RegisterPushToken stores a device token for the actor
	RegisterPushToken(ctx context.Context, actor *Actor, token string) error
}
