package dto

import (
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromUser maps a user to its API form
func FromUser(u *user.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

// RegisterPushTokenRequest registers a device for push notifications
type RegisterPushTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}
