package client

import "context"

// UserService handles calls about the token's user
type UserService struct {
	client *Client
}

// Me retrieves the current user
func (s *UserService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.client.doRequest(ctx, "GET", "/api/v1/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterPushToken registers a device for new-alert notifications
func (s *UserService) RegisterPushToken(ctx context.Context, token string) error {
	return s.client.doRequest(ctx, "POST", "/api/v1/users/me/push-tokens", map[string]string{"token": token}, nil)
}
