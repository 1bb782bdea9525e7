package services

import (
	"context"
	"strings"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
)

// TokenCacheInvalidator drops cached staff tokens after a registration.
type TokenCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// UserService implements user.Service
type UserService struct {
	repo        user.Repository
	invalidator TokenCacheInvalidator
	logger      *logger.Logger
}

// NewUserService creates a new user service. invalidator may be nil.
func NewUserService(repo user.Repository, invalidator TokenCacheInvalidator, log *logger.Logger) user.Service {
	return &UserService{
		repo:        repo,
		invalidator: invalidator,
		logger:      log,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// RegisterPushToken stores a device token for the actor
func (s *UserService) RegisterPushToken(ctx context.Context, actor *user.Actor, token string) error {
	if actor == nil || actor.ID == "" {
		return errors.Unauthorized("Authentication required")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.ValidationError("Push token is required", nil)
	}

	if err := s.repo.AddPushToken(ctx, actor.ID, token); err != nil {
		s.logger.ErrorWithErr(err, "Failed to save push token")
		return err
	}

	if actor.IsStaff() && s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": actor.ID,
		"role":    actor.Role,
	}).Info("Push token registered")
	return nil
}
