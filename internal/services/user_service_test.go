package services

import (
	"context"
	"testing"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/testutil"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.calls++
}

func TestUserService_RegisterPushToken(t *testing.T) {
	tests := []struct {
		name            string
		actor           *user.Actor
		token           string
		wantCode        string
		wantInvalidated int
	}{
		{name: "staff token", actor: &user.Actor{ID: "medic-1", Role: user.RoleEMSPersonnel}, token: "tok-a", wantInvalidated: 1},
		{name: "citizen token", actor: &user.Actor{ID: "citizen-1", Role: user.RoleCitizen}, token: "tok-b"},
		{name: "unauthenticated", token: "tok-c", wantCode: errors.ErrCodeUnauthorized},
		{name: "blank token", actor: &user.Actor{ID: "medic-1", Role: user.RoleEMSPersonnel}, token: "   ", wantCode: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockUserRepository()
			inv := &countingInvalidator{}
			service := NewUserService(repo, inv, testutil.NewTestLogger())

			err := service.RegisterPushToken(context.Background(), tt.actor, tt.token)
			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Fatalf("RegisterPushToken() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("RegisterPushToken() error = %v", err)
			}
			if got := repo.Tokens[tt.actor.ID]; len(got) != 1 || got[0] != tt.token {
				t.Errorf("stored tokens = %v", got)
			}
			if inv.calls != tt.wantInvalidated {
				t.Errorf("invalidations = %d, want %d", inv.calls, tt.wantInvalidated)
			}
		})
	}
}

func TestUserService_GetByID(t *testing.T) {
	repo := testutil.NewMockUserRepository()
	repo.Users["u-1"] = &user.User{ID: "u-1", Email: "a@example.com", Role: user.RoleCitizen}
	service := NewUserService(repo, nil, testutil.NewTestLogger())

	u, err := service.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if u.Email != "a@example.com" {
		t.Errorf("Email = %q", u.Email)
	}

	if _, err := service.GetByID(context.Background(), "missing"); !errors.IsNotFound(err) {
		t.Errorf("GetByID(missing) error = %v, want not found", err)
	}
}
