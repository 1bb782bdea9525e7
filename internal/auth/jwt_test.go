package auth

import (
	"testing"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
)

func TestParseClaims(t *testing.T) {
	secret := "test-secret"
	valid, err := MintToken(user.Actor{ID: "u-1", Role: user.RoleEMSPersonnel, Name: "Medic One"}, secret, "", time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}
	expired, _ := MintToken(user.Actor{ID: "u-1", Role: user.RoleAdmin}, secret, "", -time.Minute)
	badRole, _ := MintToken(user.Actor{ID: "u-1", Role: user.Role("janitor")}, secret, "", time.Hour)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{name: "valid token", token: valid, secret: secret},
		{name: "wrong secret", token: valid, secret: "other", wantErr: true},
		{name: "expired token", token: expired, secret: secret, wantErr: true},
		{name: "unknown role", token: badRole, secret: secret, wantErr: true},
		{name: "garbage", token: "not-a-token", secret: secret, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseClaims(tt.token, tt.secret, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClaims() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			actor := claims.Actor()
			if actor.ID != "u-1" || actor.Role != user.RoleEMSPersonnel || actor.Name != "Medic One" {
				t.Errorf("unexpected actor %+v", actor)
			}
		})
	}
}

func TestParseClaims_Issuer(t *testing.T) {
	token, _ := MintToken(user.Actor{ID: "u-2", Role: user.RoleCitizen}, "s", "idp", time.Hour)

	if _, err := ParseClaims(token, "s", "idp"); err != nil {
		t.Errorf("expected matching issuer to verify, got %v", err)
	}
	if _, err := ParseClaims(token, "s", "other-idp"); err == nil {
		t.Error("expected issuer mismatch to fail")
	}
}
