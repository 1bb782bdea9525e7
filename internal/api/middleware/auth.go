package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/emsdispatch/internal/auth"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// ActorKey is the context key for the verified request identity
	ActorKey ContextKey = "actor"
)

// TokenVerifier validates bearer tokens
type TokenVerifier struct {
	secret string
	issuer string
}

// NewTokenVerifier creates a verifier for HS256 tokens from issuer
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: secret, issuer: issuer}
}

// tokenFromRequest reads the token from the Authorization header, then the
// accessToken cookie, then the token query parameter.
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func (v *TokenVerifier) actor(r *http.Request) (*user.Actor, bool, error) {
	tokenStr := tokenFromRequest(r)
	if tokenStr == "" {
		return nil, false, nil
	}
	claims, err := auth.ParseClaims(tokenStr, v.secret, v.issuer)
	if err != nil {
		return nil, true, err
	}
	return claims.Actor(), true, nil
}

// Auth returns a middleware that rejects requests without a valid token
func (v *TokenVerifier) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, present, err := v.actor(r)
		if !present {
			utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
			return
		}
		if err != nil {
			utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
			return
		}

		AddLogField(w, "user_id", actor.ID)
		AddLogField(w, "role", actor.Role)
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// OptionalAuth attaches the actor when a valid token is present. A present
// but invalid token is rejected.
func (v *TokenVerifier) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, present, err := v.actor(r)
		if present && err != nil {
			utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
			return
		}
		if actor != nil {
			AddLogField(w, "user_id", actor.ID)
			AddLogField(w, "role", actor.Role)
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects actors that are not EMS personnel or admins
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetActor(r).IsStaff() {
			utils.WriteError(w, errors.Forbidden("EMS personnel access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects actors that are not admins
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetActor(r).IsAdmin() {
			utils.WriteError(w, errors.Forbidden("Administrator access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor stores actor in ctx
func WithActor(ctx context.Context, actor *user.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor extracts the actor from the request context. It returns nil for
// anonymous requests.
func GetActor(r *http.Request) *user.Actor {
	actor, _ := r.Context().Value(ActorKey).(*user.Actor)
	return actor
}
