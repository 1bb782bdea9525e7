// Package auth verifies bearer tokens issued by the identity provider.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
)

var ErrUnknownRole = errors.New("token carries an unknown role")

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts verified claims to the request identity.
func (c *Claims) Actor() *user.Actor {
	return &user.Actor{ID: c.UserID, Role: user.Role(c.Role), Name: c.Name}
}

// MintToken signs an access token. The service itself only verifies tokens;
// minting exists for tooling and tests.
func MintToken(actor user.Actor, secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: actor.ID,
		Role:   string(actor.Role),
		Name:   actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return t.SignedString([]byte(secret))
}

// ParseClaims verifies an HS256 token and its role claim.
func ParseClaims(tokenStr, secret, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !user.Role(c.Role).Valid() {
		return nil, ErrUnknownRole
	}
	return c, nil
}
