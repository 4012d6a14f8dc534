package service

import (
	"context"
	"slices"
	"strings"

	"github.com/iliyamo/zaporka-api/internal/apperr"
	"github.com/iliyamo/zaporka-api/internal/model"
	"github.com/iliyamo/zaporka-api/internal/utils"
)

// Identity is the decoded caller attached to an authenticated request.
type Identity struct {
	ID          string
	PhoneNumber string
	Role        model.Role
}

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// Gate turns an Authorization header into an Identity. It holds no state
// between requests.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate { return &Gate{tokens: tokens} }

const bearerPrefix = "Bearer "

// Authenticate verifies the bearer token in authorization and returns ctx
// carrying the caller's identity. A missing or malformed header is always
// rejected; there is no anonymous fallback.
func (g *Gate) Authenticate(ctx context.Context, authorization string) (context.Context, Identity, error) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return ctx, Identity{}, apperr.New(apperr.KindMissingToken, "missing bearer token")
	}
	if len(authorization) <= len(bearerPrefix) || !strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		return ctx, Identity{}, apperr.New(apperr.KindMalformedToken, "authorization header must be: Bearer <token>")
	}
	raw := strings.TrimSpace(authorization[len(bearerPrefix):])
	if raw == "" {
		return ctx, Identity{}, apperr.New(apperr.KindMalformedToken, "authorization header must be: Bearer <token>")
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return ctx, Identity{}, apperr.From(err)
	}
	id := Identity{ID: claims.ID, PhoneNumber: claims.PhoneNumber, Role: claims.Role}
	return WithIdentity(ctx, id), id, nil
}

// Authorize fails with Forbidden unless id holds one of roles.
func Authorize(id Identity, roles ...model.Role) error {
	if slices.Contains(roles, id.Role) {
		return nil
	}
	return apperr.New(apperr.KindForbidden, "you do not have permission to perform this action")
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by Authenticate, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
