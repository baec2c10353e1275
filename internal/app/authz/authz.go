// Package authz carries the authenticated principal through the context and
// checks it against the actor named by commands and queries.
package authz

import (
	"context"
	"fmt"
	"strings"

	"hirely/internal/domain/shared/fault"
)

const RoleAdmin = "admin"

var (
	ErrUnauthenticated = fmt.Errorf("authz: actor is required: %w", fault.ErrForbidden)
	ErrActorMismatch   = fmt.Errorf("authz: principal cannot act for another user: %w", fault.ErrForbidden)
	ErrAdminRequired   = fmt.Errorf("authz: admin role required: %w", fault.ErrForbidden)
)

type Principal struct {
	UserID string
	Roles  []string
}

func (p Principal) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// ActorMessage is implemented by commands and queries issued on behalf of a user.
type ActorMessage interface {
	Actor() string
}

// AdminMessage is implemented by messages reserved to administrators.
type AdminMessage interface {
	AdminOnly()
}

// PrincipalAuthorizer requires an actor on actor-bearing messages and, when a
// principal is present, that it matches the actor. Calls without a principal
// come from trusted in-process callers.
type PrincipalAuthorizer struct{}

func (PrincipalAuthorizer) Authorize(ctx context.Context, message any) error {
	p, hasPrincipal := PrincipalFrom(ctx)
	if _, ok := message.(AdminMessage); ok {
		if hasPrincipal && !p.HasRole(RoleAdmin) {
			return ErrAdminRequired
		}
		return nil
	}
	am, ok := message.(ActorMessage)
	if !ok {
		return nil
	}
	actor := strings.TrimSpace(am.Actor())
	if actor == "" {
		return ErrUnauthenticated
	}
	if hasPrincipal && p.UserID != actor && !p.HasRole(RoleAdmin) {
		return ErrActorMismatch
	}
	return nil
}
