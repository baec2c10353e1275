package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"hirely/internal/app/authz"
	"hirely/internal/domain/shared/fault"
)

type actorMessage struct{ actor string }

func (m actorMessage) Actor() string { return m.actor }

type adminMessage struct{}

func (adminMessage) AdminOnly() {}

func TestPrincipalAuthorizer(t *testing.T) {
	type testCase struct {
		name      string
		principal *authz.Principal
		message   any
		wantErr   bool
	}

	user := &authz.Principal{UserID: "u1"}
	admin := &authz.Principal{UserID: "root", Roles: []string{"Admin"}}

	tests := []testCase{
		{name: "matching actor", principal: user, message: actorMessage{actor: "u1"}},
		{name: "other actor", principal: user, message: actorMessage{actor: "u2"}, wantErr: true},
		{name: "admin acts for others", principal: admin, message: actorMessage{actor: "u2"}},
		{name: "missing actor", principal: user, message: actorMessage{actor: " "}, wantErr: true},
		{name: "in process caller", message: actorMessage{actor: "u2"}},
		{name: "admin only as user", principal: user, message: adminMessage{}, wantErr: true},
		{name: "admin only as admin", principal: admin, message: adminMessage{}},
		{name: "public message", principal: user, message: struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.principal != nil {
				ctx = authz.WithPrincipal(ctx, *tt.principal)
			}
			err := authz.PrincipalAuthorizer{}.Authorize(ctx, tt.message)
			if tt.wantErr {
				assert.ErrorIs(t, err, fault.ErrForbidden)
				return
			}
			assert.NoError(t, err)
		})
	}
}
