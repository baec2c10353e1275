package users

import (
	"context"
	"errors"
	"log/slog"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	"hirely/internal/domain/shared/fault"
	domainusers "hirely/internal/domain/users"
)

const (
	registerUserKey         = "users.register"
	blockDatesKey           = "users.block_dates"
	unblockDatesKey         = "users.unblock_dates"
	markIdentityVerifiedKey = "users.mark_identity_verified"
	getUserKey              = "users.get"
)

// RegisterUserCommand creates a profile for an identity issued by the auth
// provider. The ID is the token subject.
type RegisterUserCommand struct {
	UserID string `validate:"required"`
	Email  string `validate:"required,email"`
	Name   string `validate:"required,max=200"`
}

func (c RegisterUserCommand) Key() string { return registerUserKey }

func (c RegisterUserCommand) Actor() string { return c.UserID }

type RegisterUserHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*dto.User, error) {
	user, err := domainusers.NewUser(domainusers.CreateParams{
		ID:        domainusers.ID(cmd.UserID),
		Email:     cmd.Email,
		Name:      cmd.Name,
		CreatedAt: h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	err = support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		_, err := unit.Users().ByID(ctx, user.ID)
		switch {
		case err == nil:
			return domainusers.ErrAlreadyExists
		case !errors.Is(err, fault.ErrNotFound):
			return err
		}
		return unit.Users().Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("user registered", "user_id", user.ID)
	}
	result := dto.MapUser(user)
	return &result, nil
}

// DatesCommand edits the caller's blocked days. Block adds, unblock removes.
type DatesCommand struct {
	UserID string   `validate:"required"`
	Dates  []string `validate:"required,min=1,dive,day"`
}

type BlockDatesCommand DatesCommand

func (c BlockDatesCommand) Key() string { return blockDatesKey }

func (c BlockDatesCommand) Actor() string { return c.UserID }

type UnblockDatesCommand DatesCommand

func (c UnblockDatesCommand) Key() string { return unblockDatesKey }

func (c UnblockDatesCommand) Actor() string { return c.UserID }

type BlockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (*dto.User, error) {
	return editUser(ctx, h.UoWFactory, cmd.UserID, h.Logger, "dates blocked", func(u *domainusers.User) error {
		return u.BlockDates(cmd.Dates, h.Clock.Now())
	})
}

type UnblockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *UnblockDatesHandler) Handle(ctx context.Context, cmd UnblockDatesCommand) (*dto.User, error) {
	return editUser(ctx, h.UoWFactory, cmd.UserID, h.Logger, "dates unblocked", func(u *domainusers.User) error {
		return u.UnblockDates(cmd.Dates, h.Clock.Now())
	})
}

// MarkIdentityVerifiedCommand is restricted to administrators.
type MarkIdentityVerifiedCommand struct {
	UserID string `validate:"required"`
}

func (c MarkIdentityVerifiedCommand) Key() string { return markIdentityVerifiedKey }

func (c MarkIdentityVerifiedCommand) AdminOnly() {}

type MarkIdentityVerifiedHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *MarkIdentityVerifiedHandler) Handle(ctx context.Context, cmd MarkIdentityVerifiedCommand) (*dto.User, error) {
	return editUser(ctx, h.UoWFactory, cmd.UserID, h.Logger, "identity verified", func(u *domainusers.User) error {
		u.MarkIdentityVerified(h.Clock.Now())
		return nil
	})
}

func editUser(ctx context.Context, factory uow.UoWFactory, userID string, logger *slog.Logger, msg string, edit func(*domainusers.User) error) (*dto.User, error) {
	var result dto.User
	err := support.WithinUnit(ctx, factory, func(ctx context.Context, unit uow.UnitOfWork) error {
		user, err := unit.Users().ByID(ctx, domainusers.ID(userID))
		if err != nil {
			return err
		}
		if err := edit(user); err != nil {
			return err
		}
		if err := unit.Users().Save(ctx, user); err != nil {
			return err
		}
		result = dto.MapUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info(msg, "user_id", userID)
	}
	return &result, nil
}

type GetUserQuery struct {
	UserID string `validate:"required"`
}

func (q GetUserQuery) Key() string { return getUserKey }

type GetUserHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (dto.User, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.User{}, err
	}
	defer cleanup()

	user, err := unit.Users().ByID(execCtx, domainusers.ID(q.UserID))
	if err != nil {
		return dto.User{}, err
	}
	return dto.MapUser(user), nil
}

var (
	_ commands.Handler[RegisterUserCommand, *dto.User]         = (*RegisterUserHandler)(nil)
	_ commands.Handler[BlockDatesCommand, *dto.User]           = (*BlockDatesHandler)(nil)
	_ commands.Handler[UnblockDatesCommand, *dto.User]         = (*UnblockDatesHandler)(nil)
	_ commands.Handler[MarkIdentityVerifiedCommand, *dto.User] = (*MarkIdentityVerifiedHandler)(nil)
	_ queries.Handler[GetUserQuery, dto.User]                  = (*GetUserHandler)(nil)
)
