package messages

import (
	"context"
	"log/slog"
	"sort"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	domainbooking "hirely/internal/domain/booking"
	domainmessaging "hirely/internal/domain/messaging"
)

const (
	postMessageKey  = "messages.post"
	listMessagesKey = "messages.list"
)

type PostMessageCommand struct {
	BookingID string `validate:"required"`
	SenderID  string `validate:"required"`
	Text      string `validate:"required"`
}

func (c PostMessageCommand) Key() string { return postMessageKey }

func (c PostMessageCommand) Actor() string { return c.SenderID }

// PostMessageHandler appends a user message to a booking thread. Only the
// booking's hirer and lister may write to it.
type PostMessageHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *PostMessageHandler) Handle(ctx context.Context, cmd PostMessageCommand) (*dto.ChatMessage, error) {
	now := h.Clock.Now()
	var result dto.ChatMessage
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if !b.IsParticipant(cmd.SenderID) {
			return domainbooking.ErrNotParticipant
		}
		msg, err := domainmessaging.NewUserMessage(domainmessaging.MessageID(support.NewID()), string(b.ID), cmd.SenderID, cmd.Text, now)
		if err != nil {
			return err
		}
		if err := unit.Messages().Append(ctx, msg); err != nil {
			return err
		}
		result = dto.MapMessage(msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Debug("message posted", "booking_id", cmd.BookingID, "message_id", result.ID)
	}
	return &result, nil
}

type ListMessagesQuery struct {
	BookingID string `validate:"required"`
	ViewerID  string `validate:"required"`
}

func (q ListMessagesQuery) Key() string { return listMessagesKey }

func (q ListMessagesQuery) Actor() string { return q.ViewerID }

type ListMessagesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMessagesHandler) Handle(ctx context.Context, q ListMessagesQuery) (dto.ChatMessageList, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	defer cleanup()

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	if !b.IsParticipant(q.ViewerID) {
		return dto.ChatMessageList{}, domainbooking.ErrNotParticipant
	}
	thread, err := unit.Messages().ListByBooking(execCtx, string(b.ID))
	if err != nil {
		return dto.ChatMessageList{}, err
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return domainmessaging.Less(thread[i], thread[j])
	})
	items := make([]dto.ChatMessage, 0, len(thread))
	for _, m := range thread {
		items = append(items, dto.MapMessage(m))
	}
	return dto.ChatMessageList{BookingID: string(b.ID), Items: items}, nil
}

var (
	_ commands.Handler[PostMessageCommand, *dto.ChatMessage]  = (*PostMessageHandler)(nil)
	_ queries.Handler[ListMessagesQuery, dto.ChatMessageList] = (*ListMessagesHandler)(nil)
)
