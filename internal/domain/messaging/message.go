package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hirely/internal/domain/shared/fault"
)

// SystemSender marks messages authored by the platform.
const SystemSender = "system"

const maxTextLength = 4000

var (
	ErrEmptyText     = fmt.Errorf("messaging: text is required: %w", fault.ErrValidation)
	ErrTextTooLong   = fmt.Errorf("messaging: text exceeds %d characters: %w", maxTextLength, fault.ErrValidation)
	ErrSenderMissing = fmt.Errorf("messaging: sender is required: %w", fault.ErrValidation)
	ErrReservedName  = fmt.Errorf("messaging: sender id is reserved: %w", fault.ErrForbidden)
)

type MessageID string

type Type string

const (
	TypeUser   Type = "USER"
	TypeSystem Type = "SYSTEM"
)

type Message struct {
	ID        MessageID
	BookingID string
	SenderID  string
	Text      string
	Type      Type
	CreatedAt time.Time
}

//go:generate mockgen -source=message.go -destination=repository_mock.go -package=messaging

// Repository is append-only; ListByBooking returns messages ordered by
// (CreatedAt, ID) ascending.
type Repository interface {
	Append(ctx context.Context, msg *Message) error
	ListByBooking(ctx context.Context, bookingID string) ([]*Message, error)
}

func NewUserMessage(id MessageID, bookingID, senderID, text string, now time.Time) (*Message, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, ErrSenderMissing
	}
	if senderID == SystemSender {
		return nil, ErrReservedName
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len([]rune(text)) > maxTextLength {
		return nil, ErrTextTooLong
	}
	return &Message{
		ID:        id,
		BookingID: bookingID,
		SenderID:  senderID,
		Text:      text,
		Type:      TypeUser,
		CreatedAt: now.UTC(),
	}, nil
}

func NewSystemMessage(id MessageID, bookingID, text string, now time.Time) *Message {
	return &Message{
		ID:        id,
		BookingID: bookingID,
		SenderID:  SystemSender,
		Text:      text,
		Type:      TypeSystem,
		CreatedAt: now.UTC(),
	}
}

// Less orders messages by creation time, then by id.
func Less(a, b *Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
