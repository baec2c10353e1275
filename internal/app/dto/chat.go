package dto

import (
	"time"

	domainmessaging "hirely/internal/domain/messaging"
)

// ChatMessage contains a single thread entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	SenderID  string    `json:"sender_id"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessageList is a booking thread in ascending order.
type ChatMessageList struct {
	BookingID string        `json:"booking_id"`
	Items     []ChatMessage `json:"items"`
}

func MapMessage(m *domainmessaging.Message) ChatMessage {
	return ChatMessage{
		ID:        string(m.ID),
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Type:      string(m.Type),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
