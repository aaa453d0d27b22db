package models

import (
	"time"

	"github.com/google/uuid"
)

const MaxMessageLength = 5000

type Message struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (m *Message) Prepare() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
}

type Conversation struct {
	Partner     UserSummary `json:"partner"`
	LastMessage Message     `json:"last_message"`
	UnreadCount int         `json:"unread_count"`
}
