package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat message within a conversation. IsRead is nullable on
// purpose: older deployments lack the column entirely and the unread
// counter degrades when it is absent.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null" json:"conversationId"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"senderId"`
	IsRead         *bool     `gorm:"column:is_read" json:"isRead,omitempty"`
	CreatedAt      time.Time `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
