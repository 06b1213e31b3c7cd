package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationParticipant is the membership pair deciding which
// conversations count toward a user's unread total.
type ConversationParticipant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversationId"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	JoinedAt       time.Time `gorm:"type:timestamptz;default:now()" json:"joinedAt"`
}
