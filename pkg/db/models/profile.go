package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the public display data joined onto friend requests.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"type:text;not null" json:"displayName"`
	AvatarURL   *string   `gorm:"type:text" json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
