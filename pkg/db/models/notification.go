package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to a user.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null" json:"userId"`
	Type      enums.NotificationType `gorm:"type:text;not null" json:"type"`
	Title     string                 `gorm:"type:text;not null" json:"title"`
	Message   string                 `gorm:"type:text;not null" json:"message"`
	RelatedID *uuid.UUID             `gorm:"type:uuid" json:"relatedId,omitempty"`
	IsRead    bool                   `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time              `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
