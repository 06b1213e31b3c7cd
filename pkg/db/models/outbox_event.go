package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/pkg/enums"
)

// OutboxEvent is a pending domain event awaiting publication.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"type:text;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"type:text;not null"`
	AggregateID   uuid.UUID                 `gorm:"type:uuid;not null"`
	Payload       []byte                    `gorm:"type:jsonb;not null"`
	AttemptCount  int                       `gorm:"not null;default:0"`
	LastError     *string                   `gorm:"type:text"`
	PublishedAt   *time.Time                `gorm:"type:timestamptz"`
	CreatedAt     time.Time                 `gorm:"type:timestamptz;default:now()"`
}
