package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/pkg/enums"
)

// Friendship is a directed edge from the requesting user to the recipient.
// At most one non-rejected edge may exist between any unordered pair; the
// pair_key column stores the sorted id pair backing the unique index.
type Friendship struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null" json:"userId"`
	FriendID  uuid.UUID              `gorm:"type:uuid;not null" json:"friendId"`
	Status    enums.FriendshipStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	PairKey   string                 `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time              `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}

// PairKeyFor builds the order-independent key for a user pair.
func PairKeyFor(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}
