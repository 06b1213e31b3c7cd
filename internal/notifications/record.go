// Package notifications keeps a per-session replica of a user's
// notification list synchronized with the backing store, write-through
// mutations first, realtime events folded in as they arrive.
package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
)

const notificationsTable = "notifications"

// Notification is the typed record held in the session store.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	RelatedID *uuid.UUID             `json:"relatedId,omitempty"`
	IsRead    bool                   `json:"isRead"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ActionURL is the page the client opens when the notification is tapped.
func (n Notification) ActionURL() string {
	return n.Type.ActionURL()
}

// IconColor is the display color category for the notification icon.
func (n Notification) IconColor() string {
	return n.Type.IconColor()
}

func fromRow(row gateway.Row) (Notification, error) {
	id := gateway.UUID(row, "id")
	if id == uuid.Nil {
		return Notification{}, pkgerrors.New(pkgerrors.CodeInternal, "notification row missing id")
	}

	record := Notification{
		ID:        id,
		UserID:    gateway.UUID(row, "user_id"),
		Type:      enums.NotificationType(gateway.String(row, "type")),
		Title:     gateway.String(row, "title"),
		Message:   gateway.String(row, "message"),
		IsRead:    gateway.Bool(row, "is_read"),
		CreatedAt: gateway.Time(row, "created_at"),
	}
	if gateway.Has(row, "related_id") {
		if related := gateway.UUID(row, "related_id"); related != uuid.Nil {
			record.RelatedID = &related
		}
	}
	return record, nil
}
