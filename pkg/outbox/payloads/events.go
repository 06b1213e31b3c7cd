// Package payloads defines the typed data carried inside outbox envelopes.
package payloads

import (
	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/pkg/enums"
)

// NotificationCreatedEvent fans a freshly inserted notification out to
// delivery channels (push, email digests).
type NotificationCreatedEvent struct {
	NotificationID uuid.UUID              `json:"notificationId"`
	UserID         uuid.UUID              `json:"userId"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	RelatedID      *uuid.UUID             `json:"relatedId,omitempty"`
}

// FriendRequestSentEvent notifies the recipient of a new pending edge.
type FriendRequestSentEvent struct {
	FriendshipID uuid.UUID `json:"friendshipId"`
	SenderID     uuid.UUID `json:"senderId"`
	RecipientID  uuid.UUID `json:"recipientId"`
}
