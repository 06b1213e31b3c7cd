// Package friends reconciles the pending friend request views for one
// session: incoming and outgoing edges over the friendships table, each
// joined with the other party's profile.
package friends

import (
	"time"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/internal/profiles"
	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
)

const friendshipsTable = "friendships"

// Request is a pending friendship edge plus the other party's profile.
// Profile is nil when the join could not be resolved; the view still
// renders the edge.
type Request struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	FriendID  uuid.UUID              `json:"friendId"`
	Status    enums.FriendshipStatus `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
	Profile   *profiles.Profile      `json:"profile,omitempty"`
}

// CounterpartID is the other party relative to the given viewer.
func (r Request) CounterpartID(viewer uuid.UUID) uuid.UUID {
	if r.UserID == viewer {
		return r.FriendID
	}
	return r.UserID
}

func requestFromRow(row gateway.Row) (Request, error) {
	id := gateway.UUID(row, "id")
	if id == uuid.Nil {
		return Request{}, pkgerrors.New(pkgerrors.CodeInternal, "friendship row missing id")
	}
	return Request{
		ID:        id,
		UserID:    gateway.UUID(row, "user_id"),
		FriendID:  gateway.UUID(row, "friend_id"),
		Status:    enums.FriendshipStatus(gateway.String(row, "status")),
		CreatedAt: gateway.Time(row, "created_at"),
	}, nil
}
