package enums

// FriendshipStatus tracks the lifecycle of a friendship edge.
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	FriendshipStatusRejected FriendshipStatus = "rejected"
)

func (s FriendshipStatus) IsValid() bool {
	switch s {
	case FriendshipStatusPending, FriendshipStatusAccepted, FriendshipStatusRejected:
		return true
	}
	return false
}

// Blocks reports whether an edge in this status prevents a new request
// between the same pair. Rejected edges block too: there is no automatic
// resurrection of a previously rejected request.
func (s FriendshipStatus) Blocks() bool {
	return s.IsValid()
}
