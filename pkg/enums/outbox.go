package enums

// OutboxEventType names domain events flowing through the outbox.
type OutboxEventType string

const (
	EventNotificationCreated OutboxEventType = "notification.created"
	EventFriendRequestSent   OutboxEventType = "friend_request.sent"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateNotification OutboxAggregateType = "notification"
	AggregateFriendship   OutboxAggregateType = "friendship"
)
