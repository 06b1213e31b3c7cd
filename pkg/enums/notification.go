package enums

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypeMessage       NotificationType = "message"
	NotificationTypeComment       NotificationType = "comment"
	NotificationTypeMention       NotificationType = "mention"
	NotificationTypeLike          NotificationType = "like"
	NotificationTypeFollow        NotificationType = "follow"
	NotificationTypeFriendRequest NotificationType = "friend_request"
	NotificationTypeSystem        NotificationType = "system"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeMessage,
		NotificationTypeComment,
		NotificationTypeMention,
		NotificationTypeLike,
		NotificationTypeFollow,
		NotificationTypeFriendRequest,
		NotificationTypeSystem:
		return true
	}
	return false
}

// ActionURL maps a notification type to the page the client should open.
func (t NotificationType) ActionURL() string {
	switch t {
	case NotificationTypeMessage:
		return "/messages"
	case NotificationTypeComment:
		return "/communities"
	case NotificationTypeMention:
		return "/communities/my-community"
	case NotificationTypeLike:
		return "/communities"
	case NotificationTypeFollow:
		return "/profile"
	case NotificationTypeFriendRequest:
		return "/notifications"
	case NotificationTypeSystem:
		return "/dashboard"
	default:
		return "/notifications"
	}
}

// IconColor maps a notification type to its display color category.
func (t NotificationType) IconColor() string {
	switch t {
	case NotificationTypeMessage:
		return "blue"
	case NotificationTypeComment:
		return "green"
	case NotificationTypeMention:
		return "purple"
	case NotificationTypeLike:
		return "red"
	case NotificationTypeFollow:
		return "dark-blue"
	case NotificationTypeFriendRequest:
		return "green"
	case NotificationTypeSystem:
		return "yellow"
	default:
		return "gray"
	}
}
