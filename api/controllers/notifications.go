package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/api/responses"
	"github.com/joinhively/hively-backend/api/validators"
	"github.com/joinhively/hively-backend/internal/notifications"
	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/logger"
	"github.com/joinhively/hively-backend/pkg/pagination"
)

type notificationView struct {
	notifications.Notification
	ActionURL string `json:"actionUrl"`
	IconColor string `json:"iconColor"`
}

type notificationListResponse struct {
	Notifications []notificationView `json:"notifications"`
	NextCursor    string             `json:"nextCursor,omitempty"`
	UnreadCount   int                `json:"unreadCount"`
}

// ListNotifications returns the session's reconciled notification list,
// newest first, optionally filtered to unread and paged by cursor.
func ListNotifications(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := pagination.ParseCursor(strings.TrimSpace(r.URL.Query().Get("cursor")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		items := eng.Notifications.List()
		page := make([]notificationView, 0, limit)
		nextCursor := ""
		for _, item := range items {
			if unreadOnly && item.IsRead {
				continue
			}
			if cursor != nil && !afterCursor(item, *cursor) {
				continue
			}
			if len(page) == limit {
				nextCursor = pagination.EncodeCursor(pagination.Cursor{
					CreatedAt: page[limit-1].CreatedAt,
					ID:        page[limit-1].ID,
				})
				break
			}
			page = append(page, notificationView{
				Notification: item,
				ActionURL:    item.ActionURL(),
				IconColor:    item.IconColor(),
			})
		}

		responses.WriteSuccess(w, notificationListResponse{
			Notifications: page,
			NextCursor:    nextCursor,
			UnreadCount:   eng.Notifications.UnreadCount(),
		})
	}
}

// afterCursor reports whether the item sorts strictly after the cursor in
// the list order, newest first with id as tie break.
func afterCursor(item notifications.Notification, cursor pagination.Cursor) bool {
	if item.CreatedAt.Before(cursor.CreatedAt) {
		return true
	}
	if item.CreatedAt.Equal(cursor.CreatedAt) {
		return item.ID.String() < cursor.ID.String()
	}
	return false
}

func UnreadNotificationCount(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"unreadCount": eng.Notifications.UnreadCount()})
	}
}

type createNotificationRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required,uuid"`
	Type         string `json:"type" validate:"required"`
	Title        string `json:"title" validate:"required,max=200"`
	Message      string `json:"message" validate:"max=1000"`
	RelatedID    string `json:"relatedId" validate:"omitempty,uuid"`
}

// CreateNotification authors a notification for another user.
func CreateNotification(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createNotificationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetID, err := uuid.Parse(body.TargetUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target user id"))
			return
		}

		params := notifications.CreateParams{
			TargetUserID: targetID,
			Type:         enums.NotificationType(body.Type),
			Title:        body.Title,
			Message:      body.Message,
		}
		if body.RelatedID != "" {
			relatedID, err := uuid.Parse(body.RelatedID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid related id"))
				return
			}
			params.RelatedID = &relatedID
		}

		if err := eng.Notifications.CreateNotification(r.Context(), params); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

func MarkNotificationRead(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "notificationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := eng.Notifications.MarkAsRead(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"unreadCount": eng.Notifications.UnreadCount()})
	}
}

func MarkAllNotificationsRead(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.Notifications.MarkAllAsRead(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"unreadCount": eng.Notifications.UnreadCount()})
	}
}

func DeleteNotification(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "notificationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := eng.Notifications.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
