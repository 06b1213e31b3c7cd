package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/api/responses"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/logger"
)

type messageCountResponse struct {
	UnreadCount int  `json:"unreadCount"`
	Degraded    bool `json:"degraded"`
}

func UnreadMessageCount(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, messageCountResponse{
			UnreadCount: eng.Messages.Count(),
			Degraded:    eng.Messages.Degraded(),
		})
	}
}

func MarkMessageRead(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "messageId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid message id"))
			return
		}

		if err := eng.Messages.MarkMessageAsRead(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, messageCountResponse{
			UnreadCount: eng.Messages.Count(),
			Degraded:    eng.Messages.Degraded(),
		})
	}
}

func MarkAllMessagesRead(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.Messages.MarkAllAsRead(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, messageCountResponse{
			UnreadCount: eng.Messages.Count(),
			Degraded:    eng.Messages.Degraded(),
		})
	}
}
