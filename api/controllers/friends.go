package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/api/responses"
	"github.com/joinhively/hively-backend/api/validators"
	"github.com/joinhively/hively-backend/internal/friends"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/logger"
)

type friendRequestListResponse struct {
	Requests []friends.Request `json:"requests"`
}

func IncomingFriendRequests(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, friendRequestListResponse{Requests: eng.Friends.PendingIncoming()})
	}
}

func OutgoingFriendRequests(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, friendRequestListResponse{Requests: eng.Friends.PendingOutgoing()})
	}
}

type sendFriendRequestBody struct {
	FriendID string `json:"friendId" validate:"required,uuid"`
}

func SendFriendRequest(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendFriendRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		friendID, err := uuid.Parse(body.FriendID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid friend id"))
			return
		}

		if err := eng.Friends.Send(r.Context(), friendID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, friendRequestListResponse{Requests: eng.Friends.PendingOutgoing()})
	}
}

func AcceptFriendRequest(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return decideFriendRequest(provider, logg, func(r *http.Request, rec *friends.Reconciler, id uuid.UUID) error {
		return rec.Accept(r.Context(), id)
	})
}

func RejectFriendRequest(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return decideFriendRequest(provider, logg, func(r *http.Request, rec *friends.Reconciler, id uuid.UUID) error {
		return rec.Reject(r.Context(), id)
	})
}

func decideFriendRequest(provider EngineProvider, logg *logger.Logger, decide func(*http.Request, *friends.Reconciler, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng, err := acquireEngine(r, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "requestId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		if err := decide(r, eng.Friends, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, friendRequestListResponse{Requests: eng.Friends.PendingIncoming()})
	}
}
