package controllers

import (
	"net/http"

	"github.com/joinhively/hively-backend/api/responses"
	"github.com/joinhively/hively-backend/pkg/logger"
)

// CloseSession tears down the caller's reconciliation engine. Clients call
// this on sign-out so subscriptions do not linger.
func CloseSession(provider EngineProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := provider.Release(sess.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}
