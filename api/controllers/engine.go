package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/api/middleware"
	"github.com/joinhively/hively-backend/internal/engine"
	"github.com/joinhively/hively-backend/internal/session"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
)

// EngineProvider hands out the per-session reconciliation engine for the
// authenticated user. Satisfied by *engine.Registry.
type EngineProvider interface {
	Acquire(ctx context.Context, sess session.Context) (*engine.Engine, error)
	Release(userID uuid.UUID) error
}

func sessionFromRequest(r *http.Request) (session.Context, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return session.Context{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return session.Context{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return session.Context{UserID: userID, Token: middleware.TokenFromContext(r.Context())}, nil
}

func acquireEngine(r *http.Request, provider EngineProvider) (*engine.Engine, error) {
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "engine registry unavailable")
	}
	sess, err := sessionFromRequest(r)
	if err != nil {
		return nil, err
	}
	return provider.Acquire(r.Context(), sess)
}
