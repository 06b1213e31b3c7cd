// Package session carries the per-user context the reconciliation engine
// is built around. Nothing here is ambient: every reconciler receives its
// session at construction and scopes all queries and subscriptions to it.
package session

import (
	"github.com/google/uuid"

	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
)

// Context identifies the signed-in user an engine instance serves.
type Context struct {
	UserID uuid.UUID
	Token  string
}

// Validate rejects contexts that cannot scope queries.
func (c Context) Validate() error {
	if c.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session user id required")
	}
	return nil
}
