package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/internal/session"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"go.uber.org/multierr"
)

// Registry hands out one engine per user, building it on first use and
// tearing it down on release.
type Registry struct {
	deps Deps

	mu      sync.Mutex
	engines map[uuid.UUID]*Engine
}

func NewRegistry(deps Deps) (*Registry, error) {
	if deps.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway required")
	}
	if deps.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profiles service required")
	}
	return &Registry{
		deps:    deps,
		engines: map[uuid.UUID]*Engine{},
	}, nil
}

// Acquire returns the engine for the session's user, creating and
// priming it on first use.
func (r *Registry) Acquire(ctx context.Context, sess session.Context) (*Engine, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if eng, ok := r.engines[sess.UserID]; ok {
		r.mu.Unlock()
		return eng, nil
	}
	r.mu.Unlock()

	// Built outside the lock; priming performs network fetches.
	eng, err := New(ctx, sess, r.deps)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.engines[sess.UserID]; ok {
		// lost the race to a concurrent sign-in
		go func() { _ = eng.Close() }()
		return existing, nil
	}
	r.engines[sess.UserID] = eng
	return eng, nil
}

// Release destroys the user's engine, if any. Sign-out path.
func (r *Registry) Release(userID uuid.UUID) error {
	r.mu.Lock()
	eng, ok := r.engines[userID]
	delete(r.engines, userID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return eng.Close()
}

// Close tears down every engine.
func (r *Registry) Close() error {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, eng := range r.engines {
		engines = append(engines, eng)
	}
	r.engines = map[uuid.UUID]*Engine{}
	r.mu.Unlock()

	var errs error
	for _, eng := range engines {
		errs = multierr.Append(errs, eng.Close())
	}
	return errs
}
