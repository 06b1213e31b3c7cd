// Package engine assembles the per-session reconcilers and manages their
// lifecycle: one engine per signed-in user, created on demand and torn
// down when the session ends.
package engine

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/joinhively/hively-backend/internal/friends"
	"github.com/joinhively/hively-backend/internal/messages"
	"github.com/joinhively/hively-backend/internal/notifications"
	"github.com/joinhively/hively-backend/internal/profiles"
	"github.com/joinhively/hively-backend/internal/session"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
)

// Deps are the shared process-wide dependencies engines are built from.
type Deps struct {
	Gateway             gateway.Gateway
	Profiles            *profiles.Service
	Logger              *logger.Logger
	NotificationEmitter notifications.Emitter
	FriendEmitter       friends.Emitter
	QueueDepth          int
}

// Engine bundles the three reconcilers serving one session.
type Engine struct {
	sess          session.Context
	Notifications *notifications.Reconciler
	Friends       *friends.Reconciler
	Messages      *messages.Counter

	cancel context.CancelFunc
	done   sync.WaitGroup
}

// New builds and primes an engine: initial fetches, realtime
// subscriptions and the event loops.
func New(ctx context.Context, sess session.Context, deps Deps) (*Engine, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if deps.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway required")
	}
	if deps.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profiles service required")
	}

	notifRec, err := notifications.NewReconciler(notifications.ReconcilerParams{
		Session:    sess,
		Gateway:    deps.Gateway,
		Logger:     deps.Logger,
		Emitter:    deps.NotificationEmitter,
		QueueDepth: deps.QueueDepth,
	})
	if err != nil {
		return nil, err
	}
	friendRec, err := friends.NewReconciler(friends.ReconcilerParams{
		Session:    sess,
		Gateway:    deps.Gateway,
		Profiles:   deps.Profiles,
		Logger:     deps.Logger,
		Emitter:    deps.FriendEmitter,
		QueueDepth: deps.QueueDepth,
	})
	if err != nil {
		return nil, err
	}
	counter, err := messages.NewCounter(messages.CounterParams{
		Session:    sess,
		Gateway:    deps.Gateway,
		Logger:     deps.Logger,
		QueueDepth: deps.QueueDepth,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sess:          sess,
		Notifications: notifRec,
		Friends:       friendRec,
		Messages:      counter,
	}

	if err := e.prime(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) prime(ctx context.Context) error {
	if err := e.Notifications.FetchAll(ctx); err != nil {
		return err
	}
	if err := e.Friends.FetchIncoming(ctx); err != nil {
		return err
	}
	if err := e.Friends.FetchOutgoing(ctx); err != nil {
		return err
	}
	if err := e.Messages.Initialize(ctx); err != nil {
		return err
	}

	if err := e.Notifications.Start(); err != nil {
		return err
	}
	if err := e.Friends.Start(); err != nil {
		return err
	}
	if err := e.Messages.Start(); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.done.Add(3)
	go func() { defer e.done.Done(); _ = e.Notifications.Run(loopCtx) }()
	go func() { defer e.done.Done(); _ = e.Friends.Run(loopCtx) }()
	go func() { defer e.done.Done(); _ = e.Messages.Run(loopCtx) }()
	return nil
}

// Session returns the context this engine serves.
func (e *Engine) Session() session.Context {
	return e.sess
}

// Close stops the event loops and tears down every subscription,
// aggregating teardown errors.
func (e *Engine) Close() error {
	if e.cancel != nil {
		e.cancel()
		e.done.Wait()
		e.cancel = nil
	}
	return multierr.Combine(
		e.Notifications.Close(),
		e.Friends.Close(),
		e.Messages.Close(),
	)
}
