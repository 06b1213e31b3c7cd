package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/internal/session"
	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
	"github.com/joinhively/hively-backend/pkg/outbox/payloads"
)

const defaultQueueDepth = 256

// Emitter queues domain events for the fan-out pipeline. Optional; a nil
// emitter means created notifications skip the outbox.
type Emitter interface {
	EmitNotificationCreated(ctx context.Context, event payloads.NotificationCreatedEvent) error
}

// ReconcilerParams wires a notification reconciler for one session.
type ReconcilerParams struct {
	Session    session.Context
	Gateway    gateway.Gateway
	Logger     *logger.Logger
	Emitter    Emitter
	QueueDepth int
}

// Reconciler keeps one user's notification list in sync: bulk fetch on
// demand, write-through mutations, realtime events folded in by Run.
type Reconciler struct {
	sess    session.Context
	gw      gateway.Gateway
	logg    *logger.Logger
	emitter Emitter
	store   *Store
	events  chan gateway.Event
	handle  gateway.Handle
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if err := params.Session.Validate(); err != nil {
		return nil, err
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway required")
	}
	depth := params.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &Reconciler{
		sess:    params.Session,
		gw:      params.Gateway,
		logg:    params.Logger,
		emitter: params.Emitter,
		store:   NewStore(),
		events:  make(chan gateway.Event, depth),
	}, nil
}

// List returns a copy of the session's notification list, newest first.
func (r *Reconciler) List() []Notification {
	return r.store.List()
}

// UnreadCount is derived from the local list.
func (r *Reconciler) UnreadCount() int {
	return r.store.UnreadCount()
}

// FetchAll replaces the local list with the newest rows for this user.
// On gateway failure the local list is left untouched. A fetch whose
// result arrives after a newer fetch already applied is discarded.
func (r *Reconciler) FetchAll(ctx context.Context) error {
	seq := r.store.BeginFetch()

	rows, err := r.gw.Select(ctx, notificationsTable, nil,
		gateway.Eq("user_id", r.sess.UserID.String()),
		gateway.Options{OrderBy: "created_at", Desc: true, Limit: MaxStored})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch notifications")
	}

	items := make([]Notification, 0, len(rows))
	for _, row := range rows {
		record, err := fromRow(row)
		if err != nil {
			r.warn(ctx, "skipping malformed notification row")
			continue
		}
		items = append(items, record)
	}

	if !r.store.ApplyFetch(seq, items) {
		r.warn(ctx, "discarding stale notification fetch")
	}
	return nil
}

// MarkAsRead confirms the write remotely before touching local state.
func (r *Reconciler) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	updated, err := r.gw.Update(ctx, notificationsTable,
		gateway.Row{"is_read": true},
		gateway.And(
			gateway.Eq("id", id.String()),
			gateway.Eq("user_id", r.sess.UserID.String()),
		))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if len(updated) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}

	r.store.MarkRead(id)
	return nil
}

// MarkAllAsRead is idempotent; marking an already-read list is a no-op
// remotely and locally.
func (r *Reconciler) MarkAllAsRead(ctx context.Context) error {
	_, err := r.gw.Update(ctx, notificationsTable,
		gateway.Row{"is_read": true},
		gateway.And(
			gateway.Eq("user_id", r.sess.UserID.String()),
			gateway.Eq("is_read", false),
		))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}

	r.store.MarkAllRead()
	return nil
}

// Delete removes the notification remotely, then locally.
func (r *Reconciler) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	err := r.gw.Delete(ctx, notificationsTable,
		gateway.And(
			gateway.Eq("id", id.String()),
			gateway.Eq("user_id", r.sess.UserID.String()),
		))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}

	r.store.Remove(id)
	return nil
}

// CreateParams describes a notification authored for another user.
type CreateParams struct {
	TargetUserID uuid.UUID
	Type         enums.NotificationType
	Title        string
	Message      string
	RelatedID    *uuid.UUID
}

// CreateNotification inserts a notification row for the target user, hands
// the event to the fan-out pipeline, and refreshes the local list.
func (r *Reconciler) CreateNotification(ctx context.Context, params CreateParams) error {
	if params.TargetUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "target user id required")
	}
	if !params.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	if params.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	row := gateway.Row{
		"user_id": params.TargetUserID.String(),
		"type":    string(params.Type),
		"title":   params.Title,
		"message": params.Message,
		"is_read": false,
	}
	if params.RelatedID != nil {
		row["related_id"] = params.RelatedID.String()
	}

	inserted, err := r.gw.Insert(ctx, notificationsTable, row)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	if r.emitter != nil {
		record, convErr := fromRow(inserted)
		if convErr == nil {
			event := payloads.NotificationCreatedEvent{
				NotificationID: record.ID,
				UserID:         record.UserID,
				Type:           record.Type,
				Title:          record.Title,
				Message:        record.Message,
				RelatedID:      record.RelatedID,
			}
			if err := r.emitter.EmitNotificationCreated(ctx, event); err != nil {
				r.error(ctx, "queue notification fan-out", err)
			}
		}
	}

	return r.FetchAll(ctx)
}

// Start opens the realtime subscription scoped to this user. Events land
// on the internal queue; Run drains it.
func (r *Reconciler) Start() error {
	handle, err := r.gw.Subscribe(notificationsTable,
		gateway.Eq("user_id", r.sess.UserID.String()),
		func(ev gateway.Event) {
			select {
			case r.events <- ev:
			default:
				r.warn(context.Background(), "notification event queue full, dropping event")
			}
		})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe notifications")
	}
	r.handle = handle
	return nil
}

// Run drains the event queue until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			r.handleEvent(ctx, ev)
		}
	}
}

// Inject delivers a synthetic event through the same path the realtime
// feed uses. Serves the event loop in tests and local tooling.
func (r *Reconciler) Inject(ctx context.Context, ev gateway.Event) {
	r.handleEvent(ctx, ev)
}

// Close tears down the realtime subscription.
func (r *Reconciler) Close() error {
	if r.handle == nil {
		return nil
	}
	return r.handle.Unsubscribe()
}

func (r *Reconciler) handleEvent(ctx context.Context, ev gateway.Event) {
	record, err := fromRow(ev.Row)
	if err != nil {
		r.warn(ctx, "skipping malformed notification event")
		return
	}
	if record.UserID != uuid.Nil && record.UserID != r.sess.UserID {
		return
	}

	switch ev.Kind {
	case gateway.EventInsert:
		r.store.Upsert(record)
	case gateway.EventUpdate:
		r.store.Patch(record)
	case gateway.EventDelete:
		r.store.Remove(record.ID)
	}
}

func (r *Reconciler) warn(ctx context.Context, msg string) {
	if r.logg != nil {
		r.logg.Warn(r.logg.WithUserID(ctx, r.sess.UserID.String()), msg)
	}
}

func (r *Reconciler) error(ctx context.Context, msg string, err error) {
	if r.logg != nil {
		r.logg.Error(r.logg.WithUserID(ctx, r.sess.UserID.String()), msg, err)
	}
}
