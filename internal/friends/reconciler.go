package friends

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/joinhively/hively-backend/internal/profiles"
	"github.com/joinhively/hively-backend/internal/session"
	"github.com/joinhively/hively-backend/pkg/db/models"
	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
	"github.com/joinhively/hively-backend/pkg/outbox/payloads"
)

const defaultQueueDepth = 64

// ProfileFetcher resolves profile joins for the request views.
type ProfileFetcher interface {
	FetchMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*profiles.Profile, error)
}

// Emitter queues friend request events for the fan-out pipeline. Optional.
type Emitter interface {
	EmitFriendRequestSent(ctx context.Context, event payloads.FriendRequestSentEvent) error
}

// ReconcilerParams wires a friend request reconciler for one session.
type ReconcilerParams struct {
	Session    session.Context
	Gateway    gateway.Gateway
	Profiles   ProfileFetcher
	Logger     *logger.Logger
	Emitter    Emitter
	QueueDepth int
}

// Reconciler maintains the pending incoming and outgoing views and the
// send/accept/reject write paths.
type Reconciler struct {
	sess    session.Context
	gw      gateway.Gateway
	prof    ProfileFetcher
	logg    *logger.Logger
	emitter Emitter

	mu          sync.Mutex
	incoming    []Request
	outgoing    []Request
	nextFetch   uint64
	appliedIn   uint64
	appliedOut  uint64

	events   chan gateway.Event
	handles  []gateway.Handle
}

func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if err := params.Session.Validate(); err != nil {
		return nil, err
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway required")
	}
	if params.Profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile fetcher required")
	}
	depth := params.QueueDepth
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &Reconciler{
		sess:    params.Session,
		gw:      params.Gateway,
		prof:    params.Profiles,
		logg:    params.Logger,
		emitter: params.Emitter,
		events:  make(chan gateway.Event, depth),
	}, nil
}

// PendingIncoming returns a copy of the incoming request view.
func (r *Reconciler) PendingIncoming() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.incoming...)
}

// PendingOutgoing returns a copy of the outgoing request view.
func (r *Reconciler) PendingOutgoing() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.outgoing...)
}

// FetchIncoming refreshes requests awaiting this user's decision.
func (r *Reconciler) FetchIncoming(ctx context.Context) error {
	seq := r.beginFetch()

	requests, err := r.fetchView(ctx, gateway.And(
		gateway.Eq("friend_id", r.sess.UserID.String()),
		gateway.Eq("status", string(enums.FriendshipStatusPending)),
	))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq <= r.appliedIn {
		return nil
	}
	r.appliedIn = seq
	r.incoming = requests
	return nil
}

// FetchOutgoing refreshes requests this user has sent and not yet had
// answered.
func (r *Reconciler) FetchOutgoing(ctx context.Context) error {
	seq := r.beginFetch()

	requests, err := r.fetchView(ctx, gateway.And(
		gateway.Eq("user_id", r.sess.UserID.String()),
		gateway.Eq("status", string(enums.FriendshipStatusPending)),
	))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq <= r.appliedOut {
		return nil
	}
	r.appliedOut = seq
	r.outgoing = requests
	return nil
}

func (r *Reconciler) beginFetch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextFetch++
	return r.nextFetch
}

func (r *Reconciler) fetchView(ctx context.Context, filter gateway.Filter) ([]Request, error) {
	rows, err := r.gw.Select(ctx, friendshipsTable, nil, filter,
		gateway.Options{OrderBy: "created_at", Desc: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch friend requests")
	}

	requests := make([]Request, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		request, err := requestFromRow(row)
		if err != nil {
			r.warn(ctx, "skipping malformed friendship row")
			continue
		}
		requests = append(requests, request)
		ids = append(ids, request.CounterpartID(r.sess.UserID))
	}

	// A failed profile join degrades entries to nil profiles instead of
	// failing the whole view.
	resolved, err := r.prof.FetchMany(ctx, ids)
	if err != nil {
		r.warn(ctx, "profile join failed, rendering requests without profiles")
		return requests, nil
	}
	for i := range requests {
		requests[i].Profile = resolved[requests[i].CounterpartID(r.sess.UserID)]
	}
	return requests, nil
}

// Send creates a pending edge toward the target unless any edge already
// exists between the pair in either direction.
func (r *Reconciler) Send(ctx context.Context, target uuid.UUID) error {
	me := r.sess.UserID
	if target == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "target user id required")
	}
	if target == me {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot send a friend request to yourself")
	}

	existing, err := r.gw.Select(ctx, friendshipsTable, nil,
		gateway.Or(
			gateway.And(gateway.Eq("user_id", me.String()), gateway.Eq("friend_id", target.String())),
			gateway.And(gateway.Eq("user_id", target.String()), gateway.Eq("friend_id", me.String())),
		),
		gateway.Options{})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing friendship")
	}
	if conflict := classifyExisting(existing); conflict != nil {
		return conflict
	}

	// The check above races concurrent sends. The unique pair index turns
	// the same-direction duplicate into a conflict here; a simultaneous
	// mutual request remains two pending edges resolved by the later
	// accept or reject.
	inserted, err := r.gw.Insert(ctx, friendshipsTable, gateway.Row{
		"user_id":   me.String(),
		"friend_id": target.String(),
		"status":    string(enums.FriendshipStatusPending),
		"pair_key":  models.PairKeyFor(me, target),
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "friend request already sent")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send friend request")
	}

	if r.emitter != nil {
		event := payloads.FriendRequestSentEvent{
			FriendshipID: gateway.UUID(inserted, "id"),
			SenderID:     me,
			RecipientID:  target,
		}
		if err := r.emitter.EmitFriendRequestSent(ctx, event); err != nil {
			r.error(ctx, "queue friend request fan-out", err)
		}
	}

	return r.FetchOutgoing(ctx)
}

func classifyExisting(rows []gateway.Row) error {
	var pending, accepted, rejected bool
	for _, row := range rows {
		switch enums.FriendshipStatus(gateway.String(row, "status")) {
		case enums.FriendshipStatusPending:
			pending = true
		case enums.FriendshipStatusAccepted:
			accepted = true
		case enums.FriendshipStatusRejected:
			rejected = true
		}
	}
	switch {
	case accepted:
		return pkgerrors.New(pkgerrors.CodeConflict, "already friends")
	case pending:
		return pkgerrors.New(pkgerrors.CodeConflict, "friend request already sent")
	case rejected:
		return pkgerrors.New(pkgerrors.CodeConflict, "friend request previously rejected")
	default:
		return nil
	}
}

// Accept confirms an incoming request. The edge must still be pending and
// addressed to this user.
func (r *Reconciler) Accept(ctx context.Context, requestID uuid.UUID) error {
	return r.decide(ctx, requestID, enums.FriendshipStatusAccepted)
}

// Reject declines an incoming request.
func (r *Reconciler) Reject(ctx context.Context, requestID uuid.UUID) error {
	return r.decide(ctx, requestID, enums.FriendshipStatusRejected)
}

func (r *Reconciler) decide(ctx context.Context, requestID uuid.UUID, status enums.FriendshipStatus) error {
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	updated, err := r.gw.Update(ctx, friendshipsTable,
		gateway.Row{"status": string(status)},
		gateway.And(
			gateway.Eq("id", requestID.String()),
			gateway.Eq("friend_id", r.sess.UserID.String()),
			gateway.Eq("status", string(enums.FriendshipStatusPending)),
		))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update friend request")
	}
	if len(updated) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pending friend request not found")
	}

	// Optimistic removal; the background refetch reconciles stragglers.
	r.mu.Lock()
	for i := range r.incoming {
		if r.incoming[i].ID == requestID {
			r.incoming = append(r.incoming[:i], r.incoming[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	go r.refetchBoth(context.WithoutCancel(ctx))
	return nil
}

func (r *Reconciler) refetchBoth(ctx context.Context) {
	if err := r.FetchIncoming(ctx); err != nil {
		r.error(ctx, "refetch incoming requests", err)
	}
	if err := r.FetchOutgoing(ctx); err != nil {
		r.error(ctx, "refetch outgoing requests", err)
	}
}

// Start opens the two session-lifetime subscriptions: edges addressed to
// this user and edges authored by this user.
func (r *Reconciler) Start() error {
	push := func(ev gateway.Event) {
		select {
		case r.events <- ev:
		default:
			r.warn(context.Background(), "friendship event queue full, dropping event")
		}
	}

	incoming, err := r.gw.Subscribe(friendshipsTable,
		gateway.Eq("friend_id", r.sess.UserID.String()), push)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe incoming friendships")
	}
	r.handles = append(r.handles, incoming)

	outgoing, err := r.gw.Subscribe(friendshipsTable,
		gateway.Eq("user_id", r.sess.UserID.String()), push)
	if err != nil {
		_ = incoming.Unsubscribe()
		r.handles = nil
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe outgoing friendships")
	}
	r.handles = append(r.handles, outgoing)
	return nil
}

// Run drains the event queue until the context is canceled. Any edge
// event triggers a full refetch of both views.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.events:
			r.refetchBoth(ctx)
		}
	}
}

// Inject triggers the same reconciliation path a realtime event takes.
func (r *Reconciler) Inject(ctx context.Context, _ gateway.Event) {
	r.refetchBoth(ctx)
}

// Close tears down both subscriptions, aggregating errors.
func (r *Reconciler) Close() error {
	var errs error
	for _, handle := range r.handles {
		errs = multierr.Append(errs, handle.Unsubscribe())
	}
	r.handles = nil
	return errs
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
