package friends

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/internal/profiles"
	"github.com/joinhively/hively-backend/internal/session"
	"github.com/joinhively/hively-backend/pkg/enums"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/outbox/payloads"
)

type fakeGateway struct {
	selectFn    func(ctx context.Context, table string, columns []string, filter gateway.Filter, opts gateway.Options) ([]gateway.Row, error)
	insertFn    func(ctx context.Context, table string, row gateway.Row) (gateway.Row, error)
	updateFn    func(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) ([]gateway.Row, error)
	subscribeFn func(table string, filter gateway.Filter, handler gateway.Handler) (gateway.Handle, error)
}

func (f *fakeGateway) Select(ctx context.Context, table string, columns []string, filter gateway.Filter, opts gateway.Options) ([]gateway.Row, error) {
	if f.selectFn != nil {
		return f.selectFn(ctx, table, columns, filter, opts)
	}
	return nil, nil
}

func (f *fakeGateway) Insert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	if f.insertFn != nil {
		return f.insertFn(ctx, table, row)
	}
	return row, nil
}

func (f *fakeGateway) Update(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) ([]gateway.Row, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, table, patch, filter)
	}
	return nil, nil
}

func (f *fakeGateway) Delete(context.Context, string, gateway.Filter) error { return nil }

func (f *fakeGateway) Subscribe(table string, filter gateway.Filter, handler gateway.Handler) (gateway.Handle, error) {
	if f.subscribeFn != nil {
		return f.subscribeFn(table, filter, handler)
	}
	return fakeHandle{}, nil
}

type fakeHandle struct{ err error }

func (h fakeHandle) Unsubscribe() error { return h.err }

type fakeProfiles struct {
	fetchFn func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*profiles.Profile, error)
}

func (f *fakeProfiles) FetchMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*profiles.Profile, error) {
	if f.fetchFn != nil {
		return f.fetchFn(ctx, ids)
	}
	return map[uuid.UUID]*profiles.Profile{}, nil
}

type fakeEmitter struct {
	events []payloads.FriendRequestSentEvent
}

func (f *fakeEmitter) EmitFriendRequestSent(_ context.Context, event payloads.FriendRequestSentEvent) error {
	f.events = append(f.events, event)
	return nil
}

func edgeRow(id, sender, recipient uuid.UUID, status enums.FriendshipStatus) gateway.Row {
	return gateway.Row{
		"id":         id.String(),
		"user_id":    sender.String(),
		"friend_id":  recipient.String(),
		"status":     string(status),
		"created_at": time.Now(),
	}
}

func newTestReconciler(t *testing.T, gw gateway.Gateway, prof ProfileFetcher, emitter Emitter) (*Reconciler, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	if prof == nil {
		prof = &fakeProfiles{}
	}
	rec, err := NewReconciler(ReconcilerParams{
		Session:  session.Context{UserID: userID, Token: "token"},
		Gateway:  gw,
		Profiles: prof,
		Emitter:  emitter,
	})
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	return rec, userID
}

func TestFetchIncomingJoinsProfiles(t *testing.T) {
	gw := &fakeGateway{}
	sender := uuid.New()
	prof := &fakeProfiles{
		fetchFn: func(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*profiles.Profile, error) {
			if len(ids) != 1 || ids[0] != sender {
				t.Fatalf("expected join on sender id, got %v", ids)
			}
			return map[uuid.UUID]*profiles.Profile{
				sender: {ID: sender, DisplayName: "Alice"},
			}, nil
		},
	}
	rec, me := newTestReconciler(t, gw, prof, nil)

	gw.selectFn = func(_ context.Context, _ string, _ []string, _ gateway.Filter, _ gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{edgeRow(uuid.New(), sender, me, enums.FriendshipStatusPending)}, nil
	}

	if err := rec.FetchIncoming(context.Background()); err != nil {
		t.Fatalf("FetchIncoming: %v", err)
	}
	incoming := rec.PendingIncoming()
	if len(incoming) != 1 {
		t.Fatalf("expected 1 incoming request, got %d", len(incoming))
	}
	if incoming[0].Profile == nil || incoming[0].Profile.DisplayName != "Alice" {
		t.Fatalf("expected joined profile, got %+v", incoming[0].Profile)
	}
}

func TestProfileJoinFailureDegradesToNil(t *testing.T) {
	gw := &fakeGateway{}
	prof := &fakeProfiles{
		fetchFn: func(context.Context, []uuid.UUID) (map[uuid.UUID]*profiles.Profile, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "profiles unavailable")
		},
	}
	rec, me := newTestReconciler(t, gw, prof, nil)

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{edgeRow(uuid.New(), uuid.New(), me, enums.FriendshipStatusPending)}, nil
	}

	if err := rec.FetchIncoming(context.Background()); err != nil {
		t.Fatalf("FetchIncoming should absorb the join failure: %v", err)
	}
	incoming := rec.PendingIncoming()
	if len(incoming) != 1 || incoming[0].Profile != nil {
		t.Fatalf("expected request without profile, got %+v", incoming)
	}
}

func TestSendInsertsPendingEdge(t *testing.T) {
	gw := &fakeGateway{}
	emitter := &fakeEmitter{}
	rec, me := newTestReconciler(t, gw, nil, emitter)
	target := uuid.New()
	edgeID := uuid.New()

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return nil, nil
	}
	var insertedRow gateway.Row
	gw.insertFn = func(_ context.Context, _ string, row gateway.Row) (gateway.Row, error) {
		insertedRow = row
		out := gateway.Row{"id": edgeID.String()}
		for k, v := range row {
			out[k] = v
		}
		return out, nil
	}

	if err := rec.Send(context.Background(), target); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if insertedRow["status"] != string(enums.FriendshipStatusPending) {
		t.Fatalf("expected pending status, got %v", insertedRow["status"])
	}
	if insertedRow["pair_key"] == "" {
		t.Fatal("pair key must be set")
	}
	if len(emitter.events) != 1 || emitter.events[0].RecipientID != target || emitter.events[0].SenderID != me {
		t.Fatalf("unexpected emitted events %+v", emitter.events)
	}
}

func TestSendConflictsByExistingStatus(t *testing.T) {
	cases := []struct {
		status  enums.FriendshipStatus
		message string
	}{
		{enums.FriendshipStatusPending, "friend request already sent"},
		{enums.FriendshipStatusAccepted, "already friends"},
		{enums.FriendshipStatusRejected, "friend request previously rejected"},
	}

	for _, tc := range cases {
		gw := &fakeGateway{}
		rec, me := newTestReconciler(t, gw, nil, nil)
		target := uuid.New()

		// the edge may exist in either direction
		gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
			return []gateway.Row{edgeRow(uuid.New(), target, me, tc.status)}, nil
		}
		gw.insertFn = func(context.Context, string, gateway.Row) (gateway.Row, error) {
			t.Fatalf("%s: no insert expected", tc.status)
			return nil, nil
		}

		err := rec.Send(context.Background(), target)
		if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			t.Fatalf("%s: expected conflict, got %v", tc.status, err)
		}
		if pkgerrors.As(err).Message() != tc.message {
			t.Fatalf("%s: expected %q, got %q", tc.status, tc.message, pkgerrors.As(err).Message())
		}
	}
}

func TestSendRaceLosesToUniqueIndex(t *testing.T) {
	gw := &fakeGateway{}
	rec, _ := newTestReconciler(t, gw, nil, nil)

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return nil, nil
	}
	gw.insertFn = func(context.Context, string, gateway.Row) (gateway.Row, error) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate key value")
	}

	err := rec.Send(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict from unique index, got %v", err)
	}
}

func TestSendValidation(t *testing.T) {
	rec, me := newTestReconciler(t, &fakeGateway{}, nil, nil)
	if err := rec.Send(context.Background(), uuid.Nil); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("nil target: %v", err)
	}
	if err := rec.Send(context.Background(), me); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("self target: %v", err)
	}
}

func TestAcceptRemovesFromIncoming(t *testing.T) {
	gw := &fakeGateway{}
	rec, me := newTestReconciler(t, gw, nil, nil)
	requestID := uuid.New()

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{edgeRow(requestID, uuid.New(), me, enums.FriendshipStatusPending)}, nil
	}
	if err := rec.FetchIncoming(context.Background()); err != nil {
		t.Fatalf("FetchIncoming: %v", err)
	}

	var patched gateway.Row
	gw.updateFn = func(_ context.Context, _ string, patch gateway.Row, _ gateway.Filter) ([]gateway.Row, error) {
		patched = patch
		return []gateway.Row{edgeRow(requestID, uuid.New(), me, enums.FriendshipStatusAccepted)}, nil
	}
	// background refetch returns the now-empty view
	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return nil, nil
	}

	if err := rec.Accept(context.Background(), requestID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if patched["status"] != string(enums.FriendshipStatusAccepted) {
		t.Fatalf("expected accepted patch, got %v", patched)
	}
	if len(rec.PendingIncoming()) != 0 {
		t.Fatal("accepted request should leave the incoming view immediately")
	}
}

func TestRejectKeepsWriteThroughDiscipline(t *testing.T) {
	gw := &fakeGateway{}
	rec, me := newTestReconciler(t, gw, nil, nil)
	requestID := uuid.New()

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{edgeRow(requestID, uuid.New(), me, enums.FriendshipStatusPending)}, nil
	}
	if err := rec.FetchIncoming(context.Background()); err != nil {
		t.Fatalf("FetchIncoming: %v", err)
	}

	gw.updateFn = func(context.Context, string, gateway.Row, gateway.Filter) ([]gateway.Row, error) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway down")
	}

	if err := rec.Reject(context.Background(), requestID); err == nil {
		t.Fatal("expected reject error")
	}
	if len(rec.PendingIncoming()) != 1 {
		t.Fatal("failed write must leave the incoming view untouched")
	}
}

func TestDecideNotFound(t *testing.T) {
	gw := &fakeGateway{}
	rec, _ := newTestReconciler(t, gw, nil, nil)

	gw.updateFn = func(context.Context, string, gateway.Row, gateway.Filter) ([]gateway.Row, error) {
		return nil, nil
	}
	err := rec.Accept(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIncomingOutgoingSymmetry(t *testing.T) {
	// the same edge appears as outgoing for the sender and incoming for
	// the recipient
	edgeID := uuid.New()
	sender := uuid.New()

	gwRecipient := &fakeGateway{}
	recipientRec, recipient := newTestReconciler(t, gwRecipient, nil, nil)
	edge := edgeRow(edgeID, sender, recipient, enums.FriendshipStatusPending)

	gwRecipient.selectFn = func(_ context.Context, _ string, _ []string, filter gateway.Filter, _ gateway.Options) ([]gateway.Row, error) {
		if filter.Matches(edge) {
			return []gateway.Row{edge}, nil
		}
		return nil, nil
	}
	if err := recipientRec.FetchIncoming(context.Background()); err != nil {
		t.Fatalf("FetchIncoming: %v", err)
	}
	if err := recipientRec.FetchOutgoing(context.Background()); err != nil {
		t.Fatalf("FetchOutgoing: %v", err)
	}
	if len(recipientRec.PendingIncoming()) != 1 || len(recipientRec.PendingOutgoing()) != 0 {
		t.Fatal("recipient should see the edge as incoming only")
	}
}

func TestStartOpensTwoSubscriptions(t *testing.T) {
	gw := &fakeGateway{}
	var filters []gateway.Filter
	gw.subscribeFn = func(_ string, filter gateway.Filter, _ gateway.Handler) (gateway.Handle, error) {
		filters = append(filters, filter)
		return fakeHandle{}, nil
	}

	rec, me := newTestReconciler(t, gw, nil, nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(filters) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(filters))
	}

	// one filter matches incoming edges, the other outgoing
	incomingEdge := edgeRow(uuid.New(), uuid.New(), me, enums.FriendshipStatusPending)
	outgoingEdge := edgeRow(uuid.New(), me, uuid.New(), enums.FriendshipStatusPending)
	matchesIncoming := filters[0].Matches(incomingEdge) || filters[1].Matches(incomingEdge)
	matchesOutgoing := filters[0].Matches(outgoingEdge) || filters[1].Matches(outgoingEdge)
	if !matchesIncoming || !matchesOutgoing {
		t.Fatal("subscriptions must cover both directions")
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
