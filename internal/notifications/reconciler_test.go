package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

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
	deleteFn    func(ctx context.Context, table string, filter gateway.Filter) error
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

func (f *fakeGateway) Delete(ctx context.Context, table string, filter gateway.Filter) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, table, filter)
	}
	return nil
}

func (f *fakeGateway) Subscribe(table string, filter gateway.Filter, handler gateway.Handler) (gateway.Handle, error) {
	if f.subscribeFn != nil {
		return f.subscribeFn(table, filter, handler)
	}
	return fakeHandle{}, nil
}

type fakeHandle struct{ err error }

func (h fakeHandle) Unsubscribe() error { return h.err }

type fakeEmitter struct {
	events []payloads.NotificationCreatedEvent
	err    error
}

func (f *fakeEmitter) EmitNotificationCreated(_ context.Context, event payloads.NotificationCreatedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func rowFor(userID uuid.UUID, read bool, createdAt time.Time) gateway.Row {
	return gateway.Row{
		"id":         uuid.NewString(),
		"user_id":    userID.String(),
		"type":       "friend_request",
		"title":      "New friend request",
		"message":    "Someone wants to connect",
		"is_read":    read,
		"created_at": createdAt,
	}
}

func newTestReconciler(t *testing.T, gw gateway.Gateway, emitter Emitter) (*Reconciler, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	rec, err := NewReconciler(ReconcilerParams{
		Session: session.Context{UserID: userID, Token: "token"},
		Gateway: gw,
		Emitter: emitter,
	})
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	return rec, userID
}

func TestFetchThenMarkAsRead(t *testing.T) {
	gw := &fakeGateway{}
	rec, userID := newTestReconciler(t, gw, nil)

	now := time.Now()
	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{rowFor(userID, false, now), rowFor(userID, false, now.Add(-time.Minute))}, nil
	}
	if err := rec.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := rec.UnreadCount(); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}

	target := rec.List()[0]
	gw.updateFn = func(_ context.Context, _ string, patch gateway.Row, _ gateway.Filter) ([]gateway.Row, error) {
		if patch["is_read"] != true {
			t.Fatalf("unexpected patch %v", patch)
		}
		return []gateway.Row{{"id": target.ID.String()}}, nil
	}
	if err := rec.MarkAsRead(context.Background(), target.ID); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if got := rec.UnreadCount(); got != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", got)
	}
}

func TestWriteThroughFailureLeavesStateUntouched(t *testing.T) {
	gw := &fakeGateway{}
	rec, userID := newTestReconciler(t, gw, nil)

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{rowFor(userID, false, time.Now())}, nil
	}
	if err := rec.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	boom := pkgerrors.New(pkgerrors.CodeDependency, "gateway down")
	gw.updateFn = func(context.Context, string, gateway.Row, gateway.Filter) ([]gateway.Row, error) {
		return nil, boom
	}
	gw.deleteFn = func(context.Context, string, gateway.Filter) error {
		return boom
	}

	id := rec.List()[0].ID
	if err := rec.MarkAsRead(context.Background(), id); err == nil {
		t.Fatal("expected mark error")
	}
	if err := rec.MarkAllAsRead(context.Background()); err == nil {
		t.Fatal("expected mark-all error")
	}
	if err := rec.Delete(context.Background(), id); err == nil {
		t.Fatal("expected delete error")
	}

	if rec.UnreadCount() != 1 || len(rec.List()) != 1 {
		t.Fatal("failed writes must not mutate local state")
	}
}

func TestFetchFailureLeavesListUntouched(t *testing.T) {
	gw := &fakeGateway{}
	rec, userID := newTestReconciler(t, gw, nil)

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{rowFor(userID, false, time.Now())}, nil
	}
	if err := rec.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "timeout")
	}
	if err := rec.FetchAll(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(rec.List()) != 1 {
		t.Fatal("failed fetch must keep previous list")
	}
}

func TestMarkAllAsReadIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	rec, userID := newTestReconciler(t, gw, nil)

	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		return []gateway.Row{rowFor(userID, false, time.Now())}, nil
	}
	if err := rec.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	calls := 0
	gw.updateFn = func(context.Context, string, gateway.Row, gateway.Filter) ([]gateway.Row, error) {
		calls++
		return nil, nil
	}
	for i := 0; i < 3; i++ {
		if err := rec.MarkAllAsRead(context.Background()); err != nil {
			t.Fatalf("MarkAllAsRead: %v", err)
		}
	}
	if rec.UnreadCount() != 0 {
		t.Fatal("unread count should be 0")
	}
	if calls != 3 {
		t.Fatalf("each call still writes through, got %d", calls)
	}
}

func TestRealtimeEventsFoldIn(t *testing.T) {
	gw := &fakeGateway{}
	rec, userID := newTestReconciler(t, gw, nil)
	ctx := context.Background()

	insert := rowFor(userID, false, time.Now())
	rec.Inject(ctx, gateway.Event{Kind: gateway.EventInsert, Table: notificationsTable, Row: insert})
	if rec.UnreadCount() != 1 {
		t.Fatal("insert event should add one unread")
	}

	// duplicate insert collapses
	rec.Inject(ctx, gateway.Event{Kind: gateway.EventInsert, Table: notificationsTable, Row: insert})
	if len(rec.List()) != 1 {
		t.Fatal("duplicate event must not duplicate entry")
	}

	update := gateway.Row{}
	for k, v := range insert {
		update[k] = v
	}
	update["is_read"] = true
	rec.Inject(ctx, gateway.Event{Kind: gateway.EventUpdate, Table: notificationsTable, Row: update})
	if rec.UnreadCount() != 0 {
		t.Fatal("update event should clear unread")
	}

	rec.Inject(ctx, gateway.Event{Kind: gateway.EventDelete, Table: notificationsTable, Row: update})
	if len(rec.List()) != 0 {
		t.Fatal("delete event should remove entry")
	}

	// events for other users are ignored
	rec.Inject(ctx, gateway.Event{Kind: gateway.EventInsert, Table: notificationsTable, Row: rowFor(uuid.New(), false, time.Now())})
	if len(rec.List()) != 0 {
		t.Fatal("foreign user events must be ignored")
	}
}

func TestCreateNotificationEmitsAndRefreshes(t *testing.T) {
	gw := &fakeGateway{}
	emitter := &fakeEmitter{}
	rec, _ := newTestReconciler(t, gw, emitter)

	target := uuid.New()
	insertedID := uuid.New()
	gw.insertFn = func(_ context.Context, _ string, row gateway.Row) (gateway.Row, error) {
		out := gateway.Row{"id": insertedID.String(), "created_at": time.Now()}
		for k, v := range row {
			out[k] = v
		}
		return out, nil
	}
	refetched := false
	gw.selectFn = func(context.Context, string, []string, gateway.Filter, gateway.Options) ([]gateway.Row, error) {
		refetched = true
		return nil, nil
	}

	err := rec.CreateNotification(context.Background(), CreateParams{
		TargetUserID: target,
		Type:         enums.NotificationTypeFriendRequest,
		Title:        "New friend request",
		Message:      "hello",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(emitter.events))
	}
	if emitter.events[0].NotificationID != insertedID || emitter.events[0].UserID != target {
		t.Fatalf("emitted event mismatch: %+v", emitter.events[0])
	}
	if !refetched {
		t.Fatal("create should refresh the local list")
	}
}

func TestCreateNotificationValidation(t *testing.T) {
	rec, _ := newTestReconciler(t, &fakeGateway{}, nil)
	ctx := context.Background()

	cases := []CreateParams{
		{Type: enums.NotificationTypeSystem, Title: "x"},
		{TargetUserID: uuid.New(), Type: "bogus", Title: "x"},
		{TargetUserID: uuid.New(), Type: enums.NotificationTypeSystem},
	}
	for i, params := range cases {
		err := rec.CreateNotification(ctx, params)
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRunDrainsQueue(t *testing.T) {
	gw := &fakeGateway{}
	var handler gateway.Handler
	gw.subscribeFn = func(_ string, _ gateway.Filter, h gateway.Handler) (gateway.Handle, error) {
		handler = h
		return fakeHandle{}, nil
	}

	rec, userID := newTestReconciler(t, gw, nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	handler(gateway.Event{Kind: gateway.EventInsert, Table: notificationsTable, Row: rowFor(userID, false, time.Now())})

	deadline := time.After(2 * time.Second)
	for rec.UnreadCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("event was not drained")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
