// Package messages maintains a per-session unread message counter over
// the conversations the user participates in, with a capability probe
// that degrades gracefully when the backing schema lacks read receipts.
package messages

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/joinhively/hively-backend/internal/session"
	pkgerrors "github.com/joinhively/hively-backend/pkg/errors"
	"github.com/joinhively/hively-backend/pkg/gateway"
	"github.com/joinhively/hively-backend/pkg/logger"
)

const (
	participantsTable = "conversation_participants"
	messagesTable     = "messages"

	defaultQueueDepth = 256
)

// CounterParams wires an unread counter for one session.
type CounterParams struct {
	Session    session.Context
	Gateway    gateway.Gateway
	Logger     *logger.Logger
	QueueDepth int
}

// Counter tracks how many foreign messages in the user's conversations
// are unread. In degraded mode (schema without is_read) it counts all
// foreign messages instead and never references the column again.
type Counter struct {
	sess session.Context
	gw   gateway.Gateway
	logg *logger.Logger

	mu            sync.Mutex
	count         int
	degraded      bool
	conversations map[uuid.UUID]struct{}

	events chan gateway.Event
	handle gateway.Handle
}

func NewCounter(params CounterParams) (*Counter, error) {
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
	return &Counter{
		sess:          params.Session,
		gw:            params.Gateway,
		logg:          params.Logger,
		conversations: map[uuid.UUID]struct{}{},
		events:        make(chan gateway.Event, depth),
	}, nil
}

// Count returns the current unread total.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Degraded reports whether the session fell back to counting without
// read receipts.
func (c *Counter) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Initialize resolves the participant conversation set, probes the schema
// for read-receipt support and computes the initial count. A user with no
// conversations settles at zero without probing.
func (c *Counter) Initialize(ctx context.Context) error {
	rows, err := c.gw.Select(ctx, participantsTable,
		[]string{"conversation_id"},
		gateway.Eq("user_id", c.sess.UserID.String()),
		gateway.Options{})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve conversations")
	}

	conversations := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		if id := gateway.UUID(row, "conversation_id"); id != uuid.Nil {
			conversations[id] = struct{}{}
		}
	}

	c.mu.Lock()
	c.conversations = conversations
	c.mu.Unlock()

	if len(conversations) == 0 {
		c.setCount(0)
		return nil
	}

	if err := c.probe(ctx); err != nil {
		return err
	}
	return c.Recount(ctx)
}

// probe selects the is_read column once. An undefined-column error flips
// the session into degraded mode permanently; the column is never
// referenced again afterwards.
func (c *Counter) probe(ctx context.Context) error {
	_, err := c.gw.Select(ctx, messagesTable,
		[]string{"is_read"},
		c.conversationFilter(),
		gateway.Options{Limit: 1})
	if err == nil {
		return nil
	}
	if pkgerrors.IsUndefinedColumn(err) {
		c.mu.Lock()
		c.degraded = true
		c.mu.Unlock()
		c.warn(ctx, "messages.is_read missing, counting without read receipts")
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe read receipt support")
}

// Recount recomputes the total from scratch. On failure the previous
// value stands.
func (c *Counter) Recount(ctx context.Context) error {
	c.mu.Lock()
	if len(c.conversations) == 0 {
		c.count = 0
		c.mu.Unlock()
		return nil
	}
	degraded := c.degraded
	filter := c.countFilterLocked(degraded)
	c.mu.Unlock()

	rows, err := c.gw.Select(ctx, messagesTable, []string{"id"}, filter, gateway.Options{})
	if err != nil {
		c.error(ctx, "recount unread messages, keeping previous value", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread messages")
	}

	c.setCount(len(rows))
	return nil
}

func (c *Counter) conversationFilter() gateway.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationFilterLocked()
}

func (c *Counter) conversationFilterLocked() gateway.Filter {
	ids := make([]any, 0, len(c.conversations))
	for id := range c.conversations {
		ids = append(ids, id.String())
	}
	return gateway.In("conversation_id", ids...)
}

func (c *Counter) countFilterLocked(degraded bool) gateway.Filter {
	parts := []gateway.Filter{
		c.conversationFilterLocked(),
		gateway.Not(gateway.Eq("sender_id", c.sess.UserID.String())),
	}
	if !degraded {
		parts = append(parts, gateway.Eq("is_read", false))
	}
	return gateway.And(parts...)
}

// MarkMessageAsRead writes through only; the realtime echo of the update
// is the sole decrement path, so a lost echo can never push the counter
// negative. Degraded sessions have nothing to write.
func (c *Counter) MarkMessageAsRead(ctx context.Context, messageID uuid.UUID) error {
	if messageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "message id required")
	}
	if c.Degraded() {
		c.warn(ctx, "ignoring mark-as-read in degraded session")
		return nil
	}

	_, err := c.gw.Update(ctx, messagesTable,
		gateway.Row{"is_read": true},
		gateway.And(
			gateway.Eq("id", messageID.String()),
			gateway.Not(gateway.Eq("sender_id", c.sess.UserID.String())),
		))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark message read")
	}
	return nil
}

// MarkAllAsRead bulk-writes the unread foreign messages and zeroes the
// counter directly instead of waiting for per-row echoes.
func (c *Counter) MarkAllAsRead(ctx context.Context) error {
	if c.Degraded() {
		c.warn(ctx, "ignoring mark-all-as-read in degraded session")
		c.setCount(0)
		return nil
	}

	c.mu.Lock()
	filter := c.countFilterLocked(false)
	empty := len(c.conversations) == 0
	c.mu.Unlock()
	if empty {
		c.setCount(0)
		return nil
	}

	_, err := c.gw.Update(ctx, messagesTable, gateway.Row{"is_read": true}, filter)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all messages read")
	}

	c.setCount(0)
	return nil
}

// Start opens the realtime subscription over the resolved conversation
// set. Call after Initialize.
func (c *Counter) Start() error {
	handle, err := c.gw.Subscribe(messagesTable, c.conversationFilter(), func(ev gateway.Event) {
		select {
		case c.events <- ev:
		default:
			c.warn(context.Background(), "message event queue full, dropping event")
		}
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe messages")
	}
	c.handle = handle
	return nil
}

// Run drains the event queue until the context is canceled.
func (c *Counter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.handleEvent(ev)
		}
	}
}

// Inject delivers a synthetic event through the live counting path.
func (c *Counter) Inject(ev gateway.Event) {
	c.handleEvent(ev)
}

// Close tears down the realtime subscription.
func (c *Counter) Close() error {
	if c.handle == nil {
		return nil
	}
	return c.handle.Unsubscribe()
}

func (c *Counter) handleEvent(ev gateway.Event) {
	conversationID := gateway.UUID(ev.Row, "conversation_id")
	senderID := gateway.UUID(ev.Row, "sender_id")

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, member := c.conversations[conversationID]; !member {
		return
	}
	if senderID == c.sess.UserID {
		return
	}

	switch ev.Kind {
	case gateway.EventInsert:
		if c.degraded || !gateway.Bool(ev.Row, "is_read") {
			c.count++
		}
	case gateway.EventUpdate:
		// Strict mode only: the update echo of a read receipt.
		if !c.degraded && gateway.Bool(ev.Row, "is_read") && c.count > 0 {
			c.count--
		}
	}
}

func (c *Counter) setCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.count = n
}

func (c *Counter) warn(ctx context.Context, msg string) {
	if c.logg != nil {
		c.logg.Warn(c.logg.WithUserID(ctx, c.sess.UserID.String()), msg)
	}
}

func (c *Counter) error(ctx context.Context, msg string, err error) {
	if c.logg != nil {
		c.logg.Error(c.logg.WithUserID(ctx, c.sess.UserID.String()), msg, err)
	}
}
