// Package gateway defines the portable data-access contract the
// reconciliation engine is written against: bulk queries, write-through
// mutations, and a realtime change feed per table.
package gateway

import "context"

// Row is the untyped record shape crossing the gateway boundary. Consumers
// convert rows to typed records immediately upon receipt.
type Row map[string]any

// EventKind labels a realtime change event.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// Event is a single change notification for a row.
type Event struct {
	Kind  EventKind `json:"kind"`
	Table string    `json:"table"`
	Row   Row       `json:"row"`
}

// Handler consumes realtime events.
type Handler func(Event)

// Handle represents an open realtime subscription.
type Handle interface {
	Unsubscribe() error
}

// Options tune a Select call.
type Options struct {
	OrderBy string
	Desc    bool
	Limit   int
}

// Gateway is the remote data contract: reads, write-through mutations and
// per-table realtime subscriptions. Mutation errors carry machine-readable
// classification via the errors package helpers.
type Gateway interface {
	Select(ctx context.Context, table string, columns []string, filter Filter, opts Options) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, patch Row, filter Filter) ([]Row, error)
	Delete(ctx context.Context, table string, filter Filter) error
	Subscribe(table string, filter Filter, handler Handler) (Handle, error)
}

// Broker is the transport carrying realtime events between gateway
// instances. Mutating gateway methods publish; Subscribe listens.
type Broker interface {
	Publish(ctx context.Context, table string, event Event) error
	Subscribe(table string, handler Handler) (Handle, error)
}
