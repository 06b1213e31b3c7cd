package gateway

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker. It backs single-node deployments
// and deterministic tests; multi-node deployments use the redis broker.
type MemoryBroker struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{handlers: map[string]map[int]Handler{}}
}

func (b *MemoryBroker) Publish(_ context.Context, table string, event Event) error {
	b.mu.RLock()
	subs := make([]Handler, 0, len(b.handlers[table]))
	for _, h := range b.handlers[table] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	for _, h := range subs {
		h(event)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(table string, handler Handler) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[table] == nil {
		b.handlers[table] = map[int]Handler{}
	}
	id := b.nextID
	b.nextID++
	b.handlers[table][id] = handler
	return &memHandle{broker: b, table: table, id: id}, nil
}

type memHandle struct {
	broker *MemoryBroker
	table  string
	id     int
	once   sync.Once
}

func (h *memHandle) Unsubscribe() error {
	h.once.Do(func() {
		h.broker.mu.Lock()
		delete(h.broker.handlers[h.table], h.id)
		h.broker.mu.Unlock()
	})
	return nil
}
