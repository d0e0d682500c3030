package bus

import (
	"context"
	"sync"

	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// localBus loops published events straight back to the forwarder.
// Single-instance deployments and tests use it in place of redis.
type localBus struct {
	mu      sync.RWMutex
	onEvent func(evt realtime.Event)
	closed  bool
}

func NewLocalBus() Bus {
	return &localBus{}
}

func (b *localBus) Publish(_ context.Context, evt realtime.Event) error {
	b.mu.RLock()
	onEvent := b.onEvent
	closed := b.closed
	b.mu.RUnlock()
	if closed || onEvent == nil {
		return nil
	}
	onEvent(evt)
	return nil
}

func (b *localBus) StartForwarder(_ context.Context, onEvent func(evt realtime.Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEvent = onEvent
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.onEvent = nil
	return nil
}
