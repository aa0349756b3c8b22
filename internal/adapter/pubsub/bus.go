package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Bus fans committed events out to in-process subscribers over channels.
// Presentation code subscribes, the core publishes after each mutation.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan domain.Event
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan domain.Event)}
}

// Subscribe registers a buffered subscription. The returned cancel func
// removes it and closes the channel; calling it twice is safe.
func (b *Bus) Subscribe(buffer int) (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := uuid.NewString()
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish never blocks: a subscriber that falls behind loses events rather
// than stalling the write path.
func (b *Bus) Publish(ctx context.Context, e domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
