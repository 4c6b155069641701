// ABOUTME: In-memory fan-out broadcaster for committed persisted state
// ABOUTME: Publishes each state written through Store.Update to all subscribers

package persisted

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 16
)

// broadcaster provides in-memory pub/sub for state updates. Sends are
// non-blocking; a subscriber whose buffer is full misses the update.
type broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Schema // subID -> ch
	logger      *slog.Logger
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{
		subscribers: make(map[string]chan Schema),
		logger:      logger.With("component", "broadcaster"),
	}
}

// subscribe registers a subscriber. The subscription is removed when ctx is
// cancelled.
func (b *broadcaster) subscribe(ctx context.Context) (<-chan Schema, string) {
	subID := uuid.New().String()
	ch := make(chan Schema, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.unsubscribe(subID)
	}()

	return ch, subID
}

// publish sends a copy of state to every subscriber.
func (b *broadcaster) publish(state Schema) {
	// Sends happen under the read lock so unsubscribe cannot close a
	// channel mid-send. They never block.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- state.Clone():
		default:
			b.logger.Debug("dropped update for slow subscriber", "sub_id", id)
		}
	}
}

// unsubscribe removes a subscription and closes its channel.
func (b *broadcaster) unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// close closes every subscriber channel.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}
}
