package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// DefaultHistorySize is the number of recent events kept for replay.
	DefaultHistorySize = 1000

	// DefaultChannelBuffer is the buffer size of each subscriber channel.
	DefaultChannelBuffer = 256
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus is closed")

// SubscriptionID identifies a subscription.
type SubscriptionID string

type subscription struct {
	id        SubscriptionID
	eventType EventType
	handler   func(Event)
	ch        chan Event
	done      chan struct{}
}

// Bus is a fire-and-forget pub/sub hub. Publish never blocks: a subscriber
// whose buffer is full misses the event, which is counted as dropped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[SubscriptionID]*subscription
	nextID atomic.Uint64

	historyMu   sync.RWMutex
	history     []Event
	historySize int

	published atomic.Int64
	dropped   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewBus creates a bus with the default history size.
func NewBus() *Bus {
	return NewBusWithConfig(DefaultHistorySize)
}

// NewBusWithConfig creates a bus keeping historySize recent events.
func NewBusWithConfig(historySize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		subs:        make(map[SubscriptionID]*subscription),
		history:     make([]Event, 0, historySize),
		historySize: historySize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Subscribe registers handler for eventType. An empty eventType receives
// every event. Each subscription runs its handler on its own goroutine, in
// publish order. It returns "" when the bus is closed.
func (b *Bus) Subscribe(eventType EventType, handler func(Event)) SubscriptionID {
	return b.SubscribeWithBuffer(eventType, DefaultChannelBuffer, handler)
}

// SubscribeWithBuffer is Subscribe with a custom buffer size, for
// subscribers such as persistence that must ride out bursts.
func (b *Bus) SubscribeWithBuffer(eventType EventType, size int, handler func(Event)) SubscriptionID {
	if b.closed.Load() {
		return ""
	}
	if size < 1 {
		size = DefaultChannelBuffer
	}

	sub := &subscription{
		id:        SubscriptionID(fmt.Sprintf("sub_%d", b.nextID.Add(1))),
		eventType: eventType,
		handler:   handler,
		ch:        make(chan Event, size),
		done:      make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run(sub)

	return sub.id
}

func (b *Bus) run(sub *subscription) {
	defer b.wg.Done()
	for {
		select {
		case event := <-sub.ch:
			sub.handler(event)
		case <-sub.done:
			return
		case <-b.ctx.Done():
			// Deliver what was buffered before Close.
			for {
				select {
				case event := <-sub.ch:
					sub.handler(event)
				default:
					return
				}
			}
		}
	}
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(id SubscriptionID) error {
	if b.closed.Load() {
		return ErrClosed
	}

	b.mu.Lock()
	sub, ok := b.subs[id]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("subscription %s not found", id)
	}
	delete(b.subs, id)
	b.mu.Unlock()

	close(sub.done)
	return nil
}

// Publish records event in the history and offers it to every matching
// subscriber without blocking.
func (b *Bus) Publish(event Event) error {
	if b.closed.Load() {
		return ErrClosed
	}
	b.published.Add(1)
	b.addToHistory(event)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.eventType != "" && sub.eventType != event.Type {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *Bus) addToHistory(event Event) {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()

	b.history = append(b.history, event)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}
}

// History returns a copy of the last n events, or all of them when n <= 0.
func (b *Bus) History(n int) []Event {
	b.historyMu.RLock()
	defer b.historyMu.RUnlock()

	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	out := make([]Event, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

// SubscriptionsCount returns the number of active subscriptions.
func (b *Bus) SubscriptionsCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Published and Dropped count events offered and deliveries missed.
func (b *Bus) Published() int64 { return b.published.Load() }
func (b *Bus) Dropped() int64   { return b.dropped.Load() }

// Close stops accepting events, waits for every subscription to handle the
// events already buffered for it, then stops the subscription goroutines.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	b.cancel()
	b.wg.Wait()

	b.mu.Lock()
	b.subs = make(map[SubscriptionID]*subscription)
	b.mu.Unlock()
	return nil
}

// IsClosed reports whether Close has been called.
func (b *Bus) IsClosed() bool { return b.closed.Load() }
