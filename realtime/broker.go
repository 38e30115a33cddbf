// Package realtime delivers change notifications for a collection. A notification
// carries no payload: receivers treat it as an invalidation and re-fetch.
package realtime

import (
	"context"
	"errors"
	"sync"
)

var ErrBrokerClosed = errors.New("realtime broker closed")

// Broker publishes and subscribes to change notifications per collection.
type Broker interface {
	Publish(ctx context.Context, collection string) error
	Subscribe(ctx context.Context, collection string) (*Subscription, error)
	Close() error
}

// Subscription is a single open channel on a collection. Notifications that arrive
// while one is already pending are coalesced.
type Subscription struct {
	collection string
	notify     chan struct{}
	done       chan struct{}
	once       sync.Once
	release    func()
}

func newSubscription(collection string, release func()) *Subscription {
	return &Subscription{
		collection: collection,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		release:    release,
	}
}

// C receives one value per batch of changes.
func (s *Subscription) C() <-chan struct{} {
	return s.notify
}

// Done is closed once the subscription has been released.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Collection() string {
	return s.collection
}

func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.release != nil {
			s.release()
		}
		subscriptionsOpen.Dec()
	})
	return nil
}

// MemoryBroker fans notifications out inside the process.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*Subscription]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, collection string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for sub := range b.subs[collection] {
		sub.signal()
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}

	var sub *Subscription
	sub = newSubscription(collection, func() {
		b.mu.Lock()
		delete(b.subs[collection], sub)
		b.mu.Unlock()
	})
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[*Subscription]struct{})
	}
	b.subs[collection][sub] = struct{}{}
	subscriptionsOpen.Inc()
	return sub, nil
}

// Subscribers reports how many subscriptions are open on collection.
func (b *MemoryBroker) Subscribers(collection string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[collection])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]map[*Subscription]struct{})
	b.closed = true
	b.mu.Unlock()

	for _, set := range subs {
		for sub := range set {
			sub.once.Do(func() {
				close(sub.done)
				subscriptionsOpen.Dec()
			})
		}
	}
	return nil
}
