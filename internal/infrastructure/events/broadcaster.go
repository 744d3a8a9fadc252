package events

import (
	"context"
	"sync"

	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

// Broadcaster is an in-process change event source. Publish fans a
// "something changed" signal out to every live subscription. Signals
// carry no payload, so a subscriber that has not drained the previous
// one simply misses the duplicate.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

var _ roster.ChangeEventSource = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster without subscribers
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*subscription]struct{})}
}

// Subscribe registers a subscription that ends on Unsubscribe or when
// ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (roster.Subscription, error) {
	sub := &subscription{
		owner:   b,
		ch:      make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.closeOnce()
		return sub, nil
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-sub.stopped:
		}
	}()
	return sub, nil
}

// Publish signals every subscriber without blocking
func (b *Broadcaster) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription and rejects new ones
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*subscription]struct{})
	b.closed = true
	b.mu.Unlock()

	for sub := range subs {
		sub.closeOnce()
	}
}

func (b *Broadcaster) remove(sub *subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

type subscription struct {
	owner   *Broadcaster
	ch      chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (s *subscription) Events() <-chan struct{} {
	return s.ch
}

func (s *subscription) Unsubscribe() {
	s.owner.remove(s)
	s.closeOnce()
}

// closeOnce is only called once the subscription has left the map, so
// Publish never sends on a closed channel.
func (s *subscription) closeOnce() {
	s.once.Do(func() {
		close(s.ch)
		close(s.stopped)
	})
}
