package realtime

import (
	"context"
	"sync"
)

// MemoryPubSub is an in-process PubSub for tests and single-process setups.
// Delivery is non-blocking: a subscriber whose buffer is full loses the
// message rather than stalling the publisher.
type MemoryPubSub struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySubscription
	buffer int
	closed bool
}

// NewMemoryPubSub creates a MemoryPubSub with the given per-subscription
// buffer size.
func NewMemoryPubSub(buffer int) *MemoryPubSub {
	if buffer <= 0 {
		buffer = 16
	}
	return &MemoryPubSub{
		subs:   make(map[string][]*memorySubscription),
		buffer: buffer,
	}
}

// Subscribe registers a subscription on channel.
func (p *MemoryPubSub) Subscribe(_ context.Context, channel string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPubSubClosed
	}

	sub := &memorySubscription{
		parent:  p,
		channel: channel,
		changes: make(chan Change, p.buffer),
	}
	p.subs[channel] = append(p.subs[channel], sub)
	return sub, nil
}

// Publish delivers a change to every subscription on channel.
func (p *MemoryPubSub) Publish(channel, payload string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, sub := range p.subs[channel] {
		select {
		case sub.changes <- Change{Channel: channel, Payload: payload}:
		default:
			// Slow consumer; drop instead of blocking the publisher.
		}
	}
}

// Close shuts down the pub/sub and every open subscription.
func (p *MemoryPubSub) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	for _, subs := range p.subs {
		for _, sub := range subs {
			close(sub.changes)
			sub.closed = true
		}
	}
	p.subs = make(map[string][]*memorySubscription)
}

// closeSub detaches and closes one subscription. The subscription's closed
// flag is only ever touched under p.mu, so Close on the pub/sub and Close on
// the subscription cannot double-close the channel.
func (p *MemoryPubSub) closeSub(target *memorySubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subs[target.channel]
	for i, sub := range subs {
		if sub == target {
			p.subs[target.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(p.subs[target.channel]) == 0 {
		delete(p.subs, target.channel)
	}

	if !target.closed {
		close(target.changes)
		target.closed = true
	}
}

type memorySubscription struct {
	parent  *MemoryPubSub
	channel string
	changes chan Change

	closed bool // guarded by parent.mu
}

func (s *memorySubscription) Changes() <-chan Change { return s.changes }

func (s *memorySubscription) Close() error {
	s.parent.closeSub(s)
	return nil
}
