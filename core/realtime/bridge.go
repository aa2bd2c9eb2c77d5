package realtime

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mobilekit/core/logger"
)

// Bridge subscribes to backend change notifications for the user's current
// group and translates them into coarse cache invalidations: any change in a
// category invalidates every cached query of that category (correctness over
// precision).
//
// The bridge follows the group-change stream exposed by the session
// controller: subscriptions are torn down and re-established whenever the
// current group changes, and torn down entirely on sign-out (uuid.Nil).
// Subscription failures are logged, never escalated; the cache simply stays
// stale until the next successful subscription or manual refresh.
type Bridge struct {
	pubsub      PubSub
	invalidator Invalidator
	groups      <-chan uuid.UUID
	log         *slog.Logger

	mu      sync.Mutex
	current uuid.UUID
	subs    map[Category]Subscription
	epoch   int
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the structured logger.
func WithBridgeLogger(log *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBridge creates a Bridge consuming group changes from groups, typically
// the session controller's GroupChanges stream.
func NewBridge(pubsub PubSub, invalidator Invalidator, groups <-chan uuid.UUID, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		pubsub:      pubsub,
		invalidator: invalidator,
		groups:      groups,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:        make(map[Category]Subscription),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Start runs the bridge until ctx is done, re-subscribing on every group
// change and tearing everything down on exit.
func (b *Bridge) Start(ctx context.Context) error {
	defer b.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case groupID, ok := <-b.groups:
			if !ok {
				return nil
			}
			b.resubscribe(ctx, groupID)
		}
	}
}

// CurrentGroup returns the group the bridge is currently subscribed for.
func (b *Bridge) CurrentGroup() uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// ActiveSubscriptions returns the number of live category subscriptions.
func (b *Bridge) ActiveSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bridge) resubscribe(ctx context.Context, groupID uuid.UUID) {
	b.teardown()

	b.mu.Lock()
	b.current = groupID
	b.epoch++
	epoch := b.epoch
	b.mu.Unlock()

	if groupID == uuid.Nil {
		b.log.Info("realtime subscriptions torn down", logger.Component("realtime"))
		return
	}

	for _, category := range Categories() {
		channel := channelName(groupID, category)
		sub, err := b.pubsub.Subscribe(ctx, channel)
		if err != nil {
			// Not escalated: the cache stays stale for this category until
			// the next group change or manual refresh.
			b.log.Warn("realtime subscription failed",
				logger.Component("realtime"),
				logger.Category(string(category)),
				logger.GroupID(groupID),
				logger.Error(err))
			continue
		}

		b.mu.Lock()
		if b.epoch != epoch {
			// A newer group change won the race; drop this subscription.
			b.mu.Unlock()
			_ = sub.Close()
			continue
		}
		b.subs[category] = sub
		b.mu.Unlock()

		go b.consume(category, sub)
	}

	b.log.Info("realtime subscriptions established",
		logger.Component("realtime"),
		logger.GroupID(groupID),
		slog.Int("subscriptions", b.ActiveSubscriptions()))
}

// consume forwards every change notification as a coarse invalidation of the
// whole category.
func (b *Bridge) consume(category Category, sub Subscription) {
	for range sub.Changes() {
		b.invalidator.Invalidate(category)
	}
}

func (b *Bridge) teardown() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[Category]Subscription)
	b.mu.Unlock()

	for category, sub := range subs {
		if err := sub.Close(); err != nil {
			b.log.Warn("realtime unsubscribe failed",
				logger.Component("realtime"),
				logger.Category(string(category)),
				logger.Error(err))
		}
	}
}
