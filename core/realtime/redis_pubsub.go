package realtime

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// RedisPubSub implements PubSub on top of Redis channels.
type RedisPubSub struct {
	client *goredis.Client
}

// NewRedisPubSub creates a Redis-backed PubSub.
func NewRedisPubSub(client *goredis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Subscribe opens a Redis subscription on channel. The returned subscription
// is confirmed before Subscribe returns, so a nil error means the server has
// acknowledged it.
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := p.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub:  pubsub,
		changes: make(chan Change),
		done:    make(chan struct{}),
	}
	go sub.pump()

	return sub, nil
}

type redisSubscription struct {
	pubsub  *goredis.PubSub
	changes chan Change
	done    chan struct{}
}

func (s *redisSubscription) Changes() <-chan Change {
	return s.changes
}

func (s *redisSubscription) Close() error {
	err := s.pubsub.Close()
	<-s.done
	return err
}

// pump forwards Redis messages until the underlying subscription closes, then
// closes the changes channel so consumers drain cleanly.
func (s *redisSubscription) pump() {
	defer close(s.done)
	defer close(s.changes)

	for msg := range s.pubsub.Channel() {
		s.changes <- Change{
			Channel: msg.Channel,
			Payload: msg.Payload,
		}
	}
}
