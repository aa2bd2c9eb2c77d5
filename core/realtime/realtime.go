package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPubSubClosed is returned by Subscribe after the pub/sub shut down.
var ErrPubSubClosed = errors.New("realtime: pubsub closed")

// Category is a watched record category. Each category gets its own
// subscription and its own coarse invalidation scope.
type Category string

const (
	CategoryDevotionals Category = "devotionals"
	CategoryPrayers     Category = "prayers"
	CategoryEvents      Category = "events"
	CategoryRSVPs       Category = "rsvps"
	CategoryLikes       Category = "likes"
	CategoryComments    Category = "comments"
)

// Categories returns all watched categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryDevotionals,
		CategoryPrayers,
		CategoryEvents,
		CategoryRSVPs,
		CategoryLikes,
		CategoryComments,
	}
}

// Change is one backend change notification.
type Change struct {
	Channel string
	Payload string
}

// Subscription is a live channel subscription handle.
type Subscription interface {
	// Changes delivers notifications until the subscription closes.
	Changes() <-chan Change
	Close() error
}

// PubSub is the external realtime backend collaborator.
type PubSub interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Invalidator receives coarse per-category invalidations.
type Invalidator interface {
	Invalidate(category Category)
}

// InvalidatorFunc adapts a function to the Invalidator interface.
type InvalidatorFunc func(Category)

func (f InvalidatorFunc) Invalidate(category Category) { f(category) }

// channelName scopes a category subscription to a group. Group identity in
// the channel name is the server-side filter.
func channelName(groupID uuid.UUID, category Category) string {
	return fmt.Sprintf("group:%s:%s", groupID, category)
}
