// Package notify delivers record-change notices to connected UI sessions.
// Writes publish a Change on a per-user Redis pub/sub channel; the /v1/events
// stream subscribes and forwards them as Server-Sent Events.  This is a
// one-way notification channel: subscribers refresh their local view when a
// notice arrives, nothing round-trips.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Record kinds carried on the channel.
const (
	KindClient = "client"
	KindPool   = "pool"
	KindVisit  = "visit"
)

// Actions carried on the channel.
const (
	ActionSaved   = "saved"
	ActionDeleted = "deleted"
)

// Change describes one record mutation.
type Change struct {
	Kind   string `json:"kind"`
	ID     uint64 `json:"id"`
	Action string `json:"action"`
}

// Notifier publishes and subscribes record changes over Redis pub/sub.
// A nil Notifier (no Redis at startup) is safe: Publish becomes a no-op and
// Subscribe reports unavailability.
type Notifier struct {
	rdb *redis.Client
}

// New returns a Notifier, or nil when rdb is nil.
func New(rdb *redis.Client) *Notifier {
	if rdb == nil {
		return nil
	}
	return &Notifier{rdb: rdb}
}

func channel(userID uint64) string { return fmt.Sprintf("records:%d", userID) }

// Publish sends a change notice for one user's record tree.  Failures are
// logged, not returned: the write already succeeded and a lost notice only
// delays a UI refresh.
func (n *Notifier) Publish(ctx context.Context, userID uint64, ch Change) {
	if n == nil {
		return
	}
	body, err := json.Marshal(ch)
	if err != nil {
		log.Printf("notify: marshal change: %v", err)
		return
	}
	if err := n.rdb.Publish(ctx, channel(userID), body).Err(); err != nil {
		log.Printf("notify: publish failed: %v", err)
	}
}

// Subscribe registers an observer for one user's changes.  The returned
// cancel function MUST be called on teardown; it closes the subscription and
// the channel.  Returns an error when Redis is unavailable.
func (n *Notifier) Subscribe(ctx context.Context, userID uint64) (<-chan Change, func(), error) {
	if n == nil {
		return nil, nil, fmt.Errorf("change feed unavailable: redis not configured")
	}
	sub := n.rdb.Subscribe(ctx, channel(userID))
	// Force the subscribe round trip so failures surface here, not later.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ch Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				log.Printf("notify: bad payload: %v", err)
				continue
			}
			select {
			case out <- ch:
			default: // slow consumer; drop rather than block the reader
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
