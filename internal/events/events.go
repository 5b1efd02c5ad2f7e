// Package events carries the row-change feed for the passes and
// verification_logs tables over Redis pub/sub. Dashboards and caches
// subscribe to it; delivery is best-effort and eventually visible, with
// no ordering guarantee across entries.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/pkg/redis"
)

// Pub/sub channel per watched table
const (
	ChannelPasses        = "feed:passes"
	ChannelVerifications = "feed:verification_logs"
)

// EventType identifies the row change
type EventType string

const (
	PassCreated EventType = "pass.created"
	PassUpdated EventType = "pass.updated"
	LogCreated  EventType = "verification_log.created"
)

// Event is one row-change notification. ID is the row identifier as a
// string so that verification log references stay opaque.
type Event struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
}

// Feed publishes row-change notifications. Publishing is best-effort:
// the durable write has already happened and a lost notification only
// delays a subscriber, so errors are logged, never propagated.
type Feed interface {
	PassCreated(ctx context.Context, id string)
	PassUpdated(ctx context.Context, id string)
	LogCreated(ctx context.Context, id string)
}

// RedisFeed implements Feed over Redis pub/sub
type RedisFeed struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisFeed creates a feed publisher
func NewRedisFeed(client *redis.Client, logger logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, logger: logger}
}

func (f *RedisFeed) PassCreated(ctx context.Context, id string) {
	f.publish(ctx, ChannelPasses, Event{Type: PassCreated, ID: id, At: time.Now()})
}

func (f *RedisFeed) PassUpdated(ctx context.Context, id string) {
	f.publish(ctx, ChannelPasses, Event{Type: PassUpdated, ID: id, At: time.Now()})
}

func (f *RedisFeed) LogCreated(ctx context.Context, id string) {
	f.publish(ctx, ChannelVerifications, Event{Type: LogCreated, ID: id, At: time.Now()})
}

func (f *RedisFeed) publish(ctx context.Context, channel string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("Failed to marshal feed event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := f.client.Publish(ctx, channel, payload); err != nil {
		f.logger.Error("Failed to publish feed event", map[string]interface{}{
			"channel": channel,
			"type":    string(event.Type),
			"error":   err.Error(),
		})
	}
}

// Subscribe opens a subscription on the given channels and returns a
// channel of decoded events. The channel closes when ctx is cancelled.
func Subscribe(ctx context.Context, client *redis.Client, channels ...string) <-chan Event {
	sub := client.Subscribe(ctx, channels...)
	out := make(chan Event)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// NopFeed discards all notifications, for tests
type NopFeed struct{}

func (NopFeed) PassCreated(ctx context.Context, id string) {}
func (NopFeed) PassUpdated(ctx context.Context, id string) {}
func (NopFeed) LogCreated(ctx context.Context, id string)  {}
