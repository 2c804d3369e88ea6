// Package notifications publishes media events over Redis and fans them out to websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"pixelpost/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types published to clients.
const (
	EventImageGenerated      = "image_generated"
	EventVideoGenerated      = "video_generated"
	EventPostLiked           = "post_liked"
	EventCommentCreated      = "comment_created"
	EventImagePrivacyChanged = "image_privacy_changed"
)

const (
	userChannelPrefix = "notifications:user:"
	// BroadcastChannel reaches every connected client.
	BroadcastChannel = "notifications:broadcast"
)

// Event is the JSON envelope delivered to websocket clients.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends an event to every connection of userID.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, eventType string, payload any) error {
	return n.publish(ctx, UserChannel(userID), eventType, payload)
}

// PublishBroadcast sends an event to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, eventType string, payload any) error {
	return n.publish(ctx, BroadcastChannel, eventType, payload)
}

func (n *Notifier) publish(ctx context.Context, channel, eventType string, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	b, err := json.Marshal(Event{Type: eventType, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if err := n.rdb.Publish(ctx, channel, b).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// StartPatternSubscriber subscribes to every user channel and the broadcast channel and
// calls onMessage for each incoming message until ctx is done.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", BroadcastChannel)
	// Wait for the subscription so events published right after startup are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		middleware.RedisErrors.WithLabelValues("subscribe").Inc()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("notification handler panicked",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel extracts the user id from a user channel name.
func parseUserChannel(channel string) (uint, bool) {
	if len(channel) <= len(userChannelPrefix) || channel[:len(userChannelPrefix)] != userChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(userChannelPrefix):], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
