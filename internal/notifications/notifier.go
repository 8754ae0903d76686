package notifications

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	"diorama/internal/models"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes live events into Redis channels. A nil Redis client
// turns every publish into a no-op so the API degrades to plain HTTP when
// Redis is down.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishReactionSnapshot publishes the post's full reaction set to its
// channel. Implements the service layer's LivePublisher.
func (n *Notifier) PublishReactionSnapshot(ctx context.Context, postID uint, reactions []models.Reaction) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := NewReactionEvent(postID, reactions).Marshal()
	if err != nil {
		return fmt.Errorf("marshal reaction event: %w", err)
	}
	return n.rdb.Publish(ctx, PostChannel(postID), payload).Err()
}

// PublishNotification pushes a freshly created notification to the
// recipient's channel.
func (n *Notifier) PublishNotification(ctx context.Context, recipientID uint, notification *models.Notification) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := NotificationEvent{Type: "notification", Notification: notification}.Marshal()
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(recipientID), payload).Err()
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartPatternSubscriber subscribes to the reaction and per-user patterns
// and calls onMessage for each incoming message. onMessage receives channel
// and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "reactions:post:*", "notifications:user:*")
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
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// PostChannel derives the Redis channel name for a post's reactions.
func PostChannel(postID uint) string {
	return "reactions:post:" + strconv.FormatUint(uint64(postID), 10)
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
