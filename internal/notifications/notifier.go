// Package notifications provides real-time delivery of like events over Redis pub/sub and
// websockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"antisocial/internal/events"
	"antisocial/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	likePostChannelPrefix = "likes:post:"
	// LikeBroadcastChannel carries every like event regardless of post.
	LikeBroadcastChannel = "likes:broadcast"
)

// Notifier provides helpers to publish like events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier has a Redis connection.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishLike sends a payload to the post's channel.
func (n *Notifier) PublishLike(ctx context.Context, postID uint, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, LikePostChannel(postID), payload).Err()
}

// PublishLikeBroadcast sends a payload to the channel of all like events.
func (n *Notifier) PublishLikeBroadcast(ctx context.Context, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, LikeBroadcastChannel, payload).Err()
}

// StartLikeSubscriber subscribes to `likes:post:*` and `likes:broadcast` and calls onMessage
// for each incoming message until ctx is cancelled.
func (n *Notifier) StartLikeSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, likePostChannelPrefix+"*", LikeBroadcastChannel)
	// Wait for the subscription confirmation so that publishes right after return are seen.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to like channels: %w", err)
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
							middleware.Logger.Error("panic in like subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// LikePostChannel derives the Redis channel name for a post's like events.
func LikePostChannel(postID uint) string {
	return likePostChannelPrefix + strconv.FormatUint(uint64(postID), 10)
}

// parseLikePostChannel extracts the post id from a `likes:post:<id>` channel name.
func parseLikePostChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, likePostChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// RedisPublisher publishes like events through a Notifier, to the post channel and the
// broadcast channel.
type RedisPublisher struct {
	n *Notifier
}

// NewRedisPublisher creates a Publisher backed by n.
func NewRedisPublisher(n *Notifier) *RedisPublisher {
	return &RedisPublisher{n: n}
}

// Publish implements events.Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, ev events.LikeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal like event: %w", err)
	}
	if err := p.n.PublishLike(ctx, ev.PostID, string(payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", LikePostChannel(ev.PostID), err)
	}
	if err := p.n.PublishLikeBroadcast(ctx, string(payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", LikeBroadcastChannel, err)
	}
	return nil
}

// Name implements events.Publisher.
func (p *RedisPublisher) Name() string { return "redis" }
