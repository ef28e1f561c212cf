package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// UserChannelPattern matches the event channel of every user.
const UserChannelPattern = "events:user:*"

// UserChannel is the pub/sub channel carrying events for one user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("events:user:%d", userID)
}

// ParseUserChannel returns the user id of a channel built by UserChannel.
func ParseUserChannel(channel string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(channel, "events:user:%d", &id); err != nil || id == 0 {
		return 0, fmt.Errorf("not a user channel: %q", channel)
	}
	return id, nil
}

type Client struct {
	rdb *redis.Client
}

func Initialize(ctx context.Context, redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	c := NewClient(redis.NewClient(opt))
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return c, nil
}

// NewClient wraps an already configured go-redis client.
func NewClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetInt64 returns the integer stored at key, or 0 when the key is absent.
func (c *Client) GetInt64(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// PSubscribe subscribes to every channel matching the given patterns.
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return c.rdb.PSubscribe(ctx, patterns...)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
