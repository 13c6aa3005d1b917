package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	sequenceTTL = 48 * time.Hour
	menuTTL     = 5 * time.Minute
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Next atomically allocates the next order sequence number for a
// branch. Sequences are scoped per day; INCR keeps them monotonic
// under concurrent order creation.
func (c *Client) Next(ctx context.Context, branchID string) (int64, error) {
	key := fmt.Sprintf("orderseq:%s:%s", branchID, time.Now().UTC().Format("20060102"))

	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("order sequence incr failed: %w", err)
	}

	if n == 1 {
		if err := c.rdb.Expire(ctx, key, sequenceTTL).Err(); err != nil {
			return n, nil
		}
	}
	return n, nil
}

// GetMenu retrieves a branch's cached menu. A cache miss returns
// (nil, nil).
func (c *Client) GetMenu(ctx context.Context, branchID string) ([]models.MenuItem, error) {
	data, err := c.rdb.Get(ctx, menuKey(branchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("menu cache get failed: %w", err)
	}

	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("menu cache decode failed: %w", err)
	}
	return items, nil
}

// SetMenu caches a branch's menu with a short TTL
func (c *Client) SetMenu(ctx context.Context, branchID string, items []models.MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("menu cache encode failed: %w", err)
	}
	return c.rdb.Set(ctx, menuKey(branchID), data, menuTTL).Err()
}

func menuKey(branchID string) string {
	return fmt.Sprintf("menu:%s", branchID)
}
