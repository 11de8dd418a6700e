package cache

import (
	"context"
	"errors"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces every key the tracker writes
const KeyPrefix = "achievement_tracker:"

// Cache is an opaque key-value store backed by Redis
type Cache struct {
	client *redis.Client
}

func New(addr string, password string, db int) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Cache{
		client: client,
	}
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get retrieves a value by key. Missing keys and Redis failures both report false.
func (c *Cache) Get(key string) ([]byte, bool) {
	ctx := context.Background()
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Failed to read key from store")
		}
		return nil, false
	}
	return data, true
}

// Set stores a value. A zero ttl keeps the key until it is overwritten.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	ctx := context.Background()
	if err := c.client.Set(ctx, KeyPrefix+key, value, ttl).Err(); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Error("Failed to write key to store")
	}
}

// Contains reports whether a key exists
func (c *Cache) Contains(key string) bool {
	ctx := context.Background()
	n, err := c.client.Exists(ctx, KeyPrefix+key).Result()
	return err == nil && n > 0
}
