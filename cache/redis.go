package cache

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitFromEnv initializes Redis using either:
// - REDIS_URL (hosted Redis)
// - or local fallback
func InitFromEnv() error {
	redisURL := os.Getenv("REDIS_URL")

	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		Client = redis.NewClient(opt)
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}

		Client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			Username: os.Getenv("REDIS_USERNAME"),
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	return nil
}

// InitWithAddr points the cache at an explicit address (miniredis in tests).
func InitWithAddr(addr string) {
	Client = redis.NewClient(&redis.Options{Addr: addr})
}

const unreadTTL = 5 * time.Minute

func unreadKey(userID uint) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// GetUnreadCount returns the cached unread-notification count for a user.
// The second return is false on a miss or when the cache is unavailable;
// callers fall back to the database.
func GetUnreadCount(ctx context.Context, userID uint) (int64, bool) {
	if Client == nil {
		return 0, false
	}
	val, err := Client.Get(ctx, unreadKey(userID)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SetUnreadCount stores the unread-notification count for a user.
func SetUnreadCount(ctx context.Context, userID uint, count int64) {
	if Client == nil {
		return
	}
	_ = Client.Set(ctx, unreadKey(userID), strconv.FormatInt(count, 10), unreadTTL).Err()
}

// InvalidateUnreadCount drops the cached count after any notification
// write for the user.
func InvalidateUnreadCount(ctx context.Context, userID uint) {
	if Client == nil {
		return
	}
	_ = Client.Del(ctx, unreadKey(userID)).Err()
}
