package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Counters inside cached payloads may lag by up to the TTL;
// the database rows remain the source of truth.
const (
	ChannelCacheTTL = 5 * time.Minute
	VideoCacheTTL   = 2 * time.Minute

	// ViewMarkerTTL scopes the per-(session, video) de-duplication marker.
	// A session replaying the same video after expiry counts again, which
	// matches the at-least-once contract for views.
	ViewMarkerTTL = 6 * time.Hour
)

// CacheService provides a Redis cache-aside layer for channel and video
// lookups, plus the view-session de-duplication markers. If Redis is
// unavailable all operations degrade to no-ops.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, caching and view markers are disabled rather than
// failing startup.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetChannel retrieves a cached channel response by handle. Returns nil
// when not cached or the cache is disabled.
func (c *CacheService) GetChannel(ctx context.Context, handle string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, channelKey(handle)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetChannel stores a channel response under its handle.
func (c *CacheService) SetChannel(ctx context.Context, handle string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, channelKey(handle), b, ChannelCacheTTL).Err()
}

// GetVideo retrieves a cached watch response. Returns nil when not cached.
func (c *CacheService) GetVideo(ctx context.Context, videoID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, videoKey(videoID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetVideo stores a watch response in cache.
func (c *CacheService) SetVideo(ctx context.Context, videoID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, videoKey(videoID), b, VideoCacheTTL).Err()
}

// InvalidateVideo removes a video from cache (after like toggles and
// moderation transitions).
func (c *CacheService) InvalidateVideo(ctx context.Context, videoID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, videoKey(videoID)).Err()
}

// Seen reports whether the (session, video) de-duplication marker is
// already set. With Redis disabled nothing is ever seen; views then count
// on every request, which over-counts rather than losing views.
func (c *CacheService) Seen(ctx context.Context, sessionKey, videoID string) (bool, error) {
	if c.rdb == nil {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, viewKey(sessionKey, videoID)).Result()
	return n > 0, err
}

// MarkViewed sets the (session, video) de-duplication marker. Returns true
// when this call set the marker, i.e. the first view from this session.
func (c *CacheService) MarkViewed(ctx context.Context, sessionKey, videoID string) (bool, error) {
	if c.rdb == nil {
		return true, nil
	}
	return c.rdb.SetNX(ctx, viewKey(sessionKey, videoID), 1, ViewMarkerTTL).Result()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func channelKey(handle string) string {
	return fmt.Sprintf("channel:%s", handle)
}

func videoKey(videoID string) string {
	return fmt.Sprintf("video:%s", videoID)
}

func viewKey(sessionKey, videoID string) string {
	return fmt.Sprintf("view:%s:%s", sessionKey, videoID)
}
