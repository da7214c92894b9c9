package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/metrics"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// ErrCacheMiss is returned by a Store when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// currentTTLCap keeps cached live observations fresh regardless of the
// configured TTL.
const currentTTLCap = 10 * time.Minute

// Store is a byte-value cache with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store on Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects lazily to the Redis server at addr.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
	}
}

// Get returns ErrCacheMiss when key does not exist.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Coordinates are rounded to 3 decimals (~110 m) in cache keys.
func currentKey(lat, lon float64) string {
	return fmt.Sprintf("climate:current:%.3f:%.3f", lat, lon)
}

func historicalKey(lat, lon float64, w Window) string {
	return fmt.Sprintf("climate:historical:%.3f:%.3f:%s:%s", lat, lon, w.startDay(), w.endDay())
}

// CachedCurrent caches successful responses of a CurrentProvider.
// Cache failures are logged and never surface to callers.
type CachedCurrent struct {
	inner   CurrentProvider
	store   Store
	logger  *logger.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewCachedCurrent creates a cache decorator around a current provider.
func NewCachedCurrent(inner CurrentProvider, store Store, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *CachedCurrent {
	if ttl <= 0 || ttl > currentTTLCap {
		ttl = currentTTLCap
	}
	return &CachedCurrent{
		inner:   inner,
		store:   store,
		logger:  log.WithComponent("climate_cache"),
		metrics: m,
		ttl:     ttl,
	}
}

// Name reports the wrapped provider.
func (c *CachedCurrent) Name() string { return c.inner.Name() }

// Current implements CurrentProvider.
func (c *CachedCurrent) Current(ctx context.Context, lat, lon float64) (models.CurrentConditions, error) {
	key := currentKey(lat, lon)

	var cached models.CurrentConditions
	if getCached(ctx, c.store, key, &cached, c.logger) {
		c.metrics.CacheLookup(sourceCurrent, true)
		return cached, nil
	}
	c.metrics.CacheLookup(sourceCurrent, false)

	result, err := c.inner.Current(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	putCached(ctx, c.store, key, result, c.ttl, c.logger)
	return result, nil
}

// CachedHistorical caches successful responses of a HistoricalProvider.
type CachedHistorical struct {
	inner   HistoricalProvider
	store   Store
	logger  *logger.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewCachedHistorical creates a cache decorator around a historical provider.
func NewCachedHistorical(inner HistoricalProvider, store Store, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *CachedHistorical {
	return &CachedHistorical{
		inner:   inner,
		store:   store,
		logger:  log.WithComponent("climate_cache"),
		metrics: m,
		ttl:     ttl,
	}
}

// Name reports the wrapped provider.
func (c *CachedHistorical) Name() string { return c.inner.Name() }

// Historical implements HistoricalProvider.
func (c *CachedHistorical) Historical(ctx context.Context, lat, lon float64, window Window) (models.HistoricalStats, error) {
	key := historicalKey(lat, lon, window)

	var cached models.HistoricalStats
	if getCached(ctx, c.store, key, &cached, c.logger) {
		c.metrics.CacheLookup(sourceHistorical, true)
		return cached, nil
	}
	c.metrics.CacheLookup(sourceHistorical, false)

	result, err := c.inner.Historical(ctx, lat, lon, window)
	if err != nil {
		return result, err
	}
	putCached(ctx, c.store, key, result, c.ttl, c.logger)
	return result, nil
}

func getCached(ctx context.Context, store Store, key string, dst interface{}, log *logger.Logger) bool {
	data, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Warn("Cache read failed", logger.Fields{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn("Discarding undecodable cache entry", logger.Fields{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func putCached(ctx context.Context, store Store, key string, value interface{}, ttl time.Duration, log *logger.Logger) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn("Cache encode failed", logger.Fields{"key": key, "error": err.Error()})
		return
	}
	if err := store.Set(ctx, key, data, ttl); err != nil {
		log.Warn("Cache write failed", logger.Fields{"key": key, "error": err.Error()})
	}
}
