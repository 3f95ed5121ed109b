package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "pricing:estimate:"

// Cache is the slice of redis.Cmdable the oracle needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedOracle memoises another oracle in Redis. Cache failures never fail an
// estimate: reads fall through to the wrapped oracle and writes are dropped.
type CachedOracle struct {
	next  interfaces.IPricingOracle
	cache Cache
	ttl   time.Duration
}

var _ interfaces.IPricingOracle = (*CachedOracle)(nil)

func NewCachedOracle(next interfaces.IPricingOracle, cache Cache, ttl time.Duration) *CachedOracle {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedOracle{next: next, cache: cache, ttl: ttl}
}

func (o *CachedOracle) Estimate(ctx context.Context, category, description, location string) (entities.PriceRange, error) {
	key := cacheKey(category, description, location)

	raw, err := o.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached entities.PriceRange
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil && cached.Valid() {
			return cached, nil
		}
		log.Warnf("[pricing][cache] discarding unreadable entry key=%s", key)
	case err != redis.Nil:
		log.Warnf("[pricing][cache] get failed key=%s err=%v", key, err)
	}

	limits, err := o.next.Estimate(ctx, category, description, location)
	if err != nil {
		return entities.PriceRange{}, err
	}

	if payload, err := json.Marshal(limits); err == nil {
		if err := o.cache.Set(ctx, key, payload, o.ttl).Err(); err != nil {
			log.Warnf("[pricing][cache] set failed key=%s err=%v", key, err)
		}
	}
	return limits, nil
}

func cacheKey(category, description, location string) string {
	norm := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(category),
		strings.TrimSpace(description),
		strings.TrimSpace(location),
	}, "\x1f"))
	sum := sha256.Sum256([]byte(norm))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
