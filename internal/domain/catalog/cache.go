package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"equipmarket/internal/domain"
	"equipmarket/internal/query"
)

// ListCache holds listing results keyed by filter. Failures are treated as
// misses; the database stays the source of truth. Lookup returns the key to
// Store under, captured before the database read so a concurrent Invalidate
// cannot be overwritten by stale rows. An empty key disables the Store.
type ListCache interface {
	Lookup(ctx context.Context, f query.EquipmentFilter) (items []domain.Equipment, key string, hit bool)
	Store(ctx context.Context, key string, items []domain.Equipment)
	Invalidate(ctx context.Context)
}

type NoopCache struct{}

func (NoopCache) Lookup(context.Context, query.EquipmentFilter) ([]domain.Equipment, string, bool) {
	return nil, "", false
}
func (NoopCache) Store(context.Context, string, []domain.Equipment) {}
func (NoopCache) Invalidate(context.Context)                        {}

// CachePrefix is the key namespace shared by every process that writes the
// catalog, so the API and equipctl invalidate the same listings.
const CachePrefix = "equipmarket:catalog"

// DialRedis connects to url and pings it. It returns nil when url is empty or
// the server is unreachable; listings then read straight from the database.
func DialRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL: %v", err)
		return nil
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: redis unreachable, cache disabled: %v", err)
		_ = client.Close()
		return nil
	}
	return client
}

// RedisCache namespaces keys by a generation counter. Invalidate bumps the
// counter, so every previously cached listing becomes unreachable at once.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = CachePrefix
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) versionKey() string {
	return c.prefix + ":version"
}

func (c *RedisCache) key(ctx context.Context, f query.EquipmentFilter) (string, error) {
	v, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	sum := sha1.Sum([]byte(FilterKey(f)))
	return fmt.Sprintf("%s:list:v%d:%x", c.prefix, v, sum[:]), nil
}

func (c *RedisCache) Lookup(ctx context.Context, f query.EquipmentFilter) ([]domain.Equipment, string, bool) {
	key, err := c.key(ctx, f)
	if err != nil {
		log.Printf("catalog_cache_error op=key error=%q", err)
		return nil, "", false
	}
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("catalog_cache_error op=get error=%q", err)
		}
		return nil, key, false
	}
	var items []domain.Equipment
	if err := json.Unmarshal(bs, &items); err != nil {
		return nil, key, false
	}
	return items, key, true
}

func (c *RedisCache) Store(ctx context.Context, key string, items []domain.Equipment) {
	if key == "" {
		return
	}
	bs, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.SetEx(ctx, key, bs, c.ttl).Err(); err != nil {
		log.Printf("catalog_cache_error op=set error=%q", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, c.versionKey()).Err(); err != nil {
		log.Printf("catalog_cache_error op=invalidate error=%q", err)
	}
}

// FilterKey is a canonical text form of the filter.
func FilterKey(f query.EquipmentFilter) string {
	bound := func(p *int) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprint(*p)
	}
	return fmt.Sprintf("name=%q|manufacturer=%q|min=%s|max=%s|hide_empty=%t",
		f.Name, f.Manufacturer, bound(f.MinPrice), bound(f.MaxPrice), f.ExcludeZeroQuantity)
}
