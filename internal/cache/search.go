// Package cache keeps recent search pages in Redis.
//
// Entries are keyed by a hash of the canonical query and a generation
// counter. Listing writes bump the generation, which orphans every older
// entry at once; orphans expire with their TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hotelbook/apiserver/config"
	"github.com/hotelbook/apiserver/types"
)

const (
	keyPrefix     = "hotelbook:search"
	generationKey = keyPrefix + ":generation"
)

// NewRedisClient creates a client and pings the server to make sure the
// connection works.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SearchCache{client: client, ttl: ttl}
}

// Generation returns the current cache generation. It is zero until the
// first invalidation.
func (c *SearchCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

func (c *SearchCache) Get(ctx context.Context, generation int64, q types.SearchQuery) (types.SearchPage, bool, error) {
	data, err := c.client.Get(ctx, EntryKey(generation, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.SearchPage{}, false, nil
	}
	if err != nil {
		return types.SearchPage{}, false, err
	}
	var page types.SearchPage
	if err := json.Unmarshal(data, &page); err != nil {
		return types.SearchPage{}, false, fmt.Errorf("decode cached page: %w", err)
	}
	return page, true, nil
}

// Set stores page under the generation it was computed in. A page from an
// older generation lands on a key no reader asks for and expires with the TTL.
func (c *SearchCache) Set(ctx context.Context, generation int64, q types.SearchQuery, page types.SearchPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	return c.client.Set(ctx, EntryKey(generation, q), data, c.ttl).Err()
}

// Invalidate drops every cached page by moving to a new generation.
func (c *SearchCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

// EntryKey returns the cache key of q in the given generation.
func EntryKey(generation int64, q types.SearchQuery) string {
	sum := sha256.Sum256([]byte(Canonical(q)))
	return fmt.Sprintf("%s:%d:%s", keyPrefix, generation, hex.EncodeToString(sum[:]))
}

// Canonical renders q so that queries differing only in the order of
// multi-valued filters produce the same string.
func Canonical(q types.SearchQuery) string {
	stars := make([]string, 0, len(q.Stars))
	for _, s := range q.Stars {
		stars = append(stars, strconv.Itoa(s))
	}
	slices.Sort(stars)
	kinds := slices.Sorted(slices.Values(q.Types))
	facilities := slices.Sorted(slices.Values(q.Facilities))

	maxPrice := "-"
	if q.MaxPrice != nil {
		maxPrice = strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64)
	}

	return strings.Join([]string{
		"d=" + strings.ToLower(strings.TrimSpace(q.Destination)),
		"s=" + strings.Join(stars, ","),
		"t=" + strings.Join(kinds, ","),
		"f=" + strings.Join(facilities, ","),
		"m=" + maxPrice,
		"o=" + string(q.Sort),
		"p=" + strconv.Itoa(q.Page),
	}, "|")
}
