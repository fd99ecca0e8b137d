package redis

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"okx-analysis/internal/metrics"
	"okx-analysis/internal/model"
)

// CandleCache is a read-through cache in front of a CandleSource. Entries
// are JSON candle arrays keyed by instrument, bar and limit. Redis errors
// never fail a fetch; they fall through to the upstream source.
type CandleCache struct {
	client  *goredis.Client
	source  model.CandleSource
	ttl     time.Duration
	metrics *metrics.Metrics
}

var _ model.CandleSource = (*CandleCache)(nil)

// NewCandleCache wraps source. m may be nil.
func NewCandleCache(client *goredis.Client, source model.CandleSource, ttl time.Duration, m *metrics.Metrics) *CandleCache {
	return &CandleCache{client: client, source: source, ttl: ttl, metrics: m}
}

func cacheKey(instID string, bar model.Bar, limit int) string {
	return "candles:" + model.Key(instID, bar) + ":" + strconv.Itoa(limit)
}

// FetchCandles serves from Redis when a fresh entry exists, otherwise asks
// the upstream source and stores the result for ttl.
func (c *CandleCache) FetchCandles(ctx context.Context, instID string, bar model.Bar, limit int) ([]model.Candle, error) {
	key := cacheKey(instID, bar, limit)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var candles []model.Candle
		if jerr := json.Unmarshal(raw, &candles); jerr == nil {
			if c.metrics != nil {
				c.metrics.CacheHits.Inc()
			}
			return candles, nil
		}
		log.Printf("[redis-cache] corrupt entry %s, refetching", key)
	case err != goredis.Nil:
		log.Printf("[redis-cache] get %s: %v", key, err)
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}

	candles, err := c.source.FetchCandles(ctx, instID, bar, limit)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(candles); jerr == nil {
		if serr := c.client.Set(ctx, key, data, c.entryTTL(bar)).Err(); serr != nil {
			log.Printf("[redis-cache] set %s: %v", key, serr)
		}
	}
	return candles, nil
}

// entryTTL caps the configured TTL at one bar width, so a cached window is
// never served after a newer candle has opened.
func (c *CandleCache) entryTTL(bar model.Bar) time.Duration {
	if width := time.Duration(bar.Seconds()) * time.Second; width > 0 && width < c.ttl {
		return width
	}
	return c.ttl
}
