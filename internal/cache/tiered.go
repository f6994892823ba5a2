package cache

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/metrics"
)

// Tiered composes the local LRU tier with an optional remote shared tier.
// Lookup order is local, then remote, then the loader; both tiers are
// populated on the way back. Remote tier failures degrade to a bypass and are
// never fatal. Cached sequences are treated as immutable once stored.
type Tiered struct {
	local     *lru.Cache[string, any]
	remote    RemoteStore
	remoteTTL time.Duration
	logger    *logrus.Logger
}

// NewTiered creates a tiered cache. remote may be nil to run with the local
// tier only; localMaxEntries bounds the LRU by entry count.
func NewTiered(localMaxEntries int, remote RemoteStore, remoteTTL time.Duration, logger *logrus.Logger) (*Tiered, error) {
	if logger == nil {
		logger = logrus.New()
	}
	local, err := lru.NewWithEvict[string, any](localMaxEntries, func(string, any) {
		metrics.LocalCacheEntries.Dec()
	})
	if err != nil {
		return nil, err
	}
	return &Tiered{
		local:     local,
		remote:    remote,
		remoteTTL: remoteTTL,
		logger:    logger,
	}, nil
}

// GetOrLoad returns the cached sequence for key, invoking loader on a miss in
// both tiers. Two concurrent misses for the same key may both run the loader;
// the duplicate fetch is accepted over a per-key lock since both loads return
// identical data for the same key.
func GetOrLoad[T any](ctx context.Context, c *Tiered, key Key, loader func(context.Context) ([]T, error)) ([]T, error) {
	ks := key.String()

	if value, ok := c.local.Get(ks); ok {
		if typed, ok := value.([]T); ok {
			metrics.CacheRequestsTotal.WithLabelValues("local", "hit").Inc()
			return typed, nil
		}
		// A different record type under the same key means a key-construction
		// bug upstream; treat as a miss and let the loader overwrite it.
		c.local.Remove(ks)
	}
	metrics.CacheRequestsTotal.WithLabelValues("local", "miss").Inc()

	if entries, ok := c.remoteGet(ctx, ks); ok {
		var typed []T
		if err := json.Unmarshal(entries, &typed); err != nil {
			c.logger.WithError(err).WithField("key", ks).Warn("Discarding undecodable remote cache entry")
		} else {
			metrics.CacheRequestsTotal.WithLabelValues("remote", "hit").Inc()
			c.localAdd(ks, typed)
			return typed, nil
		}
	}
	metrics.CacheRequestsTotal.WithLabelValues("remote", "miss").Inc()

	loaded, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	// A cancelled load must not leave a half-written entry in either tier.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.remoteSet(ctx, ks, loaded)
	c.localAdd(ks, loaded)
	return loaded, nil
}

// Contains reports whether the local tier currently holds key.
func (c *Tiered) Contains(key Key) bool {
	return c.local.Contains(key.String())
}

// Purge drops all local tier entries.
func (c *Tiered) Purge() {
	c.local.Purge()
}

// Ping checks remote tier connectivity; a nil remote tier is always healthy.
func (c *Tiered) Ping(ctx context.Context) error {
	if c.remote == nil {
		return nil
	}
	return c.remote.Ping(ctx)
}

func (c *Tiered) localAdd(key string, value any) {
	if !c.local.Contains(key) {
		metrics.LocalCacheEntries.Inc()
	}
	c.local.Add(key, value)
}

func (c *Tiered) remoteGet(ctx context.Context, key string) ([]byte, bool) {
	if c.remote == nil {
		return nil, false
	}
	data, found, err := c.remote.Get(ctx, key)
	if err != nil {
		metrics.CacheTierErrorsTotal.WithLabelValues("get").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("Remote cache tier read failed, bypassing tier")
		return nil, false
	}
	return data, found
}

func (c *Tiered) remoteSet(ctx context.Context, key string, value any) {
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to serialize cache entry for remote tier")
		return
	}
	if err := c.remote.Set(ctx, key, data, c.remoteTTL); err != nil {
		metrics.CacheTierErrorsTotal.WithLabelValues("set").Inc()
		c.logger.WithError(err).WithField("key", key).Warn("Remote cache tier write failed, bypassing tier")
	}
}
