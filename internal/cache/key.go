// Package cache implements the two-tier read-through cache in front of the
// tick repository: a bounded in-process LRU tier and a TTL-bounded shared
// Redis tier.
package cache

import (
	"fmt"
	"time"
)

// ResolutionTick identifies raw trade-by-trade data; bar resolutions use the
// timeframe key ("1m", "1h", ...).
const ResolutionTick = "tick"

// Key identifies one cached record sequence. Keys are only ever constructed
// for the exact query issued; no partial-range satisfaction is performed, so
// two queries share an entry only when their keys are byte-identical.
type Key struct {
	Symbol     string
	Resolution string
	Start      time.Time
	End        time.Time
	Count      int
}

// NewRangeKey builds a key for an explicit [start, end) range query.
func NewRangeKey(symbol, resolution string, start, end time.Time) Key {
	return Key{Symbol: symbol, Resolution: resolution, Start: start.UTC(), End: end.UTC()}
}

// NewRecentKey builds a key for a most-recent-N query.
func NewRecentKey(symbol, resolution string, count int) Key {
	return Key{Symbol: symbol, Resolution: resolution, Count: count}
}

// String returns the canonical composite key used by both tiers.
func (k Key) String() string {
	if k.Count > 0 {
		return fmt.Sprintf("ticks:%s:%s:recent:%d", k.Symbol, k.Resolution, k.Count)
	}
	return fmt.Sprintf("ticks:%s:%s:%d:%d", k.Symbol, k.Resolution, k.Start.UnixMilli(), k.End.UnixMilli())
}
