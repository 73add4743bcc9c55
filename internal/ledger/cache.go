package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "capledger/internal/platform/redis"
)

const (
	summaryCacheKey = "capledger:summaries"
	summaryCacheTTL = 5 * time.Minute
)

// SummaryCache holds the aggregated summary set in Redis between ledger
// commits. A nil cache (Redis not configured) is valid and turns every
// operation into a no-op, so callers never branch on its presence.
type SummaryCache struct {
	client *platformredis.Client
	logger *slog.Logger
}

func NewSummaryCache(client *platformredis.Client, logger *slog.Logger) *SummaryCache {
	if client == nil {
		return nil
	}
	return &SummaryCache{client: client, logger: logger}
}

// Get returns the cached summary set if one is present. Cache failures are
// logged and treated as a miss; the ledger remains the source of truth.
func (c *SummaryCache) Get(ctx context.Context) ([]Summary, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var summaries []Summary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		c.logger.WarnContext(ctx, "discarding malformed summary cache entry", "error", err)
		c.Invalidate(ctx)
		return nil, false
	}
	return summaries, true
}

func (c *SummaryCache) Set(ctx context.Context, summaries []Summary) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(summaries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, summaryCacheKey, raw, summaryCacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache summaries", "error", err)
	}
}

// Invalidate drops the cached summary set. Called after every committed
// issuance so reads never serve stale totals.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, summaryCacheKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate summary cache", "error", err)
	}
}
