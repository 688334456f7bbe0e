// Copyright 2026 The ClubLedger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package redis caches monthly rankings in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/ranking"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "clubledger:rankings:"

// RankingCache implements ranking.Cache. Each scope has a generation
// counter; invalidation bumps it so stale entries are never read again and
// expire by TTL.
type RankingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect parses url, pings the server and returns a cache.
func Connect(ctx context.Context, url string, ttl time.Duration) (*RankingCache, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis url required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRankingCache(rdb, ttl), nil
}

func NewRankingCache(rdb *redis.Client, ttl time.Duration) *RankingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RankingCache{rdb: rdb, ttl: ttl}
}

func (c *RankingCache) Close() error {
	return c.rdb.Close()
}

func generationKey(scope tenant.Scope) string {
	return keyPrefix + scope.CacheKey() + ":gen"
}

func (c *RankingCache) entryKey(ctx context.Context, scope tenant.Scope, key string) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey(scope)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, scope.CacheKey(), gen, key), nil
}

// Get reads the scope's generation once. On a miss the returned entry is
// pinned to that generation, so a later Set never lands in a generation
// bumped while the rankings were being computed.
func (c *RankingCache) Get(ctx context.Context, scope tenant.Scope, key string) (*ranking.MonthlyRankings, string, bool) {
	k, err := c.entryKey(ctx, scope, key)
	if err != nil {
		c.warn(ctx, "get", scope, err)
		return nil, "", false
	}
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "get", scope, err)
		}
		return nil, k, false
	}
	var out ranking.MonthlyRankings
	if err := json.Unmarshal(raw, &out); err != nil {
		c.warn(ctx, "decode", scope, err)
		return nil, k, false
	}
	return &out, k, true
}

func (c *RankingCache) Set(ctx context.Context, scope tenant.Scope, entry string, r *ranking.MonthlyRankings) {
	raw, err := json.Marshal(r)
	if err != nil {
		c.warn(ctx, "encode", scope, err)
		return
	}
	if err := c.rdb.Set(ctx, entry, raw, c.ttl).Err(); err != nil {
		c.warn(ctx, "set", scope, err)
	}
}

func (c *RankingCache) Invalidate(ctx context.Context, scope tenant.Scope) {
	if err := c.rdb.Incr(ctx, generationKey(scope)).Err(); err != nil {
		c.warn(ctx, "invalidate", scope, err)
	}
}

func (c *RankingCache) warn(ctx context.Context, op string, scope tenant.Scope, err error) {
	slog.WarnContext(ctx, "ranking cache unavailable",
		logger.Component("ranking_cache"),
		logger.Operation(op),
		logger.TenantID(scope.TenantID),
		logger.Error(err),
	)
}
