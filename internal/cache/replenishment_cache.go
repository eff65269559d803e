package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/simulation"
	"github.com/redis/go-redis/v9"
)

const (
	evaluationKeyPrefix = "replenish:policy"
	traceKeyPrefix      = "replenish:simulation"
)

// ReplenishmentCache stores deterministic results: policy evaluations, and
// simulation traces produced from an explicit seed.
type ReplenishmentCache interface {
	GetEvaluation(ctx context.Context, key string) (*policy.Evaluation, bool, error)
	SetEvaluation(ctx context.Context, key string, evaluation policy.Evaluation) error
	GetTrace(ctx context.Context, key string) (*simulation.Trace, bool, error)
	SetTrace(ctx context.Context, key string, trace *simulation.Trace) error
}

type redisReplenishmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReplenishmentCache struct{}

func NewReplenishmentCache(cfg config.CacheConfig) (ReplenishmentCache, error) {
	if !cfg.Enabled {
		return &noopReplenishmentCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReplenishmentCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopReplenishmentCache() ReplenishmentCache {
	return &noopReplenishmentCache{}
}

func (c *redisReplenishmentCache) GetEvaluation(ctx context.Context, key string) (*policy.Evaluation, bool, error) {
	var evaluation policy.Evaluation
	ok, err := c.get(ctx, key, &evaluation)
	if !ok || err != nil {
		return nil, false, err
	}
	return &evaluation, true, nil
}

func (c *redisReplenishmentCache) SetEvaluation(ctx context.Context, key string, evaluation policy.Evaluation) error {
	return c.set(ctx, key, evaluation)
}

func (c *redisReplenishmentCache) GetTrace(ctx context.Context, key string) (*simulation.Trace, bool, error) {
	var trace simulation.Trace
	ok, err := c.get(ctx, key, &trace)
	if !ok || err != nil {
		return nil, false, err
	}
	return &trace, true, nil
}

func (c *redisReplenishmentCache) SetTrace(ctx context.Context, key string, trace *simulation.Trace) error {
	return c.set(ctx, key, trace)
}

func (c *redisReplenishmentCache) get(ctx context.Context, key string, dst any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *redisReplenishmentCache) set(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopReplenishmentCache) GetEvaluation(ctx context.Context, key string) (*policy.Evaluation, bool, error) {
	return nil, false, nil
}

func (n *noopReplenishmentCache) SetEvaluation(ctx context.Context, key string, evaluation policy.Evaluation) error {
	return nil
}

func (n *noopReplenishmentCache) GetTrace(ctx context.Context, key string) (*simulation.Trace, bool, error) {
	return nil, false, nil
}

func (n *noopReplenishmentCache) SetTrace(ctx context.Context, key string, trace *simulation.Trace) error {
	return nil
}

// EvaluationKey identifies a policy evaluation by all of its inputs.
func EvaluationKey(params policy.PolicyParameters, demand policy.DemandStatistics, reactiveRate float64) string {
	return fmt.Sprintf("%s:%s", evaluationKeyPrefix, hashParts(evaluationParts(params, demand, reactiveRate)))
}

// TraceKey identifies a seeded simulation run.
func TraceKey(params policy.PolicyParameters, demand policy.DemandStatistics, cfg simulation.Config, horizonDays int, orderQuantity float64, seed int64) string {
	parts := evaluationParts(params, demand, 0)
	parts = append(parts,
		fmt.Sprintf("buffer=%g", cfg.Buffer),
		fmt.Sprintf("daily_spread=%g", cfg.DailySpread),
		fmt.Sprintf("horizon_days=%d", horizonDays),
		fmt.Sprintf("order_quantity=%g", orderQuantity),
		fmt.Sprintf("seed=%d", seed),
	)
	return fmt.Sprintf("%s:%s", traceKeyPrefix, hashParts(parts))
}

func evaluationParts(params policy.PolicyParameters, demand policy.DemandStatistics, reactiveRate float64) []string {
	return []string{
		fmt.Sprintf("service_level=%g", params.ServiceLevel),
		fmt.Sprintf("holding_cost_pct=%g", params.HoldingCostPct),
		fmt.Sprintf("stockout_cost_per_unit=%g", params.StockoutCostPerUnit),
		fmt.Sprintf("lead_time_days=%d", params.LeadTimeDays),
		fmt.Sprintf("unit_price=%g", params.UnitPrice),
		fmt.Sprintf("rate_per_week=%g", demand.RatePerWeek),
		fmt.Sprintf("std_dev_over_lead_time=%g", demand.StdDevOverLeadTime),
		fmt.Sprintf("reactive_stockout_rate=%g", reactiveRate),
	}
}

func hashParts(parts []string) string {
	sorted := append([]string(nil), parts...)
	sort.Strings(sorted)
	sum := sha1.Sum([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(sum[:])
}
