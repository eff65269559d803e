package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/simulation"
)

func testParams() policy.PolicyParameters {
	return policy.PolicyParameters{
		ServiceLevel:        0.95,
		HoldingCostPct:      0.2,
		StockoutCostPerUnit: 50,
		LeadTimeDays:        15,
		UnitPrice:           25,
	}
}

func TestEvaluationKeyStable(t *testing.T) {
	demand := policy.DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 5}

	a := EvaluationKey(testParams(), demand, 0.05)
	b := EvaluationKey(testParams(), demand, 0.05)
	if a != b {
		t.Fatalf("keys differ for identical inputs: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, evaluationKeyPrefix+":") {
		t.Fatalf("key %s missing prefix", a)
	}

	params := testParams()
	params.ServiceLevel = 0.99
	if EvaluationKey(params, demand, 0.05) == a {
		t.Fatal("service level change should change the key")
	}
	if EvaluationKey(testParams(), demand, 0.06) == a {
		t.Fatal("reactive rate change should change the key")
	}
}

func TestTraceKeyIncludesSeed(t *testing.T) {
	demand := policy.DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 5}
	cfg := simulation.DefaultConfig()

	a := TraceKey(testParams(), demand, cfg, 90, 150, 1)
	b := TraceKey(testParams(), demand, cfg, 90, 150, 2)
	if a == b {
		t.Fatal("seed change should change the key")
	}
	if !strings.HasPrefix(a, traceKeyPrefix+":") {
		t.Fatalf("key %s missing prefix", a)
	}
}

func TestNoopCacheWhenDisabled(t *testing.T) {
	c, err := NewReplenishmentCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewReplenishmentCache() error = %v", err)
	}
	if err := c.SetEvaluation(context.Background(), "k", policy.Evaluation{}); err != nil {
		t.Fatalf("SetEvaluation() error = %v", err)
	}
	if _, ok, err := c.GetEvaluation(context.Background(), "k"); ok || err != nil {
		t.Fatalf("GetEvaluation() = (%v, %v), want miss", ok, err)
	}
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatalf("buildRedisOptions() error = %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Fatalf("opts = %+v", opts)
	}

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:pw@example:6379/3"})
	if err != nil {
		t.Fatalf("buildRedisOptions(url) error = %v", err)
	}
	if opts.Addr != "example:6379" || opts.Password != "pw" || opts.DB != 3 {
		t.Fatalf("opts = %+v", opts)
	}
}
