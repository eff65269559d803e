package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/simulation"
)

type fakeBaselines map[string]domain.Baseline

func (f fakeBaselines) GetBaseline(ctx context.Context, itemID string) (*domain.Baseline, error) {
	if itemID == "" {
		itemID = domain.DefaultItemID
	}
	b, ok := f[itemID]
	if !ok {
		return nil, fmt.Errorf("baseline %s: %w", itemID, repository.ErrNotFound)
	}
	return &b, nil
}

func (f fakeBaselines) ListBaselines(ctx context.Context) ([]domain.Baseline, error) {
	out := make([]domain.Baseline, 0, len(f))
	for _, b := range f {
		out = append(out, b)
	}
	return out, nil
}

type fakeForecasts map[string][]domain.ForecastPoint

func (f fakeForecasts) GetForecast(ctx context.Context, ref string) ([]domain.ForecastPoint, error) {
	points, ok := f[ref]
	if !ok {
		return nil, fmt.Errorf("forecast %s: %w", ref, repository.ErrNotFound)
	}
	return points, nil
}

type memCache struct {
	evaluations map[string]policy.Evaluation
	traces      map[string]*simulation.Trace
	traceHits   int
}

func newMemCache() *memCache {
	return &memCache{evaluations: map[string]policy.Evaluation{}, traces: map[string]*simulation.Trace{}}
}

func (m *memCache) GetEvaluation(ctx context.Context, key string) (*policy.Evaluation, bool, error) {
	e, ok := m.evaluations[key]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (m *memCache) SetEvaluation(ctx context.Context, key string, evaluation policy.Evaluation) error {
	m.evaluations[key] = evaluation
	return nil
}

func (m *memCache) GetTrace(ctx context.Context, key string) (*simulation.Trace, bool, error) {
	t, ok := m.traces[key]
	if ok {
		m.traceHits++
	}
	return t, ok, nil
}

func (m *memCache) SetTrace(ctx context.Context, key string, trace *simulation.Trace) error {
	m.traces[key] = trace
	return nil
}

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		ServiceLevel:         0.95,
		HoldingCostPct:       0.20,
		StockoutCostPerUnit:  50,
		LeadTimeDays:         15,
		ReactiveStockoutRate: 0.05,
		BaselineServiceLevel: 0.95,
		FallbackStdDev:       policy.DefaultFallbackStdDev,
	}
}

func testSimulationConfig() config.SimulationConfig {
	return config.SimulationConfig{
		HorizonDays:   90,
		OrderQuantity: 150,
		Buffer:        simulation.DefaultBuffer,
		DailySpread:   simulation.DefaultDailySpread,
		SpreadMode:    SpreadModeFixed,
		SweepWorkers:  2,
	}
}

func newTestService(c *memCache) *ReplenishmentService {
	baselines := fakeBaselines{
		domain.DefaultItemID: {ItemID: domain.DefaultItemID, AvgWeeklyDemand: 700, UnitPrice: 25, SafetyStock: 0},
		"sku-1":              {ItemID: "sku-1", AvgWeeklyDemand: 70, UnitPrice: 10, SafetyStock: 16.45, ServiceLevel: 0.95},
	}
	forecasts := fakeForecasts{
		"weekly.csv": {{Yhat: 100}, {Yhat: 140}},
		"empty.csv":  {},
	}
	if c == nil {
		c = newMemCache()
	}
	svc := NewReplenishmentService(baselines, forecasts, c, testPolicyConfig(), testSimulationConfig())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func ptr[T any](v T) *T { return &v }

func TestEvaluateFromBaseline(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Evaluate(context.Background(), PolicyRequest{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// Zero baseline safety stock falls back to sigma = 5.
	if resp.Demand.StdDevOverLeadTime != policy.DefaultFallbackStdDev {
		t.Fatalf("StdDevOverLeadTime = %v, want %v", resp.Demand.StdDevOverLeadTime, policy.DefaultFallbackStdDev)
	}
	if math.Abs(resp.Policy.ReorderPoint-1508.2243) > 1e-3 {
		t.Fatalf("ReorderPoint = %v, want ~1508.22", resp.Policy.ReorderPoint)
	}
	if resp.Params.UnitPrice != 25 {
		t.Fatalf("UnitPrice = %v, want baseline price 25", resp.Params.UnitPrice)
	}
	if resp.Baseline == nil || resp.SafetyStockDelta == nil {
		t.Fatal("expected baseline and safety stock delta")
	}
	if math.Abs(*resp.SafetyStockDelta-resp.Policy.SafetyStock) > 1e-12 {
		t.Fatalf("SafetyStockDelta = %v, want %v", *resp.SafetyStockDelta, resp.Policy.SafetyStock)
	}
}

func TestEvaluateBaselineRoundTrip(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Evaluate(context.Background(), PolicyRequest{ItemID: "sku-1"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// Same service level as the baseline reproduces its safety stock.
	if math.Abs(*resp.SafetyStockDelta) > 1e-9 {
		t.Fatalf("SafetyStockDelta = %v, want 0", *resp.SafetyStockDelta)
	}
}

func TestEvaluateExplicitDemand(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Evaluate(context.Background(), PolicyRequest{
		ItemID:       "unknown",
		ServiceLevel: ptr(0.99),
		UnitPrice:    ptr(10.0),
		Demand:       &policy.DemandStatistics{RatePerWeek: 70, StdDevOverLeadTime: 0},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if resp.Baseline != nil || resp.SafetyStockDelta != nil {
		t.Fatal("explicit demand should not load a baseline")
	}
	if resp.Policy.SafetyStock != 0 || resp.Policy.ReorderPoint != 150 {
		t.Fatalf("Policy = %+v, want safety stock 0 and ROP 150", resp.Policy)
	}
}

func TestEvaluateForecastRate(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Evaluate(context.Background(), PolicyRequest{ForecastRef: "weekly.csv"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if resp.Demand.RatePerWeek != 120 {
		t.Fatalf("RatePerWeek = %v, want forecast average 120", resp.Demand.RatePerWeek)
	}

	if _, err := svc.Evaluate(context.Background(), PolicyRequest{ForecastRef: "empty.csv"}); !errors.Is(err, policy.ErrInvalidParameter) {
		t.Fatalf("empty forecast error = %v, want ErrInvalidParameter", err)
	}
	if _, err := svc.Evaluate(context.Background(), PolicyRequest{ForecastRef: "missing.csv"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing forecast error = %v, want ErrNotFound", err)
	}
}

func TestEvaluateErrors(t *testing.T) {
	svc := newTestService(nil)

	tests := []struct {
		name string
		req  PolicyRequest
		want error
	}{
		{"unknown item", PolicyRequest{ItemID: "nope"}, repository.ErrNotFound},
		{"service level 1", PolicyRequest{ServiceLevel: ptr(1.0)}, policy.ErrInvalidParameter},
		{"zero lead time", PolicyRequest{LeadTimeDays: ptr(0)}, policy.ErrInvalidParameter},
		{"negative rate", PolicyRequest{Demand: &policy.DemandStatistics{RatePerWeek: -1}}, policy.ErrInvalidParameter},
		{"reactive rate above 1", PolicyRequest{ReactiveStockoutRate: ptr(1.5)}, policy.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Evaluate(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("Evaluate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEvaluateUsesCache(t *testing.T) {
	c := newMemCache()
	svc := newTestService(c)

	if _, err := svc.Evaluate(context.Background(), PolicyRequest{}); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(c.evaluations) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(c.evaluations))
	}
}

func TestSimulateSeeded(t *testing.T) {
	c := newMemCache()
	svc := newTestService(c)
	req := SimulationRequest{SimulationOptions: SimulationOptions{Seed: ptr(int64(42))}}

	first, err := svc.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if len(first.Trace.Points) != 90 {
		t.Fatalf("len(Points) = %d, want 90", len(first.Trace.Points))
	}
	if first.Seed != 42 || first.HorizonDays != 90 || first.OrderQuantity != 150 {
		t.Fatalf("response settings = (%d, %d, %v)", first.Seed, first.HorizonDays, first.OrderQuantity)
	}

	second, err := svc.Simulate(context.Background(), req)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if c.traceHits != 1 {
		t.Fatalf("trace cache hits = %d, want 1", c.traceHits)
	}
	if second.Trace.Summary != first.Trace.Summary {
		t.Fatal("seeded runs should match")
	}
}

func TestSimulateUnseededIsNotCached(t *testing.T) {
	c := newMemCache()
	svc := newTestService(c)

	resp, err := svc.Simulate(context.Background(), SimulationRequest{})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if resp.Seed != time.Unix(1700000000, 0).UnixNano() {
		t.Fatalf("Seed = %d, want clock-derived seed", resp.Seed)
	}
	if len(c.traces) != 0 {
		t.Fatalf("unseeded trace was cached")
	}
}

func TestSimulateSpreadModes(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Simulate(context.Background(), SimulationRequest{
		SimulationOptions: SimulationOptions{Seed: ptr(int64(1)), SpreadMode: SpreadModeLeadTime},
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	want := simulation.LeadTimeDailySpread(policy.DefaultFallbackStdDev, 15)
	if math.Abs(resp.Config.DailySpread-want) > 1e-12 {
		t.Fatalf("DailySpread = %v, want %v", resp.Config.DailySpread, want)
	}

	resp, err = svc.Simulate(context.Background(), SimulationRequest{
		SimulationOptions: SimulationOptions{Seed: ptr(int64(1)), SpreadMode: SpreadModeLeadTime, DailySpread: ptr(7.0)},
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if resp.Config.DailySpread != 7 {
		t.Fatalf("explicit DailySpread = %v, want 7", resp.Config.DailySpread)
	}

	_, err = svc.Simulate(context.Background(), SimulationRequest{
		SimulationOptions: SimulationOptions{SpreadMode: "weekly"},
	})
	if !errors.Is(err, policy.ErrInvalidParameter) {
		t.Fatalf("unknown spread mode error = %v, want ErrInvalidParameter", err)
	}
}

func TestSimulateValidation(t *testing.T) {
	svc := newTestService(nil)

	tests := []struct {
		name string
		opts SimulationOptions
	}{
		{"zero horizon", SimulationOptions{HorizonDays: ptr(0)}},
		{"negative quantity", SimulationOptions{OrderQuantity: ptr(-1.0)}},
		{"negative spread", SimulationOptions{DailySpread: ptr(-1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Simulate(context.Background(), SimulationRequest{SimulationOptions: tt.opts})
			if !errors.Is(err, policy.ErrInvalidParameter) {
				t.Fatalf("Simulate() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestSweep(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.Sweep(context.Background(), SweepRequest{
		SimulationOptions: SimulationOptions{Seed: ptr(int64(7))},
		ServiceLevels:     []float64{0.9, 0.99},
		Replications:      5,
	})
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(resp.Points) != 2 || resp.Seed != 7 {
		t.Fatalf("Sweep() = %d points, seed %d", len(resp.Points), resp.Seed)
	}
	if resp.Demand.RatePerWeek != 700 {
		t.Fatalf("Demand = %+v", resp.Demand)
	}

	if _, err := svc.Sweep(context.Background(), SweepRequest{Replications: 0}); !errors.Is(err, policy.ErrInvalidParameter) {
		t.Fatalf("Sweep(0 replications) error = %v, want ErrInvalidParameter", err)
	}
}

func TestGetForecast(t *testing.T) {
	svc := newTestService(nil)

	forecast, err := svc.GetForecast(context.Background(), "weekly.csv")
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}
	if forecast.AvgWeeklyDemand != 120 || len(forecast.Points) != 2 {
		t.Fatalf("GetForecast() = %+v", forecast)
	}
}
