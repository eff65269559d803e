package policy

import (
	"errors"
	"math"
	"testing"
)

func TestZScore(t *testing.T) {
	tests := []struct {
		name         string
		serviceLevel float64
		expected     float64
	}{
		{"Median", 0.5, 0.0},
		{"Eighty percent", 0.80, 0.841621},
		{"Ninety percent", 0.90, 1.281552},
		{"Ninety five percent", 0.95, 1.644854},
		{"Ninety nine percent", 0.99, 2.326348},
		{"Ninety nine point nine", 0.999, 3.090232},
		{"Below median", 0.05, -1.644854},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := ZScore(tt.serviceLevel)
			if err != nil {
				t.Fatalf("ZScore(%v) error = %v", tt.serviceLevel, err)
			}
			if math.Abs(z-tt.expected) > 1e-5 {
				t.Errorf("ZScore(%v) = %v, expected %v", tt.serviceLevel, z, tt.expected)
			}
		})
	}
}

func TestZScoreRejectsBoundaries(t *testing.T) {
	for _, level := range []float64{0, 1, -0.1, 1.5, math.NaN(), math.Inf(1)} {
		if _, err := ZScore(level); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("ZScore(%v) error = %v, expected ErrInvalidParameter", level, err)
		}
	}
}

func TestComputePolicyReferenceValues(t *testing.T) {
	result, err := ComputePolicy(0.95, DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 5.0}, 15)
	if err != nil {
		t.Fatalf("ComputePolicy() error = %v", err)
	}

	if math.Abs(result.ZScore-1.645) > 0.001 {
		t.Errorf("ZScore = %v, expected ~1.645", result.ZScore)
	}
	if math.Abs(result.SafetyStock-8.23) > 0.01 {
		t.Errorf("SafetyStock = %v, expected ~8.23", result.SafetyStock)
	}
	if math.Abs(result.ReorderPoint-1508.23) > 0.01 {
		t.Errorf("ReorderPoint = %v, expected ~1508.23", result.ReorderPoint)
	}
	if result.LeadTimeDays != 15 || result.ServiceLevel != 0.95 {
		t.Errorf("result did not echo inputs: %+v", result)
	}
}

func TestComputePolicyZeroStdDev(t *testing.T) {
	for _, level := range []float64{0.01, 0.3, 0.5, 0.8, 0.95, 0.999} {
		result, err := ComputePolicy(level, DemandStatistics{RatePerWeek: 70, StdDevOverLeadTime: 0}, 10)
		if err != nil {
			t.Fatalf("ComputePolicy(%v) error = %v", level, err)
		}
		if result.SafetyStock != 0 || math.Signbit(result.SafetyStock) {
			t.Errorf("ComputePolicy(%v).SafetyStock = %v, expected exactly 0", level, result.SafetyStock)
		}
		if result.ReorderPoint != 100 {
			t.Errorf("ComputePolicy(%v).ReorderPoint = %v, expected 100", level, result.ReorderPoint)
		}
	}
}

func TestComputePolicyMonotonicInServiceLevel(t *testing.T) {
	demand := DemandStatistics{RatePerWeek: 420, StdDevOverLeadTime: 12.5}
	previous := -1.0
	for level := 0.001; level < 1; level += 0.001 {
		result, err := ComputePolicy(level, demand, 7)
		if err != nil {
			t.Fatalf("ComputePolicy(%v) error = %v", level, err)
		}
		if result.SafetyStock < previous {
			t.Fatalf("safety stock decreased at service level %v: %v < %v", level, result.SafetyStock, previous)
		}
		if result.ReorderPoint < result.SafetyStock || result.SafetyStock < 0 {
			t.Fatalf("invariant reorder_point >= safety_stock >= 0 broken at %v: %+v", level, result)
		}
		previous = result.SafetyStock
	}
}

func TestComputePolicyMonotonicInStdDev(t *testing.T) {
	previous := -1.0
	for sd := 0.0; sd <= 50; sd += 0.5 {
		result, err := ComputePolicy(0.9, DemandStatistics{RatePerWeek: 100, StdDevOverLeadTime: sd}, 5)
		if err != nil {
			t.Fatalf("ComputePolicy(sd=%v) error = %v", sd, err)
		}
		if result.SafetyStock < previous {
			t.Fatalf("safety stock decreased at sd %v", sd)
		}
		previous = result.SafetyStock
	}
}

func TestComputePolicyIdempotent(t *testing.T) {
	demand := DemandStatistics{RatePerWeek: 333.3, StdDevOverLeadTime: 7.77}
	first, err := ComputePolicy(0.973, demand, 11)
	if err != nil {
		t.Fatalf("ComputePolicy() error = %v", err)
	}
	second, err := ComputePolicy(0.973, demand, 11)
	if err != nil {
		t.Fatalf("ComputePolicy() error = %v", err)
	}
	if first != second {
		t.Errorf("ComputePolicy() not idempotent: %+v != %+v", first, second)
	}
}

func TestComputePolicyValidation(t *testing.T) {
	tests := []struct {
		name         string
		serviceLevel float64
		demand       DemandStatistics
		leadTime     int
	}{
		{"Service level zero", 0, DemandStatistics{RatePerWeek: 10}, 5},
		{"Service level one", 1, DemandStatistics{RatePerWeek: 10}, 5},
		{"Zero lead time", 0.9, DemandStatistics{RatePerWeek: 10}, 0},
		{"Negative lead time", 0.9, DemandStatistics{RatePerWeek: 10}, -3},
		{"Negative rate", 0.9, DemandStatistics{RatePerWeek: -1}, 5},
		{"Negative std dev", 0.9, DemandStatistics{RatePerWeek: 10, StdDevOverLeadTime: -2}, 5},
		{"NaN rate", 0.9, DemandStatistics{RatePerWeek: math.NaN()}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputePolicy(tt.serviceLevel, tt.demand, tt.leadTime)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("ComputePolicy() error = %v, expected ErrInvalidParameter", err)
			}
		})
	}
}

func TestEstimateStdDevFromBaseline(t *testing.T) {
	tests := []struct {
		name        string
		safetyStock float64
		level       float64
		fallback    float64
		expected    float64
		expectErr   bool
	}{
		{"Back-solve at 95%", 8.224268, 0.95, DefaultFallbackStdDev, 5.0, false},
		{"Back-solve at 99%", 23.26348, 0.99, DefaultFallbackStdDev, 10.0, false},
		{"Zero safety stock uses fallback", 0, 0.95, DefaultFallbackStdDev, 5.0, false},
		{"Zero safety stock custom fallback", 0, 0.95, 12.5, 12.5, false},
		{"Zero safety stock ignores service level", 0, 0.5, 3, 3, false},
		{"Negative safety stock", -1, 0.95, DefaultFallbackStdDev, 0, true},
		{"Median service level", 10, 0.5, DefaultFallbackStdDev, 0, true},
		{"Invalid service level", 10, 1, DefaultFallbackStdDev, 0, true},
		{"Negative fallback", 0, 0.95, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateStdDevFromBaseline(tt.safetyStock, tt.level, tt.fallback)
			if tt.expectErr {
				if !errors.Is(err, ErrInvalidParameter) {
					t.Errorf("EstimateStdDevFromBaseline() error = %v, expected ErrInvalidParameter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EstimateStdDevFromBaseline() error = %v", err)
			}
			if math.Abs(got-tt.expected) > 1e-4 {
				t.Errorf("EstimateStdDevFromBaseline() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestBaselineDemandRoundTrip(t *testing.T) {
	original, err := ComputePolicy(0.95, DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 9}, 15)
	if err != nil {
		t.Fatalf("ComputePolicy() error = %v", err)
	}

	demand, err := BaselineDemand(700, original.SafetyStock, 0.95, DefaultFallbackStdDev)
	if err != nil {
		t.Fatalf("BaselineDemand() error = %v", err)
	}
	if math.Abs(demand.StdDevOverLeadTime-9) > 1e-9 {
		t.Errorf("StdDevOverLeadTime = %v, expected 9", demand.StdDevOverLeadTime)
	}

	again, err := ComputePolicy(0.95, demand, 15)
	if err != nil {
		t.Fatalf("ComputePolicy() error = %v", err)
	}
	if math.Abs(again.SafetyStock-original.SafetyStock) > 1e-9 {
		t.Errorf("SafetyStock = %v, expected %v", again.SafetyStock, original.SafetyStock)
	}
}

func TestCompareScenarios(t *testing.T) {
	demand := DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 5}
	params := PolicyParameters{
		ServiceLevel:        0.95,
		HoldingCostPct:      0.20,
		StockoutCostPerUnit: 50,
		LeadTimeDays:        15,
		UnitPrice:           25,
	}
	result := PolicyResult{ServiceLevel: 0.95, LeadTimeDays: 15, SafetyStock: 100, ReorderPoint: 1600}

	got, err := CompareScenarios(result, demand, params, 0.05)
	if err != nil {
		t.Fatalf("CompareScenarios() error = %v", err)
	}

	// 700 * 52 * 0.05 = 1820 missed units at (25 + 50) each.
	if math.Abs(got.ReactiveMissedUnits-1820) > 1e-9 {
		t.Errorf("ReactiveMissedUnits = %v, expected 1820", got.ReactiveMissedUnits)
	}
	if math.Abs(got.ReactiveCost-136500) > 1e-6 {
		t.Errorf("ReactiveCost = %v, expected 136500", got.ReactiveCost)
	}
	// 100 * 25 * 0.20
	if math.Abs(got.OptimizedCost-500) > 1e-9 {
		t.Errorf("OptimizedCost = %v, expected 500", got.OptimizedCost)
	}
	if math.Abs(got.Savings-136000) > 1e-6 {
		t.Errorf("Savings = %v, expected 136000", got.Savings)
	}
}

func TestCompareScenariosValidation(t *testing.T) {
	valid := PolicyParameters{ServiceLevel: 0.9, HoldingCostPct: 0.2, StockoutCostPerUnit: 10, LeadTimeDays: 5, UnitPrice: 3}
	demand := DemandStatistics{RatePerWeek: 10, StdDevOverLeadTime: 1}
	result := PolicyResult{SafetyStock: 1, ReorderPoint: 8}

	tests := []struct {
		name   string
		params PolicyParameters
		demand DemandStatistics
		rate   float64
	}{
		{"Negative unit price", func() PolicyParameters { p := valid; p.UnitPrice = -1; return p }(), demand, 0.05},
		{"Negative holding cost", func() PolicyParameters { p := valid; p.HoldingCostPct = -0.1; return p }(), demand, 0.05},
		{"Negative stockout cost", func() PolicyParameters { p := valid; p.StockoutCostPerUnit = -5; return p }(), demand, 0.05},
		{"Negative demand rate", valid, DemandStatistics{RatePerWeek: -10}, 0.05},
		{"Negative stockout rate", valid, demand, -0.01},
		{"Stockout rate above one", valid, demand, 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompareScenarios(result, tt.demand, tt.params, tt.rate)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("CompareScenarios() error = %v, expected ErrInvalidParameter", err)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	params := PolicyParameters{ServiceLevel: 0.95, HoldingCostPct: 0.2, StockoutCostPerUnit: 50, LeadTimeDays: 15, UnitPrice: 10}
	demand := DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 5}

	ev, err := Evaluate(params, demand, 0.05)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if math.Abs(ev.Policy.ReorderPoint-1508.22) > 0.01 {
		t.Errorf("ReorderPoint = %v, expected ~1508.22", ev.Policy.ReorderPoint)
	}
	expectedOptimized := ev.Policy.SafetyStock * 10 * 0.2
	if ev.Comparison.OptimizedCost != expectedOptimized {
		t.Errorf("OptimizedCost = %v, expected %v", ev.Comparison.OptimizedCost, expectedOptimized)
	}

	params.LeadTimeDays = 0
	if _, err := Evaluate(params, demand, 0.05); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Evaluate() with zero lead time error = %v, expected ErrInvalidParameter", err)
	}
}
