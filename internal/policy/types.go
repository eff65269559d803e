package policy

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned for malformed or out-of-domain input.
// It is the only error kind the calculator and simulator produce.
var ErrInvalidParameter = errors.New("invalid parameter")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidParameter}, args...)...)
}

// DemandStatistics describes demand for one item. Derived once per run and
// not modified afterwards.
type DemandStatistics struct {
	RatePerWeek        float64 `json:"rate_per_week"`
	StdDevOverLeadTime float64 `json:"std_dev_over_lead_time"`
}

// Validate rejects negative or non-finite figures.
func (d DemandStatistics) Validate() error {
	if !finite(d.RatePerWeek) || d.RatePerWeek < 0 {
		return invalidf("rate_per_week must be a finite value >= 0, got %v", d.RatePerWeek)
	}
	if !finite(d.StdDevOverLeadTime) || d.StdDevOverLeadTime < 0 {
		return invalidf("std_dev_over_lead_time must be a finite value >= 0, got %v", d.StdDevOverLeadTime)
	}
	return nil
}

// DailyRate is the mean demand per day.
func (d DemandStatistics) DailyRate() float64 {
	return d.RatePerWeek / DaysPerWeek
}

// PolicyParameters are supplied by the caller.
// HoldingCostPct is the annual holding cost as a fraction of unit price
// (0.20 means 20% per year).
type PolicyParameters struct {
	ServiceLevel        float64 `json:"service_level"`
	HoldingCostPct      float64 `json:"holding_cost_pct"`
	StockoutCostPerUnit float64 `json:"stockout_cost_per_unit"`
	LeadTimeDays        int     `json:"lead_time_days"`
	UnitPrice           float64 `json:"unit_price"`
}

func (p PolicyParameters) Validate() error {
	if err := validateServiceLevel(p.ServiceLevel); err != nil {
		return err
	}
	if p.LeadTimeDays <= 0 {
		return invalidf("lead_time_days must be > 0, got %d", p.LeadTimeDays)
	}
	if !finite(p.HoldingCostPct) || p.HoldingCostPct < 0 {
		return invalidf("holding_cost_pct must be >= 0, got %v", p.HoldingCostPct)
	}
	if !finite(p.StockoutCostPerUnit) || p.StockoutCostPerUnit < 0 {
		return invalidf("stockout_cost_per_unit must be >= 0, got %v", p.StockoutCostPerUnit)
	}
	if !finite(p.UnitPrice) || p.UnitPrice < 0 {
		return invalidf("unit_price must be >= 0, got %v", p.UnitPrice)
	}
	return nil
}

// PolicyResult holds the derived reorder policy.
// Invariant: ReorderPoint >= SafetyStock >= 0.
type PolicyResult struct {
	ServiceLevel float64 `json:"service_level"`
	LeadTimeDays int     `json:"lead_time_days"`
	ZScore       float64 `json:"z_score"`
	SafetyStock  float64 `json:"safety_stock"`
	ReorderPoint float64 `json:"reorder_point"`
}

// ScenarioComparison is the annualized cost of running reactively versus
// running the optimized policy.
type ScenarioComparison struct {
	ReactiveStockoutRate float64 `json:"reactive_stockout_rate"`
	ReactiveMissedUnits  float64 `json:"reactive_missed_units"`
	ReactiveCost         float64 `json:"reactive_cost"`
	OptimizedCost        float64 `json:"optimized_cost"`
	Savings              float64 `json:"savings"`
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
