// Package policy derives reorder-point policies from a service-level target
// and demand statistics, and prices them against a reactive baseline.
//
// Everything in this package is a pure function of its arguments.
package policy

import (
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DaysPerWeek converts weekly demand rates to daily ones.
	DaysPerWeek = 7.0

	// WeeksPerYear annualizes weekly demand for the cost comparison.
	WeeksPerYear = 52.0

	// DefaultFallbackStdDev is the lead-time standard deviation assumed when a
	// baseline reports zero safety stock and nothing can be back-solved.
	DefaultFallbackStdDev = 5.0
)

// ZScore returns the inverse standard normal CDF at serviceLevel.
// serviceLevel must lie strictly inside (0, 1).
func ZScore(serviceLevel float64) (float64, error) {
	if err := validateServiceLevel(serviceLevel); err != nil {
		return 0, err
	}
	return distuv.UnitNormal.Quantile(serviceLevel), nil
}

// ComputePolicy derives safety stock and reorder point:
//
//	safety_stock  = z(serviceLevel) * σ_L
//	reorder_point = leadTimeDays * rate/7 + safety_stock
//
// A zero σ_L yields a safety stock of exactly zero.
func ComputePolicy(serviceLevel float64, demand DemandStatistics, leadTimeDays int) (PolicyResult, error) {
	z, err := ZScore(serviceLevel)
	if err != nil {
		return PolicyResult{}, err
	}
	if leadTimeDays <= 0 {
		return PolicyResult{}, invalidf("lead_time_days must be > 0, got %d", leadTimeDays)
	}
	if err := demand.Validate(); err != nil {
		return PolicyResult{}, err
	}

	safetyStock := 0.0
	if demand.StdDevOverLeadTime > 0 {
		safetyStock = z * demand.StdDevOverLeadTime
	}
	// Below the median the z-score is negative; a negative buffer is not held.
	if safetyStock < 0 {
		safetyStock = 0
	}

	return PolicyResult{
		ServiceLevel: serviceLevel,
		LeadTimeDays: leadTimeDays,
		ZScore:       z,
		SafetyStock:  safetyStock,
		ReorderPoint: float64(leadTimeDays)*demand.DailyRate() + safetyStock,
	}, nil
}

// EstimateStdDevFromBaseline back-solves σ_L = safety_stock / z(serviceLevel)
// when only a baseline safety-stock figure is known.
//
// A zero safety stock carries no information about variability, so fallback
// is returned as-is instead of dividing. Callers normally pass
// DefaultFallbackStdDev.
func EstimateStdDevFromBaseline(originalSafetyStock, originalServiceLevel, fallback float64) (float64, error) {
	if !finite(originalSafetyStock) || originalSafetyStock < 0 {
		return 0, invalidf("original safety stock must be >= 0, got %v", originalSafetyStock)
	}
	if !finite(fallback) || fallback < 0 {
		return 0, invalidf("fallback std dev must be >= 0, got %v", fallback)
	}
	if originalSafetyStock == 0 {
		return fallback, nil
	}

	z, err := ZScore(originalServiceLevel)
	if err != nil {
		return 0, err
	}
	if z <= 0 {
		return 0, invalidf("original service level must be above 0.5 to back-solve a std dev, got %v", originalServiceLevel)
	}
	return originalSafetyStock / z, nil
}

// BaselineDemand builds DemandStatistics from a stored baseline: the weekly
// rate is taken as-is and σ_L is back-solved from the baseline safety stock.
func BaselineDemand(ratePerWeek, originalSafetyStock, originalServiceLevel, fallback float64) (DemandStatistics, error) {
	stdDev, err := EstimateStdDevFromBaseline(originalSafetyStock, originalServiceLevel, fallback)
	if err != nil {
		return DemandStatistics{}, err
	}
	demand := DemandStatistics{RatePerWeek: ratePerWeek, StdDevOverLeadTime: stdDev}
	if err := demand.Validate(); err != nil {
		return DemandStatistics{}, err
	}
	return demand, nil
}

// CompareScenarios prices two policies over a year.
//
// Reactive: no safety stock and a fixed fraction of annual demand lost,
// each lost unit costing its price plus the stockout penalty.
//
// Optimized: holding cost of the safety stock only. This is a simplification:
// meeting the target service level is assumed to eliminate stockout cost,
// which overstates savings at low service levels.
func CompareScenarios(result PolicyResult, demand DemandStatistics, params PolicyParameters, annualStockoutRateReactive float64) (ScenarioComparison, error) {
	if err := demand.Validate(); err != nil {
		return ScenarioComparison{}, err
	}
	if err := params.Validate(); err != nil {
		return ScenarioComparison{}, err
	}
	if !finite(annualStockoutRateReactive) || annualStockoutRateReactive < 0 || annualStockoutRateReactive > 1 {
		return ScenarioComparison{}, invalidf("reactive stockout rate must be in [0, 1], got %v", annualStockoutRateReactive)
	}
	if !finite(result.SafetyStock) || result.SafetyStock < 0 {
		return ScenarioComparison{}, invalidf("safety stock must be >= 0, got %v", result.SafetyStock)
	}

	missed := demand.RatePerWeek * WeeksPerYear * annualStockoutRateReactive
	reactive := missed * (params.UnitPrice + params.StockoutCostPerUnit)
	optimized := result.SafetyStock * params.UnitPrice * params.HoldingCostPct

	return ScenarioComparison{
		ReactiveStockoutRate: annualStockoutRateReactive,
		ReactiveMissedUnits:  missed,
		ReactiveCost:         reactive,
		OptimizedCost:        optimized,
		Savings:              reactive - optimized,
	}, nil
}

// Evaluation bundles a policy with its cost comparison.
type Evaluation struct {
	Demand     DemandStatistics   `json:"demand"`
	Params     PolicyParameters   `json:"params"`
	Policy     PolicyResult       `json:"policy"`
	Comparison ScenarioComparison `json:"comparison"`
}

// Evaluate runs ComputePolicy followed by CompareScenarios.
func Evaluate(params PolicyParameters, demand DemandStatistics, annualStockoutRateReactive float64) (Evaluation, error) {
	if err := params.Validate(); err != nil {
		return Evaluation{}, err
	}
	result, err := ComputePolicy(params.ServiceLevel, demand, params.LeadTimeDays)
	if err != nil {
		return Evaluation{}, err
	}
	comparison, err := CompareScenarios(result, demand, params, annualStockoutRateReactive)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		Demand:     demand,
		Params:     params,
		Policy:     result,
		Comparison: comparison,
	}, nil
}

func validateServiceLevel(serviceLevel float64) error {
	if !finite(serviceLevel) || serviceLevel <= 0 || serviceLevel >= 1 {
		return invalidf("service level must be strictly between 0 and 1, got %v", serviceLevel)
	}
	return nil
}
