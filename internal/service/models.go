package service

import (
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/simulation"
)

const (
	SpreadModeFixed    = "fixed"
	SpreadModeLeadTime = "lead_time"
)

// PolicyRequest carries what-if inputs. Nil fields fall back to configured
// defaults. When Demand is nil, demand is derived from the item's baseline,
// with the weekly rate optionally replaced by a forecast average.
type PolicyRequest struct {
	ItemID               string                   `json:"item_id"`
	ForecastRef          string                   `json:"forecast_ref"`
	ServiceLevel         *float64                 `json:"service_level"`
	HoldingCostPct       *float64                 `json:"holding_cost_pct"`
	StockoutCostPerUnit  *float64                 `json:"stockout_cost_per_unit"`
	LeadTimeDays         *int                     `json:"lead_time_days"`
	UnitPrice            *float64                 `json:"unit_price"`
	ReactiveStockoutRate *float64                 `json:"reactive_stockout_rate"`
	Demand               *policy.DemandStatistics `json:"demand"`
}

// PolicyResponse is an evaluation plus, when a baseline was used, the
// baseline and the change in safety stock against it.
type PolicyResponse struct {
	policy.Evaluation
	Baseline         *domain.Baseline `json:"baseline,omitempty"`
	SafetyStockDelta *float64         `json:"safety_stock_delta,omitempty"`
}

// SimulationOptions are the run settings shared by single runs and sweeps.
type SimulationOptions struct {
	HorizonDays   *int     `json:"horizon_days"`
	OrderQuantity *float64 `json:"order_quantity"`
	Buffer        *float64 `json:"buffer"`
	DailySpread   *float64 `json:"daily_spread"`
	SpreadMode    string   `json:"spread_mode"`
	Seed          *int64   `json:"seed"`
}

type SimulationRequest struct {
	PolicyRequest
	SimulationOptions
}

type SimulationResponse struct {
	PolicyResponse
	Config        simulation.Config `json:"config"`
	HorizonDays   int               `json:"horizon_days"`
	OrderQuantity float64           `json:"order_quantity"`
	Seed          int64             `json:"seed"`
	Trace         *simulation.Trace `json:"trace"`
}

type SweepRequest struct {
	PolicyRequest
	SimulationOptions
	ServiceLevels []float64 `json:"service_levels"`
	Replications  int       `json:"replications"`
}

type SweepResponse struct {
	Demand        policy.DemandStatistics `json:"demand"`
	Config        simulation.Config       `json:"config"`
	HorizonDays   int                     `json:"horizon_days"`
	OrderQuantity float64                 `json:"order_quantity"`
	*simulation.SweepResult
}
