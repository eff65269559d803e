package main

import (
	"fmt"

	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/urfave/cli/v2"
)

func policyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "item", Usage: "Baseline item id (defaults to the single unkeyed record)"},
		&cli.StringFlag{Name: "forecast", Usage: "Forecast file whose average replaces the baseline weekly rate"},
		&cli.Float64Flag{Name: "service-level", Usage: "Target service level in (0, 1)"},
		&cli.Float64Flag{Name: "holding-cost-pct", Usage: "Annual holding cost as a fraction of unit price"},
		&cli.Float64Flag{Name: "stockout-cost", Usage: "Penalty per unit of missed demand"},
		&cli.IntFlag{Name: "lead-time", Usage: "Supplier lead time in days"},
		&cli.Float64Flag{Name: "unit-price", Usage: "Unit price (defaults to the baseline price)"},
		&cli.Float64Flag{Name: "reactive-rate", Usage: "Fraction of annual demand lost without safety stock"},
		&cli.Float64Flag{Name: "rate", Usage: "Weekly demand rate; skips the baseline lookup"},
		&cli.Float64Flag{Name: "std-dev", Usage: "Demand std dev over the lead time, used with --rate"},
	}
}

func simulationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "horizon", Usage: "Days to simulate"},
		&cli.Float64Flag{Name: "order-quantity", Usage: "Units per replenishment order"},
		&cli.Float64Flag{Name: "buffer", Usage: "Starting stock above the reorder point"},
		&cli.Float64Flag{Name: "daily-spread", Usage: "Std dev of daily demand"},
		&cli.StringFlag{Name: "spread-mode", Usage: "fixed or lead_time"},
		&cli.Int64Flag{Name: "seed", Usage: "Random seed for a reproducible run"},
	}
}

func policyRequest(c *cli.Context, fallbackStdDev float64) (service.PolicyRequest, error) {
	if c.IsSet("std-dev") && !c.IsSet("rate") {
		return service.PolicyRequest{}, fmt.Errorf("%w: --std-dev requires --rate", policy.ErrInvalidParameter)
	}
	req := service.PolicyRequest{
		ItemID:               c.String("item"),
		ForecastRef:          c.String("forecast"),
		ServiceLevel:         float64Flag(c, "service-level"),
		HoldingCostPct:       float64Flag(c, "holding-cost-pct"),
		StockoutCostPerUnit:  float64Flag(c, "stockout-cost"),
		LeadTimeDays:         intFlag(c, "lead-time"),
		UnitPrice:            float64Flag(c, "unit-price"),
		ReactiveStockoutRate: float64Flag(c, "reactive-rate"),
	}
	if c.IsSet("rate") {
		stdDev := fallbackStdDev
		if c.IsSet("std-dev") {
			stdDev = c.Float64("std-dev")
		}
		req.Demand = &policy.DemandStatistics{RatePerWeek: c.Float64("rate"), StdDevOverLeadTime: stdDev}
	}
	return req, nil
}

func simulationOptions(c *cli.Context) service.SimulationOptions {
	opts := service.SimulationOptions{
		HorizonDays:   intFlag(c, "horizon"),
		OrderQuantity: float64Flag(c, "order-quantity"),
		Buffer:        float64Flag(c, "buffer"),
		DailySpread:   float64Flag(c, "daily-spread"),
		SpreadMode:    c.String("spread-mode"),
	}
	if c.IsSet("seed") {
		seed := c.Int64("seed")
		opts.Seed = &seed
	}
	return opts
}

func float64Flag(c *cli.Context, name string) *float64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Float64(name)
	return &v
}

func intFlag(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}
