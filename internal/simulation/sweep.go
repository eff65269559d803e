package simulation

import (
	"context"
	"fmt"
	"sort"

	"github.com/andresuchdata/replenish/internal/policy"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const defaultSweepWorkers = 4

// MaxSweepRuns bounds service levels times replications for one sweep.
const MaxSweepRuns = 20000

// SweepRequest describes a Monte Carlo sweep over service levels.
// Replication r of every service level draws from a source seeded with
// Seed+r, so all levels see the same demand paths and results do not depend
// on Workers.
type SweepRequest struct {
	ServiceLevels []float64               `json:"service_levels"`
	Replications  int                     `json:"replications"`
	Seed          int64                   `json:"seed"`
	Workers       int                     `json:"workers"`
	HorizonDays   int                     `json:"horizon_days"`
	OrderQuantity float64                 `json:"order_quantity"`
	LeadTimeDays  int                     `json:"lead_time_days"`
	Demand        policy.DemandStatistics `json:"demand"`
}

// SweepPoint aggregates all replications for one service level.
type SweepPoint struct {
	ServiceLevel        float64             `json:"service_level"`
	Policy              policy.PolicyResult `json:"policy"`
	Replications        int                 `json:"replications"`
	MeanMinStock        float64             `json:"mean_min_stock"`
	StdDevMinStock      float64             `json:"std_dev_min_stock"`
	StockoutProbability float64             `json:"stockout_probability"`
	MeanStockoutDays    float64             `json:"mean_stockout_days"`
	MeanOrdersPlaced    float64             `json:"mean_orders_placed"`
	FinalStockP05       float64             `json:"final_stock_p05"`
	FinalStockP50       float64             `json:"final_stock_p50"`
	FinalStockP95       float64             `json:"final_stock_p95"`
}

type SweepResult struct {
	Seed   int64        `json:"seed"`
	Points []SweepPoint `json:"points"`
}

func (req SweepRequest) validate() error {
	if len(req.ServiceLevels) == 0 {
		return fmt.Errorf("%w: at least one service level is required", policy.ErrInvalidParameter)
	}
	if req.Replications <= 0 {
		return fmt.Errorf("%w: replications must be > 0, got %d", policy.ErrInvalidParameter, req.Replications)
	}
	if req.Replications > MaxSweepRuns/len(req.ServiceLevels) {
		return fmt.Errorf("%w: service levels x replications must not exceed %d", policy.ErrInvalidParameter, MaxSweepRuns)
	}
	if req.HorizonDays <= 0 {
		return fmt.Errorf("%w: horizon_days must be > 0, got %d", policy.ErrInvalidParameter, req.HorizonDays)
	}
	if req.OrderQuantity <= 0 {
		return fmt.Errorf("%w: order_quantity must be > 0, got %v", policy.ErrInvalidParameter, req.OrderQuantity)
	}
	return nil
}

// Sweep runs Replications simulations for each service level in parallel and
// summarises them. It is deterministic for a given Seed.
func (s *Simulator) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	policies := make([]policy.PolicyResult, len(req.ServiceLevels))
	for i, level := range req.ServiceLevels {
		result, err := policy.ComputePolicy(level, req.Demand, req.LeadTimeDays)
		if err != nil {
			return nil, fmt.Errorf("service level %v: %w", level, err)
		}
		policies[i] = result
	}

	workers := req.Workers
	if workers < 1 {
		workers = defaultSweepWorkers
	}

	summaries := make([]Summary, len(policies)*req.Replications)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx := range summaries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := policies[idx/req.Replications]
			trace, err := s.Run(req.HorizonDays, result, req.OrderQuantity, req.LeadTimeDays, req.Demand, NewSource(req.Seed+int64(idx%req.Replications)))
			if err != nil {
				return err
			}
			summaries[idx] = trace.Summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SweepResult{Seed: req.Seed, Points: make([]SweepPoint, len(policies))}
	for i, result := range policies {
		out.Points[i] = aggregate(result, summaries[i*req.Replications:(i+1)*req.Replications])
	}
	return out, nil
}

func aggregate(result policy.PolicyResult, runs []Summary) SweepPoint {
	n := len(runs)
	minStock := make([]float64, n)
	finalStock := make([]float64, n)
	stockoutDays := make([]float64, n)
	orders := make([]float64, n)
	withStockout := 0
	for i, r := range runs {
		minStock[i] = r.MinStock
		finalStock[i] = r.FinalStock
		stockoutDays[i] = float64(r.StockoutDays)
		orders[i] = float64(r.OrdersPlaced)
		if r.StockoutDays > 0 {
			withStockout++
		}
	}

	meanMin, stdMin := stat.MeanStdDev(minStock, nil)
	if n < 2 {
		stdMin = 0
	}
	sort.Float64s(finalStock)

	return SweepPoint{
		ServiceLevel:        result.ServiceLevel,
		Policy:              result,
		Replications:        n,
		MeanMinStock:        meanMin,
		StdDevMinStock:      stdMin,
		StockoutProbability: float64(withStockout) / float64(n),
		MeanStockoutDays:    stat.Mean(stockoutDays, nil),
		MeanOrdersPlaced:    stat.Mean(orders, nil),
		FinalStockP05:       stat.Quantile(0.05, stat.Empirical, finalStock, nil),
		FinalStockP50:       stat.Quantile(0.50, stat.Empirical, finalStock, nil),
		FinalStockP95:       stat.Quantile(0.95, stat.Empirical, finalStock, nil),
	}
}
