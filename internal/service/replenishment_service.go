package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/simulation"
	"github.com/rs/zerolog/log"
)

type ReplenishmentService struct {
	baselines repository.BaselineRepository
	forecasts repository.ForecastRepository
	cache     cache.ReplenishmentCache
	policy    config.PolicyConfig
	sim       config.SimulationConfig
	now       func() time.Time
}

func NewReplenishmentService(
	baselines repository.BaselineRepository,
	forecasts repository.ForecastRepository,
	cacheImpl cache.ReplenishmentCache,
	policyCfg config.PolicyConfig,
	simCfg config.SimulationConfig,
) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReplenishmentCache()
	}
	return &ReplenishmentService{
		baselines: baselines,
		forecasts: forecasts,
		cache:     cacheImpl,
		policy:    policyCfg,
		sim:       simCfg,
		now:       time.Now,
	}
}

func (s *ReplenishmentService) GetBaseline(ctx context.Context, itemID string) (*domain.Baseline, error) {
	if s.baselines == nil {
		return nil, fmt.Errorf("baseline %s: %w", itemID, repository.ErrNotFound)
	}
	return s.baselines.GetBaseline(ctx, itemID)
}

func (s *ReplenishmentService) GetForecast(ctx context.Context, ref string) (*domain.Forecast, error) {
	if s.forecasts == nil {
		return nil, fmt.Errorf("forecast %s: %w", ref, repository.ErrNotFound)
	}
	points, err := s.forecasts.GetForecast(ctx, ref)
	if err != nil {
		return nil, err
	}
	rate, _ := domain.AverageWeeklyRate(points)
	if points == nil {
		points = make([]domain.ForecastPoint, 0)
	}
	return &domain.Forecast{Ref: ref, Points: points, AvgWeeklyDemand: rate}, nil
}

// Evaluate computes the policy and cost comparison for req.
func (s *ReplenishmentService) Evaluate(ctx context.Context, req PolicyRequest) (*PolicyResponse, error) {
	params, demand, baseline, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, params, demand, baseline, floatOr(req.ReactiveStockoutRate, s.policy.ReactiveStockoutRate))
}

func (s *ReplenishmentService) evaluate(ctx context.Context, params policy.PolicyParameters, demand policy.DemandStatistics, baseline *domain.Baseline, reactiveRate float64) (*PolicyResponse, error) {
	key := cache.EvaluationKey(params, demand, reactiveRate)

	var evaluation policy.Evaluation
	if cached, ok, err := s.cache.GetEvaluation(ctx, key); err == nil && ok {
		evaluation = *cached
	} else {
		if err != nil {
			log.Warn().Err(err).Msg("replenishment: cache get evaluation failed")
		}
		evaluation, err = policy.Evaluate(params, demand, reactiveRate)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetEvaluation(ctx, key, evaluation); err != nil {
			log.Warn().Err(err).Msg("replenishment: cache set evaluation failed")
		}
	}

	resp := &PolicyResponse{Evaluation: evaluation, Baseline: baseline}
	if baseline != nil {
		delta := evaluation.Policy.SafetyStock - baseline.SafetyStock
		resp.SafetyStockDelta = &delta
	}
	return resp, nil
}

// Simulate evaluates the policy and runs one simulation over it. A request
// without a seed gets a fresh one, echoed in the response; only seeded
// requests are cached.
func (s *ReplenishmentService) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResponse, error) {
	params, demand, baseline, err := s.resolve(ctx, req.PolicyRequest)
	if err != nil {
		return nil, err
	}
	evaluation, err := s.evaluate(ctx, params, demand, baseline, floatOr(req.ReactiveStockoutRate, s.policy.ReactiveStockoutRate))
	if err != nil {
		return nil, err
	}

	simCfg, err := s.simulationConfig(req.SimulationOptions, demand, params.LeadTimeDays)
	if err != nil {
		return nil, err
	}
	sim, err := simulation.New(simCfg)
	if err != nil {
		return nil, err
	}

	horizon := intOr(req.HorizonDays, s.sim.HorizonDays)
	quantity := floatOr(req.OrderQuantity, s.sim.OrderQuantity)
	seeded := req.Seed != nil
	seed := s.now().UnixNano()
	if seeded {
		seed = *req.Seed
	}

	resp := &SimulationResponse{
		PolicyResponse: *evaluation,
		Config:         simCfg,
		HorizonDays:    horizon,
		OrderQuantity:  quantity,
		Seed:           seed,
	}

	key := cache.TraceKey(params, demand, simCfg, horizon, quantity, seed)
	if seeded {
		if trace, ok, err := s.cache.GetTrace(ctx, key); err == nil && ok {
			resp.Trace = trace
			return resp, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("replenishment: cache get trace failed")
		}
	}

	trace, err := sim.Run(horizon, evaluation.Policy, quantity, params.LeadTimeDays, demand, simulation.NewSource(seed))
	if err != nil {
		return nil, err
	}
	resp.Trace = trace

	if seeded {
		if err := s.cache.SetTrace(ctx, key, trace); err != nil {
			log.Warn().Err(err).Msg("replenishment: cache set trace failed")
		}
	}

	log.Debug().
		Str("item_id", req.ItemID).
		Float64("service_level", params.ServiceLevel).
		Int("horizon_days", horizon).
		Int64("seed", seed).
		Int("stockout_days", trace.Summary.StockoutDays).
		Msg("replenishment: simulation complete")

	return resp, nil
}

// Sweep runs a Monte Carlo sweep over service levels. The demand and other
// policy parameters come from req exactly as for Evaluate.
func (s *ReplenishmentService) Sweep(ctx context.Context, req SweepRequest) (*SweepResponse, error) {
	params, demand, _, err := s.resolve(ctx, req.PolicyRequest)
	if err != nil {
		return nil, err
	}

	simCfg, err := s.simulationConfig(req.SimulationOptions, demand, params.LeadTimeDays)
	if err != nil {
		return nil, err
	}
	sim, err := simulation.New(simCfg)
	if err != nil {
		return nil, err
	}

	levels := req.ServiceLevels
	if len(levels) == 0 {
		levels = []float64{params.ServiceLevel}
	}
	seed := s.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	started := s.now()
	result, err := sim.Sweep(ctx, simulation.SweepRequest{
		ServiceLevels: levels,
		Replications:  req.Replications,
		Seed:          seed,
		Workers:       s.sim.SweepWorkers,
		HorizonDays:   intOr(req.HorizonDays, s.sim.HorizonDays),
		OrderQuantity: floatOr(req.OrderQuantity, s.sim.OrderQuantity),
		LeadTimeDays:  params.LeadTimeDays,
		Demand:        demand,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("service_levels", len(levels)).
		Int("replications", req.Replications).
		Int64("seed", seed).
		Dur("elapsed", s.now().Sub(started)).
		Msg("replenishment: sweep complete")

	return &SweepResponse{
		Demand:        demand,
		Config:        simCfg,
		HorizonDays:   intOr(req.HorizonDays, s.sim.HorizonDays),
		OrderQuantity: floatOr(req.OrderQuantity, s.sim.OrderQuantity),
		SweepResult:   result,
	}, nil
}

// resolve fills defaults and derives demand statistics once per request.
func (s *ReplenishmentService) resolve(ctx context.Context, req PolicyRequest) (policy.PolicyParameters, policy.DemandStatistics, *domain.Baseline, error) {
	params := policy.PolicyParameters{
		ServiceLevel:        floatOr(req.ServiceLevel, s.policy.ServiceLevel),
		HoldingCostPct:      floatOr(req.HoldingCostPct, s.policy.HoldingCostPct),
		StockoutCostPerUnit: floatOr(req.StockoutCostPerUnit, s.policy.StockoutCostPerUnit),
		LeadTimeDays:        intOr(req.LeadTimeDays, s.policy.LeadTimeDays),
	}
	if req.UnitPrice != nil {
		params.UnitPrice = *req.UnitPrice
	}

	if req.Demand != nil && req.ForecastRef == "" {
		if err := req.Demand.Validate(); err != nil {
			return params, policy.DemandStatistics{}, nil, err
		}
		if err := params.Validate(); err != nil {
			return params, policy.DemandStatistics{}, nil, err
		}
		return params, *req.Demand, nil, nil
	}

	var (
		baseline *domain.Baseline
		demand   policy.DemandStatistics
		err      error
	)
	if req.Demand != nil {
		demand = *req.Demand
	} else {
		baseline, err = s.GetBaseline(ctx, req.ItemID)
		if err != nil {
			return params, policy.DemandStatistics{}, nil, fmt.Errorf("error loading baseline: %w", err)
		}
		demand, err = policy.BaselineDemand(
			baseline.AvgWeeklyDemand,
			baseline.SafetyStock,
			baseline.ServiceLevelOr(s.policy.BaselineServiceLevel),
			s.policy.FallbackStdDev,
		)
		if err != nil {
			return params, policy.DemandStatistics{}, nil, err
		}
		if req.UnitPrice == nil {
			params.UnitPrice = baseline.UnitPrice
		}
	}

	if req.ForecastRef != "" {
		forecast, err := s.GetForecast(ctx, req.ForecastRef)
		if err != nil {
			return params, policy.DemandStatistics{}, nil, fmt.Errorf("error loading forecast: %w", err)
		}
		if len(forecast.Points) == 0 {
			return params, policy.DemandStatistics{}, nil, fmt.Errorf("%w: forecast %s has no points", policy.ErrInvalidParameter, req.ForecastRef)
		}
		demand.RatePerWeek = forecast.AvgWeeklyDemand
	}

	if err := demand.Validate(); err != nil {
		return params, policy.DemandStatistics{}, nil, err
	}
	if err := params.Validate(); err != nil {
		return params, policy.DemandStatistics{}, nil, err
	}
	return params, demand, baseline, nil
}

func (s *ReplenishmentService) simulationConfig(opts SimulationOptions, demand policy.DemandStatistics, leadTimeDays int) (simulation.Config, error) {
	cfg := simulation.Config{
		Buffer:      floatOr(opts.Buffer, s.sim.Buffer),
		DailySpread: s.sim.DailySpread,
	}

	mode := opts.SpreadMode
	if mode == "" {
		mode = s.sim.SpreadMode
	}
	switch {
	case opts.DailySpread != nil:
		cfg.DailySpread = *opts.DailySpread
	case mode == SpreadModeLeadTime:
		cfg.DailySpread = simulation.LeadTimeDailySpread(demand.StdDevOverLeadTime, leadTimeDays)
	case mode == "" || mode == SpreadModeFixed:
	default:
		return cfg, fmt.Errorf("%w: unknown spread mode %q", policy.ErrInvalidParameter, mode)
	}
	return cfg, cfg.Validate()
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
