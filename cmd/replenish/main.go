package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/urfave/cli/v2"
)

type contextKey string

const serviceKey contextKey = "replenishment_service"

func main() {
	cfg := config.Load()
	logger.SetFormat(cfg.Log.Format)
	if cfg.Log.Level != "" {
		logger.SetLevel(cfg.Log.Level)
	} else {
		logger.SetLevel("warn")
	}

	app := &cli.App{
		Name:  "replenish",
		Usage: "Reorder-point policies, cost comparisons and replenishment simulations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "policy",
				Usage:  "Compute safety stock, reorder point and the reactive vs optimized cost comparison",
				Flags:  policyFlags(),
				Before: initService(cfg),
				Action: runPolicy(cfg),
			},
			{
				Name:  "simulate",
				Usage: "Simulate stock levels day by day under the computed policy",
				Flags: append(append(policyFlags(), simulationFlags()...),
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Write the daily trace as CSV to stdout",
					},
				),
				Before: initService(cfg),
				Action: runSimulate(cfg),
			},
			{
				Name:  "sweep",
				Usage: "Run a Monte Carlo sweep over several service levels",
				Flags: append(append(policyFlags(), simulationFlags()...),
					&cli.Float64SliceFlag{
						Name:  "levels",
						Usage: "Service levels to compare, e.g. --levels 0.9,0.95,0.99",
					},
					&cli.IntFlag{
						Name:  "replications",
						Usage: "Simulations per service level",
						Value: 200,
					},
				),
				Before: initService(cfg),
				Action: runSweep(cfg),
			},
			{
				Name:  "baseline",
				Usage: "Inspect and import baseline optimization results",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the baseline for an item from the configured sources",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "item", Usage: "Item id"}},
						Before: initService(cfg),
						Action: runBaselineShow,
					},
					{
						Name:  "import",
						Usage: "Load a results JSON file into Postgres",
						Flags: []cli.Flag{
							newDBURLFlag(),
							&cli.StringFlag{
								Name:     "file",
								Usage:    "Path to an optimization results JSON file",
								Required: true,
							},
						},
						Before: initDB,
						After:  closeDB,
						Action: runBaselineImport,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// initService wires storage, repositories and the service from configuration
// and stores the service on the command context.
func initService(cfg *config.Config) cli.BeforeFunc {
	return func(c *cli.Context) error {
		store, err := storage.New(c.Context, cfg.Sources)
		if err != nil {
			return fmt.Errorf("failed to initialize sources: %w", err)
		}

		resultCache, err := cache.NewReplenishmentCache(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("redis unavailable, continuing without cache")
			resultCache = cache.NewNoopReplenishmentCache()
		}

		svc := service.NewReplenishmentService(
			repository.NewFileBaselineRepository(store, cfg.Sources.BaselineKey),
			repository.NewFileForecastRepository(store, cfg.Sources.ForecastKey),
			resultCache,
			cfg.Policy,
			cfg.Simulation,
		)
		c.Context = context.WithValue(c.Context, serviceKey, svc)
		return nil
	}
}

func serviceFrom(c *cli.Context) (*service.ReplenishmentService, error) {
	svc, ok := c.Context.Value(serviceKey).(*service.ReplenishmentService)
	if !ok || svc == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return svc, nil
}
