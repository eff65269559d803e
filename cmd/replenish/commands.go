package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/urfave/cli/v2"
)

func runPolicy(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		svc, err := serviceFrom(c)
		if err != nil {
			return err
		}

		req, err := policyRequest(c, cfg.Policy.FallbackStdDev)
		if err != nil {
			return err
		}

		resp, err := svc.Evaluate(c.Context, req)
		if err != nil {
			return err
		}

		if c.Bool("json") {
			return writeJSON(os.Stdout, resp)
		}
		return writePolicyReport(os.Stdout, resp)
	}
}

func runSimulate(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		svc, err := serviceFrom(c)
		if err != nil {
			return err
		}

		req, err := policyRequest(c, cfg.Policy.FallbackStdDev)
		if err != nil {
			return err
		}

		resp, err := svc.Simulate(c.Context, service.SimulationRequest{
			PolicyRequest:     req,
			SimulationOptions: simulationOptions(c),
		})
		if err != nil {
			return err
		}

		switch {
		case c.Bool("csv"):
			return writeTraceCSV(os.Stdout, resp.Trace)
		case c.Bool("json"):
			return writeJSON(os.Stdout, resp)
		default:
			return writeSimulationReport(os.Stdout, resp)
		}
	}
}

func runSweep(cfg *config.Config) cli.ActionFunc {
	return func(c *cli.Context) error {
		svc, err := serviceFrom(c)
		if err != nil {
			return err
		}

		req, err := policyRequest(c, cfg.Policy.FallbackStdDev)
		if err != nil {
			return err
		}

		resp, err := svc.Sweep(c.Context, service.SweepRequest{
			PolicyRequest:     req,
			SimulationOptions: simulationOptions(c),
			ServiceLevels:     c.Float64Slice("levels"),
			Replications:      c.Int("replications"),
		})
		if err != nil {
			return err
		}

		if c.Bool("json") {
			return writeJSON(os.Stdout, resp)
		}
		return writeSweepReport(os.Stdout, resp)
	}
}

func runBaselineShow(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}

	baseline, err := svc.GetBaseline(c.Context, c.String("item"))
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, baseline)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
