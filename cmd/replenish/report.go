package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/simulation"
	"github.com/shopspring/decimal"
)

// formatMoney renders v rounded to cents with thousands separators.
func formatMoney(v float64) string {
	s := groupThousands(decimal.NewFromFloat(v).StringFixed(2))
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return "-$" + rest
	}
	return "$" + s
}

// formatUnits renders v rounded to whole units with thousands separators.
func formatUnits(v float64) string {
	return groupThousands(decimal.NewFromFloat(v).Round(0).String())
}

func formatSignedUnits(v float64) string {
	s := formatUnits(v)
	if !strings.HasPrefix(s, "-") && s != "0" {
		s = "+" + s
	}
	return s
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

func writePolicyReport(w io.Writer, resp *service.PolicyResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	safetyStock := formatUnits(resp.Policy.SafetyStock) + " units"
	if resp.SafetyStockDelta != nil {
		safetyStock += fmt.Sprintf(" (%s vs baseline)", formatSignedUnits(*resp.SafetyStockDelta))
	}

	fmt.Fprintf(tw, "Unit price\t%s\n", formatMoney(resp.Params.UnitPrice))
	fmt.Fprintf(tw, "Avg weekly demand\t%s units\n", formatUnits(resp.Demand.RatePerWeek))
	fmt.Fprintf(tw, "Service level\t%.1f%% (z = %.3f)\n", resp.Policy.ServiceLevel*100, resp.Policy.ZScore)
	fmt.Fprintf(tw, "Safety stock\t%s\n", safetyStock)
	fmt.Fprintf(tw, "Reorder point\t%s units\n", formatUnits(resp.Policy.ReorderPoint))
	fmt.Fprintf(tw, "\t\n")
	fmt.Fprintf(tw, "Reactive annual cost\t%s (%s units missed)\n", formatMoney(resp.Comparison.ReactiveCost), formatUnits(resp.Comparison.ReactiveMissedUnits))
	fmt.Fprintf(tw, "Optimized annual cost\t%s\n", formatMoney(resp.Comparison.OptimizedCost))
	fmt.Fprintf(tw, "Potential savings\t%s\n", formatMoney(resp.Comparison.Savings))

	return tw.Flush()
}

func writeSimulationReport(w io.Writer, resp *service.SimulationResponse) error {
	if err := writePolicyReport(w, &resp.PolicyResponse); err != nil {
		return err
	}

	s := resp.Trace.Summary
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t\n")
	fmt.Fprintf(tw, "Simulated days\t%d (seed %d)\n", resp.HorizonDays, resp.Seed)
	fmt.Fprintf(tw, "Starting stock\t%s units\n", formatUnits(s.InitialStock))
	fmt.Fprintf(tw, "Lowest stock\t%s units\n", formatUnits(s.MinStock))
	fmt.Fprintf(tw, "Final stock\t%s units\n", formatUnits(s.FinalStock))
	fmt.Fprintf(tw, "Stockout days\t%d\n", s.StockoutDays)
	fmt.Fprintf(tw, "Orders placed / received\t%d / %d\n", s.OrdersPlaced, s.OrdersReceived)
	return tw.Flush()
}

func writeSweepReport(w io.Writer, resp *service.SweepResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "service level\tsafety stock\treorder point\tP(stockout)\tmean min stock\tfinal P05\tfinal P50\tfinal P95\t\n")
	for _, p := range resp.Points {
		fmt.Fprintf(tw, "%.1f%%\t%s\t%s\t%.3f\t%s\t%s\t%s\t%s\t\n",
			p.ServiceLevel*100,
			formatUnits(p.Policy.SafetyStock),
			formatUnits(p.Policy.ReorderPoint),
			p.StockoutProbability,
			formatUnits(p.MeanMinStock),
			formatUnits(p.FinalStockP05),
			formatUnits(p.FinalStockP50),
			formatUnits(p.FinalStockP95),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d replications per level, seed %d\n", replications(resp), resp.Seed)
	return err
}

func replications(resp *service.SweepResponse) int {
	if len(resp.Points) == 0 {
		return 0
	}
	return resp.Points[0].Replications
}

// writeTraceCSV writes one row per day; event columns are empty on quiet days.
func writeTraceCSV(w io.Writer, trace *simulation.Trace) error {
	events := make(map[int][]simulation.Event, len(trace.Events))
	for _, e := range trace.Events {
		events[e.Day] = append(events[e.Day], e)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "stock_level", "safety_stock", "reorder_point", "event", "arrival_day"}); err != nil {
		return err
	}
	for _, p := range trace.Points {
		row := []string{
			strconv.Itoa(p.Day),
			strconv.FormatFloat(p.StockLevel, 'f', 4, 64),
			strconv.FormatFloat(trace.SafetyStock, 'f', 4, 64),
			strconv.FormatFloat(trace.ReorderPoint, 'f', 4, 64),
			"",
			"",
		}
		var kinds, arrivals []string
		for _, e := range events[p.Day] {
			kinds = append(kinds, string(e.Kind))
			arrivals = append(arrivals, strconv.Itoa(e.ArrivalDay))
		}
		row[4] = strings.Join(kinds, ";")
		row[5] = strings.Join(arrivals, ";")
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
