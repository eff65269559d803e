package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/andresuchdata/replenish/internal/policy"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/simulation"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{25, "$25.00"},
		{136500, "$136,500.00"},
		{1234567.891, "$1,234,567.89"},
		{-1500.5, "-$1,500.50"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatMoney(tt.in); got != tt.want {
				t.Fatalf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{8.22, "8"},
		{1508.22, "1,508"},
		{999.5, "1,000"},
		{-12.4, "-12"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatUnits(tt.in); got != tt.want {
				t.Fatalf("formatUnits(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if got := formatSignedUnits(8.2); got != "+8" {
		t.Fatalf("formatSignedUnits(8.2) = %q, want +8", got)
	}
}

func TestWritePolicyReport(t *testing.T) {
	delta := 8.22
	resp := &service.PolicyResponse{
		Evaluation: policy.Evaluation{
			Demand:     policy.DemandStatistics{RatePerWeek: 700, StdDevOverLeadTime: 5},
			Params:     policy.PolicyParameters{UnitPrice: 25},
			Policy:     policy.PolicyResult{ServiceLevel: 0.95, ZScore: 1.645, SafetyStock: 8.22, ReorderPoint: 1508.22},
			Comparison: policy.ScenarioComparison{ReactiveCost: 136500, ReactiveMissedUnits: 1820, OptimizedCost: 41.1, Savings: 136458.9},
		},
		SafetyStockDelta: &delta,
	}

	var buf bytes.Buffer
	if err := writePolicyReport(&buf, resp); err != nil {
		t.Fatalf("writePolicyReport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"$25.00", "1,508 units", "+8 vs baseline", "$136,500.00", "$136,458.90"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTraceCSV(t *testing.T) {
	trace := &simulation.Trace{
		Points: []simulation.Point{
			{Day: 0, StockLevel: 90},
			{Day: 1, StockLevel: 50},
		},
		Events: []simulation.Event{
			{Day: 1, Kind: simulation.EventOrderPlaced, ArrivalDay: 6, Quantity: 150},
		},
		SafetyStock:  0,
		ReorderPoint: 50,
	}

	var buf bytes.Buffer
	if err := writeTraceCSV(&buf, trace); err != nil {
		t.Fatalf("writeTraceCSV() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2][4] != "order_placed" || rows[2][5] != "6" {
		t.Fatalf("row 2 = %v", rows[2])
	}
	if rows[1][4] != "" {
		t.Fatalf("row 1 should have no event, got %v", rows[1])
	}
}
