// internal/domain/models.go
package domain

import (
	"math"
	"time"
)

// DefaultItemID is the item a single, unkeyed baseline record is stored under.
const DefaultItemID = "default"

// Baseline represents the optimization results previously computed for an item
type Baseline struct {
	ItemID          string    `json:"item_id" db:"item_id"`
	AvgWeeklyDemand float64   `json:"avg_weekly_demand" db:"avg_weekly_demand"`
	UnitPrice       float64   `json:"unit_price" db:"unit_price"`
	SafetyStock     float64   `json:"safety_stock" db:"safety_stock"`
	ServiceLevel    float64   `json:"service_level,omitempty" db:"service_level"`
	ReorderPoint    *float64  `json:"reorder_point,omitempty" db:"reorder_point"`
	UpdatedAt       time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// ServiceLevelOr returns the recorded service level, or fallback when the
// record does not carry a usable one.
func (b Baseline) ServiceLevelOr(fallback float64) float64 {
	if b.ServiceLevel > 0 && b.ServiceLevel < 1 {
		return b.ServiceLevel
	}
	return fallback
}

// ForecastPoint represents one weekly point of a demand forecast
type ForecastPoint struct {
	Date      time.Time `json:"ds"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// Forecast is a forecast series together with the weekly rate derived from it
type Forecast struct {
	Ref             string          `json:"ref"`
	Points          []ForecastPoint `json:"points"`
	AvgWeeklyDemand float64         `json:"avg_weekly_demand"`
}

// AverageWeeklyRate averages the point estimates of a weekly forecast.
// Negative estimates count as zero demand. Reports false for an empty series.
func AverageWeeklyRate(points []ForecastPoint) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	total := 0.0
	for _, p := range points {
		total += math.Max(0, p.Yhat)
	}
	return total / float64(len(points)), true
}
