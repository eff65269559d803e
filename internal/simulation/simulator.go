// Package simulation steps stock levels day by day under a continuous
// reorder-point / order-quantity policy.
//
// The simulator keeps no state between runs. Each call to Run owns its stock
// level, order pipeline and trace, and draws randomness only from the source
// it is given.
package simulation

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/andresuchdata/replenish/internal/policy"
)

const (
	// DefaultBuffer is how far above the reorder point a run starts.
	DefaultBuffer = 50.0

	// DefaultDailySpread is the standard deviation of daily demand in units.
	DefaultDailySpread = 2.0
)

// RandomSource supplies standard normal draws. *rand.Rand satisfies it.
type RandomSource interface {
	NormFloat64() float64
}

// NewSource returns a seeded source for reproducible runs.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Config holds the parameters that shape a run but are not part of the
// reorder policy itself.
//
// DailySpread is a day-level volatility figure. It is deliberately separate
// from DemandStatistics.StdDevOverLeadTime, which is aggregated over the whole
// lead time; see LeadTimeDailySpread for an approximate conversion.
type Config struct {
	Buffer      float64 `json:"buffer"`
	DailySpread float64 `json:"daily_spread"`
}

func DefaultConfig() Config {
	return Config{
		Buffer:      DefaultBuffer,
		DailySpread: DefaultDailySpread,
	}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Buffer) || math.IsInf(c.Buffer, 0) {
		return fmt.Errorf("%w: buffer must be finite, got %v", policy.ErrInvalidParameter, c.Buffer)
	}
	if math.IsNaN(c.DailySpread) || math.IsInf(c.DailySpread, 0) || c.DailySpread < 0 {
		return fmt.Errorf("%w: daily spread must be >= 0, got %v", policy.ErrInvalidParameter, c.DailySpread)
	}
	return nil
}

// LeadTimeDailySpread approximates a daily standard deviation from a
// lead-time aggregated one, assuming independent days: σ_day = σ_L / √L.
func LeadTimeDailySpread(stdDevOverLeadTime float64, leadTimeDays int) float64 {
	if leadTimeDays <= 0 || stdDevOverLeadTime <= 0 {
		return 0
	}
	return stdDevOverLeadTime / math.Sqrt(float64(leadTimeDays))
}

type EventKind string

const (
	EventOrderPlaced  EventKind = "order_placed"
	EventOrderArrived EventKind = "order_arrived"
)

// Point is the stock level recorded at the end of a day.
type Point struct {
	Day        int     `json:"day"`
	StockLevel float64 `json:"stock_level"`
}

// Event marks a reorder trigger or a replenishment arrival.
type Event struct {
	Day        int       `json:"day"`
	Kind       EventKind `json:"kind"`
	ArrivalDay int       `json:"arrival_day"`
	Quantity   float64   `json:"quantity"`
}

type Summary struct {
	InitialStock   float64 `json:"initial_stock"`
	MinStock       float64 `json:"min_stock"`
	FinalStock     float64 `json:"final_stock"`
	StockoutDays   int     `json:"stockout_days"`
	OrdersPlaced   int     `json:"orders_placed"`
	OrdersReceived int     `json:"orders_received"`
	MaxPending     int     `json:"max_pending"`
}

// Trace is the full record of one run. len(Points) equals the horizon.
type Trace struct {
	Points       []Point `json:"points"`
	Events       []Event `json:"events"`
	SafetyStock  float64 `json:"safety_stock"`
	ReorderPoint float64 `json:"reorder_point"`
	Summary      Summary `json:"summary"`
}

// Simulator runs replenishment simulations. The zero value is not usable;
// construct with New.
type Simulator struct {
	cfg Config
}

func New(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

func (s *Simulator) Config() Config {
	return s.cfg
}

// run is the mutable state of a single simulation.
type run struct {
	horizon       int
	leadTime      int
	orderQuantity float64
	reorderPoint  float64
	meanDaily     float64
	spread        float64
	rng           RandomSource

	stock    float64
	pipeline OrderPipeline
	trace    *Trace
}

// Run simulates horizonDays days and returns the trace. All inputs are
// validated before the first day is stepped.
//
// At most one order is ever outstanding: a new order is only placed when the
// pipeline is empty. Real systems can have several orders in flight, and the
// cost comparison in package policy assumes this simplification.
func (s *Simulator) Run(horizonDays int, result policy.PolicyResult, orderQuantity float64, leadTimeDays int, demand policy.DemandStatistics, rng RandomSource) (*Trace, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon_days must be > 0, got %d", policy.ErrInvalidParameter, horizonDays)
	}
	if math.IsNaN(orderQuantity) || math.IsInf(orderQuantity, 0) || orderQuantity <= 0 {
		return nil, fmt.Errorf("%w: order_quantity must be > 0, got %v", policy.ErrInvalidParameter, orderQuantity)
	}
	if leadTimeDays <= 0 {
		return nil, fmt.Errorf("%w: lead_time_days must be > 0, got %d", policy.ErrInvalidParameter, leadTimeDays)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", policy.ErrInvalidParameter)
	}
	if err := demand.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(result.ReorderPoint) || math.IsInf(result.ReorderPoint, 0) {
		return nil, fmt.Errorf("%w: reorder point must be finite, got %v", policy.ErrInvalidParameter, result.ReorderPoint)
	}

	r := &run{
		horizon:       horizonDays,
		leadTime:      leadTimeDays,
		orderQuantity: orderQuantity,
		reorderPoint:  result.ReorderPoint,
		meanDaily:     demand.DailyRate(),
		spread:        s.cfg.DailySpread,
		rng:           rng,
		stock:         result.ReorderPoint + s.cfg.Buffer,
		trace: &Trace{
			Points:       make([]Point, 0, horizonDays),
			SafetyStock:  result.SafetyStock,
			ReorderPoint: result.ReorderPoint,
		},
	}
	r.trace.Summary.InitialStock = r.stock
	r.trace.Summary.MinStock = r.stock

	for day := 0; day < horizonDays; day++ {
		r.step(day)
	}

	r.trace.Summary.FinalStock = r.stock
	return r.trace, nil
}

// step advances one day. The order is fixed: receipts land at the start of
// the day, before that day's demand is taken.
func (r *run) step(day int) {
	// 1. Arrival check. Only the earliest entry can be due.
	if arrival, ok := r.pipeline.Peek(); ok && arrival == day {
		r.pipeline.Pop()
		r.stock += r.orderQuantity
		r.trace.Summary.OrdersReceived++
		r.trace.Events = append(r.trace.Events, Event{
			Day:        day,
			Kind:       EventOrderArrived,
			ArrivalDay: day,
			Quantity:   r.orderQuantity,
		})
	}

	// 2. Demand draw, floored at zero.
	r.stock -= math.Max(0, r.meanDaily+r.spread*r.rng.NormFloat64())

	// 3. Reorder check. Orders that could not arrive inside the horizon are
	// dropped, not deferred.
	if r.stock <= r.reorderPoint && r.pipeline.Empty() {
		arrival := day + r.leadTime
		if arrival < r.horizon {
			r.pipeline.Push(arrival)
			r.trace.Summary.OrdersPlaced++
			r.trace.Events = append(r.trace.Events, Event{
				Day:        day,
				Kind:       EventOrderPlaced,
				ArrivalDay: arrival,
				Quantity:   r.orderQuantity,
			})
		}
	}

	// 4. Record.
	r.trace.Points = append(r.trace.Points, Point{Day: day, StockLevel: r.stock})

	if n := r.pipeline.Len(); n > r.trace.Summary.MaxPending {
		r.trace.Summary.MaxPending = n
	}
	if r.stock < r.trace.Summary.MinStock {
		r.trace.Summary.MinStock = r.stock
	}
	if r.stock <= 0 {
		r.trace.Summary.StockoutDays++
	}
}
