package simulation

// OrderPipeline is a FIFO of pending arrival days. It does not cap its own
// length: the single-outstanding-order rule is enforced by the step function.
type OrderPipeline struct {
	arrivals []int
}

// Push appends an arrival day.
func (p *OrderPipeline) Push(day int) {
	p.arrivals = append(p.arrivals, day)
}

// Peek returns the earliest pending arrival day.
func (p *OrderPipeline) Peek() (int, bool) {
	if len(p.arrivals) == 0 {
		return 0, false
	}
	return p.arrivals[0], true
}

// Pop removes the earliest pending arrival.
func (p *OrderPipeline) Pop() (int, bool) {
	day, ok := p.Peek()
	if !ok {
		return 0, false
	}
	p.arrivals = p.arrivals[1:]
	return day, true
}

func (p *OrderPipeline) Len() int {
	return len(p.arrivals)
}

func (p *OrderPipeline) Empty() bool {
	return len(p.arrivals) == 0
}
