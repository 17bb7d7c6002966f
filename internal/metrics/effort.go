package metrics

import (
	"math"

	"github.com/san-kum/doesim/internal/dynamo"
)

// Effort is the mean absolute value of one channel.
type Effort struct {
	name    string
	channel int
	sum     float64
	samples int
}

func NewEffort(channel int) *Effort {
	return &Effort{
		name:    "effort",
		channel: channel,
	}
}

func (e *Effort) Name() string {
	return e.name
}

func (e *Effort) Observe(x dynamo.State, t float64) {
	if e.channel >= len(x) {
		return
	}
	e.sum += math.Abs(x[e.channel])
	e.samples++
}

func (e *Effort) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Effort) Reset() {
	e.sum = 0
	e.samples = 0
}
