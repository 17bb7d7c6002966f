package metrics

import (
	"math"

	"github.com/san-kum/doesim/internal/dynamo"
)

// Saturation is the fraction of samples where a channel sits at its limit.
type Saturation struct {
	name      string
	channel   int
	limit     float64
	saturated int
	samples   int
}

func NewSaturation(channel int, limit float64) *Saturation {
	return &Saturation{
		name:    "saturation",
		channel: channel,
		limit:   limit,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(x dynamo.State, t float64) {
	if s.channel >= len(x) {
		return
	}
	s.samples++
	if math.Abs(x[s.channel]) >= s.limit {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
