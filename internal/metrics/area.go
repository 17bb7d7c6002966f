// Package metrics reduces trajectories to scalar statistics.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/doesim/internal/dynamo"
)

// Area integrates |ys| over |times| with the trapezoidal rule:
// sum of (|y_i|+|y_i+1|)/2 * (|t_i+1|-|t_i|). Fewer than two points give 0.
func Area(times, ys []float64) float64 {
	n := min(len(times), len(ys))
	if n < 2 {
		return 0
	}

	at := make([]float64, n)
	ay := make([]float64, n)
	for i := 0; i < n; i++ {
		at[i] = math.Abs(times[i])
		ay[i] = math.Abs(ys[i])
	}

	if sort.Float64sAreSorted(at) {
		return integrate.Trapezoidal(at, ay)
	}

	s := 0.0
	for i := 0; i < n-1; i++ {
		s += (ay[i] + ay[i+1]) / 2 * (at[i+1] - at[i])
	}
	return s
}

// TrapezoidArea is the streaming form of Area for one state channel.
type TrapezoidArea struct {
	name    string
	channel int
	times   []float64
	values  []float64
}

func NewTrapezoidArea(channel int) *TrapezoidArea {
	return &TrapezoidArea{
		name:    "area",
		channel: channel,
	}
}

func (a *TrapezoidArea) Name() string { return a.name }

func (a *TrapezoidArea) Observe(x dynamo.State, t float64) {
	if a.channel >= len(x) {
		return
	}
	a.times = append(a.times, t)
	a.values = append(a.values, x[a.channel])
}

func (a *TrapezoidArea) Value() float64 {
	return Area(a.times, a.values)
}

func (a *TrapezoidArea) Reset() {
	a.times = a.times[:0]
	a.values = a.values[:0]
}
