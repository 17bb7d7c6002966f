package models

import (
	"context"
	"math"

	"github.com/san-kum/doesim/internal/dynamo"
	"github.com/san-kum/doesim/internal/integrators"
)

// State layout of the autopilot loop.
const (
	PathAngle = iota
	Pitch
	PitchRate
	Elevator
	Altitude
)

// ChannelNames labels the state layout for display.
var ChannelNames = []string{"path angle", "pitch", "pitch rate", "elevator", "altitude"}

// TargetAltitude is the altitude the glide command steers towards.
const TargetAltitude = 10000.0

// InitialState is the state at t=0 for every run.
func InitialState() dynamo.State {
	return dynamo.State{0.3, 0.3, 0, 0, 500}
}

// Autopilot is a pitch/altitude loop with a rate-limited elevator.
// The elevator deflection is clamped to ±DeltaMax after every step while
// its unclamped value keeps accumulating.
type Autopilot struct {
	params Params
}

func NewAutopilot(p Params) *Autopilot {
	return &Autopilot{params: p}
}

func (a *Autopilot) Params() Params { return a.params }

func (a *Autopilot) StateDim() int { return 5 }

// Omega is the glide command at time t. It is singular when V*t == B and
// the division is left unguarded: the result follows IEEE-754.
func (a *Autopilot) Omega(x dynamo.State, t float64) float64 {
	p := a.params
	return (TargetAltitude - x[Altitude]) / (p.B - p.V*t)
}

func (a *Autopilot) Derive(x dynamo.State, t float64) dynamo.State {
	p := a.params
	omega := a.Omega(x, t)

	return dynamo.State{
		p.K * (x[Pitch] - x[PathAngle]),
		x[PitchRate],
		p.L*x[PathAngle] - p.L*x[Pitch] - p.M*x[PitchRate] + p.N*x[Elevator],
		-p.K1*x[Elevator] - p.I1*x[Pitch] - p.I2*x[PitchRate] + p.S*(omega-x[Pitch]),
		p.V * math.Sin(x[PathAngle]),
	}
}

func (a *Autopilot) Saturate(x dynamo.State) dynamo.State {
	out := x.Clone()
	out[Elevator] = Clamp(x[Elevator], a.params.DeltaMax)
	return out
}

// Clamp caps the magnitude of v at limit and keeps its sign. NaN passes through.
func Clamp(v, limit float64) float64 {
	if math.IsNaN(v) || math.Abs(v) <= limit {
		return v
	}
	return math.Copysign(limit, v)
}

// Integrate runs the autopilot from InitialState to p.T with explicit Euler
// and step h, feeding every recorded point to the given metrics.
func Integrate(ctx context.Context, h float64, p Params, metrics ...dynamo.Metric) (*dynamo.Result, error) {
	return Simulate(ctx, p, dynamo.Config{Dt: h}, metrics...)
}

// Simulate is Integrate with full control over the simulator config. The
// horizon is always taken from p.T.
func Simulate(ctx context.Context, p Params, cfg dynamo.Config, metrics ...dynamo.Metric) (*dynamo.Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cfg.Duration = p.T

	sim := dynamo.New(NewAutopilot(p), integrators.NewEuler())
	for _, m := range metrics {
		sim.AddMetric(m)
	}

	return sim.Run(ctx, InitialState(), cfg)
}
