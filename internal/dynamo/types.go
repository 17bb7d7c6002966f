package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// Channel extracts component i of every state in states.
func Channel(states []State, i int) []float64 {
	out := make([]float64, len(states))
	for j, s := range states {
		if i < len(s) {
			out[j] = s[i]
		}
	}
	return out
}

type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Saturator is implemented by systems that hard-limit some of their states.
// Saturate returns a new state; the argument is left untouched.
type Saturator interface {
	Saturate(x State) State
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// SaturatingIntegrator advances the unsaturated shadow state raw using
// derivatives evaluated at the saturated state x.
type SaturatingIntegrator interface {
	Integrator
	StepSaturated(dyn System, raw, x State, t, dt float64) (State, State)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.01,
		Duration: 12.0,
	}
}

type Result struct {
	States  []State
	Times   []float64
	Metrics map[string]float64
}

// Len returns the number of recorded trajectory points.
func (r *Result) Len() int {
	return len(r.Times)
}
