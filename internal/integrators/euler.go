package integrators

import "github.com/san-kum/doesim/internal/dynamo"

// Euler is the explicit (forward) Euler method. Derivatives are evaluated
// at the time the caller passes in, which for the simulator is the time of
// the step being produced.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// StepSaturated advances the unsaturated accumulator raw with derivatives
// taken at the saturated state x, then saturates the new accumulator.
// Channels the system never clamps have raw == x.
func (e *Euler) StepSaturated(dyn dynamo.System, raw, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State) {
	dx := dyn.Derive(x, t)
	next := make(dynamo.State, len(raw))
	for i := range raw {
		next[i] = raw[i] + dt*dx[i]
	}

	sat, ok := dyn.(dynamo.Saturator)
	if !ok {
		return next, next.Clone()
	}
	return next, sat.Saturate(next)
}
