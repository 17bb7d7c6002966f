package dynamo

import (
	"context"
	"fmt"
	"math"
)

// MaxSteps bounds the number of steps a single run may take.
const MaxSteps = 1 << 22

type Simulator struct {
	dyn        System
	integrator Integrator
	metrics    []Metric
}

func New(dyn System, integrator Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]Metric, 0),
	}
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run integrates from x0 at t=0 until the step time reaches cfg.Duration.
// The time of step i is i*cfg.Dt and derivatives for that step are
// evaluated at it using the previous state. The last step may overshoot
// the horizon by less than one Dt. With cfg.ValidateState set, a
// non-finite state or unsaturated accumulator aborts the run.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if dim := s.dyn.StateDim(); len(x0) != dim {
		return nil, fmt.Errorf("%w: got %d components, want %d", ErrDimensionMismatch, len(x0), dim)
	}

	var stepper SaturatingIntegrator
	if _, ok := s.dyn.(Saturator); ok {
		stepper, ok = s.integrator.(SaturatingIntegrator)
		if !ok {
			return nil, ErrUnsupported
		}
	}

	steps := int(math.Ceil(cfg.Duration / cfg.Dt))
	result := &Result{
		States:  make([]State, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	raw := x0.Clone()
	t := 0.0
	s.record(result, x, t)

	for i := 1; t < cfg.Duration; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t = float64(i) * cfg.Dt
		if stepper != nil {
			raw, x = stepper.StepSaturated(s.dyn, raw, x, t, cfg.Dt)
		} else {
			x = s.integrator.Step(s.dyn, x, t, cfg.Dt)
		}

		if cfg.ValidateState && !(x.IsValid() && raw.IsValid()) {
			return result, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}

		s.record(result, x, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(result *Result, x State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrParameterBounds, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrParameterBounds, cfg.Duration)
	}
	if steps := math.Ceil(cfg.Duration / cfg.Dt); !(steps <= MaxSteps) {
		return fmt.Errorf("%w: %g steps exceed the limit of %d", ErrParameterBounds, steps, MaxSteps)
	}
	return nil
}
