package models

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/san-kum/doesim/internal/dynamo"
)

func TestAutopilotDimensions(t *testing.T) {
	a := NewAutopilot(DefaultParams())

	if a.StateDim() != 5 {
		t.Errorf("expected state dim 5, got %d", a.StateDim())
	}
	if len(InitialState()) != a.StateDim() {
		t.Errorf("initial state has %d components", len(InitialState()))
	}
	if len(ChannelNames) != a.StateDim() {
		t.Errorf("expected %d channel names, got %d", a.StateDim(), len(ChannelNames))
	}
}

func TestAutopilotDerive(t *testing.T) {
	p := DefaultParams()
	a := NewAutopilot(p)
	x := dynamo.State{0.1, 0.2, 0.3, 0.4, 600}
	tm := 0.5

	dx := a.Derive(x, tm)

	omega := (10000 - 600.0) / (p.B - p.V*tm)
	want := dynamo.State{
		p.K * (0.2 - 0.1),
		0.3,
		p.L*0.1 - p.L*0.2 - p.M*0.3 + p.N*0.4,
		-p.K1*0.4 - p.I1*0.2 - p.I2*0.3 + p.S*(omega-0.2),
		p.V * math.Sin(0.1),
	}

	for i := range want {
		if math.Abs(dx[i]-want[i]) > 1e-12 {
			t.Errorf("dx[%d] = %v, want %v", i, dx[i], want[i])
		}
	}
}

func TestAutopilotOmegaSingular(t *testing.T) {
	p := DefaultParams()
	a := NewAutopilot(p)

	omega := a.Omega(InitialState(), p.B/p.V)
	if !math.IsInf(omega, 1) {
		t.Errorf("expected +Inf at V*t == b, got %v", omega)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		v     float64
		limit float64
		want  float64
	}{
		{"inside", 0.3, 0.5, 0.3},
		{"at limit", 0.5, 0.5, 0.5},
		{"above", 0.7, 0.5, 0.5},
		{"below", -0.9, 0.5, -0.5},
		{"+Inf", math.Inf(1), 0.5, 0.5},
		{"-Inf", math.Inf(-1), 0.5, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.limit); got != tt.want {
				t.Errorf("Clamp(%v, %v) = %v, want %v", tt.v, tt.limit, got, tt.want)
			}
		})
	}

	if !math.IsNaN(Clamp(math.NaN(), 0.5)) {
		t.Error("Clamp should pass NaN through")
	}
}

func TestAutopilotSaturate(t *testing.T) {
	a := NewAutopilot(DefaultParams())
	x := dynamo.State{1, 2, 3, 0.7, 4}

	got := a.Saturate(x)
	if got[Elevator] != 0.5 {
		t.Errorf("expected elevator clamped to 0.5, got %v", got[Elevator])
	}
	for _, i := range []int{PathAngle, Pitch, PitchRate, Altitude} {
		if got[i] != x[i] {
			t.Errorf("channel %d changed: %v -> %v", i, x[i], got[i])
		}
	}
	if x[Elevator] != 0.7 {
		t.Error("Saturate modified its argument")
	}
}

func TestIntegrateInitialCondition(t *testing.T) {
	result, err := Integrate(context.Background(), 0.01, DefaultParams())
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	if result.Times[0] != 0 {
		t.Errorf("expected t=0 first, got %v", result.Times[0])
	}
	if !reflect.DeepEqual(result.States[0], InitialState()) {
		t.Errorf("expected initial state %v, got %v", InitialState(), result.States[0])
	}
}

func TestIntegrateStepCount(t *testing.T) {
	tests := []struct {
		h    float64
		T    float64
		want int
	}{
		{0.01, 12, 1201},
		{0.01, 1, 101},
		{0.1, 1, 11},
		{0.3, 1, 5},
	}

	for _, tt := range tests {
		p := DefaultParams()
		p.T = tt.T
		result, err := Integrate(context.Background(), tt.h, p)
		if err != nil {
			t.Fatalf("integrate failed: %v", err)
		}
		if result.Len() != tt.want || len(result.States) != tt.want {
			t.Errorf("h=%v T=%v: expected %d points, got %d", tt.h, tt.T, tt.want, result.Len())
		}
	}
}

func TestIntegrateFirstStep(t *testing.T) {
	p := DefaultParams()
	h := 0.01

	result, err := Integrate(context.Background(), h, p)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	x0 := InitialState()
	dx := NewAutopilot(p).Derive(x0, h)
	want := x0.Add(dx.Scale(h))
	want[Elevator] = Clamp(want[Elevator], p.DeltaMax)

	for i := range want {
		if math.Abs(result.States[1][i]-want[i]) > 1e-12 {
			t.Errorf("x1[%d] = %v, want %v", i, result.States[1][i], want[i])
		}
	}
	if result.Times[1] != h {
		t.Errorf("expected t1 = %v, got %v", h, result.Times[1])
	}
}

func TestIntegrateElevatorBound(t *testing.T) {
	p := DefaultParams()
	p.DeltaMax = 0.05

	result, err := Integrate(context.Background(), 0.01, p)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	saturated := 0
	for i, x := range result.States {
		if math.Abs(x[Elevator]) > p.DeltaMax {
			t.Fatalf("step %d: |elevator| = %v exceeds %v", i, math.Abs(x[Elevator]), p.DeltaMax)
		}
		if math.Abs(x[Elevator]) == p.DeltaMax {
			saturated++
		}
	}
	if saturated == 0 {
		t.Error("expected the tight limit to be reached at least once")
	}
}

func TestIntegrateDeterministic(t *testing.T) {
	a, err := Integrate(context.Background(), 0.01, DefaultParams())
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	b, err := Integrate(context.Background(), 0.01, DefaultParams())
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	if !reflect.DeepEqual(a.Times, b.Times) || !reflect.DeepEqual(a.States, b.States) {
		t.Error("identical inputs produced different trajectories")
	}
}

func TestIntegrateBaselineFinite(t *testing.T) {
	result, err := Integrate(context.Background(), 0.01, DefaultParams())
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}
	for i, x := range result.States {
		if !x.IsValid() {
			t.Fatalf("state %d is not finite: %v", i, x)
		}
	}
}

func TestIntegrateRejectsStep(t *testing.T) {
	for _, h := range []float64{0, -0.01, 1e-12, math.NaN()} {
		if _, err := Integrate(context.Background(), h, DefaultParams()); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("h=%v: expected ErrParameterBounds, got %v", h, err)
		}
	}

	p := DefaultParams()
	p.T = 0
	if _, err := Integrate(context.Background(), 0.01, p); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("T=0: expected ErrParameterBounds, got %v", err)
	}

	p.T = math.Inf(1)
	if _, err := Integrate(context.Background(), 0.01, p); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("T=+Inf: expected ErrParameterBounds, got %v", err)
	}
}

func TestSimulateSingularity(t *testing.T) {
	p := DefaultParams()
	p.B = 400
	p.T = 1

	// The clamp hides the singular step from the recorded state.
	result, err := Simulate(context.Background(), p, dynamo.Config{Dt: 0.01})
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if result.Len() != 101 {
		t.Errorf("expected 101 points, got %d", result.Len())
	}

	_, err = Simulate(context.Background(), p, dynamo.Config{Dt: 0.01, ValidateState: true})
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if simErr.Step != 50 {
		t.Errorf("expected failure at step 50 (t=0.5), got %d", simErr.Step)
	}
}
