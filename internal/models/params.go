package models

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/doesim/internal/dynamo"
)

// Params parameterizes one autopilot run. It is a value type: the With
// helpers return modified copies and never touch the receiver.
type Params struct {
	K        float64 `yaml:"k" json:"k"`
	L        float64 `yaml:"l" json:"l"`
	M        float64 `yaml:"m" json:"m"`
	N        float64 `yaml:"n" json:"n"`
	K1       float64 `yaml:"k1" json:"k1"`
	B        float64 `yaml:"b" json:"b"`
	I1       float64 `yaml:"i1" json:"i1"`
	I2       float64 `yaml:"i2" json:"i2"`
	S        float64 `yaml:"s" json:"s"`
	V        float64 `yaml:"v" json:"v"`
	T        float64 `yaml:"t" json:"t"`
	DeltaMax float64 `yaml:"delta_max" json:"delta_max"`
}

// DefaultParams is the baseline every design point starts from.
func DefaultParams() Params {
	return Params{
		K:        1,
		L:        8,
		M:        2,
		N:        7,
		K1:       90,
		B:        25000,
		I1:       10,
		I2:       2,
		S:        200,
		V:        800,
		T:        12,
		DeltaMax: 0.5,
	}
}

// With returns a copy of p with the named parameter set to v.
func (p Params) With(name string, v float64) (Params, error) {
	ptr := p.ref(name)
	if ptr == nil {
		return p, fmt.Errorf("unknown parameter: %s", name)
	}
	*ptr = v
	return p, nil
}

// WithFactors returns a copy of p with the four design factors replaced.
func (p Params) WithFactors(k, l, m, n float64) Params {
	p.K, p.L, p.M, p.N = k, l, m, n
	return p
}

// Get returns the named parameter.
func (p Params) Get(name string) (float64, bool) {
	ptr := p.ref(name)
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

// ref points into the receiver, which is always a copy.
func (p *Params) ref(name string) *float64 {
	switch name {
	case "k":
		return &p.K
	case "l":
		return &p.L
	case "m":
		return &p.M
	case "n":
		return &p.N
	case "k1":
		return &p.K1
	case "b":
		return &p.B
	case "i1":
		return &p.I1
	case "i2":
		return &p.I2
	case "s":
		return &p.S
	case "v":
		return &p.V
	case "t":
		return &p.T
	case "delta_max":
		return &p.DeltaMax
	}
	return nil
}

// Map returns every parameter keyed by its configuration name.
func (p Params) Map() map[string]float64 {
	return map[string]float64{
		"k": p.K, "l": p.L, "m": p.M, "n": p.N,
		"k1": p.K1, "b": p.B, "i1": p.I1, "i2": p.I2,
		"s": p.S, "v": p.V, "t": p.T, "delta_max": p.DeltaMax,
	}
}

// Names lists the parameter names in sorted order.
func Names() []string {
	names := make([]string, 0, 12)
	for name := range DefaultParams().Map() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects parameter sets the integrator cannot run.
func (p Params) Validate() error {
	if !(p.T > 0) || math.IsInf(p.T, 1) {
		return fmt.Errorf("%w: horizon t must be positive and finite, got %v", dynamo.ErrParameterBounds, p.T)
	}
	if !(p.DeltaMax >= 0) {
		return fmt.Errorf("%w: delta_max must not be negative, got %v", dynamo.ErrParameterBounds, p.DeltaMax)
	}
	return nil
}
