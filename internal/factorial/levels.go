package factorial

import "fmt"

// Factor is a varied parameter and the range its levels span.
type Factor struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Level maps a level index of an n-level design onto f. Level 0 is Min,
// level n-1 is Max and the levels in between are evenly spaced.
func Level(f Factor, level, n int) float64 {
	if n <= 1 || level <= 0 {
		return f.Min
	}
	if level >= n-1 {
		return f.Max
	}
	return f.Min + (f.Max-f.Min)*float64(level)/float64(n-1)
}

// Coded maps a level index onto [-1, +1]. A single-level design codes to 0.
func Coded(level, n int) float64 {
	if n <= 1 {
		return 0
	}
	return -1 + 2*float64(level)/float64(n-1)
}

// Values resolves a placement into concrete factor values.
func Values(p Placement, factors []Factor, n int) ([]float64, error) {
	if len(p) > len(factors) {
		return nil, fmt.Errorf("%w: placement has %d positions but only %d factors", ErrInvalidDesign, len(p), len(factors))
	}

	values := make([]float64, len(p))
	for i, level := range p {
		if level < 0 || level >= n {
			return nil, fmt.Errorf("%w: level %d of factor %s outside [0, %d)", ErrInvalidDesign, level, factors[i].Name, n)
		}
		values[i] = Level(factors[i], level, n)
	}
	return values, nil
}
