package factorial

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Regression is a first-order model of a response over coded factor levels:
// y = b0 + b1*x1 + ... + bm*xm with every xi in [-1, +1].
type Regression struct {
	Coefficients []float64
	RSquared     float64
}

// Predict evaluates the model at the given coded levels.
func (r *Regression) Predict(coded []float64) float64 {
	y := r.Coefficients[0]
	for i, x := range coded {
		if i+1 < len(r.Coefficients) {
			y += r.Coefficients[i+1] * x
		}
	}
	return y
}

// Regress fits a first-order regression of y on the placements of an
// n-level design by least squares.
func Regress(placements []Placement, n int, y []float64) (*Regression, error) {
	if len(placements) == 0 || len(placements) != len(y) {
		return nil, fmt.Errorf("%w: %d placements for %d responses", ErrInvalidDesign, len(placements), len(y))
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: regression needs at least two levels", ErrInvalidDesign)
	}

	rows, cols := len(placements), len(placements[0])+1
	if rows < cols {
		return nil, fmt.Errorf("%w: %d runs cannot fit %d coefficients", ErrInvalidDesign, rows, cols)
	}

	x := mat.NewDense(rows, cols, nil)
	for i, p := range placements {
		if len(p) != cols-1 {
			return nil, fmt.Errorf("%w: placement %d has %d positions, want %d", ErrInvalidDesign, i, len(p), cols-1)
		}
		x.Set(i, 0, 1)
		for j, level := range p {
			x.Set(i, j+1, Coded(level, n))
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, mat.NewVecDense(rows, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("solve regression: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	return &Regression{
		Coefficients: mat.Col(nil, 0, &beta),
		RSquared:     stat.RSquaredFrom(mat.Col(nil, 0, &fitted), y, nil),
	}, nil
}
