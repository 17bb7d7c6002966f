// Package factorial enumerates full-factorial designs and analyzes their
// responses.
package factorial

import (
	"errors"
	"fmt"
)

// MaxPlacements bounds the size of a design.
const MaxPlacements = 1 << 20

var ErrInvalidDesign = errors.New("factorial: invalid design")

// Placement holds one level index per factor.
type Placement []int

func (p Placement) Clone() Placement {
	c := make(Placement, len(p))
	copy(c, p)
	return c
}

// Count returns n^m, the number of placements of an n-level, m-factor design.
func Count(n, m int) (int, error) {
	if n < 1 || m < 1 {
		return 0, fmt.Errorf("%w: levels=%d factors=%d", ErrInvalidDesign, n, m)
	}
	total := 1
	for i := 0; i < m; i++ {
		total *= n
		if total > MaxPlacements {
			return 0, fmt.Errorf("%w: %d^%d placements exceed %d", ErrInvalidDesign, n, m, MaxPlacements)
		}
	}
	return total, nil
}

// Generate returns all n^m placements of m factors with n levels each.
//
// Enumeration works like an odometer: starting from all zeros, the last
// position that is not yet at level n-1 is incremented and every position
// to its right is reset to zero. Run numbers downstream are derived from
// this order, so it must not change.
func Generate(n, m int) ([]Placement, error) {
	total, err := Count(n, m)
	if err != nil {
		return nil, err
	}

	x := make(Placement, m)
	all := make([]Placement, 0, total)
	all = append(all, x.Clone())

	for {
		j := m - 1
		for j >= 0 && x[j] == n-1 {
			j--
		}
		if j < 0 {
			break
		}

		x[j]++
		for k := j + 1; k < m; k++ {
			x[k] = 0
		}
		all = append(all, x.Clone())
	}

	return all, nil
}
