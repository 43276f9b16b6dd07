package interpolation

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fvmesh/types"
)

// Pivots smaller than this in magnitude make the system singular
const pivotTolerance = 1.e-10

/*
SolveGauss solves a x = b by Gaussian elimination with partial pivoting. a and b are overwritten. The row with the
largest remaining magnitude in each column is swapped into the pivot position; a pivot below pivotTolerance fails
with a singular system error.
*/
func SolveGauss(a *mat.Dense, b, x []float64) error {
	var (
		n, nc = a.Dims()
	)
	if n != nc || len(b) != n || len(x) != n {
		return types.NewSingularSystemError("system shape %dx%d with %d right hand sides", n, nc, len(b))
	}
	for col := 0; col < n; col++ {
		pivot, pmax := col, math.Abs(a.At(col, col))
		for r := col + 1; r < n; r++ {
			if v := math.Abs(a.At(r, col)); v > pmax {
				pivot, pmax = r, v
			}
		}
		if pmax < pivotTolerance || math.IsNaN(pmax) {
			return types.NewSingularSystemError("pivot %.3g in column %d", pmax, col)
		}
		if pivot != col {
			for j := col; j < n; j++ {
				vp, vc := a.At(pivot, j), a.At(col, j)
				a.Set(pivot, j, vc)
				a.Set(col, j, vp)
			}
			b[pivot], b[col] = b[col], b[pivot]
		}
		diag := a.At(col, col)
		for r := col + 1; r < n; r++ {
			factor := a.At(r, col) / diag
			if factor == 0 {
				continue
			}
			for j := col; j < n; j++ {
				a.Set(r, j, a.At(r, j)-factor*a.At(col, j))
			}
			b[r] -= factor * b[col]
		}
	}
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a.At(i, j) * x[j]
		}
		x[i] = sum / a.At(i, i)
	}
	return nil
}
