package sparse

import "math"

// WeightByDegree transforms an unweighted adjacency matrix into its
// degree-weighted form D_row^-w · A · D_col^-w, where degrees come from
// the unweighted matrix itself:
//
//   - undirected: row degree = column degree = row sums (the matrix is
//     symmetric, so the two coincide)
//   - directed: row degree = out-degree (row sums), column degree =
//     in-degree (column sums)
//
// w is the dampening exponent in [0, 1]; w = 0 reproduces the adjacency
// matrix exactly. Zero-degree nodes map their weighting factor to zero
// rather than dividing by zero, so isolated nodes contribute zero
// weight instead of NaN.
//
// The result shares the input's sparsity pattern and is computed once
// per metaedge; every metapath containing the metaedge reuses the
// identical instance.
func WeightByDegree(a *Matrix, w float64, directed bool) *Matrix {
	rowDeg := a.RowSums()
	var colDeg []float64
	if directed {
		colDeg = a.ColSums()
	} else {
		colDeg = rowDeg
	}
	return a.ScaleRowsCols(degreeFactors(rowDeg, w), degreeFactors(colDeg, w))
}

// degreeFactors maps each degree d to d^-w, with zero degrees mapping
// to a zero factor.
func degreeFactors(degrees []float64, w float64) []float64 {
	factors := make([]float64, len(degrees))
	for i, d := range degrees {
		if d > 0 {
			factors[i] = math.Pow(d, -w)
		}
	}
	return factors
}
