// Package sparse implements the compressed sparse row (CSR) matrices
// that back adjacency and degree-weighted matrices for metapath feature
// extraction.
//
// Matrices are immutable once built except for ZeroDiagonal, which is
// reserved for the privately owned running product of a chain
// multiplication. All read methods are safe for concurrent use, so
// built matrices can be shared by reference across workers without
// synchronization.
//
// Dense interop goes through gonum: Slice extracts a restricted block
// as a *mat.Dense and ToDense converts whole matrices for tests and
// small-graph callers.
//
// Example:
//
//	a := sparse.FromCOO(4, 4, []sparse.Coord{
//		{Row: 0, Col: 1, Val: 1},
//		{Row: 1, Col: 0, Val: 1},
//	})
//	p := a.Mul(a)       // walks of length 2
//	p.ZeroDiagonal()    // suppress returns to the origin
package sparse

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Coord is one nonzero entry for COO-style construction.
type Coord struct {
	Row, Col int
	Val      float64
}

// Matrix is a CSR sparse matrix.
type Matrix struct {
	rows, cols int
	rowPtr     []int // len rows+1; row i spans colInd[rowPtr[i]:rowPtr[i+1]]
	colInd     []int // column indices, ascending within each row
	vals       []float64
}

// FromCOO builds a CSR matrix from coordinate entries. Entries may be
// unsorted; duplicate (row, col) coordinates collapse to the last value
// given (set semantics, matching adjacency construction where both
// orientations of an undirected edge write 1).
func FromCOO(rows, cols int, entries []Coord) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("sparse: negative dimensions %d x %d", rows, cols))
	}
	sorted := make([]Coord, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	m := &Matrix{
		rows:   rows,
		cols:   cols,
		rowPtr: make([]int, rows+1),
	}
	for i, e := range sorted {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			panic(fmt.Sprintf("sparse: entry (%d, %d) outside %d x %d", e.Row, e.Col, rows, cols))
		}
		if i+1 < len(sorted) && sorted[i+1].Row == e.Row && sorted[i+1].Col == e.Col {
			continue // duplicate; last value wins
		}
		m.colInd = append(m.colInd, e.Col)
		m.vals = append(m.vals, e.Val)
		m.rowPtr[e.Row+1]++
	}
	for i := 0; i < rows; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
	return m
}

// FromRaw wraps pre-built CSR arrays without copying. Used by the
// matrix store when decoding cached matrices; the arrays must follow
// CSR invariants and must not be mutated afterwards.
func FromRaw(rows, cols int, rowPtr, colInd []int, vals []float64) *Matrix {
	return &Matrix{rows: rows, cols: cols, rowPtr: rowPtr, colInd: colInd, vals: vals}
}

// Raw exposes the underlying CSR arrays for serialization. The slices
// are shared; callers must treat them as read-only.
func (m *Matrix) Raw() (rows, cols int, rowPtr, colInd []int, vals []float64) {
	return m.rows, m.cols, m.rowPtr, m.colInd, m.vals
}

// Dims returns the matrix dimensions.
func (m *Matrix) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.vals)
}

// At returns the value at (i, j), zero when the entry is not stored.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("sparse: index (%d, %d) outside %d x %d", i, j, m.rows, m.cols))
	}
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	k := lo + sort.SearchInts(m.colInd[lo:hi], j)
	if k < hi && m.colInd[k] == j {
		return m.vals[k]
	}
	return 0
}

// Transpose returns a new matrix that is the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	t := &Matrix{
		rows:   m.cols,
		cols:   m.rows,
		rowPtr: make([]int, m.cols+1),
		colInd: make([]int, len(m.colInd)),
		vals:   make([]float64, len(m.vals)),
	}
	// Counting pass: entries per column of m become rows of t.
	for _, j := range m.colInd {
		t.rowPtr[j+1]++
	}
	for j := 0; j < t.rows; j++ {
		t.rowPtr[j+1] += t.rowPtr[j]
	}
	next := make([]int, t.rows)
	copy(next, t.rowPtr[:t.rows])
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.colInd[k]
			p := next[j]
			next[j]++
			t.colInd[p] = i
			t.vals[p] = m.vals[k]
		}
	}
	return t
}

// RowSums returns the sum of each row's stored values. For a boolean
// adjacency matrix this is the out-degree vector.
func (m *Matrix) RowSums() []float64 {
	sums := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sums[i] += m.vals[k]
		}
	}
	return sums
}

// ColSums returns the sum of each column's stored values (in-degrees
// for a boolean adjacency matrix).
func (m *Matrix) ColSums() []float64 {
	sums := make([]float64, m.cols)
	for k, j := range m.colInd {
		sums[j] += m.vals[k]
	}
	return sums
}

// ScaleRowsCols returns a new matrix with the same sparsity pattern and
// each value multiplied by rowFactor[i] * colFactor[j].
func (m *Matrix) ScaleRowsCols(rowFactor, colFactor []float64) *Matrix {
	if len(rowFactor) != m.rows || len(colFactor) != m.cols {
		panic(fmt.Sprintf("sparse: scale factors %d/%d do not match %d x %d",
			len(rowFactor), len(colFactor), m.rows, m.cols))
	}
	out := &Matrix{
		rows:   m.rows,
		cols:   m.cols,
		rowPtr: m.rowPtr, // pattern shared: immutable after construction
		colInd: m.colInd,
		vals:   make([]float64, len(m.vals)),
	}
	for i := 0; i < m.rows; i++ {
		rf := rowFactor[i]
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			out.vals[k] = m.vals[k] * rf * colFactor[m.colInd[k]]
		}
	}
	return out
}

// ZeroDiagonal sets every stored diagonal entry to zero in place,
// keeping the sparsity pattern. Only the privately owned running
// product of a chain multiplication may be mutated this way; shared
// adjacency or weighted matrices must never be.
func (m *Matrix) ZeroDiagonal() {
	for i := 0; i < m.rows; i++ {
		lo, hi := m.rowPtr[i], m.rowPtr[i+1]
		k := lo + sort.SearchInts(m.colInd[lo:hi], i)
		if k < hi && m.colInd[k] == i {
			m.vals[k] = 0
		}
	}
}

// Clone returns a deep copy. Chain multiplication clones its first
// factor so ZeroDiagonal never touches a shared matrix.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols}
	c.rowPtr = append([]int(nil), m.rowPtr...)
	c.colInd = append([]int(nil), m.colInd...)
	c.vals = append([]float64(nil), m.vals...)
	return c
}

// mulWorkspace is the per-row dense accumulator for Mul, pooled to
// avoid reallocating N-length scratch per multiplication.
type mulWorkspace struct {
	sums   []float64
	marked []bool
	cols   []int
}

var workspacePool = sync.Pool{
	New: func() any { return &mulWorkspace{} },
}

func getWorkspace(n int) *mulWorkspace {
	ws := workspacePool.Get().(*mulWorkspace)
	if cap(ws.sums) < n {
		ws.sums = make([]float64, n)
		ws.marked = make([]bool, n)
	}
	ws.sums = ws.sums[:n]
	ws.marked = ws.marked[:n]
	ws.cols = ws.cols[:0]
	return ws
}

func putWorkspace(ws *mulWorkspace) {
	workspacePool.Put(ws)
}

// Mul returns the matrix product m · b as a new CSR matrix, using a
// row-at-a-time dense accumulator (Gustavson's algorithm). Panics when
// the inner dimensions disagree, matching gonum/mat conventions.
func (m *Matrix) Mul(b *Matrix) *Matrix {
	if m.cols != b.rows {
		panic(fmt.Sprintf("sparse: dimension mismatch %d x %d · %d x %d",
			m.rows, m.cols, b.rows, b.cols))
	}

	out := &Matrix{
		rows:   m.rows,
		cols:   b.cols,
		rowPtr: make([]int, m.rows+1),
	}

	ws := getWorkspace(b.cols)
	defer putWorkspace(ws)

	for i := 0; i < m.rows; i++ {
		ws.cols = ws.cols[:0]
		for ka := m.rowPtr[i]; ka < m.rowPtr[i+1]; ka++ {
			j := m.colInd[ka]
			av := m.vals[ka]
			for kb := b.rowPtr[j]; kb < b.rowPtr[j+1]; kb++ {
				c := b.colInd[kb]
				if !ws.marked[c] {
					ws.marked[c] = true
					ws.sums[c] = 0
					ws.cols = append(ws.cols, c)
				}
				ws.sums[c] += av * b.vals[kb]
			}
		}
		sort.Ints(ws.cols)
		for _, c := range ws.cols {
			out.colInd = append(out.colInd, c)
			out.vals = append(out.vals, ws.sums[c])
			ws.marked[c] = false
		}
		out.rowPtr[i+1] = len(out.colInd)
	}
	return out
}

// Slice extracts the block at the given row and column indices as a
// dense gonum matrix, for result assembly over a start × end node
// selection. Indices may repeat and need not be sorted.
func (m *Matrix) Slice(rowIdx, colIdx []int) *mat.Dense {
	d := mat.NewDense(len(rowIdx), len(colIdx), nil)
	// Gather columns per row once; faster than At per cell when the
	// column selection is much smaller than the full row.
	colPos := make(map[int][]int, len(colIdx))
	for p, j := range colIdx {
		if j < 0 || j >= m.cols {
			panic(fmt.Sprintf("sparse: column index %d outside %d columns", j, m.cols))
		}
		colPos[j] = append(colPos[j], p)
	}
	for r, i := range rowIdx {
		if i < 0 || i >= m.rows {
			panic(fmt.Sprintf("sparse: row index %d outside %d rows", i, m.rows))
		}
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			for _, p := range colPos[m.colInd[k]] {
				d.Set(r, p, m.vals[k])
			}
		}
	}
	return d
}

// ToDense converts the matrix to a dense gonum matrix.
func (m *Matrix) ToDense() *mat.Dense {
	d := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			d.Set(i, m.colInd[k], m.vals[k])
		}
	}
	return d
}

// EqualApprox reports whether m and b have the same dimensions and all
// entries within tol of each other, comparing dense views so differing
// sparsity patterns with equal values still match.
func (m *Matrix) EqualApprox(b *Matrix, tol float64) bool {
	if m.rows != b.rows || m.cols != b.cols {
		return false
	}
	return mat.EqualApprox(m.ToDense(), b.ToDense(), tol)
}
