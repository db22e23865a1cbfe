package sparse

import (
	"fmt"
	"math"
)

// Vector is an immutable sparse vector of a fixed dimension.
// Only non-zero entries are stored, as parallel index/value slices
// sorted by ascending index.
type Vector struct {
	// Dim is the logical dimension of the vector.
	Dim int

	// Indices holds the positions of non-zero entries in ascending order.
	Indices []int

	// Values holds the value at each position in Indices.
	Values []float64
}

// FromMap builds a Vector from a map of index to value.
// Zero values are dropped. Indices outside [0, dim) are rejected.
func FromMap(dim int, entries map[int]float64) (Vector, error) {
	v := Vector{Dim: dim}
	if len(entries) == 0 {
		return v, nil
	}

	indices := make([]int, 0, len(entries))
	for idx := range entries {
		if idx < 0 || idx >= dim {
			return Vector{}, fmt.Errorf("sparse: index %d out of range [0, %d)", idx, dim)
		}
		if entries[idx] == 0 {
			continue
		}
		indices = append(indices, idx)
	}
	sortInts(indices)

	v.Indices = indices
	v.Values = make([]float64, len(indices))
	for i, idx := range indices {
		v.Values[i] = entries[idx]
	}
	return v, nil
}

// NNZ returns the number of stored non-zero entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// Dot computes the dot product of v with a dense weight vector.
// The weight slice must have length v.Dim; the caller is responsible
// for checking dimensions before entering a batched operation.
func (v Vector) Dot(weights []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * weights[idx]
	}
	return sum
}

// AddScaledTo accumulates alpha*v into the dense vector dst.
// Used for gradient steps; dst must have length v.Dim.
func (v Vector) AddScaledTo(dst []float64, alpha float64) {
	for i, idx := range v.Indices {
		dst[idx] += alpha * v.Values[i]
	}
}

// L2 returns the Euclidean norm of the vector.
func (v Vector) L2() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Concat returns the concatenation of v and other: a vector of dimension
// v.Dim+other.Dim whose first v.Dim columns come from v and the rest
// from other. Used to append page features to link features.
func (v Vector) Concat(other Vector) Vector {
	out := Vector{
		Dim:     v.Dim + other.Dim,
		Indices: make([]int, 0, len(v.Indices)+len(other.Indices)),
		Values:  make([]float64, 0, len(v.Values)+len(other.Values)),
	}
	out.Indices = append(out.Indices, v.Indices...)
	out.Values = append(out.Values, v.Values...)
	for i, idx := range other.Indices {
		out.Indices = append(out.Indices, idx+v.Dim)
		out.Values = append(out.Values, other.Values[i])
	}
	return out
}

// Matrix is a row-major collection of sparse vectors sharing one dimension.
type Matrix struct {
	dim  int
	rows []Vector
}

// NewMatrix creates an empty matrix whose rows must have dimension dim.
func NewMatrix(dim int) *Matrix {
	return &Matrix{dim: dim}
}

// Stack builds a matrix from the given rows. All rows must share the
// same dimension; an empty row set is rejected because the resulting
// dimension would be ambiguous.
func Stack(rows []Vector) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sparse: cannot stack zero rows")
	}
	m := NewMatrix(rows[0].Dim)
	for _, r := range rows {
		if err := m.AppendRow(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AppendRow adds a row to the matrix.
// Returns an error if the row dimension does not match the matrix.
func (m *Matrix) AppendRow(v Vector) error {
	if v.Dim != m.dim {
		return fmt.Errorf("sparse: row dimension %d does not match matrix dimension %d", v.Dim, m.dim)
	}
	m.rows = append(m.rows, v)
	return nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	if m == nil {
		return 0
	}
	return len(m.rows)
}

// Dim returns the shared column dimension.
func (m *Matrix) Dim() int { return m.dim }

// Row returns row i. The index must be in range.
func (m *Matrix) Row(i int) Vector { return m.rows[i] }

// Select returns a new matrix containing the rows at the given indices,
// in the given order. Indices must be in range.
func (m *Matrix) Select(indices []int) *Matrix {
	out := NewMatrix(m.dim)
	out.rows = make([]Vector, 0, len(indices))
	for _, i := range indices {
		out.rows = append(out.rows, m.rows[i])
	}
	return out
}

// sortInts is a small insertion sort; hashed rows rarely exceed a few
// dozen non-zeros, so this beats pulling in sort for tiny slices.
func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
