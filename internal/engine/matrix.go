package engine

import "math"

// Matrix is the read-only embedding store. Row i belongs to catalog row i.
type Matrix struct {
	rows    int
	dim     int
	data    []float32
	invNorm []float64 // 0 for zero-norm rows
}

func newMatrix(embeddings [][]float32) (*Matrix, error) {
	m := &Matrix{rows: len(embeddings)}
	if m.rows == 0 {
		return m, nil
	}

	m.dim = len(embeddings[0])
	if m.dim == 0 {
		return nil, &LoadError{Row: 0, Want: 1, Got: 0, Err: ErrZeroDimension}
	}

	m.data = make([]float32, 0, m.rows*m.dim)
	m.invNorm = make([]float64, m.rows)
	for i, row := range embeddings {
		if len(row) != m.dim {
			return nil, &LoadError{Row: i, Want: m.dim, Got: len(row), Err: ErrDimensionMismatch}
		}
		var sq float64
		for _, x := range row {
			f := float64(x)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, &LoadError{Row: i, Want: m.dim, Got: len(row), Err: ErrNonFinite}
			}
			sq += f * f
		}
		if sq > 0 {
			m.invNorm[i] = 1 / math.Sqrt(sq)
		}
		m.data = append(m.data, row...)
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }

func (m *Matrix) Dim() int { return m.dim }

// Row returns row i without copying. Callers must not modify it.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim : (i+1)*m.dim]
}

// cosineRows is the cosine similarity of rows i and j using cached norms.
func (m *Matrix) cosineRows(i, j int) float64 {
	if m.invNorm[i] == 0 || m.invNorm[j] == 0 {
		return 0
	}
	return clampUnit(dot(m.Row(i), m.Row(j)) * m.invNorm[i] * m.invNorm[j])
}

// CosineAll writes cosine(v, row) for every row into out, which must have
// length Rows(). A zero or mismatched v yields all zeros.
func (m *Matrix) CosineAll(v []float32, out []float64) {
	if len(v) != m.dim {
		clear(out)
		return
	}
	inv := invNorm(v)
	for i := range m.rows {
		if inv == 0 || m.invNorm[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = clampUnit(dot(v, m.Row(i)) * inv * m.invNorm[i])
	}
}

// Cosine returns dot(u,v)/(|u||v|). Zero-norm or mismatched vectors give 0.
func Cosine(u, v []float32) float64 {
	if len(u) != len(v) || len(u) == 0 {
		return 0
	}
	var d, nu, nv float64
	for i := range u {
		a, b := float64(u[i]), float64(v[i])
		d += a * b
		nu += a * a
		nv += b * b
	}
	if nu == 0 || nv == 0 {
		return 0
	}
	return clampUnit(d / (math.Sqrt(nu) * math.Sqrt(nv)))
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func invNorm(v []float32) float64 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if sq == 0 {
		return 0
	}
	return 1 / math.Sqrt(sq)
}

// clampUnit absorbs rounding that pushes a cosine just past ±1.
func clampUnit(x float64) float64 {
	return max(-1, min(1, x))
}
