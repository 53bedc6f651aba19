package engine

import "fmt"

// Scale is the rating range shared by every score an engine produces.
type Scale struct {
	Min float64
	Max float64
}

func (s Scale) Validate() error {
	if !(s.Max > s.Min) {
		return fmt.Errorf("rating scale max %.2f must exceed min %.2f", s.Max, s.Min)
	}
	return nil
}

func (s Scale) Contains(x float64) bool {
	return x >= s.Min && x <= s.Max
}

func (s Scale) clamp(x float64) float64 {
	return max(s.Min, min(s.Max, x))
}

// fromCosine maps a similarity onto the scale. Negative similarities clamp to Min.
func (s Scale) fromCosine(sim float64) float64 {
	return s.clamp(s.Min + sim*(s.Max-s.Min))
}

// scorer fills score[i-lo] and support[i-lo] for rows lo..hi-1. Support
// orders rows whose scores are equal: closer evidence ranks first.
// Implementations only read shared state, so disjoint ranges may run
// concurrently.
type scorer interface {
	scoreRows(lo, hi int, score, support []float64)
}

// centroidScorer rates a row by its similarity to the mean rated embedding.
type centroidScorer struct {
	m     *Matrix
	vec   []float32
	inv   float64
	scale Scale
}

func newCentroidScorer(m *Matrix, p *Profile, scale Scale) *centroidScorer {
	vec := p.profileVector(m)
	return &centroidScorer{m: m, vec: vec, inv: invNorm(vec), scale: scale}
}

func (c *centroidScorer) similarity(i int) float64 {
	if c.inv == 0 || c.m.invNorm[i] == 0 {
		return 0
	}
	return clampUnit(dot(c.vec, c.m.Row(i)) * c.inv * c.m.invNorm[i])
}

func (c *centroidScorer) scoreRows(lo, hi int, score, support []float64) {
	for i := lo; i < hi; i++ {
		sim := c.similarity(i)
		score[i-lo] = c.scale.fromCosine(sim)
		support[i-lo] = sim
	}
}

// knnScorer predicts a row's rating as the distance-weighted mean of its k
// nearest rated rows.
type knnScorer struct {
	m        *Matrix
	unit     []float32 // rated rows, L2-normalized, contiguous
	scores   []float64
	k        int
	fallback *centroidScorer
}

func newKNNScorer(m *Matrix, p *Profile, k int, scale Scale) *knnScorer {
	dim := m.Dim()
	s := &knnScorer{
		m:        m,
		unit:     make([]float32, len(p.rated)*dim),
		scores:   make([]float64, len(p.rated)),
		k:        min(k, len(p.rated)),
		fallback: newCentroidScorer(m, p, scale),
	}
	for j, r := range p.rated {
		s.scores[j] = r.score
		inv := m.invNorm[r.row]
		dst := s.unit[j*dim : (j+1)*dim]
		for d, x := range m.Row(r.row) {
			dst[d] = float32(float64(x) * inv)
		}
	}
	return s
}

func (s *knnScorer) scoreRows(lo, hi int, score, support []float64) {
	n := len(s.scores)
	dim := s.m.Dim()
	dist := make([]float64, n)
	top := make([]int, 0, s.k)

	for i := lo; i < hi; i++ {
		row := s.m.Row(i)
		inv := s.m.invNorm[i]
		for j := range n {
			sim := 0.0
			if inv != 0 {
				sim = clampUnit(dot(row, s.unit[j*dim:(j+1)*dim]) * inv)
			}
			dist[j] = 1 - sim
		}

		top = nearest(dist, s.k, top[:0])

		var num, den float64
		for _, j := range top {
			w := 1 / (1 + dist[j])
			num += w * s.scores[j]
			den += w
		}
		if den == 0 {
			sim := s.fallback.similarity(i)
			score[i-lo] = s.fallback.scale.fromCosine(sim)
			support[i-lo] = 0
			continue
		}
		score[i-lo] = num / den
		support[i-lo] = den / float64(len(top))
	}
}

// nearest appends to top the indices of the k smallest values in dist, in
// ascending order. Equal values keep index order.
func nearest(dist []float64, k int, top []int) []int {
	if k <= 0 {
		return top
	}
	for j, d := range dist {
		if len(top) == k && d >= dist[top[k-1]] {
			continue
		}
		pos := len(top)
		for pos > 0 && dist[top[pos-1]] > d {
			pos--
		}
		if len(top) < k {
			top = append(top, 0)
		}
		copy(top[pos+1:], top[pos:len(top)-1])
		top[pos] = j
	}
	return top
}
