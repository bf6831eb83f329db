package octagon

import (
	"math"
)

// The DBM is stored as a lower-triangular half matrix over 2·dim signed
// indices: variable xᵢ contributes row/column 2i for +xᵢ and 2i+1 for
// −xᵢ, and entry (i, j) bounds v(j) − v(i). Coherence
// m[i][j] = m[j^1][i^1] makes the upper triangle redundant; only pairs
// with j ≤ (i|1) are stored.

var inf = math.Inf(1)

// matsize is the length of the backing array for dim variables.
func matsize(dim int) int {
	return 2 * dim * (dim + 1)
}

// matpos is the offset of (i, j), assuming j/2 ≤ i/2.
func matpos(i, j int) int {
	return j + ((i+1)*(i+1))/2
}

// matpos2 is the offset of (i, j) with no assumption; accesses outside
// the stored triangle are rewritten to their coherent mirror.
func matpos2(i, j int) int {
	if j > i {
		return matpos(j^1, i^1)
	}
	return matpos(i, j)
}

// badd adds two bounds, mapping any +∞ operand to +∞ so that no NaN
// can escape into the matrix.
func badd(a, b float64) float64 {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return inf
	}
	return a + b
}

// hmat is a half matrix together with its component partition and
// representation flags.
type hmat struct {
	mat   []float64
	comps *components
	dim   int
	// nni approximates the number of finite entries; it drives the
	// decomposed → dense switch.
	nni int
	// dense: the full half matrix is authoritative and comps is
	// ignored. Otherwise only intra-component entries may be read.
	dense bool
	// ti: entries outside the component blocks hold +∞ (rather than
	// stale values from an earlier, larger component).
	ti bool
}

// sparseThreshold is the finite-entry density above which the
// decomposed representation stops paying off.
const sparseThreshold = 0.5

// newHmat allocates a matrix of all +∞ with a zero diagonal, in
// decomposed form with an empty partition.
func newHmat(dim int) *hmat {
	m := &hmat{
		mat:   make([]float64, matsize(dim)),
		comps: newComponents(dim),
		dim:   dim,
		nni:   2 * dim,
		ti:    true,
	}
	for i := range m.mat {
		m.mat[i] = inf
	}
	for i := 0; i < 2*dim; i++ {
		m.mat[matpos(i, i)] = 0
	}
	return m
}

// copy deep-copies the matrix, partition included.
func (m *hmat) copy() *hmat {
	if m == nil {
		return nil
	}
	r := &hmat{
		mat:   make([]float64, len(m.mat)),
		comps: m.comps.copy(),
		dim:   m.dim,
		nni:   m.nni,
		dense: m.dense,
		ti:    m.ti,
	}
	copy(r.mat, m.mat)
	return r
}

// at reads entry (i, j) in signed coordinates, honoring the implicit
// structure of the decomposed form: unconnected pairs and the unary
// entries of untracked variables are +∞, untracked diagonals 0.
func (m *hmat) at(i, j int) float64 {
	if !m.dense {
		switch {
		case i/2 != j/2:
			if !m.comps.isConnected(i/2, j/2) {
				return inf
			}
		case m.comps.find(i/2) == nil:
			if i == j {
				return 0
			}
			return inf
		}
	}
	return m.mat[matpos2(i, j)]
}

// iniRelation resets the 2×2 block relating variables i and j to the
// unconstrained state: cross terms +∞, and, when i = j, zero diagonal.
func (m *hmat) iniRelation(i, j int) {
	if i >= m.dim || j >= m.dim {
		return
	}
	ind1 := matpos2(2*i, 2*j)
	ind2 := matpos2(2*i+1, 2*j+1)
	if i == j {
		m.mat[ind1] = 0
		m.mat[ind2] = 0
	} else {
		m.mat[ind1] = inf
		m.mat[ind2] = inf
	}
	m.mat[matpos2(2*i, 2*j+1)] = inf
	m.mat[matpos2(2*i+1, 2*j)] = inf
}

// iniCompRelations resets every cross block between two components.
func (m *hmat) iniCompRelations(c1, c2 *component) {
	for a := c1.head; a != nil; a = a.next {
		for b := c2.head; b != nil; b = b.next {
			if a.num != b.num {
				m.iniRelation(a.num, b.num)
			}
		}
	}
}

// iniCompElemRelation resets the blocks between every member of c and
// the single variable j.
func (m *hmat) iniCompElemRelation(c *component, j int) {
	for a := c.head; a != nil; a = a.next {
		if a.num != j {
			m.iniRelation(a.num, j)
		}
	}
}

// handleBinaryRelation materializes every entry a fresh constraint on
// (i, j) may touch, before the components of i and j are merged: both
// self blocks, and all cross blocks between the two components.
func (m *hmat) handleBinaryRelation(i, j int) {
	li, lj := m.comps.find(i), m.comps.find(j)
	switch {
	case li == nil && lj == nil:
		m.iniRelation(i, i)
		m.iniRelation(j, j)
		if i != j {
			m.iniRelation(i, j)
		}
	case li == nil:
		m.iniRelation(i, i)
		m.iniCompElemRelation(lj, i)
	case lj == nil:
		m.iniRelation(j, j)
		m.iniCompElemRelation(li, j)
	case li != lj:
		m.iniCompRelations(li, lj)
	}
}

// checkTrivialRelation reports whether the block relating i and j holds
// no constraint.
func (m *hmat) checkTrivialRelation(i, j int) bool {
	ind1 := m.mat[matpos2(2*i, 2*j)]
	ind2 := m.mat[matpos2(2*i+1, 2*j+1)]
	if i == j {
		if ind1 != 0 || ind2 != 0 {
			return false
		}
	} else if !math.IsInf(ind1, 1) || !math.IsInf(ind2, 1) {
		return false
	}
	return math.IsInf(m.mat[matpos2(2*i, 2*j+1)], 1) &&
		math.IsInf(m.mat[matpos2(2*i+1, 2*j)], 1)
}

// toDense materializes the implicit +∞ entries and switches to the
// dense representation. The partition is kept for callers that convert
// back afterwards.
func (m *hmat) toDense() {
	if m.dense {
		return
	}
	if !m.ti {
		for i := 0; i < 2*m.dim; i++ {
			for j := 0; j <= (i | 1); j++ {
				if i/2 == j/2 {
					continue
				}
				if !m.comps.isConnected(i/2, j/2) {
					m.mat[matpos(i, j)] = inf
				}
			}
		}
		for v := 0; v < m.dim; v++ {
			if m.comps.find(v) == nil {
				m.iniRelation(v, v)
			}
		}
		m.ti = true
	}
	m.dense = true
}

// toSparse recomputes the component partition from the finite entries
// and switches to the decomposed representation.
func (m *hmat) toSparse() {
	cs := newComponents(m.dim)
	nni := 2 * m.dim
	for i := 0; i < 2*m.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			if i == j {
				continue
			}
			if !math.IsInf(m.mat[matpos(i, j)], 1) {
				cs.relate(i/2, j/2)
				nni++
			}
		}
	}
	m.comps = cs
	m.nni = nni
	m.dense = false
	m.ti = true
}

// maybeDensify switches to dense once the finite-entry density crosses
// the threshold.
func (m *hmat) maybeDensify() {
	if m.dense {
		return
	}
	if float64(m.nni) >= sparseThreshold*float64(len(m.mat)) {
		m.toDense()
	}
}

// isTop checks for the top matrix: no finite off-diagonal entry and a
// zero diagonal. In decomposed form an empty partition suffices.
func (m *hmat) isTop() bool {
	if !m.dense {
		if m.comps.head == nil {
			return true
		}
		for c := m.comps.head; c != nil; c = c.next {
			vars := c.members()
			for _, i := range vars {
				for _, j := range vars {
					if !m.checkTrivialRelation(i, j) {
						return false
					}
				}
			}
		}
		return true
	}
	for i := 0; i < 2*m.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			v := m.mat[matpos(i, j)]
			if i == j {
				if v != 0 {
					return false
				}
			} else if !math.IsInf(v, 1) {
				return false
			}
		}
	}
	return true
}
