package octagon

import (
	"math"
)

// Strong closure brings a DBM to its canonical form: shortest-path
// closed plus the octagonal tightening through the unary bounds. All
// variants operate in place and report emptiness (a negative diagonal)
// instead of producing a matrix.

// floydWarshallDense runs the shortest-path triple loop over all 2·dim
// signed indices on the half matrix. Every pair (i, j) is visited, not
// only the stored triangle: by coherence, relaxing (i, j) through k also
// relaxes its stored mirror through k^1.
func floydWarshallDense(m *hmat) {
	n := 2 * m.dim
	mat := m.mat
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			ik := mat[matpos2(i, k)]
			if math.IsInf(ik, 1) {
				continue
			}
			for j := 0; j < n; j++ {
				kj := mat[matpos2(k, j)]
				if math.IsInf(kj, 1) {
					continue
				}
				ij := matpos2(i, j)
				if c := ik + kj; c < mat[ij] {
					mat[ij] = c
				}
			}
		}
	}
}

// strengthenDense applies the octagonal tightening
// m[i][j] ← min(m[i][j], (m[i][i^1] + m[j^1][j]) / 2), with the sum
// halved under floor in integer mode, then checks the diagonal.
// tmp must hold at least 2·dim entries; tmp[i] caches the bound on
// 2·v(i). Returns true on emptiness.
func strengthenDense(m *hmat, tmp []float64, integer bool) bool {
	n := 2 * m.dim
	mat := m.mat
	if integer {
		// Unary bounds 2·v(i) ≤ c round down to the nearest even c.
		for i := 0; i < n; i++ {
			p := matpos2(i^1, i)
			if !math.IsInf(mat[p], 1) {
				mat[p] = 2 * math.Floor(mat[p]/2)
			}
		}
	}
	for i := 0; i < n; i++ {
		tmp[i] = mat[matpos2(i^1, i)]
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= (i | 1); j++ {
			s := badd(tmp[i^1], tmp[j])
			if !math.IsInf(s, 1) {
				s /= 2
				if integer {
					s = math.Floor(s)
				}
				ij := matpos(i, j)
				if s < mat[ij] {
					mat[ij] = s
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		ii := matpos(i, i)
		if mat[ii] < 0 {
			return true
		}
		mat[ii] = 0
	}
	return false
}

// strongClosureDense closes the full matrix. Returns true on emptiness.
func strongClosureDense(m *hmat, tmp []float64, integer bool) bool {
	floydWarshallDense(m)
	m.nni = len(m.mat)
	return strengthenDense(m, tmp, integer)
}

// floydWarshallComp runs the triple loop restricted to the signed
// indices of one component. ca holds the component's variables in
// increasing order. As in floydWarshallDense, every pair is visited.
func floydWarshallComp(m *hmat, ca []int) {
	mat := m.mat
	idx := signedIndices(ca)
	for _, k := range idx {
		for _, i := range idx {
			ik := mat[matpos2(i, k)]
			if math.IsInf(ik, 1) {
				continue
			}
			for _, j := range idx {
				kj := mat[matpos2(k, j)]
				if math.IsInf(kj, 1) {
					continue
				}
				ij := matpos2(i, j)
				if c := ik + kj; c < mat[ij] {
					mat[ij] = c
				}
			}
		}
	}
}

// strengthenComp tightens and checks the diagonal inside one component.
func strengthenComp(m *hmat, ca []int, tmp []float64, integer bool) bool {
	mat := m.mat
	idx := signedIndices(ca)
	if integer {
		for _, i := range idx {
			p := matpos2(i^1, i)
			if !math.IsInf(mat[p], 1) {
				mat[p] = 2 * math.Floor(mat[p]/2)
			}
		}
	}
	for _, i := range idx {
		tmp[i] = mat[matpos2(i^1, i)]
	}
	for _, i := range idx {
		for _, j := range idx {
			if j > (i | 1) {
				break
			}
			s := badd(tmp[i^1], tmp[j])
			if !math.IsInf(s, 1) {
				s /= 2
				if integer {
					s = math.Floor(s)
				}
				ij := matpos(i, j)
				if s < mat[ij] {
					mat[ij] = s
				}
			}
		}
	}
	for _, i := range idx {
		ii := matpos(i, i)
		if mat[ii] < 0 {
			return true
		}
		mat[ii] = 0
	}
	return false
}

// strongClosureComp closes each component independently. Components are
// independent because every inter-component entry is implicitly +∞ and
// cannot shorten an intra-component path. Returns true on emptiness.
func strongClosureComp(m *hmat, tmp []float64, integer bool) bool {
	for c := m.comps.head; c != nil; c = c.next {
		ca := c.members()
		floydWarshallComp(m, ca)
		if strengthenComp(m, ca, tmp, integer) {
			return true
		}
	}
	return false
}

// strongClosure dispatches on the representation. Returns true on
// emptiness.
func strongClosure(m *hmat, tmp []float64, integer bool) bool {
	if m.dense {
		return strongClosureDense(m, tmp, integer)
	}
	if strongClosureComp(m, tmp, integer) {
		return true
	}
	m.maybeDensify()
	return false
}

// incrementalClosure re-closes a matrix that was strongly closed before
// a single constraint touching variable v was added. Only paths through
// v can have improved.
func incrementalClosure(m *hmat, tmp []float64, v int, integer bool) bool {
	if m.dense {
		return incrementalClosureIdx(m, allSignedIndices(m.dim), tmp, v, integer)
	}
	c := m.comps.find(v)
	if c == nil {
		// v gained only unary bounds; nothing else can improve.
		return m.mat[matpos(2*v, 2*v)] < 0 || m.mat[matpos(2*v+1, 2*v+1)] < 0
	}
	if incrementalClosureIdx(m, signedIndices(c.members()), tmp, v, integer) {
		return true
	}
	m.maybeDensify()
	return false
}

// incrementalClosureIdx is the shared body: first refresh the rows and
// columns of v against every pivot in idx, then run one iteration with
// v as the pivot, then strengthen.
func incrementalClosureIdx(m *hmat, idx []int, tmp []float64, v int, integer bool) bool {
	mat := m.mat
	v1, v2 := 2*v, 2*v+1
	// v in end-point position.
	for _, k := range idx {
		for _, i := range []int{v1, v2} {
			ik := mat[matpos2(i, k)]
			ki := mat[matpos2(k, i)]
			for _, j := range idx {
				if kj := mat[matpos2(k, j)]; !math.IsInf(ik, 1) && !math.IsInf(kj, 1) {
					ij := matpos2(i, j)
					if c := ik + kj; c < mat[ij] {
						mat[ij] = c
					}
				}
				if jk := mat[matpos2(j, k)]; !math.IsInf(jk, 1) && !math.IsInf(ki, 1) {
					ji := matpos2(j, i)
					if c := jk + ki; c < mat[ji] {
						mat[ji] = c
					}
				}
			}
		}
	}
	// v in pivot position.
	for _, k := range []int{v1, v2} {
		for _, i := range idx {
			ik := mat[matpos2(i, k)]
			if math.IsInf(ik, 1) {
				continue
			}
			for _, j := range idx {
				if j > (i | 1) {
					break
				}
				kj := mat[matpos2(k, j)]
				if math.IsInf(kj, 1) {
					continue
				}
				ij := matpos(i, j)
				if c := ik + kj; c < mat[ij] {
					mat[ij] = c
				}
			}
		}
	}
	if m.dense {
		return strengthenDense(m, tmp, integer)
	}
	vars := make([]int, 0, len(idx)/2)
	for _, i := range idx {
		if i%2 == 0 {
			vars = append(vars, i/2)
		}
	}
	return strengthenComp(m, vars, tmp, integer)
}

// signedIndices expands sorted variables to their signed indices.
func signedIndices(vars []int) []int {
	idx := make([]int, 0, 2*len(vars))
	for _, v := range vars {
		idx = append(idx, 2*v, 2*v+1)
	}
	return idx
}

// allSignedIndices is signedIndices for the full dimension range.
func allSignedIndices(dim int) []int {
	idx := make([]int, 2*dim)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
