package octagon

import (
	"math"
	"sort"

	"github.com/cs-au-dk/octagon/analysis/linear"
)

// Forget drops every constraint involving the given variables. With
// project the variables are additionally pinned to 0. Forgetting
// preserves closure; projecting does not.
func (d *Domain) Forget(destructive bool, o *Octagon, vars []int, project bool) *Octagon {
	d.setup(2 * o.dim)
	d.ensureClosed(o)
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	m := arg(o, destructive)
	for _, v := range vars {
		if v < 0 || v >= o.dim {
			continue
		}
		m.forgetVar(v)
		if project {
			m.mat[matpos(2*v, 2*v+1)] = 0
			m.mat[matpos(2*v+1, 2*v)] = 0
			if !m.dense {
				m.comps.add(v)
			}
			m.nni += 2
		}
	}
	if o.st == stateClosed {
		if o.intdim > 0 {
			d.res.flagIncomplete()
		}
		if project {
			return result(o, m, stateOpen, destructive)
		}
		return result(o, m, stateClosed, destructive)
	}
	d.res.flagAlgo()
	return result(o, m, stateOpen, destructive)
}

// forgetVar resets every entry involving v to the unconstrained state
// and isolates v in the partition. In decomposed form only v's own
// component is touched.
func (m *hmat) forgetVar(v int) {
	if !m.dense {
		c := m.comps.find(v)
		if c == nil {
			return
		}
		for _, w := range c.members() {
			if w != v {
				m.iniRelation(v, w)
			}
		}
		m.iniRelation(v, v)
		m.comps.remove(v)
		return
	}
	for j := 0; j < 2*m.dim; j++ {
		if j/2 == v {
			continue
		}
		m.mat[matpos2(2*v, j)] = inf
		m.mat[matpos2(2*v+1, j)] = inf
	}
	m.mat[matpos(2*v, 2*v+1)] = inf
	m.mat[matpos(2*v+1, 2*v)] = inf
}

// relocate copies every kept 2×2 block of src into dst under the
// dimension renaming. rename maps an old variable to its new index, or
// -1 when dropped.
func relocate(dst, src *hmat, rename func(int) int) {
	rs := reader(src)
	for vi := 0; vi < src.dim; vi++ {
		wi := rename(vi)
		if wi < 0 {
			continue
		}
		for vj := 0; vj <= vi; vj++ {
			wj := rename(vj)
			if wj < 0 {
				continue
			}
			for _, s := range [][4]int{
				{2 * vi, 2 * vj, 2 * wi, 2 * wj},
				{2 * vi, 2*vj + 1, 2 * wi, 2*wj + 1},
				{2*vi + 1, 2 * vj, 2*wi + 1, 2 * wj},
				{2*vi + 1, 2*vj + 1, 2*wi + 1, 2*wj + 1},
			} {
				dst.mat[matpos2(s[2], s[3])] = rs(s[0], s[1])
			}
		}
	}
	dst.comps = src.comps.resize(dst.dim, rename)
	dst.dense = src.dense
	if dst.dense {
		dst.comps = newComponents(dst.dim)
	}
	dst.ti = true
	nni := 2 * dst.dim
	for i := 0; i < 2*dst.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			if i != j && !math.IsInf(dst.mat[matpos(i, j)], 1) {
				nni++
			}
		}
	}
	dst.nni = nni
}

// AddDimensions inserts fresh unconstrained dimensions at the given
// positions (nondecreasing, each ≤ dim). With project the new
// dimensions are pinned to 0 instead. Embedding preserves closure.
func (d *Domain) AddDimensions(destructive bool, o *Octagon, dc linear.Dimchange, project bool) *Octagon {
	d.setup(0)
	for i, p := range dc.At {
		if p > o.dim || (i > 0 && dc.At[i-1] > p) {
			return nil
		}
	}
	nb := len(dc.At)
	newDim := o.dim + nb
	if o.isBottom() {
		r := result(o, nil, stateBottom, destructive)
		r.dim = newDim
		r.intdim = o.intdim + dc.Int
		return r
	}
	shift := func(v int) int {
		s := sort.SearchInts(dc.At, v+1)
		return v + s
	}
	dst := newHmat(newDim)
	relocate(dst, o.m, shift)
	if project {
		for i, p := range dc.At {
			v := p + i
			dst.mat[matpos(2*v, 2*v+1)] = 0
			dst.mat[matpos(2*v+1, 2*v)] = 0
			if !dst.dense {
				dst.comps.add(v)
			}
			dst.nni += 2
		}
	}
	st := stateOpen
	if o.st == stateClosed && !project {
		st = stateClosed
	}
	r := result(o, dst, st, destructive)
	r.dim = newDim
	r.intdim = o.intdim + dc.Int
	return r
}

// RemoveDimensions deletes the given dimensions (strictly increasing,
// each < dim); the remaining variables slide down. Preserves closure on
// a closed argument.
func (d *Domain) RemoveDimensions(destructive bool, o *Octagon, dc linear.Dimchange) *Octagon {
	d.setup(2 * o.dim)
	for i, p := range dc.At {
		if p >= o.dim || (i > 0 && dc.At[i-1] >= p) {
			return nil
		}
	}
	d.ensureClosed(o)
	nb := len(dc.At)
	newDim := o.dim - nb
	newInt := o.intdim - dc.Int
	if o.isBottom() {
		r := result(o, nil, stateBottom, destructive)
		r.dim = newDim
		r.intdim = newInt
		return r
	}
	drop := make(map[int]bool, nb)
	for _, p := range dc.At {
		drop[p] = true
	}
	rename := func(v int) int {
		if drop[v] {
			return -1
		}
		return v - sort.SearchInts(dc.At, v)
	}
	dst := newHmat(newDim)
	relocate(dst, o.m, rename)
	st := stateOpen
	if o.st == stateClosed {
		if o.intdim > 0 {
			d.res.flagIncomplete()
		}
		st = stateClosed
	} else {
		d.res.flagAlgo()
	}
	r := result(o, dst, st, destructive)
	r.dim = newDim
	r.intdim = newInt
	return r
}

// Permute relabels the variables through the permutation; matrix
// entries and component membership move together. Preserves closure.
func (d *Domain) Permute(destructive bool, o *Octagon, perm linear.Dimperm) *Octagon {
	d.setup(0)
	if !perm.Valid(o.dim) {
		return nil
	}
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	dst := newHmat(o.dim)
	relocate(dst, o.m, func(v int) int { return perm[v] })
	return result(o, dst, o.st, destructive)
}

// Expand duplicates variable v into n fresh copies carrying the same
// relations as v. The copies join v's component; the result is not
// closed (relations among the copies are implied, not materialized).
func (d *Domain) Expand(destructive bool, o *Octagon, v, n int) *Octagon {
	d.setup(0)
	if v < 0 || v >= o.dim {
		return nil
	}
	if n == 0 {
		if destructive {
			return o
		}
		return o.Copy()
	}
	// Integer variables expand into the integer region.
	pos := o.dim
	newInt := o.intdim
	if v < o.intdim {
		pos = o.intdim
		newInt = o.intdim + n
	}
	newDim := o.dim + n
	if o.isBottom() {
		r := result(o, nil, stateBottom, destructive)
		r.dim = newDim
		r.intdim = newInt
		return r
	}
	shift := func(w int) int {
		if w >= pos {
			return w + n
		}
		return w
	}
	dst := newHmat(newDim)
	relocate(dst, o.m, shift)
	rs := reader(dst)
	sv := shift(v)
	for c := 0; c < n; c++ {
		w := pos + c
		for j := 0; j < newDim; j++ {
			if j == w || j == sv || (j >= pos && j < pos+n) {
				continue
			}
			for _, s := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
				val := rs(2*sv+s[0], 2*j+s[1])
				if !math.IsInf(val, 1) && !dst.dense {
					dst.comps.relate(w, j)
				}
				dst.mat[matpos2(2*w+s[0], 2*j+s[1])] = val
			}
		}
		dst.mat[matpos(2*w, 2*w+1)] = rs(2*sv, 2*sv+1)
		dst.mat[matpos(2*w+1, 2*w)] = rs(2*sv+1, 2*sv)
		if !dst.dense {
			dst.comps.relate(w, sv)
		}
	}
	r := result(o, dst, stateOpen, destructive)
	r.dim = newDim
	r.intdim = newInt
	return r
}

// Fold collapses vars (strictly increasing) into vars[0] by joining
// their rows and columns, then removes the other members. The result
// over-approximates every member's behavior and is not closed.
func (d *Domain) Fold(destructive bool, o *Octagon, vars []int) *Octagon {
	d.setup(2 * o.dim)
	if len(vars) == 0 || vars[len(vars)-1] >= o.dim {
		return nil
	}
	for i := 1; i < len(vars); i++ {
		if vars[i-1] >= vars[i] {
			return nil
		}
	}
	d.ensureClosed(o)
	rest := linear.Dimchange{At: vars[1:]}
	for _, v := range vars[1:] {
		if v < o.intdim {
			rest.Int++
		}
	}
	if o.isBottom() {
		r := result(o, nil, stateBottom, destructive)
		r.dim = o.dim - len(vars) + 1
		r.intdim -= rest.Int
		return r
	}
	t0 := vars[0]
	work := o.m.copy()
	rs := reader(o.m)
	merge := func(i, j int) {
		val := rs(i, j)
		for _, t := range vars[1:] {
			// Relocate the signed pair onto the folded member.
			ti := 2*t + i%2
			tj := j
			if j/2 == t0 {
				tj = 2*t + j%2
				ti = 2*t + i%2
			}
			if i/2 != t0 {
				panic(errInternal)
			}
			val = math.Max(val, rs(ti, tj))
		}
		work.mat[matpos2(i, j)] = val
	}
	isMember := make(map[int]bool, len(vars))
	for _, v := range vars {
		isMember[v] = true
	}
	for j := 0; j < o.dim; j++ {
		if isMember[j] {
			continue
		}
		merge(2*t0, 2*j)
		merge(2*t0, 2*j+1)
		merge(2*t0+1, 2*j)
		merge(2*t0+1, 2*j+1)
	}
	merge(2*t0, 2*t0+1)
	merge(2*t0+1, 2*t0)
	work.mat[matpos(2*t0, 2*t0)] = 0
	work.mat[matpos(2*t0+1, 2*t0+1)] = 0
	if !work.dense {
		// The folded variable may have lost every relation; recompute
		// its membership from the merged entries.
		c := work.comps.find(t0)
		if c != nil {
			trivial := work.checkTrivialRelation(t0, t0)
			for _, w := range c.members() {
				if w != t0 && !work.checkTrivialRelation(t0, w) {
					trivial = false
				}
			}
			if trivial {
				work.comps.remove(t0)
			}
		}
	}
	newDim := o.dim - len(vars) + 1
	drop := make(map[int]bool, len(vars)-1)
	for _, v := range vars[1:] {
		drop[v] = true
	}
	rename := func(v int) int {
		if drop[v] {
			return -1
		}
		return v - sort.SearchInts(vars[1:], v)
	}
	dst := newHmat(newDim)
	relocate(dst, work, rename)
	d.res.Exact = false
	if o.st == stateClosed {
		if o.intdim > 0 {
			d.res.flagIncomplete()
		}
	} else {
		d.res.flagAlgo()
	}
	res := result(o, dst, stateOpen, destructive)
	res.dim = newDim
	res.intdim = o.intdim - rest.Int
	return res
}
