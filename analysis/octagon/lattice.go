package octagon

import (
	"math"
)

// reader captures a matrix view for element-wise kernels, so that
// in-place (destructive) writes cannot corrupt later reads of the
// operand's implicit-+∞ structure.
func reader(m *hmat) func(i, j int) float64 {
	mat, comps, dense := m.mat, m.comps, m.dense
	return func(i, j int) float64 {
		if !dense {
			switch {
			case i/2 != j/2:
				if !comps.isConnected(i/2, j/2) {
					return inf
				}
			case comps.find(i/2) == nil:
				if i == j {
					return 0
				}
				return inf
			}
		}
		return mat[matpos2(i, j)]
	}
}

// unionPartition merges the blocks of both operands.
func unionPartition(a, b *components) *components {
	r := a.copy()
	for c := b.head; c != nil; c = c.next {
		var rc *component
		for m := c.head; m != nil; m = m.next {
			if rc == nil {
				rc = r.add(m.num)
			} else {
				rc = r.union(rc, r.add(m.num))
			}
		}
	}
	return r
}

// intersectPartition keeps a variable related to a peer only when both
// operands relate them; variables constrained in both stay tracked even
// when their peer sets shrink to nothing.
func intersectPartition(a, b *components) *components {
	r := newComponents(a.dim)
	for v := 0; v < a.dim; v++ {
		ca := a.find(v)
		if ca == nil || b.find(v) == nil {
			continue
		}
		r.add(v)
		for m := ca.head; m != nil; m = m.next {
			if m.num > v && b.isConnected(v, m.num) {
				r.relate(v, m.num)
			}
		}
	}
	return r
}

// ewise runs an element-wise kernel over dst. In dense mode the whole
// half matrix is visited; in decomposed mode only the blocks of the
// given partition, with everything else implicitly +∞.
func ewise(dst *hmat, cs *components, dense bool, f func(i, j int) float64) {
	if dense {
		dst.toDense()
		nni := 0
		for i := 0; i < 2*dst.dim; i++ {
			for j := 0; j <= (i | 1); j++ {
				v := f(i, j)
				dst.mat[matpos(i, j)] = v
				if !math.IsInf(v, 1) {
					nni++
				}
			}
		}
		dst.nni = nni
		return
	}
	nni := 2 * dst.dim
	for c := cs.head; c != nil; c = c.next {
		idx := signedIndices(c.members())
		for _, i := range idx {
			for _, j := range idx {
				if j > (i | 1) {
					break
				}
				v := f(i, j)
				dst.mat[matpos(i, j)] = v
				if i != j && !math.IsInf(v, 1) {
					nni++
				}
			}
		}
	}
	dst.comps = cs
	dst.dense = false
	// Entries outside the new blocks may be stale; they are rewritten
	// on the next densification.
	dst.ti = false
	dst.nni = nni
}

// IsBottom checks definite emptiness. With lazy closure disabled an
// unclosed octagon answers false and sets the Algo flag.
func (d *Domain) IsBottom(o *Octagon) bool {
	d.setup(2 * o.dim)
	d.ensureClosed(o)
	switch o.st {
	case stateBottom:
		return true
	case stateClosed:
		if o.intdim > 0 {
			d.res.flagIncomplete()
		}
		return false
	}
	d.res.flagAlgo()
	return false
}

// IsTop checks for the unconstrained octagon, on the stored matrix
// without forcing closure.
func (d *Domain) IsTop(o *Octagon) bool {
	d.setup(0)
	if o.isBottom() {
		return false
	}
	return o.m.isTop()
}

// Leq computes γ(a) ⊆ γ(b). a is closed first; every finite entry of b
// must dominate the corresponding entry of a.
func (d *Domain) Leq(a, b *Octagon) bool {
	d.setup(2 * a.dim)
	if a.dim != b.dim || a.intdim != b.intdim {
		return false
	}
	d.ensureClosed(a)
	if a.isBottom() {
		return true
	}
	if b.isBottom() {
		if a.st == stateClosed {
			if a.intdim > 0 {
				d.res.flagIncomplete()
			}
		} else {
			d.res.flagAlgo()
		}
		return false
	}
	ra, rb := reader(a.m), reader(b.m)
	if !b.m.dense {
		for c := b.m.comps.head; c != nil; c = c.next {
			idx := signedIndices(c.members())
			for _, i := range idx {
				for _, j := range idx {
					if j > (i | 1) {
						break
					}
					if ra(i, j) > rb(i, j) {
						return false
					}
				}
			}
		}
		return true
	}
	for i := 0; i < 2*a.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			if ra(i, j) > rb(i, j) {
				return false
			}
		}
	}
	return true
}

// Eq checks equality of concretizations; both operands are closed
// first. Decomposed operands with identical partitions compare block
// by block; otherwise the comparison falls back to the coherent
// element-wise view.
func (d *Domain) Eq(a, b *Octagon) bool {
	d.setup(2 * a.dim)
	if a.dim != b.dim || a.intdim != b.intdim {
		return false
	}
	d.ensureClosed(a)
	d.ensureClosed(b)
	if a.isBottom() || b.isBottom() {
		if a.isBottom() && b.isBottom() {
			return true
		}
		if a.st == stateClosed || b.st == stateClosed {
			if a.intdim > 0 {
				d.res.flagIncomplete()
			}
		} else {
			d.res.flagAlgo()
		}
		return false
	}
	if !a.m.dense && !b.m.dense && a.m.comps.samePartition(b.m.comps) {
		ra, rb := reader(a.m), reader(b.m)
		for c := a.m.comps.head; c != nil; c = c.next {
			idx := signedIndices(c.members())
			for _, i := range idx {
				for _, j := range idx {
					if j > (i | 1) {
						break
					}
					if ra(i, j) != rb(i, j) {
						return false
					}
				}
			}
		}
		return true
	}
	ra, rb := reader(a.m), reader(b.m)
	for i := 0; i < 2*a.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			if ra(i, j) != rb(i, j) {
				return false
			}
		}
	}
	return true
}

// Meet intersects two octagons element-wise. The result is not closed;
// closure is deferred to the next operation that needs it.
func (d *Domain) Meet(destructive bool, a, b *Octagon) *Octagon {
	d.setup(0)
	if a.dim != b.dim || a.intdim != b.intdim {
		return nil
	}
	if a.isBottom() || b.isBottom() {
		return result(a, nil, stateBottom, destructive)
	}
	ra, rb := reader(a.m), reader(b.m)
	dst := arg(a, destructive)
	dense := a.m.dense || b.m.dense
	var cs *components
	if !dense {
		cs = unionPartition(a.m.comps, b.m.comps)
	}
	ewise(dst, cs, dense, func(i, j int) float64 {
		return math.Min(ra(i, j), rb(i, j))
	})
	return result(a, dst, stateOpen, destructive)
}

// Join computes the octagonal hull element-wise. Both operands are
// closed first; the result is closed iff both inputs were.
func (d *Domain) Join(destructive bool, a, b *Octagon) *Octagon {
	d.setup(2 * a.dim)
	if a.dim != b.dim || a.intdim != b.intdim {
		return nil
	}
	d.ensureClosed(a)
	d.ensureClosed(b)
	if a.isBottom() {
		if b.isBottom() {
			return result(a, nil, stateBottom, destructive)
		}
		return result(a, b.m.copy(), b.st, destructive)
	}
	if b.isBottom() {
		return result(a, a.m.copy(), a.st, destructive)
	}
	d.res.Exact = false
	st := stateOpen
	if a.st == stateClosed && b.st == stateClosed {
		st = stateClosed
		if a.intdim > 0 {
			d.res.flagIncomplete()
		}
	} else {
		d.res.flagAlgo()
	}
	ra, rb := reader(a.m), reader(b.m)
	dst := arg(a, destructive)
	dense := a.m.dense || b.m.dense
	var cs *components
	if !dense {
		cs = intersectPartition(a.m.comps, b.m.comps)
	}
	ewise(dst, cs, dense, func(i, j int) float64 {
		return math.Max(ra(i, j), rb(i, j))
	})
	return result(a, dst, st, destructive)
}

// JoinArray folds Join over a slice of octagons, skipping definitely
// empty elements.
func (d *Domain) JoinArray(os []*Octagon) *Octagon {
	if len(os) == 0 {
		return nil
	}
	r := d.Bottom(os[0].dim, os[0].intdim)
	for _, o := range os {
		if o.dim != r.dim || o.intdim != r.intdim {
			return nil
		}
		if o.isBottom() {
			continue
		}
		r = d.Join(true, r, o)
	}
	return r
}

// MeetArray folds Meet over a slice of octagons; any empty element
// collapses the result.
func (d *Domain) MeetArray(os []*Octagon) *Octagon {
	if len(os) == 0 {
		return nil
	}
	for _, o := range os {
		if o.isBottom() {
			return d.Bottom(os[0].dim, os[0].intdim)
		}
	}
	r := os[0].Copy()
	for _, o := range os[1:] {
		if o.dim != r.dim || o.intdim != r.intdim {
			return nil
		}
		r = d.Meet(true, r, o)
	}
	return r
}

// Widening keeps the stable bounds of a and drops the rest to +∞.
// Both iterates are closed; the output is deliberately not re-closed,
// as re-closing a widened matrix breaks termination.
func (d *Domain) Widening(a, b *Octagon) *Octagon {
	return d.widen(a, b, false)
}

// WideningThresholds widens through the configured threshold ladder:
// an unstable bound climbs to the smallest threshold that dominates
// b's entry instead of jumping straight to +∞.
func (d *Domain) WideningThresholds(a, b *Octagon) *Octagon {
	return d.widen(a, b, true)
}

func (d *Domain) widen(a, b *Octagon, thresholds bool) *Octagon {
	d.setup(2 * a.dim)
	if a.dim != b.dim || a.intdim != b.intdim {
		return nil
	}
	d.ensureClosed(a)
	d.ensureClosed(b)
	if a.isBottom() {
		if b.isBottom() {
			return result(a, nil, stateBottom, false)
		}
		return result(a, b.m.copy(), b.st, false)
	}
	if b.isBottom() {
		return result(a, a.m.copy(), a.st, false)
	}
	ra, rb := reader(a.m), reader(b.m)
	dst := a.m.copy()
	dense := a.m.dense || b.m.dense
	var cs *components
	if !dense {
		if thresholds {
			cs = unionPartition(a.m.comps, b.m.comps)
		} else {
			// Without thresholds an implicit +∞ in a stays +∞, so
			// a's own blocks cover every possibly-finite result
			// entry.
			cs = a.m.comps.copy()
		}
	}
	ewise(dst, cs, dense, func(i, j int) float64 {
		va, vb := ra(i, j), rb(i, j)
		if va >= vb {
			return va
		}
		if thresholds {
			return d.cfg.ceiling(vb)
		}
		return inf
	})
	return result(a, dst, stateOpen, false)
}

// Narrowing refines a by restoring b's bound wherever a has none.
func (d *Domain) Narrowing(a, b *Octagon) *Octagon {
	d.setup(2 * a.dim)
	if a.dim != b.dim || a.intdim != b.intdim {
		return nil
	}
	d.ensureClosed(a)
	d.ensureClosed(b)
	if a.isBottom() || b.isBottom() {
		return result(a, nil, stateBottom, false)
	}
	ra, rb := reader(a.m), reader(b.m)
	dst := a.m.copy()
	dense := a.m.dense || b.m.dense
	var cs *components
	if !dense {
		cs = unionPartition(a.m.comps, b.m.comps)
	}
	ewise(dst, cs, dense, func(i, j int) float64 {
		if va := ra(i, j); !math.IsInf(va, 1) {
			return va
		}
		return rb(i, j)
	})
	return result(a, dst, stateOpen, false)
}
