package octagon

import (
	"math"
)

// Perturbation operators, used by hosts to force convergence of
// decreasing iteration sequences on floating-point octagons.

// maxAbsFinite scans the explicit entries for the largest absolute
// finite bound.
func maxAbsFinite(m *hmat) float64 {
	top := 0.0
	scan := func(v float64) {
		if math.IsInf(v, 1) {
			return
		}
		top = math.Max(top, math.Abs(v))
	}
	if !m.dense {
		for c := m.comps.head; c != nil; c = c.next {
			idx := signedIndices(c.members())
			for _, i := range idx {
				for _, j := range idx {
					if j > (i | 1) {
						break
					}
					scan(m.mat[matpos(i, j)])
				}
			}
		}
		return top
	}
	for _, v := range m.mat {
		scan(v)
	}
	return top
}

// AddEpsilon enlarges every explicit bound by eps times the largest
// absolute finite bound of o.
func (d *Domain) AddEpsilon(o *Octagon, eps float64) *Octagon {
	d.setup(2)
	if o.isBottom() {
		return result(o, nil, stateBottom, false)
	}
	factor := maxAbsFinite(o.m) * eps
	dst := o.m.copy()
	r := reader(o.m)
	var cs *components
	if !dst.dense {
		cs = o.m.comps.copy()
	}
	ewise(dst, cs, dst.dense, func(i, j int) float64 {
		return badd(r(i, j), factor)
	})
	return result(o, dst, stateOpen, false)
}

// AddEpsilonBin enlarges the bounds of a that are unstable against b by
// eps times b's largest absolute finite bound; stable bounds are kept.
func (d *Domain) AddEpsilonBin(a, b *Octagon, eps float64) *Octagon {
	d.setup(2)
	if a.dim != b.dim || a.intdim != b.intdim {
		return nil
	}
	if a.isBottom() {
		if b.isBottom() {
			return result(a, nil, stateBottom, false)
		}
		return result(a, b.m.copy(), b.st, false)
	}
	if b.isBottom() {
		return result(a, a.m.copy(), a.st, false)
	}
	factor := maxAbsFinite(b.m) * eps
	ra, rb := reader(a.m), reader(b.m)
	dst := a.m.copy()
	dense := a.m.dense || b.m.dense
	var cs *components
	if !dense {
		cs = unionPartition(a.m.comps, b.m.comps)
	}
	ewise(dst, cs, dense, func(i, j int) float64 {
		va, vb := ra(i, j), rb(i, j)
		if va < vb {
			return badd(vb, factor)
		}
		return va
	})
	return result(a, dst, stateOpen, false)
}
