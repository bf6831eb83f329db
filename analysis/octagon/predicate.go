package octagon

import (
	"math"

	"github.com/cs-au-dk/octagon/analysis/linear"
)

// IsDimensionUnconstrained checks that no constraint mentions v. In
// decomposed form a variable outside every component is unconstrained
// by construction.
func (d *Domain) IsDimensionUnconstrained(o *Octagon, v int) bool {
	d.setup(0)
	if v < 0 || v >= o.dim || o.isBottom() {
		return false
	}
	m := o.m
	if !m.dense {
		c := m.comps.find(v)
		if c == nil {
			return true
		}
		for _, w := range c.members() {
			if !m.checkTrivialRelation(v, w) {
				return false
			}
		}
		return true
	}
	d2 := 2 * v
	for i := 0; i < 2*o.dim; i++ {
		if i != d2 && !math.IsInf(m.mat[matpos2(i, d2)], 1) {
			return false
		}
		if i != d2+1 && !math.IsInf(m.mat[matpos2(i, d2+1)], 1) {
			return false
		}
	}
	return true
}

// dimInterval reads v's interval off the matrix:
// [−m[2v][2v+1]/2, m[2v+1][2v]/2].
func dimInterval(m *hmat, v int) linear.Interval {
	lo := m.at(2*v, 2*v+1)
	hi := m.at(2*v+1, 2*v)
	itv := linear.FullInterval()
	if !math.IsInf(lo, 1) {
		itv.Lo = -lo / 2
	}
	if !math.IsInf(hi, 1) {
		itv.Hi = hi / 2
	}
	return itv
}

// BoundDimension returns the interval of one variable; the result is
// tight on a closed octagon. Out-of-range dimensions get the full
// interval.
func (d *Domain) BoundDimension(o *Octagon, v int) linear.Interval {
	d.setup(0)
	if v < 0 || v >= o.dim {
		return linear.FullInterval()
	}
	d.ensureClosed(o)
	if o.isBottom() {
		return linear.EmptyInterval()
	}
	if o.st == stateClosed {
		if o.intdim > 0 {
			d.res.flagIncomplete()
		}
	} else {
		d.res.flagAlgo()
	}
	return dimInterval(o.m, v)
}

// ToBox extracts the interval of every variable. Unclosed arguments
// yield sound but possibly loose boxes.
func (d *Domain) ToBox(o *Octagon) []linear.Interval {
	d.setup(0)
	d.ensureClosed(o)
	res := make([]linear.Interval, o.dim)
	if o.isBottom() {
		for i := range res {
			res[i] = linear.EmptyInterval()
		}
		return res
	}
	for i := range res {
		res[i] = dimInterval(o.m, i)
	}
	d.res.Exact = false
	if o.st != stateClosed {
		d.res.flagAlgo()
	} else if o.intdim > 0 {
		d.res.flagIncomplete()
	}
	return res
}

// SatInterval checks that v's values all lie within itv.
func (d *Domain) SatInterval(o *Octagon, v int, itv linear.Interval) bool {
	d.setup(0)
	if v < 0 || v >= o.dim {
		return false
	}
	d.ensureClosed(o)
	if o.isBottom() {
		return true
	}
	if itv.Includes(dimInterval(o.m, v)) {
		return true
	}
	if o.intdim > 0 {
		d.res.flagIncomplete()
	} else if o.st != stateClosed {
		d.res.flagAlgo()
	}
	return false
}

// SatLincons checks entailment of a constraint. Unary and binary
// shapes read the matrix directly; other shapes fall back to interval
// reasoning. A false answer on an unclosed octagon is a "don't know",
// reported through the Algo/Incomplete flags.
func (d *Domain) SatLincons(o *Octagon, c linear.Cons) bool {
	d.setup(2 * (o.dim + 1))
	d.ensureClosed(o)
	if o.isBottom() {
		return true
	}
	switch c.Typ {
	case linear.ConsDisEq, linear.ConsEqMod:
		d.res.flagIncomplete()
		return false
	}
	m := o.m
	u := uexprOfLinexpr(c.Expr, o.dim)
	unknown := func() bool {
		if o.intdim > 0 {
			d.res.flagIncomplete()
		} else if o.st != stateClosed {
			d.res.flagAlgo()
		}
		return false
	}
	switch u.typ {
	case uexprEmpty:
		return true
	case uexprZero:
		switch {
		case c.Typ == linear.ConsSupEq && u.minf <= 0:
			return true
		case c.Typ == linear.ConsSup && u.minf < 0:
			return true
		case c.Typ == linear.ConsEq && u.minf == 0 && u.sup == 0:
			return true
		}
		return unknown()
	case uexprUnary:
		ui := node(u.i, u.ci)
		// c·xᵢ + [−a, b] ≥ 0 always holds iff 2a + m[ui][ui^1] ≤ 0.
		lhs := badd(2*u.minf, m.at(ui, ui^1))
		rhs := badd(2*u.sup, m.at(ui^1, ui))
		if lhs <= 0 &&
			(c.Typ != linear.ConsSup || lhs < 0) &&
			(c.Typ != linear.ConsEq || rhs <= 0) {
			return true
		}
		return unknown()
	case uexprBinary:
		ui, uj := node(u.i, u.ci), node(u.j, u.cj)
		lhs := badd(u.minf, m.at(uj, ui^1))
		rhs := badd(u.sup, m.at(uj^1, ui))
		if lhs <= 0 &&
			(c.Typ != linear.ConsSup || lhs < 0) &&
			(c.Typ != linear.ConsEq || rhs <= 0) {
			return true
		}
		return unknown()
	default:
		// Interval fallback: e ≥ 0 holds whenever inf(e) ≥ 0.
		d.res.flagIncomplete()
		itv := boundExpr(m, c.Expr)
		switch c.Typ {
		case linear.ConsSupEq:
			return itv.Lo >= 0
		case linear.ConsSup:
			return itv.Lo > 0
		case linear.ConsEq:
			return itv.Lo == 0 && itv.Hi == 0
		}
		return false
	}
}

// linconsOfBound rebuilds the constraint encoded by entry (i, j) ≤ c.
func linconsOfBound(i, j int, c float64) linear.Cons {
	switch {
	case i == j^1:
		// Unary: v(i) + c/2 ≥ 0.
		coeff := 1.0
		if i&1 == 1 {
			coeff = -1
		}
		return linear.Cons{
			Expr: linear.NewExpr(linear.PointInterval(c/2), linear.Term{Dim: i / 2, Coeff: coeff}),
			Typ:  linear.ConsSupEq,
		}
	default:
		// Binary: v(j) − v(i) ≤ c, i.e. −v(j) + v(i) + c ≥ 0.
		cj := -1.0
		if j&1 == 1 {
			cj = 1
		}
		ci := 1.0
		if i&1 == 1 {
			ci = -1
		}
		return linear.Cons{
			Expr: linear.NewExpr(linear.PointInterval(c),
				linear.Term{Dim: j / 2, Coeff: cj},
				linear.Term{Dim: i / 2, Coeff: ci}),
			Typ: linear.ConsSupEq,
		}
	}
}

// ToLincons emits one constraint per finite off-diagonal entry;
// coherent mirror entries appear once. A bottom octagon yields the
// single unsatisfiable constraint −1 ≥ 0.
func (d *Domain) ToLincons(o *Octagon) []linear.Cons {
	d.setup(0)
	if o.isBottom() {
		return []linear.Cons{{
			Expr: linear.ConstExpr(linear.PointInterval(-1)),
			Typ:  linear.ConsSupEq,
		}}
	}
	m := o.m
	var res []linear.Cons
	emit := func(i, j int) {
		if i == j {
			return
		}
		c := m.mat[matpos(i, j)]
		if math.IsInf(c, 1) {
			return
		}
		res = append(res, linconsOfBound(i, j, c))
	}
	if !m.dense {
		for comp := m.comps.head; comp != nil; comp = comp.next {
			idx := signedIndices(comp.members())
			for _, i := range idx {
				for _, j := range idx {
					if j > (i | 1) {
						break
					}
					emit(i, j)
				}
			}
		}
		return res
	}
	for i := 0; i < 2*o.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			emit(i, j)
		}
	}
	return res
}
