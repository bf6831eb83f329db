package octagon

import (
	"math"

	"github.com/cs-au-dk/octagon/analysis/linear"
	"github.com/cs-au-dk/octagon/utils"
)

// uexprType classifies a linear expression by its octagonal shape.
type uexprType int

const (
	uexprEmpty uexprType = iota
	uexprZero
	uexprUnary
	uexprBinary
	uexprOther
)

// uexpr is the octagonal view of a linear expression: at most two unit
// terms ±xᵢ ± xⱼ plus the constant bounds. minf carries the negated
// lower bound, so the constant interval is [−minf, sup].
type uexpr struct {
	typ       uexprType
	i, j      int
	ci, cj    int // ±1
	minf, sup float64
	expr      linear.Expr
}

// uexprOfLinexpr classifies e against an octagon of dim variables.
// Terms on out-of-range dimensions or with non-unit coefficients
// degrade the expression to OTHER.
func uexprOfLinexpr(e linear.Expr, dim int) uexpr {
	u := uexpr{typ: uexprZero, minf: -e.Cst.Lo, sup: e.Cst.Hi}
	if e.Cst.IsEmpty() {
		u.typ = uexprEmpty
		return u
	}
	for _, t := range e.Terms {
		if t.Dim < 0 || t.Dim >= dim || (t.Coeff != 1 && t.Coeff != -1) {
			u.typ = uexprOther
			return u
		}
		switch u.typ {
		case uexprZero:
			u.typ = uexprUnary
			u.i, u.ci = t.Dim, int(t.Coeff)
		case uexprUnary:
			u.typ = uexprBinary
			u.j, u.cj = t.Dim, int(t.Coeff)
		default:
			u.typ = uexprOther
			return u
		}
	}
	return u
}

// node returns the signed index representing +c·x_v.
func node(v, c int) int {
	if c == 1 {
		return 2 * v
	}
	return 2*v + 1
}

// boundExpr evaluates the interval of an expression over the variable
// bounds of m. Used as the fallback for non-octagonal shapes.
func boundExpr(m *hmat, e linear.Expr) linear.Interval {
	lo, hi := e.Cst.Lo, e.Cst.Hi
	for _, t := range e.Terms {
		v := t.Dim
		// Variable bounds: x ∈ [−m[2v][2v+1]/2, m[2v+1][2v]/2].
		vlo, vhi := -m.at(2*v, 2*v+1)/2, m.at(2*v+1, 2*v)/2
		if t.Coeff >= 0 {
			lo = addLo(lo, t.Coeff*vlo)
			hi = addHi(hi, t.Coeff*vhi)
		} else {
			lo = addLo(lo, t.Coeff*vhi)
			hi = addHi(hi, t.Coeff*vlo)
		}
	}
	return linear.Interval{Lo: lo, Hi: hi}
}

// addLo and addHi add bounds with the −∞/+∞ absorbing on their own
// side, never producing NaN.
func addLo(a, b float64) float64 {
	if math.IsInf(a, -1) || math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	return a + b
}

func addHi(a, b float64) float64 {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return math.Inf(1)
	}
	return a + b
}

// tightenBound rounds an upper bound for an integer constraint; strict
// inequalities gain one unit of slack in integer mode.
func (d *Domain) tightenBound(o *Octagon, c float64, strict bool) float64 {
	if math.IsInf(c, 1) {
		return c
	}
	if d.integer(o) {
		c = math.Floor(c)
		if strict {
			c--
		}
	} else if strict {
		d.res.Exact = false
	}
	return c
}

// setBound meets entry (i, j) with bound c, maintaining the partition
// and the finite-entry count. Returns true when the entry changed.
func (m *hmat) setBound(i, j int, c float64) bool {
	if math.IsInf(c, 1) {
		return false
	}
	if !m.dense {
		if i/2 == j/2 {
			m.comps.add(i / 2)
		} else {
			m.handleBinaryRelation(i/2, j/2)
			m.comps.relate(i/2, j/2)
		}
	}
	pos := matpos2(i, j)
	if c >= m.mat[pos] {
		return false
	}
	if math.IsInf(m.mat[pos], 1) {
		m.nni++
	}
	m.mat[pos] = c
	return true
}

// addCons assumes one constraint into m. Returns definite emptiness.
// respectClosure is cleared when the matrix can no longer be assumed
// closed; changed collects the touched variables for incremental
// closure.
func (d *Domain) addCons(o *Octagon, m *hmat, c linear.Cons, respectClosure *bool, changed *[]int) bool {
	u := uexprOfLinexpr(c.Expr, o.dim)
	switch c.Typ {
	case linear.ConsDisEq, linear.ConsEqMod:
		// Not octagonal; skipped, but the caller may no longer rely on
		// closure having been maintained for the whole array.
		utils.Logger().Debug("skipping non-octagonal constraint", "cons", c.String())
		*respectClosure = false
		d.res.flagIncomplete()
		return false
	}
	strict := c.Typ == linear.ConsSup
	switch u.typ {
	case uexprEmpty:
		return true
	case uexprZero:
		// [−a, b] ≥ 0 is violated definitely iff b < 0; = 0 also needs
		// a ≥ 0.
		switch {
		case u.sup < 0 || (strict && u.sup <= 0):
			return true
		case c.Typ == linear.ConsEq && u.minf < 0:
			return true
		}
		return false
	case uexprUnary:
		ui := node(u.i, u.ci)
		// c·xᵢ + [−a, b] ≥ 0 yields −c·xᵢ ≤ b: entry (ui, ui^1) = 2b.
		if m.setBound(ui, ui^1, d.tightenBound(o, 2*u.sup, strict)) {
			*changed = append(*changed, u.i)
		}
		if c.Typ == linear.ConsEq {
			// And c·xᵢ ≤ a: entry (ui^1, ui) = 2a.
			if m.setBound(ui^1, ui, d.tightenBound(o, 2*u.minf, false)) {
				*changed = append(*changed, u.i)
			}
		}
		if badd(m.at(ui, ui^1), m.at(ui^1, ui)) < 0 {
			return true
		}
		return false
	case uexprBinary:
		ui, uj := node(u.i, u.ci), node(u.j, u.cj)
		// v(ui) + v(uj) + [−a, b] ≥ 0 yields −v(ui) − v(uj) ≤ b:
		// entry (ui, uj^1).
		if m.setBound(ui, uj^1, d.tightenBound(o, u.sup, strict)) {
			*changed = append(*changed, u.i)
		}
		if c.Typ == linear.ConsEq {
			// And v(ui) + v(uj) ≤ a: entry (ui^1, uj).
			if m.setBound(ui^1, uj, d.tightenBound(o, u.minf, false)) {
				*changed = append(*changed, u.i)
			}
		}
		if badd(m.at(ui, uj^1), m.at(ui^1, uj)) < 0 {
			return true
		}
		return false
	default:
		// Non-octagonal shape: fall back to the interval of the
		// expression, with precision loss.
		d.res.flagIncomplete()
		itv := boundExpr(m, c.Expr)
		if itv.IsEmpty() {
			return true
		}
		switch c.Typ {
		case linear.ConsSupEq:
			if itv.Hi < 0 {
				return true
			}
		case linear.ConsSup:
			if itv.Hi <= 0 {
				return true
			}
		case linear.ConsEq:
			if !itv.Contains(0) {
				return true
			}
		}
		*respectClosure = false
		return false
	}
}

// MeetLincons assumes an array of constraints. Equalities split into
// two inequalities; ≠ and modular constraints are skipped. A closed
// argument is kept closed through incremental closure when possible.
func (d *Domain) MeetLincons(destructive bool, o *Octagon, cons []linear.Cons) *Octagon {
	d.setup(2 * (o.dim + 8))
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	m := arg(o, destructive)
	respectClosure := o.st == stateClosed && d.closeEnabled()
	var changed []int
	for _, c := range cons {
		if d.addCons(o, m, c, &respectClosure, &changed) {
			return result(o, nil, stateBottom, destructive)
		}
		if respectClosure {
			for _, v := range changed {
				if incrementalClosure(m, d.tmp, v, d.integer(o)) {
					return result(o, nil, stateBottom, destructive)
				}
			}
		}
		changed = changed[:0]
	}
	if respectClosure {
		return result(o, m, stateClosed, destructive)
	}
	return result(o, m, stateOpen, destructive)
}

// assign applies x_d := e to m in place.
func (d *Domain) assign(o *Octagon, m *hmat, dv int, u uexpr, respectClosure *bool) {
	switch {
	case u.typ == uexprZero:
		// x_d := [−a, b]: exact interval assignment; forgetting a
		// variable of a closed matrix and bounding it keeps closure.
		m.forgetVar(dv)
		m.setBound(2*dv, 2*dv+1, 2*u.minf)
		m.setBound(2*dv+1, 2*dv, 2*u.sup)
	case u.typ == uexprUnary && u.i == dv:
		// x_d := ±x_d + [−a, b]: invertible translation in place.
		minf, sup := u.minf, u.sup
		if u.ci == -1 {
			m.swapSigns(dv)
		}
		m.translate(dv, minf, sup)
	case u.typ == uexprUnary:
		// x_d := ±xᵢ + [−a, b]: forget then two relational bounds.
		*respectClosure = false
		k := node(u.i, u.ci)
		m.forgetVar(dv)
		// x_d − v(k) ≤ b and v(k) − x_d ≤ a.
		m.setBound(k, 2*dv, u.sup)
		m.setBound(2*dv, k, u.minf)
	default:
		// Binary and general shapes: bound the expression over the
		// current box, then assign the interval.
		*respectClosure = false
		d.res.flagIncomplete()
		itv := boundExpr(m, u.expr)
		m.forgetVar(dv)
		m.setBound(2*dv, 2*dv+1, badd(-itv.Lo, -itv.Lo))
		m.setBound(2*dv+1, 2*dv, badd(itv.Hi, itv.Hi))
	}
}

// swapSigns exchanges the +x and −x rows and columns of v, realizing
// x := −x. In decomposed form only v's component is touched.
func (m *hmat) swapSigns(v int) {
	others := m.rowIndices(v)
	for _, j := range others {
		p1, p2 := matpos2(2*v, j), matpos2(2*v+1, j)
		m.mat[p1], m.mat[p2] = m.mat[p2], m.mat[p1]
	}
	p1, p2 := matpos(2*v, 2*v+1), matpos(2*v+1, 2*v)
	m.mat[p1], m.mat[p2] = m.mat[p2], m.mat[p1]
}

// translate shifts every bound involving v by the assignment
// x := x + [−a, b]: bounds on expressions containing −x grow by a,
// bounds on +x grow by b.
func (m *hmat) translate(v int, minf, sup float64) {
	for _, j := range m.rowIndices(v) {
		p1 := matpos2(2*v, j)
		p2 := matpos2(2*v+1, j)
		m.mat[p1] = badd(m.mat[p1], minf)
		m.mat[p2] = badd(m.mat[p2], sup)
	}
	p1, p2 := matpos(2*v, 2*v+1), matpos(2*v+1, 2*v)
	m.mat[p1] = badd(m.mat[p1], 2*minf)
	m.mat[p2] = badd(m.mat[p2], 2*sup)
}

// rowIndices lists the signed indices whose pairing with v is explicit:
// everything in dense mode, v's component otherwise.
func (m *hmat) rowIndices(v int) []int {
	if m.dense {
		idx := make([]int, 0, 2*m.dim-2)
		for j := 0; j < 2*m.dim; j++ {
			if j/2 != v {
				idx = append(idx, j)
			}
		}
		return idx
	}
	c := m.comps.find(v)
	if c == nil {
		return nil
	}
	idx := make([]int, 0, 2*c.size-2)
	for _, w := range c.members() {
		if w != v {
			idx = append(idx, 2*w, 2*w+1)
		}
	}
	return idx
}

// AssignLinexpr models x_d := e. Invertible unit assignments are exact
// and preserve closure; other shapes forget the target first. When
// dest is non-nil the result is met with it.
func (d *Domain) AssignLinexpr(destructive bool, o *Octagon, dv int, e linear.Expr, dest *Octagon) *Octagon {
	d.setup(2 * (o.dim + 6))
	if dv < 0 || dv >= o.dim {
		return nil
	}
	u := uexprOfLinexpr(e, o.dim)
	u.expr = e
	if dest != nil && dest.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	if u.typ == uexprEmpty {
		return result(o, nil, stateBottom, destructive)
	}
	// Closing first only pays off for non-invertible assignments.
	if u.typ != uexprUnary || u.i != dv {
		d.ensureClosed(o)
	}
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	respectClosure := o.st == stateClosed && d.closeEnabled() && dest == nil
	m := arg(o, destructive)
	d.assign(o, m, dv, u, &respectClosure)
	if u.typ == uexprBinary || u.typ == uexprOther {
		d.res.flagIncomplete()
	} else if o.intdim > 0 {
		d.res.flagIncomplete()
	} else if o.st != stateClosed {
		d.res.flagAlgo()
	}
	if dest != nil {
		rm, rd := reader(m), reader(dest.m)
		dense := m.dense || dest.m.dense
		var cs *components
		if !dense {
			cs = unionPartition(m.comps, dest.m.comps)
		}
		ewise(m, cs, dense, func(i, j int) float64 {
			return math.Min(rm(i, j), rd(i, j))
		})
		respectClosure = false
	}
	if respectClosure {
		return result(o, m, stateClosed, destructive)
	}
	return result(o, m, stateOpen, destructive)
}

// subst applies the backward assignment x_d := e. Returns definite
// emptiness. The matrix is densified first; online decomposition of
// substitution is not attempted.
func (d *Domain) subst(o *Octagon, m *hmat, dv int, u uexpr, respectClosure *bool) bool {
	m.toDense()
	n := 2 * o.dim
	switch {
	case u.typ == uexprZero:
		// x_d was [−a, b]; check the store admits it.
		if badd(2*u.minf, m.mat[matpos(2*dv+1, 2*dv)]) < 0 ||
			badd(2*u.sup, m.mat[matpos(2*dv, 2*dv+1)]) < 0 {
			return true
		}
		*respectClosure = false
		// Unary bounds on other variables from their relation to x_d.
		for i := 0; i < n; i++ {
			if i/2 == dv {
				continue
			}
			t1 := badd(u.minf, m.mat[matpos2(2*dv+1, i^1)])
			t2 := badd(u.sup, m.mat[matpos2(2*dv, i^1)])
			p := matpos2(i, i^1)
			m.mat[p] = math.Min(m.mat[p], math.Min(badd(t1, t1), badd(t2, t2)))
		}
		m.forgetVar(dv)
		return false
	case u.typ == uexprUnary && u.i != dv:
		k := node(u.i, u.ci)
		if badd(u.minf, m.mat[matpos2(k, 2*dv)]) < 0 ||
			badd(u.sup, m.mat[matpos2(2*dv, k)]) < 0 {
			return true
		}
		*respectClosure = false
		// Binary constraints by substituting v(k) for x_d.
		for i := 0; i < n; i++ {
			if i/2 == dv || i/2 == u.i {
				continue
			}
			t1 := badd(u.minf, m.mat[matpos2(2*dv+1, i)])
			t2 := badd(u.sup, m.mat[matpos2(2*dv, i)])
			p1 := matpos2(k^1, i)
			p2 := matpos2(k, i)
			m.mat[p1] = math.Min(m.mat[p1], t1)
			m.mat[p2] = math.Min(m.mat[p2], t2)
		}
		// Unary constraints on xᵢ itself.
		t1 := badd(2*u.minf, m.mat[matpos(2*dv+1, 2*dv)])
		t2 := badd(2*u.sup, m.mat[matpos(2*dv, 2*dv+1)])
		p1, p2 := matpos2(k^1, k), matpos2(k, k^1)
		m.mat[p1] = math.Min(m.mat[p1], t1)
		m.mat[p2] = math.Min(m.mat[p2], t2)
		m.forgetVar(dv)
		return false
	case u.typ == uexprUnary && u.ci == -1:
		// x → −x + [−a, b] is an involution; same as the assignment.
		d.assign(o, m, dv, u, respectClosure)
		return false
	case u.typ == uexprUnary:
		// x → x + [−a, b] inverts to x := x + [−b, a].
		u.minf, u.sup = u.sup, u.minf
		d.assign(o, m, dv, u, respectClosure)
		return false
	default:
		// General case: approximate by dropping x_d.
		d.res.flagIncomplete()
		m.forgetVar(dv)
		return false
	}
}

// SubstituteLinexpr models the backward assignment: the result holds
// the states that reach o through x_d := e. Dual of AssignLinexpr.
func (d *Domain) SubstituteLinexpr(destructive bool, o *Octagon, dv int, e linear.Expr, dest *Octagon) *Octagon {
	d.setup(2 * (o.dim + 6))
	if dv < 0 || dv >= o.dim {
		return nil
	}
	u := uexprOfLinexpr(e, o.dim)
	u.expr = e
	if dest != nil && dest.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	if u.typ == uexprEmpty {
		return result(o, nil, stateBottom, destructive)
	}
	if u.typ != uexprUnary || u.i != dv {
		d.ensureClosed(o)
	}
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	respectClosure := o.st == stateClosed && d.closeEnabled() && dest == nil
	m := arg(o, destructive)
	if d.subst(o, m, dv, u, &respectClosure) {
		return result(o, nil, stateBottom, destructive)
	}
	if u.typ == uexprBinary || u.typ == uexprOther {
		d.res.flagIncomplete()
	} else if o.intdim > 0 {
		d.res.flagIncomplete()
	} else if o.st != stateClosed {
		d.res.flagAlgo()
	}
	if dest != nil {
		dm := dest.m.copy()
		dm.toDense()
		for i := range m.mat {
			m.mat[i] = math.Min(m.mat[i], dm.mat[i])
		}
		respectClosure = false
	}
	if respectClosure {
		return result(o, m, stateClosed, destructive)
	}
	return result(o, m, stateOpen, destructive)
}

// AssignLinexprArray performs a parallel assignment through temporary
// dimensions: each expression is evaluated against the pre-state, the
// temporaries are closed, and a permutation folds them back onto their
// targets. Duplicate targets are rejected.
func (d *Domain) AssignLinexprArray(destructive bool, o *Octagon, targets []int, es []linear.Expr, dest *Octagon) *Octagon {
	if len(targets) != len(es) || len(targets) == 0 {
		return nil
	}
	if len(targets) == 1 {
		return d.AssignLinexpr(destructive, o, targets[0], es[0], dest)
	}
	d.setup(2 * (o.dim + len(targets) + 6))
	seen := make([]bool, o.dim)
	for _, t := range targets {
		if t < 0 || t >= o.dim || seen[t] {
			return nil
		}
		seen[t] = true
	}
	if dest != nil && dest.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	d.ensureClosed(o)
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	size := len(targets)
	// Widen with fresh temporaries holding the destinations.
	wide := d.AddDimensions(false, o, linear.Dimchange{At: tailPositions(o.dim, size)}, false)
	m := wide.m
	inexact := false
	respectClosure := false
	for i, e := range es {
		u := uexprOfLinexpr(e, o.dim)
		u.expr = e
		if u.typ == uexprEmpty {
			return result(o, nil, stateBottom, destructive)
		}
		if u.typ == uexprBinary || u.typ == uexprOther {
			inexact = true
		}
		d.assign(wide, m, o.dim+i, u, &respectClosure)
	}
	wide.st = stateOpen
	if d.closeEnabled() {
		if strongClosure(m, d.tmp, d.integer(o)) {
			return result(o, nil, stateBottom, destructive)
		}
		wide.st = stateClosed
	} else {
		d.res.flagAlgo()
	}
	// Fold each temporary back onto its target.
	perm := make(linear.Dimperm, o.dim+size)
	for i := 0; i < o.dim; i++ {
		perm[i] = i
	}
	spare := o.dim
	for i, t := range targets {
		perm[o.dim+i] = t
		perm[t] = spare
		spare++
	}
	wide = d.Permute(true, wide, perm)
	narrow := d.RemoveDimensions(true, wide, linear.Dimchange{At: rangePositions(o.dim, size)})
	m = narrow.m
	if dest != nil {
		dm := dest.m.copy()
		dm.toDense()
		m.toDense()
		for i := range m.mat {
			m.mat[i] = math.Min(m.mat[i], dm.mat[i])
		}
	}
	if inexact || o.intdim > 0 {
		d.res.flagIncomplete()
	} else if o.st != stateClosed {
		d.res.flagAlgo()
	}
	return result(o, m, stateOpen, destructive)
}

// SubstituteLinexprArray is the backward counterpart of
// AssignLinexprArray, running the single-variable substitution through
// the same temporary-dimension scheme.
func (d *Domain) SubstituteLinexprArray(destructive bool, o *Octagon, targets []int, es []linear.Expr, dest *Octagon) *Octagon {
	if len(targets) != len(es) || len(targets) == 0 {
		return nil
	}
	if len(targets) == 1 {
		return d.SubstituteLinexpr(destructive, o, targets[0], es[0], dest)
	}
	d.setup(2 * (o.dim + len(targets) + 6))
	seen := make([]bool, o.dim)
	for _, t := range targets {
		if t < 0 || t >= o.dim || seen[t] {
			return nil
		}
		seen[t] = true
	}
	if dest != nil && dest.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	d.ensureClosed(o)
	if o.isBottom() {
		return result(o, nil, stateBottom, destructive)
	}
	size := len(targets)
	wide := d.AddDimensions(false, o, linear.Dimchange{At: tailPositions(o.dim, size)}, false)
	m := wide.m
	m.toDense()
	// Move each target onto its temporary, then substitute there.
	for i, t := range targets {
		dst, src := 2*(o.dim+i), 2*t
		for j := 0; j < 2*(o.dim+size); j++ {
			if j/2 == t || j/2 == o.dim+i {
				continue
			}
			m.mat[matpos2(dst, j)] = m.mat[matpos2(src, j)]
			m.mat[matpos2(dst+1, j)] = m.mat[matpos2(src+1, j)]
		}
		m.mat[matpos(dst+1, dst)] = m.mat[matpos(src+1, src)]
		m.mat[matpos(dst, dst+1)] = m.mat[matpos(src, src+1)]
		m.forgetVar(t)
	}
	inexact := false
	respectClosure := false
	for i, e := range es {
		u := uexprOfLinexpr(e, o.dim)
		u.expr = e
		if u.typ == uexprEmpty {
			return result(o, nil, stateBottom, destructive)
		}
		if u.typ == uexprBinary || u.typ == uexprOther {
			inexact = true
		}
		if d.subst(wide, m, o.dim+i, u, &respectClosure) {
			return result(o, nil, stateBottom, destructive)
		}
	}
	wide.st = stateOpen
	if d.closeEnabled() {
		if strongClosure(m, d.tmp, d.integer(o)) {
			return result(o, nil, stateBottom, destructive)
		}
		wide.st = stateClosed
	} else {
		d.res.flagAlgo()
	}
	perm := make(linear.Dimperm, o.dim+size)
	for i := 0; i < o.dim; i++ {
		perm[i] = i
	}
	spare := o.dim
	for i, t := range targets {
		perm[o.dim+i] = t
		perm[t] = spare
		spare++
	}
	wide = d.Permute(true, wide, perm)
	narrow := d.RemoveDimensions(true, wide, linear.Dimchange{At: rangePositions(o.dim, size)})
	m = narrow.m
	if dest != nil {
		dm := dest.m.copy()
		dm.toDense()
		m.toDense()
		for i := range m.mat {
			m.mat[i] = math.Min(m.mat[i], dm.mat[i])
		}
	}
	if inexact || o.intdim > 0 {
		d.res.flagIncomplete()
	} else if o.st != stateClosed {
		d.res.flagAlgo()
	}
	return result(o, m, stateOpen, destructive)
}

// tailPositions builds the dimension-change positions appending count
// dimensions at the end.
func tailPositions(dim, count int) []int {
	at := make([]int, count)
	for i := range at {
		at[i] = dim
	}
	return at
}

// rangePositions lists the indices of count trailing dimensions, for
// removing the temporaries again.
func rangePositions(dim, count int) []int {
	at := make([]int, count)
	for i := range at {
		at[i] = dim + i
	}
	return at
}
