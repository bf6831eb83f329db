package octagon

import (
	"math"
	"testing"

	"github.com/cs-au-dk/octagon/analysis/linear"
)

func TestUexprClassification(t *testing.T) {
	tests := []struct {
		e   linear.Expr
		typ uexprType
	}{
		{linear.ConstExpr(linear.EmptyInterval()), uexprEmpty},
		{linear.ConstExpr(linear.PointInterval(3)), uexprZero},
		{linear.VarExpr(0, 1, 2), uexprUnary},
		{linear.VarExpr(1, -1, 0), uexprUnary},
		{linear.NewExpr(linear.PointInterval(0), term(0, 1), term(1, -1)), uexprBinary},
		{linear.NewExpr(linear.PointInterval(0), term(0, 2)), uexprOther},
		{linear.NewExpr(linear.PointInterval(0), term(0, 1), term(1, 1), term(2, 1)), uexprOther},
		{linear.NewExpr(linear.PointInterval(0), term(5, 1)), uexprOther}, // out of range
	}
	for _, test := range tests {
		if got := uexprOfLinexpr(test.e, 3).typ; got != test.typ {
			t.Errorf("classify(%s) = %v, expected %v", test.e, got, test.typ)
		}
	}
}

func TestAssignInterval(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2, le(1, term(0, 1), term(1, -1)))
	r := d.AssignLinexpr(false, o, 0, linear.ConstExpr(linear.Interval{Lo: 2, Hi: 4}), nil)
	d.Close(r)
	box := d.ToBox(r)
	if !approxEq(box[0].Lo, 2) || !approxEq(box[0].Hi, 4) {
		t.Errorf("x0 = %s after x0 := [2,4]", box[0])
	}
	// The old relation on x0 is gone.
	if got := entry(r, 1, 3); !math.IsInf(got, 1) {
		t.Errorf("stale relation survived assignment: %v", got)
	}
}

func TestAssignTranslation(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2,
		le(5, term(0, 1)), le(0, term(0, -1)),
		le(1, term(0, 1), term(1, -1)))
	// x0 := x0 + 1 shifts bounds and keeps relations shifted.
	r := d.AssignLinexpr(false, o, 0, linear.VarExpr(0, 1, 1), nil)
	if r.st != stateClosed {
		t.Errorf("invertible translation should preserve closure, got %s", r)
	}
	box := d.ToBox(r)
	if !approxEq(box[0].Lo, 1) || !approxEq(box[0].Hi, 6) {
		t.Errorf("x0 = %s after x0 := x0 + 1, expected [1, 6]", box[0])
	}
	if !d.SatLincons(r, le(2, term(0, 1), term(1, -1))) {
		t.Error("x0 − x1 ≤ 2 should hold after the shift")
	}

	// x0 := −x0 mirrors the interval.
	neg := d.AssignLinexpr(false, o, 0, linear.VarExpr(0, -1, 0), nil)
	d.Close(neg)
	box = d.ToBox(neg)
	if !approxEq(box[0].Lo, -5) || !approxEq(box[0].Hi, 0) {
		t.Errorf("x0 = %s after x0 := −x0, expected [-5, 0]", box[0])
	}
}

func TestAssignCopy(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2, le(5, term(1, 1)), le(-2, term(1, -1)))
	// x0 := x1 ties the two variables.
	r := d.AssignLinexpr(false, o, 0, linear.VarExpr(1, 1, 0), nil)
	d.Close(r)
	box := d.ToBox(r)
	if !approxEq(box[0].Lo, 2) || !approxEq(box[0].Hi, 5) {
		t.Errorf("x0 = %s after x0 := x1, expected [2, 5]", box[0])
	}
	if !d.SatLincons(r, eq(0, term(0, 1), term(1, -1))) {
		t.Error("x0 = x1 should be entailed after the copy assignment")
	}
}

func TestSubstituteInvertsAssign(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2,
		le(5, term(0, 1)), le(0, term(0, -1)),
		le(3, term(1, 1)), le(0, term(1, -1)))
	e := linear.VarExpr(0, 1, 1) // x0 + 1
	assigned := d.AssignLinexpr(false, o, 0, e, nil)
	back := d.SubstituteLinexpr(false, assigned, 0, e, nil)
	d.Close(back)
	requireEq(t, d, o, back, "substitute ∘ assign on an invertible expression")
}

func TestSubstituteNonInvertible(t *testing.T) {
	d := NewDomain(Config{})
	// After x0 := x1, states satisfy x0 = x1. The preimage of x0 ∈ [0, 1]
	// constrains x1, not x0.
	post := fromCons(t, d, 2, le(1, term(0, 1)), le(0, term(0, -1)))
	pre := d.SubstituteLinexpr(false, post, 0, linear.VarExpr(1, 1, 0), nil)
	d.Close(pre)
	if pre.isBottom() {
		t.Fatal("preimage should not be empty")
	}
	box := d.ToBox(pre)
	if !approxEq(box[1].Lo, 0) || !approxEq(box[1].Hi, 1) {
		t.Errorf("x1 = %s in the preimage, expected [0, 1]", box[1])
	}
	if !box[0].IsFull() {
		t.Errorf("x0 = %s in the preimage, expected unconstrained", box[0])
	}
}

func TestParallelAssignSwap(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2,
		le(5, term(0, 1)), le(0, term(0, -1)),
		le(9, term(1, 1)), le(-8, term(1, -1)))
	// x0, x1 := x1, x0 must use the pre-state on both right-hand sides.
	r := d.AssignLinexprArray(false, o,
		[]int{0, 1},
		[]linear.Expr{linear.VarExpr(1, 1, 0), linear.VarExpr(0, 1, 0)},
		nil)
	d.Close(r)
	box := d.ToBox(r)
	if !approxEq(box[0].Lo, 8) || !approxEq(box[0].Hi, 9) {
		t.Errorf("x0 = %s after swap, expected [8, 9]", box[0])
	}
	if !approxEq(box[1].Lo, 0) || !approxEq(box[1].Hi, 5) {
		t.Errorf("x1 = %s after swap, expected [0, 5]", box[1])
	}
}

func TestParallelAssignRejectsDuplicates(t *testing.T) {
	d := NewDomain(Config{})
	o := d.Top(2, 0)
	r := d.AssignLinexprArray(false, o,
		[]int{0, 0},
		[]linear.Expr{linear.ConstExpr(linear.PointInterval(1)), linear.ConstExpr(linear.PointInterval(2))},
		nil)
	if r != nil {
		t.Error("duplicate targets should be rejected")
	}
}

func TestMeetLinconsSkipsNonOctagonal(t *testing.T) {
	d := NewDomain(Config{})
	o := d.MeetLincons(false, d.Top(2, 0), []linear.Cons{
		{Expr: linear.VarExpr(0, 1, 0), Typ: linear.ConsDisEq},
		le(3, term(0, 1)),
	})
	if o.st == stateClosed {
		t.Error("skipped constraint should clear the closure guarantee")
	}
	if !d.Result().Incomplete {
		t.Error("skipping ≠ should flag incompleteness")
	}
	d.Close(o)
	box := d.ToBox(o)
	if !approxEq(box[0].Hi, 3) {
		t.Errorf("x0 upper bound = %v, expected 3", box[0].Hi)
	}
	if !math.IsInf(box[0].Lo, -1) {
		t.Errorf("x0 lower bound = %v, expected -∞", box[0].Lo)
	}
}

func TestMeetLinconsStrict(t *testing.T) {
	d := NewDomain(Config{Integer: true})
	// x0 < 3 over the integers is x0 ≤ 2.
	o := d.MeetLincons(false, d.Top(1, 0), []linear.Cons{{
		Expr: linear.NewExpr(linear.PointInterval(3), term(0, -1)),
		Typ:  linear.ConsSup,
	}})
	d.Close(o)
	if got := d.ToBox(o)[0].Hi; !approxEq(got, 2) {
		t.Errorf("integer x0 < 3 gave upper bound %v, expected 2", got)
	}
}

func TestOfBox(t *testing.T) {
	d := NewDomain(Config{})
	o := d.OfBox(0, []linear.Interval{
		{Lo: 0, Hi: 5},
		linear.FullInterval(),
		{Lo: -1, Hi: 1},
	})
	if o.st != stateClosed {
		t.Fatalf("OfBox should build a closed octagon, got %s", o)
	}
	box := d.ToBox(o)
	if !approxEq(box[0].Lo, 0) || !approxEq(box[0].Hi, 5) {
		t.Errorf("x0 = %s, expected [0, 5]", box[0])
	}
	if !box[1].IsFull() {
		t.Errorf("x1 = %s, expected full", box[1])
	}
	if !d.IsDimensionUnconstrained(o, 1) {
		t.Error("x1 should be unconstrained")
	}
	empty := d.OfBox(0, []linear.Interval{linear.EmptyInterval()})
	if !d.IsBottom(empty) {
		t.Error("an empty interval should produce ⊥")
	}
}

func TestSatInterval(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 1, le(4, term(0, 1)), le(0, term(0, -1)))
	if !d.SatInterval(o, 0, linear.Interval{Lo: -1, Hi: 5}) {
		t.Error("x0 ∈ [0,4] should saturate [-1,5]")
	}
	if d.SatInterval(o, 0, linear.Interval{Lo: 1, Hi: 5}) {
		t.Error("x0 ∈ [0,4] should not saturate [1,5]")
	}
	if d.SatInterval(o, 7, linear.FullInterval()) {
		t.Error("out-of-range dimension should answer false")
	}
}

func TestBoundDimension(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2, le(4, term(0, 1)), le(0, term(0, -1)))
	itv := d.BoundDimension(o, 0)
	if !approxEq(itv.Lo, 0) || !approxEq(itv.Hi, 4) {
		t.Errorf("bound(x0) = %s, expected [0, 4]", itv)
	}
	if !d.BoundDimension(o, 1).IsFull() {
		t.Error("bound of an unconstrained dimension should be full")
	}
	if !d.BoundDimension(o, 9).IsFull() {
		t.Error("out-of-range dimension should bound to the full interval")
	}
	if !d.BoundDimension(d.Bottom(2, 0), 0).IsEmpty() {
		t.Error("bound on ⊥ should be empty")
	}
}
