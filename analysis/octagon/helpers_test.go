package octagon

import (
	"math"
	"testing"

	"github.com/cs-au-dk/octagon/analysis/linear"
)

// term abbreviates a coefficient–dimension pair.
func term(dim int, coeff float64) linear.Term {
	return linear.Term{Dim: dim, Coeff: coeff}
}

// le builds the constraint Σ terms ≤ c as the expression −Σ terms + c ≥ 0.
func le(c float64, terms ...linear.Term) linear.Cons {
	neg := make([]linear.Term, len(terms))
	for i, t := range terms {
		neg[i] = linear.Term{Dim: t.Dim, Coeff: -t.Coeff}
	}
	return linear.Cons{
		Expr: linear.NewExpr(linear.PointInterval(c), neg...),
		Typ:  linear.ConsSupEq,
	}
}

// eq builds the constraint Σ terms = c.
func eq(c float64, terms ...linear.Term) linear.Cons {
	neg := make([]linear.Term, len(terms))
	for i, t := range terms {
		neg[i] = linear.Term{Dim: t.Dim, Coeff: -t.Coeff}
	}
	return linear.Cons{
		Expr: linear.NewExpr(linear.PointInterval(c), neg...),
		Typ:  linear.ConsEq,
	}
}

// fromCons builds a closed octagon over dim variables from constraints.
func fromCons(t *testing.T, d *Domain, dim int, cons ...linear.Cons) *Octagon {
	t.Helper()
	o := d.MeetLincons(true, d.Top(dim, 0), cons)
	d.Close(o)
	return o
}

// entry reads a coherent matrix entry, +∞-aware.
func entry(o *Octagon, i, j int) float64 {
	if o.isBottom() {
		panic("entry on ⊥")
	}
	return o.m.at(i, j)
}

func approxEq(a, b float64) bool {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return math.IsInf(a, 1) && math.IsInf(b, 1)
	}
	return math.Abs(a-b) < 1e-9
}

// requireEq fails unless the two octagons have equal concretizations.
func requireEq(t *testing.T, d *Domain, a, b *Octagon, msg string) {
	t.Helper()
	if !d.Eq(a, b) {
		t.Errorf("%s: octagons differ\n  a: %s\n  b: %s", msg, a, b)
	}
}
