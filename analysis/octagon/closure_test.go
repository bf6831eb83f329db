package octagon

import (
	"math"
	"testing"

	"github.com/cs-au-dk/octagon/analysis/linear"
)

// closing a closed matrix must be the identity.
func TestClosureIdempotent(t *testing.T) {
	d := NewDomain(Config{})
	tests := []*Octagon{
		fromCons(t, d, 2,
			le(5, term(0, 1)),
			le(3, term(0, 1), term(1, -1))),
		fromCons(t, d, 3,
			le(0, term(0, 1), term(1, 1)),
			le(2, term(1, 1), term(2, -1)),
			le(-1, term(2, -1))),
		d.Top(4, 0),
	}
	for _, o := range tests {
		before := o.Copy()
		before.st = stateOpen
		d.Close(before)
		requireEq(t, d, o, before, "close ∘ close = close")
	}
}

// Closure must not change the concretization: every constraint emitted
// after closure is entailed by the original system, and vice versa.
func TestClosureSoundness(t *testing.T) {
	d := NewDomain(Config{})
	lazy := NewDomain(Config{Algorithm: -1})
	open := lazy.MeetLincons(true, lazy.Top(3, 0), []linear.Cons{
		le(5, term(0, 1)),
		le(0, term(0, -1)),
		le(1, term(0, 1), term(1, -1)),
		le(4, term(1, 1), term(2, 1)),
	})
	closed := open.Copy()
	d.Close(closed)
	if closed.isBottom() {
		t.Fatal("satisfiable system closed to ⊥")
	}
	// γ is preserved: each side's constraints hold in the other.
	for _, c := range d.ToLincons(closed) {
		if !d.SatLincons(open, c) {
			// SatLincons closes its argument, so this direction holds
			// exactly when γ(open) ⊆ the constraint.
			t.Errorf("closure introduced a non-entailed constraint: %s", c)
		}
	}
	for _, c := range d.ToLincons(open) {
		if !d.SatLincons(closed, c) {
			t.Errorf("closure lost the constraint: %s", c)
		}
	}
}

// Incremental closure after a single constraint must agree with full
// strong closure.
func TestIncrementalMatchesFull(t *testing.T) {
	d := NewDomain(Config{})
	base := fromCons(t, d, 3,
		le(5, term(0, 1)),
		le(1, term(0, 1), term(1, -1)),
		le(7, term(2, 1)))
	extra := le(-2, term(1, 1), term(2, -1)) // x1 − x2 ≤ −2

	// Path 1: incremental (MeetLincons keeps a closed argument closed).
	inc := d.MeetLincons(false, base, []linear.Cons{extra})
	if inc.st != stateClosed {
		t.Fatalf("expected incremental closure to keep the state closed, got %s", inc)
	}

	// Path 2: full strong closure of the same system, assembled with
	// lazy closure disabled so no incremental step runs.
	lazy := NewDomain(Config{Algorithm: -1})
	full := lazy.MeetLincons(true, lazy.Top(3, 0), []linear.Cons{
		le(5, term(0, 1)),
		le(1, term(0, 1), term(1, -1)),
		le(7, term(2, 1)),
		extra,
	})
	d.Close(full)

	requireEq(t, d, inc, full, "incremental vs full closure")
}

// Integer tightening floors halved bounds.
func TestIntegerTightening(t *testing.T) {
	d := NewDomain(Config{Integer: true})
	// x0 + x1 ≤ 3 and x0 − x1 ≤ 0 imply 2x0 ≤ 3, so integer x0 ≤ 1.
	o := fromCons(t, d, 2,
		le(3, term(0, 1), term(1, 1)),
		le(0, term(0, 1), term(1, -1)))
	if o.isBottom() {
		t.Fatal("system is satisfiable, got ⊥")
	}
	if got := entry(o, 1, 0); !approxEq(got, 2) {
		t.Errorf("2x0 bound = %v, expected 2 (⌊3/2⌋ doubled)", got)
	}
	box := d.ToBox(o)
	if !approxEq(box[0].Hi, 1) {
		t.Errorf("x0 upper bound = %v, expected 1", box[0].Hi)
	}
}

// Dense and decomposed runs of the same operations agree entry-wise.
func TestDenseDecomposedEquivalence(t *testing.T) {
	d := NewDomain(Config{})
	build := func(dense bool) *Octagon {
		o := d.Top(4, 0)
		if dense {
			o.m.toDense()
		}
		o = d.MeetLincons(true, o, []linear.Cons{
			le(5, term(0, 1)),
			le(1, term(0, 1), term(1, -1)),
			le(3, term(2, 1), term(3, 1)),
		})
		d.Close(o)
		other := d.MeetLincons(true, d.Top(4, 0), []linear.Cons{
			le(4, term(0, 1)),
			le(2, term(1, 1), term(2, -1)),
		})
		d.Close(other)
		o = d.Join(true, o, other)
		return o
	}
	sparse := build(false)
	dense := build(true)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			a, b := sparse.m.at(i, j), dense.m.at(i, j)
			if !approxEq(a, b) {
				t.Errorf("entry (%d,%d): decomposed %v ≠ dense %v", i, j, a, b)
			}
		}
	}
	requireEq(t, d, sparse, dense, "dense vs decomposed")
}

// Coherence: the stored triangle serves both (i, j) and (j^1, i^1).
func TestCoherence(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 3,
		le(5, term(0, 1)),
		le(1, term(0, 1), term(1, -1)),
		le(4, term(1, 1), term(2, 1)))
	o.m.toDense()
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if o.m.mat[matpos2(i, j)] != o.m.mat[matpos2(j^1, i^1)] {
				t.Errorf("coherence violated at (%d,%d)", i, j)
			}
		}
	}
}

// matpos must address every offset of the backing array exactly from the
// stored triangle, and matpos2 must stay within it for every pair.
func TestMatposBounds(t *testing.T) {
	for dim := 1; dim <= 5; dim++ {
		size := matsize(dim)
		seen := make([]bool, size)
		for i := 0; i < 2*dim; i++ {
			for j := 0; j <= (i | 1); j++ {
				p := matpos(i, j)
				if p < 0 || p >= size {
					t.Fatalf("matpos(%d,%d) = %d out of bounds [0,%d)", i, j, p, size)
				}
				seen[p] = true
			}
		}
		for p, ok := range seen {
			if !ok {
				t.Errorf("dim %d: offset %d never addressed", dim, p)
			}
		}
		for i := 0; i < 2*dim; i++ {
			for j := 0; j < 2*dim; j++ {
				p := matpos2(i, j)
				if p < 0 || p >= size {
					t.Fatalf("matpos2(%d,%d) = %d out of bounds", i, j, p)
				}
			}
		}
	}
}

// NaN must never appear, even when incremental updates mix ±∞.
func TestNoNaN(t *testing.T) {
	d := NewDomain(Config{})
	o := fromCons(t, d, 2, le(3, term(0, 1)))
	o = d.AssignLinexpr(true, o, 0, linear.VarExpr(0, 1, 1), nil) // x0 := x0 + 1
	o = d.Widening(o, fromCons(t, d, 2, le(10, term(0, 1))))
	d.Close(o)
	if o.isBottom() {
		t.Fatal("unexpected ⊥")
	}
	for _, v := range o.m.mat {
		if math.IsNaN(v) {
			t.Fatal("NaN escaped into the matrix")
		}
	}
}
