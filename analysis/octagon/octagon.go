package octagon

import (
	"errors"
	"fmt"
	"math"

	"github.com/cs-au-dk/octagon/analysis/linear"
	"github.com/cs-au-dk/octagon/utils"
)

var (
	errInternal     = errors.New("internal error")
	errPatternMatch = func(v interface{}) error {
		return fmt.Errorf("invalid pattern match: %v %T", v, v)
	}
)

// state tags the lifecycle of an octagon value.
type state int

const (
	// stateBottom is the empty octagon; it has no matrix and is
	// terminal under every transfer.
	stateBottom state = iota
	// stateOpen holds a matrix that is not known to be strongly
	// closed.
	stateOpen
	// stateClosed holds the canonical, strongly closed matrix.
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateBottom:
		return "⊥"
	case stateOpen:
		return "open"
	case stateClosed:
		return "closed"
	}
	panic(errInternal)
}

// Octagon is a value of the octagon abstract domain: a conjunction of
// constraints ±xᵢ ± xⱼ ≤ c over dim variables, the first intdim of
// which are integer-valued. The matrix is held in exactly one of the
// states Bottom (no matrix), Open, or Closed; there is never both an
// open and a closed copy.
type Octagon struct {
	dim    int
	intdim int
	st     state
	m      *hmat
}

// Dim returns the number of variables.
func (o *Octagon) Dim() int { return o.dim }

// IntDim returns the number of integer-valued variables.
func (o *Octagon) IntDim() int { return o.intdim }

// Dimension returns the (integer, real) dimension split.
func (o *Octagon) Dimension() (intdim, realdim int) {
	return o.intdim, o.dim - o.intdim
}

// isBottom is the definite emptiness check on the representation.
func (o *Octagon) isBottom() bool { return o.st == stateBottom }

func (o *Octagon) String() string {
	if o.isBottom() {
		return fmt.Sprintf("⊥ octagon of dim (%d,%d)", o.intdim, o.dim-o.intdim)
	}
	return fmt.Sprintf("%s octagon of dim (%d,%d)", o.st, o.intdim, o.dim-o.intdim)
}

// Copy deep-copies the octagon. The copy owns its matrix exclusively.
func (o *Octagon) Copy() *Octagon {
	return &Octagon{dim: o.dim, intdim: o.intdim, st: o.st, m: o.m.copy()}
}

// Free releases the matrix and partition. The octagon must not be used
// afterwards; a second Free is the caller's misuse.
func (o *Octagon) Free() {
	o.m = nil
	o.st = stateBottom
}

// Result is the ambient record of precision flags set by the last
// operation on a Domain. All failures in the core are soft: the result
// octagon is always a sound over-approximation, and these flags say how
// tight it is.
type Result struct {
	// Exact is cleared when the answer may not be the tightest
	// octagon (or truth value) expressible.
	Exact bool
	// Incomplete is set when a definite answer was not reached on ℚ.
	Incomplete bool
	// Conv is set on numeric conversion imprecision.
	Conv bool
	// Algo is set when closure was skipped by option.
	Algo bool
}

func (r *Result) flagIncomplete() {
	r.Exact = false
	r.Incomplete = true
}

func (r *Result) flagAlgo() {
	r.Exact = false
	r.Algo = true
}

func (r *Result) flagConv() {
	r.Exact = false
	r.Conv = true
}

// Domain carries the options, precision flags and scratch buffers
// shared by all operations; it is the analog of the manager-internal
// state of the host analyzer. A Domain is not safe for concurrent use.
type Domain struct {
	cfg Config
	res Result
	tmp []float64
}

// NewDomain builds a domain with the given configuration.
func NewDomain(cfg Config) *Domain {
	return &Domain{cfg: cfg.withDefaults()}
}

// Config returns the domain's configuration.
func (d *Domain) Config() Config { return d.cfg }

// Result returns the flags of the most recent operation.
func (d *Domain) Result() Result { return d.res }

// setup resets the flags and grows the scratch buffer, as every
// operation does on entry.
func (d *Domain) setup(size int) {
	d.res = Result{Exact: true}
	if len(d.tmp) < size {
		d.tmp = make([]float64, size)
	}
}

// closeEnabled reports whether closure may be triggered lazily, per the
// algorithm option.
func (d *Domain) closeEnabled() bool { return d.cfg.Algorithm >= 0 }

// Top builds the octagon with no constraints: all +∞ with a zero
// diagonal, empty partition, closed.
func (d *Domain) Top(dim, intdim int) *Octagon {
	d.setup(0)
	return &Octagon{dim: dim, intdim: intdim, st: stateClosed, m: newHmat(dim)}
}

// Bottom builds the empty octagon.
func (d *Domain) Bottom(dim, intdim int) *Octagon {
	d.setup(0)
	return &Octagon{dim: dim, intdim: intdim, st: stateBottom}
}

// OfBox builds the octagon with one interval constraint per dimension.
// An empty interval yields Bottom. A single strengthening pass suffices
// to close the result.
func (d *Domain) OfBox(intdim int, itvs []linear.Interval) *Octagon {
	dim := len(itvs)
	d.setup(2 * dim)
	o := &Octagon{dim: dim, intdim: intdim, st: stateBottom}
	for _, itv := range itvs {
		if itv.IsEmpty() {
			return o
		}
	}
	m := newHmat(dim)
	for i, itv := range itvs {
		if itv.IsFull() {
			continue
		}
		m.comps.add(i)
		// m[2i][2i+1] bounds −2xᵢ, m[2i+1][2i] bounds 2xᵢ.
		m.mat[matpos(2*i, 2*i+1)] = badd(-itv.Lo, -itv.Lo)
		m.mat[matpos(2*i+1, 2*i)] = badd(itv.Hi, itv.Hi)
		m.nni += 2
	}
	if strongClosureComp(m, d.tmp, d.integer(o)) {
		return o
	}
	o.st = stateClosed
	o.m = m
	return o
}

// integer reports whether closure must tighten with integer floors.
func (d *Domain) integer(o *Octagon) bool {
	return d.cfg.Integer || (o.dim > 0 && o.intdim == o.dim)
}

// Close transitions Open → Closed in place, or to Bottom if closure
// detects emptiness. No-op on Bottom and Closed values.
func (d *Domain) Close(o *Octagon) {
	d.setup(2 * o.dim)
	d.close(o)
}

func (d *Domain) close(o *Octagon) {
	if o.st != stateOpen {
		return
	}
	if len(d.tmp) < 2*o.dim {
		d.tmp = make([]float64, 2*o.dim)
	}
	if strongClosure(o.m, d.tmp, d.integer(o)) {
		utils.Logger().Debug("closure detected emptiness", "dim", o.dim)
		o.m = nil
		o.st = stateBottom
		return
	}
	o.st = stateClosed
}

// ensureClosed closes lazily when the algorithm option allows it.
func (d *Domain) ensureClosed(o *Octagon) {
	if d.closeEnabled() {
		d.close(o)
	}
}

// CacheClosure brings o into canonical form when lazy closure is
// enabled; with closure disabled by option it is a no-op.
func (d *Domain) CacheClosure(o *Octagon) {
	d.setup(2 * o.dim)
	d.ensureClosed(o)
}

// Hash returns an order-dependent numeric hash of the matrix.
func (d *Domain) Hash(o *Octagon) int {
	d.setup(0)
	d.ensureClosed(o)
	if o.isBottom() {
		return 0
	}
	o.m.toDense()
	r := 0
	for i := 0; i < 2*o.dim; i++ {
		for j := 0; j <= (i | 1); j++ {
			if v := o.m.mat[matpos(i, j)]; !math.IsInf(v, 1) {
				r = r*37 + int(v)
			} else {
				r = r*37 + 1
			}
		}
	}
	return r
}

// arg returns the working copy of o's matrix for a destructive or
// fresh-result operation, per the single-owner model.
func arg(o *Octagon, destructive bool) *hmat {
	if destructive {
		return o.m
	}
	return o.m.copy()
}

// result rebinds o (destructive) or builds a fresh octagon around m.
func result(o *Octagon, m *hmat, st state, destructive bool) *Octagon {
	if destructive {
		o.m = m
		o.st = st
		if m == nil {
			o.st = stateBottom
		}
		return o
	}
	r := &Octagon{dim: o.dim, intdim: o.intdim, st: st, m: m}
	if m == nil {
		r.st = stateBottom
	}
	return r
}
