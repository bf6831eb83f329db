package octagon

import (
	"fmt"
	"io"
	"math"

	"github.com/cs-au-dk/octagon/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Dim   func(...interface{}) string
	Bound func(...interface{}) string
	Comp  func(...interface{}) string
	Empty func(...interface{}) string
}{
	Dim: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Bound: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Comp: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Empty: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
}

// bstr renders a bound with +∞ as the literal "inf" and a negative
// zero as plain "0".
func bstr(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%g", v)
}

// PrintMatrix writes the dense text dump: the dimension count on the
// first line, then the full 2n×2n matrix row by row.
func (d *Domain) PrintMatrix(w io.Writer, o *Octagon) {
	d.setup(0)
	if o.isBottom() {
		fmt.Fprintln(w, 0)
		return
	}
	fmt.Fprintln(w, o.dim)
	r := reader(o.m)
	for i := 0; i < 2*o.dim; i++ {
		for j := 0; j < 2*o.dim; j++ {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprint(w, bstr(r(i, j)))
		}
		fmt.Fprintln(w)
	}
}

// PrintDecomposed writes the decomposed text dump: the dimension count,
// then each component's member list followed by its dense block.
func (d *Domain) PrintDecomposed(w io.Writer, o *Octagon) {
	d.setup(0)
	if o.isBottom() {
		fmt.Fprintln(w, 0)
		return
	}
	fmt.Fprintln(w, o.dim)
	var m *hmat
	if o.m.dense {
		m = o.m.copy()
		m.toSparse()
	} else {
		m = o.m
	}
	r := reader(m)
	for _, block := range m.comps.blocks() {
		for k, v := range block {
			if k > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprint(w, v)
		}
		fmt.Fprintln(w)
		idx := signedIndices(block)
		for _, i := range idx {
			for k, j := range idx {
				if k > 0 {
					fmt.Fprint(w, " ")
				}
				fmt.Fprint(w, bstr(r(i, j)))
			}
			fmt.Fprintln(w)
		}
	}
}

// Fprint writes the octagon as a list of constraints, one per line,
// colorized for terminals. Unclosed arguments print their stored
// matrix as-is.
func (d *Domain) Fprint(w io.Writer, o *Octagon) {
	d.setup(0)
	if o.isBottom() {
		fmt.Fprintf(w, "%s octagon of dim (%d,%d)\n",
			colorize.Empty("empty"), o.intdim, o.dim-o.intdim)
		return
	}
	fmt.Fprintf(w, "octagon of dim (%s,%s)\n",
		colorize.Dim(o.intdim), colorize.Dim(o.dim-o.intdim))
	for _, c := range d.ToLincons(o) {
		fmt.Fprintf(w, "  %s\n", colorize.Bound(c.String()))
	}
	if !o.m.dense {
		fmt.Fprintf(w, "  components: %s\n", colorize.Comp(o.m.comps.String()))
	}
}
