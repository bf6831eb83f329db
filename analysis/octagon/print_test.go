package octagon

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cs-au-dk/octagon/analysis/linear"

	"github.com/sebdah/goldie/v2"
)

func printSample(t *testing.T) (*Domain, *Octagon) {
	t.Helper()
	d := NewDomain(Config{})
	o := d.OfBox(0, []linear.Interval{
		{Lo: 0, Hi: 2},
		linear.FullInterval(),
	})
	return d, o
}

func TestPrintMatrix(t *testing.T) {
	d, o := printSample(t)
	var buf bytes.Buffer
	d.PrintMatrix(&buf, o)
	goldie.New(t).Assert(t, t.Name(), buf.Bytes())
}

func TestPrintDecomposed(t *testing.T) {
	d, o := printSample(t)
	var buf bytes.Buffer
	d.PrintDecomposed(&buf, o)
	goldie.New(t).Assert(t, t.Name(), buf.Bytes())
}

func TestPrintBottom(t *testing.T) {
	d := NewDomain(Config{})
	var buf bytes.Buffer
	d.PrintMatrix(&buf, d.Bottom(3, 0))
	if buf.String() != "0\n" {
		t.Errorf("bottom dump = %q, expected %q", buf.String(), "0\n")
	}
}

// The dense dump of an octagon is the same whether the octagon is
// stored decomposed or dense.
func TestPrintDenseSparseAgree(t *testing.T) {
	d, o := printSample(t)
	dense := o.Copy()
	dense.m.toDense()
	var a, b bytes.Buffer
	d.PrintMatrix(&a, o)
	d.PrintMatrix(&b, dense)
	if a.String() != b.String() {
		t.Errorf("dense dump differs between representations:\n%s\nvs\n%s", a.String(), b.String())
	}
}

func TestFprintConstraints(t *testing.T) {
	d, o := printSample(t)
	var buf bytes.Buffer
	d.Fprint(&buf, o)
	out := buf.String()
	for _, want := range []string{"octagon of dim", "x0"} {
		if !strings.Contains(out, want) {
			t.Errorf("constraint print misses %q:\n%s", want, out)
		}
	}
}

func TestDumpDot(t *testing.T) {
	d, o := printSample(t)
	g := d.DumpDot(o)
	var buf bytes.Buffer
	if err := g.WriteDot(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"digraph ConstraintGraph", "cluster_0", "x1"} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output misses %q:\n%s", want, out)
		}
	}
}
