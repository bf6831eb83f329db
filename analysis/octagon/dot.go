package octagon

import (
	"bytes"
	"fmt"
	"math"

	"github.com/cs-au-dk/octagon/utils"
	"github.com/cs-au-dk/octagon/utils/dot"
)

// DumpDot renders the octagon as a constraint graph: one node per
// variable carrying its interval, one cluster per component, and one
// edge per finite binary bound.
func (d *Domain) DumpDot(o *Octagon) *dot.DotGraph {
	g := &dot.DotGraph{
		Title:   o.String(),
		Options: map[string]string{"rankdir": "LR"},
	}
	if o.isBottom() {
		g.Nodes = append(g.Nodes, &dot.DotNode{
			ID:    "⊥",
			Attrs: dot.DotAttrs{"fillcolor": "lightcoral"},
		})
		return g
	}
	m := o.m.copy()
	if m.dense {
		m.toSparse()
	}
	nodes := make(map[int]*dot.DotNode, o.dim)
	mkNode := func(v int) *dot.DotNode {
		if n, ok := nodes[v]; ok {
			return n
		}
		n := &dot.DotNode{
			ID:    fmt.Sprintf("x%d %s", v, dimInterval(m, v)),
			Attrs: dot.DotAttrs{},
		}
		nodes[v] = n
		return n
	}
	for ci, block := range m.comps.blocks() {
		cluster := dot.NewDotCluster(fmt.Sprint(ci))
		cluster.Attrs["label"] = fmt.Sprintf("component %d", ci)
		for _, v := range block {
			cluster.Nodes = append(cluster.Nodes, mkNode(v))
		}
		g.Clusters = append(g.Clusters, cluster)
		for _, vi := range block {
			for _, vj := range block {
				if vj >= vi {
					continue
				}
				for _, s := range [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
					i, j := 2*vi+s[0], 2*vj+s[1]
					c := m.mat[matpos2(i, j)]
					if math.IsInf(c, 1) {
						continue
					}
					g.Edges = append(g.Edges, &dot.DotEdge{
						From: mkNode(vi),
						To:   mkNode(vj),
						Attrs: dot.DotAttrs{
							"label": linconsOfBound(i, j, c).String(),
						},
					})
				}
			}
		}
	}
	for v := 0; v < o.dim; v++ {
		if m.comps.find(v) == nil {
			g.Nodes = append(g.Nodes, mkNode(v))
		}
	}
	return g
}

// RenderDot writes the constraint graph to an image file in the
// configured output format and returns its path. With the visualize
// flag set, the graph is also handed to xdot.
func (d *Domain) RenderDot(o *Octagon, outfname string) (string, error) {
	g := d.DumpDot(o)
	var buf bytes.Buffer
	if err := g.WriteDot(&buf); err != nil {
		return "", err
	}
	if utils.Opts().Visualize() {
		g.ShowDot()
	}
	img, err := dot.DotToImage(outfname, utils.Opts().OutputFormat(), buf.Bytes())
	if err == nil {
		utils.VerbosePrint("rendered constraint graph to %s\n", img)
	}
	return img, err
}
