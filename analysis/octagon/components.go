package octagon

import (
	"fmt"
	"sort"
	"strings"

	uf "github.com/spakin/disjoint"
)

// member is a node of a component's ordered list of variables.
type member struct {
	num  int
	next *member
}

// component is one block of the variable partition: the set of
// variables related to each other by at least one finite non-diagonal
// bound (now or in the past). Members are kept in a singly linked list
// for ordered iteration.
type component struct {
	head, tail *member
	size       int
	prev, next *component
}

// members returns the component's variables in increasing order.
func (c *component) members() []int {
	res := make([]int, 0, c.size)
	for m := c.head; m != nil; m = m.next {
		res = append(res, m.num)
	}
	sort.Ints(res)
	return res
}

func (c *component) has(v int) bool {
	for m := c.head; m != nil; m = m.next {
		if m.num == v {
			return true
		}
	}
	return false
}

// components partitions the variables {0, …, dim−1} into related
// blocks. Variables outside every block are unconstrained. Connectivity
// queries go through a disjoint-set forest; ordered iteration goes
// through the per-component lists. Both views are kept in sync by
// union.
type components struct {
	dim    int
	forest []*uf.Element // nil for unconstrained variables
	lookup []*component  // nil for unconstrained variables
	head   *component
	tail   *component
	count  int
}

func newComponents(dim int) *components {
	return &components{
		dim:    dim,
		forest: make([]*uf.Element, dim),
		lookup: make([]*component, dim),
	}
}

// find returns the component containing v, or nil if v is
// unconstrained. Out-of-range variables are unconstrained.
func (cs *components) find(v int) *component {
	if v < 0 || v >= cs.dim {
		return nil
	}
	return cs.lookup[v]
}

// isConnected checks whether i and j inhabit the same component.
func (cs *components) isConnected(i, j int) bool {
	if i < 0 || j < 0 || i >= cs.dim || j >= cs.dim {
		return false
	}
	if cs.forest[i] == nil || cs.forest[j] == nil {
		return false
	}
	return cs.forest[i].Find() == cs.forest[j].Find()
}

// add inserts v as a fresh singleton component. No-op if v is already
// tracked.
func (cs *components) add(v int) *component {
	if c := cs.find(v); c != nil {
		return c
	}
	m := &member{num: v}
	c := &component{head: m, tail: m, size: 1}
	cs.forest[v] = uf.NewElement()
	cs.lookup[v] = c
	cs.link(c)
	return c
}

// link appends c to the component list.
func (cs *components) link(c *component) {
	if cs.tail == nil {
		cs.head, cs.tail = c, c
	} else {
		c.prev = cs.tail
		cs.tail.next = c
		cs.tail = c
	}
	cs.count++
}

// unlink removes c from the component list.
func (cs *components) unlink(c *component) {
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		cs.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		cs.tail = c.prev
	}
	c.prev, c.next = nil, nil
	cs.count--
}

// union merges c2 into c1 and returns c1. The disjoint-set forest is
// joined alongside the lists.
func (cs *components) union(c1, c2 *component) *component {
	if c1 == c2 || c2 == nil {
		return c1
	}
	if c1 == nil {
		return c2
	}
	uf.Union(cs.forest[c1.head.num], cs.forest[c2.head.num])
	for m := c2.head; m != nil; m = m.next {
		cs.lookup[m.num] = c1
	}
	c1.tail.next = c2.head
	c1.tail = c2.tail
	c1.size += c2.size
	cs.unlink(c2)
	return c1
}

// relate ensures i and j share a component, creating singletons as
// needed, and returns the resulting component.
func (cs *components) relate(i, j int) *component {
	ci := cs.add(i)
	if i == j {
		return ci
	}
	cj := cs.add(j)
	if ci == cj {
		return ci
	}
	return cs.union(ci, cj)
}

// remove drops v from its component. Emptied components are unlinked.
// The remaining members' disjoint-set forest is rebuilt right away by
// reconnect since spakin's forest has no split operation.
func (cs *components) remove(v int) {
	c := cs.find(v)
	if c == nil {
		return
	}
	var prev *member
	for m := c.head; m != nil; m = m.next {
		if m.num == v {
			if prev == nil {
				c.head = m.next
			} else {
				prev.next = m.next
			}
			if c.tail == m {
				c.tail = prev
			}
			break
		}
		prev = m
	}
	c.size--
	cs.lookup[v] = nil
	cs.forest[v] = nil
	if c.size == 0 {
		cs.unlink(c)
	} else {
		cs.reconnect(c)
	}
}

// reconnect rebuilds the forest nodes of a component after a member
// removal, restoring find-equivalence with the list view.
func (cs *components) reconnect(c *component) {
	var root *uf.Element
	for m := c.head; m != nil; m = m.next {
		e := uf.NewElement()
		cs.forest[m.num] = e
		if root == nil {
			root = e
		} else {
			uf.Union(root, e)
		}
	}
}

// copy deep-copies the partition.
func (cs *components) copy() *components {
	r := newComponents(cs.dim)
	for c := cs.head; c != nil; c = c.next {
		var rc *component
		for m := c.head; m != nil; m = m.next {
			if rc == nil {
				rc = r.add(m.num)
			} else {
				r.lookup[m.num] = rc
				r.forest[m.num] = uf.NewElement()
				uf.Union(r.forest[rc.head.num], r.forest[m.num])
				nm := &member{num: m.num}
				rc.tail.next = nm
				rc.tail = nm
				rc.size++
			}
		}
	}
	return r
}

// resize rebuilds the partition over a new dimension count, relabeling
// every variable through rename. rename returns -1 for dropped
// variables.
func (cs *components) resize(dim int, rename func(int) int) *components {
	r := newComponents(dim)
	for c := cs.head; c != nil; c = c.next {
		var rc *component
		for _, v := range c.members() {
			w := rename(v)
			if w < 0 {
				continue
			}
			if rc == nil {
				rc = r.add(w)
			} else {
				rc = r.union(rc, r.add(w))
			}
		}
	}
	return r
}

// samePartition checks that two partitions have identical blocks.
func (cs *components) samePartition(o *components) bool {
	if cs.dim != o.dim {
		return false
	}
	for v := 0; v < cs.dim; v++ {
		c1, c2 := cs.find(v), o.find(v)
		if (c1 == nil) != (c2 == nil) {
			return false
		}
		if c1 == nil {
			continue
		}
		if c1.size != c2.size {
			return false
		}
		for m := c1.head; m != nil; m = m.next {
			if !o.isConnected(v, m.num) {
				return false
			}
		}
	}
	return true
}

// blocks returns every component's sorted member slice, ordered by
// smallest member.
func (cs *components) blocks() [][]int {
	res := make([][]int, 0, cs.count)
	for c := cs.head; c != nil; c = c.next {
		res = append(res, c.members())
	}
	sort.Slice(res, func(i, j int) bool { return res[i][0] < res[j][0] })
	return res
}

func (cs *components) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, b := range cs.blocks() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, v := range b {
			if j > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%d", v)
		}
		sb.WriteString("}")
	}
	sb.WriteString("}")
	return sb.String()
}
