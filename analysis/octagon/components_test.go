package octagon

import (
	"testing"
)

func TestComponentsUnionFind(t *testing.T) {
	cs := newComponents(6)
	if cs.find(0) != nil {
		t.Error("fresh partition should track nothing")
	}
	cs.relate(0, 1)
	cs.relate(2, 3)
	if !cs.isConnected(0, 1) || !cs.isConnected(2, 3) {
		t.Error("related variables not connected")
	}
	if cs.isConnected(1, 2) {
		t.Error("distinct components connected")
	}
	cs.relate(1, 2)
	if !cs.isConnected(0, 3) {
		t.Error("union did not merge transitively")
	}
	if cs.count != 1 {
		t.Errorf("component count = %d, expected 1", cs.count)
	}
	got := cs.find(0).members()
	want := []int{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("members = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("members = %v, expected %v", got, want)
		}
	}
}

func TestComponentsRemove(t *testing.T) {
	cs := newComponents(4)
	cs.relate(0, 1)
	cs.relate(1, 2)
	cs.remove(1)
	if cs.find(1) != nil {
		t.Error("removed variable still tracked")
	}
	if !cs.isConnected(0, 2) {
		t.Error("remaining members lost connectivity after removal")
	}
	cs.remove(0)
	cs.remove(2)
	if cs.head != nil || cs.count != 0 {
		t.Error("emptied component not unlinked")
	}
}

func TestComponentsCopyIndependent(t *testing.T) {
	cs := newComponents(4)
	cs.relate(0, 1)
	cp := cs.copy()
	cp.relate(2, 3)
	if cs.find(2) != nil {
		t.Error("copy leaked into the original")
	}
	if !cs.samePartition(cs.copy()) {
		t.Error("copy is not the same partition")
	}
	if cs.samePartition(cp) {
		t.Error("different partitions reported equal")
	}
}

func TestComponentsResize(t *testing.T) {
	cs := newComponents(4)
	cs.relate(0, 1)
	cs.relate(2, 3)
	// Drop variable 1, shift the rest down.
	r := cs.resize(3, func(v int) int {
		if v == 1 {
			return -1
		}
		if v > 1 {
			return v - 1
		}
		return v
	})
	if r.find(0) == nil || r.find(0).size != 1 {
		t.Error("survivor of a shrunk component should stay tracked")
	}
	if !r.isConnected(1, 2) {
		t.Error("shifted component lost connectivity")
	}
}

func TestHandleBinaryRelationMaterializes(t *testing.T) {
	m := newHmat(4)
	m.setBound(0, 2, 1)  // x1 − x0 ≤ 1, components {0,1}
	m.setBound(4, 6, -2) // x3 − x2 ≤ −2, components {2,3}
	// Poison an inter-component slot, then materialize across.
	m.mat[matpos2(0, 4)] = 99
	m.ti = false
	m.handleBinaryRelation(0, 2)
	if m.mat[matpos2(0, 4)] != inf {
		t.Error("handleBinaryRelation left a stale cross entry")
	}
	for _, pair := range [][2]int{{0, 2}, {0, 3}, {1, 2}, {1, 3}} {
		if !m.checkTrivialRelation(pair[0], pair[1]) {
			t.Errorf("cross block (%d,%d) not reset", pair[0], pair[1])
		}
	}
}
