package tree

import (
	"errors"
	"fmt"
)

// CheckInvariants verifies the consistency rules between the node graph,
// the flat list, the selection, the checked set and the rendered window.
// The window is only checked when no transition runs and no deferred work
// is pending. It is meant for tests and debugging; it walks the whole tree.
func (t *Tree) CheckInvariants() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	count := 0
	var walk func(nodes []*Node, parent *Node)
	walk = func(nodes []*Node, parent *Node) {
		for i, n := range nodes {
			count++
			if t.nodesMap[n.id] != n {
				fail("%s is not registered", n)
			}
			if n.destroyed {
				fail("%s is destroyed but still in the tree", n)
			}
			if n.parent != parent {
				fail("%s has parent %v, want %v", n, n.parent, parent)
			}
			if n.childIndex != i {
				fail("%s has child index %d at position %d", n, n.childIndex, i)
			}
			wantLevel := 0
			if parent != nil {
				wantLevel = parent.level + 1
			}
			if n.level != wantLevel {
				fail("%s has level %d, want %d", n, n.level, wantLevel)
			}
			if n.childrenChecked != anyChildChecked(n) {
				fail("%s has childrenChecked %t", n, n.childrenChecked)
			}
			walk(n.children, n)
		}
	}
	walk(t.nodes, nil)
	if count != len(t.nodesMap) {
		fail("registry holds %d nodes, tree has %d", len(t.nodesMap), count)
	}

	want := t.expectedFlat()
	if len(want) != len(t.visibleNodesFlat) {
		fail("flat list has %d nodes, want %d", len(t.visibleNodesFlat), len(want))
	} else {
		for i := range want {
			if want[i] != t.visibleNodesFlat[i] {
				fail("flat list has %s at %d, want %s", t.visibleNodesFlat[i], i, want[i])
				break
			}
		}
	}
	if len(t.visibleNodesMap) != len(t.visibleNodesFlat) {
		fail("visible map has %d entries, flat list %d", len(t.visibleNodesMap), len(t.visibleNodesFlat))
	}
	for _, n := range t.visibleNodesFlat {
		if !t.visibleNodesMap[n.id] {
			fail("%s is in the flat list but not in the visible map", n)
		}
	}

	for _, s := range t.selected {
		if !t.owns(s) || !s.filterAccepted {
			fail("selection holds %s which is gone or filtered", s)
		}
	}
	checked := 0
	visitNodes(t.nodes, func(n *Node) bool {
		if n.checked {
			checked++
			if indexOf(t.checked, n) < 0 {
				fail("%s is checked but not in the checked set", n)
			}
		}
		return false
	})
	if checked != len(t.checked) {
		fail("checked set has %d nodes, tree has %d checked", len(t.checked), checked)
	}

	r := t.viewRangeRendered
	if r.From < 0 || r.To > len(t.visibleNodesFlat) || r.From > r.To {
		fail("rendered range %s outside [0,%d)", r, len(t.visibleNodesFlat))
	} else if t.rendered() && t.anim.Running() == 0 && !t.Pending() {
		for i := r.From; i < r.To; i++ {
			if n := t.visibleNodesFlat[i]; !n.attached {
				fail("%s at %d is inside %s but not attached", n, i, r)
			}
		}
		for n := range t.attachedNodes {
			if i := t.VisibleIndex(n); !r.Contains(i) {
				fail("%s at %d is attached outside %s", n, i, r)
			}
		}
	}
	return errors.Join(errs...)
}

// expectedFlat derives the visible order from scratch.
func (t *Tree) expectedFlat() []*Node {
	var out []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if !n.filterAccepted {
				continue
			}
			out = append(out, n)
			if n.expanded {
				walk(n.children)
			}
		}
	}
	walk(t.nodes)
	return out
}
