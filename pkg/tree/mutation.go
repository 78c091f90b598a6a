package tree

import (
	"fmt"

	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// NodePatch changes selected fields of an existing node. Nil fields are
// left alone.
type NodePatch struct {
	ID                   string
	Text                 *string
	Leaf                 *bool
	Enabled              *bool
	LazyExpandingEnabled *bool
	Data                 any
}

// InsertNodes adds nodes, with their subtrees, as children of parent or as
// top-level nodes when parent is nil. An explicit child index decides the
// position; nodes without one are appended.
func (t *Tree) InsertNodes(parent *Node, nodes ...*Node) error {
	defer metrics.Timer(metrics.NodesInsert)()
	return t.insertNodes(parent, nodes, true)
}

// InsertModels converts models and inserts them like InsertNodes.
func (t *Tree) InsertModels(parent *Node, models ...NodeModel) error {
	nodes := make([]*Node, 0, len(models))
	for _, m := range models {
		nodes = append(nodes, NewNode(m))
	}
	return t.InsertNodes(parent, nodes...)
}

func (t *Tree) insertNodes(parent *Node, nodes []*Node, emit bool) error {
	if len(nodes) == 0 {
		return nil
	}
	if parent != nil && !t.owns(parent) {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parent.id)
	}
	if err := t.validateNew(nodes); err != nil {
		return err
	}

	siblings := t.nodes
	if parent != nil {
		siblings = parent.children
	}
	firstChildren := len(siblings) == 0

	nodes = append([]*Node(nil), nodes...)
	for i, n := range nodes {
		if n.childIndex < 0 {
			n.childIndex = len(siblings) + i
		}
	}
	sortByChildIndex(nodes)
	for _, n := range nodes {
		siblings = insertAt(siblings, n, n.childIndex)
	}
	updateChildIndex(siblings, 0)
	if parent != nil {
		parent.children = siblings
		parent.childrenLoaded = true
	} else {
		t.nodes = siblings
	}

	t.initNodes(nodes, parent)
	if parent != nil {
		t.decorate(parent)
		if firstChildren && t.opts.ExpandOnFirstInsert && !parent.expanded {
			t.SetNodeExpanded(parent, true, ExpandOpts{NoAnimation: true})
		}
	}
	t.viewRangeDirty = true
	t.invalidateLayout()
	debug.Log("tree: inserted %d nodes below %v", len(nodes), parent)
	if emit {
		t.trigger(Event{Type: NodesInserted, Parent: parent, Nodes: nodes})
	}
	return nil
}

// UpdateNodes applies patches and re-filters each changed node together
// with its ancestors.
func (t *Tree) UpdateNodes(patches ...NodePatch) error {
	for _, p := range patches {
		if t.nodesMap[p.ID] == nil {
			return fmt.Errorf("%w: %s", ErrNotInTree, p.ID)
		}
	}
	var updated []*Node
	for _, p := range patches {
		n := t.nodesMap[p.ID]
		if !t.applyPatch(n, p) {
			continue
		}
		updated = append(updated, n)
		t.ApplyFiltersForNode(n)
		t.decorate(n)
	}
	if len(updated) > 0 {
		t.trigger(Event{Type: NodesUpdated, Nodes: updated})
	}
	return nil
}

func (t *Tree) applyPatch(n *Node, p NodePatch) bool {
	changed := false
	if p.Text != nil && *p.Text != n.text {
		n.text = *p.Text
		changed = true
	}
	if p.Leaf != nil && *p.Leaf != n.leaf {
		n.leaf = *p.Leaf
		if n.leaf {
			n.childrenLoaded = true
		}
		changed = true
	}
	if p.Enabled != nil && *p.Enabled != n.enabled {
		n.enabled = *p.Enabled
		changed = true
	}
	if p.LazyExpandingEnabled != nil && *p.LazyExpandingEnabled != n.lazyExpandingEnabled {
		n.lazyExpandingEnabled = *p.LazyExpandingEnabled
		if !n.lazyExpandingEnabled || !t.opts.LazyExpandingEnabled {
			n.expandedLazy = false
		}
		changed = true
	}
	if p.Data != nil {
		n.data = p.Data
		changed = true
	}
	return changed
}

// DeleteNodes removes nodes and their subtrees. With a parent every node
// must be its direct child; without one the nodes may come from anywhere
// in the tree. Nothing is removed when a node fails validation.
func (t *Tree) DeleteNodes(parent *Node, nodes ...*Node) error {
	defer metrics.Timer(metrics.NodesDelete)()
	if len(nodes) == 0 {
		return nil
	}
	if parent != nil && !t.owns(parent) {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parent.id)
	}
	for _, n := range nodes {
		if n == nil || !t.owns(n) {
			return fmt.Errorf("%w: %v", ErrNotInTree, n)
		}
		if parent != nil && n.parent != parent {
			return fmt.Errorf("%w: %s is not a child of %s", ErrUnexpectedParent, n.id, parent.id)
		}
	}

	var deleted, reindex []*Node
	reindexRoots := false
	for _, n := range nodes {
		if n.destroyed {
			// descendant of a node deleted earlier in this call
			continue
		}
		if p := n.parent; p != nil {
			p.children, _ = removeNode(p.children, n)
			if indexOf(reindex, p) < 0 {
				reindex = append(reindex, p)
			}
		} else {
			t.nodes, _ = removeNode(t.nodes, n)
			reindexRoots = true
		}
		t.destroySubtree(n)
		deleted = append(deleted, n)
	}
	for _, p := range reindex {
		if p.destroyed {
			continue
		}
		updateChildIndex(p.children, 0)
		t.propagateChildrenChecked(p)
		t.refilterParent(p)
		t.decorate(p)
	}
	if reindexRoots {
		updateChildIndex(t.nodes, 0)
	}

	t.dropDestroyed()
	t.invalidateLayout()
	debug.Log("tree: deleted %d nodes", len(deleted))
	t.trigger(Event{Type: NodesDeleted, Parent: parent, Nodes: deleted})
	return nil
}

// DeleteAllChildNodes removes every child of parent, or every node when
// parent is nil.
func (t *Tree) DeleteAllChildNodes(parent *Node) error {
	defer metrics.Timer(metrics.NodesDelete)()
	var nodes []*Node
	if parent != nil {
		if !t.owns(parent) {
			return fmt.Errorf("%w: %s", ErrUnknownParent, parent.id)
		}
		nodes = parent.children
		parent.children = nil
	} else {
		nodes = t.nodes
		t.nodes = nil
	}
	for _, n := range nodes {
		t.destroySubtree(n)
	}
	if parent != nil {
		t.propagateChildrenChecked(parent)
		t.refilterParent(parent)
		t.decorate(parent)
	}
	t.dropDestroyed()
	t.invalidateLayout()
	t.trigger(Event{Type: AllChildNodesDeleted, Parent: parent, Nodes: nodes})
	return nil
}

// refilterParent re-evaluates p and its ancestors after children were
// removed; a node kept only for a deleted descendant leaves the flat list.
func (t *Tree) refilterParent(p *Node) {
	t.applyFiltersForNodeMode(p, true, filterShallow)
}

// destroySubtree removes n and its descendants from the flat list, the
// registry and every transition, and releases their elements.
func (t *Tree) destroySubtree(n *Node) {
	t.removeFromFlatList(n, false)
	visitNodes([]*Node{n}, func(d *Node) bool {
		delete(t.nodesMap, d.id)
		delete(t.visibleNodesMap, d.id)
		t.anim.Forget(d)
		t.releaseElement(d)
		if d.checked {
			t.checked, _ = removeNode(t.checked, d)
		}
		d.destroyed = true
		d.initialized = false
		return false
	})
	n.parent = nil
}

// dropDestroyed removes destroyed nodes from the selection.
func (t *Tree) dropDestroyed() {
	var gone []*Node
	for _, s := range t.selected {
		if s.destroyed {
			gone = append(gone, s)
		}
	}
	if t.prevSelected != nil && t.prevSelected.destroyed {
		t.prevSelected = nil
	}
	t.DeselectNodes(DeselectOpts{}, gone...)
}

// UpdateNodeOrder reorders the children of parent, or the top-level nodes
// when parent is nil. children must be a permutation of the current list.
func (t *Tree) UpdateNodeOrder(parent *Node, children []*Node) error {
	defer metrics.Timer(metrics.NodeOrder)()
	if parent != nil && !t.owns(parent) {
		return fmt.Errorf("%w: %s", ErrUnknownParent, parent.id)
	}
	current := t.nodes
	if parent != nil {
		current = parent.children
	}
	if !isPermutation(current, children) {
		return fmt.Errorf("%w: got %d nodes, have %d", ErrOrderMismatch, len(children), len(current))
	}

	// nodes animating in or out sit at their old places
	t.anim.FinishKind(TransitionHide, TransitionShow)

	ordered := append([]*Node(nil), children...)
	updateChildIndex(ordered, 0)
	if parent != nil {
		parent.children = ordered
		t.removeChildrenFromFlatList(parent, false)
		if parent.expanded {
			t.addChildrenToFlatList(parent, -1, false, nil)
		}
	} else {
		t.nodes = ordered
		for _, n := range ordered {
			t.removeFromFlatList(n, false)
			t.addToVisibleFlatList(n, false)
			if n.expanded {
				t.addChildrenToFlatList(n, -1, false, nil)
			}
		}
	}
	t.trigger(Event{Type: ChildNodeOrderChanged, Parent: parent})
	return nil
}

func (t *Tree) owns(n *Node) bool {
	return n != nil && !n.destroyed && t.nodesMap[n.id] == n
}

func isPermutation(current, order []*Node) bool {
	if len(current) != len(order) {
		return false
	}
	seen := make(map[*Node]bool, len(order))
	for _, n := range order {
		if n == nil || seen[n] || indexOf(current, n) < 0 {
			return false
		}
		seen[n] = true
	}
	return true
}
