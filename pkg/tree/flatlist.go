package tree

import (
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// addToVisibleFlatList inserts a single node at its pre-order position. It
// does nothing if the node is already visible, rejected, or its parent is
// not itself visible and expanded.
func (t *Tree) addToVisibleFlatList(n *Node, animated bool) {
	if t.visibleNodesMap[n.id] || !n.filterAccepted {
		return
	}
	if p := n.parent; p != nil && (!p.expanded || !t.visibleNodesMap[p.id]) {
		return
	}
	defer metrics.Timer(metrics.FlatListAdd)()
	if t.initialTraversing {
		t.addToVisibleFlatListNoCheck(n, len(t.visibleNodesFlat), animated)
		return
	}
	t.addToVisibleFlatListNoCheck(n, t.findInsertPositionInFlatList(n), animated)
}

func (t *Tree) addToVisibleFlatListNoCheck(n *Node, at int, animated bool) {
	t.spliceIn(at, n)
	t.visibleNodesMap[n.id] = true
	t.showNode(n, animated, at)
}

// findInsertPositionInFlatList returns the flat index n must take so that
// the flat list stays a pre-order traversal: directly below the parent when
// n has no visible previous sibling, otherwise after the whole visible
// subtree of that sibling.
func (t *Tree) findInsertPositionInFlatList(n *Node) int {
	siblings := t.nodes
	if n.parent != nil {
		siblings = n.parent.children
	}

	var prev *Node
	found := false
	for _, s := range siblings {
		if s == n {
			found = true
			break
		}
		if t.visibleNodesMap[s.id] {
			prev = s
		}
	}
	if !found || prev == nil {
		return t.flatIndexOf(n.parent) + 1
	}

	prevPos := t.flatIndexOf(prev)
	if prevPos < 0 {
		return t.flatIndexOf(n.parent) + 1
	}
	for i := prevPos; i < len(t.visibleNodesFlat); i++ {
		if !isInSameSubTree(prev, t.visibleNodesFlat[i]) {
			return i
		}
	}
	return len(t.visibleNodesFlat)
}

// isInSameSubTree reports whether check is node or one of its descendants.
func isInSameSubTree(node, check *Node) bool {
	for c := check; c != nil; c = c.parent {
		if c == node || c.parent == node {
			return true
		}
	}
	return false
}

// addChildrenToFlatList adds the visible descendants of parent in sibling
// order. Contiguous runs are collected in insert batches and spliced at
// once; a batch is flushed early at the edges of the rendered window and
// whenever a child is already visible. parentIndex < 0 means the position
// is looked up.
func (t *Tree) addChildrenToFlatList(parent *Node, parentIndex int, animated bool, batch *insertBatch) *insertBatch {
	if !t.visibleNodesMap[parent.id] {
		return batch
	}

	subAdding := batch != nil
	if parentIndex <= 0 {
		parentIndex = t.flatIndexOf(parent)
	}
	animated = animated && t.rendered()
	if !subAdding {
		t.anim.FinishKind(TransitionCollapse)
	}

	if batch != nil {
		batch.insertAt = parentIndex
	} else {
		batch = newInsertBatch(parentIndex + 1)
	}

	for _, c := range parent.children {
		if !c.initialized || !t.isFilterAccepted(c) {
			continue
		}
		if t.visibleNodesMap[c.id] {
			t.insertBatchInVisibleNodes(batch, t.showNodes(batch), animated)
			batch = newInsertBatch(batch.nextInsertIndex())
			batch = t.addChildrenToFlatListIfExpanded(c, animated, batch)
		} else {
			batch.nodes = append(batch.nodes, c)
			t.visibleNodesMap[c.id] = true
			batch = t.checkAndHandleBatch(batch, animated)
			batch = t.addChildrenToFlatListIfExpanded(c, animated, batch)
		}
	}

	if !subAdding {
		t.insertBatchInVisibleNodes(batch, t.showNodes(batch), animated)
		t.invalidateLayout()
	}
	return batch
}

// addChildrenToFlatListIfExpanded continues the traversal into n's children
// when n is expanded.
func (t *Tree) addChildrenToFlatListIfExpanded(n *Node, animated bool, batch *insertBatch) *insertBatch {
	if !n.expanded || len(n.children) == 0 {
		return batch
	}
	var at int
	switch {
	case !batch.containsNode(n):
		// n is spliced already, either visible before or flushed at a
		// window edge; its children go right below it
		at = t.flatIndexOf(n) + 1
	case batch.containsNode(n.parent) || batch.length() > 1:
		// the position was already computed for an earlier node of the batch
		at = batch.insertAt
	default:
		at = t.findInsertPositionInFlatList(n)
	}
	return t.addChildrenToFlatList(n, at, animated, batch)
}

// showNodes reports whether the batch ends inside the materialization window.
func (t *Tree) showNodes(b *insertBatch) bool {
	last := b.lastInsertIndex()
	return t.viewRangeRendered.From+t.viewRangeSize >= last && t.viewRangeRendered.From <= last
}

// checkAndHandleBatch flushes the batch when it reaches the start or the
// end of the rendered window, so materialization decisions stay local.
func (t *Tree) checkAndHandleBatch(b *insertBatch, animated bool) *insertBatch {
	if t.viewRangeRendered.From-1 == b.lastInsertIndex() {
		t.insertBatchInVisibleNodes(b, false, false)
		b = newInsertBatch(b.lastInsertIndex() + 1)
	}
	if !b.isEmpty() && t.viewRangeRendered.From+t.viewRangeSize-1 == b.lastInsertIndex() {
		t.insertBatchInVisibleNodes(b, true, animated)
		b = newInsertBatch(b.lastInsertIndex() + 1)
	}
	return b
}

// insertBatchInVisibleNodes splices the batch into the flat list. With show
// set its nodes are materialized; with animate set the attached ones are
// wrapped in a single expand transition.
func (t *Tree) insertBatchInVisibleNodes(b *insertBatch, show, animate bool) {
	if b.isEmpty() {
		return
	}
	t.spliceIn(b.insertAt, b.nodes...)
	if !show {
		return
	}
	at := b.insertAt
	for _, n := range b.nodes {
		t.showNode(n, false, at)
		at++
	}
	if !animate {
		return
	}
	var shown []*Node
	for _, n := range b.nodes {
		if n.attached {
			shown = append(shown, n)
		}
	}
	if len(shown) == 0 {
		return
	}
	gens := t.bumpGenerations(shown)
	b.transition = t.anim.Start(TransitionExpand, shown[0].parent, shown, ExpandCollapseDuration, func(tr *Transition) {
		for _, n := range tr.Nodes {
			if n.animGen == gens[n] {
				n.showing = false
			}
		}
	})
	for _, n := range shown {
		n.showing = true
	}
}

// removeChildrenFromFlatList removes the visible descendants of parent,
// which form one contiguous run right after it.
func (t *Tree) removeChildrenFromFlatList(parent *Node, animated bool) []*Node {
	if !t.visibleNodesMap[parent.id] {
		return nil
	}
	defer metrics.Timer(metrics.FlatListRemove)()
	parentIndex := t.flatIndexOf(parent)
	if parentIndex < 0 {
		invariant("removeChildrenFromFlatList", "%s is in the visible map but not in the flat list", parent)
	}
	animated = animated && t.rendered()
	t.anim.FinishKind(TransitionCollapse, TransitionExpand)

	var removed []*Node
	count := 0
	for i := parentIndex + 1; i < len(t.visibleNodesFlat); i++ {
		n := t.visibleNodesFlat[i]
		if n.level <= parent.level {
			break
		}
		delete(t.visibleNodesMap, n.id)
		switch {
		case n.attached && animated:
			n.attached = false
			delete(t.attachedNodes, n)
			removed = append(removed, n)
		case n.attached:
			t.hideNode(n, false)
		}
		count++
	}
	t.spliceOut(parentIndex+1, count)

	if animated && len(removed) > 0 {
		gens := t.bumpGenerations(removed)
		t.anim.Start(TransitionCollapse, parent, removed, ExpandCollapseDuration, func(tr *Transition) {
			for _, n := range tr.Nodes {
				if n.animGen != gens[n] || n.attached || n.destroyed || n.el == nil {
					continue
				}
				t.canvas.Detach(n.el)
				metrics.Dematerialized.Inc()
			}
		})
	}
	debug.Log("tree: removed %d children of %s from flat list", count, parent)
	return removed
}

// removeFromFlatList removes n together with its visible descendants.
func (t *Tree) removeFromFlatList(n *Node, animated bool) {
	if !t.visibleNodesMap[n.id] {
		return
	}
	t.removeChildrenFromFlatList(n, false)
	i := t.flatIndexOf(n)
	if i < 0 {
		invariant("removeFromFlatList", "%s is in the visible map but not in the flat list", n)
	}
	t.spliceOut(i, 1)
	delete(t.visibleNodesMap, n.id)
	t.hideNode(n, animated)
}

func (t *Tree) spliceIn(at int, nodes ...*Node) {
	if at < 0 || at > len(t.visibleNodesFlat) {
		invariant("spliceIn", "insert index %d out of [0,%d]", at, len(t.visibleNodesFlat))
	}
	flat := make([]*Node, 0, len(t.visibleNodesFlat)+len(nodes))
	flat = append(flat, t.visibleNodesFlat[:at]...)
	flat = append(flat, nodes...)
	flat = append(flat, t.visibleNodesFlat[at:]...)
	t.visibleNodesFlat = flat
	t.structureChanged()
}

func (t *Tree) spliceOut(at, count int) {
	if count <= 0 {
		return
	}
	t.visibleNodesFlat = append(t.visibleNodesFlat[:at], t.visibleNodesFlat[at+count:]...)
	t.structureChanged()
}

// structureChanged marks the window stale after the flat list changed.
func (t *Tree) structureChanged() {
	t.viewRangeDirty = true
	if t.viewRangeRendered.To > len(t.visibleNodesFlat) {
		t.viewRangeRendered.To = len(t.visibleNodesFlat)
		if t.viewRangeRendered.From > t.viewRangeRendered.To {
			t.viewRangeRendered.From = t.viewRangeRendered.To
		}
	}
	t.invalidateLayout()
}

func (t *Tree) flatIndexOf(n *Node) int {
	if n == nil {
		return -1
	}
	return indexOf(t.visibleNodesFlat, n)
}

func (t *Tree) bumpGenerations(nodes []*Node) map[*Node]uint64 {
	gens := make(map[*Node]uint64, len(nodes))
	for _, n := range nodes {
		n.animGen++
		gens[n] = n.animGen
	}
	return gens
}
