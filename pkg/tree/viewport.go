package tree

import (
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// Attach renders the tree into c. The window is computed from the current
// scroll position and viewport height.
func (t *Tree) Attach(c Canvas) {
	if t.canvas != nil {
		t.Detach()
	}
	t.canvas = c
	t.updateNodeDimensions()
	if t.opts.ViewRangeSize == 0 && t.viewportHeight > 0 {
		t.viewRangeSize = t.CalculateViewRangeSize()
	}
	t.viewRangeDirty = true
	t.renderViewport()
}

// Detach tears down every element and forgets the canvas.
func (t *Tree) Detach() {
	if t.canvas == nil {
		return
	}
	t.anim.FinishAll()
	visitNodes(t.nodes, func(n *Node) bool {
		t.releaseElement(n)
		return false
	})
	t.attachedNodes = make(map[*Node]struct{})
	t.canvas = nil
	t.viewRangeRendered = Range{}
	t.viewRangeDirty = true
}

// Canvas returns the canvas the tree is attached to, nil if none.
func (t *Tree) Canvas() Canvas { return t.canvas }

func (t *Tree) rendered() bool { return t.canvas != nil }

// SetViewportHeight sets the height of the scroll viewport and derives the
// view range size from it unless the options override it.
func (t *Tree) SetViewportHeight(h int) {
	if h < 0 {
		h = 0
	}
	if t.viewportHeight == h {
		return
	}
	t.viewportHeight = h
	if t.opts.ViewRangeSize == 0 && t.rendered() {
		t.SetViewRangeSize(t.CalculateViewRangeSize())
	}
	t.invalidateLayout()
}

// ViewportHeight returns the height of the scroll viewport.
func (t *Tree) ViewportHeight() int { return t.viewportHeight }

// NodeHeight returns the measured default row height.
func (t *Tree) NodeHeight() int { return t.nodeHeight }

// CalculateViewRangeSize returns twice the number of rows that fit into the
// viewport, but at least viewRangeDivisor.
func (t *Tree) CalculateViewRangeSize() int {
	t.updateNodeDimensions()
	if t.nodeHeight <= 0 {
		invariant("CalculateViewRangeSize", "node height is %d", t.nodeHeight)
	}
	rows := (t.viewportHeight + t.nodeHeight - 1) / t.nodeHeight
	return max(viewRangeDivisor, rows*(viewRangeDivisor/2))
}

// ViewRangeSize returns the number of nodes materialized at most.
func (t *Tree) ViewRangeSize() int { return t.viewRangeSize }

// SetViewRangeSize changes the window size and re-renders the viewport.
func (t *Tree) SetViewRangeSize(size int) {
	if size < viewRangeDivisor {
		size = viewRangeDivisor
	}
	if t.viewRangeSize == size {
		return
	}
	t.viewRangeSize = size
	t.renderViewport()
}

// ViewRangeRendered returns the window of flat indices currently materialized.
func (t *Tree) ViewRangeRendered() Range { return t.viewRangeRendered }

// ScrollTop returns the scroll offset.
func (t *Tree) ScrollTop() int { return t.scrollTop }

// SetScrollTop scrolls to y and materializes the matching window right away.
func (t *Tree) SetScrollTop(y int) {
	y = max(0, min(y, t.MaxScrollTop()))
	if y == t.scrollTop {
		return
	}
	t.scrollTop = y
	t.renderViewport()
}

// ScrollBy scrolls relative to the current offset.
func (t *Tree) ScrollBy(dy int) {
	t.SetScrollTop(t.scrollTop + dy)
}

// ContentHeight sums the heights of all visible nodes.
func (t *Tree) ContentHeight() int {
	return t.heightOf(Range{From: 0, To: len(t.visibleNodesFlat)})
}

// MaxScrollTop is the largest useful scroll offset.
func (t *Tree) MaxScrollTop() int {
	return max(0, t.ContentHeight()-t.viewportHeight)
}

// Fillers returns the heights of the space before and after the window
// that is not materialized.
func (t *Tree) Fillers() (before, after int) {
	r := t.viewRangeRendered
	return t.heightOf(Range{From: 0, To: r.From}), t.heightOf(Range{From: r.To, To: len(t.visibleNodesFlat)})
}

// NodeTop returns the offset of the node at flat index i.
func (t *Tree) NodeTop(i int) int {
	return t.heightOf(Range{From: 0, To: i})
}

// ScrollTo scrolls the minimum distance needed to show n.
func (t *Tree) ScrollTo(n *Node) {
	i := t.flatIndexOf(n)
	if i < 0 {
		return
	}
	top := t.NodeTop(i)
	bottom := top + t.heightForNode(n)
	y := t.scrollTop
	switch {
	case top < y:
		y = top
	case t.viewportHeight > 0 && bottom > y+t.viewportHeight:
		y = bottom - t.viewportHeight
	}
	t.SetScrollTop(y)
	if t.rendered() && !n.attached {
		t.renderViewRangeForNode(i)
	}
}

// RevealSelection makes the primary selection visible and scrolls to it.
func (t *Tree) RevealSelection() {
	sel := t.SelectedNode()
	if sel == nil {
		return
	}
	if !t.visibleNodesMap[sel.id] {
		t.expandAllParentNodes(sel)
	}
	t.ScrollTo(sel)
}

// UpdateNodeHeights re-measures attached nodes and forgets the height of
// the others.
func (t *Tree) UpdateNodeHeights() {
	for _, n := range t.visibleNodesFlat {
		if n.attached && t.canvas != nil {
			n.height = t.canvas.Measure(n.el)
		} else {
			n.height = 0
		}
	}
}

func (t *Tree) invalidateLayout() {
	t.tasks.schedule(taskLayout, t.layout)
}

// layout is the deferred viewport pass after structural changes.
func (t *Tree) layout() {
	if !t.rendered() {
		return
	}
	if t.opts.ViewRangeSize == 0 && t.viewportHeight > 0 {
		t.viewRangeSize = t.CalculateViewRangeSize()
	}
	if t.scrollTop > t.MaxScrollTop() {
		t.scrollTop = t.MaxScrollTop()
	}
	t.renderViewport()
}

func (t *Tree) renderViewport() {
	if t.anim.Running() > 0 || t.renderViewportBlocked || !t.rendered() {
		return
	}
	t.renderViewRange(t.calculateCurrentViewRange())
}

func (t *Tree) rerenderViewport() {
	if t.renderViewportBlocked || !t.rendered() {
		return
	}
	for n := range t.attachedNodes {
		t.removeNode(n)
	}
	t.viewRangeRendered = Range{}
	t.viewRangeDirty = true
	t.renderViewport()
}

func (t *Tree) calculateCurrentViewRange() Range {
	if len(t.visibleNodesFlat) == 0 {
		return Range{}
	}
	if t.MaxScrollTop() == 0 {
		return t.calculateViewRangeForNode(0)
	}
	return t.calculateViewRangeForNode(t.nodeAtScrollTop(t.scrollTop))
}

// nodeAtScrollTop returns the flat index of the node covering offset y,
// the last node when y is beyond the content.
func (t *Tree) nodeAtScrollTop(y int) int {
	h := 0
	for i, n := range t.visibleNodesFlat {
		h += t.heightForNode(n)
		if y < h {
			return i
		}
	}
	return len(t.visibleNodesFlat) - 1
}

// calculateViewRangeForNode places a window of viewRangeSize around the
// node at index i: a quarter before it, the rest after.
func (t *Tree) calculateViewRangeForNode(i int) Range {
	quarter := t.viewRangeSize / viewRangeDivisor
	var r Range
	r.From = max(i-quarter, 0)
	r.To = min(r.From+t.viewRangeSize, len(t.visibleNodesFlat))
	if i < 0 {
		return r
	}
	// use the whole size, extending backwards near the end
	if t.viewRangeSize-r.Size() > 0 {
		r.From = max(r.To-t.viewRangeSize, 0)
	}
	return r
}

func (t *Tree) renderViewRangeForNode(i int) {
	t.renderViewRange(t.calculateViewRangeForNode(i))
}

// renderViewRange materializes exactly the nodes of vr. An overlapping
// window is shifted by one-sided deltas; a dirty one is reset.
func (t *Tree) renderViewRange(vr Range) {
	if vr.Equals(t.viewRangeRendered) && !t.viewRangeDirty {
		return
	}
	defer metrics.Timer(metrics.ViewportRender)()

	if !t.viewRangeDirty {
		toRender := vr.Subtract(t.viewRangeRendered)
		toRemove := t.viewRangeRendered.Subtract(vr)
		for _, r := range toRemove {
			if !r.Empty() {
				t.removeNodesInRange(r)
			}
		}
		for _, r := range toRender {
			if !r.Empty() {
				t.renderNodesInRange(r)
			}
		}
	} else {
		debug.LogIf(!t.viewRangeRendered.Empty(), "tree: resetting view range %s to %s", t.viewRangeRendered, vr)
		t.viewRangeRendered = vr
		t.ensureRangeVisible(vr)
		t.cleanupNodesOutside(vr)
	}

	if r := t.viewRangeRendered; r.Size() > 0 {
		first, last := t.visibleNodesFlat[r.From], t.visibleNodesFlat[r.To-1]
		if !first.attached || !last.attached {
			invariant("renderViewRange", "nodes not rendered as expected, range %s first %s attached=%t last %s attached=%t visible=%d nodes=%d",
				r, first, first.attached, last, last.attached, len(t.visibleNodesFlat), len(t.nodesMap))
		}
	}
	t.viewRangeDirty = false
	debug.Log("tree: rendered view range %s of %d", t.viewRangeRendered, len(t.visibleNodesFlat))
}

func (t *Tree) renderNodesInRange(r Range) {
	if len(t.visibleNodesFlat) == 0 {
		return
	}
	r = Range{From: 0, To: len(t.visibleNodesFlat)}.Intersect(r)
	if t.viewRangeRendered.Size() > 0 && !r.Intersect(t.viewRangeRendered).Empty() {
		invariant("renderNodesInRange", "new range %s must not intersect with rendered %s", r, t.viewRangeRendered)
	}
	u := t.viewRangeRendered.Union(r)
	if len(u) == 2 {
		invariant("renderNodesInRange", "can only prepend or append to %s, got %s", t.viewRangeRendered, r)
	}
	t.viewRangeRendered = u[0]
	t.ensureRangeVisible(r)
}

func (t *Tree) removeNodesInRange(r Range) {
	r = Range{From: 0, To: len(t.visibleNodesFlat)}.Intersect(r)
	parts := t.viewRangeRendered.Subtract(r)
	if len(parts) == 2 {
		invariant("removeNodesInRange", "can only remove at the start or end of %s, got %s", t.viewRangeRendered, r)
	}
	t.viewRangeRendered = parts[0]
	for i := r.From; i < r.To; i++ {
		t.removeNode(t.visibleNodesFlat[i])
	}
}

// ensureRangeVisible attaches every node of r that is not attached yet.
func (t *Tree) ensureRangeVisible(r Range) int {
	var missing []*Node
	for i := r.From; i < r.To && i < len(t.visibleNodesFlat); i++ {
		n := t.visibleNodesFlat[i]
		switch {
		case !n.attached:
			missing = append(missing, n)
		case n.hiding:
			// back in the window before its hide transition finished
			n.hiding = false
			n.animGen++
		}
	}
	t.insertNodesInDOM(missing, -1)
	return len(missing)
}

// cleanupNodesOutside detaches attached nodes that are not part of r.
func (t *Tree) cleanupNodesOutside(r Range) {
	keep := make(map[*Node]struct{}, r.Size())
	for i := r.From; i < r.To; i++ {
		keep[t.visibleNodesFlat[i]] = struct{}{}
	}
	for n := range t.attachedNodes {
		if _, ok := keep[n]; !ok {
			t.removeNode(n)
		}
	}
}

// insertNodesInDOM attaches nodes that lie in the materialization window.
// indexHint < 0 means each index is looked up.
func (t *Tree) insertNodesInDOM(nodes []*Node, indexHint int) {
	if !t.rendered() {
		return
	}
	var installed []*Node
	for _, n := range nodes {
		i := indexHint
		if i < 0 {
			i = t.flatIndexOf(n)
		}
		from := t.viewRangeRendered.From
		if i < 0 || t.viewRangeSize <= 0 || i > from+t.viewRangeSize || i < from || n.attached {
			continue
		}
		if !n.rendered {
			n.el = t.canvas.Build(n)
			n.rendered = true
		} else {
			t.canvas.Update(n.el, n)
		}
		t.insertNodeAtPlace(n, i)
		n.attached = true
		t.attachedNodes[n] = struct{}{}
		metrics.Materialized.Inc()
		installed = append(installed, n)
	}
	for _, n := range installed {
		n.height = t.canvas.Measure(n.el)
	}
}

// insertNodeAtPlace positions n's element next to the nearest attached
// neighbor in flat order, looking backwards first.
func (t *Tree) insertNodeAtPlace(n *Node, i int) {
	if i == 0 || len(t.attachedNodes) == 0 {
		t.canvas.InsertAfter(n.el, nil)
		return
	}
	before := t.visibleNodesFlat[i-1]
	t.ensureNodeInDOM(before, false, i-1)
	if before.attached {
		t.canvas.InsertAfter(n.el, before.el)
		return
	}
	for j := i - 2; j >= 0; j-- {
		if p := t.visibleNodesFlat[j]; p.attached {
			t.canvas.InsertAfter(n.el, p.el)
			return
		}
	}
	for j := i + 1; j < len(t.visibleNodesFlat); j++ {
		if nx := t.visibleNodesFlat[j]; nx.attached {
			t.canvas.InsertBefore(n.el, nx.el)
			return
		}
	}
	t.canvas.InsertAfter(n.el, nil)
}

// ensureNodeInDOM attaches n if it sits at index i inside the window.
func (t *Tree) ensureNodeInDOM(n *Node, animated bool, i int) {
	if n == nil || n.attached || i < 0 || i >= len(t.visibleNodesFlat) || t.visibleNodesFlat[i] != n {
		return
	}
	if t.viewRangeRendered.Contains(i) {
		t.showNode(n, animated, i)
	}
}

// showNode attaches n at flat index i if it belongs to the window and
// optionally animates it in.
func (t *Tree) showNode(n *Node, animated bool, i int) {
	if !t.rendered() || (n.attached && !n.hiding) {
		return
	}
	if n.attached {
		// still animating out at its old place, which may be stale now
		t.detachNode(n)
	}
	if !n.attached {
		t.ensureNodeInDOM(n.parent, animated, i-1)
		t.insertNodesInDOM([]*Node{n}, i)
	}
	if !n.rendered || n.showing {
		return
	}
	n.hiding = false
	n.animGen++
	if !animated {
		return
	}
	gen := n.animGen
	n.showing = true
	t.anim.Start(TransitionShow, nil, []*Node{n}, ShowHideDuration, func(*Transition) {
		if n.animGen == gen {
			n.showing = false
		}
	})
}

// hideNode detaches n, after a transition when animated.
func (t *Tree) hideNode(n *Node, animated bool) {
	if !t.rendered() || !n.attached {
		return
	}
	t.viewRangeDirty = true
	if n.hiding {
		return
	}
	n.showing = false
	if !animated {
		t.detachNode(n)
		t.invalidateLayout()
		return
	}
	n.hiding = true
	n.animGen++
	gen := n.animGen
	t.anim.Start(TransitionHide, nil, []*Node{n}, ShowHideDuration, func(*Transition) {
		if n.animGen != gen {
			return
		}
		n.hiding = false
		if !n.showing && !n.destroyed {
			t.detachNode(n)
		}
	})
}

// removeNode detaches n unless it is animating out. The window is not
// adjusted.
func (t *Tree) removeNode(n *Node) {
	if n.el == nil || n.hiding {
		return
	}
	t.detachNode(n)
}

func (t *Tree) detachNode(n *Node) {
	if n.attached && t.canvas != nil && n.el != nil {
		t.canvas.Detach(n.el)
		metrics.Dematerialized.Inc()
	}
	n.attached = false
	delete(t.attachedNodes, n)
}

// releaseElement destroys n's element for good.
func (t *Tree) releaseElement(n *Node) {
	if n.el != nil && t.canvas != nil {
		t.canvas.Destroy(n.el)
	}
	n.el = nil
	n.rendered = false
	n.attached = false
	n.hiding = false
	n.showing = false
	n.height = 0
	delete(t.attachedNodes, n)
}

func (t *Tree) updateNodeDimensions() {
	h := 0
	if t.canvas != nil {
		sample := &Node{enabled: true, filterAccepted: true, childIndex: -1}
		el := t.canvas.Build(sample)
		h = t.canvas.Measure(el)
		t.canvas.Destroy(el)
	}
	if h <= 0 {
		h = t.opts.DefaultNodeHeight
	}
	t.nodeHeight = h
}

func (t *Tree) heightForNode(n *Node) int {
	if n.height > 0 {
		return n.height
	}
	if t.nodeHeight > 0 {
		return t.nodeHeight
	}
	return t.opts.DefaultNodeHeight
}

func (t *Tree) heightOf(r Range) int {
	h := 0
	for i := max(r.From, 0); i < r.To && i < len(t.visibleNodesFlat); i++ {
		h += t.heightForNode(t.visibleNodesFlat[i])
	}
	return h
}
