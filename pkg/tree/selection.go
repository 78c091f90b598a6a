package tree

// DeselectOpts tunes DeselectNodes.
type DeselectOpts struct {
	// CollectChildren also deselects selected descendants of the nodes.
	CollectChildren bool
}

// SelectedNode returns the primary selection, nil if nothing is selected.
func (t *Tree) SelectedNode() *Node {
	if len(t.selected) == 0 {
		return nil
	}
	return t.selected[0]
}

// SelectedNodes returns the selection, primary first.
func (t *Tree) SelectedNodes() []*Node {
	out := make([]*Node, len(t.selected))
	copy(out, t.selected)
	return out
}

// IsSelected reports whether n is selected.
func (t *Tree) IsSelected(n *Node) bool {
	return indexOf(t.selected, n) >= 0
}

// SelectNode makes n the only selected node. A nil node clears the
// selection.
func (t *Tree) SelectNode(n *Node) {
	if n == nil {
		t.SelectNodes()
		return
	}
	t.SelectNodes(n)
}

// DeselectAll clears the selection.
func (t *Tree) DeselectAll() { t.SelectNodes() }

// SelectNodes replaces the selection. Unknown nodes and nodes rejected by
// the filters are dropped. If the primary selection is hidden by collapsed
// ancestors they are expanded.
func (t *Tree) SelectNodes(nodes ...*Node) {
	nodes = t.selectableNodes(nodes)
	if sameNodes(nodes, t.selected) {
		return
	}

	breadcrumb := t.opts.DisplayStyle == DisplayBreadcrumb
	if breadcrumb {
		if sel := t.SelectedNode(); sel != nil {
			for len(t.scrollTopHistory) <= sel.level {
				t.scrollTopHistory = append(t.scrollTopHistory, -1)
			}
			t.scrollTopHistory[sel.level] = t.scrollTop
		}
	} else {
		t.scrollTopHistory = nil
	}

	old := t.selected
	t.prevSelected = t.SelectedNode()
	t.selecting = true
	t.selected = nodes

	// nodes may only pass the lazy filter because they are selected now
	for _, n := range nodes {
		if !n.filterAccepted {
			t.ApplyFiltersForNode(n)
		}
	}
	t.selected = t.acceptedOnly(t.selected)
	t.selecting = false

	t.trigger(Event{Type: NodesSelected, Nodes: t.SelectedNodes()})

	if sel := t.SelectedNode(); sel != nil && !t.visibleNodesMap[sel.id] {
		t.expandAllParentNodes(sel)
	}
	if breadcrumb {
		if sel := t.SelectedNode(); sel != nil && !sel.expanded {
			t.ExpandNode(sel)
			sel.filterDirty = true
		}
		t.Filter()
		t.restoreScrollTop()
	}
	t.decorate(old...)
	t.decorate(t.selected...)
}

// DeselectNodes removes nodes from the selection.
func (t *Tree) DeselectNodes(opts DeselectOpts, nodes ...*Node) {
	if len(nodes) == 0 || len(t.selected) == 0 {
		return
	}
	if opts.CollectChildren {
		nodes = append(nodes, collectDescendants(nodes, t.selected)...)
	}
	remaining := make([]*Node, 0, len(t.selected))
	for _, s := range t.selected {
		if indexOf(nodes, s) < 0 {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == len(t.selected) {
		return
	}
	if t.selecting {
		// a filter pass inside SelectNodes hid some of the new selection
		t.selected = remaining
		return
	}
	t.SelectNodes(remaining...)
}

// PrevSelectedNode returns the primary selection before the last change.
func (t *Tree) PrevSelectedNode() *Node { return t.prevSelected }

func (t *Tree) selectableNodes(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || n.destroyed || t.nodesMap[n.id] != n || indexOf(out, n) >= 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (t *Tree) acceptedOnly(nodes []*Node) []*Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n.filterAccepted && !n.destroyed {
			out = append(out, n)
		}
	}
	return out
}

// restoreScrollTop applies the scroll position remembered for the level of
// the selection when navigating up in breadcrumb style.
func (t *Tree) restoreScrollTop() {
	level := -1
	if sel := t.SelectedNode(); sel != nil {
		level = sel.level
	}
	if level+1 < len(t.scrollTopHistory) {
		t.scrollTopHistory = t.scrollTopHistory[:level+1]
	}
	if level >= 0 && level < len(t.scrollTopHistory) && t.scrollTopHistory[level] >= 0 {
		t.Flush()
		t.SetScrollTop(t.scrollTopHistory[level])
	}
}

// collectDescendants returns the members of candidates that descend from
// one of nodes.
func collectDescendants(nodes, candidates []*Node) []*Node {
	var out []*Node
	for _, c := range candidates {
		for _, n := range nodes {
			if n.IsAncestorOf(c) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// sameNodes compares two node sets ignoring order.
func sameNodes(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for _, n := range a {
		if indexOf(b, n) < 0 {
			return false
		}
	}
	return true
}
