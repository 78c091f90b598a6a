package tree

// CheckOpts tunes CheckNodes and UncheckNodes.
type CheckOpts struct {
	// IncludeDisabled also checks disabled nodes and works on a disabled
	// tree.
	IncludeDisabled bool
	// Children overrides Options.AutoCheckChildren when set.
	Children *bool
	// CollectChildren also processes checked descendants of the nodes.
	CollectChildren bool

	uncheck       bool
	suppressEvent bool
}

// CheckedNodes returns the checked nodes in the order they were checked.
func (t *Tree) CheckedNodes() []*Node {
	out := make([]*Node, len(t.checked))
	copy(out, t.checked)
	return out
}

// CheckNodes checks nodes. Disabled and filtered nodes are skipped but,
// with children checking on, their children are still visited. Without
// multi check the previously checked nodes are unchecked first.
func (t *Tree) CheckNodes(opts CheckOpts, nodes ...*Node) []*Node {
	opts.uncheck = false
	return t.checkNodes(opts, nodes)
}

// UncheckNodes unchecks nodes.
func (t *Tree) UncheckNodes(opts CheckOpts, nodes ...*Node) []*Node {
	opts.uncheck = true
	if opts.CollectChildren {
		nodes = append(nodes, collectDescendants(nodes, t.checked)...)
	}
	return t.checkNodes(opts, nodes)
}

// CheckNode sets the checked state of a single node.
func (t *Tree) CheckNode(n *Node, checked bool) {
	if checked {
		t.CheckNodes(CheckOpts{}, n)
		return
	}
	t.UncheckNodes(CheckOpts{}, n)
}

func (t *Tree) checkNodes(opts CheckOpts, nodes []*Node) []*Node {
	if !t.opts.Checkable || (!t.enabled && !opts.IncludeDisabled) {
		return nil
	}
	children := t.opts.AutoCheckChildren
	if opts.Children != nil {
		children = *opts.Children
	}
	checked := !opts.uncheck

	var updated []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n == nil || t.nodesMap[n.id] != n {
				continue
			}
			if (!n.enabled && !opts.IncludeDisabled) || n.checked == checked || !n.filterAccepted {
				if children {
					walk(n.children)
				}
				continue
			}
			if !t.opts.MultiCheck && checked {
				for _, c := range t.checked {
					c.checked = false
					t.propagateChildrenChecked(c.parent)
					updated = append(updated, c)
				}
				t.checked = nil
			}
			n.checked = checked
			if checked {
				t.checked = append(t.checked, n)
			} else {
				t.checked, _ = removeNode(t.checked, n)
			}
			t.propagateChildrenChecked(n.parent)
			updated = append(updated, n)
			if children {
				walk(n.children)
			}
		}
	}
	walk(nodes)

	if len(updated) == 0 {
		return nil
	}
	if !opts.suppressEvent {
		t.trigger(Event{Type: NodesChecked, Nodes: updated})
	}
	t.decorate(updated...)
	return updated
}

// propagateChildrenChecked recomputes childrenChecked from p upwards and
// stops at the first ancestor whose flag did not change.
func (t *Tree) propagateChildrenChecked(p *Node) {
	for ; p != nil; p = p.parent {
		v := anyChildChecked(p)
		if v == p.childrenChecked {
			return
		}
		p.childrenChecked = v
		t.decorate(p)
	}
}

// updateChildrenCheckedRec recomputes childrenChecked for a whole subtree,
// children first.
func updateChildrenCheckedRec(n *Node) {
	for _, c := range n.children {
		updateChildrenCheckedRec(c)
	}
	n.childrenChecked = anyChildChecked(n)
}

func anyChildChecked(n *Node) bool {
	for _, c := range n.children {
		if c.checked || c.childrenChecked {
			return true
		}
	}
	return false
}
