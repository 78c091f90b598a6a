package tree

import (
	"log"

	"github.com/vanderheijden86/treekit/pkg/debug"
)

// LazyMode selects how an expansion treats lazy expanding.
type LazyMode int

const (
	// LazyAuto keeps the current lazy state when nothing changes, uses the
	// node's switch when expanding and clears it when collapsing.
	LazyAuto LazyMode = iota
	LazyOn
	LazyOff
)

// ExpandOpts tunes SetNodeExpanded.
type ExpandOpts struct {
	Lazy LazyMode
	// NoAnimation suppresses the expand or collapse transition.
	NoAnimation bool
	// CollapseChildren collapses every expanded child first, recursively.
	CollapseChildren bool
}

// ChildLoader supplies the children of a node on its first expansion.
type ChildLoader interface {
	LoadChildren(n *Node) ([]*Node, error)
}

// ChildLoaderFunc adapts a function to ChildLoader.
type ChildLoaderFunc func(n *Node) ([]*Node, error)

func (f ChildLoaderFunc) LoadChildren(n *Node) ([]*Node, error) { return f(n) }

// SetChildLoader replaces the child loader.
func (t *Tree) SetChildLoader(l ChildLoader) { t.loader = l }

// ExpandNode expands n.
func (t *Tree) ExpandNode(n *Node) { t.SetNodeExpanded(n, true, ExpandOpts{}) }

// CollapseNode collapses n.
func (t *Tree) CollapseNode(n *Node) { t.SetNodeExpanded(n, false, ExpandOpts{}) }

// ToggleNode flips the expansion of n.
func (t *Tree) ToggleNode(n *Node) {
	if n == nil {
		return
	}
	t.SetNodeExpanded(n, !n.expanded, ExpandOpts{})
}

// SetNodeExpanded drives n's expansion state machine and updates the flat
// list. In breadcrumb style a collapse of the selected node, or of one of
// its ancestors, is turned into an expansion.
func (t *Tree) SetNodeExpanded(n *Node, expanded bool, opts ExpandOpts) {
	if n == nil || n.destroyed || t.nodesMap[n.id] != n {
		return
	}

	var lazy bool
	switch opts.Lazy {
	case LazyOn:
		lazy = true
	case LazyOff:
		lazy = false
	default:
		switch {
		case n.expanded == expanded:
			lazy = n.expandedLazy
		case expanded:
			lazy = n.lazyExpandingEnabled
		}
	}
	if !t.opts.LazyExpandingEnabled || !n.lazyExpandingEnabled {
		lazy = false
	}

	if !expanded && t.opts.DisplayStyle == DisplayBreadcrumb {
		if sel := t.SelectedNode(); sel != nil && (sel == n || n.IsAncestorOf(sel)) {
			expanded = true
			if !n.expanded {
				lazy = false
			}
		}
	}

	if opts.CollapseChildren {
		childOpts := opts
		childOpts.NoAnimation = true
		for _, c := range n.children {
			if c.expanded {
				t.SetNodeExpanded(c, false, childOpts)
			}
		}
	}

	if n.expanded == expanded && n.expandedLazy == lazy {
		return
	}
	expansionChanged := n.expanded != expanded
	lazyChanged := n.expandedLazy != lazy
	n.expanded = expanded
	n.expandedLazy = lazy
	animated := t.opts.Animated && !opts.NoAnimation

	// the lazy filter depends on the expansion of children of lazy parents
	// and on the lazy state of the parent itself
	if t.opts.LazyExpandingEnabled && (lazyChanged || (expansionChanged && n.parent != nil && n.parent.expandedLazy)) {
		n.filterDirty = true
		r := t.applyFiltersForNodeMode(n, false, filterDirty)
		for _, h := range r.NewlyHidden {
			t.removeFromFlatList(h, false)
		}
		for _, s := range r.NewlyShown {
			t.addToVisibleFlatList(s, false)
		}
	}
	if n.parent == nil && expansionChanged {
		if n.filterAccepted {
			t.addToVisibleFlatList(n, false)
		} else {
			t.removeFromFlatList(n, false)
		}
	}

	if n.expanded {
		t.ensureLoadChildren(n)
		t.addChildrenToFlatList(n, -1, animated, nil)
	} else {
		t.removeChildrenFromFlatList(n, animated)
	}
	debug.Log("tree: %s is now %s", n, n.ExpansionState())
	t.trigger(Event{Type: NodeExpanded, Node: n, Expanded: expanded, ExpandedLazy: lazy})
	t.viewRangeDirty = true
	t.decorate(n)
}

// SetNodeExpandedRecursive applies the expansion to nodes and all of their
// descendants.
func (t *Tree) SetNodeExpandedRecursive(nodes []*Node, expanded bool, opts ExpandOpts) {
	visitNodes(nodes, func(n *Node) bool {
		t.SetNodeExpanded(n, expanded, opts)
		return false
	})
}

// CollapseAll collapses every node without animation.
func (t *Tree) CollapseAll() {
	t.renderViewportBlocked = true
	visitNodes(t.nodes, func(n *Node) bool {
		t.SetNodeExpanded(n, false, ExpandOpts{NoAnimation: true})
		return false
	})
	t.renderViewportBlocked = false
	t.rerenderViewport()
}

// ExpandAll fully expands every node without animation.
func (t *Tree) ExpandAll() {
	t.renderViewportBlocked = true
	visitNodes(t.nodes, func(n *Node) bool {
		if !n.leaf {
			t.SetNodeExpanded(n, true, ExpandOpts{Lazy: LazyOff, NoAnimation: true})
		}
		return false
	})
	t.renderViewportBlocked = false
	t.rerenderViewport()
}

// ExpandAllParentNodes expands the ancestors of n so that it becomes
// visible, as far as the filters accept it.
func (t *Tree) ExpandAllParentNodes(n *Node) {
	if n == nil || t.nodesMap[n.id] != n {
		return
	}
	t.expandAllParentNodes(n)
}

func (t *Tree) expandAllParentNodes(n *Node) {
	var parents, missing []*Node
	for c := n; c.parent != nil; c = c.parent {
		parents = append(parents, c.parent)
		if !t.visibleNodesMap[c.id] {
			missing = append(missing, c)
		}
	}
	for i := len(parents) - 1; i >= 0; i-- {
		p := parents[i]
		if indexOf(missing, p) >= 0 {
			t.addToVisibleFlatList(p, false)
		}
		if !p.expanded {
			t.SetNodeExpanded(p, true, ExpandOpts{NoAnimation: true})
		}
	}
	if len(missing) > 0 {
		t.rerenderViewport()
	}
}

// ensureLoadChildren asks the child loader for the children of n once.
// A failing loader leaves n without children; the next expansion retries.
func (t *Tree) ensureLoadChildren(n *Node) {
	if n.childrenLoaded || n.leaf || t.loader == nil {
		return
	}
	children, err := t.loader.LoadChildren(n)
	if err != nil {
		log.Printf("Warning: loading children of %s: %v", n.id, err)
		return
	}
	n.childrenLoaded = true
	if len(children) == 0 {
		return
	}
	if err := t.insertNodes(n, children, false); err != nil {
		log.Printf("Warning: inserting loaded children of %s: %v", n.id, err)
	}
}
