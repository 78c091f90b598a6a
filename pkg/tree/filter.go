package tree

import (
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// maxFilterDepth stops the descendant check on runaway hierarchies.
const maxFilterDepth = 32

// Filter decides whether a node is part of the visible order. Filters are
// compared by identity, so implementations should be pointer types.
type Filter interface {
	Accept(n *Node) bool
}

// PredicateFilter adapts a plain function to Filter.
type PredicateFilter struct {
	Name string
	fn   func(n *Node) bool
}

// NewPredicate wraps fn in a named filter.
func NewPredicate(name string, fn func(n *Node) bool) *PredicateFilter {
	return &PredicateFilter{Name: name, fn: fn}
}

func (f *PredicateFilter) Accept(n *Node) bool { return f.fn(n) }

func (f *PredicateFilter) String() string { return "PredicateFilter[" + f.Name + "]" }

// FilterResult lists the nodes whose acceptance changed. Ancestors come
// before their descendants.
type FilterResult struct {
	NewlyShown  []*Node
	NewlyHidden []*Node
}

// Empty reports whether nothing changed.
func (r FilterResult) Empty() bool {
	return len(r.NewlyShown) == 0 && len(r.NewlyHidden) == 0
}

func (r *FilterResult) prepend(o FilterResult) {
	if len(o.NewlyShown) > 0 {
		r.NewlyShown = append(append([]*Node(nil), o.NewlyShown...), r.NewlyShown...)
	}
	if len(o.NewlyHidden) > 0 {
		r.NewlyHidden = append(append([]*Node(nil), o.NewlyHidden...), r.NewlyHidden...)
	}
}

// filterMode selects how far applyFiltersForNodeRec descends.
type filterMode int

const (
	// filterShallow evaluates the node only.
	filterShallow filterMode = iota
	// filterDirty descends into children flagged dirty.
	filterDirty
	// filterFull descends into every child.
	filterFull
)

// Filters returns the registered filters, built-in ones included.
func (t *Tree) Filters() []Filter {
	out := make([]Filter, len(t.filters))
	copy(out, t.filters)
	return out
}

// HasFilter reports whether f is registered.
func (t *Tree) HasFilter(f Filter) bool {
	return t.filterIndex(f) >= 0
}

// AddFilter registers f. With apply set the tree is filtered right away.
func (t *Tree) AddFilter(f Filter, apply bool) {
	if f == nil || t.HasFilter(f) {
		return
	}
	t.filters = append(t.filters, f)
	if apply {
		t.Filter()
	}
}

// RemoveFilter unregisters f. With apply set the tree is filtered right away.
func (t *Tree) RemoveFilter(f Filter, apply bool) {
	i := t.filterIndex(f)
	if i < 0 {
		return
	}
	t.filters = append(t.filters[:i], t.filters[i+1:]...)
	if apply {
		t.Filter()
	}
}

// SetFilters replaces the user filters. Built-in filters stay registered.
func (t *Tree) SetFilters(filters []Filter, apply bool) {
	kept := t.filters[:0:0]
	for _, f := range t.filters {
		if t.isBuiltinFilter(f) {
			kept = append(kept, f)
		}
	}
	for _, f := range filters {
		if f != nil && indexOfFilter(kept, f) < 0 {
			kept = append(kept, f)
		}
	}
	t.filters = kept
	if apply {
		t.Filter()
	}
}

// Filter re-evaluates every node against the registered filters and
// updates the visible order.
func (t *Tree) Filter() FilterResult {
	defer metrics.Timer(metrics.FilterApply)()
	var result FilterResult
	for _, n := range t.nodes {
		r := t.applyFiltersForNodeMode(n, false, filterFull)
		result.NewlyShown = append(result.NewlyShown, r.NewlyShown...)
		result.NewlyHidden = append(result.NewlyHidden, r.NewlyHidden...)
	}
	t.updateFilteredElements(result)
	t.trigger(Event{Type: FilterChanged, Filter: result})
	return result
}

func (t *Tree) updateFilteredElements(result FilterResult) {
	if result.Empty() && (t.textFilter == nil || t.textFilter.Text() == "") {
		return
	}
	if t.textFilter != nil && t.textFilter.Text() != "" {
		for _, n := range t.allNodes() {
			if n.filterAccepted {
				t.expandAllParentNodes(n)
			}
		}
	}
	for _, n := range result.NewlyShown {
		t.addToVisibleFlatList(n, t.filterAnimated())
	}
	for _, n := range result.NewlyHidden {
		t.removeFromFlatList(n, t.filterAnimated())
	}
	debug.Log("tree: filter shown=%d hidden=%d visible=%d", len(result.NewlyShown), len(result.NewlyHidden), len(t.visibleNodesFlat))
}

// FilterVisibleNodes re-evaluates the visible nodes, children first, and
// removes those no longer accepted. Nodes that would become visible are
// left to the next full Filter.
func (t *Tree) FilterVisibleNodes() []*Node {
	var hidden []*Node
	for i := len(t.visibleNodesFlat) - 1; i >= 0; i-- {
		if i >= len(t.visibleNodesFlat) {
			continue
		}
		n := t.visibleNodesFlat[i]
		r := t.applyFiltersForNodeRec(n, filterFull)
		if len(r.NewlyHidden) > 0 {
			if !n.filterAccepted {
				hidden = append(hidden, r.NewlyHidden...)
			}
			t.viewRangeDirty = true
		}
	}
	for _, n := range hidden {
		t.removeFromFlatList(n, t.filterAnimated())
	}
	t.nodesFiltered(hidden)
	return hidden
}

// ApplyFiltersForNode re-evaluates n, its dirty descendants and all of its
// ancestors, then applies the changes to the visible order.
func (t *Tree) ApplyFiltersForNode(n *Node) FilterResult {
	n.filterDirty = true
	return t.applyFiltersForNodeMode(n, true, filterDirty)
}

func (t *Tree) applyFiltersForNodeMode(n *Node, apply bool, mode filterMode) FilterResult {
	result := t.applyFiltersForNodeRec(n, mode)

	// the node result alone is not enough, an ancestor may only have been
	// accepted for the sake of this node
	for p := n.parent; p != nil; p = p.parent {
		result.prepend(t.applyFiltersForNodeRec(p, filterShallow))
	}
	t.nodesFiltered(result.NewlyHidden)

	if apply {
		for _, s := range result.NewlyShown {
			t.addToVisibleFlatList(s, false)
		}
		for _, h := range result.NewlyHidden {
			t.removeFromFlatList(h, false)
		}
	}
	return result
}

func (t *Tree) applyFiltersForNodeRec(n *Node, mode filterMode) FilterResult {
	var result FilterResult

	changed := t.applyFiltersForNodeOnly(n)
	hasAcceptedChild := false
	if n.level < maxFilterDepth {
		switch {
		case mode == filterFull || mode == filterDirty:
			for _, c := range n.children {
				if mode == filterFull || c.filterDirty {
					r := t.applyFiltersForNodeRec(c, mode)
					result.NewlyShown = append(result.NewlyShown, r.NewlyShown...)
					result.NewlyHidden = append(result.NewlyHidden, r.NewlyHidden...)
				}
				hasAcceptedChild = hasAcceptedChild || c.filterAccepted
			}
		case !n.filterAccepted:
			for _, c := range n.children {
				if c.filterAccepted {
					hasAcceptedChild = true
					break
				}
			}
		}
	}

	// keep the path to accepted descendants navigable
	if !n.filterAccepted && hasAcceptedChild {
		n.filterAccepted = true
		changed = !changed
	}

	if changed {
		if n.filterAccepted {
			result.NewlyShown = append([]*Node{n}, result.NewlyShown...)
		} else {
			result.NewlyHidden = append([]*Node{n}, result.NewlyHidden...)
		}
		t.viewRangeDirty = true
	}
	return result
}

// applyFiltersForNodeOnly evaluates the predicates for n and reports whether
// its acceptance changed. A change or a dirty node marks its children dirty.
func (t *Tree) applyFiltersForNodeOnly(n *Node) bool {
	accepted := t.acceptedByFilters(n)
	changed := accepted != n.filterAccepted
	n.filterAccepted = accepted
	if changed || n.filterDirty {
		n.filterDirty = false
		for _, c := range n.children {
			c.filterDirty = true
		}
	}
	return changed
}

func (t *Tree) acceptedByFilters(n *Node) bool {
	for _, f := range t.filters {
		if !f.Accept(n) {
			return false
		}
	}
	return true
}

// nodesFiltered drops hidden nodes from the selection.
func (t *Tree) nodesFiltered(hidden []*Node) {
	if len(hidden) == 0 {
		return
	}
	t.DeselectNodes(DeselectOpts{}, hidden...)
}

// isFilterAccepted re-evaluates a dirty node before answering. Ancestors
// are not touched; the caller is adding the node below a visible parent.
func (t *Tree) isFilterAccepted(n *Node) bool {
	if n.filterDirty {
		t.applyFiltersForNodeRec(n, filterDirty)
	}
	return n.filterAccepted
}

func (t *Tree) filterAnimated() bool {
	return t.opts.Animated && t.opts.DisplayStyle != DisplayBreadcrumb
}

func (t *Tree) filterIndex(f Filter) int {
	return indexOfFilter(t.filters, f)
}

func (t *Tree) isBuiltinFilter(f Filter) bool {
	return f == t.lazyFilter || f == t.breadcrumbFilter || (t.textFilter != nil && f == t.textFilter)
}

func indexOfFilter(filters []Filter, f Filter) int {
	for i, x := range filters {
		if x == f {
			return i
		}
	}
	return -1
}
