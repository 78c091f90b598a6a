package tree

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// lazyNodeFilter hides the collapsed children of a lazily expanded node,
// together with everything below them, unless they lead to the selection.
type lazyNodeFilter struct {
	t *Tree
}

func (f *lazyNodeFilter) Accept(n *Node) bool {
	if !f.t.opts.LazyExpandingEnabled {
		return true
	}
	for c := n; c.parent != nil; c = c.parent {
		p := c.parent
		if p.expandedLazy && p.lazyExpandingEnabled && !c.expanded && !f.t.onSelectionPath(c) {
			return false
		}
	}
	return true
}

// breadcrumbFilter accepts the path of the primary selection: the selected
// node, its ancestors and its direct children. Without selection only
// top-level nodes are accepted.
type breadcrumbFilter struct {
	t *Tree
}

func (f *breadcrumbFilter) Accept(n *Node) bool {
	sel := f.t.SelectedNode()
	if sel == nil {
		return n.parent == nil
	}
	return n == sel || n.parent == sel || n.IsAncestorOf(sel)
}

// TextFilter accepts nodes whose text contains the filter text, case
// insensitive, or matches it fuzzily.
type TextFilter struct {
	text  string
	lower string
	fuzzy bool
}

// NewTextFilter creates a text filter. An empty text accepts every node.
func NewTextFilter(text string, fuzzyMatch bool) *TextFilter {
	f := &TextFilter{fuzzy: fuzzyMatch}
	f.set(text)
	return f
}

func (f *TextFilter) set(text string) {
	f.text = text
	f.lower = strings.ToLower(text)
}

// Text returns the current filter text.
func (f *TextFilter) Text() string { return f.text }

func (f *TextFilter) Accept(n *Node) bool {
	if f.lower == "" {
		return true
	}
	if f.fuzzy {
		return len(fuzzy.Find(f.text, []string{n.text})) > 0
	}
	return strings.Contains(strings.ToLower(n.text), f.lower)
}

// FilterText returns the active text filter's text.
func (t *Tree) FilterText() string {
	if t.textFilter == nil {
		return ""
	}
	return t.textFilter.Text()
}

// SetFilterText installs, changes or removes the text filter and filters
// the tree. Parents of matching nodes are expanded.
func (t *Tree) SetFilterText(text string) {
	if !t.opts.TextFilterEnabled {
		return
	}
	text = strings.TrimSpace(text)
	switch {
	case t.textFilter == nil && text == "":
		return
	case t.textFilter == nil:
		t.textFilter = NewTextFilter(text, t.opts.FuzzyTextFilter)
		t.AddFilter(t.textFilter, true)
	case text == t.textFilter.Text():
		return
	case text == "":
		f := t.textFilter
		t.textFilter = nil
		t.RemoveFilter(f, true)
	default:
		t.textFilter.set(text)
		t.Filter()
	}
}

// onSelectionPath reports whether n is selected or an ancestor of a
// selected node.
func (t *Tree) onSelectionPath(n *Node) bool {
	for _, s := range t.selected {
		if s == n || n.IsAncestorOf(s) {
			return true
		}
	}
	return false
}
