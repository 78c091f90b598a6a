package ui

import (
	"strings"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// Expander glyphs by expansion state.
const (
	glyphCollapsed = "▸ "
	glyphExpanded  = "▾ "
	glyphLazy      = "▿ "
	glyphLeaf      = "• "
)

// RowCanvas materializes nodes as single terminal rows. The row text holds
// indentation, expander, checkbox and label; styling happens at draw time
// so that selection and width changes need no rebuild.
type RowCanvas struct {
	*tree.ListCanvas

	layout       tree.Presenter
	showCheckbox bool
}

// NewRowCanvas creates a canvas laid out by layout, usually the tree it
// will be attached to. It is not attached; call tr.Attach with it.
func NewRowCanvas(layout tree.Presenter, showCheckbox bool) *RowCanvas {
	c := &RowCanvas{layout: layout, showCheckbox: showCheckbox}
	c.ListCanvas = tree.NewListCanvas(c.render)
	return c
}

func (c *RowCanvas) render(n *tree.Node) (string, int) {
	return c.prefix(n) + label(n), 1
}

func (c *RowCanvas) prefix(n *tree.Node) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", c.layout.NodePadding(n)))
	switch {
	case n.Leaf() || n.ChildCount() == 0:
		b.WriteString(glyphLeaf)
	case n.ExpansionState() == tree.ExpandedLazyState:
		b.WriteString(glyphLazy)
	case n.Expanded():
		b.WriteString(glyphExpanded)
	default:
		b.WriteString(glyphCollapsed)
	}
	if c.showCheckbox && c.layout.Checkable() {
		switch {
		case n.Checked():
			b.WriteString("[x] ")
		case n.ChildrenChecked():
			b.WriteString("[-] ")
		default:
			b.WriteString("[ ] ")
		}
	}
	return b.String()
}

// label returns the first line of a node's text with tabs expanded.
func label(n *tree.Node) string {
	s := n.Text()
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i] + " …"
	}
	return strings.ReplaceAll(s, "\t", "    ")
}
