package ui

import (
	"strings"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// menuAction is an entry of the node context menu.
type menuAction struct {
	label string
	run   func(m *Model, n *tree.Node)
}

// nodeMenu lists the actions offered for n.
func nodeMenu(n *tree.Node, checkable bool) []menuAction {
	var items []menuAction
	if !n.Leaf() && n.ChildCount() > 0 {
		if n.Expanded() {
			items = append(items, menuAction{"Collapse", func(m *Model, n *tree.Node) {
				m.tree.SetNodeExpanded(n, false, tree.ExpandOpts{})
			}})
		} else {
			items = append(items, menuAction{"Expand", func(m *Model, n *tree.Node) {
				m.tree.SetNodeExpanded(n, true, tree.ExpandOpts{Lazy: tree.LazyOff})
			}})
		}
		items = append(items, menuAction{"Expand all below", func(m *Model, n *tree.Node) {
			expandSubtree(m.tree, n)
		}})
	}
	if checkable && n.Enabled() {
		label := "Check"
		if n.Checked() {
			label = "Uncheck"
		}
		items = append(items, menuAction{label, func(m *Model, n *tree.Node) {
			toggleChecked(m.tree, n)
		}})
	}
	items = append(items, menuAction{"Copy path", func(m *Model, n *tree.Node) {
		m.copyPath(n)
	}})
	return items
}

// expandSubtree expands n and every descendant with children, top down.
func expandSubtree(e tree.Expandable, n *tree.Node) {
	if n.Leaf() || n.ChildCount() == 0 {
		return
	}
	e.SetNodeExpanded(n, true, tree.ExpandOpts{Lazy: tree.LazyOff})
	for _, c := range n.Children() {
		expandSubtree(e, c)
	}
}

func toggleChecked(k tree.Checkable, n *tree.Node) {
	if n.Checked() {
		k.UncheckNodes(tree.CheckOpts{}, n)
		return
	}
	k.CheckNodes(tree.CheckOpts{}, n)
}

func (m *Model) openMenu() {
	sel := m.tree.SelectedNode()
	if sel == nil {
		return
	}
	if !m.tree.Options().ContextMenuEnabled {
		m.setStatus("No context menu in this view", false)
		return
	}
	m.menu = nodeMenu(sel, m.tree.Checkable())
	m.menuIndex = 0
}

func (m *Model) closeMenu() {
	m.menu = nil
	m.menuIndex = 0
}

func (m *Model) handleMenuKeys(msg string) {
	switch msg {
	case "esc", "m", "q":
		m.closeMenu()
	case "left", "h", "shift+tab":
		m.menuIndex = (m.menuIndex + len(m.menu) - 1) % len(m.menu)
	case "right", "l", "tab":
		m.menuIndex = (m.menuIndex + 1) % len(m.menu)
	case "enter", " ":
		item := m.menu[m.menuIndex]
		sel := m.tree.SelectedNode()
		m.closeMenu()
		if sel == nil {
			return
		}
		item.run(m, sel)
		m.tree.Flush()
		m.tree.ScrollTo(m.tree.SelectedNode())
	}
}

func (m Model) renderMenu() string {
	parts := make([]string, len(m.menu))
	for i, item := range m.menu {
		if i == m.menuIndex {
			parts[i] = m.theme.Selected.Render(" " + item.label + " ")
		} else {
			parts[i] = m.theme.Footer.Render(" " + item.label + " ")
		}
	}
	return strings.Join(parts, " ")
}
