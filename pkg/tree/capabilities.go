package tree

// Collection is the hierarchical collection every tree style shares: the
// node graph, its visible flat order and structural events.
type Collection interface {
	NodeByID(id string) *Node
	Contains(id string) bool
	IsAncestor(ancestorID, id string) bool
	Nodes() []*Node
	VisibleNodes() []*Node
	VisibleCount() int
	VisibleAt(i int) *Node
	VisibleIndex(n *Node) int
	IsVisible(n *Node) bool
	Visit(fn func(n *Node) bool)
	Subscribe(fn Listener) func()
}

// Expandable drives the expansion state machine.
type Expandable interface {
	SetNodeExpanded(n *Node, expanded bool, opts ExpandOpts)
	ExpandAllParentNodes(n *Node)
}

// Selectable manages an ordered selection whose first node is primary.
type Selectable interface {
	SelectNode(n *Node)
	SelectNodes(nodes ...*Node)
	IsSelected(n *Node) bool
	SelectedNode() *Node
	SelectedNodes() []*Node
	DeselectAll()
}

// Checkable manages check boxes and their propagation.
type Checkable interface {
	CheckNodes(opts CheckOpts, nodes ...*Node) []*Node
	UncheckNodes(opts CheckOpts, nodes ...*Node) []*Node
	CheckedNodes() []*Node
}

// Filterable manages the predicates deciding visibility.
type Filterable interface {
	AddFilter(f Filter, apply bool)
	RemoveFilter(f Filter, apply bool)
	SetFilterText(text string)
	Filter() FilterResult
}

// Presenter answers the layout questions of drawing a single node.
type Presenter interface {
	NodePadding(n *Node) int
	Checkable() bool
	DisplayStyle() DisplayStyle
}

var (
	_ Presenter  = (*Tree)(nil)
	_ Collection = (*Tree)(nil)
	_ Expandable = (*Tree)(nil)
	_ Selectable = (*Tree)(nil)
	_ Checkable  = (*Tree)(nil)
	_ Filterable = (*Tree)(nil)
)
