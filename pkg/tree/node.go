package tree

// NodeModel is the plain description of a node, as loaded from a file or
// received from an outer layer. NewNode turns it into a live Node.
type NodeModel struct {
	ID                   string      `json:"id" yaml:"id"`
	Text                 string      `json:"text,omitempty" yaml:"text,omitempty"`
	ChildIndex           *int        `json:"childIndex,omitempty" yaml:"childIndex,omitempty"`
	Expanded             bool        `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	ExpandedLazy         bool        `json:"expandedLazy,omitempty" yaml:"expandedLazy,omitempty"`
	Checked              bool        `json:"checked,omitempty" yaml:"checked,omitempty"`
	Enabled              *bool       `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Leaf                 bool        `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	LazyExpandingEnabled *bool       `json:"lazyExpandingEnabled,omitempty" yaml:"lazyExpandingEnabled,omitempty"`
	Children             []NodeModel `json:"children,omitempty" yaml:"children,omitempty"`
	Data                 any         `json:"data,omitempty" yaml:"data,omitempty"`
}

// ExpansionState is the state of a node's expansion state machine.
type ExpansionState int

const (
	Collapsed ExpansionState = iota
	ExpandedLazyState
	ExpandedFull
)

func (s ExpansionState) String() string {
	switch s {
	case ExpandedLazyState:
		return "expanded-lazy"
	case ExpandedFull:
		return "expanded-full"
	default:
		return "collapsed"
	}
}

// Node is a single item of a Tree. Its structural and derived state is
// owned by the tree it belongs to; callers mutate it through the Tree.
type Node struct {
	id         string
	text       string
	data       any
	parent     *Node
	children   []*Node
	childIndex int
	level      int

	expanded             bool
	expandedLazy         bool
	lazyExpandingEnabled bool
	enabled              bool
	leaf                 bool
	checked              bool
	childrenChecked      bool
	childrenLoaded       bool

	filterAccepted bool
	filterDirty    bool

	// rendered means an element was built, attached means it currently
	// sits in the canvas as part of the materialized window.
	rendered bool
	attached bool
	hiding   bool
	showing  bool
	el       Element
	height   int
	animGen  uint64

	initialized bool
	destroyed   bool
}

// NewNode converts a model, including its children, into unattached nodes.
// A model without explicit child index takes its position among its siblings.
func NewNode(m NodeModel) *Node {
	n := &Node{
		id:             m.ID,
		text:           m.Text,
		data:           m.Data,
		childIndex:     -1,
		expanded:       m.Expanded,
		expandedLazy:   m.Expanded && m.ExpandedLazy,
		checked:        m.Checked,
		enabled:        true,
		leaf:           m.Leaf,
		filterAccepted: true,
		childrenLoaded: len(m.Children) > 0 || m.Leaf,
	}
	if m.ChildIndex != nil {
		n.childIndex = *m.ChildIndex
	}
	if m.Enabled != nil {
		n.enabled = *m.Enabled
	}
	if m.LazyExpandingEnabled != nil {
		n.lazyExpandingEnabled = *m.LazyExpandingEnabled
	}
	if len(m.Children) > 0 {
		n.children = make([]*Node, 0, len(m.Children))
		for _, cm := range m.Children {
			c := NewNode(cm)
			c.parent = n
			n.children = append(n.children, c)
		}
		normalizeChildIndexes(n.children)
		sortByChildIndex(n.children)
		updateChildIndex(n.children, 0)
	}
	return n
}

// Model converts the node and its subtree back into a plain model.
func (n *Node) Model() NodeModel {
	idx := n.childIndex
	enabled := n.enabled
	lazy := n.lazyExpandingEnabled
	m := NodeModel{
		ID:                   n.id,
		Text:                 n.text,
		ChildIndex:           &idx,
		Expanded:             n.expanded,
		ExpandedLazy:         n.expandedLazy,
		Checked:              n.checked,
		Enabled:              &enabled,
		Leaf:                 n.leaf,
		LazyExpandingEnabled: &lazy,
		Data:                 n.data,
	}
	for _, c := range n.children {
		m.Children = append(m.Children, c.Model())
	}
	return m
}

func (n *Node) ID() string { return n.id }
func (n *Node) Text() string { return n.text }
func (n *Node) Data() any { return n.data }
func (n *Node) Parent() *Node { return n.parent }
func (n *Node) ChildIndex() int { return n.childIndex }
func (n *Node) Level() int { return n.level }
func (n *Node) Expanded() bool { return n.expanded }
func (n *Node) ExpandedLazy() bool { return n.expandedLazy }
func (n *Node) Enabled() bool { return n.enabled }
func (n *Node) Leaf() bool { return n.leaf }
func (n *Node) Checked() bool { return n.checked }
func (n *Node) ChildrenChecked() bool { return n.childrenChecked }
func (n *Node) FilterAccepted() bool { return n.filterAccepted }
func (n *Node) Attached() bool { return n.attached }
func (n *Node) Rendered() bool { return n.rendered }
func (n *Node) Destroyed() bool { return n.destroyed }
func (n *Node) Element() Element { return n.el }

// LazyExpandingEnabled reports the per-node lazy expansion switch.
func (n *Node) LazyExpandingEnabled() bool { return n.lazyExpandingEnabled }

// Height is the last measured height, 0 when never measured.
func (n *Node) Height() int { return n.height }

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children without copying.
func (n *Node) ChildCount() int { return len(n.children) }

// ExpansionState maps the expanded flags onto the state machine.
func (n *Node) ExpansionState() ExpansionState {
	switch {
	case !n.expanded:
		return Collapsed
	case n.expandedLazy:
		return ExpandedLazyState
	default:
		return ExpandedFull
	}
}

// IsAncestorOf reports whether n is a strict ancestor of o.
func (n *Node) IsAncestorOf(o *Node) bool {
	if o == nil {
		return false
	}
	for p := o.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// IsDescendantOf reports whether n is a strict descendant of o.
func (n *Node) IsDescendantOf(o *Node) bool {
	if o == nil {
		return false
	}
	return o.IsAncestorOf(n)
}

// Path returns the texts from the top-level ancestor down to n.
func (n *Node) Path() []string {
	var path []string
	for c := n; c != nil; c = c.parent {
		path = append(path, c.text)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (n *Node) String() string {
	return "Node[" + n.id + "]"
}

// visitNodes walks nodes pre-order. Returning true from fn skips the
// children of the visited node.
func visitNodes(nodes []*Node, fn func(n *Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			continue
		}
		if len(n.children) > 0 {
			visitNodes(n.children, fn)
		}
	}
}

func normalizeChildIndexes(nodes []*Node) {
	for i, n := range nodes {
		if n.childIndex < 0 {
			n.childIndex = i
		}
	}
}

// sortByChildIndex is a stable insertion sort; sibling lists are short and
// mostly sorted already.
func sortByChildIndex(nodes []*Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].childIndex < nodes[j-1].childIndex; j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func updateChildIndex(nodes []*Node, start int) {
	for i := max(start, 0); i < len(nodes); i++ {
		nodes[i].childIndex = i
	}
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}

func insertAt(nodes []*Node, n *Node, i int) []*Node {
	if i < 0 || i > len(nodes) {
		i = len(nodes)
	}
	nodes = append(nodes, nil)
	copy(nodes[i+1:], nodes[i:])
	nodes[i] = n
	return nodes
}

func removeNode(nodes []*Node, n *Node) ([]*Node, bool) {
	i := indexOf(nodes, n)
	if i < 0 {
		return nodes, false
	}
	return append(nodes[:i], nodes[i+1:]...), true
}
