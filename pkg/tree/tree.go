// Package tree implements a virtualized tree: a node hierarchy kept in sync
// with a derived flat order of visible nodes and a window of that order
// that is materialized on a Canvas.
//
// All operations run synchronously on the caller's goroutine. A Tree is not
// safe for concurrent use; the UI owns it from its event loop.
package tree

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/treekit/pkg/debug"
)

// Tree is the aggregate owning the node graph, the visible flat list and
// the rendered window.
type Tree struct {
	opts Options

	filters          []Filter
	lazyFilter       *lazyNodeFilter
	breadcrumbFilter *breadcrumbFilter
	textFilter       *TextFilter
	loader           ChildLoader

	nodes            []*Node
	nodesMap         map[string]*Node
	visibleNodesFlat []*Node
	visibleNodesMap  map[string]bool

	viewRangeRendered     Range
	viewRangeSize         int
	viewRangeDirty        bool
	canvas                Canvas
	attachedNodes         map[*Node]struct{}
	scrollTop             int
	viewportHeight        int
	nodeHeight            int
	renderViewportBlocked bool

	selected         []*Node
	prevSelected     *Node
	scrollTopHistory []int
	selecting        bool
	checked          []*Node

	anim              *Animator
	tasks             *taskQueue
	events            eventBus
	decorateQueue     []*Node
	initialTraversing bool
	enabled           bool
}

// Option customizes a Tree at construction.
type Option func(*Tree)

// WithClock sets the clock used for transitions.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) { t.anim = NewAnimator(now) }
}

// WithChildLoader sets the loader used on the first expansion of nodes
// whose children are not loaded.
func WithChildLoader(l ChildLoader) Option {
	return func(t *Tree) { t.loader = l }
}

// WithFilters registers user filters before the nodes are initialized.
func WithFilters(filters ...Filter) Option {
	return func(t *Tree) {
		for _, f := range filters {
			if f != nil && t.filterIndex(f) < 0 {
				t.filters = append(t.filters, f)
			}
		}
	}
}

// WithCanvas attaches the tree to c once it is initialized.
func WithCanvas(c Canvas) Option {
	return func(t *Tree) { t.canvas = c }
}

// WithViewportHeight sets the initial viewport height.
func WithViewportHeight(h int) Option {
	return func(t *Tree) { t.viewportHeight = max(h, 0) }
}

// New creates a tree holding nodes as top-level nodes.
func New(opts Options, nodes []*Node, options ...Option) (*Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree options: %w", err)
	}
	opts = opts.normalized()
	t := &Tree{
		opts:            opts,
		nodesMap:        make(map[string]*Node),
		visibleNodesMap: make(map[string]bool),
		attachedNodes:   make(map[*Node]struct{}),
		viewRangeSize:   DefaultViewRangeSize,
		nodeHeight:      opts.DefaultNodeHeight,
		tasks:           newTaskQueue(),
		enabled:         true,
	}
	if opts.ViewRangeSize > 0 {
		t.viewRangeSize = opts.ViewRangeSize
	}
	t.lazyFilter = &lazyNodeFilter{t: t}
	t.breadcrumbFilter = &breadcrumbFilter{t: t}

	var canvas Canvas
	for _, o := range options {
		o(t)
	}
	canvas, t.canvas = t.canvas, nil
	if t.anim == nil {
		t.anim = NewAnimator(nil)
	}
	t.anim.onIdle = t.transitionsDone

	t.filters = append(t.filters, t.lazyFilter)
	if opts.DisplayStyle == DisplayBreadcrumb {
		t.filters = append(t.filters, t.breadcrumbFilter)
	}

	roots := append([]*Node(nil), nodes...)
	if err := t.validateNew(roots); err != nil {
		return nil, err
	}
	normalizeChildIndexes(roots)
	sortByChildIndex(roots)
	updateChildIndex(roots, 0)
	t.nodes = roots

	t.initialTraversing = true
	t.initNodes(roots, nil)
	t.initialTraversing = false

	if canvas != nil {
		t.Attach(canvas)
	}
	debug.Log("tree: created with %d nodes, %d visible", len(t.nodesMap), len(t.visibleNodesFlat))
	return t, nil
}

// NewFromModels converts models into nodes and creates a tree of them.
func NewFromModels(opts Options, models []NodeModel, options ...Option) (*Tree, error) {
	nodes := make([]*Node, 0, len(models))
	for _, m := range models {
		nodes = append(nodes, NewNode(m))
	}
	return New(opts, nodes, options...)
}

// validateNew checks nodes about to be added for empty, duplicate and
// already registered ids before anything is mutated.
func (t *Tree) validateNew(nodes []*Node) error {
	seen := make(map[string]bool)
	var err error
	visitNodes(nodes, func(n *Node) bool {
		if err != nil {
			return true
		}
		switch {
		case n == nil:
			err = fmt.Errorf("%w: nil node", ErrEmptyID)
		case n.id == "":
			err = ErrEmptyID
		case n.initialized:
			err = fmt.Errorf("%w: %s already belongs to a tree", ErrDuplicateID, n.id)
		case seen[n.id] || t.nodesMap[n.id] != nil:
			err = fmt.Errorf("%w: %s", ErrDuplicateID, n.id)
		default:
			seen[n.id] = true
		}
		return err != nil
	})
	return err
}

// initNodes registers a freshly inserted subtree, filters it and adds its
// visible part to the flat list.
func (t *Tree) initNodes(nodes []*Node, parent *Node) {
	for _, n := range nodes {
		n.parent = parent
		t.initSubtree(n)
	}
	for _, n := range nodes {
		updateChildrenCheckedRec(n)
	}
	if parent != nil {
		t.propagateChildrenChecked(parent)
	}
	for _, n := range nodes {
		n.filterDirty = true
		// ancestors accepted only for the new nodes join the flat list here
		t.applyFiltersForNodeMode(n, !t.initialTraversing, filterFull)
	}
	visitNodes(nodes, func(n *Node) bool {
		t.addToVisibleFlatList(n, false)
		return false
	})
}

func (t *Tree) initSubtree(n *Node) {
	t.nodesMap[n.id] = n
	n.level = 0
	if n.parent != nil {
		n.level = n.parent.level + 1
	}
	if !t.opts.LazyExpandingEnabled || !n.lazyExpandingEnabled {
		n.expandedLazy = false
	}
	if n.checked {
		t.checked = append(t.checked, n)
	}
	n.destroyed = false
	n.initialized = true
	for _, c := range n.children {
		c.parent = n
		t.initSubtree(c)
	}
}

// Options returns the tree's options.
func (t *Tree) Options() Options { return t.opts }

// NodeByID resolves a node by id.
func (t *Tree) NodeByID(id string) *Node { return t.nodesMap[id] }

// Contains reports whether a node with id belongs to the tree.
func (t *Tree) Contains(id string) bool {
	_, ok := t.nodesMap[id]
	return ok
}

// IsAncestor reports whether the node ancestorID is a strict ancestor of
// the node id.
func (t *Tree) IsAncestor(ancestorID, id string) bool {
	a, n := t.nodesMap[ancestorID], t.nodesMap[id]
	if a == nil || n == nil {
		return false
	}
	return a.IsAncestorOf(n)
}

// Nodes returns the top-level nodes.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodesMap) }

// VisibleNodes returns the visible flat list.
func (t *Tree) VisibleNodes() []*Node {
	out := make([]*Node, len(t.visibleNodesFlat))
	copy(out, t.visibleNodesFlat)
	return out
}

// VisibleCount returns the length of the visible flat list.
func (t *Tree) VisibleCount() int { return len(t.visibleNodesFlat) }

// VisibleAt returns the visible node at flat index i, nil if out of range.
func (t *Tree) VisibleAt(i int) *Node {
	if i < 0 || i >= len(t.visibleNodesFlat) {
		return nil
	}
	return t.visibleNodesFlat[i]
}

// VisibleIndex returns n's flat index, -1 when n is not visible.
func (t *Tree) VisibleIndex(n *Node) int {
	if n == nil || !t.visibleNodesMap[n.id] {
		return -1
	}
	return t.flatIndexOf(n)
}

// IsVisible reports whether n is part of the visible flat list.
func (t *Tree) IsVisible(n *Node) bool {
	return n != nil && t.visibleNodesMap[n.id]
}

// Visit walks the tree pre-order. Returning true from fn skips the
// children of the visited node.
func (t *Tree) Visit(fn func(n *Node) bool) {
	visitNodes(t.nodes, fn)
}

func (t *Tree) allNodes() []*Node {
	out := make([]*Node, 0, len(t.nodesMap))
	visitNodes(t.nodes, func(n *Node) bool {
		out = append(out, n)
		return false
	})
	return out
}

// Enabled reports whether the tree accepts user interaction.
func (t *Tree) Enabled() bool { return t.enabled }

// SetEnabled enables or disables the tree. A disabled tree refuses checks
// of enabled-only check requests.
func (t *Tree) SetEnabled(enabled bool) {
	if t.enabled == enabled {
		return
	}
	t.enabled = enabled
	t.schedulePadding()
}

// Checkable reports whether nodes carry check boxes.
func (t *Tree) Checkable() bool { return t.opts.Checkable }

// SetCheckable turns check boxes on or off.
func (t *Tree) SetCheckable(checkable bool) {
	if t.opts.Checkable == checkable {
		return
	}
	t.opts.Checkable = checkable
	t.schedulePadding()
}

// DisplayStyle returns the current display style.
func (t *Tree) DisplayStyle() DisplayStyle { return t.opts.DisplayStyle }

// SetDisplayStyle switches between the default and the breadcrumb style.
// Breadcrumb installs the path filter and expands the selected node.
func (t *Tree) SetDisplayStyle(style DisplayStyle) error {
	style, err := ParseDisplayStyle(string(style))
	if err != nil {
		return err
	}
	if t.opts.DisplayStyle == style {
		return nil
	}
	t.renderViewportBlocked = true
	t.opts.DisplayStyle = style
	if style == DisplayBreadcrumb {
		if sel := t.SelectedNode(); sel != nil && !sel.expanded {
			t.ExpandNode(sel)
		}
		t.AddFilter(t.breadcrumbFilter, false)
		t.FilterVisibleNodes()
	} else {
		t.scrollTopHistory = nil
		t.RemoveFilter(t.breadcrumbFilter, true)
	}
	t.renderViewportBlocked = false
	t.schedulePadding()
	t.rerenderViewport()
	t.trigger(Event{Type: DisplayStyleChanged})
	return nil
}

// LazyExpandingEnabled reports the global lazy expansion switch.
func (t *Tree) LazyExpandingEnabled() bool { return t.opts.LazyExpandingEnabled }

// SetLazyExpandingEnabled changes the global lazy expansion switch.
// Disabling it turns every lazily expanded node into a fully expanded one.
func (t *Tree) SetLazyExpandingEnabled(enabled bool) {
	if t.opts.LazyExpandingEnabled == enabled {
		return
	}
	t.opts.LazyExpandingEnabled = enabled
	if !enabled {
		visitNodes(t.nodes, func(n *Node) bool {
			n.expandedLazy = false
			return false
		})
	}
	t.Filter()
}

// NodePadding returns the indentation of n in columns.
func (t *Tree) NodePadding(n *Node) int {
	if t.opts.DisplayStyle == DisplayBreadcrumb {
		return 0
	}
	return n.level * t.opts.NodePaddingLevel
}

// Flush runs the deferred work: layout, decoration and padding refresh.
// It returns the number of tasks that ran.
func (t *Tree) Flush() int { return t.tasks.flush() }

// Pending reports whether deferred work is waiting for Flush.
func (t *Tree) Pending() bool { return t.tasks.len() > 0 }

// Animator returns the coordinator of the running transitions.
func (t *Tree) Animator() *Animator { return t.anim }

// Tick completes the transitions due at now and flushes the resulting work.
func (t *Tree) Tick(now time.Time) int {
	done := t.anim.Advance(now)
	t.Flush()
	return done
}

// Settle finishes every transition and runs all deferred work.
func (t *Tree) Settle() {
	t.anim.FinishAll()
	t.Flush()
}

func (t *Tree) transitionsDone() {
	t.viewRangeDirty = true
	t.invalidateLayout()
}

// decorate queues a redraw of n's element.
func (t *Tree) decorate(nodes ...*Node) {
	if !t.rendered() {
		return
	}
	t.decorateQueue = append(t.decorateQueue, nodes...)
	t.tasks.schedule(taskDecorate, t.runDecorate)
}

func (t *Tree) runDecorate() {
	queue := t.decorateQueue
	t.decorateQueue = nil
	if t.canvas == nil {
		return
	}
	done := make(map[*Node]bool, len(queue))
	for _, n := range queue {
		if done[n] || n.destroyed || n.el == nil {
			continue
		}
		done[n] = true
		t.canvas.Update(n.el, n)
		if n.attached {
			n.height = t.canvas.Measure(n.el)
		}
	}
}

// schedulePadding refreshes every attached element, indentation and check
// boxes depend on tree-wide settings.
func (t *Tree) schedulePadding() {
	if !t.rendered() {
		return
	}
	t.tasks.schedule(taskPadding, func() {
		for n := range t.attachedNodes {
			t.decorate(n)
		}
	})
}
