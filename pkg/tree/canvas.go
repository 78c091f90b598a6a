package tree

// Element is the opaque UI representation a Canvas builds for a node.
type Element any

// Canvas materializes nodes. The tree decides which nodes are attached and
// where; the canvas only builds, places and measures elements.
type Canvas interface {
	// Build creates the element for a node. It is called once per node,
	// the element is kept across detach/attach cycles.
	Build(n *Node) Element
	// Update redraws an element after the node's state changed.
	Update(el Element, n *Node)
	// InsertAfter places el directly after prev, or at the start when prev
	// is nil. An element that is already placed is moved.
	InsertAfter(el, prev Element)
	// InsertBefore places el directly before next. An element that is
	// already placed is moved.
	InsertBefore(el, next Element)
	// Detach removes el from the canvas but keeps it for reattachment.
	Detach(el Element)
	// Destroy releases el for good.
	Destroy(el Element)
	// Measure returns the height of el, 0 if unknown.
	Measure(el Element) int
}

// RenderFunc draws a single row for a node.
type RenderFunc func(n *Node) (text string, height int)

// Row is the element type of ListCanvas.
type Row struct {
	Node   *Node
	Text   string
	Height int

	placed    bool
	destroyed bool
}

// ListCanvas is an in-memory Canvas keeping its rows in display order.
// It backs terminal rendering and tests.
type ListCanvas struct {
	rows   []*Row
	render RenderFunc

	Builds   int
	Attaches int
	Detaches int
}

// NewListCanvas creates a canvas drawing rows with render. A nil render
// draws the node text with height 1.
func NewListCanvas(render RenderFunc) *ListCanvas {
	if render == nil {
		render = func(n *Node) (string, int) { return n.Text(), 1 }
	}
	return &ListCanvas{render: render}
}

func (c *ListCanvas) Build(n *Node) Element {
	c.Builds++
	r := &Row{Node: n}
	r.Text, r.Height = c.render(n)
	return r
}

func (c *ListCanvas) Update(el Element, n *Node) {
	r := el.(*Row)
	r.Text, r.Height = c.render(n)
}

func (c *ListCanvas) InsertAfter(el, prev Element) {
	r := el.(*Row)
	c.remove(r)
	at := 0
	if prev != nil {
		if i := c.indexOf(prev.(*Row)); i >= 0 {
			at = i + 1
		} else {
			at = len(c.rows)
		}
	}
	c.insert(r, at)
}

func (c *ListCanvas) InsertBefore(el, next Element) {
	r := el.(*Row)
	c.remove(r)
	at := 0
	if i := c.indexOf(next.(*Row)); i >= 0 {
		at = i
	}
	c.insert(r, at)
}

func (c *ListCanvas) Detach(el Element) {
	if c.remove(el.(*Row)) {
		c.Detaches++
	}
}

func (c *ListCanvas) Destroy(el Element) {
	r := el.(*Row)
	c.remove(r)
	r.destroyed = true
}

func (c *ListCanvas) Measure(el Element) int {
	return el.(*Row).Height
}

// Rows returns the placed rows in display order.
func (c *ListCanvas) Rows() []*Row {
	out := make([]*Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// Nodes returns the nodes of the placed rows in display order.
func (c *ListCanvas) Nodes() []*Node {
	out := make([]*Node, len(c.rows))
	for i, r := range c.rows {
		out[i] = r.Node
	}
	return out
}

// Len returns the number of placed rows.
func (c *ListCanvas) Len() int { return len(c.rows) }

func (c *ListCanvas) insert(r *Row, at int) {
	c.rows = append(c.rows, nil)
	copy(c.rows[at+1:], c.rows[at:])
	c.rows[at] = r
	r.placed = true
	c.Attaches++
}

func (c *ListCanvas) remove(r *Row) bool {
	if !r.placed {
		return false
	}
	i := c.indexOf(r)
	if i < 0 {
		r.placed = false
		return false
	}
	c.rows = append(c.rows[:i], c.rows[i+1:]...)
	r.placed = false
	return true
}

func (c *ListCanvas) indexOf(r *Row) int {
	for i, x := range c.rows {
		if x == r {
			return i
		}
	}
	return -1
}
