package tree

// insertBatch collects a contiguous run of nodes that will be spliced into
// the visible flat list at insertAt in one operation.
type insertBatch struct {
	insertAt int
	nodes    []*Node

	// transition is the expand transition wrapping the run while it is
	// animated in, nil when the batch is not animated.
	transition *Transition
}

func newInsertBatch(at int) *insertBatch {
	return &insertBatch{insertAt: at}
}

func (b *insertBatch) isEmpty() bool { return len(b.nodes) == 0 }

func (b *insertBatch) length() int { return len(b.nodes) }

// lastInsertIndex is the flat index the last node of the batch will occupy
// once spliced, or insertAt for an empty batch.
func (b *insertBatch) lastInsertIndex() int {
	if b.isEmpty() {
		return b.insertAt
	}
	return b.insertAt + len(b.nodes) - 1
}

// nextInsertIndex is where a batch following this one starts, skipping one
// already visible node.
func (b *insertBatch) nextInsertIndex() int {
	if b.isEmpty() {
		return b.lastInsertIndex() + 1
	}
	return b.lastInsertIndex() + 2
}

func (b *insertBatch) containsNode(n *Node) bool {
	return indexOf(b.nodes, n) >= 0
}
