package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTaskQueueCoalesces verifies that a key scheduled twice runs once and
// that tasks scheduled while flushing run in a later round.
func TestTaskQueueCoalesces(t *testing.T) {
	q := newTaskQueue()
	var runs []string

	require.True(t, q.schedule("a", func() { runs = append(runs, "a") }))
	require.False(t, q.schedule("a", func() { runs = append(runs, "a2") }))
	q.schedule("b", func() {
		runs = append(runs, "b")
		q.schedule("a", func() { runs = append(runs, "a3") })
	})
	require.True(t, q.scheduled("b"))
	require.Equal(t, 2, q.len())

	require.Equal(t, 3, q.flush())
	require.Equal(t, []string{"a", "b", "a3"}, runs)
	require.Zero(t, q.len())
}

// TestTaskQueueStopsRunawayChains verifies the bound on self-scheduling
// tasks.
func TestTaskQueueStopsRunawayChains(t *testing.T) {
	q := newTaskQueue()
	count := 0
	var again func()
	again = func() {
		count++
		q.schedule("loop", again)
	}
	q.schedule("loop", again)

	q.flush()
	require.Equal(t, maxFlushRounds, count)
}

// TestListCanvasPlacement verifies ordering primitives of the in-memory
// canvas.
func TestListCanvasPlacement(t *testing.T) {
	c := NewListCanvas(nil)
	a := c.Build(NewNode(NodeModel{ID: "a", Text: "a"}))
	b := c.Build(NewNode(NodeModel{ID: "b", Text: "b"}))
	d := c.Build(NewNode(NodeModel{ID: "d", Text: "d"}))

	c.InsertAfter(a, nil)
	c.InsertAfter(d, a)
	c.InsertBefore(b, d)
	require.Equal(t, []string{"a", "b", "d"}, ids(c.Nodes()))

	// moving an already placed element
	c.InsertAfter(a, d)
	require.Equal(t, []string{"b", "d", "a"}, ids(c.Nodes()))

	c.Detach(d)
	require.Equal(t, []string{"b", "a"}, ids(c.Nodes()))
	require.Equal(t, 1, c.Detaches)

	c.Destroy(b)
	require.Equal(t, 1, c.Len())
	require.Equal(t, 1, c.Measure(a))
	require.Equal(t, 3, c.Builds)
}
