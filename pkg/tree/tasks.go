package tree

// Deferred task keys.
const (
	taskLayout   = "layout"
	taskDecorate = "decorate"
	taskPadding  = "padding"
)

// maxFlushRounds bounds task chains that keep rescheduling each other.
const maxFlushRounds = 64

// taskQueue coalesces deferred work by key. Scheduling a key that is
// already pending is a no-op, so many small changes end in one pass.
type taskQueue struct {
	order   []string
	pending map[string]func()
}

func newTaskQueue() *taskQueue {
	return &taskQueue{pending: make(map[string]func())}
}

func (q *taskQueue) schedule(key string, fn func()) bool {
	if _, ok := q.pending[key]; ok {
		return false
	}
	q.pending[key] = fn
	q.order = append(q.order, key)
	return true
}

func (q *taskQueue) scheduled(key string) bool {
	_, ok := q.pending[key]
	return ok
}

func (q *taskQueue) len() int { return len(q.order) }

// flush runs pending tasks in scheduling order. Tasks scheduled while
// flushing run in a following round.
func (q *taskQueue) flush() int {
	ran := 0
	for round := 0; round < maxFlushRounds && len(q.order) > 0; round++ {
		order := q.order
		q.order = nil
		for _, key := range order {
			fn := q.pending[key]
			delete(q.pending, key)
			if fn != nil {
				fn()
				ran++
			}
		}
	}
	return ran
}
