package tree

import (
	"time"

	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// Transition durations.
const (
	ShowHideDuration       = 250 * time.Millisecond
	ExpandCollapseDuration = 200 * time.Millisecond
)

// TransitionKind identifies what a transition animates.
type TransitionKind int

const (
	TransitionShow TransitionKind = iota
	TransitionHide
	TransitionExpand
	TransitionCollapse
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionShow:
		return "show"
	case TransitionHide:
		return "hide"
	case TransitionExpand:
		return "expand"
	case TransitionCollapse:
		return "collapse"
	}
	return "unknown"
}

// Transition is a cosmetic overlay over a model change that already
// happened. Its completion callback only cleans up canvas state.
type Transition struct {
	ID       uint64
	Kind     TransitionKind
	Parent   *Node
	Nodes    []*Node
	Start    time.Time
	Duration time.Duration

	done func(t *Transition)
}

// Progress returns the completed fraction at now, clamped to [0,1].
func (t *Transition) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(t.Start)) / float64(t.Duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Animator tracks running transitions. It never blocks; callers advance it
// with the current time and it completes whatever is due.
type Animator struct {
	now     func() time.Time
	nextID  uint64
	running []*Transition
	onIdle  func()
}

// NewAnimator creates an animator reading time from now.
func NewAnimator(now func() time.Time) *Animator {
	if now == nil {
		now = time.Now
	}
	return &Animator{now: now}
}

// Now returns the animator's clock reading.
func (a *Animator) Now() time.Time { return a.now() }

// Start registers a transition. done runs when it finishes, never when it
// is aborted.
func (a *Animator) Start(kind TransitionKind, parent *Node, nodes []*Node, d time.Duration, done func(t *Transition)) *Transition {
	a.nextID++
	t := &Transition{
		ID:       a.nextID,
		Kind:     kind,
		Parent:   parent,
		Nodes:    nodes,
		Start:    a.now(),
		Duration: d,
		done:     done,
	}
	a.running = append(a.running, t)
	metrics.TransitionsStarted.Inc()
	return t
}

// Running returns the number of transitions in flight.
func (a *Animator) Running() int { return len(a.running) }

// Transitions returns the transitions in flight, oldest first.
func (a *Animator) Transitions() []*Transition {
	out := make([]*Transition, len(a.running))
	copy(out, a.running)
	return out
}

// Active reports whether t is still in flight.
func (a *Animator) Active(t *Transition) bool {
	return t != nil && a.indexOf(t) >= 0
}

// Finish completes t immediately and runs its callback.
func (a *Animator) Finish(t *Transition) {
	if !a.take(t) {
		return
	}
	if t.done != nil {
		t.done(t)
	}
	a.idle()
}

// Abort drops t without running its callback.
func (a *Animator) Abort(t *Transition) {
	if !a.take(t) {
		return
	}
	metrics.TransitionsAborted.Inc()
	a.idle()
}

// FinishKind completes every running transition of the given kinds.
func (a *Animator) FinishKind(kinds ...TransitionKind) {
	for _, t := range a.Transitions() {
		for _, k := range kinds {
			if t.Kind == k {
				a.Finish(t)
				break
			}
		}
	}
}

// FinishAll completes every running transition.
func (a *Animator) FinishAll() {
	for _, t := range a.Transitions() {
		a.Finish(t)
	}
}

// Advance completes every transition that is due at now and returns how
// many finished.
func (a *Animator) Advance(now time.Time) int {
	n := 0
	for _, t := range a.Transitions() {
		if !now.Before(t.Start.Add(t.Duration)) {
			a.Finish(t)
			n++
		}
	}
	return n
}

// Forget removes a destroyed node from every transition. A transition left
// without targets is aborted.
func (a *Animator) Forget(n *Node) {
	for _, t := range a.Transitions() {
		if t.Parent == n {
			t.Parent = nil
		}
		nodes, ok := removeNode(t.Nodes, n)
		if !ok {
			continue
		}
		t.Nodes = nodes
		if len(t.Nodes) == 0 {
			a.Abort(t)
		}
	}
}

func (a *Animator) take(t *Transition) bool {
	i := a.indexOf(t)
	if i < 0 {
		return false
	}
	a.running = append(a.running[:i], a.running[i+1:]...)
	return true
}

func (a *Animator) idle() {
	if len(a.running) == 0 && a.onIdle != nil {
		a.onIdle()
	}
}

func (a *Animator) indexOf(t *Transition) int {
	for i, x := range a.running {
		if x == t {
			return i
		}
	}
	return -1
}
