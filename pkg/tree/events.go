package tree

// EventType identifies a structural or state event emitted by a Tree.
type EventType int

const (
	NodesInserted EventType = iota + 1
	NodesUpdated
	NodesDeleted
	AllChildNodesDeleted
	ChildNodeOrderChanged
	NodeExpanded
	NodesSelected
	NodesChecked
	FilterChanged
	DisplayStyleChanged
)

var eventNames = map[EventType]string{
	NodesInserted:         "nodesInserted",
	NodesUpdated:          "nodesUpdated",
	NodesDeleted:          "nodesDeleted",
	AllChildNodesDeleted:  "allChildNodesDeleted",
	ChildNodeOrderChanged: "childNodeOrderChanged",
	NodeExpanded:          "nodeExpanded",
	NodesSelected:         "nodesSelected",
	NodesChecked:          "nodesChecked",
	FilterChanged:         "filterChanged",
	DisplayStyleChanged:   "displayStyleChanged",
}

func (e EventType) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "unknown"
}

// Event carries the payload of a tree event. Fields not relevant to the
// event type are zero.
type Event struct {
	Type   EventType
	Parent *Node
	Nodes  []*Node
	Node   *Node

	Expanded     bool
	ExpandedLazy bool

	Filter FilterResult
}

// Listener receives tree events synchronously, after the model change is
// complete.
type Listener func(Event)

type subscription struct {
	id  int
	typ EventType // 0 means every type
	fn  Listener
}

type eventBus struct {
	nextID int
	subs   []subscription
}

func (b *eventBus) subscribe(typ EventType, fn Listener) func() {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, typ: typ, fn: fn})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *eventBus) emit(e Event) {
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	for _, s := range subs {
		if s.typ == 0 || s.typ == e.Type {
			s.fn(e)
		}
	}
}

// Subscribe registers fn for every event and returns a function removing it.
func (t *Tree) Subscribe(fn Listener) (unsubscribe func()) {
	return t.events.subscribe(0, fn)
}

// SubscribeTo registers fn for events of one type.
func (t *Tree) SubscribeTo(typ EventType, fn Listener) (unsubscribe func()) {
	return t.events.subscribe(typ, fn)
}

func (t *Tree) trigger(e Event) {
	t.events.emit(e)
}
