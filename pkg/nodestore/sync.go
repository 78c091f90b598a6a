package nodestore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// Diff describes how a tree differs from a reloaded forest.
type Diff struct {
	// Removed are nodes absent from the forest or placed below another
	// parent. Only the topmost of nested removals is listed.
	Removed []string
	// Added are models new to the tree, again topmost only.
	Added []string
	// Changed are nodes whose text, leaf, enabled, lazy or data differ.
	Changed []string
	// Reordered are parents whose children changed order. The empty id
	// stands for the root level.
	Reordered []string
}

// Empty reports whether applying the forest would change nothing.
func (d Diff) Empty() bool {
	return len(d.Removed) == 0 && len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Reordered) == 0
}

// Summary returns a human-readable description of the diff.
func (d Diff) Summary() string {
	if d.Empty() {
		return "Tree matches file"
	}
	var b strings.Builder
	section := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&b, "  - %d %s\n", len(ids), label)
		if len(ids) <= 5 {
			for _, id := range ids {
				if id == "" {
					id = "(root)"
				}
				fmt.Fprintf(&b, "    - %s\n", id)
			}
		}
	}
	b.WriteString("Changes found:\n")
	section("removed", d.Removed)
	section("added", d.Added)
	section("changed", d.Changed)
	section("reordered", d.Reordered)
	return b.String()
}

// Compare computes the diff between tr and models without touching tr.
func Compare(tr *tree.Tree, models []tree.NodeModel) Diff {
	s := newSyncer(tr, models)
	s.dryRun = true
	s.run()
	return s.diff
}

// Sync brings tr in line with models through the mutation operations of
// the tree. Nodes that survive keep their expansion, check state and
// selection; removed and moved nodes are deleted and moved nodes are
// inserted again from the model.
func Sync(tr *tree.Tree, models []tree.NodeModel) (Diff, error) {
	if err := (Document{Nodes: models}).Validate(); err != nil {
		return Diff{}, err
	}
	s := newSyncer(tr, models)
	if err := s.run(); err != nil {
		return s.diff, err
	}
	return s.diff, nil
}

type syncer struct {
	tr       *tree.Tree
	models   []tree.NodeModel
	parentOf map[string]string
	dryRun   bool
	diff     Diff
}

func newSyncer(tr *tree.Tree, models []tree.NodeModel) *syncer {
	s := &syncer{tr: tr, models: models, parentOf: make(map[string]string)}
	var walk func(parent string, ms []tree.NodeModel)
	walk = func(parent string, ms []tree.NodeModel) {
		for _, m := range ms {
			s.parentOf[m.ID] = parent
			walk(m.ID, m.Children)
		}
	}
	walk("", models)
	return s
}

func (s *syncer) run() error {
	var removed []*tree.Node
	s.tr.Visit(func(n *tree.Node) bool {
		parent, ok := s.parentOf[n.ID()]
		if ok && parent == parentID(n) {
			return false
		}
		removed = append(removed, n)
		return true
	})
	gone := make(map[string]bool, len(removed))
	var mark func(n *tree.Node)
	mark = func(n *tree.Node) {
		gone[n.ID()] = true
		for _, c := range n.Children() {
			mark(c)
		}
	}
	for _, n := range removed {
		s.diff.Removed = append(s.diff.Removed, n.ID())
		mark(n)
	}
	if !s.dryRun && len(removed) > 0 {
		if err := s.tr.DeleteNodes(nil, removed...); err != nil {
			return err
		}
	}
	return s.syncLevel(nil, "", s.models, gone)
}

func parentID(n *tree.Node) string {
	if p := n.Parent(); p != nil {
		return p.ID()
	}
	return ""
}

// syncLevel reconciles the children of parent. In a dry run nodes listed
// in gone count as absent.
func (s *syncer) syncLevel(parent *tree.Node, pid string, models []tree.NodeModel, gone map[string]bool) error {
	var inserts []tree.NodeModel
	var patches []tree.NodePatch
	var existing []*tree.Node
	for i, m := range models {
		n := s.tr.NodeByID(m.ID)
		if n == nil || gone[m.ID] {
			s.diff.Added = append(s.diff.Added, m.ID)
			at := i
			m.ChildIndex = &at
			inserts = append(inserts, m)
			continue
		}
		existing = append(existing, n)
		if p, ok := patchFor(n, m); ok {
			s.diff.Changed = append(s.diff.Changed, m.ID)
			patches = append(patches, p)
		}
	}

	current := s.tr.Nodes()
	if parent != nil {
		current = parent.Children()
	}
	var kept []*tree.Node
	for _, n := range current {
		if !gone[n.ID()] {
			kept = append(kept, n)
		}
	}
	if !sameOrder(kept, existing) {
		s.diff.Reordered = append(s.diff.Reordered, pid)
	}

	if !s.dryRun {
		if len(patches) > 0 {
			if err := s.tr.UpdateNodes(patches...); err != nil {
				return err
			}
		}
		if len(existing) > 0 && !sameOrder(kept, existing) {
			if err := s.tr.UpdateNodeOrder(parent, existing); err != nil {
				return err
			}
		}
		if len(inserts) > 0 {
			if err := s.tr.InsertModels(parent, inserts...); err != nil {
				return err
			}
		}
	}

	byID := make(map[string]tree.NodeModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	for _, n := range existing {
		if err := s.syncLevel(n, n.ID(), byID[n.ID()].Children, gone); err != nil {
			return err
		}
	}
	return nil
}

func sameOrder(a, b []*tree.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// patchFor builds the patch that turns n into m. Expansion and check
// state are left alone; they belong to the viewer.
func patchFor(n *tree.Node, m tree.NodeModel) (tree.NodePatch, bool) {
	p := tree.NodePatch{ID: n.ID()}
	changed := false
	if m.Text != n.Text() {
		text := m.Text
		p.Text = &text
		changed = true
	}
	if m.Leaf != n.Leaf() {
		leaf := m.Leaf
		p.Leaf = &leaf
		changed = true
	}
	enabled := m.Enabled == nil || *m.Enabled
	if enabled != n.Enabled() {
		p.Enabled = &enabled
		changed = true
	}
	lazy := m.LazyExpandingEnabled != nil && *m.LazyExpandingEnabled
	if lazy != n.LazyExpandingEnabled() {
		p.LazyExpandingEnabled = &lazy
		changed = true
	}
	if m.Data != nil && !reflect.DeepEqual(m.Data, n.Data()) {
		p.Data = m.Data
		changed = true
	}
	return p, changed
}
