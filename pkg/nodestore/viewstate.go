package nodestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// ViewState is the part of a tree that belongs to the viewer rather than
// to the node file: what is expanded, checked and selected.
type ViewState struct {
	Expanded     []string          `json:"expanded,omitempty"`
	ExpandedLazy []string          `json:"expandedLazy,omitempty"`
	Checked      []string          `json:"checked,omitempty"`
	Selected     []string          `json:"selected,omitempty"`
	FilterText   string            `json:"filterText,omitempty"`
	DisplayStyle tree.DisplayStyle `json:"displayStyle,omitempty"`
	ScrollTop    int               `json:"scrollTop,omitempty"`
}

// viewSource is what CaptureViewState reads from a tree.
type viewSource interface {
	tree.Collection
	tree.Selectable
	tree.Checkable
	FilterText() string
	DisplayStyle() tree.DisplayStyle
	ScrollTop() int
}

// CaptureViewState records the view state of tr. Expanded ids are listed
// in pre-order so that parents are restored before their children.
func CaptureViewState(tr viewSource) ViewState {
	var v ViewState
	tr.Visit(func(n *tree.Node) bool {
		if n.Expanded() {
			v.Expanded = append(v.Expanded, n.ID())
			if n.ExpandedLazy() {
				v.ExpandedLazy = append(v.ExpandedLazy, n.ID())
			}
		}
		return false
	})
	for _, n := range tr.CheckedNodes() {
		v.Checked = append(v.Checked, n.ID())
	}
	for _, n := range tr.SelectedNodes() {
		v.Selected = append(v.Selected, n.ID())
	}
	v.FilterText = tr.FilterText()
	v.DisplayStyle = tr.DisplayStyle()
	v.ScrollTop = tr.ScrollTop()
	return v
}

// Apply restores v on tr. Ids no longer in the tree are ignored. It
// returns the number of ids that could not be resolved.
func (v ViewState) Apply(tr *tree.Tree) (missing int) {
	resolve := func(ids []string) []*tree.Node {
		out := make([]*tree.Node, 0, len(ids))
		for _, id := range ids {
			if n := tr.NodeByID(id); n != nil {
				out = append(out, n)
			} else {
				missing++
			}
		}
		return out
	}

	lazy := make(map[string]bool, len(v.ExpandedLazy))
	for _, id := range v.ExpandedLazy {
		lazy[id] = true
	}
	for _, n := range resolve(v.Expanded) {
		mode := tree.LazyOff
		if lazy[n.ID()] {
			mode = tree.LazyOn
		}
		tr.SetNodeExpanded(n, true, tree.ExpandOpts{Lazy: mode, NoAnimation: true})
	}

	if v.DisplayStyle != "" && v.DisplayStyle != tr.DisplayStyle() {
		if err := tr.SetDisplayStyle(v.DisplayStyle); err != nil {
			missing++
		}
	}
	if checked := resolve(v.Checked); len(checked) > 0 {
		no := false
		tr.CheckNodes(tree.CheckOpts{Children: &no}, checked...)
	}
	if v.FilterText != tr.FilterText() {
		tr.SetFilterText(v.FilterText)
	}
	if selected := resolve(v.Selected); len(selected) > 0 {
		tr.SelectNodes(selected...)
	}
	tr.Flush()
	tr.SetScrollTop(v.ScrollTop)
	return missing
}

// LoadViewState reads a view state file. A missing file yields the zero
// state.
func LoadViewState(path string) (ViewState, error) {
	var v ViewState
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return v, fmt.Errorf("reading view state: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return ViewState{}, fmt.Errorf("parsing view state: %w", err)
	}
	return v, nil
}

// SaveViewState writes v to path.
func SaveViewState(path string, v ViewState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling view state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing view state: %w", err)
	}
	return nil
}
