package nodestore

import (
	"fmt"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// CurrentVersion is written into every saved document.
const CurrentVersion = 1

// Document is the content of a node file.
type Document struct {
	Version int              `json:"version,omitempty" yaml:"version,omitempty"`
	Title   string           `json:"title,omitempty" yaml:"title,omitempty"`
	Nodes   []tree.NodeModel `json:"nodes" yaml:"nodes"`
}

// Validate checks ids before the document reaches a tree, so that a bad
// file is reported with its path instead of failing a later mutation.
func (d Document) Validate() error {
	if d.Version > CurrentVersion {
		return fmt.Errorf("document version %d is newer than supported version %d", d.Version, CurrentVersion)
	}
	seen := make(map[string]bool)
	return validateModels(d.Nodes, seen)
}

func validateModels(models []tree.NodeModel, seen map[string]bool) error {
	for _, m := range models {
		if m.ID == "" {
			return tree.ErrEmptyID
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: %s", tree.ErrDuplicateID, m.ID)
		}
		seen[m.ID] = true
		if err := validateModels(m.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the document.
func (d Document) Count() int {
	return countModels(d.Nodes)
}

func countModels(models []tree.NodeModel) int {
	n := len(models)
	for _, m := range models {
		n += countModels(m.Children)
	}
	return n
}

// DocumentFromTree snapshots a tree including expansion and check state.
func DocumentFromTree(tr tree.Collection, title string) Document {
	doc := Document{Version: CurrentVersion, Title: title}
	for _, n := range tr.Nodes() {
		doc.Nodes = append(doc.Nodes, n.Model())
	}
	return doc
}
