package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treekit/pkg/nodestore"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// AssertNodeCount verifies the expected number of models in a forest,
// descendants included.
func AssertNodeCount(t *testing.T, models []tree.NodeModel, expected int) {
	t.Helper()
	if got := CountNodes(models); got != expected {
		t.Errorf("expected %d nodes, got %d", expected, got)
	}
}

// AssertNoDuplicateIDs verifies all ids in a forest are unique.
func AssertNoDuplicateIDs(t *testing.T, models []tree.NodeModel) {
	t.Helper()
	seen := make(map[string]bool)
	for _, id := range GetIDs(models) {
		if seen[id] {
			t.Errorf("duplicate node ID: %s", id)
		}
		seen[id] = true
	}
}

// AssertDepth verifies the depth of the deepest node (roots are depth 1).
func AssertDepth(t *testing.T, models []tree.NodeModel, expected int) {
	t.Helper()
	if got := MaxDepth(models); got != expected {
		t.Errorf("expected depth %d, got %d", expected, got)
	}
}

// AssertVisible verifies the ids of the tree's flat list, in order.
func AssertVisible(t *testing.T, tr *tree.Tree, expected ...string) {
	t.Helper()
	var got []string
	for _, n := range tr.VisibleNodes() {
		got = append(got, n.ID())
	}
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("visible nodes mismatch:\n  want: %v\n  got:  %v", expected, got)
	}
}

// AssertInvariants fails the test when the tree's internal state is
// inconsistent.
func AssertInvariants(t *testing.T, tr *tree.Tree) {
	t.Helper()
	if err := tr.CheckInvariants(); err != nil {
		t.Errorf("tree invariants violated: %v", err)
	}
}

// GoldenFile manages golden file comparisons for rendering tests.
type GoldenFile struct {
	t    *testing.T
	dir  string
	name string
}

// NewGoldenFile creates a golden file helper.
// Set GENERATE_GOLDEN=1 to write the current output instead of comparing.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{t: t, dir: dir, name: name}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if os.Getenv("GENERATE_GOLDEN") != "" {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("Generated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		g.t.Fatalf("failed to read golden file %s: %v (run with GENERATE_GOLDEN=1 to create)", path, err)
	}

	if string(expected) != actual {
		g.t.Errorf("output does not match golden file %s", path)
		expLines := strings.Split(string(expected), "\n")
		actLines := strings.Split(actual, "\n")
		for i := 0; i < len(expLines) || i < len(actLines); i++ {
			var exp, act string
			if i < len(expLines) {
				exp = expLines[i]
			}
			if i < len(actLines) {
				act = actLines[i]
			}
			if exp != act {
				g.t.Errorf("first difference at line %d:\n  want: %q\n  got:  %q", i+1, exp, act)
				break
			}
		}
	}
}

// AssertJSON compares a value marshaled as indented JSON.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()
	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal JSON: %v", err)
	}
	g.Assert(string(data) + "\n")
}

// WriteNodeFile saves a forest to dir/name in the format chosen by the
// file's extension and returns the full path.
func WriteNodeFile(t *testing.T, dir, name string, models []tree.NodeModel) string {
	t.Helper()
	path := filepath.Join(dir, name)
	doc := nodestore.Document{Title: strings.TrimSuffix(name, filepath.Ext(name)), Nodes: models}
	if err := nodestore.Save(context.Background(), path, doc); err != nil {
		t.Fatalf("failed to write node file: %v", err)
	}
	return path
}

// NewTree builds a tree from models, failing the test on error.
func NewTree(t *testing.T, opts tree.Options, models []tree.NodeModel) *tree.Tree {
	t.Helper()
	tr, err := tree.NewFromModels(opts, models)
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}
	return tr
}

// CountNodes returns the number of models in a forest, descendants included.
func CountNodes(models []tree.NodeModel) int {
	n := 0
	for _, m := range models {
		n += 1 + CountNodes(m.Children)
	}
	return n
}

// MaxDepth returns the depth of the deepest model (roots are depth 1).
func MaxDepth(models []tree.NodeModel) int {
	max := 0
	for _, m := range models {
		if d := 1 + MaxDepth(m.Children); d > max {
			max = d
		}
	}
	return max
}

// GetIDs returns all ids in pre-order.
func GetIDs(models []tree.NodeModel) []string {
	var ids []string
	for _, m := range models {
		ids = append(ids, m.ID)
		ids = append(ids, GetIDs(m.Children)...)
	}
	return ids
}

// FindModel returns the model with the given id, or nil if not found.
func FindModel(models []tree.NodeModel, id string) *tree.NodeModel {
	for i := range models {
		if models[i].ID == id {
			return &models[i]
		}
		if m := FindModel(models[i].Children, id); m != nil {
			return m
		}
	}
	return nil
}
