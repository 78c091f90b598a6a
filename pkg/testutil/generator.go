// Package testutil provides node forest generators for tests and benchmarks.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// GeneratorConfig controls forest generation.
type GeneratorConfig struct {
	Seed          int64    // Random seed for determinism (0 = 42)
	IDPrefix      string   // Prefix for node IDs (default: "n")
	Words         []string // Vocabulary for node text (nil = built-in list)
	ExpandedRatio float64  // Share of parents generated expanded
	LazyRatio     float64  // Share of parents with lazy expansion enabled
	DataEvery     int      // Attach a Data map to every n-th node (0 = never)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42,
		IDPrefix: "n",
	}
}

var defaultWords = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
	"hotel", "india", "juliet", "kilo", "lima", "mike", "november",
}

// Generator creates node forests with various shapes.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	if len(cfg.Words) == 0 {
		cfg.Words = defaultWords
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node() tree.NodeModel {
	id := fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.next)
	g.next++
	word := g.cfg.Words[g.rng.Intn(len(g.cfg.Words))]
	m := tree.NodeModel{ID: id, Text: word + " " + id}
	if g.cfg.DataEvery > 0 && g.next%g.cfg.DataEvery == 0 {
		m.Data = map[string]any{"word": word}
	}
	return m
}

// decorate applies the expanded and lazy ratios to a parent.
func (g *Generator) decorate(m *tree.NodeModel) {
	if len(m.Children) == 0 {
		return
	}
	if g.cfg.ExpandedRatio > 0 && g.rng.Float64() < g.cfg.ExpandedRatio {
		m.Expanded = true
	}
	if g.cfg.LazyRatio > 0 && g.rng.Float64() < g.cfg.LazyRatio {
		lazy := true
		m.LazyExpandingEnabled = &lazy
	}
}

// Chain creates a single path: n0 > n1 > ... > n{depth-1}.
func (g *Generator) Chain(depth int) []tree.NodeModel {
	if depth < 1 {
		return nil
	}
	m := g.node()
	if depth > 1 {
		m.Children = g.Chain(depth - 1)
	}
	g.decorate(&m)
	return []tree.NodeModel{m}
}

// Wide creates size roots without children.
func (g *Generator) Wide(size int) []tree.NodeModel {
	out := make([]tree.NodeModel, 0, size)
	for i := 0; i < size; i++ {
		out = append(out, g.node())
	}
	return out
}

// Tree creates a single root where each non-leaf node has breadth
// children, depth levels below the root.
func (g *Generator) Tree(depth, breadth int) []tree.NodeModel {
	return g.Forest(1, depth, breadth)
}

// Forest creates roots trees of the given depth and breadth.
func (g *Generator) Forest(roots, depth, breadth int) []tree.NodeModel {
	out := make([]tree.NodeModel, 0, roots)
	for i := 0; i < roots; i++ {
		m := g.node()
		if depth > 0 {
			m.Children = g.Forest(breadth, depth-1, breadth)
		}
		g.decorate(&m)
		out = append(out, m)
	}
	return out
}

// Random creates size nodes, each attached below a random earlier node or
// at the root level.
func (g *Generator) Random(size int) []tree.NodeModel {
	type slot struct {
		model  tree.NodeModel
		parent int
	}
	slots := make([]slot, size)
	for i := range slots {
		slots[i] = slot{model: g.node(), parent: g.rng.Intn(i+1) - 1}
	}
	for i := size - 1; i >= 0; i-- {
		if p := slots[i].parent; p >= 0 {
			slots[p].model.Children = append([]tree.NodeModel{slots[i].model}, slots[p].model.Children...)
		}
	}
	var out []tree.NodeModel
	for i := range slots {
		if slots[i].parent < 0 {
			g.decorateRec(&slots[i].model)
			out = append(out, slots[i].model)
		}
	}
	return out
}

func (g *Generator) decorateRec(m *tree.NodeModel) {
	for i := range m.Children {
		g.decorateRec(&m.Children[i])
	}
	g.decorate(m)
}

// Quick helpers for the common shapes.

// QuickChain returns a chain of the given depth.
func QuickChain(depth int) []tree.NodeModel {
	return NewDefault().Chain(depth)
}

// QuickWide returns size roots.
func QuickWide(size int) []tree.NodeModel {
	return NewDefault().Wide(size)
}

// QuickTree returns a single rooted tree.
func QuickTree(depth, breadth int) []tree.NodeModel {
	return NewDefault().Tree(depth, breadth)
}

// QuickRandom returns a random forest.
func QuickRandom(size int) []tree.NodeModel {
	return NewDefault().Random(size)
}

// Empty returns an empty forest.
func Empty() []tree.NodeModel {
	return nil
}

// Single returns one root.
func Single() []tree.NodeModel {
	return []tree.NodeModel{{ID: "n0", Text: "single"}}
}

// Shape renders a forest as "a(b,c),d", ids only.
func Shape(models []tree.NodeModel) string {
	parts := make([]string, 0, len(models))
	for _, m := range models {
		s := m.ID
		if len(m.Children) > 0 {
			s += "(" + Shape(m.Children) + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ",")
}

// TreeShape renders the structure of a tree the same way as Shape.
func TreeShape(tr *tree.Tree) string {
	var rec func(nodes []*tree.Node) string
	rec = func(nodes []*tree.Node) string {
		parts := make([]string, 0, len(nodes))
		for _, n := range nodes {
			s := n.ID()
			if n.ChildCount() > 0 {
				s += "(" + rec(n.Children()) + ")"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ",")
	}
	return rec(tr.Nodes())
}
