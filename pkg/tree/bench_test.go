package tree_test

import (
	"testing"

	"github.com/vanderheijden86/treekit/pkg/testutil"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// Benchmark shapes:
//   - wide:   10k roots, the flat list equals the node list
//   - deep:   1k level chain, worst case for ancestor walks
//   - bushy:  4 roots x 4 levels x breadth 8 (~19k nodes)
func benchForests() map[string][]tree.NodeModel {
	return map[string][]tree.NodeModel{
		"wide":  testutil.QuickWide(10000),
		"deep":  testutil.QuickChain(1000),
		"bushy": testutil.NewDefault().Forest(4, 4, 8),
	}
}

func newBenchTree(b *testing.B, models []tree.NodeModel) *tree.Tree {
	b.Helper()
	tr, err := tree.NewFromModels(tree.DefaultOptions(), models,
		tree.WithCanvas(tree.NewListCanvas(nil)), tree.WithViewportHeight(40))
	if err != nil {
		b.Fatal(err)
	}
	tr.Flush()
	return tr
}

func BenchmarkNewFromModels(b *testing.B) {
	for name, models := range benchForests() {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				newBenchTree(b, models)
			}
		})
	}
}

func BenchmarkExpandCollapseAll(b *testing.B) {
	for name, models := range benchForests() {
		b.Run(name, func(b *testing.B) {
			tr := newBenchTree(b, models)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				tr.ExpandAll()
				tr.Flush()
				tr.CollapseAll()
				tr.Flush()
			}
		})
	}
}

func BenchmarkFilterText(b *testing.B) {
	models := testutil.NewDefault().Forest(4, 4, 8)
	tr := newBenchTree(b, models)
	tr.ExpandAll()
	tr.Flush()
	queries := []string{"alpha", "n12", "", "zzz", ""}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.SetFilterText(queries[i%len(queries)])
		tr.Flush()
	}
}

func BenchmarkScroll(b *testing.B) {
	tr := newBenchTree(b, testutil.QuickWide(10000))
	max := tr.MaxScrollTop()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.SetScrollTop((i * 97) % (max + 1))
	}
}

func BenchmarkInsertDelete(b *testing.B) {
	tr := newBenchTree(b, testutil.QuickWide(5000))
	extra := testutil.New(testutil.GeneratorConfig{IDPrefix: "x"}).Wide(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tr.InsertModels(nil, extra...); err != nil {
			b.Fatal(err)
		}
		tr.Flush()
		nodes := make([]*tree.Node, 0, len(extra))
		for _, m := range extra {
			nodes = append(nodes, tr.NodeByID(m.ID))
		}
		if err := tr.DeleteNodes(nil, nodes...); err != nil {
			b.Fatal(err)
		}
		tr.Flush()
	}
}

// TestGeneratedForestInvariants runs the tree through expand, filter and
// scroll on generated forests and checks consistency after each step.
func TestGeneratedForestInvariants(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		models := testutil.New(testutil.GeneratorConfig{Seed: seed, ExpandedRatio: 0.3}).Random(300)
		tr, err := tree.NewFromModels(tree.DefaultOptions(), models,
			tree.WithCanvas(tree.NewListCanvas(nil)), tree.WithViewportHeight(20))
		if err != nil {
			t.Fatal(err)
		}
		tr.Flush()
		testutil.AssertInvariants(t, tr)

		tr.ExpandAll()
		tr.Flush()
		if tr.VisibleCount() != testutil.CountNodes(models) {
			t.Errorf("seed %d: %d visible after ExpandAll, want %d", seed, tr.VisibleCount(), testutil.CountNodes(models))
		}
		testutil.AssertInvariants(t, tr)

		tr.SetFilterText("alpha")
		tr.Flush()
		testutil.AssertInvariants(t, tr)

		tr.SetScrollTop(tr.MaxScrollTop())
		tr.SetFilterText("")
		tr.Flush()
		testutil.AssertInvariants(t, tr)
	}
}
