//go:build ignore

// generate_testdata.go creates standard node files for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   testdata/benchmark/small.json   (100 nodes)
//   testdata/benchmark/medium.json  (1000 nodes)
//   testdata/benchmark/large.db     (10000 nodes)
//   testdata/benchmark/huge.db      (100000 nodes)
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/treekit/pkg/nodestore"
	"github.com/vanderheijden86/treekit/pkg/testutil"
)

type datasetSpec struct {
	name string
	size int
	ext  string
	desc string
}

var datasets = []datasetSpec{
	{"small", 100, ".json", "100 nodes - random forest, a third expanded"},
	{"medium", 1000, ".json", "1000 nodes - random forest, a fifth expanded"},
	{"large", 10000, ".db", "10000 nodes - random forest, some lazy parents"},
	{"huge", 100000, ".db", "100000 nodes - random forest, mostly collapsed"},
}

func main() {
	outputDir := "testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d nodes)...\n", ds.name, ds.size)

		cfg := testutil.GeneratorConfig{
			Seed:          int64(ds.size), // Reproducible per-size
			IDPrefix:      "bench-",
			ExpandedRatio: expandedRatio(ds.size),
			LazyRatio:     0.1,
			DataEvery:     7,
		}
		models := testutil.New(cfg).Random(ds.size)

		path := filepath.Join(outputDir, ds.name+ds.ext)
		doc := nodestore.Document{Title: ds.desc, Nodes: models}
		if err := nodestore.Save(ctx, path, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  Wrote %d nodes (max depth %d) to %s\n",
			doc.Count(), testutil.MaxDepth(models), path)
	}
	fmt.Println("Done.")
}

// expandedRatio keeps the initially visible list at a few thousand rows.
func expandedRatio(size int) float64 {
	switch {
	case size <= 100:
		return 0.33
	case size <= 1000:
		return 0.2
	case size <= 10000:
		return 0.05
	default:
		return 0.01
	}
}
