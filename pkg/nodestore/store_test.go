package nodestore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

func boolPtr(b bool) *bool { return &b }

// sampleDoc is a small document touching every persisted field.
func sampleDoc() Document {
	return Document{
		Version: CurrentVersion,
		Title:   "sample",
		Nodes: []tree.NodeModel{
			{
				ID:       "docs",
				Text:     "Documents",
				Expanded: true,
				Data:     map[string]any{"owner": "ana"},
				Children: []tree.NodeModel{
					{ID: "docs/a", Text: "a.txt", Leaf: true, Checked: true},
					{ID: "docs/b", Text: "b.txt", Leaf: true, Enabled: boolPtr(false)},
				},
			},
			{ID: "src", Text: "Sources", LazyExpandingEnabled: boolPtr(true)},
		},
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"nodes.json", FormatJSON},
		{"nodes.YAML", FormatYAML},
		{"a/b/nodes.yml", FormatYAML},
		{"nodes.db", FormatSQLite},
		{"nodes.sqlite3", FormatSQLite},
		{"nodes.txt", FormatUnknown},
		{"nodes", FormatUnknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatFor(tt.path), tt.path)
	}

	f, err := ParseFormat("YML")
	require.NoError(t, err)
	require.Equal(t, "yaml", f.String())
	_, err = ParseFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

// TestSaveLoadEveryFormat verifies that each format keeps the structure
// and the per-node fields of a document.
func TestSaveLoadEveryFormat(t *testing.T) {
	for _, ext := range []string{".json", ".yaml", ".db"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "nodes"+ext)
			doc := sampleDoc()

			require.NoError(t, Save(context.Background(), path, doc))
			loaded, err := Load(context.Background(), path)
			require.NoError(t, err)
			require.Equal(t, doc, loaded)
			require.Equal(t, 4, loaded.Count())
		})
	}
}

// TestSaveOverwritesSQLite verifies that a second save replaces all rows.
func TestSaveOverwritesSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.sqlite")
	require.NoError(t, Save(context.Background(), path, sampleDoc()))

	small := Document{Nodes: []tree.NodeModel{{ID: "only", Text: "only"}}}
	require.NoError(t, Save(context.Background(), path, small))

	loaded, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Count())
	require.Equal(t, "only", loaded.Nodes[0].ID)
}

func TestDecodeBareLists(t *testing.T) {
	doc, err := DecodeJSON(strings.NewReader(`[{"id":"a","children":[{"id":"b"}]}]`))
	require.NoError(t, err)
	require.Equal(t, 2, doc.Count())

	doc, err = DecodeYAML(strings.NewReader("- id: a\n- id: b\n  text: B\n"))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	require.Equal(t, "B", doc.Nodes[1].Text)

	doc, err = DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, doc.Nodes)
}

func TestDecodeStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"title":"t","nodes":[{"id":"a"}]}`)...)
	doc, err := DecodeJSON(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "t", doc.Title)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"nodes": [`))
	require.ErrorContains(t, err, "parsing json")

	_, err = DecodeYAML(strings.NewReader("nodes: [unclosed"))
	require.ErrorContains(t, err, "parsing yaml")
}

func TestLoadValidates(t *testing.T) {
	dir := t.TempDir()

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`[{"id":"a","children":[{"id":"a"}]}]`), 0o644))
	_, err := Load(context.Background(), dup)
	require.ErrorIs(t, err, tree.ErrDuplicateID)
	require.ErrorContains(t, err, dup)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("nodes:\n  - text: no id\n"), 0o644))
	_, err = Load(context.Background(), empty)
	require.ErrorIs(t, err, tree.ErrEmptyID)

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"version": 99, "nodes": []}`), 0o644))
	_, err = Load(context.Background(), future)
	require.ErrorContains(t, err, "newer than supported")

	_, err = Load(context.Background(), filepath.Join(dir, "nodes.txt"))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.db"))
	require.Error(t, err)

	require.ErrorIs(t, Save(context.Background(), filepath.Join(dir, "out.json"),
		Document{Nodes: []tree.NodeModel{{ID: "x"}, {ID: "x"}}}), tree.ErrDuplicateID)
}

// TestReadSQLiteRejectsOrphans verifies that rows pointing at a missing
// parent are reported instead of silently dropped.
func TestReadSQLiteRejectsOrphans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.db")
	require.NoError(t, WriteSQLite(context.Background(), path, sampleDoc()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE nodes SET parent_id = 'nowhere' WHERE id = 'docs/b'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = ReadSQLite(context.Background(), path)
	require.ErrorIs(t, err, ErrOrphanNode)
}

func TestAssembleDetectsCycles(t *testing.T) {
	rows := []*nodeRow{
		{model: tree.NodeModel{ID: "root"}},
		{model: tree.NodeModel{ID: "a"}, parentID: sql.NullString{String: "b", Valid: true}},
		{model: tree.NodeModel{ID: "b"}, parentID: sql.NullString{String: "a", Valid: true}},
	}
	_, err := assemble(rows)
	require.ErrorIs(t, err, ErrOrphanNode)
}

func TestAssembleOrdersByPosition(t *testing.T) {
	rows := []*nodeRow{
		{model: tree.NodeModel{ID: "b"}, position: 1},
		{model: tree.NodeModel{ID: "a"}, position: 0},
		{model: tree.NodeModel{ID: "a2"}, parentID: sql.NullString{String: "a", Valid: true}, position: 1},
		{model: tree.NodeModel{ID: "a1"}, parentID: sql.NullString{String: "a", Valid: true}, position: 0},
	}
	forest, err := assemble(rows)
	require.NoError(t, err)
	require.Equal(t, "a", forest[0].ID)
	require.Equal(t, "a1", forest[0].Children[0].ID)
	require.Equal(t, "a2", forest[0].Children[1].ID)
	require.Nil(t, forest[1].Children)
}

// TestLoaderLoadAll verifies merge order and per-file failures.
func TestLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.json")
	clash := filepath.Join(dir, "clash.json")
	missing := filepath.Join(dir, "missing.json")

	require.NoError(t, Save(context.Background(), first, Document{Nodes: []tree.NodeModel{{ID: "a"}, {ID: "b"}}}))
	require.NoError(t, Save(context.Background(), second, Document{Nodes: []tree.NodeModel{{ID: "c"}}}))
	require.NoError(t, Save(context.Background(), clash, Document{Nodes: []tree.NodeModel{{ID: "z"}, {ID: "a"}}}))

	var logs bytes.Buffer
	l := NewLoader(first, clash, missing, second)
	l.SetLogger(log.New(&logs, "", 0))

	models, results, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	var ids []string
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"a", "b", "c"}, ids)
	require.NoError(t, results[0].Error)
	require.ErrorIs(t, results[1].Error, tree.ErrDuplicateID)
	require.Error(t, results[2].Error)
	require.NoError(t, results[3].Error)
	require.Contains(t, logs.String(), "Warning: skipping")
}

func TestLoaderAllFail(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.json"))
	_, _, err := l.LoadAll(context.Background())
	require.ErrorContains(t, err, "no node file could be loaded")

	_, _, err = NewLoader().LoadAll(context.Background())
	require.Error(t, err)
}

func TestLoaderCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, Save(context.Background(), path, sampleDoc()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, results, err := NewLoader(path).LoadAll(ctx)
	require.Error(t, err)
	require.ErrorIs(t, results[0].Error, context.Canceled)
}

func TestDocumentFromTree(t *testing.T) {
	doc := sampleDoc()
	tr, err := tree.NewFromModels(tree.DefaultOptions(), doc.Nodes)
	require.NoError(t, err)

	snap := DocumentFromTree(tr, "snap")
	require.Equal(t, CurrentVersion, snap.Version)
	require.Equal(t, doc.Count(), snap.Count())
	require.True(t, snap.Nodes[0].Expanded)
	require.Equal(t, "docs/b", snap.Nodes[0].Children[1].ID)
	require.NoError(t, snap.Validate())
}

func TestDiffSummary(t *testing.T) {
	require.Equal(t, "Tree matches file", Diff{}.Summary())

	d := Diff{Removed: []string{"x"}, Reordered: []string{""}}
	s := d.Summary()
	require.Contains(t, s, "1 removed")
	require.Contains(t, s, "(root)")

	var many []string
	for i := 0; i < 7; i++ {
		many = append(many, fmt.Sprint(i))
	}
	s = Diff{Added: many}.Summary()
	require.Contains(t, s, "7 added")
	require.NotContains(t, s, "    - 6")
}

func TestFormatErrorsWrapPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := Load(context.Background(), path)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), path), err.Error())
	require.False(t, errors.Is(err, ErrUnknownFormat))
}
