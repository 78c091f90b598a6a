package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/nodestore"
	"github.com/vanderheijden86/treekit/pkg/testutil"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

func fruits() []tree.NodeModel {
	return []tree.NodeModel{
		{ID: "a", Text: "Alpha", Children: []tree.NodeModel{
			{ID: "a1", Text: "Apple"},
			{ID: "a2", Text: "Avocado"},
		}},
		{ID: "b", Text: "Beta", Children: []tree.NodeModel{
			{ID: "b1", Text: "Banana"},
		}},
		{ID: "c", Text: "Cherry"},
	}
}

// runCLI executes the root command with an isolated config and state dir.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "treekit v") {
		t.Errorf("version output = %q", out)
	}
}

func TestDumpOutline(t *testing.T) {
	path := testutil.WriteNodeFile(t, t.TempDir(), "fruits.json", fruits())

	out, _, err := runCLI(t, "dump", path)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if want := "> Alpha\n> Beta\n- Cherry\n"; out != want {
		t.Errorf("collapsed outline = %q, want %q", out, want)
	}

	out, _, err = runCLI(t, "dump", "--expand-all", path)
	if err != nil {
		t.Fatalf("dump --expand-all: %v", err)
	}
	want := "v Alpha\n  - Apple\n  - Avocado\nv Beta\n  - Banana\n- Cherry\n"
	if out != want {
		t.Errorf("expanded outline = %q, want %q", out, want)
	}
}

func TestDumpFilter(t *testing.T) {
	path := testutil.WriteNodeFile(t, t.TempDir(), "fruits.yaml", fruits())

	out, _, err := runCLI(t, "dump", "--filter", "banana", path)
	if err != nil {
		t.Fatalf("dump --filter: %v", err)
	}
	if !strings.Contains(out, "Beta") || !strings.Contains(out, "Banana") {
		t.Errorf("filtered outline lacks match or its parent: %q", out)
	}
	for _, hidden := range []string{"Alpha", "Apple", "Cherry"} {
		if strings.Contains(out, hidden) {
			t.Errorf("filtered outline shows %s: %q", hidden, out)
		}
	}
}

func TestDumpBreadcrumb(t *testing.T) {
	path := testutil.WriteNodeFile(t, t.TempDir(), "fruits.json", fruits())
	out, _, err := runCLI(t, "dump", "--style", "breadcrumb", path)
	if err != nil {
		t.Fatalf("dump --style: %v", err)
	}
	if strings.HasPrefix(out, " ") {
		t.Errorf("breadcrumb rows must not be indented: %q", out)
	}

	if _, _, err := runCLI(t, "dump", "--style", "sideways", path); err == nil {
		t.Error("unknown style should fail")
	}
}

func TestDumpDocument(t *testing.T) {
	path := testutil.WriteNodeFile(t, t.TempDir(), "fruits.json", fruits())

	for _, format := range []string{"json", "yaml"} {
		out, _, err := runCLI(t, "dump", "--format", format, "--title", "snapshot", path)
		if err != nil {
			t.Fatalf("dump --format %s: %v", format, err)
		}
		var doc nodestore.Document
		if format == "json" {
			doc, err = nodestore.DecodeJSON(strings.NewReader(out))
		} else {
			doc, err = nodestore.DecodeYAML(strings.NewReader(out))
		}
		if err != nil {
			t.Fatalf("decode %s: %v", format, err)
		}
		if doc.Title != "snapshot" {
			t.Errorf("%s title = %q", format, doc.Title)
		}
		if got := testutil.Shape(doc.Nodes); got != "a(a1,a2),b(b1),c" {
			t.Errorf("%s shape = %s", format, got)
		}
	}

	if _, _, err := runCLI(t, "dump", "--format", "xml", path); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteNodeFile(t, dir, "fruits.json", fruits())

	for _, name := range []string{"fruits.yaml", "fruits.db"} {
		outPath := filepath.Join(dir, name)
		out, _, err := runCLI(t, "convert", "--title", "Converted", in, outPath)
		if err != nil {
			t.Fatalf("convert to %s: %v", name, err)
		}
		if !strings.HasPrefix(out, "Wrote 6 nodes") {
			t.Errorf("convert output = %q", out)
		}
		doc, err := nodestore.Load(context.Background(), outPath)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if doc.Title != "Converted" || doc.Count() != 6 {
			t.Errorf("%s: title %q count %d", name, doc.Title, doc.Count())
		}
	}

	if _, _, err := runCLI(t, "convert", in, filepath.Join(dir, "fruits.txt")); err == nil {
		t.Error("convert to unknown extension should fail")
	}
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	oldPath := testutil.WriteNodeFile(t, dir, "old.json", fruits())

	out, _, err := runCLI(t, "diff", oldPath, oldPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "Tree matches file") {
		t.Errorf("identical diff = %q", out)
	}

	changed := fruits()
	changed = changed[:2]
	changed[0].Text = "Alpha!"
	newPath := testutil.WriteNodeFile(t, dir, "new.json", changed)
	out, _, err = runCLI(t, "diff", oldPath, newPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{"1 removed", "1 changed"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff output lacks %q: %q", want, out)
		}
	}
}

func TestViewWithoutFiles(t *testing.T) {
	_, _, err := runCLI(t)
	if !errors.Is(err, errNoFiles) {
		t.Errorf("err = %v, want errNoFiles", err)
	}
}

func TestViewPrintsOutlineWithoutTerminal(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteNodeFile(t, dir, "fruits.json", fruits())
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	cfgPath := filepath.Join(dir, "config.yaml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "view", "--checkable", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("view: %v", err)
	}
	if want := "> [ ] Alpha\n> [ ] Beta\n- [ ] Cherry\n"; out.String() != want {
		t.Errorf("outline = %q, want %q", out.String(), want)
	}

	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	abs, _ := filepath.Abs(path)
	if len(cfg.Recent) == 0 || cfg.Recent[0] != abs {
		t.Errorf("recent = %v, want %s first", cfg.Recent, abs)
	}

	// The bare root command reopens the most recent file.
	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("root: %v", err)
	}
	if !strings.Contains(out.String(), "Alpha") {
		t.Errorf("recent file not reopened: %q", out.String())
	}
}

func TestViewRestoresViewState(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteNodeFile(t, dir, "fruits.json", fruits())
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	tr := testutil.NewTree(t, tree.DefaultOptions(), fruits())
	tr.ExpandNode(tr.NodeByID("b"))
	tr.Flush()
	statePath := config.ViewStatePath(path)
	if err := nodestore.SaveViewState(statePath, nodestore.CaptureViewState(tr)); err != nil {
		t.Fatalf("save view state: %v", err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml"), "view", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("view: %v", err)
	}
	if want := "> Alpha\nv Beta\n  - Banana\n- Cherry\n"; out.String() != want {
		t.Errorf("outline = %q, want %q", out.String(), want)
	}

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml"), "view", "--no-state", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("view --no-state: %v", err)
	}
	if strings.Contains(out.String(), "Banana") {
		t.Errorf("view state applied despite --no-state: %q", out.String())
	}
}

func TestDumpOutlinePolicy(t *testing.T) {
	path := testutil.WriteNodeFile(t, t.TempDir(), "fruits.json", fruits())
	out, _, err := runCLI(t, "dump", "--outline", "--expand-all", path)
	if err != nil {
		t.Fatalf("dump --outline: %v", err)
	}
	want := "v Alpha\n   - Apple\n   - Avocado\nv Beta\n   - Banana\n- Cherry\n"
	if out != want {
		t.Errorf("outline = %q, want %q", out, want)
	}
}

func TestWriteOutlineIndentsByPadding(t *testing.T) {
	opts := tree.OutlineOptions()
	tr := testutil.NewTree(t, opts, testutil.QuickChain(3))
	tr.ExpandAll()
	tr.Flush()
	var b bytes.Buffer
	if err := writeOutline(&b, tr); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[2], "      - ") {
		t.Errorf("third level indent = %q", lines[2])
	}
}
