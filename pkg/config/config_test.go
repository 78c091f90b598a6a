package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tree != tree.DefaultOptions() {
		t.Errorf("expected default tree options, got %+v", cfg.Tree)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("expected theme 'auto', got %q", cfg.UI.Theme)
	}
	if !cfg.UI.WatchFiles {
		t.Error("expected file watching on by default")
	}
	if cfg.UI.WatchDebounce != 200*time.Millisecond {
		t.Errorf("expected debounce 200ms, got %v", cfg.UI.WatchDebounce)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Tree != tree.DefaultOptions() {
		t.Errorf("expected default config, got %+v", cfg.Tree)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
tree:
  checkable: true
  multi_check: false
  display_style: breadcrumb
  view_range_size: 40
  animated: true

ui:
  theme: dark
  watch_debounce: 50ms

recent:
  - ~/notes/tree.yaml
  - /absolute/nodes.json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Tree.Checkable || cfg.Tree.MultiCheck {
		t.Errorf("expected checkable single-check tree, got %+v", cfg.Tree)
	}
	if cfg.Tree.DisplayStyle != tree.DisplayBreadcrumb {
		t.Errorf("expected breadcrumb style, got %q", cfg.Tree.DisplayStyle)
	}
	if cfg.Tree.ViewRangeSize != 40 {
		t.Errorf("expected view range size 40, got %d", cfg.Tree.ViewRangeSize)
	}
	// Keys missing from the file keep their defaults
	if !cfg.Tree.LazyExpandingEnabled {
		t.Error("expected lazy expanding to keep its default")
	}
	if cfg.Tree.NodePaddingLevel != 2 {
		t.Errorf("expected padding 2, got %d", cfg.Tree.NodePaddingLevel)
	}

	if cfg.UI.Theme != "dark" {
		t.Errorf("expected theme 'dark', got %q", cfg.UI.Theme)
	}
	if cfg.UI.WatchDebounce != 50*time.Millisecond {
		t.Errorf("expected debounce 50ms, got %v", cfg.UI.WatchDebounce)
	}

	if len(cfg.Recent) != 2 {
		t.Fatalf("expected 2 recent files, got %d", len(cfg.Recent))
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "notes/tree.yaml"); cfg.Recent[0] != want {
		t.Errorf("expected expanded path %q, got %q", want, cfg.Recent[0])
	}
	if cfg.Recent[1] != "/absolute/nodes.json" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Recent[1])
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_InvalidTreeOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("tree:\n  display_style: sideways\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err == nil || !strings.Contains(err.Error(), "invalid tree options") {
		t.Fatalf("expected invalid tree options error, got %v", err)
	}
	if cfg.Tree.DisplayStyle != tree.DisplayDefault {
		t.Errorf("expected defaults on error, got %q", cfg.Tree.DisplayStyle)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tree.Checkable = true
	cfg.Tree.FuzzyTextFilter = true
	cfg.UI.FrameInterval = 20 * time.Millisecond
	cfg.AddRecent("/tmp/a.yaml")

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Tree != cfg.Tree {
		t.Errorf("tree options mismatch: %+v vs %+v", loaded.Tree, cfg.Tree)
	}
	if loaded.UI != cfg.UI {
		t.Errorf("ui config mismatch: %+v vs %+v", loaded.UI, cfg.UI)
	}
	if len(loaded.Recent) != 1 || loaded.Recent[0] != "/tmp/a.yaml" {
		t.Errorf("expected recent [/tmp/a.yaml], got %v", loaded.Recent)
	}
}

func TestAddRecent(t *testing.T) {
	var cfg Config
	for i := 0; i < maxRecent+3; i++ {
		cfg.AddRecent(filepath.Join("/files", string(rune('a'+i))))
	}
	if len(cfg.Recent) != maxRecent {
		t.Fatalf("expected %d recent files, got %d", maxRecent, len(cfg.Recent))
	}

	cfg.AddRecent("/files/e")
	if cfg.Recent[0] != "/files/e" {
		t.Errorf("expected /files/e first, got %q", cfg.Recent[0])
	}
	seen := map[string]bool{}
	for _, p := range cfg.Recent {
		if seen[p] {
			t.Errorf("duplicate recent entry %q", p)
		}
		seen[p] = true
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := ConfigPath(); got != "/xdg/config/treekit/config.yaml" {
		t.Errorf("unexpected config path %q", got)
	}
	if got := StateDir(); got != "/xdg/state/treekit" {
		t.Errorf("unexpected state dir %q", got)
	}
}

func TestViewStatePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	a := ViewStatePath("/one/nodes.yaml")
	b := ViewStatePath("/two/nodes.yaml")
	if a == b {
		t.Errorf("expected distinct view state paths, both %q", a)
	}
	if !strings.HasPrefix(a, "/xdg/state/treekit/views/nodes-") || filepath.Ext(a) != ".json" {
		t.Errorf("unexpected view state path %q", a)
	}
	if ViewStatePath("/one/nodes.yaml") != a {
		t.Error("expected stable view state path")
	}
}
