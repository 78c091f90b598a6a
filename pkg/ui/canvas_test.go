package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/treekit/pkg/testutil"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

func TestRowCanvasGlyphs(t *testing.T) {
	opts := tree.DefaultOptions()
	opts.Checkable = true
	lazy := true
	tr := testutil.NewTree(t, opts, []tree.NodeModel{
		{ID: "p", Text: "parent", Expanded: true, Children: []tree.NodeModel{
			{ID: "c", Text: "child", Checked: true},
		}},
		{ID: "q", Text: "closed", Children: []tree.NodeModel{{ID: "q1", Text: "x"}}},
		{ID: "z", Text: "lazy", LazyExpandingEnabled: &lazy, ExpandedLazy: true, Expanded: true,
			Children: []tree.NodeModel{{ID: "z1", Text: "y"}}},
	})
	c := NewRowCanvas(tr, true)
	tr.Attach(c)
	tr.Flush()

	text := map[string]string{}
	for _, r := range c.Rows() {
		text[r.Node.ID()] = r.Text
	}
	tests := []struct {
		id   string
		want string
	}{
		{"p", glyphExpanded + "[-] parent"},
		{"c", glyphLeaf + "[x] child"},
		{"q", glyphCollapsed + "[ ] closed"},
		{"z", glyphLazy + "[ ] lazy"},
	}
	for _, tt := range tests {
		if !strings.HasSuffix(text[tt.id], tt.want) {
			t.Errorf("row %s = %q, want suffix %q", tt.id, text[tt.id], tt.want)
		}
	}
	if !strings.HasPrefix(text["c"], strings.Repeat(" ", tr.NodePadding(tr.NodeByID("c")))) {
		t.Errorf("child row not indented: %q", text["c"])
	}

	tr.CollapseNode(tr.NodeByID("p"))
	tr.Flush()
	for _, r := range c.Rows() {
		if r.Node.ID() == "p" && !strings.Contains(r.Text, glyphCollapsed) {
			t.Errorf("row not redrawn after collapse: %q", r.Text)
		}
	}
}

func TestRowCanvasHidesCheckbox(t *testing.T) {
	opts := tree.DefaultOptions()
	opts.Checkable = true
	tr := testutil.NewTree(t, opts, testutil.Single())
	c := NewRowCanvas(tr, false)
	tr.Attach(c)
	if got := c.Rows()[0].Text; strings.Contains(got, "[") {
		t.Errorf("checkbox drawn although disabled: %q", got)
	}
}

func TestLabel(t *testing.T) {
	tr := testutil.NewTree(t, tree.DefaultOptions(), []tree.NodeModel{
		{ID: "m", Text: "first\nsecond"},
		{ID: "t", Text: "a\tb"},
	})
	if got := label(tr.NodeByID("m")); got != "first …" {
		t.Errorf("label = %q", got)
	}
	if got := label(tr.NodeByID("t")); got != "a    b" {
		t.Errorf("label = %q", got)
	}
}

func TestFitRow(t *testing.T) {
	tests := []struct {
		prefix, label string
		width         int
		wantP, wantL  string
	}{
		{"  ▸ ", "short", 20, "  ▸ ", "short"},
		{"  ▸ ", "a rather long label", 12, "  ▸ ", "a rathe…"},
		{"      ▸ ", "label", 4, "    ", ""},
		{"▸ ", "日本語テキスト", 8, "▸ ", "日本…"},
	}
	for _, tt := range tests {
		p, l := fitRow(tt.prefix, tt.label, tt.width)
		if p != tt.wantP || l != tt.wantL {
			t.Errorf("fitRow(%q, %q, %d) = %q, %q; want %q, %q", tt.prefix, tt.label, tt.width, p, l, tt.wantP, tt.wantL)
		}
	}
}

func TestMatchedIndexes(t *testing.T) {
	got := matchedIndexes("Banana", "AN", false)
	if len(got) != 2 || !got[1] || !got[2] {
		t.Errorf("substring match = %v", got)
	}
	if matchedIndexes("Banana", "", false) != nil {
		t.Error("empty filter should match nothing")
	}
	if matchedIndexes("Banana", "x", false) != nil {
		t.Error("missing text should match nothing")
	}

	fz := matchedIndexes("banana", "bnn", true)
	if !fz[0] || len(fz) != 3 {
		t.Errorf("fuzzy match = %v", fz)
	}

	cut := matchedIndexes("abcd…", "d", false)
	if !cut[3] {
		t.Errorf("match before ellipsis = %v", cut)
	}
	if matchedIndexes("ab…", "…", false)[2] {
		t.Error("ellipsis must not be highlighted")
	}
}

func TestThemeFor(t *testing.T) {
	for _, name := range []string{"", "auto", "dark", "light"} {
		if _, err := ThemeFor(name); err != nil {
			t.Errorf("ThemeFor(%q): %v", name, err)
		}
	}
	if _, err := ThemeFor("neon"); err == nil {
		t.Error("unknown theme should fail")
	}
}
