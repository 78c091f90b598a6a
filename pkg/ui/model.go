package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/nodestore"
	"github.com/vanderheijden86/treekit/pkg/tree"
	"github.com/vanderheijden86/treekit/pkg/watcher"
)

// chromeHeight is the number of rows taken by header and footer.
const chromeHeight = 2

// ReloadFunc reads the node files again.
type ReloadFunc func(ctx context.Context) ([]tree.NodeModel, error)

// Options configures a Model.
type Options struct {
	Title         string
	ShowCheckbox  bool
	FrameInterval time.Duration

	// ViewStatePath is where the view state is saved on quit. Empty
	// disables saving.
	ViewStatePath string

	// Watcher triggers Reload when a node file changes. Both may be nil.
	Watcher *watcher.Watcher
	Reload  ReloadFunc
}

// Model is the bubbletea model of the tree view.
type Model struct {
	tree   *tree.Tree
	canvas *RowCanvas
	theme  Theme
	opts   Options

	width, height int

	filter    textinput.Model
	filtering bool

	// menu holds the open context menu of the selected node, nil when closed
	menu      []menuAction
	menuIndex int

	ticking       bool
	statusMsg     string
	statusIsError bool

	copyFn func(string) error
}

// frameMsg drives running transitions.
type frameMsg time.Time

// FileChangedMsg is sent when the watcher reports changed node files.
type FileChangedMsg struct{}

// reloadedMsg carries the result of a reload.
type reloadedMsg struct {
	models []tree.NodeModel
	err    error
}

// NewModel creates the view for tr and attaches a row canvas to it.
func NewModel(tr *tree.Tree, theme Theme, opts Options) Model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / 30
	}
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.CharLimit = 256
	ti.SetValue(tr.FilterText())

	c := NewRowCanvas(tr, opts.ShowCheckbox)
	tr.Attach(c)

	m := Model{
		tree:   tr,
		canvas: c,
		theme:  theme,
		opts:   opts,
		width:  80,
		height: 24,
		filter: ti,
		copyFn: clipboard.WriteAll,
	}
	tr.SetViewportHeight(m.bodyHeight())
	if tr.SelectedNode() == nil && tr.VisibleCount() > 0 {
		tr.SelectNode(tr.VisibleAt(0))
	}
	tr.Flush()
	return m
}

// Tree returns the tree shown by the model.
func (m Model) Tree() *tree.Tree { return m.tree }

// Status returns the current status line message.
func (m Model) Status() (msg string, isError bool) { return m.statusMsg, m.statusIsError }

func (m Model) bodyHeight() int {
	return max(1, m.height-chromeHeight)
}

// WatchFileCmd returns a command that waits for a change and sends
// FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

func reloadCmd(reload ReloadFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		models, err := reload(ctx)
		return reloadedMsg{models: models, err: err}
	}
}

func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.opts.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil && m.opts.Reload != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.filter.Width = max(10, m.width-4)
		m.tree.SetViewportHeight(m.bodyHeight())
		m.tree.Flush()
		m.tree.ScrollTo(m.tree.SelectedNode())

	case frameMsg:
		m.tree.Tick(time.Time(msg))
		m.ticking = false

	case FileChangedMsg:
		if m.opts.Reload != nil {
			cmds = append(cmds, reloadCmd(m.opts.Reload))
		}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}

	case reloadedMsg:
		m.applyReload(msg)

	case tea.KeyMsg:
		var cmd tea.Cmd
		switch {
		case msg.String() == "ctrl+c" && m.menu != nil:
			m.saveViewState()
			cmd = tea.Quit
		case m.menu != nil:
			m.handleMenuKeys(msg.String())
		case m.filtering:
			cmd = m.handleFilterKeys(msg)
		default:
			cmd = m.handleKeys(msg)
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if !m.ticking && m.tree.Animator().Running() > 0 {
		m.ticking = true
		cmds = append(cmds, m.frameCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applyReload(msg reloadedMsg) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("Reload failed: %v", msg.err), true)
		return
	}
	diff, err := nodestore.Sync(m.tree, msg.models)
	if err != nil {
		m.setStatus(fmt.Sprintf("Reload failed: %v", err), true)
		return
	}
	m.tree.Flush()
	if m.tree.SelectedNode() == nil && m.tree.VisibleCount() > 0 {
		m.selectAt(0)
	}
	m.setStatus("Reloaded: "+strings.SplitN(diff.Summary(), "\n", 2)[0], false)
}

func (m *Model) setStatus(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	sel := m.tree.SelectedNode()
	switch msg.String() {
	case "q", "ctrl+c":
		m.saveViewState()
		return tea.Quit
	case "j", "down":
		m.moveBy(1)
	case "k", "up":
		m.moveBy(-1)
	case "pgdown", "ctrl+f":
		m.moveBy(m.bodyHeight())
	case "pgup", "ctrl+b":
		m.moveBy(-m.bodyHeight())
	case "g", "home":
		m.selectAt(0)
	case "G", "end":
		m.selectAt(m.tree.VisibleCount() - 1)
	case "l", "right":
		m.expandOrDescend(sel)
	case "h", "left":
		m.collapseOrAscend(sel)
	case "enter", "o":
		m.tree.ToggleNode(sel)
	case " ", "x":
		if sel != nil && m.tree.Checkable() {
			toggleChecked(m.tree, sel)
		}
	case "m":
		m.openMenu()
		return nil
	case "E":
		m.tree.ExpandAll()
	case "C":
		m.tree.CollapseAll()
	case "b":
		m.toggleDisplayStyle()
	case "/":
		m.filtering = true
		m.filter.SetValue(m.tree.FilterText())
		m.filter.CursorEnd()
		return m.filter.Focus()
	case "esc":
		if m.tree.FilterText() != "" {
			m.setFilter("")
		}
	case "y":
		m.copySelectedPath()
	case "r":
		if m.opts.Reload != nil {
			return reloadCmd(m.opts.Reload)
		}
	default:
		return nil
	}
	m.tree.Flush()
	m.tree.ScrollTo(m.tree.SelectedNode())
	return nil
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		m.saveViewState()
		return tea.Quit
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.setFilter("")
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.setFilter(m.filter.Value())
	return cmd
}

func (m *Model) setFilter(text string) {
	m.tree.SetFilterText(text)
	m.tree.Flush()
	if sel := m.tree.SelectedNode(); sel == nil || !m.tree.IsVisible(sel) {
		if m.tree.VisibleCount() > 0 {
			m.selectAt(0)
		}
	}
	m.tree.ScrollTo(m.tree.SelectedNode())
}

func (m *Model) moveBy(delta int) {
	i := m.tree.VisibleIndex(m.tree.SelectedNode())
	if i < 0 {
		m.selectAt(0)
		return
	}
	m.selectAt(i + delta)
}

func (m *Model) selectAt(i int) {
	n := visibleClamped(m.tree, i)
	if n == nil {
		return
	}
	m.tree.SelectNode(n)
	m.tree.Flush()
	m.tree.ScrollTo(n)
}

// visibleClamped returns the visible node at i, clamped to the flat list.
func visibleClamped(c tree.Collection, i int) *tree.Node {
	count := c.VisibleCount()
	if count == 0 {
		return nil
	}
	return c.VisibleAt(max(0, min(i, count-1)))
}

// firstVisibleChild returns the first child of n in the flat list.
func firstVisibleChild(c tree.Collection, n *tree.Node) *tree.Node {
	for _, ch := range n.Children() {
		if c.IsVisible(ch) {
			return ch
		}
	}
	return nil
}

func (m *Model) expandOrDescend(n *tree.Node) {
	if n == nil || n.Leaf() {
		return
	}
	if !n.Expanded() || n.ExpansionState() == tree.ExpandedLazyState {
		m.tree.SetNodeExpanded(n, true, tree.ExpandOpts{Lazy: tree.LazyOff})
		return
	}
	if c := firstVisibleChild(m.tree, n); c != nil {
		m.tree.SelectNode(c)
	}
}

func (m *Model) collapseOrAscend(n *tree.Node) {
	if n == nil {
		return
	}
	if n.Expanded() && n.ChildCount() > 0 && m.tree.DisplayStyle() == tree.DisplayDefault {
		m.tree.CollapseNode(n)
		return
	}
	if p := n.Parent(); p != nil {
		m.tree.SelectNode(p)
	}
}

func (m *Model) toggleDisplayStyle() {
	next := tree.DisplayBreadcrumb
	if m.tree.DisplayStyle() == tree.DisplayBreadcrumb {
		next = tree.DisplayDefault
	}
	if err := m.tree.SetDisplayStyle(next); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("Display: "+string(next), false)
}

func (m *Model) copySelectedPath() {
	if sel := m.tree.SelectedNode(); sel != nil {
		m.copyPath(sel)
	}
}

func (m *Model) copyPath(n *tree.Node) {
	path := strings.Join(n.Path(), " / ")
	if err := m.copyFn(path); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus("Copied "+path, false)
}

func (m *Model) saveViewState() {
	if m.opts.ViewStatePath == "" {
		return
	}
	if err := nodestore.SaveViewState(m.opts.ViewStatePath, nodestore.CaptureViewState(m.tree)); err != nil {
		log.Printf("Warning: failed to save view state: %v", err)
	}
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	for i, line := range m.renderBody() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.opts.Title
	if title == "" {
		title = "treekit"
	}
	info := positionInfo(m.tree, m.tree, m.tree)
	if m.tree.DisplayStyle() == tree.DisplayBreadcrumb {
		info += "  breadcrumb"
	}
	left := m.theme.Header.Render(title)
	right := m.theme.Footer.Render(info)
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// renderBody draws the materialized rows that fall into the viewport.
func (m Model) renderBody() []string {
	height := m.bodyHeight()
	lines := make([]string, height)
	rows := m.canvas.Rows()
	before, _ := m.tree.Fillers()
	first := m.tree.ScrollTop() - before
	for i := 0; i < height; i++ {
		idx := first + i
		if idx < 0 || idx >= len(rows) {
			continue
		}
		lines[i] = m.renderRow(rows[idx])
	}
	if len(rows) == 0 && m.tree.VisibleCount() == 0 {
		lines[0] = m.theme.Footer.Render("  (no nodes)")
		if m.tree.FilterText() != "" {
			lines[0] = m.theme.Footer.Render(fmt.Sprintf("  no match for %q", m.tree.FilterText()))
		}
	}
	return lines
}

func (m Model) renderRow(r *tree.Row) string {
	n := r.Node
	lbl := label(n)
	prefix := strings.TrimSuffix(r.Text, lbl)
	prefix, lbl = fitRow(prefix, lbl, m.width)

	switch {
	case m.tree.IsSelected(n):
		line := prefix + lbl
		return m.theme.Selected.Render(line + strings.Repeat(" ", max(0, m.width-lipgloss.Width(line))))
	case !m.tree.IsVisible(n):
		return m.theme.Leaving.Render(prefix + lbl)
	case !n.Enabled():
		return m.theme.Disabled.Render(prefix + lbl)
	}

	style := m.theme.Base
	if n.Checked() {
		style = m.theme.Checked
	}
	matched := matchedIndexes(lbl, m.tree.FilterText(), m.tree.Options().FuzzyTextFilter)
	if len(matched) == 0 {
		return style.Render(prefix + lbl)
	}
	var b strings.Builder
	b.WriteString(style.Render(prefix))
	for i, ch := range lbl {
		if matched[i] {
			b.WriteString(m.theme.Match.Render(string(ch)))
		} else {
			b.WriteString(style.Render(string(ch)))
		}
	}
	return b.String()
}

// positionInfo describes the selection position and the check count.
func positionInfo(c tree.Collection, s tree.Selectable, k tree.Checkable) string {
	pos := 0
	if i := c.VisibleIndex(s.SelectedNode()); i >= 0 {
		pos = i + 1
	}
	info := fmt.Sprintf("%d/%d", pos, c.VisibleCount())
	if n := len(k.CheckedNodes()); n > 0 {
		info += fmt.Sprintf("  %d checked", n)
	}
	return info
}

func (m Model) renderFooter() string {
	if m.menu != nil {
		return m.renderMenu()
	}
	if m.filtering {
		return m.filter.View()
	}
	if m.statusMsg != "" {
		if m.statusIsError {
			return m.theme.Error.Render(m.statusMsg)
		}
		return m.theme.Footer.Render(m.statusMsg)
	}
	help := "j/k move  h/l fold  enter toggle  / filter  b breadcrumb  y copy  q quit"
	if m.tree.Options().ContextMenuEnabled {
		help = strings.Replace(help, "y copy", "y copy  m menu", 1)
	}
	if m.tree.Checkable() {
		help = "space check  " + help
	}
	if f := m.tree.FilterText(); f != "" {
		help = fmt.Sprintf("filter %q (esc clears)  ", f) + help
	}
	return m.theme.Footer.Render(help)
}
