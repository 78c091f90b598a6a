package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/nodestore"
	"github.com/vanderheijden86/treekit/pkg/tree"
	"github.com/vanderheijden86/treekit/pkg/ui"
	"github.com/vanderheijden86/treekit/pkg/version"
	"github.com/vanderheijden86/treekit/pkg/watcher"
)

// errNoFiles is returned when no node file is named and none was opened
// before.
var errNoFiles = errors.New("no node file given")

type viewFlags struct {
	noWatch   bool
	noState   bool
	title     string
	checkable bool
	outline   bool
}

func newViewCmd(a *app) *cobra.Command {
	var f viewFlags
	cmd := &cobra.Command{
		Use:   "view [files...]",
		Short: "Open node files in the tree view",
		Long:  "Open node files in the tree view. Several files are merged in argument order.\nWithout files the most recently opened one is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd, args, f)
		},
	}
	cmd.Flags().BoolVar(&f.noWatch, "no-watch", false, "Do not reload files when they change")
	cmd.Flags().BoolVar(&f.noState, "no-state", false, "Do not restore or save the view state")
	cmd.Flags().StringVar(&f.title, "title", "", "Title shown in the header")
	cmd.Flags().BoolVar(&f.checkable, "checkable", false, "Allow checking nodes")
	cmd.Flags().BoolVar(&f.outline, "outline", false, "Show as an outline: wider indentation, no context menu")
	return cmd
}

// treeOptions returns the configured tree options, with the outline policy
// applied when asked for.
func (a *app) treeOptions(outline bool) tree.Options {
	if outline {
		return a.cfg.Tree.Outline()
	}
	return a.cfg.Tree
}

// loadTree merges the node files into a new tree.
func (a *app) loadTree(ctx context.Context, cmd *cobra.Command, paths []string, opts tree.Options) (*tree.Tree, *nodestore.Loader, error) {
	loader := nodestore.NewLoader(paths...)
	loader.SetLogger(log.New(cmd.ErrOrStderr(), "", 0))
	models, _, err := loader.LoadAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	tr, err := tree.NewFromModels(opts, models)
	if err != nil {
		return nil, nil, fmt.Errorf("building tree: %w", err)
	}
	return tr, loader, nil
}

func (a *app) runView(cmd *cobra.Command, args []string, f viewFlags) error {
	paths := args
	if len(paths) == 0 {
		if len(a.cfg.Recent) == 0 {
			return errNoFiles
		}
		paths = a.cfg.Recent[:1]
	}

	opts := a.treeOptions(f.outline)
	if f.checkable {
		opts.Checkable = true
	}
	tr, loader, err := a.loadTree(cmd.Context(), cmd, paths, opts)
	if err != nil {
		return err
	}

	statePath := ""
	if !f.noState {
		statePath = config.ViewStatePath(paths[0])
	}
	if statePath != "" {
		if v, err := nodestore.LoadViewState(statePath); err != nil {
			log.Printf("Warning: ignoring view state: %v", err)
		} else {
			v.Apply(tr)
		}
	}

	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			a.cfg.AddRecent(abs)
		}
	}
	if err := a.saveConfig(); err != nil {
		log.Printf("Warning: could not save config: %v", err)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		tr.Flush()
		return writeOutline(cmd.OutOrStdout(), tr)
	}

	theme, err := ui.ThemeFor(a.cfg.UI.Theme)
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	var w *watcher.Watcher
	if a.cfg.UI.WatchFiles && !f.noWatch {
		w, err = watcher.NewWatcher(paths,
			watcher.WithDebounceDuration(a.cfg.UI.WatchDebounce),
			watcher.WithOnError(func(err error) { log.Printf("Warning: watcher: %v", err) }),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Printf("Warning: live reload disabled: %v", err)
			w = nil
		} else {
			defer w.Stop()
		}
	}

	title := f.title
	if title == "" {
		title = filepath.Base(paths[0])
		if len(paths) > 1 {
			title += fmt.Sprintf(" +%d", len(paths)-1)
		}
	}

	if debug.Enabled() {
		if f, err := openDebugLog(); err != nil {
			log.Printf("Warning: debug output stays on stderr: %v", err)
		} else {
			defer f.Close()
			debug.SetOutput(f)
		}
	}

	m := ui.NewModel(tr, theme, ui.Options{
		Title:         title,
		ShowCheckbox:  a.cfg.UI.ShowCheckbox,
		FrameInterval: a.cfg.UI.FrameInterval,
		ViewStatePath: statePath,
		Watcher:       w,
		Reload: func(ctx context.Context) ([]tree.NodeModel, error) {
			models, _, err := loader.LoadAll(ctx)
			return models, err
		},
	})
	return runTUIProgram(m)
}

// openDebugLog opens the file that takes debug output while the TUI owns
// the terminal.
func openDebugLog() (*os.File, error) {
	dir := config.StateDir()
	if dir == "" {
		return nil, errors.New("no state directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type dumpFlags struct {
	expandAll bool
	filter    string
	format    string
	style     string
	title     string
	outline   bool
}

func newDumpCmd(a *app) *cobra.Command {
	var f dumpFlags
	cmd := &cobra.Command{
		Use:   "dump <files...>",
		Short: "Print the visible outline or the merged document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(cmd, args, f)
		},
	}
	cmd.Flags().BoolVarP(&f.expandAll, "expand-all", "e", false, "Expand every node first")
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "Only show nodes matching text (and their ancestors)")
	cmd.Flags().StringVar(&f.format, "format", "outline", "Output format: outline, json or yaml")
	cmd.Flags().StringVar(&f.style, "style", "", "Display style: default or breadcrumb")
	cmd.Flags().StringVar(&f.title, "title", "", "Document title for json and yaml output")
	cmd.Flags().BoolVar(&f.outline, "outline", false, "Indent the outline like an outline view")
	return cmd
}

func (a *app) runDump(cmd *cobra.Command, args []string, f dumpFlags) error {
	tr, _, err := a.loadTree(cmd.Context(), cmd, args, a.treeOptions(f.outline))
	if err != nil {
		return err
	}
	if f.style != "" {
		style, err := tree.ParseDisplayStyle(f.style)
		if err != nil {
			return err
		}
		if err := tr.SetDisplayStyle(style); err != nil {
			return err
		}
	}
	if f.expandAll {
		tr.ExpandAll()
	}
	if f.filter != "" {
		tr.SetFilterText(f.filter)
	}
	tr.Flush()

	out := cmd.OutOrStdout()
	switch strings.ToLower(f.format) {
	case "outline", "":
		return writeOutline(out, tr)
	case "json":
		return nodestore.EncodeJSON(out, nodestore.DocumentFromTree(tr, f.title))
	case "yaml", "yml":
		return nodestore.EncodeYAML(out, nodestore.DocumentFromTree(tr, f.title))
	}
	return fmt.Errorf("unknown output format %q", f.format)
}

func newConvertCmd(a *app) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a node file to another format",
		Long:  "Convert a node file to another format. Formats are chosen by extension:\n.json, .yaml/.yml and .db/.sqlite/.sqlite3.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := nodestore.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if title != "" {
				doc.Title = title
			}
			if err := nodestore.Save(ctx, args[1], doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d nodes to %s (%s)\n",
				doc.Count(), args[1], nodestore.FormatFor(args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Replace the document title")
	return cmd
}

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show what reloading new over old would change",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tr, _, err := a.loadTree(ctx, cmd, args[:1], a.cfg.Tree)
			if err != nil {
				return err
			}
			doc, err := nodestore.Load(ctx, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), nodestore.Compare(tr, doc.Nodes).Summary())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "treekit %s\n", version.Version)
		},
	}
}

// writeOutline prints the visible flat list, indented by level.
func writeOutline(w io.Writer, tr *tree.Tree) error {
	var b strings.Builder
	for _, n := range tr.VisibleNodes() {
		b.WriteString(strings.Repeat(" ", tr.NodePadding(n)))
		switch {
		case n.Leaf() || n.ChildCount() == 0:
			b.WriteString("- ")
		case n.Expanded():
			b.WriteString("v ")
		default:
			b.WriteString("> ")
		}
		if tr.Checkable() {
			if n.Checked() {
				b.WriteString("[x] ")
			} else {
				b.WriteString("[ ] ")
			}
		}
		b.WriteString(n.Text())
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
