package nodestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// maxParallelLoads bounds open files during LoadAll.
const maxParallelLoads = 16

// Load reads and validates a node file.
func Load(ctx context.Context, path string) (Document, error) {
	defer metrics.Timer(metrics.StoreLoad)()
	start := time.Now()

	var (
		doc Document
		err error
	)
	switch FormatFor(path) {
	case FormatSQLite:
		if _, statErr := os.Stat(path); statErr != nil {
			return Document{}, fmt.Errorf("no node file at %s: %w", path, statErr)
		}
		doc, err = ReadSQLite(ctx, path)
	case FormatJSON, FormatYAML:
		doc, err = loadText(path)
	default:
		return Document{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	debug.LogTiming("nodestore: load "+path, time.Since(start))
	return doc, nil
}

func loadText(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open node file: %w", err)
	}
	defer f.Close()
	if FormatFor(path) == FormatYAML {
		return DecodeYAML(f)
	}
	return DecodeJSON(f)
}

// Save writes doc to path in the format its extension names. Text formats
// are written to a temporary file and renamed into place so a watcher never
// sees a half written file.
func Save(ctx context.Context, path string, doc Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	doc.Version = CurrentVersion
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	var encode func(io.Writer, Document) error
	switch FormatFor(path) {
	case FormatSQLite:
		return WriteSQLite(ctx, path, doc)
	case FormatJSON:
		encode = EncodeJSON
	case FormatYAML:
		encode = EncodeYAML
	default:
		return fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}

	var buf bytes.Buffer
	if err := encode(&buf, doc); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing node file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing node file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing node file: %w", err)
	}
	return nil
}

// LoadResult is the outcome of loading one file in LoadAll.
type LoadResult struct {
	Path  string
	Doc   Document
	Error error
}

// Loader reads several node files concurrently and merges their forests
// in argument order.
type Loader struct {
	paths  []string
	logger *log.Logger
}

// NewLoader creates a loader for paths.
func NewLoader(paths ...string) *Loader {
	return &Loader{
		paths: paths,
		// Silent unless the caller opts in via SetLogger.
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a logger for per-file failures.
func (l *Loader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// Paths returns the files the loader reads.
func (l *Loader) Paths() []string {
	return l.paths
}

// LoadAll loads every file. Files that fail to load, or that reuse an id
// of an earlier file, are reported in the results and left out of the
// merge. It fails only when no file could be loaded.
func (l *Loader) LoadAll(ctx context.Context) ([]tree.NodeModel, []LoadResult, error) {
	if len(l.paths) == 0 {
		return nil, nil, fmt.Errorf("no node files given")
	}

	results := make([]LoadResult, len(l.paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range l.paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = LoadResult{Path: path, Error: err}
				return nil
			}
			doc, err := Load(ctx, path)
			results[i] = LoadResult{Path: path, Doc: doc, Error: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, fmt.Errorf("fatal error during parallel loading: %w", err)
	}

	var merged []tree.NodeModel
	seen := make(map[string]bool)
	loaded := 0
	for i := range results {
		r := &results[i]
		if r.Error == nil {
			r.Error = claimIDs(r.Doc.Nodes, seen)
		}
		if r.Error != nil {
			l.logger.Printf("Warning: skipping %s: %v", r.Path, r.Error)
			continue
		}
		merged = append(merged, r.Doc.Nodes...)
		loaded++
	}
	if loaded == 0 {
		return nil, results, fmt.Errorf("no node file could be loaded: %w", results[0].Error)
	}
	return merged, results, nil
}

// claimIDs records the ids of models, failing without recording anything
// if one is taken.
func claimIDs(models []tree.NodeModel, seen map[string]bool) error {
	var ids []string
	var walk func([]tree.NodeModel)
	walk = func(ms []tree.NodeModel) {
		for _, m := range ms {
			ids = append(ids, m.ID)
			walk(m.Children)
		}
	}
	walk(models)
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: %s", tree.ErrDuplicateID, id)
		}
	}
	for _, id := range ids {
		seen[id] = true
	}
	return nil
}
