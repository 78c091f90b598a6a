package nodestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// ErrOrphanNode is returned when a row names a parent that does not exist
// or when rows form a cycle.
var ErrOrphanNode = errors.New("node is not reachable from a root")

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id        TEXT PRIMARY KEY,
		parent_id TEXT,
		position  INTEGER NOT NULL,
		text      TEXT NOT NULL DEFAULT '',
		expanded  INTEGER NOT NULL DEFAULT 0,
		checked   INTEGER NOT NULL DEFAULT 0,
		enabled   INTEGER,
		leaf      INTEGER NOT NULL DEFAULT 0,
		lazy      INTEGER,
		data      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS nodes_parent ON nodes(parent_id, position)`,
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

type nodeRow struct {
	model    tree.NodeModel
	parentID sql.NullString
	position int
}

// ReadSQLite loads a document from a node database.
func ReadSQLite(ctx context.Context, path string) (Document, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Document{}, fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	doc := Document{}
	if err := readMeta(ctx, db, &doc); err != nil {
		return Document{}, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, parent_id, position, text, expanded, checked, enabled, leaf, lazy, data
		FROM nodes
		ORDER BY position`)
	if err != nil {
		return Document{}, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var all []*nodeRow
	for rows.Next() {
		var (
			r               nodeRow
			enabled, lazy   sql.NullBool
			data            sql.NullString
			expanded, check bool
			leaf            bool
		)
		if err := rows.Scan(&r.model.ID, &r.parentID, &r.position, &r.model.Text,
			&expanded, &check, &enabled, &leaf, &lazy, &data); err != nil {
			return Document{}, fmt.Errorf("scanning node: %w", err)
		}
		r.model.Expanded = expanded
		r.model.Checked = check
		r.model.Leaf = leaf
		if enabled.Valid {
			v := enabled.Bool
			r.model.Enabled = &v
		}
		if lazy.Valid {
			v := lazy.Bool
			r.model.LazyExpandingEnabled = &v
		}
		if data.Valid && data.String != "" && data.String != "null" {
			if err := json.Unmarshal([]byte(data.String), &r.model.Data); err != nil {
				return Document{}, fmt.Errorf("node %s: parsing data: %w", r.model.ID, err)
			}
		}
		all = append(all, &r)
	}
	if err := rows.Err(); err != nil {
		return Document{}, fmt.Errorf("error iterating nodes: %w", err)
	}

	nodes, err := assemble(all)
	if err != nil {
		return Document{}, err
	}
	doc.Nodes = nodes
	return doc, nil
}

func readMeta(ctx context.Context, db *sql.DB, doc *Document) error {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		// databases written by other tools may lack the table
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scanning meta: %w", err)
		}
		switch key {
		case "title":
			doc.Title = value
		case "version":
			fmt.Sscanf(value, "%d", &doc.Version)
		}
	}
	return rows.Err()
}

// assemble rebuilds the forest from flat rows.
func assemble(rows []*nodeRow) ([]tree.NodeModel, error) {
	byID := make(map[string]*nodeRow, len(rows))
	children := make(map[string][]*nodeRow)
	var roots []*nodeRow
	for _, r := range rows {
		if _, dup := byID[r.model.ID]; dup {
			return nil, fmt.Errorf("%w: %s", tree.ErrDuplicateID, r.model.ID)
		}
		byID[r.model.ID] = r
	}
	for _, r := range rows {
		if !r.parentID.Valid || r.parentID.String == "" {
			roots = append(roots, r)
			continue
		}
		if byID[r.parentID.String] == nil {
			return nil, fmt.Errorf("%w: %s has unknown parent %s", ErrOrphanNode, r.model.ID, r.parentID.String)
		}
		children[r.parentID.String] = append(children[r.parentID.String], r)
	}

	placed := 0
	var build func(level []*nodeRow) []tree.NodeModel
	build = func(level []*nodeRow) []tree.NodeModel {
		if len(level) == 0 {
			return nil
		}
		sort.SliceStable(level, func(i, j int) bool { return level[i].position < level[j].position })
		out := make([]tree.NodeModel, 0, len(level))
		for _, r := range level {
			placed++
			m := r.model
			m.Children = build(children[m.ID])
			out = append(out, m)
		}
		return out
	}
	forest := build(roots)
	if placed != len(rows) {
		return nil, fmt.Errorf("%w: %d rows form a cycle", ErrOrphanNode, len(rows)-placed)
	}
	return forest, nil
}

// WriteSQLite replaces the content of a node database with doc.
func WriteSQLite(ctx context.Context, path string, doc Document) error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range sqliteSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}
	meta := map[string]string{
		"title":   doc.Title,
		"version": fmt.Sprint(CurrentVersion),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key, value) VALUES(?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing meta: %w", err)
		}
	}

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes(id, parent_id, position, text, expanded, checked, enabled, leaf, lazy, data)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	var write func(parent sql.NullString, models []tree.NodeModel) error
	write = func(parent sql.NullString, models []tree.NodeModel) error {
		for i, m := range models {
			var data sql.NullString
			if m.Data != nil {
				b, err := json.Marshal(m.Data)
				if err != nil {
					return fmt.Errorf("node %s: marshaling data: %w", m.ID, err)
				}
				data = sql.NullString{String: string(b), Valid: true}
			}
			if _, err := ins.ExecContext(ctx, m.ID, parent, i, m.Text, m.Expanded, m.Checked,
				nullBool(m.Enabled), m.Leaf, nullBool(m.LazyExpandingEnabled), data); err != nil {
				return fmt.Errorf("inserting node %s: %w", m.ID, err)
			}
			if err := write(sql.NullString{String: m.ID, Valid: true}, m.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(sql.NullString{}, doc.Nodes); err != nil {
		return err
	}
	return tx.Commit()
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
