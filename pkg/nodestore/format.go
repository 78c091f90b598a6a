// Package nodestore reads and writes node files and keeps a displayed
// tree in step with them.
//
// A node file holds a forest of tree.NodeModel values. Three formats are
// supported, picked by file extension:
//   - JSON   (.json)
//   - YAML   (.yaml, .yml)
//   - SQLite (.db, .sqlite, .sqlite3), one row per node
package nodestore

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format identifies the encoding of a node file.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
	FormatSQLite
)

// ErrUnknownFormat is returned for files whose extension maps to no format.
var ErrUnknownFormat = errors.New("unknown node file format")

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// FormatFor derives the format from a file name.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	}
	return FormatUnknown
}

// ParseFormat maps a format name as accepted on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	}
	return FormatUnknown, ErrUnknownFormat
}
