package nodestore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readAll reads r and strips a UTF-8 byte order mark.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

// DecodeJSON reads a document. A bare top-level array is accepted as the
// node list.
func DecodeJSON(r io.Reader) (Document, error) {
	data, err := readAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("reading json: %w", err)
	}
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var nodes []tree.NodeModel
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return Document{}, fmt.Errorf("parsing json: %w", err)
		}
		doc.Nodes = nodes
		return doc, nil
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, fmt.Errorf("parsing json: %w", err)
	}
	return doc, nil
}

// EncodeJSON writes doc as indented JSON.
func EncodeJSON(w io.Writer, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}

// DecodeYAML reads a document. A bare top-level sequence is accepted as the
// node list.
func DecodeYAML(r io.Reader) (Document, error) {
	data, err := readAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("reading yaml: %w", err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Document{}, fmt.Errorf("parsing yaml: %w", err)
	}
	var doc Document
	if len(root.Content) == 0 {
		return doc, nil
	}
	if root.Content[0].Kind == yaml.SequenceNode {
		if err := root.Content[0].Decode(&doc.Nodes); err != nil {
			return Document{}, fmt.Errorf("parsing yaml: %w", err)
		}
		return doc, nil
	}
	if err := root.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("parsing yaml: %w", err)
	}
	return doc, nil
}

// EncodeYAML writes doc as YAML with two space indentation.
func EncodeYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing yaml: %w", err)
	}
	return enc.Close()
}
