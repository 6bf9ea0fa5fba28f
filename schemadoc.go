package xsd

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/agentflare-ai/go-xmldom"
)

// SchemaDoc owns a parsed XSD tree: one main document plus zero or more
// includes merged into it. It is immutable once Load/ParseSchemaDoc
// returns; nothing in this package mutates a SchemaNode's source-file,
// line, column, or start-tag annotations after load.
type SchemaDoc struct {
	Root *SchemaNode // the xs:schema node; its Children are the top-level declarations
}

// LoadSchemaDoc reads and parses a single XSD file, annotating every node
// with its source file and start-tag position the way schema.go's load
// does, via go-xmldom's Element.Position() plus a raw-byte scan for the
// tag length.
func LoadSchemaDoc(path string) (*SchemaDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("xsd: failed to read %s: %w", path, err)
	}
	return ParseSchemaDoc(path, data)
}

// ParseSchemaDoc parses XSD text already in memory. Exposed separately
// from LoadSchemaDoc so tests and callers holding a document string never
// need to touch the filesystem.
func ParseSchemaDoc(sourceFile string, data []byte) (*SchemaDoc, error) {
	doc, err := xmldom.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xsd: failed to parse %s: %w", sourceFile, err)
	}

	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("xsd: %s has no root element", sourceFile)
	}
	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		return nil, fmt.Errorf("xsd: %s is not an XSD schema document", sourceFile)
	}

	schemaNode := convertElement(root, sourceFile, data)
	return &SchemaDoc{Root: schemaNode}, nil
}

// Merge appends a deep copy of every child of include's root into main's
// root. Structural only: no conflict detection, duplicates coexist in the
// index's lists, matching schema.go's merge(main, include) contract.
func Merge(main, include *SchemaDoc) {
	if main == nil || include == nil || main.Root == nil || include.Root == nil {
		return
	}
	for _, child := range include.Root.Children {
		main.Root.Children = append(main.Root.Children, cloneNode(child))
	}
}

func cloneNode(n *SchemaNode) *SchemaNode {
	if n == nil {
		return nil
	}
	clone := &SchemaNode{
		Name:           n.Name,
		Text:           n.Text,
		SourceFile:     n.SourceFile,
		Line:           n.Line,
		Column:         n.Column,
		StartTagLength: n.StartTagLength,
	}
	if n.Attrs != nil {
		clone.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			clone.Attrs[k] = v
		}
	}
	for _, c := range n.Children {
		clone.Children = append(clone.Children, cloneNode(c))
	}
	return clone
}

// convertElement walks an xmldom.Element subtree in the xs: namespace into
// our own tagged SchemaNode tree, reading each node's attributes, text
// content, and source position once, at load time.
func convertElement(e xmldom.Element, sourceFile string, raw []byte) *SchemaNode {
	n := &SchemaNode{
		Name:       string(e.LocalName()),
		Attrs:      map[string]string{},
		SourceFile: sourceFile,
	}

	attrs := e.Attributes()
	for i := uint(0); i < attrs.Length(); i++ {
		a := attrs.Item(i)
		if a == nil {
			continue
		}
		n.Attrs[string(a.LocalName())] = string(a.NodeValue())
	}

	line, col, offset := e.Position()
	n.Line, n.Column = line, col
	n.StartTagLength = scanStartTagLength(raw, offset)

	var text []byte
	nodes := e.ChildNodes()
	for i := uint(0); i < nodes.Length(); i++ {
		c := nodes.Item(i)
		if c == nil {
			continue
		}
		if c.NodeType() == 3 { // text node
			text = append(text, []byte(string(c.NodeValue()))...)
		}
	}
	n.Text = string(text)

	children := e.Children()
	for i := uint(0); i < children.Length(); i++ {
		c := children.Item(i)
		if c == nil || string(c.NamespaceURI()) != XSDNamespace {
			continue
		}
		n.Children = append(n.Children, convertElement(c, sourceFile, raw))
	}

	return n
}

// scanStartTagLength scans raw source bytes from a node's reported offset
// to the matching unquoted '>', respecting single- and double-quoted
// attribute values, and returns the length in characters (UTF-8 runes) of
// the resulting start tag (including a self-closing "/>" if present).
func scanStartTagLength(raw []byte, offset int64) int {
	if offset < 0 || int(offset) >= len(raw) {
		return 0
	}
	start := int(offset)
	var quote byte
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '>':
			return utf8.RuneCount(raw[start : i+1])
		}
	}
	return utf8.RuneCount(raw[start:])
}
