package xsd

import "strings"

// SchemaNode is a node in a parsed XSD tree. Nodes are tagged records keyed
// by their XSD local name (xs:element, xs:sequence, xs:attribute, ...)
// rather than a typed class hierarchy: dispatch throughout this package is
// a switch on Name, following the schema.go convention of the repo this
// package grew out of.
type SchemaNode struct {
	Name     string
	Attrs    map[string]string
	Children []*SchemaNode
	Text     string

	SourceFile     string
	Line           int
	Column         int
	StartTagLength int
}

// Attr returns the named attribute's value and whether it was present.
func (n *SchemaNode) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// AttrOr returns the named attribute's value, or def if absent.
func (n *SchemaNode) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// ChildrenNamed returns direct children whose Name matches.
func (n *SchemaNode) ChildrenNamed(name string) []*SchemaNode {
	if n == nil {
		return nil
	}
	var out []*SchemaNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildNamed returns the first direct child with the given Name, or nil.
func (n *SchemaNode) FirstChildNamed(name string) *SchemaNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Location returns the diagnostic location of this node's start tag.
func (n *SchemaNode) Location() Location {
	if n == nil {
		return Location{}
	}
	return Location{
		URI:              "file://" + n.SourceFile,
		Line:             n.Line,
		Column:           n.Column,
		LengthOfStartTag: n.StartTagLength,
	}
}

// annotationText reads xs:annotation/xs:documentation text off a node,
// trimmed, or "" if none is present.
func annotationText(n *SchemaNode) string {
	ann := n.FirstChildNamed("annotation")
	if ann == nil {
		return ""
	}
	doc := ann.FirstChildNamed("documentation")
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text)
}

// localName strips a "prefix:" off a type/base reference. The schemas this
// package targets carry no target namespace, so any prefix other than the
// xs: built-in prefix is treated as noise rather than resolved against a
// namespace table.
func localName(raw string) string {
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}

// isBuiltinRef reports whether a type/base reference names an xs: built-in
// rather than a user-defined named type.
func isBuiltinRef(raw string) bool {
	return strings.HasPrefix(raw, "xs:") || strings.HasPrefix(raw, "xsd:")
}

func cloneStringSet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func reverseStrings(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func appendCopy(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}
