package xsd

// maxContextDepth bounds recursion while building element contexts,
// guarding against runaway structural recursion the way a visited-set
// walk over a cyclic reference graph would.
const maxContextDepth = 40

// ElementContext records one site where an element name is declared: the
// node that governs it there, the named groups it was reached through, and
// a bottom-up element chain for nested sites: the element's own name first,
// then its enclosing elements (immediate enclosing element next). Global
// elements and group-reached sites have no Parents.
type ElementContext struct {
	Decl    *SchemaNode
	Groups  []string
	Parents []string
}

// SchemaIndex is the name-keyed view of a merged schema tree: every global
// element, named type, group, and attribute group, plus the full map of
// element-declaration contexts used to disambiguate "the same element name
// means different things under different ancestors".
type SchemaIndex struct {
	GlobalElements  map[string][]*SchemaNode
	NamedTypes      map[string]*SchemaNode
	Groups          map[string]*SchemaNode
	AttributeGroups map[string]*SchemaNode
	ElementContexts map[string][]*ElementContext
}

// NewSchemaIndex builds a SchemaIndex from a merged SchemaDoc in three
// passes: globals, recursively-nested named definitions, then element
// contexts.
func NewSchemaIndex(doc *SchemaDoc) *SchemaIndex {
	idx := &SchemaIndex{
		GlobalElements:  map[string][]*SchemaNode{},
		NamedTypes:      map[string]*SchemaNode{},
		Groups:          map[string]*SchemaNode{},
		AttributeGroups: map[string]*SchemaNode{},
		ElementContexts: map[string][]*ElementContext{},
	}
	if doc == nil || doc.Root == nil {
		return idx
	}
	idx.passA(doc.Root)
	idx.passB(doc.Root)
	idx.passC()
	return idx
}

// passA records only direct children of the schema root: global elements
// (appended, duplicates retained in source order) and top-level named
// types/groups/attribute groups.
func (idx *SchemaIndex) passA(root *SchemaNode) {
	for _, child := range root.Children {
		name, hasName := child.Attr("name")
		switch child.Name {
		case "element":
			if hasName && name != "" {
				idx.GlobalElements[name] = append(idx.GlobalElements[name], child)
			}
		case "complexType", "simpleType":
			if hasName && name != "" {
				idx.NamedTypes[name] = child
			}
		case "group":
			if hasName && name != "" {
				idx.Groups[name] = child
			}
		case "attributeGroup":
			if hasName && name != "" {
				idx.AttributeGroups[name] = child
			}
		}
	}
}

// passB deep-walks the whole tree for named complex/simple types, groups,
// and attribute groups declared at any depth, not just directly under the
// schema root. A name already recorded by passA (or by an earlier
// occurrence in depth-first document order, whatever its depth) wins.
func (idx *SchemaIndex) passB(root *SchemaNode) {
	var walk func(n *SchemaNode)
	walk = func(n *SchemaNode) {
		for _, c := range n.Children {
			name, hasName := c.Attr("name")
			if hasName && name != "" {
				switch c.Name {
				case "complexType", "simpleType":
					if _, exists := idx.NamedTypes[name]; !exists {
						idx.NamedTypes[name] = c
					}
				case "group":
					if _, exists := idx.Groups[name]; !exists {
						idx.Groups[name] = c
					}
				case "attributeGroup":
					if _, exists := idx.AttributeGroups[name]; !exists {
						idx.AttributeGroups[name] = c
					}
				}
			}
			walk(c)
		}
	}
	walk(root)
}

// passC builds the element-contexts map: globals seeded with no
// groups/parents, then every element reachable through a named group, then
// every element reachable by descending into each global element's own
// content model.
func (idx *SchemaIndex) passC() {
	for name, decls := range idx.GlobalElements {
		for _, d := range decls {
			idx.addContext(name, d, nil, nil)
		}
	}
	for name, def := range idx.Groups {
		idx.walkGroupSubtree(name, def, map[string]bool{name: true})
	}
	for name, decls := range idx.GlobalElements {
		for _, d := range decls {
			idx.walkElementSubtree(d, []string{name}, name, map[string]bool{}, map[string]bool{}, 0)
		}
	}
}

func (idx *SchemaIndex) addContext(name string, decl *SchemaNode, groups, parents []string) {
	if decl == nil || name == "" {
		return
	}
	idx.ElementContexts[name] = append(idx.ElementContexts[name], &ElementContext{
		Decl:    decl,
		Groups:  appendCopy(nil, groups...),
		Parents: appendCopy(nil, parents...),
	})
}

// elementContextName returns the name under which an inline element node
// should be indexed: its own name= or, for an element ref="G", the local
// name it references.
func elementContextName(n *SchemaNode) (string, bool) {
	if name, ok := n.Attr("name"); ok && name != "" {
		return name, true
	}
	if ref, ok := n.Attr("ref"); ok && ref != "" {
		return localName(ref), true
	}
	return "", false
}

// declNodeFor returns the node that actually governs an inline element
// reference: itself if it carries its own name=, or the first matching
// global declaration if it is a ref= to one.
func (idx *SchemaIndex) declNodeFor(n *SchemaNode) *SchemaNode {
	if _, ok := n.Attr("name"); ok {
		return n
	}
	if ref, ok := n.Attr("ref"); ok {
		if decls := idx.GlobalElements[localName(ref)]; len(decls) > 0 {
			return decls[0]
		}
	}
	return n
}

// walkGroupSubtree implements the named-group pass: every
// xs:element found while walking a named group's structural content
// becomes a context carrying that group's name and no parent chain.
// Nested xs:group ref= is followed without revisiting a group name.
func (idx *SchemaIndex) walkGroupSubtree(groupName string, node *SchemaNode, visitedGroups map[string]bool) {
	if node == nil {
		return
	}
	for _, c := range node.Children {
		switch c.Name {
		case "element":
			if name, ok := elementContextName(c); ok {
				idx.addContext(name, idx.declNodeFor(c), []string{groupName}, nil)
			}
		case "sequence", "choice", "all":
			idx.walkGroupSubtree(groupName, c, visitedGroups)
		case "group":
			ref, ok := c.Attr("ref")
			if !ok {
				continue
			}
			g := localName(ref)
			if visitedGroups[g] {
				continue
			}
			if def, found := idx.Groups[g]; found {
				visitedGroups[g] = true
				idx.walkGroupSubtree(groupName, def, visitedGroups)
				delete(visitedGroups, g)
			}
		}
	}
}

// walkElementSubtree descends into an inline or global element's own
// content model: its type= reference, or an inline complexType/simpleType
// child.
func (idx *SchemaIndex) walkElementSubtree(elem *SchemaNode, parents []string, rootName string, visitedTypes, visitedGroups map[string]bool, depth int) {
	if elem == nil || depth > maxContextDepth {
		return
	}
	if typ, ok := elem.Attr("type"); ok && !isBuiltinRef(typ) {
		t := localName(typ)
		if visitedTypes[t] {
			return
		}
		def, found := idx.NamedTypes[t]
		if !found {
			return
		}
		visitedTypes[t] = true
		idx.walkStructural(def, parents, rootName, visitedTypes, visitedGroups, depth)
		delete(visitedTypes, t)
		return
	}
	if ct := elem.FirstChildNamed("complexType"); ct != nil {
		idx.walkStructural(ct, parents, rootName, visitedTypes, visitedGroups, depth)
		return
	}
	if st := elem.FirstChildNamed("simpleType"); st != nil {
		idx.walkStructural(st, parents, rootName, visitedTypes, visitedGroups, depth)
	}
}

// walkStructural is the shared descent used by the global-element pass: it
// recurses through sequence/choice/all/complexType/complexContent/
// simpleContent wrappers, follows xs:group ref= and xs:extension|restriction
// base=, and records a context for every xs:element encountered.
func (idx *SchemaIndex) walkStructural(node *SchemaNode, parents []string, rootName string, visitedTypes, visitedGroups map[string]bool, depth int) {
	if node == nil || depth > maxContextDepth {
		return
	}
	for _, c := range node.Children {
		switch c.Name {
		case "element":
			name, ok := elementContextName(c)
			if !ok || name == rootName {
				// cycle breaker: an element recursing back to the root name
				// gets neither a new context nor further descent
				continue
			}
			newParents := append([]string{name}, parents...)
			idx.addContext(name, idx.declNodeFor(c), nil, newParents)
			idx.walkElementSubtree(c, newParents, rootName, visitedTypes, visitedGroups, depth+1)
		case "sequence", "choice", "all", "complexType", "complexContent", "simpleContent":
			idx.walkStructural(c, parents, rootName, visitedTypes, visitedGroups, depth)
		case "group":
			ref, ok := c.Attr("ref")
			if !ok {
				continue
			}
			g := localName(ref)
			if visitedGroups[g] {
				continue
			}
			def, found := idx.Groups[g]
			if !found {
				continue
			}
			visitedGroups[g] = true
			// a group reference carries only the immediate enclosing
			// element, not the full ancestor chain
			truncated := parents
			if len(truncated) > 1 {
				truncated = truncated[:1]
			}
			idx.walkStructural(def, truncated, rootName, visitedTypes, visitedGroups, depth+1)
			delete(visitedGroups, g)
		case "extension", "restriction":
			if base, ok := c.Attr("base"); ok && !isBuiltinRef(base) {
				t := localName(base)
				if !visitedTypes[t] {
					if def, found := idx.NamedTypes[t]; found {
						visitedTypes[t] = true
						idx.walkStructural(def, parents, rootName, visitedTypes, visitedGroups, depth+1)
						delete(visitedTypes, t)
					}
				}
			}
			idx.walkStructural(c, parents, rootName, visitedTypes, visitedGroups, depth)
		}
	}
}

// contentRootOf returns the node that defines an element's content model:
// the named type its type= attribute references, or an inline
// complexType/simpleType child. Shared by the hierarchical resolver and
// the content-model walker so both dereference declarations identically.
func (idx *SchemaIndex) contentRootOf(elem *SchemaNode) *SchemaNode {
	if elem == nil {
		return nil
	}
	if typ, ok := elem.Attr("type"); ok && !isBuiltinRef(typ) {
		if def, found := idx.NamedTypes[localName(typ)]; found {
			return def
		}
		return nil
	}
	if ct := elem.FirstChildNamed("complexType"); ct != nil {
		return ct
	}
	if st := elem.FirstChildNamed("simpleType"); st != nil {
		return st
	}
	return nil
}
