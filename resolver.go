package xsd

import "strconv"

// resolverMaxDepth bounds the inline-child search's descent into
// structural nodes, a bounded-depth guard against runaway recursion.
const resolverMaxDepth = 20

// HierarchicalResolver answers "which xs:element declaration governs this
// element name under this ancestor chain", using incremental bottom-up
// expansion with top-down verification.
type HierarchicalResolver struct {
	idx    *SchemaIndex
	caches *pipelineCaches
}

// NewHierarchicalResolver returns a resolver backed by idx, memoizing
// through caches.
func NewHierarchicalResolver(idx *SchemaIndex, caches *pipelineCaches) *HierarchicalResolver {
	return &HierarchicalResolver{idx: idx, caches: caches}
}

// Resolve returns the declaration governing element under hierarchy
// (bottom-up: immediate parent first), or nil. An empty hierarchy searches
// only global elements; a non-empty hierarchy never falls back to globals.
func (r *HierarchicalResolver) Resolve(element string, hierarchy []string) *SchemaNode {
	if len(hierarchy) == 0 {
		if decls := r.idx.GlobalElements[element]; len(decls) > 0 {
			return decls[0]
		}
		return nil
	}

	key := elementDefKey(element, hierarchy)
	if cached, ok := r.caches.elementDef.Get(key); ok {
		decl, _ := cached.(*SchemaNode)
		return decl
	}

	if decl := r.reuseCachedPrefix(element, hierarchy); decl != nil {
		r.caches.elementDef.Set(key, decl)
		return decl
	}

	for level := 1; level <= len(hierarchy); level++ {
		segment := hierarchy[:level]
		segmentKey := hierarchyValidationKey(element, segment)
		if invalid, ok := r.caches.hierarchyValidation.Get(segmentKey); ok && invalid == true {
			continue
		}

		topDown := reverseStrings(segment)
		decl := r.resolveAtLevel(element, topDown)
		if decl != nil {
			r.caches.elementDef.Set(elementDefKey(element, segment), decl)
			r.caches.elementDef.Set(key, decl)
			return decl
		}
		r.caches.hierarchyValidation.Set(segmentKey, true)
	}

	r.caches.elementDef.Set(key, (*SchemaNode)(nil))
	return nil
}

// reuseCachedPrefix implements the cache's partial-prefix reuse rule: a
// cached key for the same element whose hierarchy is a prefix of the
// requested one, and which resolved non-none, is reused directly.
func (r *HierarchicalResolver) reuseCachedPrefix(element string, hierarchy []string) *SchemaNode {
	for prefixLen := len(hierarchy) - 1; prefixLen >= 1; prefixLen-- {
		cached, ok := r.caches.elementDef.Get(elementDefKey(element, hierarchy[:prefixLen]))
		if !ok {
			continue
		}
		if decl, ok2 := cached.(*SchemaNode); ok2 && decl != nil {
			return decl
		}
	}
	return nil
}

// resolveAtLevel performs the top-down verification for one candidate
// hierarchy length: start from the global(s) named topDown[0], then walk
// inline content models matching each subsequent name in turn, finally
// matching the target element name itself.
func (r *HierarchicalResolver) resolveAtLevel(element string, topDown []string) *SchemaNode {
	if len(topDown) == 0 {
		return nil
	}
	candidates := append([]*SchemaNode(nil), r.idx.GlobalElements[topDown[0]]...)
	if len(candidates) == 0 {
		return nil
	}

	path := appendCopy(topDown[1:], element)
	for _, name := range path {
		var next []*SchemaNode
		seen := map[*SchemaNode]bool{}
		for _, cand := range candidates {
			for _, found := range r.findInlineChildren(cand, name) {
				if !seen[found] {
					seen[found] = true
					next = append(next, found)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		candidates = next
	}

	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// findInlineChildren searches decl's own content model for inline
// xs:element children named name, descending through structural wrappers,
// xs:group ref=, and xs:extension|restriction base=, but never recursing
// through a matched or unmatched element's own nested content (early
// stop — that content belongs to a different declaration's scope).
func (r *HierarchicalResolver) findInlineChildren(decl *SchemaNode, name string) []*SchemaNode {
	key := searchKey(nodeIdentity(decl), []string{name})
	if cached, ok := r.caches.elementSearch.Get(key); ok {
		found, _ := cached.([]*SchemaNode)
		return found
	}

	root := r.idx.contentRootOf(decl)
	var found []*SchemaNode
	if root != nil {
		found = r.searchStructural(root, name, 0, map[string]bool{}, map[string]bool{})
	}
	r.caches.elementSearch.Set(key, found)
	return found
}

// nodeIdentity gives a SchemaNode a stable string identity for cache
// keying: its source file plus start-tag position is unique within a
// merged schema tree.
func nodeIdentity(n *SchemaNode) string {
	if n == nil {
		return ""
	}
	return n.SourceFile + "@" + n.Name + ":" + strconv.Itoa(n.Line) + ":" + strconv.Itoa(n.Column)
}

func (r *HierarchicalResolver) searchStructural(node *SchemaNode, name string, depth int, visitedTypes, visitedGroups map[string]bool) []*SchemaNode {
	if node == nil || depth > resolverMaxDepth {
		return nil
	}
	var out []*SchemaNode
	for _, c := range node.Children {
		switch c.Name {
		case "element":
			if n, ok := elementContextName(c); ok && n == name {
				out = append(out, r.idx.declNodeFor(c))
			}
		case "sequence", "choice", "all", "complexType", "complexContent", "simpleContent":
			out = append(out, r.searchStructural(c, name, depth+1, visitedTypes, visitedGroups)...)
		case "group":
			if ref, ok := c.Attr("ref"); ok {
				g := localName(ref)
				if !visitedGroups[g] {
					if def, found := r.idx.Groups[g]; found {
						visitedGroups[g] = true
						out = append(out, r.searchStructural(def, name, depth+1, visitedTypes, visitedGroups)...)
						delete(visitedGroups, g)
					}
				}
			}
		case "extension", "restriction":
			if base, ok := c.Attr("base"); ok && !isBuiltinRef(base) {
				t := localName(base)
				if !visitedTypes[t] {
					if def, found := r.idx.NamedTypes[t]; found {
						visitedTypes[t] = true
						out = append(out, r.searchStructural(def, name, depth+1, visitedTypes, visitedGroups)...)
						delete(visitedTypes, t)
					}
				}
			}
			out = append(out, r.searchStructural(c, name, depth+1, visitedTypes, visitedGroups)...)
		}
	}
	return out
}
