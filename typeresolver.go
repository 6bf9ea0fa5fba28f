package xsd

import (
	"strconv"
	"strings"
)

// RestrictionBundle accumulates the facets reachable from a simple type's
// xs:restriction chain and xs:union memberships. A nil pointer field means
// that facet is unconstrained.
type RestrictionBundle struct {
	EnumValues      []string
	EnumAnnotations map[string]string
	Patterns        []string
	MinLength       *int
	MaxLength       *int
	MinInclusive    *float64
	MaxInclusive    *float64
	MinExclusive    *float64
	MaxExclusive    *float64
}

func newEmptyBundle() *RestrictionBundle {
	return &RestrictionBundle{}
}

// HasAnyFacet reports whether the bundle carries any restriction at all.
func (b *RestrictionBundle) HasAnyFacet() bool {
	if b == nil {
		return false
	}
	return len(b.EnumValues) > 0 || len(b.Patterns) > 0 ||
		b.MinLength != nil || b.MaxLength != nil ||
		b.MinInclusive != nil || b.MaxInclusive != nil ||
		b.MinExclusive != nil || b.MaxExclusive != nil
}

// TypeResolver resolves a named or inline simple type to its restriction
// facets or its ultimate built-in base, following xs:restriction,
// xs:extension, and xs:union the way schema.go's Type graph does, but
// operating directly on tagged SchemaNodes instead of a typed AST.
type TypeResolver struct {
	idx *SchemaIndex
}

// NewTypeResolver returns a resolver backed by the given index.
func NewTypeResolver(idx *SchemaIndex) *TypeResolver {
	return &TypeResolver{idx: idx}
}

// GetRestrictionBundle walks a named type's subtree and accumulates its
// facets, overlaying restriction-chain ancestors and widening union
// memberships.
func (tr *TypeResolver) GetRestrictionBundle(typeName string) *RestrictionBundle {
	return tr.bundleForNamedType(typeName, map[string]bool{})
}

// BundleForInlineType computes the facet bundle for an inline xs:simpleType
// node (no named-type lookup involved).
func (tr *TypeResolver) BundleForInlineType(node *SchemaNode) *RestrictionBundle {
	if node == nil {
		return newEmptyBundle()
	}
	return tr.bundleForTypeNode(node, map[string]bool{})
}

func (tr *TypeResolver) bundleForNamedType(typeName string, visited map[string]bool) *RestrictionBundle {
	if typeName == "" || visited[typeName] {
		return newEmptyBundle()
	}
	def, found := tr.idx.NamedTypes[typeName]
	if !found {
		return newEmptyBundle()
	}
	visited[typeName] = true
	defer delete(visited, typeName)
	return tr.bundleForTypeNode(def, visited)
}

func (tr *TypeResolver) bundleForTypeNode(def *SchemaNode, visited map[string]bool) *RestrictionBundle {
	fn := facetSourceOf(def)
	if fn == nil {
		return newEmptyBundle()
	}
	switch fn.Name {
	case "union":
		return tr.bundleForUnion(fn, visited)
	case "restriction", "extension":
		return tr.bundleForRestriction(fn, visited)
	default:
		return newEmptyBundle()
	}
}

// facetSourceOf returns the restriction/union/list node that actually
// carries facets for a named type: a simpleType's direct child, or a
// complexType's simpleContent restriction/extension.
func facetSourceOf(node *SchemaNode) *SchemaNode {
	if node == nil {
		return nil
	}
	switch node.Name {
	case "simpleType":
		for _, c := range node.Children {
			if c.Name == "restriction" || c.Name == "list" || c.Name == "union" {
				return c
			}
		}
	case "complexType":
		if sc := node.FirstChildNamed("simpleContent"); sc != nil {
			for _, c := range sc.Children {
				if c.Name == "restriction" || c.Name == "extension" {
					return c
				}
			}
		}
	case "restriction", "extension", "union", "list":
		return node
	}
	return nil
}

func (tr *TypeResolver) bundleForRestriction(fn *SchemaNode, visited map[string]bool) *RestrictionBundle {
	base := newEmptyBundle()
	if baseName, ok := fn.Attr("base"); ok && !isBuiltinRef(baseName) {
		base = tr.bundleForNamedType(localName(baseName), visited)
	}

	own := newEmptyBundle()
	ownAnnotations := map[string]string{}
	for _, c := range fn.Children {
		switch c.Name {
		case "enumeration":
			v, _ := c.Attr("value")
			own.EnumValues = append(own.EnumValues, v)
			if ann := annotationText(c); ann != "" {
				ownAnnotations[v] = ann
			}
		case "pattern":
			v, _ := c.Attr("value")
			own.Patterns = append(own.Patterns, v)
		case "minLength":
			own.MinLength = parseIntAttr(c)
		case "maxLength":
			own.MaxLength = parseIntAttr(c)
		case "minInclusive":
			own.MinInclusive = parseFloatAttr(c)
		case "maxInclusive":
			own.MaxInclusive = parseFloatAttr(c)
		case "minExclusive":
			own.MinExclusive = parseFloatAttr(c)
		case "maxExclusive":
			own.MaxExclusive = parseFloatAttr(c)
		}
	}

	result := overlayBundle(base, own)
	if len(ownAnnotations) > 0 {
		if result.EnumAnnotations == nil {
			result.EnumAnnotations = map[string]string{}
		}
		for k, v := range ownAnnotations {
			result.EnumAnnotations[k] = v
		}
	}
	return result
}

// overlayBundle applies a restriction's own facets on top of its base
// bundle: enum/pattern sets replace wholesale when the current restriction
// defines any of its own, scalar facets override when present.
func overlayBundle(base, own *RestrictionBundle) *RestrictionBundle {
	out := *base
	if len(own.EnumValues) > 0 {
		out.EnumValues = own.EnumValues
		out.EnumAnnotations = nil
	}
	if len(own.Patterns) > 0 {
		out.Patterns = own.Patterns
	}
	if own.MinLength != nil {
		out.MinLength = own.MinLength
	}
	if own.MaxLength != nil {
		out.MaxLength = own.MaxLength
	}
	if own.MinInclusive != nil {
		out.MinInclusive = own.MinInclusive
	}
	if own.MaxInclusive != nil {
		out.MaxInclusive = own.MaxInclusive
	}
	if own.MinExclusive != nil {
		out.MinExclusive = own.MinExclusive
	}
	if own.MaxExclusive != nil {
		out.MaxExclusive = own.MaxExclusive
	}
	return &out
}

func (tr *TypeResolver) bundleForUnion(fn *SchemaNode, visited map[string]bool) *RestrictionBundle {
	result := newEmptyBundle()
	first := true
	merge := func(b *RestrictionBundle) {
		result.Patterns = append(result.Patterns, b.Patterns...)
		result.EnumValues = append(result.EnumValues, b.EnumValues...)
		if len(b.EnumAnnotations) > 0 {
			if result.EnumAnnotations == nil {
				result.EnumAnnotations = map[string]string{}
			}
			for k, v := range b.EnumAnnotations {
				result.EnumAnnotations[k] = v
			}
		}
		result.MinLength = widenMinInt(result.MinLength, b.MinLength, first)
		result.MaxLength = widenMaxInt(result.MaxLength, b.MaxLength, first)
		result.MinInclusive = widenMinFloat(result.MinInclusive, b.MinInclusive, first)
		result.MaxInclusive = widenMaxFloat(result.MaxInclusive, b.MaxInclusive, first)
		result.MinExclusive = widenMinFloat(result.MinExclusive, b.MinExclusive, first)
		result.MaxExclusive = widenMaxFloat(result.MaxExclusive, b.MaxExclusive, first)
		first = false
	}

	if memberTypes, ok := fn.Attr("memberTypes"); ok {
		for _, t := range strings.Fields(memberTypes) {
			if isBuiltinRef(t) {
				first = false
				continue
			}
			merge(tr.bundleForNamedType(localName(t), visited))
		}
	}
	for _, c := range fn.Children {
		if c.Name == "simpleType" {
			merge(tr.bundleForTypeNode(c, visited))
		}
	}
	return result
}

func widenMinInt(acc, v *int, first bool) *int {
	if first {
		return v
	}
	if acc == nil || v == nil {
		return nil
	}
	if *v < *acc {
		return v
	}
	return acc
}

func widenMaxInt(acc, v *int, first bool) *int {
	if first {
		return v
	}
	if acc == nil || v == nil {
		return nil
	}
	if *v > *acc {
		return v
	}
	return acc
}

func widenMinFloat(acc, v *float64, first bool) *float64 {
	if first {
		return v
	}
	if acc == nil || v == nil {
		return nil
	}
	if *v < *acc {
		return v
	}
	return acc
}

func widenMaxFloat(acc, v *float64, first bool) *float64 {
	if first {
		return v
	}
	if acc == nil || v == nil {
		return nil
	}
	if *v > *acc {
		return v
	}
	return acc
}

func parseIntAttr(n *SchemaNode) *int {
	v, ok := n.Attr("value")
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &i
}

func parseFloatAttr(n *SchemaNode) *float64 {
	v, ok := n.Attr("value")
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ResolveToBuiltin returns the ultimate xs: built-in base of a named or
// referenced type: xs:string, xs:boolean, a numeric built-in, xs:date, or
// xs:time. Unknown named types resolve to xs:string.
func (tr *TypeResolver) ResolveToBuiltin(typeName string) string {
	return tr.resolveBaseRef(typeName, map[string]bool{})
}

func (tr *TypeResolver) resolveBaseRef(ref string, visited map[string]bool) string {
	if isBuiltinRef(ref) {
		return "xs:" + localName(ref)
	}
	return tr.resolveToBuiltinNamed(localName(ref), visited)
}

func (tr *TypeResolver) resolveToBuiltinNamed(typeName string, visited map[string]bool) string {
	if typeName == "" || visited[typeName] {
		return "xs:string"
	}
	def, found := tr.idx.NamedTypes[typeName]
	if !found {
		return "xs:string"
	}
	visited[typeName] = true
	defer delete(visited, typeName)
	return tr.resolveToBuiltinNode(def, visited)
}

func (tr *TypeResolver) resolveToBuiltinNode(def *SchemaNode, visited map[string]bool) string {
	if def == nil {
		return "xs:string"
	}
	switch def.Name {
	case "simpleType":
		for _, c := range def.Children {
			switch c.Name {
			case "restriction":
				if base, ok := c.Attr("base"); ok {
					return tr.resolveBaseRef(base, visited)
				}
			case "union":
				return tr.resolveUnionBuiltin(c, visited)
			case "list":
				if itemType, ok := c.Attr("itemType"); ok {
					return tr.resolveBaseRef(itemType, visited)
				}
			}
		}
	case "complexType":
		if sc := def.FirstChildNamed("simpleContent"); sc != nil {
			for _, c := range sc.Children {
				if c.Name == "restriction" || c.Name == "extension" {
					if base, ok := c.Attr("base"); ok {
						return tr.resolveBaseRef(base, visited)
					}
				}
			}
		}
	}
	return "xs:string"
}

func (tr *TypeResolver) resolveUnionBuiltin(fn *SchemaNode, visited map[string]bool) string {
	var candidates []string
	if memberTypes, ok := fn.Attr("memberTypes"); ok {
		for _, t := range strings.Fields(memberTypes) {
			candidates = append(candidates, tr.resolveBaseRef(t, visited))
		}
	}
	for _, c := range fn.Children {
		if c.Name == "simpleType" {
			candidates = append(candidates, tr.resolveToBuiltinNode(c, visited))
		}
	}
	for _, cand := range candidates {
		if cand == "xs:boolean" || isNumericBuiltin(cand) {
			return cand
		}
	}
	return "xs:string"
}
