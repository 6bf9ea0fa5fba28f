package xsd

// AttributeDescriptor describes one attribute accepted by a resolved
// element declaration, together with every restriction it carries.
type AttributeDescriptor struct {
	Name    string
	Type    string // named type, or "enumeration" for inline enum-only simple types; "" if unset
	HasType bool

	Required bool
	Location Location

	Annotation      string
	EnumValues      []string
	EnumAnnotations map[string]string
	Patterns        []string

	MinLength    *int
	MaxLength    *int
	MinInclusive *float64
	MaxInclusive *float64
	MinExclusive *float64
	MaxExclusive *float64
}

// collectorVisited carries the cycle-guard keys AttributeCollector uses
// while walking a declaration's type/group/attribute-group graph.
type collectorVisited struct {
	types         map[string]bool
	groups        map[string]bool
	attrGroups    map[string]bool
	attrGroupRefs map[string]bool
}

func newCollectorVisited() collectorVisited {
	return collectorVisited{
		types:         map[string]bool{},
		groups:        map[string]bool{},
		attrGroups:    map[string]bool{},
		attrGroupRefs: map[string]bool{},
	}
}

// AttributeCollector walks a declaration's type/extension/attribute-group
// graph to produce the flat, de-duplicated set of attributes it accepts,
// each enhanced with its restriction facets via TypeResolver.
type AttributeCollector struct {
	idx      *SchemaIndex
	resolver *TypeResolver
}

// NewAttributeCollector returns a collector backed by the given index.
func NewAttributeCollector(idx *SchemaIndex) *AttributeCollector {
	return &AttributeCollector{idx: idx, resolver: NewTypeResolver(idx)}
}

// Collect returns the attribute descriptors reachable from decl (normally
// an xs:element declaration), in first-encountered traversal order.
func (ac *AttributeCollector) Collect(decl *SchemaNode) []*AttributeDescriptor {
	nodes := ac.CollectRaw(decl)
	out := make([]*AttributeDescriptor, 0, len(nodes))
	for _, attrNode := range nodes {
		out = append(out, ac.enhance(attrNode))
	}
	return out
}

// CollectRaw returns the raw xs:attribute nodes reachable from decl, in
// first-encountered traversal order, without resolving their restriction
// facets.
func (ac *AttributeCollector) CollectRaw(decl *SchemaNode) []*SchemaNode {
	seen := map[string]bool{}
	var order []*SchemaNode
	ac.walk(decl, seen, &order, newCollectorVisited())
	return order
}

func (ac *AttributeCollector) walk(node *SchemaNode, seen map[string]bool, order *[]*SchemaNode, v collectorVisited) {
	if node == nil {
		return
	}
	switch node.Name {
	case "element":
		if typ, ok := node.Attr("type"); ok && !isBuiltinRef(typ) {
			t := localName(typ)
			if !v.types[t] {
				if def, found := ac.idx.NamedTypes[t]; found {
					v.types[t] = true
					ac.walk(def, seen, order, v)
					delete(v.types, t)
				}
			}
		}
		if ct := node.FirstChildNamed("complexType"); ct != nil {
			ac.walk(ct, seen, order, v)
		}

	case "attribute":
		name, ok := node.Attr("name")
		if !ok || name == "" {
			return
		}
		if !seen[name] {
			seen[name] = true
			*order = append(*order, node)
		}

	case "attributeGroup":
		if ref, ok := node.Attr("ref"); ok {
			a := localName(ref)
			if v.attrGroupRefs[a] {
				return
			}
			def, found := ac.idx.AttributeGroups[a]
			if !found {
				return
			}
			v.attrGroupRefs[a] = true
			ac.walk(def, seen, order, v)
			delete(v.attrGroupRefs, a)
			return
		}
		if name, ok := node.Attr("name"); ok {
			if v.attrGroups[name] {
				return
			}
			v.attrGroups[name] = true
			for _, c := range node.Children {
				ac.walk(c, seen, order, v)
			}
			delete(v.attrGroups, name)
		}

	case "extension":
		if base, ok := node.Attr("base"); ok && !isBuiltinRef(base) {
			t := localName(base)
			if !v.types[t] {
				if def, found := ac.idx.NamedTypes[t]; found {
					v.types[t] = true
					ac.walk(def, seen, order, v)
					delete(v.types, t)
				}
			}
		}
		for _, c := range node.Children {
			ac.walk(c, seen, order, v)
		}

	case "complexContent", "simpleContent", "restriction":
		for _, c := range node.Children {
			ac.walk(c, seen, order, v)
		}

	case "complexType":
		for _, c := range node.Children {
			ac.walk(c, seen, order, v)
		}

	case "sequence", "choice", "all":
		for _, c := range node.Children {
			if c.Name == "element" {
				continue
			}
			ac.walk(c, seen, order, v)
		}

	case "group":
		if ref, ok := node.Attr("ref"); ok {
			g := localName(ref)
			if v.groups[g] {
				return
			}
			def, found := ac.idx.Groups[g]
			if !found {
				return
			}
			v.groups[g] = true
			ac.walk(def, seen, order, v)
			delete(v.groups, g)
			return
		}
		for _, c := range node.Children {
			ac.walk(c, seen, order, v)
		}
	}
}

// enhance builds an AttributeDescriptor from a collected xs:attribute
// node: requiredness, named-type restriction bundle or inline simpleType
// facets, and the "enumeration" pseudo-type when a facet-only inline type
// carries enumerations but no named type.
func (ac *AttributeCollector) enhance(node *SchemaNode) *AttributeDescriptor {
	name, _ := node.Attr("name")
	desc := &AttributeDescriptor{
		Name:       name,
		Required:   node.AttrOr("use", "optional") == "required",
		Location:   node.Location(),
		Annotation: annotationText(node),
	}

	typ, hasType := node.Attr("type")
	var bundle *RestrictionBundle
	if hasType && !isBuiltinRef(typ) {
		desc.Type = localName(typ)
		desc.HasType = true
		bundle = ac.resolver.GetRestrictionBundle(desc.Type)
	} else if hasType {
		desc.Type = "xs:" + localName(typ)
		desc.HasType = true
		bundle = newEmptyBundle()
	} else if st := node.FirstChildNamed("simpleType"); st != nil {
		bundle = ac.resolver.BundleForInlineType(st)
		if len(bundle.EnumValues) > 0 {
			desc.Type = "enumeration"
			desc.HasType = true
		}
	} else {
		bundle = newEmptyBundle()
	}

	desc.EnumValues = bundle.EnumValues
	desc.EnumAnnotations = bundle.EnumAnnotations
	desc.Patterns = bundle.Patterns
	desc.MinLength = bundle.MinLength
	desc.MaxLength = bundle.MaxLength
	desc.MinInclusive = bundle.MinInclusive
	desc.MaxInclusive = bundle.MaxInclusive
	desc.MinExclusive = bundle.MinExclusive
	desc.MaxExclusive = bundle.MaxExclusive

	return desc
}
