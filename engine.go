package xsd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrSchemaNotFound is returned, or wrapped, when a queried schema name has
// no {name}.xsd under the engine's directory.
var ErrSchemaNotFound = errors.New("xsd: schema not found")

// includePattern scans raw XSD text for xs:include schemaLocation= tokens,
// includes are discovered by text scan, not by parsing the include
// graph up front.
var includePattern = regexp.MustCompile(`<xs:include\s+schemaLocation\s*=\s*"([^"]+)"`)

// pipeline bundles one loaded schema's immutable graph and its caches —
// everything a schema needs to answer queries without touching disk again.
type pipeline struct {
	doc      *SchemaDoc
	idx      *SchemaIndex
	attrs    *AttributeCollector
	types    *TypeResolver
	resolver *HierarchicalResolver
	content  *ContentModelWalker
	caches   *pipelineCaches
}

// SchemaHandle is the opaque result of Engine.GetSchema: evidence a schema
// was found and loaded, without exposing its internal pipeline.
type SchemaHandle struct {
	Name string
}

// NamedAttributeNode pairs a raw xs:attribute node with its name, the
// shape getElementAttributes returns (as opposed to the enhanced
// AttributeDescriptor form).
type NamedAttributeNode struct {
	Name string
	Node *SchemaNode
}

// EnumerationValues is the result of GetSimpleTypeEnumerationValues: the
// values a named simple type's restriction/union chain enumerates, with
// their per-value annotations.
type EnumerationValues struct {
	Values      []string
	Annotations map[string]string
}

// Engine owns one or more per-schema pipelines for the XSD files in a
// directory, loading each lazily on first query and caching it for the
// life of the Engine.
type Engine struct {
	dir string

	cacheCapacity     int
	logger            *slog.Logger
	schemaNameAliases map[string]string

	mu        sync.Mutex
	pipelines map[string]*pipeline
	failed    map[string]error
}

// EngineOption configures an Engine at construction time. Options are
// applied in the order given; a later option wins over an earlier one
// that sets the same field.
type EngineOption func(*Engine)

// WithCacheCapacity overrides the soft cap each of a loaded schema's five
// caches enforces before evicting its oldest half. capacity <= 0 falls
// back to defaultCacheSoftCap.
func WithCacheCapacity(capacity int) EngineOption {
	return func(e *Engine) { e.cacheCapacity = capacity }
}

// WithLogger overrides the logger schema-load failures and
// include-resolution misses are reported through. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSchemaNameAlias adds, or overrides, one root-element-name to
// schema-name mapping on top of this package's built-in aliases, for
// Engine.DetectSchemaName calls routed through this Engine.
func WithSchemaNameAlias(rootElement, schemaName string) EngineOption {
	return func(e *Engine) {
		if e.schemaNameAliases == nil {
			e.schemaNameAliases = map[string]string{}
		}
		e.schemaNameAliases[rootElement] = schemaName
	}
}

// NewEngine returns an engine over xsdDirectory. No file I/O happens until
// the first query names a schema.
func NewEngine(xsdDirectory string, opts ...EngineOption) *Engine {
	e := &Engine{
		dir:       xsdDirectory,
		pipelines: map[string]*pipeline{},
		failed:    map[string]error{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) getPipeline(name string) (*pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pipelines[name]; ok {
		return p, nil
	}
	if err, ok := e.failed[name]; ok {
		return nil, err
	}
	p, err := e.load(name)
	if err != nil {
		e.failed[name] = err
		return nil, err
	}
	e.pipelines[name] = p
	return p, nil
}

// pipelineFor looks up a schema, collapsing ErrSchemaNotFound into a false
// "found" flag with no error, so callers that treat a missing schema as a
// plain *none* (GetSchema) and callers that treat it as a distinctive
// error (everything else) share one lookup path.
func (e *Engine) pipelineFor(name string) (*pipeline, bool, error) {
	p, err := e.getPipeline(name)
	if err != nil {
		if errors.Is(err, ErrSchemaNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

func (e *Engine) load(name string) (*pipeline, error) {
	path := filepath.Join(e.dir, name+".xsd")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("failed to load schema", "schema", name, "path", path, "error", err)
		return nil, fmt.Errorf("xsd: schema load failed for %s: %w", name, err)
	}
	doc, err := ParseSchemaDoc(path, data)
	if err != nil {
		e.logger.Error("failed to load schema", "schema", name, "path", path, "error", err)
		return nil, fmt.Errorf("xsd: schema load failed for %s: %w", name, err)
	}

	if err := e.mergeIncludes(doc, path, data, map[string]bool{path: true}); err != nil {
		return nil, err
	}

	idx := NewSchemaIndex(doc)
	caches := newPipelineCaches(e.cacheCapacity)
	return &pipeline{
		doc:      doc,
		idx:      idx,
		attrs:    NewAttributeCollector(idx),
		types:    NewTypeResolver(idx),
		resolver: NewHierarchicalResolver(idx, caches),
		content:  NewContentModelWalker(idx),
		caches:   caches,
	}, nil
}

// mergeIncludes scans sourceData for xs:include tokens, loads and merges
// each included file relative to sourcePath's directory, and recurses into
// its own includes. Missing include targets are skipped rather than
// treated as fatal, since the token scan can't tell a real include from a
// reference the caller never staged.
func (e *Engine) mergeIncludes(doc *SchemaDoc, sourcePath string, sourceData []byte, visited map[string]bool) error {
	dir := filepath.Dir(sourcePath)
	for _, match := range includePattern.FindAllSubmatch(sourceData, -1) {
		file := string(match[1])
		incPath := filepath.Join(dir, file)
		if visited[incPath] {
			continue
		}
		if _, err := os.Stat(incPath); err != nil {
			e.logger.Warn("include target not found, skipping", "location", file, "resolved", incPath)
			continue
		}
		visited[incPath] = true

		incData, err := os.ReadFile(incPath)
		if err != nil {
			e.logger.Error("failed to read include", "path", incPath, "error", err)
			return fmt.Errorf("xsd: failed to read include %s: %w", incPath, err)
		}
		incDoc, err := ParseSchemaDoc(incPath, incData)
		if err != nil {
			e.logger.Error("failed to parse include", "path", incPath, "error", err)
			return fmt.Errorf("xsd: failed to parse include %s: %w", incPath, err)
		}
		Merge(doc, incDoc)
		if err := e.mergeIncludes(doc, incPath, incData, visited); err != nil {
			return err
		}
	}
	return nil
}

// DetectSchemaName resolves xmlPath's schema name the way the
// package-level DetectSchemaName does, overlaying any aliases this Engine
// was constructed with via WithSchemaNameAlias on top of the package's
// built-in aliases.
func (e *Engine) DetectSchemaName(xmlPath string) (string, error) {
	if len(e.schemaNameAliases) == 0 {
		return detectSchemaName(xmlPath, schemaNameAliases)
	}
	merged := make(map[string]string, len(schemaNameAliases)+len(e.schemaNameAliases))
	for k, v := range schemaNameAliases {
		merged[k] = v
	}
	for k, v := range e.schemaNameAliases {
		merged[k] = v
	}
	return detectSchemaName(xmlPath, merged)
}

// GetSchema reports whether schemaName has a loadable .xsd, loading it if
// needed. A missing schema is reported as (nil, nil), not an error; a
// genuine load failure is returned as an error.
func (e *Engine) GetSchema(schemaName string) (*SchemaHandle, error) {
	_, ok, err := e.pipelineFor(schemaName)
	if err != nil || !ok {
		return nil, err
	}
	return &SchemaHandle{Name: schemaName}, nil
}

func (e *Engine) requirePipeline(schemaName string) (*pipeline, error) {
	p, ok, err := e.pipelineFor(schemaName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, schemaName)
	}
	return p, nil
}

// GetElementDefinition resolves the declaration governing element under
// hierarchy, or nil if none governs it.
func (e *Engine) GetElementDefinition(schemaName, element string, hierarchy []string) (*SchemaNode, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	return p.resolver.Resolve(element, hierarchy), nil
}

// GetElementAttributes returns the raw {name, node} pairs of the
// attributes the resolved declaration accepts.
func (e *Engine) GetElementAttributes(schemaName, element string, hierarchy []string) ([]*NamedAttributeNode, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	decl := p.resolver.Resolve(element, hierarchy)
	if decl == nil {
		return nil, nil
	}

	key := attrsKey(element, hierarchy)
	if cached, ok := p.caches.attrs.Get(key); ok {
		nodes, _ := cached.([]*SchemaNode)
		return namedAttributeNodes(nodes), nil
	}
	nodes := p.attrs.CollectRaw(decl)
	p.caches.attrs.Set(key, nodes)
	return namedAttributeNodes(nodes), nil
}

func namedAttributeNodes(nodes []*SchemaNode) []*NamedAttributeNode {
	out := make([]*NamedAttributeNode, 0, len(nodes))
	for _, n := range nodes {
		name, _ := n.Attr("name")
		out = append(out, &NamedAttributeNode{Name: name, Node: n})
	}
	return out
}

// GetElementAttributesWithTypes returns the fully-enhanced descriptors
// (restriction facets, requiredness, annotations) the resolved
// declaration accepts.
func (e *Engine) GetElementAttributesWithTypes(schemaName, element string, hierarchy []string) ([]*AttributeDescriptor, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	decl := p.resolver.Resolve(element, hierarchy)
	if decl == nil {
		return nil, nil
	}

	key := attrsKey(element, hierarchy) + ":typed"
	if cached, ok := p.caches.attrs.Get(key); ok {
		descs, _ := cached.([]*AttributeDescriptor)
		return descs, nil
	}
	descs := p.attrs.Collect(decl)
	p.caches.attrs.Set(key, descs)
	return descs, nil
}

// ValidateAttributeValue resolves element's declaration, finds attribute
// among its descriptors, and runs the instance ValueValidator against
// value.
func (e *Engine) ValidateAttributeValue(schemaName, element, attribute, value string, hierarchy []string) (*ValidationResult, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	decl := p.resolver.Resolve(element, hierarchy)
	if decl == nil {
		return nil, fmt.Errorf("xsd: element %q not declared under the given hierarchy", element)
	}
	descs := p.attrs.Collect(decl)
	desc := findDescriptor(descs, attribute)
	if desc == nil {
		return &ValidationResult{
			IsValid:      false,
			RawValue:     value,
			ErrorMessage: fmt.Sprintf("attribute %q is not declared on %q", attribute, element),
		}, nil
	}
	return NewValueValidator(p.types).Validate(value, desc), nil
}

// GetPossibleChildElements returns the ordered set of child elements legal
// at the position following previousSibling (or the start set, if empty)
// under the resolved declaration.
func (e *Engine) GetPossibleChildElements(schemaName, element string, hierarchy []string, previousSibling string) ([]*ChildOption, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}

	key := childrenKey(element, hierarchy, previousSibling)
	if cached, ok := p.caches.children.Get(key); ok {
		opts, _ := cached.([]*ChildOption)
		return opts, nil
	}

	decl := p.resolver.Resolve(element, hierarchy)
	if decl == nil {
		return nil, nil
	}
	opts := p.content.PossibleChildren(decl, previousSibling)
	p.caches.children.Set(key, opts)
	return opts, nil
}

// GetSimpleTypesWithBaseType returns the names of named simple types whose
// xs:restriction base= directly names baseTypeName.
func (e *Engine) GetSimpleTypesWithBaseType(schemaName, baseTypeName string) ([]string, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	target := localName(baseTypeName)

	var out []string
	for name, def := range p.idx.NamedTypes {
		if def.Name != "simpleType" {
			continue
		}
		restr := def.FirstChildNamed("restriction")
		if restr == nil {
			continue
		}
		if base, ok := restr.Attr("base"); ok && localName(base) == target {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetSimpleTypeEnumerationValues returns typeName's enumerated values
// (recursing into xs:union members through TypeResolver), or nil if it
// carries no enumeration facet.
func (e *Engine) GetSimpleTypeEnumerationValues(schemaName, typeName string) (*EnumerationValues, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	bundle := p.types.GetRestrictionBundle(typeName)
	if len(bundle.EnumValues) == 0 {
		return nil, nil
	}
	return &EnumerationValues{Values: bundle.EnumValues, Annotations: bundle.EnumAnnotations}, nil
}

// GetAvailableSchemas returns the names of schemas already loaded.
func (e *Engine) GetAvailableSchemas() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.pipelines))
	for name := range e.pipelines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetDiscoverableSchemas lists every {name}.xsd under the engine's
// directory, loaded or not.
func (e *Engine) GetDiscoverableSchemas() ([]string, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("xsd: failed to list %s: %w", e.dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xsd") {
			continue
		}
		out = append(out, strings.TrimSuffix(entry.Name(), ".xsd"))
	}
	sort.Strings(out)
	return out, nil
}

// CacheStats reports hit/miss/eviction counters for each of schemaName's
// five caches.
func (e *Engine) CacheStats(schemaName string) (map[string]CacheStatsEntry, error) {
	p, err := e.requirePipeline(schemaName)
	if err != nil {
		return nil, err
	}
	return p.caches.stats(), nil
}

// Dispose releases every loaded schema's caches and parsed trees.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pipelines {
		p.caches.clear()
	}
	e.pipelines = map[string]*pipeline{}
	e.failed = map[string]error{}
}
