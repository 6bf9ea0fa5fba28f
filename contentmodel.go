package xsd

import "strconv"

// unboundedOccurs marks a maxOccurs="unbounded" item.
const unboundedOccurs = -1

// ChildOption is one element name legally reachable at a content-model
// position, with the annotation that should accompany it (its own, or its
// named type's, when its own is absent).
type ChildOption struct {
	Name       string
	Annotation string
}

// ContentModelWalker computes which child elements may legally appear at
// a position in an element's content model, honoring minOccurs/maxOccurs
// and xs:sequence/xs:choice/xs:all restart semantics.
type ContentModelWalker struct {
	idx *SchemaIndex
}

// NewContentModelWalker returns a walker backed by idx.
func NewContentModelWalker(idx *SchemaIndex) *ContentModelWalker {
	return &ContentModelWalker{idx: idx}
}

// PossibleChildren returns the legal next children under decl. With no
// previousSibling it returns the start-capable set; otherwise it applies
// the next-after algorithm for decl's governing content model.
func (w *ContentModelWalker) PossibleChildren(decl *SchemaNode, previousSibling string) []*ChildOption {
	model := w.findContentModel(decl)
	if model == nil {
		return nil
	}
	if previousSibling == "" {
		return w.startElements(model)
	}
	return w.nextAfter(model, previousSibling)
}

func (w *ContentModelWalker) startElements(model *SchemaNode) []*ChildOption {
	switch model.Name {
	case "all":
		return w.getElementsInAll(model)
	case "choice":
		return w.getElementsInChoice(model)
	case "sequence":
		return w.getStartElementsOfSequence(model)
	}
	return nil
}

func (w *ContentModelWalker) nextAfter(model *SchemaNode, prev string) []*ChildOption {
	switch model.Name {
	case "all":
		return w.getElementsInAll(model)
	case "choice":
		return w.nextAfterChoice(model, prev)
	case "sequence":
		return w.nextAfterSequence(model, prev)
	}
	return nil
}

// findContentModel locates the governing xs:sequence|xs:choice|xs:all by
// descending through xs:complexType, xs:complexContent, xs:simpleContent,
// xs:extension, xs:restriction, and resolving xs:group ref=, following
// type="T" for named types when no inline content model is present.
func (w *ContentModelWalker) findContentModel(node *SchemaNode) *SchemaNode {
	return w.findContentModelVisited(node, 0, map[string]bool{})
}

func (w *ContentModelWalker) findContentModelVisited(node *SchemaNode, depth int, visited map[string]bool) *SchemaNode {
	if node == nil || depth > resolverMaxDepth {
		return nil
	}
	if node.Name == "element" {
		root := w.idx.contentRootOf(node)
		if root == nil {
			return nil
		}
		return w.findContentModelVisited(root, depth+1, visited)
	}
	return w.descendToModel(node, depth, visited)
}

func (w *ContentModelWalker) descendToModel(node *SchemaNode, depth int, visited map[string]bool) *SchemaNode {
	if node == nil || depth > resolverMaxDepth {
		return nil
	}
	switch node.Name {
	case "sequence", "choice", "all":
		return node
	case "complexType", "complexContent", "simpleContent":
		for _, c := range node.Children {
			if c.Name == "sequence" || c.Name == "choice" || c.Name == "all" {
				return c
			}
		}
		for _, c := range node.Children {
			if m := w.descendToModel(c, depth+1, visited); m != nil {
				return m
			}
		}
	case "extension", "restriction":
		for _, c := range node.Children {
			if c.Name == "sequence" || c.Name == "choice" || c.Name == "all" {
				return c
			}
		}
		if base, ok := node.Attr("base"); ok && !isBuiltinRef(base) {
			t := localName(base)
			key := "type:" + t
			if !visited[key] {
				if def, found := w.idx.NamedTypes[t]; found {
					visited[key] = true
					m := w.findContentModelVisited(def, depth+1, visited)
					delete(visited, key)
					return m
				}
			}
		}
	case "group":
		if ref, ok := node.Attr("ref"); ok {
			g := localName(ref)
			key := "group:" + g
			if !visited[key] {
				if def, found := w.idx.Groups[g]; found {
					visited[key] = true
					m := w.descendToModel(def, depth+1, visited)
					delete(visited, key)
					return m
				}
			}
			return nil
		}
		for _, c := range node.Children {
			if m := w.descendToModel(c, depth+1, visited); m != nil {
				return m
			}
		}
	}
	return nil
}

func (w *ContentModelWalker) resolveGroupModel(item *SchemaNode) *SchemaNode {
	ref, ok := item.Attr("ref")
	if !ok {
		return nil
	}
	def, found := w.idx.Groups[localName(ref)]
	if !found {
		return nil
	}
	return w.descendToModel(def, 0, map[string]bool{})
}

// getStartElementsOfSequence takes a sequence's direct items in order,
// accumulating start-elements of each, and stops once an item with
// effective minOccurs >= 1 has been included.
func (w *ContentModelWalker) getStartElementsOfSequence(seq *SchemaNode) []*ChildOption {
	var out []*ChildOption
	for _, item := range directContentItems(seq) {
		out = append(out, w.getStartElementsFromItem(item, seq)...)
		min, _ := effectiveOccursPair(item, seq)
		if min >= 1 {
			break
		}
	}
	return dedupOptions(out)
}

func (w *ContentModelWalker) getStartElementsFromItem(item, parent *SchemaNode) []*ChildOption {
	switch item.Name {
	case "element":
		return []*ChildOption{w.optionFor(item)}
	case "choice":
		return w.getElementsInChoice(item)
	case "sequence":
		return w.getStartElementsOfSequence(item)
	case "all":
		return w.getElementsInAll(item)
	case "group":
		inner := w.resolveGroupModel(item)
		if inner == nil {
			return nil
		}
		switch inner.Name {
		case "choice":
			return w.getElementsInChoice(inner)
		case "sequence":
			return w.getStartElementsOfSequence(inner)
		case "all":
			return w.getElementsInAll(inner)
		}
	}
	return nil
}

func (w *ContentModelWalker) getElementsInAll(all *SchemaNode) []*ChildOption {
	var out []*ChildOption
	for _, item := range all.Children {
		if item.Name == "element" {
			out = append(out, w.optionFor(item))
		}
	}
	return dedupOptions(out)
}

// getElementsInChoice returns the union of start-capable alternatives:
// direct elements contribute themselves, nested choices are flattened,
// nested sequences contribute only their own start-elements, and group
// references resolve to their inner model.
func (w *ContentModelWalker) getElementsInChoice(choice *SchemaNode) []*ChildOption {
	var out []*ChildOption
	for _, alt := range choice.Children {
		switch alt.Name {
		case "element":
			out = append(out, w.optionFor(alt))
		case "choice":
			out = append(out, w.getElementsInChoice(alt)...)
		case "sequence":
			out = append(out, w.getStartElementsOfSequence(alt)...)
		case "group":
			out = append(out, w.getStartElementsFromItem(alt, choice)...)
		}
	}
	return dedupOptions(out)
}

// nextAfterChoice implements the choice rule: prefer a direct sequence
// alternative (or one reached through a group/nested choice) containing
// prev; otherwise prev was itself a direct alternative and the choice
// restarts.
func (w *ContentModelWalker) nextAfterChoice(choice *SchemaNode, prev string) []*ChildOption {
	if seq := w.findSequenceContaining(choice, prev); seq != nil {
		out := w.withinSequenceTail(seq, prev)
		out = append(out, w.getElementsInChoice(choice)...)
		return dedupOptions(out)
	}
	return w.getElementsInChoice(choice)
}

func (w *ContentModelWalker) findSequenceContaining(choice *SchemaNode, prev string) *SchemaNode {
	for _, alt := range choice.Children {
		if alt.Name == "sequence" && w.sequenceContainsElement(alt, prev) {
			return alt
		}
	}
	for _, alt := range choice.Children {
		if alt.Name == "group" {
			if inner := w.resolveGroupModel(alt); inner != nil && inner.Name == "sequence" && w.sequenceContainsElement(inner, prev) {
				return inner
			}
		}
	}
	for _, alt := range choice.Children {
		if alt.Name == "choice" {
			if s := w.findSequenceContaining(alt, prev); s != nil {
				return s
			}
		}
	}
	return nil
}

func (w *ContentModelWalker) sequenceContainsElement(seq *SchemaNode, name string) bool {
	for _, item := range seq.Children {
		if item.Name == "element" {
			if n, ok := elementContextName(item); ok && n == name {
				return true
			}
		}
	}
	return false
}

// withinSequenceTail locates prev among seq's direct element children and
// returns: prev itself if it may repeat, then each following item up to
// and including the first required one.
func (w *ContentModelWalker) withinSequenceTail(seq *SchemaNode, prev string) []*ChildOption {
	var items []*SchemaNode
	for _, c := range seq.Children {
		if c.Name == "element" {
			items = append(items, c)
		}
	}
	idx := -1
	for i, it := range items {
		if n, _ := elementContextName(it); n == prev {
			idx = i
			break
		}
	}
	if idx == -1 {
		return w.getStartElementsOfSequence(seq)
	}

	var out []*ChildOption
	_, max := effectiveOccursPair(items[idx], seq)
	if max == unboundedOccurs || max > 1 {
		out = append(out, w.optionFor(items[idx]))
	}
	for i := idx + 1; i < len(items); i++ {
		out = append(out, w.optionFor(items[i]))
		min, _ := effectiveOccursPair(items[i], seq)
		if min >= 1 {
			break
		}
	}
	return out
}

// nextAfterSequence implements the sequence rule, including the
// leakage guard (step 6).
func (w *ContentModelWalker) nextAfterSequence(seq *SchemaNode, prev string) []*ChildOption {
	items := directContentItems(seq)
	idx, item := locateContaining(w, items, prev)
	if item == nil {
		return w.getStartElementsOfSequence(seq)
	}

	var out []*ChildOption
	var leakage map[string]bool

	switch item.Name {
	case "choice":
		out = append(out, w.nextAfterChoice(item, prev)...)
		if allRemainingOptional(items[idx+1:], seq) {
			out = append(out, followingStart(w, items, idx, seq)...)
		}
		leakage = nonStartLeakageExcept(item, w.findSequenceContaining(item, prev))
	case "group":
		inner := w.resolveGroupModel(item)
		if inner != nil && inner.Name == "choice" {
			out = append(out, w.nextAfterChoice(inner, prev)...)
			if allRemainingOptional(items[idx+1:], seq) {
				out = append(out, followingStart(w, items, idx, seq)...)
			}
			leakage = nonStartLeakageExcept(inner, w.findSequenceContaining(inner, prev))
		} else if inner != nil {
			out = append(out, w.nextInsideGeneric(inner, prev)...)
		}
	case "sequence":
		out = append(out, w.nextInsideGeneric(item, prev)...)
	case "element":
		out = append(out, followingStart(w, items, idx, seq)...)
	case "all":
		out = append(out, w.getElementsInAll(item)...)
	}

	_, max := effectiveOccursPair(item, seq)
	if max == unboundedOccurs || max > 1 {
		switch item.Name {
		case "element":
			out = append(out, w.optionFor(item))
		case "choice":
			out = append(out, w.getElementsInChoice(item)...)
		case "group":
			if inner := w.resolveGroupModel(item); inner != nil && inner.Name == "choice" {
				out = append(out, w.getElementsInChoice(inner)...)
			}
		}
	}

	_, seqMax := effectiveOccursPair(seq, nil)
	if seqMax == unboundedOccurs || seqMax > 1 {
		out = append(out, w.getStartElementsOfSequence(seq)...)
	}

	if len(leakage) > 0 {
		out = filterLeakage(out, leakage)
	}
	return dedupOptions(out)
}

func (w *ContentModelWalker) nextInsideGeneric(node *SchemaNode, prev string) []*ChildOption {
	switch node.Name {
	case "sequence":
		return w.nextAfterSequence(node, prev)
	case "choice":
		return w.nextAfterChoice(node, prev)
	case "all":
		return w.getElementsInAll(node)
	}
	return nil
}

func followingStart(w *ContentModelWalker, items []*SchemaNode, idx int, seq *SchemaNode) []*ChildOption {
	var out []*ChildOption
	for i := idx + 1; i < len(items); i++ {
		out = append(out, w.getStartElementsFromItem(items[i], seq)...)
		min, _ := effectiveOccursPair(items[i], seq)
		if min >= 1 {
			break
		}
	}
	return out
}

func allRemainingOptional(rest []*SchemaNode, seq *SchemaNode) bool {
	if len(rest) == 0 {
		return false
	}
	for _, it := range rest {
		min, _ := effectiveOccursPair(it, seq)
		if min != 0 {
			return false
		}
	}
	return true
}

// nonStartLeakage computes the set of element names that appear at
// position >= 2 within choice's sequence alternatives: names that must
// not be suggested as if they were reachable from outside that sequence.
func nonStartLeakage(choice *SchemaNode) map[string]bool {
	return nonStartLeakageExcept(choice, nil)
}

// nonStartLeakageExcept is nonStartLeakage with one sequence alternative
// excluded from the scan: the arm the caller is already continuing inside
// of (via withinSequenceTail) is explicitly allowed to surface its own
// later names, so it must not also flag them as leakage.
func nonStartLeakageExcept(choice *SchemaNode, except *SchemaNode) map[string]bool {
	leak := map[string]bool{}
	for _, alt := range choice.Children {
		if alt.Name != "sequence" || alt == except {
			continue
		}
		for i, it := range directContentItems(alt) {
			if i == 0 || it.Name != "element" {
				continue
			}
			if n, ok := elementContextName(it); ok {
				leak[n] = true
			}
		}
	}
	return leak
}

func filterLeakage(out []*ChildOption, leak map[string]bool) []*ChildOption {
	filtered := out[:0:0]
	for _, o := range out {
		if leak[o.Name] {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

func locateContaining(w *ContentModelWalker, items []*SchemaNode, prev string) (int, *SchemaNode) {
	for i, it := range items {
		if itemContains(w, it, prev) {
			return i, it
		}
	}
	return -1, nil
}

func itemContains(w *ContentModelWalker, item *SchemaNode, name string) bool {
	switch item.Name {
	case "element":
		n, _ := elementContextName(item)
		return n == name
	case "choice":
		for _, alt := range item.Children {
			if itemContains(w, alt, name) {
				return true
			}
		}
	case "sequence":
		for _, it := range directContentItems(item) {
			if itemContains(w, it, name) {
				return true
			}
		}
	case "all":
		for _, c := range item.Children {
			if c.Name == "element" {
				if n, _ := elementContextName(c); n == name {
					return true
				}
			}
		}
	case "group":
		if inner := w.resolveGroupModel(item); inner != nil {
			return itemContains(w, inner, name)
		}
	}
	return false
}

func directContentItems(node *SchemaNode) []*SchemaNode {
	var out []*SchemaNode
	for _, c := range node.Children {
		switch c.Name {
		case "element", "choice", "sequence", "group", "all":
			out = append(out, c)
		}
	}
	return out
}

// optionFor builds a ChildOption for an inline element: its own
// annotation, falling back to its named type's annotation when absent.
func (w *ContentModelWalker) optionFor(elem *SchemaNode) *ChildOption {
	name, _ := elementContextName(elem)
	ann := annotationText(elem)
	if ann == "" {
		if typ, ok := elem.Attr("type"); ok && !isBuiltinRef(typ) {
			if def, found := w.idx.NamedTypes[localName(typ)]; found {
				ann = annotationText(def)
			}
		}
	}
	return &ChildOption{Name: name, Annotation: ann}
}

func dedupOptions(list []*ChildOption) []*ChildOption {
	seen := map[string]bool{}
	var out []*ChildOption
	for _, o := range list {
		if o == nil || o.Name == "" || seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		out = append(out, o)
	}
	return out
}

func effectiveOccursPair(item, parent *SchemaNode) (int, int) {
	return effectiveMinOccurs(item, parent), effectiveMaxOccurs(item, parent)
}

// effectiveMinOccurs/effectiveMaxOccurs default to 1; an item that omits
// the attribute inherits the enclosing sequence's own value.
func effectiveMinOccurs(item, parent *SchemaNode) int {
	if v, ok := item.Attr("minOccurs"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if parent != nil {
		if v, ok := parent.Attr("minOccurs"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 1
}

func effectiveMaxOccurs(item, parent *SchemaNode) int {
	if v, ok := item.Attr("maxOccurs"); ok {
		return parseMaxOccurs(v)
	}
	if parent != nil {
		if v, ok := parent.Attr("maxOccurs"); ok {
			return parseMaxOccurs(v)
		}
	}
	return 1
}

func parseMaxOccurs(v string) int {
	if v == "unbounded" {
		return unboundedOccurs
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return 1
}
