package xsd

import "testing"

func mustContentWalker(t *testing.T, xsd string) (*SchemaIndex, *ContentModelWalker) {
	t.Helper()
	idx := mustIndex(t, xsd)
	return idx, NewContentModelWalker(idx)
}

func optionNames(opts []*ChildOption) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Name)
	}
	return out
}

func containsName(opts []*ChildOption, name string) bool {
	for _, o := range opts {
		if o.Name == name {
			return true
		}
	}
	return false
}

const sequenceSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="head" type="xs:string" minOccurs="0"/>
        <xs:element name="body" type="xs:string"/>
        <xs:element name="tail" type="xs:string" minOccurs="0"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestStartElementsOfSequenceStopsAtFirstRequired(t *testing.T) {
	idx, w := mustContentWalker(t, sequenceSchema)
	decl := idx.GlobalElements["root"][0]
	opts := w.PossibleChildren(decl, "")
	names := optionNames(opts)
	if len(names) != 2 || names[0] != "head" || names[1] != "body" {
		t.Fatalf("expected [head, body] as the start set (tail is unreachable until body is seen), got %v", names)
	}
}

func TestNextAfterSequenceFollowsRequiredElement(t *testing.T) {
	idx, w := mustContentWalker(t, sequenceSchema)
	decl := idx.GlobalElements["root"][0]
	opts := w.PossibleChildren(decl, "body")
	names := optionNames(opts)
	if len(names) != 1 || names[0] != "tail" {
		t.Fatalf("expected [tail] after body, got %v", names)
	}
}

const allSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:all>
        <xs:element name="a" type="xs:string"/>
        <xs:element name="b" type="xs:string"/>
        <xs:element name="c" type="xs:string" minOccurs="0"/>
      </xs:all>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestAllElementsIgnoreOrderingAndPreviousSibling(t *testing.T) {
	idx, w := mustContentWalker(t, allSchema)
	decl := idx.GlobalElements["root"][0]

	start := optionNames(w.PossibleChildren(decl, ""))
	if len(start) != 3 {
		t.Fatalf("expected all 3 elements of xs:all to be offered up front, got %v", start)
	}

	after := optionNames(w.PossibleChildren(decl, "a"))
	if len(after) != 3 {
		t.Fatalf("expected xs:all to keep offering all its elements regardless of previousSibling, got %v", after)
	}
}

// ifElseifElseSchema models an if/elseif*/else? construct as a repeatable
// choice between a (do_if, do_elseif*, do_else?) sequence and a standalone
// do_all alternative — the nested choice-of-sequences shape.
const ifElseifElseSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="attention">
    <xs:complexType>
      <xs:choice maxOccurs="unbounded">
        <xs:sequence>
          <xs:element name="do_if" type="xs:string"/>
          <xs:element name="do_elseif" type="xs:string" minOccurs="0" maxOccurs="unbounded"/>
          <xs:element name="do_else" type="xs:string" minOccurs="0"/>
        </xs:sequence>
        <xs:element name="do_all" type="xs:string"/>
      </xs:choice>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestStartElementsOfChoiceOfSequences(t *testing.T) {
	idx, w := mustContentWalker(t, ifElseifElseSchema)
	decl := idx.GlobalElements["attention"][0]
	names := optionNames(w.PossibleChildren(decl, ""))
	want := map[string]bool{"do_if": true, "do_all": true}
	if len(names) != 2 {
		t.Fatalf("expected exactly [do_if, do_all] at the start (do_elseif/do_else aren't reachable first), got %v", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected start element %q, want one of do_if/do_all", n)
		}
	}
}

func TestNextAfterChoiceOfSequencesReappearsOtherAlternatives(t *testing.T) {
	idx, w := mustContentWalker(t, ifElseifElseSchema)
	decl := idx.GlobalElements["attention"][0]
	names := optionNames(w.PossibleChildren(decl, "do_if"))

	wantOrder := []string{"do_elseif", "do_else", "do_if", "do_all"}
	if len(names) != len(wantOrder) {
		t.Fatalf("expected %v, got %v", wantOrder, names)
	}
	for i, want := range wantOrder {
		if names[i] != want {
			t.Fatalf("expected %v, got %v", wantOrder, names)
		}
	}
}

func TestNextAfterChoiceOfSequencesFromElseifStaysWithinSequence(t *testing.T) {
	idx, w := mustContentWalker(t, ifElseifElseSchema)
	decl := idx.GlobalElements["attention"][0]
	names := optionNames(w.PossibleChildren(decl, "do_elseif"))

	if !containsName0(names, "do_elseif") || !containsName0(names, "do_else") {
		t.Fatalf("expected do_elseif (repeatable) and do_else to remain reachable, got %v", names)
	}
}

func containsName0(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

const leakageSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="root">
    <xs:complexType>
      <xs:sequence>
        <xs:choice>
          <xs:sequence>
            <xs:element name="open" type="xs:string"/>
            <xs:element name="leaked" type="xs:string"/>
          </xs:sequence>
          <xs:element name="solo" type="xs:string"/>
        </xs:choice>
        <xs:element name="after" type="xs:string"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestNonStartLeakageFindsPositionTwoElements(t *testing.T) {
	idx, _ := mustContentWalker(t, leakageSchema)
	decl := idx.GlobalElements["root"][0]
	ct := decl.FirstChildNamed("complexType")
	seq := ct.FirstChildNamed("sequence")
	choice := seq.FirstChildNamed("choice")

	leak := nonStartLeakage(choice)
	if !leak["leaked"] {
		t.Fatalf("expected 'leaked' (position 2 of a choice's sequence alternative) to be flagged, got %v", leak)
	}
	if leak["open"] {
		t.Fatal("expected 'open' (position 0, a legitimate start element) not to be flagged")
	}
}

func TestFilterLeakageRemovesFlaggedNames(t *testing.T) {
	out := []*ChildOption{{Name: "open"}, {Name: "leaked"}, {Name: "solo"}}
	filtered := filterLeakage(out, map[string]bool{"leaked": true})
	if len(filtered) != 2 || containsName(filtered, "leaked") {
		t.Fatalf("expected 'leaked' to be removed, got %v", optionNames(filtered))
	}
}

func TestPossibleChildrenKeepsLeakedNameForCallerContinuingInsideItsOwnArm(t *testing.T) {
	idx, walker := mustContentWalker(t, leakageSchema)
	decl := idx.GlobalElements["root"][0]

	next := walker.PossibleChildren(decl, "open")
	if !containsName(next, "leaked") {
		t.Fatalf("expected 'leaked' to remain reachable for a caller continuing inside the sequence arm that declared it, got %v", optionNames(next))
	}
	if !containsName(next, "solo") {
		t.Fatalf("expected the choice's other alternative 'solo' to remain reachable, got %v", optionNames(next))
	}
}
