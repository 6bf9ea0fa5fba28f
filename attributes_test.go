package xsd

import "testing"

const attributeSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:attributeGroup name="commonAttrs">
    <xs:attribute name="comment" type="xs:string"/>
  </xs:attributeGroup>

  <xs:complexType name="baseType">
    <xs:attribute name="id" type="xs:string" use="required"/>
  </xs:complexType>

  <xs:element name="do_if">
    <xs:complexType>
      <xs:complexContent>
        <xs:extension base="baseType">
          <xs:attributeGroup ref="commonAttrs"/>
          <xs:attribute name="value" use="required">
            <xs:simpleType>
              <xs:restriction base="xs:string">
                <xs:enumeration value="true"/>
                <xs:enumeration value="false"/>
              </xs:restriction>
            </xs:simpleType>
          </xs:attribute>
        </xs:extension>
      </xs:complexContent>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func TestAttributeCollectorCollectsAcrossExtensionAndGroup(t *testing.T) {
	idx := mustIndex(t, attributeSchema)
	ac := NewAttributeCollector(idx)
	decl := idx.GlobalElements["do_if"][0]

	descs := ac.Collect(decl)
	names := map[string]*AttributeDescriptor{}
	for _, d := range descs {
		names[d.Name] = d
	}

	for _, want := range []string{"id", "comment", "value"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("expected attribute %q to be collected, got %v", want, names)
		}
	}

	if !names["id"].Required {
		t.Fatal("expected id (use=required, inherited via extension) to be required")
	}
	if !names["value"].Required {
		t.Fatal("expected value to be required")
	}
	if len(names["value"].EnumValues) != 2 {
		t.Fatalf("expected value's inline enumeration to be captured, got %v", names["value"].EnumValues)
	}
	if names["value"].Type != "enumeration" {
		t.Fatalf("expected an inline enum-only type to be reported as 'enumeration', got %q", names["value"].Type)
	}
}

func TestAttributeCollectorRawMatchesEnhancedCount(t *testing.T) {
	idx := mustIndex(t, attributeSchema)
	ac := NewAttributeCollector(idx)
	decl := idx.GlobalElements["do_if"][0]

	raw := ac.CollectRaw(decl)
	enhanced := ac.Collect(decl)
	if len(raw) != len(enhanced) {
		t.Fatalf("expected CollectRaw and Collect to agree on count: %d vs %d", len(raw), len(enhanced))
	}
}
