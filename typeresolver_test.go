package xsd

import "testing"

const typeSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:simpleType name="baseCode">
    <xs:restriction base="xs:string">
      <xs:enumeration value="alpha"/>
      <xs:enumeration value="beta"/>
      <xs:minLength value="2"/>
    </xs:restriction>
  </xs:simpleType>

  <xs:simpleType name="narrowedCode">
    <xs:restriction base="baseCode">
      <xs:enumeration value="alpha"/>
      <xs:maxLength value="10"/>
    </xs:restriction>
  </xs:simpleType>

  <xs:simpleType name="smallInt">
    <xs:restriction base="xs:int">
      <xs:minInclusive value="0"/>
      <xs:maxInclusive value="10"/>
    </xs:restriction>
  </xs:simpleType>

  <xs:simpleType name="bigFloat">
    <xs:restriction base="xs:float">
      <xs:minInclusive value="-5"/>
      <xs:maxInclusive value="100"/>
    </xs:restriction>
  </xs:simpleType>

  <xs:simpleType name="numericUnion">
    <xs:union memberTypes="smallInt bigFloat"/>
  </xs:simpleType>
</xs:schema>`

func mustTypeResolver(t *testing.T, xsd string) *TypeResolver {
	t.Helper()
	idx := mustIndex(t, xsd)
	return NewTypeResolver(idx)
}

func TestRestrictionBundleOwnFacetsOverlayBase(t *testing.T) {
	tr := mustTypeResolver(t, typeSchema)
	bundle := tr.GetRestrictionBundle("narrowedCode")

	if len(bundle.EnumValues) != 1 || bundle.EnumValues[0] != "alpha" {
		t.Fatalf("expected narrowedCode's own enumeration to replace the base's, got %v", bundle.EnumValues)
	}
	if bundle.MinLength == nil || *bundle.MinLength != 2 {
		t.Fatalf("expected MinLength=2 inherited from baseCode, got %v", bundle.MinLength)
	}
	if bundle.MaxLength == nil || *bundle.MaxLength != 10 {
		t.Fatalf("expected MaxLength=10 from narrowedCode's own restriction, got %v", bundle.MaxLength)
	}
}

func TestUnionWidensNumericRangeAcrossMembers(t *testing.T) {
	tr := mustTypeResolver(t, typeSchema)
	bundle := tr.GetRestrictionBundle("numericUnion")

	if bundle.MinInclusive == nil || *bundle.MinInclusive != -5 {
		t.Fatalf("expected union's MinInclusive to widen to -5, got %v", bundle.MinInclusive)
	}
	if bundle.MaxInclusive == nil || *bundle.MaxInclusive != 100 {
		t.Fatalf("expected union's MaxInclusive to widen to 100, got %v", bundle.MaxInclusive)
	}
}

func TestResolveToBuiltinFollowsRestrictionChain(t *testing.T) {
	tr := mustTypeResolver(t, typeSchema)

	if got := tr.ResolveToBuiltin("narrowedCode"); got != "xs:string" {
		t.Fatalf("expected narrowedCode to resolve to xs:string, got %s", got)
	}
	if got := tr.ResolveToBuiltin("smallInt"); got != "xs:int" {
		t.Fatalf("expected smallInt to resolve to xs:int, got %s", got)
	}
}

func TestResolveToBuiltinUnionPrefersNumericOverString(t *testing.T) {
	tr := mustTypeResolver(t, typeSchema)
	got := tr.ResolveToBuiltin("numericUnion")
	if !isNumericBuiltin(got) && !isIntegerBuiltin(got) {
		t.Fatalf("expected numericUnion to resolve to a numeric built-in, got %s", got)
	}
}

func TestResolveToBuiltinUnknownTypeDefaultsToString(t *testing.T) {
	tr := mustTypeResolver(t, typeSchema)
	if got := tr.ResolveToBuiltin("doesNotExist"); got != "xs:string" {
		t.Fatalf("expected an unknown type to default to xs:string, got %s", got)
	}
}
