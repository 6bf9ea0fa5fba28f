package xsd

import "testing"

func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestValidateEnumerationRejectsUnlistedValue(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	desc := &AttributeDescriptor{Name: "mood", EnumValues: []string{"happy", "sad"}}

	result := vv.Validate("angry", desc)
	if result.IsValid {
		t.Fatal("expected an unlisted enumeration value to be rejected")
	}
	if len(result.AllowedValues) != 2 {
		t.Fatalf("expected AllowedValues to carry the enumeration, got %v", result.AllowedValues)
	}
}

func TestValidateEnumerationAcceptsListedValue(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	desc := &AttributeDescriptor{Name: "mood", EnumValues: []string{"happy", "sad"}}

	result := vv.Validate("happy", desc)
	if !result.IsValid {
		t.Fatalf("expected a listed enumeration value to be accepted, got error %q", result.ErrorMessage)
	}
}

func TestValidatePatternIsAnchoredBothEnds(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	desc := &AttributeDescriptor{Name: "id", Patterns: []string{"[a-z]+_[0-9]+"}}

	if result := vv.Validate("prefix_unit_1", desc); result.IsValid {
		t.Fatalf("expected a partial match within a longer string to be rejected by anchoring, got valid result")
	}
	if result := vv.Validate("unit_1", desc); !result.IsValid {
		t.Fatalf("expected a full match to be accepted, got error %q", result.ErrorMessage)
	}
}

func TestValidateCombinedEnumAndPatternFailureReportsBoth(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	desc := &AttributeDescriptor{
		Name:       "code",
		EnumValues: []string{"alpha", "beta"},
		Patterns:   []string{"g.*"},
	}

	result := vv.Validate("zzz", desc)
	if result.IsValid {
		t.Fatal("expected a value matching neither enum nor pattern to be rejected")
	}
	if len(result.AllowedValues) != 2 || len(result.Restrictions) != 1 {
		t.Fatalf("expected both the enumeration and the pattern to be reported, got allowed=%v restrictions=%v", result.AllowedValues, result.Restrictions)
	}
}

func TestValidateEnumMatchShortCircuitsBeforePattern(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	desc := &AttributeDescriptor{
		Name:       "code",
		EnumValues: []string{"alpha"},
		Patterns:   []string{"zzz"},
	}
	result := vv.Validate("alpha", desc)
	if !result.IsValid {
		t.Fatalf("expected the enumeration match to accept the value even though it fails the pattern, got %q", result.ErrorMessage)
	}
}

func TestValidateLengthBounds(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	desc := &AttributeDescriptor{Name: "tag", MinLength: intPtr(3), MaxLength: intPtr(5)}

	if result := vv.Validate("ab", desc); result.IsValid {
		t.Fatal("expected a too-short value to be rejected")
	}
	if result := vv.Validate("abcdef", desc); result.IsValid {
		t.Fatal("expected a too-long value to be rejected")
	}
	if result := vv.Validate("abcd", desc); !result.IsValid {
		t.Fatalf("expected a value within bounds to be accepted, got %q", result.ErrorMessage)
	}
}

func TestValidateNumericRangeInclusiveExclusive(t *testing.T) {
	idx := &SchemaIndex{NamedTypes: map[string]*SchemaNode{
		"smallFloat": {
			Name: "simpleType",
			Children: []*SchemaNode{
				{Name: "restriction", Attrs: map[string]string{"base": "xs:float"}},
			},
		},
	}}
	vv := NewValueValidator(NewTypeResolver(idx))
	desc := &AttributeDescriptor{
		Name: "amount", Type: "smallFloat", HasType: true,
		MinInclusive: floatPtr(0), MaxExclusive: floatPtr(10),
	}

	if result := vv.Validate("-1", desc); result.IsValid {
		t.Fatal("expected a value below MinInclusive to be rejected")
	}
	if result := vv.Validate("10", desc); result.IsValid {
		t.Fatal("expected a value at MaxExclusive to be rejected")
	}
	if result := vv.Validate("5", desc); !result.IsValid {
		t.Fatalf("expected a value within range to be accepted, got %q", result.ErrorMessage)
	}
}

func TestValidateBuiltinShapeRejectsNonInteger(t *testing.T) {
	idx := &SchemaIndex{NamedTypes: map[string]*SchemaNode{
		"smallInt": {
			Name: "simpleType",
			Children: []*SchemaNode{
				{Name: "restriction", Attrs: map[string]string{"base": "xs:int"}},
			},
		},
	}}
	vv := NewValueValidator(NewTypeResolver(idx))
	desc := &AttributeDescriptor{Name: "amount", Type: "smallInt", HasType: true}

	result := vv.Validate("not-a-number", desc)
	if result.IsValid {
		t.Fatal("expected a non-integer value to fail the built-in shape check")
	}
}

func TestValidateAgainstRulesSuppressesEnumWhenPatternMatches(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	descs := []*AttributeDescriptor{
		{Name: "code", EnumValues: []string{"alpha"}, Patterns: []string{"g.*"}},
	}

	result := vv.ValidateAgainstRules(descs, "code", "gamma")
	if !result.IsValid {
		t.Fatalf("expected the pattern match to suppress the enumeration violation, got %v", result.ViolatedRules)
	}
}

func TestValidateAgainstRulesReportsEnumWhenPatternAlsoFails(t *testing.T) {
	vv := NewValueValidator(NewTypeResolver(&SchemaIndex{NamedTypes: map[string]*SchemaNode{}}))
	descs := []*AttributeDescriptor{
		{Name: "code", EnumValues: []string{"alpha"}, Patterns: []string{"g.*"}},
	}

	result := vv.ValidateAgainstRules(descs, "code", "zzz")
	if result.IsValid {
		t.Fatal("expected a value failing both pattern and enumeration to be invalid")
	}
	foundPattern, foundEnum := false, false
	for _, r := range result.ViolatedRules {
		if r == "pattern" {
			foundPattern = true
		}
		if r == "enumeration" {
			foundEnum = true
		}
	}
	if !foundPattern || !foundEnum {
		t.Fatalf("expected both pattern and enumeration to be reported, got %v", result.ViolatedRules)
	}
}

func TestValidateAttributeNamesReportsWrongAndMissing(t *testing.T) {
	descs := []*AttributeDescriptor{
		{Name: "id", Required: true},
		{Name: "comment", Required: false},
	}
	result := ValidateAttributeNames(descs, []string{"comment", "bogus", "xmlns:foo", "xsi:type"})

	if len(result.WrongAttributes) != 1 || result.WrongAttributes[0] != "bogus" {
		t.Fatalf("expected only 'bogus' to be wrong, got %v", result.WrongAttributes)
	}
	if len(result.MissingRequiredAttributes) != 1 || result.MissingRequiredAttributes[0] != "id" {
		t.Fatalf("expected 'id' to be reported missing, got %v", result.MissingRequiredAttributes)
	}
}

func TestGetAttributePossibleValuesPreservesOrderAndAnnotations(t *testing.T) {
	descs := []*AttributeDescriptor{
		{
			Name:            "mood",
			EnumValues:      []string{"happy", "sad"},
			EnumAnnotations: map[string]string{"happy": "a positive state"},
		},
	}
	opts := GetAttributePossibleValues(descs, "mood")
	if len(opts) != 2 || opts[0].Value != "happy" || opts[1].Value != "sad" {
		t.Fatalf("expected [happy, sad] in order, got %v", opts)
	}
	if opts[0].Annotation != "a positive state" {
		t.Fatalf("expected happy's annotation to carry through, got %q", opts[0].Annotation)
	}
	if opts[1].Annotation != "" {
		t.Fatalf("expected sad to have no annotation, got %q", opts[1].Annotation)
	}
}
