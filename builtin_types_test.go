package xsd

import "testing"

func TestGetBuiltinTypeStripsPrefix(t *testing.T) {
	if GetBuiltinType("xs:string") == nil {
		t.Fatal("expected xs:string to resolve")
	}
	if GetBuiltinType("xsd:boolean") == nil {
		t.Fatal("expected xsd:boolean to resolve")
	}
	if GetBuiltinType("string") == nil {
		t.Fatal("expected bare 'string' to resolve")
	}
}

func TestIsBuiltinTypeRejectsUnknownNames(t *testing.T) {
	if IsBuiltinType("xs:notAType") {
		t.Fatal("expected an unregistered type name to report false")
	}
}

func TestValidateBooleanAcceptsCanonicalAndNumericForms(t *testing.T) {
	bt := GetBuiltinType("boolean")
	for _, v := range []string{"true", "false", "1", "0", "TRUE"} {
		if err := bt.Validator(v); err != nil {
			t.Fatalf("expected %q to be a valid boolean, got %v", v, err)
		}
	}
	if err := bt.Validator("yes"); err == nil {
		t.Fatal("expected 'yes' to be rejected as a boolean")
	}
}

func TestValidateIntegerShapeRejectsDecimalPoint(t *testing.T) {
	bt := GetBuiltinType("int")
	if err := bt.Validator("42"); err != nil {
		t.Fatalf("expected 42 to be a valid int, got %v", err)
	}
	if err := bt.Validator("-7"); err != nil {
		t.Fatalf("expected -7 to be a valid int, got %v", err)
	}
	if err := bt.Validator("4.2"); err == nil {
		t.Fatal("expected 4.2 to be rejected as an int")
	}
}

func TestValidateNumericShapeAcceptsScientificNotationAndSpecials(t *testing.T) {
	bt := GetBuiltinType("double")
	for _, v := range []string{"3.14", "-2.5e10", "INF", "-INF", "NaN"} {
		if err := bt.Validator(v); err != nil {
			t.Fatalf("expected %q to be a valid double, got %v", v, err)
		}
	}
	if err := bt.Validator("not-a-number"); err == nil {
		t.Fatal("expected a non-numeric string to be rejected as a double")
	}
}

func TestValidateDateShape(t *testing.T) {
	bt := GetBuiltinType("date")
	if err := bt.Validator("2026-08-01"); err != nil {
		t.Fatalf("expected a well-formed date to pass, got %v", err)
	}
	if err := bt.Validator("08/01/2026"); err == nil {
		t.Fatal("expected a non-ISO date to be rejected")
	}
}
