package xsd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BuiltinType is one of the xs: built-ins this package understands: a
// name and a shape-only validator. Unlike a full XML Schema processor,
// these validators check lexical shape, not arbitrary-precision range —
// the restriction bundle's own numeric facets carry the actual range
// semantics.
type BuiltinType struct {
	Name      string
	Validator func(value string) error
}

var integerBuiltinNames = map[string]bool{
	"int": true, "integer": true, "long": true, "short": true, "byte": true,
	"positiveInteger": true, "negativeInteger": true,
	"nonPositiveInteger": true, "nonNegativeInteger": true,
	"unsignedInt": true, "unsignedLong": true, "unsignedShort": true, "unsignedByte": true,
}

var numericBuiltinNames = map[string]bool{
	"float": true, "double": true, "decimal": true,
}

var builtinTypes = map[string]*BuiltinType{}

func init() {
	registerBuiltinTypes()
}

func registerBuiltinTypes() {
	builtinTypes["string"] = &BuiltinType{"string", validateString}
	builtinTypes["boolean"] = &BuiltinType{"boolean", validateBoolean}
	builtinTypes["date"] = &BuiltinType{"date", validateDate}
	builtinTypes["time"] = &BuiltinType{"time", validateTime}
	for name := range integerBuiltinNames {
		builtinTypes[name] = &BuiltinType{name, validateIntegerShape}
	}
	for name := range numericBuiltinNames {
		builtinTypes[name] = &BuiltinType{name, validateNumericShape}
	}
}

// GetBuiltinType returns a built-in type validator, stripping an xs:/xsd:
// prefix if present.
func GetBuiltinType(name string) *BuiltinType {
	return builtinTypes[localName(name)]
}

// IsBuiltinType reports whether name (with or without an xs:/xsd: prefix)
// names a built-in this package registers validators for.
func IsBuiltinType(name string) bool {
	return GetBuiltinType(name) != nil
}

// isNumericBuiltin reports whether a resolved built-in name (as returned
// by TypeResolver.ResolveToBuiltin, e.g. "xs:float") is one of the numeric
// built-ins.
func isNumericBuiltin(resolved string) bool {
	return numericBuiltinNames[localName(resolved)]
}

// isIntegerBuiltin reports whether a resolved built-in name is one of the
// integer-family built-ins.
func isIntegerBuiltin(resolved string) bool {
	return integerBuiltinNames[localName(resolved)]
}

var integerShapePattern = regexp.MustCompile(`^-?\d+$`)
var numericShapePattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
var datePattern = regexp.MustCompile(`^-?\d{4,}-\d{2}-\d{2}$`)
var timePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

func validateString(value string) error {
	return nil
}

func validateBoolean(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "false", "1", "0":
		return nil
	default:
		return fmt.Errorf("invalid boolean value: %s", value)
	}
}

// validateIntegerShape checks the basic lexical shape of every integer
// built-in (int, long, unsignedByte, ...): an optional leading '-' and one
// or more digits. Range constraints on a specific built-in are left to the
// restriction bundle's numeric facets.
func validateIntegerShape(value string) error {
	if !integerShapePattern.MatchString(value) {
		return fmt.Errorf("invalid integer value: %s", value)
	}
	return nil
}

// validateNumericShape checks the basic lexical shape of float/double/
// decimal: a plain or scientific-notation numeric literal, the special
// values INF, +INF, -INF and NaN, or anything else strconv.ParseFloat
// accepts.
func validateNumericShape(value string) error {
	switch value {
	case "INF", "+INF", "-INF", "NaN":
		return nil
	}
	if !numericShapePattern.MatchString(value) {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid numeric value: %s", value)
		}
	}
	return nil
}

func validateDate(value string) error {
	if !datePattern.MatchString(value) {
		return fmt.Errorf("invalid date value: %s", value)
	}
	return nil
}

func validateTime(value string) error {
	if !timePattern.MatchString(value) {
		return fmt.Errorf("invalid time value: %s", value)
	}
	return nil
}
