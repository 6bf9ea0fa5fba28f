package xsd

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// ValidationResult is the instance-validator's result shape: short-circuit
// on first acceptable enum/pattern match, union-friendly.
type ValidationResult struct {
	IsValid         bool
	RawValue        string
	NormalizedValue string
	ExpectedType    string
	AllowedValues   []string
	Restrictions    []string
	ErrorMessage    string
}

// RuleValidationResult is the static-helper result shape: every failing
// facet is accumulated rather than short-circuited, with enumeration
// violations suppressed when a pattern matched.
type RuleValidationResult struct {
	IsValid       bool
	ErrorMessage  string
	ViolatedRules []string
}

// AttributeNameValidation is the result of checking a supplied attribute
// name set against a descriptor list.
type AttributeNameValidation struct {
	WrongAttributes           []string
	MissingRequiredAttributes []string
}

// AttributeValueOption pairs an enumerated attribute value with its
// annotation, in declaration order.
type AttributeValueOption struct {
	Value      string
	Annotation string
}

// ValueValidator checks a candidate attribute value against an
// AttributeDescriptor's facets, resolving built-in shape checks through a
// TypeResolver.
type ValueValidator struct {
	resolver *TypeResolver
}

// NewValueValidator returns a validator backed by resolver.
func NewValueValidator(resolver *TypeResolver) *ValueValidator {
	return &ValueValidator{resolver: resolver}
}

func (vv *ValueValidator) resolvedBuiltin(desc *AttributeDescriptor) string {
	if !desc.HasType {
		return "xs:string"
	}
	return vv.resolver.ResolveToBuiltin(desc.Type)
}

// Validate runs the validation order against desc, accepting as soon
// as an enum or pattern matches.
func (vv *ValueValidator) Validate(raw string, desc *AttributeDescriptor) *ValidationResult {
	normalized := normalizeValue(raw)
	result := &ValidationResult{RawValue: raw, NormalizedValue: normalized, IsValid: true}

	hasEnum := len(desc.EnumValues) > 0
	hasPattern := len(desc.Patterns) > 0

	if hasEnum {
		for _, v := range desc.EnumValues {
			if v == normalized {
				return result
			}
		}
	}

	if hasPattern {
		for _, p := range desc.Patterns {
			re, err := regexp.Compile(anchorPattern(p))
			if err != nil {
				slog.Warn("pattern unusable, skipped", "pattern", p, "error", err)
				result.Restrictions = append(result.Restrictions, fmt.Sprintf("pattern %q is unusable and was skipped", p))
				continue
			}
			if re.MatchString(normalized) {
				return result
			}
		}
	}

	switch {
	case hasEnum && hasPattern:
		result.IsValid = false
		result.AllowedValues = desc.EnumValues
		result.Restrictions = append(result.Restrictions, desc.Patterns...)
		result.ErrorMessage = fmt.Sprintf("value %q is not allowed: matches none of the enumerated values or patterns", normalized)
		return result
	case hasEnum:
		result.IsValid = false
		result.AllowedValues = desc.EnumValues
		result.ErrorMessage = fmt.Sprintf("value %q is not allowed: expected one of %s", normalized, strings.Join(desc.EnumValues, ", "))
		return result
	case hasPattern:
		result.IsValid = false
		result.Restrictions = append(result.Restrictions, desc.Patterns...)
		result.ErrorMessage = fmt.Sprintf("value %q does not match any allowed pattern", normalized)
		return result
	}

	if desc.MinLength != nil && len(normalized) < *desc.MinLength {
		result.IsValid = false
		result.ErrorMessage = fmt.Sprintf("value %q is shorter than minLength %d", normalized, *desc.MinLength)
		return result
	}
	if desc.MaxLength != nil && len(normalized) > *desc.MaxLength {
		result.IsValid = false
		result.ErrorMessage = fmt.Sprintf("value %q is longer than maxLength %d", normalized, *desc.MaxLength)
		return result
	}

	builtin := vv.resolvedBuiltin(desc)
	result.ExpectedType = builtin
	if bt := GetBuiltinType(builtin); bt != nil {
		if err := bt.Validator(normalized); err != nil {
			result.IsValid = false
			result.ErrorMessage = err.Error()
			return result
		}
	}

	if isNumericBuiltin(builtin) || isIntegerBuiltin(builtin) {
		if n, err := strconv.ParseFloat(normalized, 64); err == nil {
			if msg, ok := rangeViolation(n, desc); ok {
				result.IsValid = false
				result.ErrorMessage = msg
				return result
			}
		}
	}

	return result
}

func rangeViolation(n float64, desc *AttributeDescriptor) (string, bool) {
	if desc.MinInclusive != nil && n < *desc.MinInclusive {
		return fmt.Sprintf("value %v is below minInclusive %v", n, *desc.MinInclusive), true
	}
	if desc.MaxInclusive != nil && n > *desc.MaxInclusive {
		return fmt.Sprintf("value %v is above maxInclusive %v", n, *desc.MaxInclusive), true
	}
	if desc.MinExclusive != nil && n <= *desc.MinExclusive {
		return fmt.Sprintf("value %v is not above minExclusive %v", n, *desc.MinExclusive), true
	}
	if desc.MaxExclusive != nil && n >= *desc.MaxExclusive {
		return fmt.Sprintf("value %v is not below maxExclusive %v", n, *desc.MaxExclusive), true
	}
	return "", false
}

func findDescriptor(descriptors []*AttributeDescriptor, name string) *AttributeDescriptor {
	for _, d := range descriptors {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ValidateAgainstRules is the static-helper form: it accumulates every
// failing facet into ViolatedRules, suppressing an enumeration violation
// when a pattern matched.
func (vv *ValueValidator) ValidateAgainstRules(descriptors []*AttributeDescriptor, name, value string) *RuleValidationResult {
	desc := findDescriptor(descriptors, name)
	if desc == nil {
		return &RuleValidationResult{IsValid: false, ErrorMessage: fmt.Sprintf("attribute %q is not declared", name)}
	}
	normalized := normalizeValue(value)
	var violated []string

	patternMatched := false
	if len(desc.Patterns) > 0 {
		for _, p := range desc.Patterns {
			re, err := regexp.Compile(anchorPattern(p))
			if err != nil {
				slog.Warn("pattern unusable, skipped", "pattern", p, "error", err)
				continue
			}
			if re.MatchString(normalized) {
				patternMatched = true
				break
			}
		}
		if !patternMatched {
			violated = append(violated, "pattern")
		}
	}

	if len(desc.EnumValues) > 0 && !patternMatched {
		matched := false
		for _, v := range desc.EnumValues {
			if v == normalized {
				matched = true
				break
			}
		}
		if !matched {
			violated = append(violated, "enumeration")
		}
	}

	if desc.MinLength != nil && len(normalized) < *desc.MinLength {
		violated = append(violated, "minLength")
	}
	if desc.MaxLength != nil && len(normalized) > *desc.MaxLength {
		violated = append(violated, "maxLength")
	}

	builtin := vv.resolvedBuiltin(desc)
	if isNumericBuiltin(builtin) || isIntegerBuiltin(builtin) {
		if n, err := strconv.ParseFloat(normalized, 64); err == nil {
			if desc.MinInclusive != nil && n < *desc.MinInclusive {
				violated = append(violated, "minInclusive")
			}
			if desc.MaxInclusive != nil && n > *desc.MaxInclusive {
				violated = append(violated, "maxInclusive")
			}
			if desc.MinExclusive != nil && n <= *desc.MinExclusive {
				violated = append(violated, "minExclusive")
			}
			if desc.MaxExclusive != nil && n >= *desc.MaxExclusive {
				violated = append(violated, "maxExclusive")
			}
		}
	}

	if len(violated) == 0 {
		return &RuleValidationResult{IsValid: true}
	}
	return &RuleValidationResult{
		IsValid:       false,
		ErrorMessage:  fmt.Sprintf("value %q violates: %s", normalized, strings.Join(violated, ", ")),
		ViolatedRules: violated,
	}
}

func isInfrastructureAttribute(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:") || strings.HasPrefix(name, "xsi:")
}

// ValidateAttributeNames filters infrastructure names (xmlns, xmlns:*,
// xsi:*) out of providedNames, then reports names the schema doesn't
// declare and required names that weren't supplied.
func ValidateAttributeNames(descriptors []*AttributeDescriptor, providedNames []string) *AttributeNameValidation {
	schemaNames := map[string]bool{}
	for _, d := range descriptors {
		schemaNames[d.Name] = true
	}

	provided := map[string]bool{}
	var wrong []string
	for _, n := range providedNames {
		if isInfrastructureAttribute(n) {
			continue
		}
		provided[n] = true
		if !schemaNames[n] {
			wrong = append(wrong, n)
		}
	}

	var missing []string
	for _, d := range descriptors {
		if d.Required && !provided[d.Name] {
			missing = append(missing, d.Name)
		}
	}

	return &AttributeNameValidation{WrongAttributes: wrong, MissingRequiredAttributes: missing}
}

// FilterAttributesByType returns the names of descriptors whose resolved
// type name equals typeName.
func FilterAttributesByType(descriptors []*AttributeDescriptor, typeName string) []string {
	var out []string
	for _, d := range descriptors {
		if d.HasType && d.Type == typeName {
			out = append(out, d.Name)
		}
	}
	return out
}

// FilterAttributesByRestriction returns the names of descriptors carrying
// the given restriction kind: "enumeration", "pattern", "length", or
// "range".
func FilterAttributesByRestriction(descriptors []*AttributeDescriptor, kind string) []string {
	var out []string
	for _, d := range descriptors {
		match := false
		switch kind {
		case "enumeration":
			match = len(d.EnumValues) > 0
		case "pattern":
			match = len(d.Patterns) > 0
		case "length":
			match = d.MinLength != nil || d.MaxLength != nil
		case "range":
			match = d.MinInclusive != nil || d.MaxInclusive != nil || d.MinExclusive != nil || d.MaxExclusive != nil
		}
		if match {
			out = append(out, d.Name)
		}
	}
	return out
}

// GetAttributePossibleValues returns name's enumerated values in
// declaration order, each paired with its annotation.
func GetAttributePossibleValues(descriptors []*AttributeDescriptor, name string) []*AttributeValueOption {
	desc := findDescriptor(descriptors, name)
	if desc == nil {
		return nil
	}
	out := make([]*AttributeValueOption, 0, len(desc.EnumValues))
	for _, v := range desc.EnumValues {
		out = append(out, &AttributeValueOption{Value: v, Annotation: desc.EnumAnnotations[v]})
	}
	return out
}

// ExtractAnnotationText returns node's xs:annotation/xs:documentation
// text, and whether it had any.
func ExtractAnnotationText(node *SchemaNode) (string, bool) {
	text := annotationText(node)
	if text == "" {
		return "", false
	}
	return text, true
}
