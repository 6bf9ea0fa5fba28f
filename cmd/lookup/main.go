// Command lookup is a thin demonstration harness for the xsd engine: given
// an XSD directory, an XML instance, and an element name, it resolves the
// element's declaration, prints its attributes and legal next children,
// and validates the attributes actually present on the first matching
// element found in the instance document.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
	xsd "github.com/chemodun/xsd-lookup"
)

func main() {
	verbose := flag.Bool("v", false, "log schema-load and cache-eviction events at debug level")
	cacheCapacity := flag.Int("cache-capacity", 0, "soft cap for each pipeline cache (0 uses the package default)")
	flag.Parse()
	args := flag.Args()
	if len(args) < 3 {
		fmt.Println("Usage: lookup [-v] [-cache-capacity N] <xsd-dir> <xml-file> <element>")
		os.Exit(1)
	}

	xsdDir := args[0]
	xmlPath := args[1]
	element := args[2]

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	engine := xsd.NewEngine(xsdDir, xsd.WithLogger(logger), xsd.WithCacheCapacity(*cacheCapacity))
	defer engine.Dispose()

	schemaName, err := engine.DetectSchemaName(xmlPath)
	if err != nil {
		log.Fatalf("Failed to detect schema name: %v", err)
	}
	if schemaName == "" {
		log.Fatalf("Could not determine a schema name for %s", xmlPath)
	}
	fmt.Printf("Schema: %s\n\n", schemaName)

	xmlFile, err := os.Open(xmlPath)
	if err != nil {
		log.Fatalf("Failed to open XML file: %v", err)
	}
	defer xmlFile.Close()

	doc, err := xmldom.Decode(xmlFile)
	if err != nil {
		log.Fatalf("Failed to parse XML: %v", err)
	}

	found := findFirst(doc.DocumentElement(), element)
	if found == nil {
		log.Fatalf("No <%s> element found in %s", element, xmlPath)
	}
	hierarchy := ancestorHierarchy(found)

	decl, err := engine.GetElementDefinition(schemaName, element, hierarchy)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if decl == nil {
		fmt.Printf("<%s> is not declared under hierarchy %v\n", element, hierarchy)
		os.Exit(1)
	}
	fmt.Printf("Resolved <%s> at %s\n\n", element, formatLocation(decl.Location()))

	descriptors, err := engine.GetElementAttributesWithTypes(schemaName, element, hierarchy)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("Attributes:")
	for _, d := range descriptors {
		fmt.Printf("  %s\n", formatAttribute(d))
	}

	children, err := engine.GetPossibleChildElements(schemaName, element, hierarchy, "")
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("\nPossible first children:")
	for _, c := range children {
		fmt.Printf("  %s\n", c.Name)
	}

	provided := attributeNames(found)
	nameCheck := xsd.ValidateAttributeNames(descriptors, provided)
	fmt.Println("\nAttribute-name check against instance document:")
	fmt.Printf("  wrong: %v\n", nameCheck.WrongAttributes)
	fmt.Printf("  missing required: %v\n", nameCheck.MissingRequiredAttributes)

	fmt.Println("\nAttribute-value validation against instance document:")
	for _, attrName := range provided {
		if isInfrastructureAttribute(attrName) {
			continue
		}
		value := found.GetAttribute(attrName)
		result, err := engine.ValidateAttributeValue(schemaName, element, attrName, string(value), hierarchy)
		if err != nil {
			fmt.Printf("  %s: %v\n", attrName, err)
			continue
		}
		fmt.Printf("  %s=%q valid=%v %s\n", attrName, value, result.IsValid, formatViolation(result))
	}
}

func findFirst(elem xmldom.Element, name string) xmldom.Element {
	if elem == nil {
		return nil
	}
	if string(elem.LocalName()) == name {
		return elem
	}
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		if found := findFirst(children.Item(i), name); found != nil {
			return found
		}
	}
	return nil
}

func ancestorHierarchy(elem xmldom.Element) []string {
	var out []string
	for parent := elem.ParentNode(); parent != nil; parent = parent.ParentNode() {
		name := string(parent.LocalName())
		if name == "" {
			break
		}
		out = append(out, name)
	}
	return out
}

func attributeNames(elem xmldom.Element) []string {
	attrs := elem.Attributes()
	out := make([]string, 0, attrs.Length())
	for i := uint(0); i < attrs.Length(); i++ {
		a := attrs.Item(i)
		if a == nil {
			continue
		}
		out = append(out, string(a.LocalName()))
	}
	return out
}

func isInfrastructureAttribute(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:") || strings.HasPrefix(name, "xsi:")
}

func formatLocation(loc xsd.Location) string {
	return fmt.Sprintf("%s:%d:%d", loc.URI, loc.Line, loc.Column)
}

func formatAttribute(d *xsd.AttributeDescriptor) string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.Required {
		b.WriteString(" (required)")
	}
	if d.HasType {
		fmt.Fprintf(&b, " type=%s", d.Type)
	}
	if len(d.EnumValues) > 0 {
		fmt.Fprintf(&b, " enum=%v", d.EnumValues)
	}
	if len(d.Patterns) > 0 {
		fmt.Fprintf(&b, " patterns=%v", d.Patterns)
	}
	return b.String()
}

func formatViolation(r *xsd.ValidationResult) string {
	if r.IsValid {
		return ""
	}
	return r.ErrorMessage
}
