package xsd

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// schemaNameAliases maps a root element's local name to its schema's file
// base name, for the cases where the two diverge in this schema family.
var schemaNameAliases = map[string]string{
	"aiscript": "aiscripts",
	"mdscript": "md",
}

var noNamespaceSchemaLocationPattern = regexp.MustCompile(`xsi:noNamespaceSchemaLocation\s*=\s*"([^"]+)"`)
var rootElementPattern = regexp.MustCompile(`<([A-Za-z_][\w.-]*)(?:[\s/>])`)

// DetectSchemaName is an external collaborator, not part of the core
// engine: given an XML instance file path, it returns the schema name an
// Engine should be queried with. It first looks for an explicit
// xsi:noNamespaceSchemaLocation hint; failing that, it maps the root
// element's name, special-casing the two names this schema family renames.
func DetectSchemaName(xmlPath string) (string, error) {
	return detectSchemaName(xmlPath, schemaNameAliases)
}

func detectSchemaName(xmlPath string, aliases map[string]string) (string, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return "", err
	}

	if m := noNamespaceSchemaLocationPattern.FindSubmatch(data); m != nil {
		base := filepath.Base(string(m[1]))
		return strings.TrimSuffix(base, ".xsd"), nil
	}

	if m := rootElementPattern.FindSubmatch(data); m != nil {
		root := string(m[1])
		if alias, ok := aliases[root]; ok {
			return alias, nil
		}
		return strings.ToLower(root), nil
	}

	return "", nil
}
