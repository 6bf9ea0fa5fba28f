package xsd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempXML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "instance.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp xml: %v", err)
	}
	return path
}

func TestDetectSchemaNamePrefersSchemaLocationHint(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?>
<aiscript xsi:noNamespaceSchemaLocation="aiscripts.xsd" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
</aiscript>`)

	name, err := DetectSchemaName(path)
	if err != nil {
		t.Fatalf("DetectSchemaName: %v", err)
	}
	if name != "aiscripts" {
		t.Fatalf("expected 'aiscripts' from the schemaLocation hint, got %q", name)
	}
}

func TestDetectSchemaNameFallsBackToRootElementAlias(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?>
<aiscript>
</aiscript>`)

	name, err := DetectSchemaName(path)
	if err != nil {
		t.Fatalf("DetectSchemaName: %v", err)
	}
	if name != "aiscripts" {
		t.Fatalf("expected the aiscript->aiscripts alias, got %q", name)
	}
}

func TestDetectSchemaNameLowercasesUnaliasedRoot(t *testing.T) {
	path := writeTempXML(t, `<?xml version="1.0"?>
<Director>
</Director>`)

	name, err := DetectSchemaName(path)
	if err != nil {
		t.Fatalf("DetectSchemaName: %v", err)
	}
	if name != "director" {
		t.Fatalf("expected lowercased root element name, got %q", name)
	}
}

func TestDetectSchemaNameMissingFileErrors(t *testing.T) {
	_, err := DetectSchemaName(filepath.Join(t.TempDir(), "missing.xml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
