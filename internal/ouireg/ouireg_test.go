package ouireg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyicz123/wifisim/internal/config"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	return p
}

func TestLoadIEEEForm(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "oui.txt", "00-17-F2   (hex)		Apple Inc.\nAC-DE-48   (hex)		Private\n")

	reg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	oui, vendor, ok := reg.Lookup("apple inc.")
	if !ok {
		t.Fatal("expected exact lookup to succeed")
	}
	if vendor != "Apple Inc." || oui != [3]byte{0x00, 0x17, 0xF2} {
		t.Fatalf("unexpected entry: %v %v", oui, vendor)
	}
}

func TestLoadTabForm(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "oui_hex.txt", "00-17-f2\tApple\nf4-f5-d8\tGoogle\n")

	reg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", reg.Len())
	}
}

func TestLookupPrefixFirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "oui_hex.txt", "00-11-22\tSamsung Electronics\n33-44-55\tSamsung Display\n")

	reg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	oui, vendor, ok := reg.LookupPrefix("samsung")
	if !ok || vendor != "Samsung Electronics" || oui != [3]byte{0x00, 0x11, 0x22} {
		t.Fatalf("expected first Samsung entry, got %v %v %v", oui, vendor, ok)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/oui.txt")
	if !config.IsKind(err, config.MissingResource) {
		t.Fatalf("expected MissingResource, got %v", err)
	}
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "empty.txt", "\n# just a comment\n")
	_, err := Load(p)
	if !config.IsKind(err, config.InvalidConfig) {
		t.Fatalf("expected InvalidConfig for empty database, got %v", err)
	}
}
