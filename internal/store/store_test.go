package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/iti/rngstream"
)

func writeStoreFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	hardware := "" +
		"# vendor,model,burst_lengths,mac_policy,vht,ext_cap,ht_cap,rates,ext_rates\n" +
		"Apple,iPhone12,2:0.5/3:0.5,2,,,,0c1218,30\n" +
		"Samsung,GalaxyS9,1:1.0,1,,,,0c,\n"
	hwPath := filepath.Join(dir, "hardware.txt")
	if err := os.WriteFile(hwPath, []byte(hardware), 0o644); err != nil {
		t.Fatalf("write hardware: %v", err)
	}

	behavior := "" +
		"iPhone12,0,1.0:1.0,5.0:1.0,30.0:1.0,0.01:1.0\n" +
		"iPhone12,1,1.0:1.0,5.0:1.0,30.0:1.0,0.01:1.0\n" +
		"iPhone12,2,1.0:1.0,2.0:1.0,30.0:1.0,0.01:1.0\n" +
		"GalaxyS9,0,1.0:1.0,5.0:1.0,30.0:1.0,0.01:1.0\n" +
		"GalaxyS9,1,1.0:1.0,5.0:1.0,30.0:1.0,0.01:1.0\n" +
		"GalaxyS9,2,1.0:1.0,2.0:1.0,30.0:1.0,0.01:1.0\n"
	bhPath := filepath.Join(dir, "behavior.txt")
	if err := os.WriteFile(bhPath, []byte(behavior), 0o644); err != nil {
		t.Fatalf("write behavior: %v", err)
	}

	return hwPath, bhPath
}

func TestLoadAndLookup(t *testing.T) {
	hw, bh := writeStoreFiles(t)
	s, err := Load(hw, bh)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	hp, ok := s.Hardware("iPhone12")
	if !ok {
		t.Fatal("expected iPhone12 to load")
	}
	if hp.MACPolicy != PreserveOUI {
		t.Fatalf("expected PreserveOUI policy, got %v", hp.MACPolicy)
	}
	if hp.VHTCap != nil {
		t.Fatalf("expected nil VHT cap, got %v", hp.VHTCap)
	}
	if len(hp.Rates) != 3 {
		t.Fatalf("expected 3 decoded rate bytes, got %d", len(hp.Rates))
	}

	bp, ok := s.Behavior("iPhone12", Active)
	if !ok {
		t.Fatal("expected Active behavior row")
	}
	if bp.Inter.Mean() != 2.0 {
		t.Fatalf("expected inter-burst mean 2.0, got %v", bp.Inter.Mean())
	}
}

func TestLoadMissingPhaseIsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	hwPath := filepath.Join(dir, "hardware.txt")
	os.WriteFile(hwPath, []byte("Acme,Widget,1:1.0,0,,,,0c,\n"), 0o644)
	bhPath := filepath.Join(dir, "behavior.txt")
	os.WriteFile(bhPath, []byte("Widget,0,1:1.0,1:1.0,1:1.0,1:1.0\n"), 0o644)

	_, err := Load(hwPath, bhPath)
	if !config.IsKind(err, config.InvalidConfig) {
		t.Fatalf("expected InvalidConfig for missing phases, got %v", err)
	}
}

func TestRandomDeviceAndPickByVendor(t *testing.T) {
	hw, bh := writeStoreFiles(t)
	s, err := Load(hw, bh)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rng := rngstream.New("test-store")

	for i := 0; i < 20; i++ {
		hp := s.RandomDevice(rng)
		if hp == nil {
			t.Fatal("RandomDevice returned nil")
		}
	}

	hp := s.PickByVendor(rng, "apple", "")
	if hp.Vendor != "Apple" {
		t.Fatalf("expected an Apple model, got %v", hp.Vendor)
	}

	hp = s.PickByVendor(rng, "nonexistent vendor", "")
	if hp == nil {
		t.Fatal("expected fallback to a random model")
	}
}
