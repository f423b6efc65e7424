package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyicz123/wifisim/internal/capture"
	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/ouireg"
	"github.com/cyicz123/wifisim/internal/store"
)

func writeFixtures(t *testing.T) (hardwarePath, behaviorPath, ouiPath string) {
	dir := t.TempDir()

	hardwarePath = filepath.Join(dir, "hardware.csv")
	hardware := "Apple,iPhone12,3:1.0,2,?,0000,0102,02040b16,0c121824\n"
	if err := os.WriteFile(hardwarePath, []byte(hardware), 0o644); err != nil {
		t.Fatal(err)
	}

	behaviorPath = filepath.Join(dir, "behavior.csv")
	behavior := "" +
		"iPhone12,0,0.02:1.0,5.0:1.0,30.0:1.0,0.001:1.0\n" +
		"iPhone12,1,0.02:1.0,2.0:1.0,20.0:1.0,0.001:1.0\n" +
		"iPhone12,2,0.02:1.0,1.0:1.0,10.0:1.0,0.001:1.0\n"
	if err := os.WriteFile(behaviorPath, []byte(behavior), 0o644); err != nil {
		t.Fatal(err)
	}

	ouiPath = filepath.Join(dir, "oui.txt")
	oui := "0017F2\tApple, Inc.\n"
	if err := os.WriteFile(ouiPath, []byte(oui), 0o644); err != nil {
		t.Fatal(err)
	}
	return
}

func TestRunSingleStaticProducesFramesAndStats(t *testing.T) {
	hardwarePath, behaviorPath, ouiPath := writeFixtures(t)

	st, err := store.Load(hardwarePath, behaviorPath)
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	reg, err := ouireg.Load(ouiPath)
	if err != nil {
		t.Fatalf("ouireg.Load: %v", err)
	}

	outDir := t.TempDir()
	prefix := filepath.Join(outDir, "run")

	scenario := config.Default()
	scenario.DatasetType = config.DatasetSingleActive
	scenario.SingleVendor = "Apple"
	scenario.SingleModel = "iPhone12"
	scenario.DurationSeconds = 20
	scenario.Seed = "engine-test-seed"
	scenario.OutputPrefix = prefix

	writer, err := capture.New(prefix)
	if err != nil {
		t.Fatalf("capture.New: %v", err)
	}

	eng := New(scenario, st, reg, writer)
	stats, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if stats.DeviceCount != 1 {
		t.Fatalf("expected 1 device, got %d", stats.DeviceCount)
	}
	if stats.FrameCount == 0 {
		t.Fatal("expected at least one frame to be emitted over 20 simulated seconds")
	}

	for _, path := range []string{prefix + ".pcap", prefix + ".log", prefix + "_probeids.txt", prefix + "_devices.csv", prefix + "_stats.json"} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected output file %s to exist: %v", path, err)
		}
	}
}

func TestRunMultiDeviceCreatesMultipleDevices(t *testing.T) {
	hardwarePath, behaviorPath, ouiPath := writeFixtures(t)

	st, err := store.Load(hardwarePath, behaviorPath)
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	reg, err := ouireg.Load(ouiPath)
	if err != nil {
		t.Fatalf("ouireg.Load: %v", err)
	}

	outDir := t.TempDir()
	prefix := filepath.Join(outDir, "multi")

	scenario := config.Default()
	scenario.DatasetType = config.DatasetMulti
	scenario.CreationCount = 5
	scenario.CreationIntervalMean = 1.0
	scenario.PermanenceMean = 30.0
	scenario.DurationSeconds = 60
	scenario.Seed = "engine-multi-seed"
	scenario.OutputPrefix = prefix

	writer, err := capture.New(prefix)
	if err != nil {
		t.Fatalf("capture.New: %v", err)
	}

	eng := New(scenario, st, reg, writer)
	stats, err := eng.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	_ = writer.Close()

	if stats.DeviceCount != 5 {
		t.Fatalf("expected 5 devices created, got %d", stats.DeviceCount)
	}
}

// TestRunIsDeterministicForSameSeed re-runs the same multi-device
// scenario twice from independently constructed Engines and checks that
// every output file byte-for-byte matches, per §8's "two runs with
// identical scenario parameters and identical RNG seed produce
// byte-identical capture files." With several live devices at once, this
// also guards against reintroducing map-iteration-order dependent draws
// from the shared RNG stream.
func TestRunIsDeterministicForSameSeed(t *testing.T) {
	hardwarePath, behaviorPath, ouiPath := writeFixtures(t)

	runOnce := func(prefix string) string {
		st, err := store.Load(hardwarePath, behaviorPath)
		if err != nil {
			t.Fatalf("store.Load: %v", err)
		}
		reg, err := ouireg.Load(ouiPath)
		if err != nil {
			t.Fatalf("ouireg.Load: %v", err)
		}

		scenario := config.Default()
		scenario.DatasetType = config.DatasetMulti
		scenario.CreationCount = 6
		scenario.CreationIntervalMean = 1.0
		scenario.PermanenceMean = 30.0
		scenario.DurationSeconds = 45
		scenario.Seed = "engine-determinism-seed"
		scenario.OutputPrefix = prefix

		writer, err := capture.New(prefix)
		if err != nil {
			t.Fatalf("capture.New: %v", err)
		}
		eng := New(scenario, st, reg, writer)
		if _, err := eng.Run(); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		return prefix
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	prefixA := runOnce(filepath.Join(dirA, "det"))
	prefixB := runOnce(filepath.Join(dirB, "det"))

	for _, suffix := range []string{".pcap", ".log", "_probeids.txt", "_devices.csv"} {
		a, err := os.ReadFile(prefixA + suffix)
		if err != nil {
			t.Fatalf("read %s: %v", suffix, err)
		}
		b, err := os.ReadFile(prefixB + suffix)
		if err != nil {
			t.Fatalf("read %s: %v", suffix, err)
		}
		if string(a) != string(b) {
			t.Fatalf("output %s differs between two same-seed runs", suffix)
		}
	}
}
