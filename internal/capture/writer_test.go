package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFrameProducesAllOutputs(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "run")

	w, err := New(prefix)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mac := [6]byte{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
	frameBytes := make([]byte, 40)
	if err := w.WriteFrame(1.5, 7, mac, 6, -55.0, frameBytes); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if w.FrameCount() != 1 {
		t.Fatalf("expected frame count 1, got %d", w.FrameCount())
	}

	if err := w.WriteDeviceCSV(prefix, map[int]string{7: "Apple iPhone12"}); err != nil {
		t.Fatalf("WriteDeviceCSV: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	logRaw, err := os.ReadFile(prefix + ".log")
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logRaw), "02:11:22:33:44:55") {
		t.Fatalf("expected log to contain the MAC, got %q", string(logRaw))
	}

	probeRaw, err := os.ReadFile(prefix + "_probeids.txt")
	if err != nil {
		t.Fatalf("read probeids: %v", err)
	}
	if !strings.Contains(string(probeRaw), "7\t02:11:22:33:44:55") {
		t.Fatalf("expected probe-id mapping to contain device id and MAC, got %q", string(probeRaw))
	}

	csvRaw, err := os.ReadFile(prefix + "_devices.csv")
	if err != nil {
		t.Fatalf("read devices csv: %v", err)
	}
	if !strings.Contains(string(csvRaw), "mac_address,device_name,device_id") {
		t.Fatalf("expected CSV header, got %q", string(csvRaw))
	}
	if !strings.Contains(string(csvRaw), "02:11:22:33:44:55,Apple iPhone12,7") {
		t.Fatalf("expected device row, got %q", string(csvRaw))
	}

	if _, err := os.Stat(prefix + ".pcap"); err != nil {
		t.Fatalf("expected pcap file to exist: %v", err)
	}
}

func TestWriteFrameDeduplicatesMACInCSV(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "dedup")

	w, err := New(prefix)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mac := [6]byte{0x02, 0, 0, 0, 0, 1}
	frameBytes := make([]byte, 40)
	for i := 0; i < 3; i++ {
		if err := w.WriteFrame(float64(i), 1, mac, 1, -50, frameBytes); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if len(w.deviceMACOrder[1]) != 1 {
		t.Fatalf("expected exactly one distinct MAC recorded for device 1, got %d", len(w.deviceMACOrder[1]))
	}
	_ = w.Close()
}
