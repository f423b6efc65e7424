package frame

import (
	"testing"

	"github.com/cyicz123/wifisim/internal/store"
	"github.com/google/gopacket/layers"
	"github.com/iti/rngstream"
)

func hardwareFixture() *store.HardwareProfile {
	return &store.HardwareProfile{
		Vendor:   "Apple",
		Model:    "iPhone",
		Rates:    []byte{0x02, 0x04, 0x0b, 0x16},
		ExtRates: []byte{0x0c, 0x12, 0x18, 0x24},
		HTCap:    []byte{0x01, 0x02},
		ExtCap:   []byte{0x00, 0x00},
	}
}

func TestComposeBurstInvariants(t *testing.T) {
	rng := rngstream.New("test-frame-compose")
	spec := Spec{
		MAC:         [6]byte{0x02, 0x11, 0x22, 0x33, 0x44, 0x55},
		Hardware:    hardwareFixture(),
		Channel:     6,
		VendorOUI:   [3]byte{0x00, 0x17, 0xf2},
		SeqStart:    10,
		BurstLength: 3,
	}

	frames, nextSeq, err := ComposeBurst(spec, rng)
	if err != nil {
		t.Fatalf("ComposeBurst: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if nextSeq != 13 {
		t.Fatalf("expected next seq 13, got %d", nextSeq)
	}

	for i, fr := range frames {
		parsed, ok := Parse(fr.Bytes)
		if !ok {
			t.Fatalf("frame %d failed to parse", i)
		}
		if parsed.Type != layers.Dot11TypeMgmtProbeReq {
			t.Fatalf("frame %d: expected probe request type, got %v", i, parsed.Type)
		}
		if string(parsed.Address1) != string(Broadcast[:]) {
			t.Fatalf("frame %d: addr1 not broadcast: %v", i, parsed.Address1)
		}
		if string(parsed.Address3) != string(Broadcast[:]) {
			t.Fatalf("frame %d: addr3 not broadcast: %v", i, parsed.Address3)
		}
		if string(parsed.Address2) != string(spec.MAC[:]) {
			t.Fatalf("frame %d: addr2 mismatch: %v", i, parsed.Address2)
		}
		if parsed.FragmentNum != 0 {
			t.Fatalf("frame %d: expected fragment 0, got %d", i, parsed.FragmentNum)
		}
		if int(parsed.SequenceNum) != 10+i {
			t.Fatalf("frame %d: expected sequence %d, got %d", i, 10+i, parsed.SequenceNum)
		}
	}
}

func TestComposeBurstSequenceWrapsModulo4096(t *testing.T) {
	rng := rngstream.New("test-frame-wrap")
	spec := Spec{
		MAC:         [6]byte{0x02, 0, 0, 0, 0, 1},
		Hardware:    hardwareFixture(),
		Channel:     1,
		SeqStart:    4094,
		BurstLength: 3,
	}
	frames, nextSeq, err := ComposeBurst(spec, rng)
	if err != nil {
		t.Fatalf("ComposeBurst: %v", err)
	}
	if nextSeq != 1 {
		t.Fatalf("expected wrap to 1, got %d", nextSeq)
	}
	last, _ := Parse(frames[2].Bytes)
	if last.SequenceNum != 0 {
		t.Fatalf("expected wrapped sequence 0, got %d", last.SequenceNum)
	}
}

func TestComposeBurstRejectsBadChannel(t *testing.T) {
	rng := rngstream.New("test-frame-badchan")
	spec := Spec{Hardware: hardwareFixture(), Channel: 15, BurstLength: 1}
	if _, _, err := ComposeBurst(spec, rng); err == nil {
		t.Fatal("expected error for channel outside 1..14")
	}
}

func TestChannelFrequencyBoundaries(t *testing.T) {
	if f, ok := ChannelFrequencyMHz(14); !ok || f != 2484 {
		t.Fatalf("expected channel 14 -> 2484MHz, got %v %v", f, ok)
	}
	if f, ok := ChannelFrequencyMHz(1); !ok || f != 2412 {
		t.Fatalf("expected channel 1 -> 2412MHz, got %v %v", f, ok)
	}
	if _, ok := ChannelFrequencyMHz(0); ok {
		t.Fatal("expected channel 0 to be rejected")
	}
	if _, ok := ChannelFrequencyMHz(15); ok {
		t.Fatal("expected channel 15 to be rejected")
	}
}
