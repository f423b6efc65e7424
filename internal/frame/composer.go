package frame

import (
	"encoding/hex"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/store"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/iti/rngstream"
)

// Broadcast is the all-ones MAC used for addr1/addr3 on a Probe Request.
var Broadcast = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

var wpsOUI = []byte{0x00, 0x50, 0xf2, 0x04}
var uuidEOUI = []byte{0x00, 0x50, 0xf2, 0x05}

// Spec bundles everything the composer needs to build one burst of
// frames for a device, decoupled from the device package so frame stays
// importable without a dependency cycle.
type Spec struct {
	MAC         [6]byte
	Hardware    *store.HardwareProfile
	Channel     int
	SSID        string // empty string means the wildcard probe
	VendorOUI   [3]byte
	WPSHex      string
	UUIDHex     string
	SeqStart    int // starting 12-bit sequence number for this burst
	BurstLength int
}

// Frame is one composed Probe Request plus the sequence number it carries,
// returned ahead of any timestamp assignment (the engine schedules
// timestamps separately per §4.3's per-packet jitter).
type Frame struct {
	Bytes []byte
	Seq   int
}

// ComposeBurst builds BurstLength frames in the fixed layer order from
// §4.4, returning the next free sequence number (mod 4096) for the
// device to carry into its next burst.
func ComposeBurst(spec Spec, rng *rngstream.RngStream) ([]Frame, int, error) {
	freqMHz, ok := ChannelFrequencyMHz(spec.Channel)
	if !ok {
		return nil, spec.SeqStart, config.Newf(config.InvalidConfig, "", 0, "channel %d outside 1..14", spec.Channel)
	}

	ies, err := buildInformationElements(spec)
	if err != nil {
		return nil, spec.SeqStart, err
	}

	frames := make([]Frame, spec.BurstLength)
	seq := spec.SeqStart

	for i := 0; i < spec.BurstLength; i++ {
		radiotap := BuildRadioTap(0, freqMHz, randomAntennaSignal(rng))

		dot11 := &layers.Dot11{
			Type:           layers.Dot11TypeMgmtProbeReq,
			Address1:       mac6(Broadcast),
			Address2:       mac6(spec.MAC),
			Address3:       mac6(Broadcast),
			SequenceNumber: uint16(seq),
			FragmentNumber: 0,
		}
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{}
		layerStack := make([]gopacket.SerializableLayer, 0, len(ies)+1)
		layerStack = append(layerStack, dot11)
		for _, ie := range ies {
			layerStack = append(layerStack, ie)
		}
		if err := gopacket.SerializeLayers(buf, opts, layerStack...); err != nil {
			return nil, spec.SeqStart, config.Newf(config.RuntimeInvariant, "", 0, "serialize frame: %v", err)
		}

		full := append(append([]byte{}, radiotap...), buf.Bytes()...)
		frames[i] = Frame{Bytes: full, Seq: seq}

		seq = (seq + 1) % 4096
	}

	return frames, seq, nil
}

func mac6(b [6]byte) []byte {
	return append([]byte{}, b[:]...)
}

func randomAntennaSignal(rng *rngstream.RngStream) int8 {
	return int8(-70 + rng.RandInt(0, 40))
}

func buildInformationElements(spec Spec) ([]*layers.Dot11InformationElement, error) {
	var ies []*layers.Dot11InformationElement

	ssidInfo := []byte{}
	if spec.SSID != "" {
		ssidInfo = []byte(spec.SSID)
	}
	ies = append(ies, ie(layers.Dot11InformationElementIDSSID, ssidInfo))

	ies = append(ies, ie(layers.Dot11InformationElementIDRates, spec.Hardware.Rates))

	if len(spec.Hardware.ExtRates) > 0 {
		ies = append(ies, ie(50, spec.Hardware.ExtRates))
	}

	ies = append(ies, ie(layers.Dot11InformationElementIDDSSet, []byte{byte(spec.Channel)}))

	ies = append(ies, ie(45, spec.Hardware.HTCap))

	if len(spec.Hardware.VHTCap) > 0 {
		ies = append(ies, ie(191, spec.Hardware.VHTCap))
	}

	ies = append(ies, ie(127, spec.Hardware.ExtCap))

	vendorInfo := append(append([]byte{}, spec.VendorOUI[:]...), 0x00)
	ies = append(ies, ie(layers.Dot11InformationElementIDVendor, vendorInfo))

	if spec.WPSHex != "" {
		raw, err := hex.DecodeString(spec.WPSHex)
		if err != nil {
			return nil, config.Newf(config.InvalidConfig, "", 0, "malformed WPS hex: %v", err)
		}
		ies = append(ies, ie(layers.Dot11InformationElementIDVendor, append(append([]byte{}, wpsOUI...), raw...)))
	}
	if spec.UUIDHex != "" {
		raw, err := hex.DecodeString(spec.UUIDHex)
		if err != nil {
			return nil, config.Newf(config.InvalidConfig, "", 0, "malformed UUID-E hex: %v", err)
		}
		ies = append(ies, ie(layers.Dot11InformationElementIDVendor, append(append([]byte{}, uuidEOUI...), raw...)))
	}

	return ies, nil
}

func ie(id layers.Dot11InformationElementID, info []byte) *layers.Dot11InformationElement {
	return &layers.Dot11InformationElement{
		ID:     id,
		Length: uint8(len(info)),
		Info:   info,
	}
}
