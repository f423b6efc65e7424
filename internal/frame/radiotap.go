// Package frame assembles RadioTap + 802.11 + Probe Request frames and
// parses them back for round-trip tests and qa_sample_rate dumps.
package frame

import "encoding/binary"

// RadioTap present-flag bits used by this composer (TSFT, Flags, Rate,
// Channel, dBm Antenna Signal, Antenna), per the ieee80211_radiotap.h
// bit layout.
const (
	presentTSFT          = 1 << 0
	presentFlags         = 1 << 1
	presentRate          = 1 << 2
	presentChannel       = 1 << 3
	presentDBMAntSignal  = 1 << 5
	presentAntenna       = 1 << 11
)

const radiotapPresentMask = presentTSFT | presentFlags | presentRate | presentChannel | presentDBMAntSignal | presentAntenna

// channel flag bits for a 2.4GHz CCK channel.
const (
	chanFlagCCK  = 0x0020
	chanFlag2GHz = 0x0080
)

// RadioTapLength is the fixed size of the header this composer emits:
// 8-byte fixed header + 8 (TSFT) + 1 (Flags) + 1 (Rate) + 4 (Channel) +
// 1 (dBm antenna signal) + 1 (antenna) = 24 bytes.
const RadioTapLength = 24

// BuildRadioTap hand-assembles a minimal monitor-mode RadioTap header.
// gopacket's own RadioTap layer has no demonstrated construction path in
// the retrieved examples (only decode call sites appear), so the header
// is built directly with encoding/binary rather than risk an unverifiable
// serialize API — see DESIGN.md.
func BuildRadioTap(tsftMicros uint64, freqMHz uint16, antennaSignalDBm int8) []byte {
	buf := make([]byte, RadioTapLength)
	buf[0] = 0 // version
	buf[1] = 0 // pad
	binary.LittleEndian.PutUint16(buf[2:4], uint16(RadioTapLength))
	binary.LittleEndian.PutUint32(buf[4:8], radiotapPresentMask)

	binary.LittleEndian.PutUint64(buf[8:16], tsftMicros)
	buf[16] = 0                       // flags: none set
	buf[17] = 2                       // rate, 500kbps units -> 1.0 Mbps
	binary.LittleEndian.PutUint16(buf[18:20], freqMHz)
	binary.LittleEndian.PutUint16(buf[20:22], chanFlagCCK|chanFlag2GHz)
	buf[22] = byte(antennaSignalDBm)
	buf[23] = 0 // antenna

	return buf
}

// ParseRadioTap extracts the antenna signal and channel frequency this
// composer wrote, for Parse's round-trip decoding.
func ParseRadioTap(buf []byte) (freqMHz uint16, antennaSignalDBm int8, ok bool) {
	if len(buf) < RadioTapLength {
		return 0, 0, false
	}
	freqMHz = binary.LittleEndian.Uint16(buf[18:20])
	antennaSignalDBm = int8(buf[22])
	return freqMHz, antennaSignalDBm, true
}

// ChannelFrequencyMHz maps an 802.11 channel number to its center
// frequency: channel 14 is 2484 MHz, channels 1..13 follow 2407+5n
// (§4.4, §8 boundary behaviors).
func ChannelFrequencyMHz(channel int) (uint16, bool) {
	if channel < 1 || channel > 14 {
		return 0, false
	}
	if channel == 14 {
		return 2484, true
	}
	return uint16(2407 + 5*channel), true
}
