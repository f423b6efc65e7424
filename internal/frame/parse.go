package frame

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Parsed is the subset of a decoded frame the round-trip tests and the
// qa_sample_rate dump need.
type Parsed struct {
	Type         layers.Dot11Type
	Address1     []byte
	Address2     []byte
	Address3     []byte
	SequenceNum  uint16
	FragmentNum  uint16
	SSID         string
	Channel      int
	FreqMHz      uint16
	AntennaDBm   int8
	Elements     []*layers.Dot11InformationElement
}

// Parse decodes a frame written by ComposeBurst, following the decode
// pattern from the pack's own 802.11 sniffer (packet.Layer(...) then a
// type assertion) rather than gopacket's RadioTap layer, since this
// composer's own hand-rolled header is simpler to parse directly.
func Parse(raw []byte) (*Parsed, bool) {
	if len(raw) < RadioTapLength {
		return nil, false
	}
	freqMHz, antDBm, ok := ParseRadioTap(raw[:RadioTapLength])
	if !ok {
		return nil, false
	}

	packet := gopacket.NewPacket(raw[RadioTapLength:], layers.LayerTypeDot11, gopacket.Default)
	dot11Layer := packet.Layer(layers.LayerTypeDot11)
	if dot11Layer == nil {
		return nil, false
	}
	dot11, ok := dot11Layer.(*layers.Dot11)
	if !ok {
		return nil, false
	}

	p := &Parsed{
		Type:        dot11.Type,
		Address1:    dot11.Address1,
		Address2:    dot11.Address2,
		Address3:    dot11.Address3,
		SequenceNum: dot11.SequenceNumber,
		FragmentNum: dot11.FragmentNumber,
		FreqMHz:     freqMHz,
		AntennaDBm:  antDBm,
	}

	if ieLayer := packet.Layer(layers.LayerTypeDot11InformationElement); ieLayer != nil {
		for _, l := range packet.Layers() {
			if elt, ok := l.(*layers.Dot11InformationElement); ok {
				p.Elements = append(p.Elements, elt)
				if elt.ID == layers.Dot11InformationElementIDSSID {
					p.SSID = string(elt.Info)
				}
				if elt.ID == layers.Dot11InformationElementIDDSSet && len(elt.Info) == 1 {
					p.Channel = int(elt.Info[0])
				}
			}
		}
	}

	return p, true
}
