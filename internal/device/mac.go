// Package device models a single simulated station: its identity, MAC
// rotation policy, mobility, and radio parameters.
package device

import (
	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/store"
	"github.com/iti/rngstream"
)

// DedicatedPool is the small set of process-wide "dedicated" MACs handed
// out round-robin to Dedicated-policy devices, generalizing the source's
// single fixed DEDICATED_MAC constant so multiple dedicated devices in a
// run don't collide (SPEC_FULL §4.3).
type DedicatedPool struct {
	macs [6]byte
	pool [][6]byte
	next int
}

// NewDedicatedPool generates n random dedicated MACs up front.
func NewDedicatedPool(rng *rngstream.RngStream, n int) *DedicatedPool {
	if n < 1 {
		n = 1
	}
	p := &DedicatedPool{pool: make([][6]byte, n)}
	for i := 0; i < n; i++ {
		mac := randomMAC(rng)
		mac[0] = (mac[0] &^ 0x03) | 0x02 // locally administered, unicast
		p.pool[i] = mac
	}
	return p
}

// Next hands out the next dedicated MAC, round-robin.
func (p *DedicatedPool) Next() [6]byte {
	mac := p.pool[p.next]
	p.next = (p.next + 1) % len(p.pool)
	return mac
}

func randomByte(rng *rngstream.RngStream) byte {
	return byte(rng.RandInt(0, 255))
}

func randomMAC(rng *rngstream.RngStream) [6]byte {
	var mac [6]byte
	for i := range mac {
		mac[i] = randomByte(rng)
	}
	mac[0] &^= 0x01 // clear multicast bit for capture realism
	return mac
}

// seedMAC implements the per-policy construction-time MAC selection
// described in §4.3.
func seedMAC(policy store.MACPolicy, oui [3]byte, ouiOK bool, rng *rngstream.RngStream, pool *DedicatedPool) ([6]byte, error) {
	switch policy {
	case store.Permanent:
		return randomMAC(rng), nil

	case store.FullyRandom:
		mac := randomMAC(rng)
		mac[0] = (mac[0] &^ 0x03) | 0x02 // locally administered, unicast
		return mac, nil

	case store.PreserveOUI:
		if !ouiOK {
			return [6]byte{}, config.Newf(config.RuntimeInvariant, "", 0, "PreserveOUI policy requires a resolved vendor OUI")
		}
		var mac [6]byte
		copy(mac[0:3], oui[:])
		mac[3] = randomByte(rng)
		mac[4] = randomByte(rng)
		mac[5] = randomByte(rng)
		return mac, nil

	case store.Dedicated:
		return pool.Next(), nil

	default:
		return [6]byte{}, config.Newf(config.RuntimeInvariant, "", 0, "unknown MAC policy %d", policy)
	}
}

// validate checks the per-policy MAC invariants from §3/§8.
func validate(policy store.MACPolicy, mac [6]byte, oui [3]byte, ouiOK bool) error {
	switch policy {
	case store.PreserveOUI:
		if !ouiOK || mac[0] != oui[0] || mac[1] != oui[1] || mac[2] != oui[2] {
			return config.Newf(config.RuntimeInvariant, "", 0, "PreserveOUI MAC %v does not carry vendor OUI %v", mac, oui)
		}
		if mac[0]&0x02 != 0 {
			return config.Newf(config.RuntimeInvariant, "", 0, "PreserveOUI MAC %v has the locally-administered bit set", mac)
		}
	case store.FullyRandom:
		if mac[0]&0x02 == 0 {
			return config.Newf(config.RuntimeInvariant, "", 0, "FullyRandom MAC %v missing locally-administered bit", mac)
		}
		if mac[0]&0x01 != 0 {
			return config.Newf(config.RuntimeInvariant, "", 0, "FullyRandom MAC %v has the multicast bit set", mac)
		}
	case store.Dedicated:
		if mac[0]&0x02 == 0 {
			return config.Newf(config.RuntimeInvariant, "", 0, "Dedicated MAC %v missing locally-administered bit", mac)
		}
		if mac[0]&0x01 != 0 {
			return config.Newf(config.RuntimeInvariant, "", 0, "Dedicated MAC %v has the multicast bit set", mac)
		}
	case store.Permanent:
		// no additional bit invariant: Permanent keeps the single random
		// address drawn at construction for the device's whole lifetime.
	}
	return nil
}

// MACString renders a MAC address in the conventional colon-hex form.
func MACString(mac [6]byte) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 17)
	for i, b := range mac {
		buf[i*3] = hexDigits[b>>4]
		buf[i*3+1] = hexDigits[b&0x0f]
		if i < 5 {
			buf[i*3+2] = ':'
		}
	}
	return string(buf)
}
