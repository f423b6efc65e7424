package device

import (
	"math"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/store"
	"github.com/iti/rngstream"
)

// arena bounds mobility is reflected within, and the per-step heading
// perturbation range, grounded on the source's update_position.
const (
	arenaMin              = 0.0
	arenaMax              = 500.0
	headingJitterDegrees  = 10.0
	ssidAlphabet          = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	wpsUUIDInclusionProb  = 0.11
	ssidListInclusionProb = 0.20
)

// Device is a single simulated station's full runtime state.
type Device struct {
	ID     int
	Vendor string
	Model  string

	Hardware *store.HardwareProfile
	Behavior map[store.Phase]*store.BehaviorProfile

	Phase              store.Phase
	LastPhaseChangeAt  float64
	ForceMACChange     bool

	CurrentMAC        [6]byte
	MACHistory        [][6]byte
	RotationMode      config.MACRotationMode
	LastMACChangeTime float64
	RotationInterval  float64

	PositionX, PositionY float64
	Speed                float64
	HeadingDegrees       float64

	QueueLength       int
	ProcessingDelay   float64 // seconds
	TxPowerDBm        float64

	SSIDs   []string
	WPSHex  string
	UUIDHex string

	Channel        int  // 802.11 channel this device scans on, fixed at creation
	SeqCounter     int  // next sequence number to assign, mod 4096
	SeqInitialized bool // false until the first burst has picked a random start

	NumPacketsSent int
	NumBurstsSent  int

	ouiKnown bool
	oui      [3]byte
}

// Params bundles the scenario-level settings New applies to a device: MAC
// rotation mode and interval, and the mobility speed multiplier. The random
// construction-time parameters from §3 (queue length 1..10, processing
// delay 1-5ms, transmit power, position, speed, heading and SSID list) are
// sampled inside New, grounded on the source's Device.__init__.
type Params struct {
	RotationMode     config.MACRotationMode
	RotationInterval float64
	SpeedMultiplier  float64
}

// New constructs a device, seeding its MAC per policy and sampling its
// mobility/radio/SSID parameters the way the source's Device.__init__
// does.
func New(id int, hp *store.HardwareProfile, behavior map[store.Phase]*store.BehaviorProfile,
	startPhase store.Phase, oui [3]byte, ouiOK bool, params Params,
	rng *rngstream.RngStream, pool *DedicatedPool) (*Device, error) {

	mac, err := seedMAC(hp.MACPolicy, oui, ouiOK, rng, pool)
	if err != nil {
		return nil, err
	}
	if err := validate(hp.MACPolicy, mac, oui, ouiOK); err != nil {
		return nil, err
	}

	d := &Device{
		ID:                id,
		Vendor:            hp.Vendor,
		Model:             hp.Model,
		Hardware:          hp,
		Behavior:          behavior,
		Phase:             startPhase,
		CurrentMAC:        mac,
		MACHistory:        [][6]byte{mac},
		RotationMode:      params.RotationMode,
		RotationInterval:  params.RotationInterval,
		PositionX:         arenaMax * rng.RandU01(),
		PositionY:         arenaMax * rng.RandU01(),
		Speed:             (0.5 + 2.5*rng.RandU01()) * params.SpeedMultiplier,
		HeadingDegrees:    360.0 * rng.RandU01(),
		QueueLength:       1 + rng.RandInt(0, 9),
		ProcessingDelay:   0.001 + 0.004*rng.RandU01(),
		TxPowerDBm:        10.0 + 10.0*rng.RandU01(),
		Channel:           1 + rng.RandInt(0, 12),
		ouiKnown:          ouiOK,
		oui:               oui,
	}

	if rng.RandU01() < ssidListInclusionProb {
		n := 1 + rng.RandInt(0, 9)
		d.SSIDs = make([]string, n)
		for i := range d.SSIDs {
			d.SSIDs[i] = randomSSID(rng)
		}
	}
	if rng.RandU01() < wpsUUIDInclusionProb {
		d.WPSHex = randomHex(rng, 8)
	}
	if rng.RandU01() < wpsUUIDInclusionProb {
		d.UUIDHex = randomHex(rng, 8)
	}

	return d, nil
}

func randomSSID(rng *rngstream.RngStream) string {
	n := len(ssidAlphabet)
	length := 32
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = ssidAlphabet[rng.RandInt(0, n-1)]
	}
	return string(buf)
}

func randomHex(rng *rngstream.RngStream, nibbles int) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, nibbles)
	for i := range buf {
		buf[i] = digits[rng.RandInt(0, 15)]
	}
	return string(buf)
}

// MaybeRotateMAC applies the per-mode rotation decision from §4.3: a new
// burst is always the trigger point, and Permanent devices never rotate
// regardless of mode.
func (d *Device) MaybeRotateMAC(now float64, rng *rngstream.RngStream, pool *DedicatedPool) error {
	if d.Hardware.MACPolicy == store.Permanent {
		return nil
	}

	rotate := false
	switch d.RotationMode {
	case config.RotationPerBurst:
		rotate = true
	case config.RotationPerPhase:
		rotate = d.ForceMACChange
	case config.RotationInterval:
		rotate = now-d.LastMACChangeTime >= d.RotationInterval
	}
	if !rotate {
		return nil
	}

	mac, err := seedMAC(d.Hardware.MACPolicy, d.oui, d.ouiKnown, rng, pool)
	if err != nil {
		return err
	}
	if err := validate(d.Hardware.MACPolicy, mac, d.oui, d.ouiKnown); err != nil {
		return err
	}

	d.CurrentMAC = mac
	d.MACHistory = append(d.MACHistory, mac)
	d.LastMACChangeTime = now
	d.ForceMACChange = false
	return nil
}

// ChangePhase records a phase transition and, under per_phase rotation,
// arms the forced MAC change for the next burst (§4.3).
func (d *Device) ChangePhase(newPhase store.Phase, now float64) {
	d.Phase = newPhase
	d.LastPhaseChangeAt = now
	if d.RotationMode == config.RotationPerPhase {
		d.ForceMACChange = true
	}
}

// UpdatePosition integrates mobility linearly over dt seconds, perturbs
// heading by a small uniform random amount, and reflects position at
// arena bounds (§4.3).
func (d *Device) UpdatePosition(dt float64, rng *rngstream.RngStream) {
	d.HeadingDegrees += (rng.RandU01()*2 - 1) * headingJitterDegrees
	rad := d.HeadingDegrees * math.Pi / 180.0

	d.PositionX = reflect(d.PositionX+d.Speed*dt*math.Cos(rad), arenaMin, arenaMax)
	d.PositionY = reflect(d.PositionY+d.Speed*dt*math.Sin(rad), arenaMin, arenaMax)
}

func reflect(v, lo, hi float64) float64 {
	for v < lo || v > hi {
		if v < lo {
			v = lo + (lo - v)
		}
		if v > hi {
			v = hi - (v - hi)
		}
	}
	return v
}

// DistanceFromOrigin returns the device's distance from the notional
// sniffer origin, used by the physical channel filter.
func (d *Device) DistanceFromOrigin() float64 {
	return math.Hypot(d.PositionX, d.PositionY)
}

// BehaviorFor returns the (already run-scaled) behavior profile for the
// device's current phase.
func (d *Device) BehaviorFor(phase store.Phase) *store.BehaviorProfile {
	return d.Behavior[phase]
}

// OUI returns the device's resolved vendor OUI and whether it was found
// in the registry at creation time, for the frame composer's
// Vendor-Specific element — needed regardless of MAC policy.
func (d *Device) OUI() ([3]byte, bool) {
	return d.oui, d.ouiKnown
}

// IsSendingProbe reports whether the device emits bursts in its current
// phase — a phase with a zero-mean inter-burst distribution never
// produces a CreateBurst chain (grounded on the source's
// is_sending_probe, generalized from a lookup table to a distribution
// property: an inter-burst mean of exactly 0 marks a silent phase).
func (d *Device) IsSendingProbe() bool {
	bp := d.Behavior[d.Phase]
	return bp != nil && bp.Inter.Mean() > 0
}
