// Package store loads the per-model hardware and per-(model,phase)
// behavior parameter tables and exposes read-only lookups plus the
// scaling operators the auto-tuner and scenario presets apply to them.
package store

import "github.com/cyicz123/wifisim/internal/distribution"

// MACPolicy selects how a device's source MAC address is chosen and
// rotated (§3 invariants, §4.3).
type MACPolicy int

const (
	Permanent MACPolicy = iota
	FullyRandom
	PreserveOUI
	Dedicated
)

func (p MACPolicy) Valid() bool {
	return p >= Permanent && p <= Dedicated
}

// Phase is the coarse device behavioral state selecting a timing profile.
type Phase int

const (
	Locked Phase = iota
	Awake
	Active
)

// HardwareProfile is the per-model record loaded from the hardware
// parameter file (§4.1, §6).
type HardwareProfile struct {
	Vendor      string
	Model       string
	BurstLength *distribution.Discrete
	MACPolicy   MACPolicy
	VHTCap      []byte // nil when the model declines to advertise VHT
	ExtCap      []byte
	HTCap       []byte
	Rates       []byte
	ExtRates    []byte
}

// BehaviorProfile is the per-(model,phase) record loaded from the behavior
// parameter file (§3, §4.1, §6).
type BehaviorProfile struct {
	Model string
	Phase Phase
	Intra *distribution.Discrete // intra-burst interval, seconds
	Inter *distribution.Discrete // inter-burst interval, seconds
	Dwell *distribution.Discrete // state dwell time, seconds
	Jitter *distribution.Discrete // per-packet jitter, seconds
}

// Scaled returns a copy of the profile with scale_between and
// spread_between applied to the inter-burst distribution and
// dwell_multiplier applied to the dwell distribution — the transform the
// engine applies once per run rather than mutating the loaded table.
func (bp *BehaviorProfile) Scaled(scaleBetween, spreadBetween, dwellMultiplier float64) *BehaviorProfile {
	out := &BehaviorProfile{
		Model:  bp.Model,
		Phase:  bp.Phase,
		Intra:  bp.Intra,
		Jitter: bp.Jitter,
		Inter:  bp.Inter.Scale(scaleBetween).Spread(spreadBetween),
		Dwell:  bp.Dwell.Scale(dwellMultiplier),
	}
	return out
}

// GammaReshaped returns a copy of the hardware profile with burst_gamma
// applied to the burst-length distribution.
func (hp *HardwareProfile) GammaReshaped(burstGamma float64) *HardwareProfile {
	out := *hp
	out.BurstLength = hp.BurstLength.Gamma(burstGamma)
	return &out
}
