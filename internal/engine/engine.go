// Package engine is the discrete-event simulation engine: a
// container/heap priority queue of Events, a dispatcher, and the
// per-device bookkeeping that drives the frame composer and channel
// filter to produce a capture (§4.6).
package engine

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cyicz123/wifisim/internal/capture"
	"github.com/cyicz123/wifisim/internal/channel"
	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/device"
	"github.com/cyicz123/wifisim/internal/metrics"
	"github.com/cyicz123/wifisim/internal/ouireg"
	"github.com/cyicz123/wifisim/internal/store"
	"github.com/google/uuid"
	"github.com/iti/rngstream"
	"github.com/rs/zerolog/log"
)

const defaultSegmentSeconds = 5.0

// Engine owns the event queue, the live device table, and the output
// writers for a single simulation run (§4.6, §5).
type Engine struct {
	scenario *config.Scenario
	st       *store.Store
	oui      *ouireg.Registry
	chFilter *channel.Filter
	writer   *capture.Writer
	rng      *rngstream.RngStream
	pool     *device.DedicatedPool
	runID    string

	queue      eventHeap
	seqCounter int64
	now        float64

	devices        map[int]*device.Device
	deviceStats    map[int]*DeviceStats
	names          map[int]string
	burstScheduled map[int]bool
	nextDeviceID   int

	samples []metrics.Sample
}

// New constructs an Engine for one run. The RNG is a single
// process-wide seeded stream per §5; scenario.Seed selects it the same
// way the teacher's own rngstream.New(name) calls select a named
// stream.
func New(scenario *config.Scenario, st *store.Store, oui *ouireg.Registry, writer *capture.Writer) *Engine {
	seed := scenario.Seed
	if seed == "" {
		seed = "wifisim-default"
	}
	rng := rngstream.New(seed)

	poolSize := scenario.CreationCount
	if poolSize < 1 {
		poolSize = 4
	}

	chFilter := channel.Default()
	if scenario.EnvFactor != 0 {
		chFilter.EnvFactor = scenario.EnvFactor
	}

	return &Engine{
		scenario:       scenario,
		st:             st,
		oui:            oui,
		chFilter:       chFilter,
		writer:         writer,
		rng:            rng,
		pool:           device.NewDedicatedPool(rng, poolSize),
		runID:          uuid.NewString(),
		devices:        make(map[int]*device.Device),
		deviceStats:    make(map[int]*DeviceStats),
		names:          make(map[int]string),
		burstScheduled: make(map[int]bool),
	}
}

func (e *Engine) schedule(ev *Event) {
	ev.Seq = e.seqCounter
	e.seqCounter++
	heap.Push(&e.queue, ev)
}

// Run drains the priority queue until it is empty or simulated time
// reaches the scenario's duration, dispatching each event in turn
// (§4.6's Loop). It returns the final RunStats, also written to
// {outputPrefix}_stats.json alongside the capture/log/probe-id/device
// outputs.
func (e *Engine) Run() (*RunStats, error) {
	if err := e.bootstrap(); err != nil {
		return nil, err
	}

	for len(e.queue) > 0 {
		ev := heap.Pop(&e.queue).(*Event)
		if ev.Time > e.scenario.DurationSeconds {
			break
		}
		if ev.Time < e.now {
			return nil, config.Newf(config.RuntimeInvariant, "", 0, "event time regressed: %v < %v", ev.Time, e.now)
		}

		dt := ev.Time - e.now
		e.now = ev.Time
		if e.scenario.Realtime && dt > 0 {
			time.Sleep(time.Duration(dt * float64(time.Second)))
		}
		for _, id := range e.sortedDeviceIDs() {
			e.devices[id].UpdatePosition(dt, e.rng)
		}

		if err := e.dispatch(ev); err != nil {
			return nil, err
		}
	}

	return e.finish()
}

// sortedDeviceIDs returns the live device IDs in ascending order. Ranging
// over e.devices directly would let Go's randomized map iteration order
// decide which device draws next from the single shared RNG stream,
// breaking byte-identical output across runs with the same seed (§5, §8).
func (e *Engine) sortedDeviceIDs() []int {
	ids := make([]int, 0, len(e.devices))
	for id := range e.devices {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (e *Engine) dispatch(ev *Event) error {
	switch ev.Kind {
	case EventCreateDevice:
		return e.handleCreateDevice(ev)
	case EventDeleteDevice:
		e.handleDeleteDevice(ev)
		return nil
	case EventChangePhase:
		e.handleChangePhase(ev)
		return nil
	case EventCreateBurst:
		return e.handleCreateBurst(ev)
	case EventSendPacket:
		e.handleSendPacket(ev)
		return nil
	default:
		return config.Newf(config.RuntimeInvariant, "", 0, "unknown event kind %v", ev.Kind)
	}
}

func (e *Engine) finish() (*RunStats, error) {
	if err := e.writer.WriteDeviceCSV(e.scenario.OutputPrefix, e.names); err != nil {
		return nil, err
	}

	result := metrics.Compute(e.samples, defaultSegmentSeconds)

	stats := &RunStats{
		RunID:           e.runID,
		DeviceCount:     len(e.deviceStats),
		FrameCount:      e.writer.FrameCount(),
		DurationSeconds: e.scenario.DurationSeconds,
		Metrics:         result,
		Devices:         make(map[int]DeviceStats, len(e.deviceStats)),
	}
	for id, ds := range e.deviceStats {
		stats.Devices[id] = *ds
	}

	if err := stats.WriteToFile(e.scenario.OutputPrefix + "_stats.json"); err != nil {
		return nil, err
	}

	log.Info().Str("runId", e.runID).Int("devices", stats.DeviceCount).Int("frames", stats.FrameCount).
		Float64("mcr", result.MCR).Float64("numr", result.NUMR).Msg("run complete")
	return stats, nil
}

// behaviorMap resolves and scales the per-phase behavior profiles for a
// model, applying scale_between/spread_between to inter-burst and
// dwell_multiplier to dwell (§4.1).
func (e *Engine) behaviorMap(model string) (map[store.Phase]*store.BehaviorProfile, error) {
	out := make(map[store.Phase]*store.BehaviorProfile, 3)
	for _, p := range []store.Phase{store.Locked, store.Awake, store.Active} {
		bp, ok := e.st.Behavior(model, p)
		if !ok {
			return nil, config.Newf(config.InvalidConfig, "", 0, "model %q missing behavior for phase %d", model, p)
		}
		out[p] = bp.Scaled(e.scenario.ScaleBetween, e.scenario.SpreadBetween, e.scenario.DwellMultiplier)
	}
	return out, nil
}

// resolveHardware picks a HardwareProfile for a vendor/model query,
// falling back to a uniform random model across the whole table when
// vendor is empty (§4.1's RandomDevice/PickByVendor).
func (e *Engine) resolveHardware(vendor, model string) *store.HardwareProfile {
	if vendor == "" {
		return e.st.RandomDevice(e.rng)
	}
	return e.st.PickByVendor(e.rng, vendor, model)
}

func (e *Engine) resolveOUI(vendor string) ([3]byte, bool) {
	if oui, _, ok := e.oui.Lookup(vendor); ok {
		return oui, true
	}
	if oui, _, ok := e.oui.LookupPrefix(vendor); ok {
		return oui, true
	}
	return [3]byte{}, false
}

// exponentialDraw draws an Exp(rate) interval via inverse-CDF, the
// Poisson-process arrival primitive used by the multi-device
// bootstrap and permanence sampling (§4.6).
func exponentialDraw(rate float64, rng *rngstream.RngStream) float64 {
	if rate <= 0 {
		return math.Inf(1)
	}
	u := rng.RandU01()
	if u >= 1.0 {
		u = 0.999999
	}
	return -math.Log(1-u) / rate
}

// simulateQueueDelay is the M/M/1 per-packet queueing delay the source's
// add_event applies on top of the composer's intrinsic timestamp,
// falling back to a fixed 0.1s when the queue is unstable (λ ≥ μ)
// (SPEC_FULL §4.6).
func simulateQueueDelay(queueLength int, processingDelay float64) float64 {
	if processingDelay <= 0 {
		return 0.1
	}
	lambda := float64(queueLength)
	mu := 1.0 / processingDelay
	if mu <= lambda {
		return 0.1
	}
	return 1.0 / (mu - lambda)
}

func osJitter(rng *rngstream.RngStream) float64 {
	return 0.005 + 0.015*rng.RandU01()
}

func deviceName(vendor, model string) string {
	return fmt.Sprintf("%s %s", vendor, model)
}
