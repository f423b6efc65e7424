package engine

import (
	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/device"
	"github.com/cyicz123/wifisim/internal/frame"
	"github.com/cyicz123/wifisim/internal/metrics"
	"github.com/cyicz123/wifisim/internal/store"
)

// bootstrap schedules the dataset-type-specific initial events (§4.6).
func (e *Engine) bootstrap() error {
	switch e.scenario.DatasetType {
	case config.DatasetMulti, "":
		return e.bootstrapMulti()
	case config.DatasetSingleSwitch:
		return e.bootstrapSingleSwitch()
	case config.DatasetSingleLocked:
		return e.bootstrapSingleStatic(store.Locked)
	case config.DatasetSingleAwake:
		return e.bootstrapSingleStatic(store.Awake)
	case config.DatasetSingleActive:
		return e.bootstrapSingleStatic(store.Active)
	case config.DatasetSingleStatic:
		return e.bootstrapSingleStatic(store.Phase(e.scenario.SinglePhase))
	default:
		return config.Newf(config.InvalidConfig, "", 0, "unknown dataset type %q", e.scenario.DatasetType)
	}
}

// bootstrapMulti schedules creationCount CreateDevice arrivals from a
// Poisson-like process at rate 1/creationIntervalMean, each paired with
// a DeleteDevice scheduled after an independent permanence draw (§4.6).
func (e *Engine) bootstrapMulti() error {
	rate := 1.0 / e.scenario.CreationIntervalMean * e.scenario.CreationIntervalMultiplier
	t := 0.0
	for i := 0; i < e.scenario.CreationCount; i++ {
		t += exponentialDraw(rate, e.rng)
		hp := e.resolveHardware("", "")

		id := e.nextDeviceID
		e.nextDeviceID++

		phase := store.Phase(e.rng.RandInt(0, 2))
		e.schedule(&Event{Time: t, Kind: EventCreateDevice, DeviceID: id, Vendor: hp.Vendor, Model: hp.Model, TargetPhase: phase})

		permanence := exponentialDraw(1.0/e.scenario.PermanenceMean, e.rng)
		e.schedule(&Event{Time: t + permanence, Kind: EventDeleteDevice, DeviceID: id})
	}
	return nil
}

// bootstrapSingleSwitch creates one device at t=0 and arms the first
// ChangePhase cycle, if the scenario allows state switching (§4.6).
func (e *Engine) bootstrapSingleSwitch() error {
	hp := e.resolveHardware(e.scenario.SingleVendor, e.scenario.SingleModel)
	id := e.nextDeviceID
	e.nextDeviceID++
	phase := store.Phase(e.scenario.SinglePhase)

	e.schedule(&Event{Time: 0, Kind: EventCreateDevice, DeviceID: id, Vendor: hp.Vendor, Model: hp.Model, TargetPhase: phase})
	return nil
}

// bootstrapSingleStatic creates one device fixed to the given phase for
// the whole run; no ChangePhase is ever scheduled (§4.6).
func (e *Engine) bootstrapSingleStatic(phase store.Phase) error {
	hp := e.resolveHardware(e.scenario.SingleVendor, e.scenario.SingleModel)
	id := e.nextDeviceID
	e.nextDeviceID++

	e.schedule(&Event{Time: 0, Kind: EventCreateDevice, DeviceID: id, Vendor: hp.Vendor, Model: hp.Model, TargetPhase: phase})
	return nil
}

func (e *Engine) handleCreateDevice(ev *Event) error {
	hp, ok := e.st.Hardware(ev.Model)
	if !ok {
		return config.Newf(config.InvalidConfig, "", 0, "model %q not found at dispatch time", ev.Model)
	}
	hp = hp.GammaReshaped(e.scenario.BurstGamma)

	behavior, err := e.behaviorMap(ev.Model)
	if err != nil {
		return err
	}

	oui, ouiOK := e.resolveOUI(hp.Vendor)

	params := device.Params{
		RotationMode:     e.scenario.MACRotationMode,
		RotationInterval: e.scenario.RotationIntervalSeconds,
		SpeedMultiplier:  e.scenario.MobilitySpeedMultiplier,
	}

	dev, err := device.New(ev.DeviceID, hp, behavior, ev.TargetPhase, oui, ouiOK, params, e.rng, e.pool)
	if err != nil {
		return err
	}

	e.devices[ev.DeviceID] = dev
	e.deviceStats[ev.DeviceID] = &DeviceStats{Vendor: hp.Vendor, Model: hp.Model}
	e.names[ev.DeviceID] = deviceName(hp.Vendor, hp.Model)

	if e.scenario.DatasetType == config.DatasetSingleSwitch && e.scenario.AllowStateSwitch {
		e.scheduleNextPhaseChange(ev.DeviceID, dev.Phase)
	}

	if dev.IsSendingProbe() {
		e.scheduleNextBurst(ev.DeviceID, dev)
	}
	return nil
}

func (e *Engine) handleDeleteDevice(ev *Event) {
	delete(e.devices, ev.DeviceID)
	delete(e.burstScheduled, ev.DeviceID)
}

func (e *Engine) scheduleNextPhaseChange(id int, currentPhase store.Phase) {
	dev, ok := e.devices[id]
	if !ok {
		return
	}
	bp := dev.BehaviorFor(currentPhase)
	if bp == nil {
		return
	}
	dwell := bp.Dwell.Sample(e.rng)
	next := store.Phase((int(currentPhase) + 1) % 3)
	e.schedule(&Event{Time: e.now + dwell, Kind: EventChangePhase, DeviceID: id, TargetPhase: next})
}

func (e *Engine) handleChangePhase(ev *Event) {
	dev, ok := e.devices[ev.DeviceID]
	if !ok {
		return
	}
	wasSending := dev.IsSendingProbe()
	dev.ChangePhase(ev.TargetPhase, e.now)

	if e.scenario.DatasetType == config.DatasetSingleSwitch && e.scenario.AllowStateSwitch {
		e.scheduleNextPhaseChange(ev.DeviceID, ev.TargetPhase)
	}

	if !wasSending && dev.IsSendingProbe() && !e.burstScheduled[ev.DeviceID] {
		e.scheduleNextBurst(ev.DeviceID, dev)
	}
}

// scheduleNextBurst draws an inter-burst interval (already scaled by
// scale_between/spread_between via behaviorMap) and additionally
// applies burst_interval_multiplier, then schedules the next
// CreateBurst (§4.6).
func (e *Engine) scheduleNextBurst(id int, dev *device.Device) {
	bp := dev.BehaviorFor(dev.Phase)
	if bp == nil {
		return
	}
	delta := bp.Inter.Sample(e.rng) * e.scenario.BurstIntervalMultiplier
	e.burstScheduled[id] = true
	e.schedule(&Event{Time: e.now + delta, Kind: EventCreateBurst, DeviceID: id})
}

func (e *Engine) handleCreateBurst(ev *Event) error {
	dev, ok := e.devices[ev.DeviceID]
	if !ok {
		return nil
	}
	if !dev.IsSendingProbe() {
		e.burstScheduled[ev.DeviceID] = false
		return nil
	}

	if err := dev.MaybeRotateMAC(e.now, e.rng, e.pool); err != nil {
		return err
	}

	bp := dev.BehaviorFor(dev.Phase)
	burstLen := int(dev.Hardware.BurstLength.Sample(e.rng))
	if burstLen < 1 {
		burstLen = 1
	}

	if !dev.SeqInitialized {
		max := 4095 - burstLen
		if max < 0 {
			max = 0
		}
		dev.SeqCounter = e.rng.RandInt(0, max)
		dev.SeqInitialized = true
	}

	oui, _ := dev.OUI()
	ssid := ""
	if len(dev.SSIDs) > 0 {
		ssid = dev.SSIDs[e.rng.RandInt(0, len(dev.SSIDs)-1)]
	}

	spec := frame.Spec{
		MAC:         dev.CurrentMAC,
		Hardware:    dev.Hardware,
		Channel:     dev.Channel,
		SSID:        ssid,
		VendorOUI:   oui,
		WPSHex:      dev.WPSHex,
		UUIDHex:     dev.UUIDHex,
		SeqStart:    dev.SeqCounter,
		BurstLength: burstLen,
	}

	frames, nextSeq, err := frame.ComposeBurst(spec, e.rng)
	if err != nil {
		return err
	}
	dev.SeqCounter = nextSeq
	dev.NumBurstsSent++
	if ds, ok := e.deviceStats[ev.DeviceID]; ok {
		ds.NumBurstsSent++
	}

	intra := bp.Intra.Sample(e.rng)
	for i, fr := range frames {
		jitter := bp.Jitter.Sample(e.rng)
		queueDelay := simulateQueueDelay(dev.QueueLength, dev.ProcessingDelay)
		t := e.now + dev.ProcessingDelay + float64(i)*intra + jitter + osJitter(e.rng) + queueDelay

		e.schedule(&Event{
			Time:       t,
			Kind:       EventSendPacket,
			DeviceID:   ev.DeviceID,
			FrameBytes: fr.Bytes,
			FrameSeq:   fr.Seq,
			Channel:    dev.Channel,
		})
	}

	e.scheduleNextBurst(ev.DeviceID, dev)
	return nil
}

func (e *Engine) handleSendPacket(ev *Event) {
	dev, ok := e.devices[ev.DeviceID]
	if !ok {
		return
	}

	if e.scenario.InterferenceProb > 0 && e.rng.RandU01() < e.scenario.InterferenceProb {
		return
	}

	distance := dev.DistanceFromOrigin()
	accepted, rssi := e.chFilter.Evaluate(distance, e.rng)
	if !accepted {
		return
	}
	ev.RSSI = rssi

	mac := dev.CurrentMAC
	if err := e.writer.WriteFrame(e.now, ev.DeviceID, mac, ev.Channel, rssi, ev.FrameBytes); err != nil {
		return
	}

	dev.NumPacketsSent++
	if ds, ok := e.deviceStats[ev.DeviceID]; ok {
		ds.NumPacketsSent++
	}
	macSet := map[string]bool{}
	for _, m := range dev.MACHistory {
		macSet[device.MACString(m)] = true
	}
	if ds, ok := e.deviceStats[ev.DeviceID]; ok {
		ds.MACCount = len(macSet)
	}

	e.samples = append(e.samples, metrics.Sample{Time: e.now, MAC: device.MACString(mac)})

	if e.scenario.QASampleRate > 0 && e.rng.RandU01() < e.scenario.QASampleRate {
		_, _ = frame.Parse(ev.FrameBytes)
	}
}
