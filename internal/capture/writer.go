// Package capture owns the run's output files: the PCAP capture, the
// text log, the probe-id mapping, and the device CSV (§4.6, §6).
package capture

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/device"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// epoch anchors simulation time (float seconds since t=0) onto a
// PCAP-writeable wall-clock time; the actual calendar date is arbitrary
// since this is synthetic traffic, not a real capture.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Writer owns the four end-of-run output files named in §4.6/§6.
type Writer struct {
	pcapFile   *os.File
	pcapWriter *pcapgo.Writer

	logFile *os.File
	log     *bufio.Writer

	probeIDFile *os.File
	probeID     *bufio.Writer

	frameCount int

	deviceMACOrder map[int][][6]byte
	macSeen        map[int]map[[6]byte]bool
}

// New opens {prefix}.pcap, {prefix}.log and {prefix}_probeids.txt.
func New(prefix string) (*Writer, error) {
	pcapFile, err := os.Create(prefix + ".pcap")
	if err != nil {
		return nil, config.Newf(config.IOFailure, prefix+".pcap", 0, "%v", err)
	}
	pw := pcapgo.NewWriter(pcapFile)
	if err := pw.WriteFileHeader(65535, layers.LinkType(127)); err != nil {
		pcapFile.Close()
		return nil, config.Newf(config.IOFailure, prefix+".pcap", 0, "write file header: %v", err)
	}

	logFile, err := os.Create(prefix + ".log")
	if err != nil {
		pcapFile.Close()
		return nil, config.Newf(config.IOFailure, prefix+".log", 0, "%v", err)
	}

	probeIDFile, err := os.Create(prefix + "_probeids.txt")
	if err != nil {
		pcapFile.Close()
		logFile.Close()
		return nil, config.Newf(config.IOFailure, prefix+"_probeids.txt", 0, "%v", err)
	}

	return &Writer{
		pcapFile:       pcapFile,
		pcapWriter:     pw,
		logFile:        logFile,
		log:            bufio.NewWriter(logFile),
		probeIDFile:    probeIDFile,
		probeID:        bufio.NewWriter(probeIDFile),
		deviceMACOrder: make(map[int][][6]byte),
		macSeen:        make(map[int]map[[6]byte]bool),
	}, nil
}

// WriteFrame appends a surviving frame to the capture, log, and probe-id
// mapping outputs, and records the (device, MAC) pair in first-use order
// for the device CSV.
func (w *Writer) WriteFrame(timestampSeconds float64, deviceID int, mac [6]byte, channel int, rssiDBm float64, frameBytes []byte) error {
	ts := epoch.Add(time.Duration(timestampSeconds * float64(time.Second)))
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(frameBytes),
		Length:        len(frameBytes),
	}
	if err := w.pcapWriter.WritePacket(ci, frameBytes); err != nil {
		return config.Newf(config.IOFailure, "", 0, "write pcap packet: %v", err)
	}

	macStr := device.MACString(mac)
	if _, err := fmt.Fprintf(w.log, "%.6f %d %s %d %.2f\n", timestampSeconds, deviceID, macStr, channel, rssiDBm); err != nil {
		return config.Newf(config.IOFailure, "", 0, "write log: %v", err)
	}
	if _, err := fmt.Fprintf(w.probeID, "%.6f\t%d\t%s\n", timestampSeconds, deviceID, macStr); err != nil {
		return config.Newf(config.IOFailure, "", 0, "write probe-id mapping: %v", err)
	}

	if w.macSeen[deviceID] == nil {
		w.macSeen[deviceID] = make(map[[6]byte]bool)
	}
	if !w.macSeen[deviceID][mac] {
		w.macSeen[deviceID][mac] = true
		w.deviceMACOrder[deviceID] = append(w.deviceMACOrder[deviceID], mac)
	}

	w.frameCount++
	return nil
}

// FrameCount returns the number of frames written so far, used by
// RunStats and the probe-id line-count invariant in §8.
func (w *Writer) FrameCount() int {
	return w.frameCount
}

// WriteDeviceCSV writes the "mac_address,device_name,device_id" table,
// one row per (device, MAC) pair in first-use order (§6).
func (w *Writer) WriteDeviceCSV(prefix string, names map[int]string) error {
	f, err := os.Create(prefix + "_devices.csv")
	if err != nil {
		return config.Newf(config.IOFailure, prefix+"_devices.csv", 0, "%v", err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	fmt.Fprintln(buf, "mac_address,device_name,device_id")

	ids := make([]int, 0, len(w.deviceMACOrder))
	for deviceID := range w.deviceMACOrder {
		ids = append(ids, deviceID)
	}
	sort.Ints(ids)

	for _, deviceID := range ids {
		name := names[deviceID]
		for _, mac := range w.deviceMACOrder[deviceID] {
			fmt.Fprintf(buf, "%s,%s,%d\n", device.MACString(mac), name, deviceID)
		}
	}
	if err := buf.Flush(); err != nil {
		return config.Newf(config.IOFailure, prefix+"_devices.csv", 0, "%v", err)
	}
	return nil
}

// Close flushes and closes every output file. Per the error-handling
// design, IO failures during capture writing abort after flushing the
// log — Close always attempts to flush the log and probe-id writers even
// if closing the pcap file failed.
func (w *Writer) Close() error {
	var firstErr error
	if err := w.pcapFile.Close(); err != nil && firstErr == nil {
		firstErr = config.Newf(config.IOFailure, "", 0, "close pcap: %v", err)
	}
	if err := w.log.Flush(); err != nil && firstErr == nil {
		firstErr = config.Newf(config.IOFailure, "", 0, "flush log: %v", err)
	}
	if err := w.logFile.Close(); err != nil && firstErr == nil {
		firstErr = config.Newf(config.IOFailure, "", 0, "close log: %v", err)
	}
	if err := w.probeID.Flush(); err != nil && firstErr == nil {
		firstErr = config.Newf(config.IOFailure, "", 0, "flush probe-id: %v", err)
	}
	if err := w.probeIDFile.Close(); err != nil && firstErr == nil {
		firstErr = config.Newf(config.IOFailure, "", 0, "close probe-id: %v", err)
	}
	return firstErr
}
