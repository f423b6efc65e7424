package main

import (
	"encoding/json"
	"fmt"

	"github.com/cyicz123/wifisim/internal/capture"
	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/engine"
	"github.com/cyicz123/wifisim/internal/ouireg"
	"github.com/cyicz123/wifisim/internal/store"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		hardwareFile string
		behaviorFile string
		ouiFile      string
		datasetType  string
		durationMin  float64
		deviceCount  int
		vendor       string
		model        string
		phase        int
		seed         string
		out          string
		realtime     bool

		creationIntervalMultiplier float64
		burstIntervalMultiplier    float64
		dwellMultiplier            float64
		envFactor                  float64
		interferenceProb           float64
		qaSampleRate               float64
		macRotationMode            string
		mobilitySpeedMultiplier    float64
		scaleBetween               float64
		spreadBetween              float64
		burstGamma                 float64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one simulation and emit a capture, logs, and a stats summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.InitLogging(logLevel)

			st, err := store.Load(hardwareFile, behaviorFile)
			if err != nil {
				return err
			}
			oui, err := ouireg.Load(ouiFile)
			if err != nil {
				return err
			}

			sc := config.Default()
			sc.DatasetType = config.DatasetType(datasetType)
			sc.DurationSeconds = durationMin * 60
			sc.CreationCount = deviceCount
			sc.SingleVendor = vendor
			sc.SingleModel = model
			sc.SinglePhase = phase
			sc.Seed = seed
			sc.OutputPrefix = out
			sc.Realtime = realtime
			sc.CreationIntervalMultiplier = creationIntervalMultiplier
			sc.BurstIntervalMultiplier = burstIntervalMultiplier
			sc.DwellMultiplier = dwellMultiplier
			sc.EnvFactor = envFactor
			sc.InterferenceProb = interferenceProb
			sc.QASampleRate = qaSampleRate
			sc.MACRotationMode = config.MACRotationMode(macRotationMode)
			sc.MobilitySpeedMultiplier = mobilitySpeedMultiplier
			sc.ScaleBetween = scaleBetween
			sc.SpreadBetween = spreadBetween
			sc.BurstGamma = burstGamma

			writer, err := capture.New(sc.OutputPrefix)
			if err != nil {
				return err
			}

			eng := engine.New(sc, st, oui, writer)
			stats, err := eng.Run()
			closeErr := writer.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}

			summary, err := json.MarshalIndent(stats, "", "\t")
			if err != nil {
				return err
			}
			fmt.Println(string(summary))
			return nil
		},
	}

	cmd.Flags().StringVar(&hardwareFile, "hardware-file", "hardware.csv", "device hardware parameter file")
	cmd.Flags().StringVar(&behaviorFile, "behavior-file", "behavior.csv", "device behavior parameter file")
	cmd.Flags().StringVar(&ouiFile, "oui-file", "oui.txt", "IEEE OUI database file")
	cmd.Flags().StringVar(&datasetType, "dataset-type", string(config.DatasetMulti), "multi, single_switch, single_locked, single_awake, single_active, single_static")
	cmd.Flags().Float64Var(&durationMin, "duration-min", 1.0, "run duration in minutes")
	cmd.Flags().IntVar(&deviceCount, "device-count", 10, "devices created in a multi-device run")
	cmd.Flags().StringVar(&vendor, "vendor", "", "single-device run: vendor to select")
	cmd.Flags().StringVar(&model, "model", "", "single-device run: model to select")
	cmd.Flags().IntVar(&phase, "phase", 2, "single-device run: starting phase (0=Locked,1=Awake,2=Active)")
	cmd.Flags().StringVar(&seed, "seed", "wifisim-default", "RNG seed name")
	cmd.Flags().StringVar(&out, "out", "wifisim_run", "output file prefix")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "sleep wall-clock time between events")

	cmd.Flags().Float64Var(&creationIntervalMultiplier, "creation-interval-multiplier", 1.0, "")
	cmd.Flags().Float64Var(&burstIntervalMultiplier, "burst-interval-multiplier", 1.0, "")
	cmd.Flags().Float64Var(&dwellMultiplier, "dwell-multiplier", 1.0, "")
	cmd.Flags().Float64Var(&envFactor, "env-factor", 1.0, "")
	cmd.Flags().Float64Var(&interferenceProb, "interference-prob", 0.0, "")
	cmd.Flags().Float64Var(&qaSampleRate, "qa-sample-rate", 0.0, "")
	cmd.Flags().StringVar(&macRotationMode, "mac-rotation-mode", string(config.RotationPerBurst), "per_burst, per_phase, interval")
	cmd.Flags().Float64Var(&mobilitySpeedMultiplier, "mobility-speed-multiplier", 1.0, "")
	cmd.Flags().Float64Var(&scaleBetween, "scale-between", 1.0, "")
	cmd.Flags().Float64Var(&spreadBetween, "spread-between", 1.0, "")
	cmd.Flags().Float64Var(&burstGamma, "burst-gamma", 1.0, "")

	return cmd
}
