package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cyicz123/wifisim/internal/autotune"
	"github.com/cyicz123/wifisim/internal/capture"
	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/engine"
	"github.com/cyicz123/wifisim/internal/metrics"
	"github.com/cyicz123/wifisim/internal/ouireg"
	"github.com/cyicz123/wifisim/internal/store"
	"github.com/iti/rngstream"
	"github.com/spf13/cobra"
)

func newAutotuneCmd() *cobra.Command {
	var (
		hardwareFile string
		behaviorFile string
		ouiFile      string
		targetJSON   string
		datasetType  string
		durationMin  float64
		brand        string
		model        string
		maxIters     int
		patience     int
		walltimeSec  int
		initScale    float64
		initSpread   float64
		initGamma    float64
		out          string
		seed         string
	)

	cmd := &cobra.Command{
		Use:   "autotune",
		Short: "Search scaleBetween/spreadBetween/burstGamma against a target metric set",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.InitLogging(logLevel)

			raw, err := os.ReadFile(targetJSON)
			if err != nil {
				return config.Newf(config.MissingResource, targetJSON, 0, "%v", err)
			}
			var target autotune.Target
			if err := json.Unmarshal(raw, &target); err != nil {
				return config.Newf(config.InvalidConfig, targetJSON, 0, "parse target json: %v", err)
			}

			st, err := store.Load(hardwareFile, behaviorFile)
			if err != nil {
				return err
			}
			oui, err := ouireg.Load(ouiFile)
			if err != nil {
				return err
			}

			simulate := func(p autotune.Point) (metrics.Result, error) {
				sc := config.Default()
				sc.DatasetType = config.DatasetType(datasetType)
				sc.DurationSeconds = durationMin * 60
				sc.SingleVendor = brand
				sc.SingleModel = model
				sc.Seed = seed
				sc.OutputPrefix = out + "_probe"
				sc.ScaleBetween = p.ScaleBetween
				sc.SpreadBetween = p.SpreadBetween
				sc.BurstGamma = p.BurstGamma

				writer, err := capture.New(sc.OutputPrefix)
				if err != nil {
					return metrics.Result{}, err
				}
				defer os.Remove(sc.OutputPrefix + ".pcap")
				defer os.Remove(sc.OutputPrefix + ".log")
				defer os.Remove(sc.OutputPrefix + "_probeids.txt")
				defer os.Remove(sc.OutputPrefix + "_devices.csv")

				eng := engine.New(sc, st, oui, writer)
				stats, runErr := eng.Run()
				_ = writer.Close()
				if runErr != nil {
					return metrics.Result{}, runErr
				}
				return stats.Metrics, nil
			}

			cfg := autotune.Config{
				Target: target,
				Initial: autotune.Point{
					ScaleBetween:  initScale,
					SpreadBetween: initSpread,
					BurstGamma:    initGamma,
				},
				MaxIters:       maxIters,
				Patience:       patience,
				WalltimeBudget: time.Duration(walltimeSec) * time.Second,
				RNG:            rngstream.New(seed + "-autotune"),
				Simulate:       simulate,
			}

			result, err := autotune.Run(cfg)
			if err != nil {
				return err
			}
			if err := result.WriteToFile(out + "_result.json"); err != nil {
				return err
			}

			summary, err := json.MarshalIndent(result, "", "\t")
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
	cmd.Flags().StringVar(&targetJSON, "target-json", "", "path to a {mcr,numr,mciv} target JSON file")
	cmd.Flags().StringVar(&datasetType, "dataset-type", string(config.DatasetSingleActive), "dataset type used for each probe simulation")
	cmd.Flags().Float64Var(&durationMin, "duration-min", 1.0, "probe run duration in minutes")
	cmd.Flags().StringVar(&brand, "brand", "", "vendor to hold fixed across the search")
	cmd.Flags().StringVar(&model, "model", "", "model to hold fixed across the search")
	cmd.Flags().IntVar(&maxIters, "max-iters", 30, "maximum search iterations")
	cmd.Flags().IntVar(&patience, "patience", 8, "iterations without improvement before stopping")
	cmd.Flags().IntVar(&walltimeSec, "walltime-sec", 0, "wall-clock budget in seconds, 0 disables it")
	cmd.Flags().Float64Var(&initScale, "init-scale", 1.0, "initial scaleBetween")
	cmd.Flags().Float64Var(&initSpread, "init-spread", 1.0, "initial spreadBetween")
	cmd.Flags().Float64Var(&initGamma, "init-gamma", 1.0, "initial burstGamma")
	cmd.Flags().StringVar(&out, "out", "wifisim_autotune", "output file prefix")
	cmd.Flags().StringVar(&seed, "seed", "wifisim-autotune", "RNG seed name")

	return cmd
}
