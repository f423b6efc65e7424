package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/metrics"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var (
		capturePrefix  string
		segmentSeconds float64
		jsonOut        string
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Extract MCR/NUMR/MCIV/MAE/T from a prior run's log or stats output",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.InitLogging(logLevel)

			result := metrics.Cascade(
				capturePrefix+"_stats.json",
				capturePrefix+".log",
				capturePrefix+"_probeids.txt",
				segmentSeconds,
			)

			raw, err := json.MarshalIndent(result, "", "\t")
			if err != nil {
				return err
			}
			if jsonOut != "" {
				if err := os.WriteFile(jsonOut, raw, 0o644); err != nil {
					return config.Newf(config.IOFailure, jsonOut, 0, "write metrics json: %v", err)
				}
			}
			fmt.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().StringVar(&capturePrefix, "capture", "", "output prefix of a prior simulate run (required)")
	cmd.Flags().Float64Var(&segmentSeconds, "segment-seconds", 60.0, "segment length for the per-segment metrics")
	cmd.Flags().StringVar(&jsonOut, "json", "", "optional path to also write the result as JSON")
	cmd.MarkFlagRequired("capture")

	return cmd
}
