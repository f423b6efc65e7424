// Command wifisim synthesizes IEEE 802.11 Probe Request traffic,
// exposing the simulation engine, the calibration loop, and the
// metrics extractor as three subcommands.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:   "wifisim",
		Short: "Probe Request traffic synthesizer and calibration loop",
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newAutotuneCmd())
	rootCmd.AddCommand(newMetricsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("wifisim failed")
		os.Exit(1)
	}
}
