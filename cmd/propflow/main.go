package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/propflow/propflow/internal/metrics"
)

const version = "v1.2.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// Initialize metrics system
	metrics.Initialize()

	rootCmd := &cobra.Command{
		Use:     "propflow",
		Short:   "Plan-gated prop firm tracking API",
		Version: version,
		Long: `PropFlow serves the dashboard API for tracking prop-trading firms.

Selections follow a pending/committed edit model: toggles and custom
firms accumulate as pending changes until an explicit save or discard,
with selection capacity and custom-firm access gated by the account's
subscription plan.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
