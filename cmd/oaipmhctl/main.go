// oaipmhctl is the OAI-PMH data provider command line utility: it syncs
// the local mirror from the upstream kernel and serves the OAI-PMH
// protocol endpoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "oaipmhctl",
	Short:         "SciELO OAI-PMH data provider command line utility.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			level = log.InfoLevel
		}
		log.SetLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "log verbosity (debug, info, warn, error)")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("interrupted; terminating the program")
			// Shell convention: a program killed by signal N exits
			// with 128 + N.
			os.Exit(130)
		}
		log.WithError(err).Error("an unexpected error has occurred")
		os.Exit(1)
	}
}
