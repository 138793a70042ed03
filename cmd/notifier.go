/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ripple-social/apiserver/config"
	"github.com/ripple-social/apiserver/internal/logging"
	"github.com/ripple-social/apiserver/internal/mailer"
	"github.com/ripple-social/apiserver/internal/notifier"
	"github.com/ripple-social/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// notifierCmd represents the notifier command
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Starts the welcome-email consumer",
	Long: `Starts the worker that consumes user events from the broker and
sends welcome email. Requires MQ_BACKEND and SMTP_* to be configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Env)

		broker, err := server.OpenBroker(cmd.Context(), cfg)
		if err == nil && broker == nil {
			err = errors.New("MQ_BACKEND is required")
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		defer broker.Close()

		mail, err := mailer.New(cfg.SMTP)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to configure mailer: %v\n", err)
			os.Exit(1)
		}

		if err := notifier.New(broker, mail, logger).Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "notifier error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
