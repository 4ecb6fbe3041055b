package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/square-key-labs/voicebridge/src/logger"
)

var configFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voicebridge",
		Short: "Telephony bridge for the Deepgram Voice Agent",
		Long: "Voicebridge relays live call audio between Twilio media streams and the\n" +
			"Deepgram Voice Agent, and handles the agent's appointment scheduling\n" +
			"function calls against Google Calendar.",
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.Init()
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (environment variables take precedence)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDialCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
