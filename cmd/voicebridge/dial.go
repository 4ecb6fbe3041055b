package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/square-key-labs/voicebridge/src/config"
	"github.com/square-key-labs/voicebridge/src/telephony"
)

func newDialCmd() *cobra.Command {
	var fromNumber, twimlURL string

	cmd := &cobra.Command{
		Use:   "dial <to-number>",
		Short: "Place an outbound call that connects to the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			dialer, err := telephony.NewDialer(telephony.DialerConfig{
				AccountSID: cfg.TwilioAccountSID,
				AuthToken:  cfg.TwilioAuthToken,
				FromNumber: cfg.TwilioPhoneNumber,
				TwiMLURL:   cfg.TwilioTwiMLURL,
			})
			if err != nil {
				return err
			}

			sid, err := dialer.Call(args[0], fromNumber, twimlURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Call initiated with SID: %s\n", sid)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromNumber, "from", "", "caller ID in E.164 format (defaults to TWILIO_PHONE_NUMBER)")
	cmd.Flags().StringVar(&twimlURL, "twiml-url", "", "TwiML URL for the call (defaults to TWILIO_TWIML_URL)")
	return cmd
}
