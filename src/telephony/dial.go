// Package telephony places outbound calls through the Twilio REST API.
package telephony

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/square-key-labs/voicebridge/src/logger"
)

// DialerConfig carries the Twilio account credentials and defaults for
// outbound calls.
type DialerConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string // E.164, default caller ID
	TwiMLURL   string // answered calls fetch their TwiML from here
}

// Dialer creates outbound calls that connect the callee to the relay.
type Dialer struct {
	client *twilio.RestClient
	cfg    DialerConfig
	log    *logger.Logger
}

func NewDialer(cfg DialerConfig) (*Dialer, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio account SID and auth token are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Dialer{
		client: client,
		cfg:    cfg,
		log:    logger.WithPrefix("Dialer"),
	}, nil
}

// Call rings toNumber. Empty fromNumber or twimlURL fall back to the
// configured defaults. Returns the call SID.
func (d *Dialer) Call(toNumber, fromNumber, twimlURL string) (string, error) {
	if fromNumber == "" {
		fromNumber = d.cfg.FromNumber
	}
	if twimlURL == "" {
		twimlURL = d.cfg.TwiMLURL
	}
	if fromNumber == "" {
		return "", fmt.Errorf("from number must be provided or configured")
	}
	if twimlURL == "" {
		return "", fmt.Errorf("TwiML URL must be provided or configured")
	}

	d.log.Info("Making call from %s to %s using TwiML URL: %s", fromNumber, toNumber, twimlURL)

	params := &twilioapi.CreateCallParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetUrl(twimlURL)

	call, err := d.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("failed to create call: %w", err)
	}

	sid := ""
	if call.Sid != nil {
		sid = *call.Sid
	}
	d.log.Info("Call initiated with SID: %s", sid)
	return sid, nil
}
