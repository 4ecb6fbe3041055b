// Package config loads runtime settings from the environment, with an
// optional .env-style config file for local development.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds everything the relay and its CLI need to run.
type Config struct {
	// Server
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Voice agent
	DeepgramAPIKey        string `mapstructure:"deepgram_api_key"`
	DeepgramVoice         string `mapstructure:"deepgram_voice"`
	DeepgramListenModel   string `mapstructure:"deepgram_listen_model"`
	DeepgramThinkModel    string `mapstructure:"deepgram_think_model"`
	DeepgramThinkProvider string `mapstructure:"deepgram_think_provider"`

	// Audio coalescing: telephony chunks per agent-bound frame.
	FrameMultiple int `mapstructure:"frame_multiple"`

	// Calendar backend
	CalendarID       string `mapstructure:"calendar_id"`
	CalendarTimeZone string `mapstructure:"calendar_timezone"`

	// Outbound dialing
	TwilioAccountSID  string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken   string `mapstructure:"twilio_auth_token"`
	TwilioPhoneNumber string `mapstructure:"twilio_phone_number"`
	TwilioTwiMLURL    string `mapstructure:"twilio_twiml_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5000)

	v.SetDefault("deepgram_api_key", "")
	v.SetDefault("deepgram_voice", "aura-asteria-en")
	v.SetDefault("deepgram_listen_model", "nova-3")
	v.SetDefault("deepgram_think_model", "gpt-4o-mini")
	v.SetDefault("deepgram_think_provider", "open_ai")

	v.SetDefault("frame_multiple", 20)

	v.SetDefault("calendar_id", "primary")
	v.SetDefault("calendar_timezone", "America/New_York")

	v.SetDefault("twilio_account_sid", "")
	v.SetDefault("twilio_auth_token", "")
	v.SetDefault("twilio_phone_number", "")
	v.SetDefault("twilio_twiml_url", "")
}

// Load reads configuration from environment variables, optionally layered
// over a config file (empty path skips the file).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings required to serve calls.
func (c *Config) Validate() error {
	if c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.FrameMultiple <= 0 {
		return fmt.Errorf("frame_multiple must be positive, got %d", c.FrameMultiple)
	}
	return nil
}

// Addr is the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
