// Package config loads dashboard configuration from a single YAML file with
// flag overrides. There is no automatic discovery: the file path is explicit
// so configuration stays deterministic and auditable.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the dashboard service configuration.
type Config struct {
	// UpstreamURL is the websocket endpoint of the simulation event stream.
	UpstreamURL string `yaml:"upstream_url"`

	// GatewayURL is the REST base URL for control commands and status polls.
	GatewayURL string `yaml:"gateway_url"`

	// ListenAddr is where the read-only view API binds.
	ListenAddr string `yaml:"listen_addr"`

	// JournalCap bounds the log journal; valid range is 50–500.
	JournalCap int `yaml:"journal_cap"`

	// ReconnectDelay is the fixed pause before every reconnection attempt.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`

	// DedupWindow is the suppression interval for repeated reasoning events.
	DedupWindow time.Duration `yaml:"dedup_window"`

	Logging Logging `yaml:"logging"`
}

// Logging configures the diagnostic router.
type Logging struct {
	Sinks       []string `yaml:"sinks"`
	MinSeverity string   `yaml:"min_severity"`
	JSONPath    string   `yaml:"json_path"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		UpstreamURL:    "ws://localhost:9000/ws",
		GatewayURL:     "http://localhost:9000",
		ListenAddr:     ":8090",
		JournalCap:     200,
		ReconnectDelay: 3 * time.Second,
		DedupWindow:    2 * time.Second,
		Logging: Logging{
			Sinks:       []string{"console"},
			MinSeverity: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot honour.
func (c Config) Validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("config: upstream_url is required")
	}
	if c.JournalCap < 50 || c.JournalCap > 500 {
		return fmt.Errorf("config: journal_cap %d outside range [50, 500]", c.JournalCap)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("config: reconnect_delay must be positive")
	}
	if c.DedupWindow <= 0 {
		return fmt.Errorf("config: dedup_window must be positive")
	}
	return nil
}

// BindFlags registers overrides for the common knobs on the given flag set.
// The flags write straight into the receiver, so parsed flags win over file
// values.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.UpstreamURL, "upstream-url", c.UpstreamURL, "websocket endpoint of the simulation event stream")
	fs.StringVar(&c.GatewayURL, "gateway-url", c.GatewayURL, "REST base URL of the simulation control gateway")
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "address for the view API")
	fs.IntVar(&c.JournalCap, "journal-cap", c.JournalCap, "maximum retained log entries (50-500)")
	fs.DurationVar(&c.ReconnectDelay, "reconnect-delay", c.ReconnectDelay, "fixed delay before reconnect attempts")
	fs.StringSliceVar(&c.Logging.Sinks, "log-sinks", c.Logging.Sinks, "enabled diagnostic sinks (console, json, memory)")
}
