package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
upstream_url: ws://sim.factory.test/ws
journal_cap: 120
reconnect_delay: 5s
logging:
  sinks: [console, json]
  min_severity: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.UpstreamURL != "ws://sim.factory.test/ws" {
		t.Fatalf("upstream not loaded: %q", cfg.UpstreamURL)
	}
	if cfg.JournalCap != 120 {
		t.Fatalf("journal cap not loaded: %d", cfg.JournalCap)
	}
	if cfg.ReconnectDelay != 5*time.Second {
		t.Fatalf("reconnect delay not loaded: %s", cfg.ReconnectDelay)
	}
	if len(cfg.Logging.Sinks) != 2 || cfg.Logging.MinSeverity != "debug" {
		t.Fatalf("logging section not loaded: %+v", cfg.Logging)
	}
	// Keys absent from the file keep their defaults.
	if cfg.ListenAddr != ":8090" {
		t.Fatalf("listen addr default lost: %q", cfg.ListenAddr)
	}
	if cfg.DedupWindow != 2*time.Second {
		t.Fatalf("dedup window default lost: %s", cfg.DedupWindow)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing upstream", func(c *Config) { c.UpstreamURL = "" }},
		{"journal cap too small", func(c *Config) { c.JournalCap = 10 }},
		{"journal cap too large", func(c *Config) { c.JournalCap = 5000 }},
		{"zero reconnect delay", func(c *Config) { c.ReconnectDelay = 0 }},
		{"zero dedup window", func(c *Config) { c.DedupWindow = 0 }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestFlagsOverrideFileValues(t *testing.T) {
	path := writeConfig(t, "upstream_url: ws://file.test/ws\njournal_cap: 120\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse([]string{"--upstream-url=ws://flag.test/ws", "--reconnect-delay=7s"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if cfg.UpstreamURL != "ws://flag.test/ws" {
		t.Fatalf("flag must win over file, got %q", cfg.UpstreamURL)
	}
	if cfg.ReconnectDelay != 7*time.Second {
		t.Fatalf("flag override lost: %s", cfg.ReconnectDelay)
	}
	if cfg.JournalCap != 120 {
		t.Fatalf("file value without a flag must survive: %d", cfg.JournalCap)
	}
}
