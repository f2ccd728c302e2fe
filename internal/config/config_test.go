package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "udp", cfg.Link.Transport)
	assert.Equal(t, 0, cfg.Link.OPC)
	assert.Equal(t, 1, cfg.Link.DPC)
	assert.Equal(t, 13, cfg.Link.SLS)
	assert.Equal(t, 2, cfg.Link.NI)
	assert.Equal(t, 1313, cfg.Link.LocalPort)
	assert.Equal(t, 3456, cfg.Link.RemotePort)
	assert.Equal(t, 180, cfg.Link.ResetTimeoutSec)
	assert.Equal(t, 20, cfg.Timing.SLTMIntervalSec)
	assert.Equal(t, 5, cfg.Timing.SLTMWindowSec)
	assert.Equal(t, "127.0.0.1", cfg.MSC.Address)
	assert.Equal(t, 5000, cfg.MSC.Port)
	assert.True(t, cfg.Patch.Assignment)
	assert.False(t, cfg.Patch.Strict)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Metrics.StatsdAddress)
	assert.Equal(t, "udt_relay", cfg.Metrics.StatsdPrefix)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "udt_relay.yaml")
	yaml := `
link:
  transport: loopback
  opc: 200
  dpc: 300
timing:
  sltm_once: true
queue:
  clear_on_msc_down: true
patch:
  strict: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "loopback", cfg.Link.Transport)
	assert.Equal(t, 200, cfg.Link.OPC)
	assert.Equal(t, 300, cfg.Link.DPC)
	assert.True(t, cfg.Timing.SLTMOnce)
	assert.True(t, cfg.Queue.ClearOnMSCDown)
	assert.True(t, cfg.Patch.Strict)
	// untouched keys keep their defaults
	assert.Equal(t, 13, cfg.Link.SLS)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithViper_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("link.dpc", 42)
	v.Set("link.remote_address", "10.1.2.3")

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Link.DPC)
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Summary(), "dpc=42")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Link.RemoteAddress = "10.1.2.3"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"udp needs remote", func(c *Config) { c.Link.RemoteAddress = "" }, "link.remote_address"},
		{"bad transport", func(c *Config) { c.Link.Transport = "tcp" }, "link.transport"},
		{"opc range", func(c *Config) { c.Link.OPC = 16384 }, "link.opc"},
		{"dpc negative", func(c *Config) { c.Link.DPC = -1 }, "link.dpc"},
		{"sls range", func(c *Config) { c.Link.SLS = 16 }, "link.sls"},
		{"ni range", func(c *Config) { c.Link.NI = 4 }, "link.ni"},
		{"msc port", func(c *Config) { c.MSC.Port = 0 }, "msc.port"},
		{"reconnect", func(c *Config) { c.MSC.ReconnectSec = 0 }, "msc.reconnect_sec"},
		{"window vs interval", func(c *Config) { c.Timing.SLTMWindowSec = 20 }, "shorter than"},
		{"reset timeout", func(c *Config) { c.Timing.ResetAckTimeoutSec = 0 }, "timing.reset_ack_timeout_sec"},
		{"missing pcap", func(c *Config) { c.Input.PcapFile = "/nonexistent/in.pcap" }, "pcap file not found"},
		{"metrics listen", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Listen = "9105" }, "metrics.listen"},
		{"statsd address", func(c *Config) { c.Metrics.StatsdAddress = "localhost" }, "metrics.statsd_address"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_SLTMOnceIgnoresInterval(t *testing.T) {
	cfg := validConfig(t)
	cfg.Timing.SLTMOnce = true
	cfg.Timing.SLTMWindowSec = 30
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Link.OPC = -5
	cfg.MSC.Address = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link.opc")
	assert.Contains(t, err.Error(), "msc.address")
}
