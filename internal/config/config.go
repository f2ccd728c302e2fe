package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the relay.
type Config struct {
	Link    LinkConfig    `yaml:"link"    mapstructure:"link"`
	MSC     MSCConfig     `yaml:"msc"     mapstructure:"msc"`
	Timing  TimingConfig  `yaml:"timing"  mapstructure:"timing"`
	Queue   QueueConfig   `yaml:"queue"   mapstructure:"queue"`
	Patch   PatchConfig   `yaml:"patch"   mapstructure:"patch"`
	Input   InputConfig   `yaml:"input"   mapstructure:"input"`
	Trace   TraceConfig   `yaml:"trace"   mapstructure:"trace"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Stats   StatsConfig   `yaml:"stats"   mapstructure:"stats"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LinkConfig describes the signalling link toward the BSC. In UDP mode the
// remote address is also the host of the link activation channel.
type LinkConfig struct {
	Transport       string `yaml:"transport"         mapstructure:"transport"`
	OPC             int    `yaml:"opc"               mapstructure:"opc"`
	DPC             int    `yaml:"dpc"               mapstructure:"dpc"`
	SLS             int    `yaml:"sls"               mapstructure:"sls"`
	NI              int    `yaml:"ni"                mapstructure:"ni"`
	LocalAddress    string `yaml:"local_address"     mapstructure:"local_address"`
	LocalPort       int    `yaml:"local_port"        mapstructure:"local_port"`
	RemoteAddress   string `yaml:"remote_address"    mapstructure:"remote_address"`
	RemotePort      int    `yaml:"remote_port"       mapstructure:"remote_port"`
	DataLink        int    `yaml:"data_link"         mapstructure:"data_link"`
	ResetTimeoutSec int    `yaml:"reset_timeout_sec" mapstructure:"reset_timeout_sec"`
}

type MSCConfig struct {
	Address      string `yaml:"address"       mapstructure:"address"`
	Port         int    `yaml:"port"          mapstructure:"port"`
	UnitName     string `yaml:"unit_name"     mapstructure:"unit_name"`
	ReconnectSec int    `yaml:"reconnect_sec" mapstructure:"reconnect_sec"`
	KeepaliveSec int    `yaml:"keepalive_sec" mapstructure:"keepalive_sec"`
}

type TimingConfig struct {
	SLTMIntervalSec    int  `yaml:"sltm_interval_sec"     mapstructure:"sltm_interval_sec"`
	SLTMWindowSec      int  `yaml:"sltm_window_sec"       mapstructure:"sltm_window_sec"`
	SLTMOnce           bool `yaml:"sltm_once"             mapstructure:"sltm_once"`
	ResetAckTimeoutSec int  `yaml:"reset_ack_timeout_sec" mapstructure:"reset_ack_timeout_sec"`
	TimerTickMs        int  `yaml:"timer_tick_ms"         mapstructure:"timer_tick_ms"`
}

type QueueConfig struct {
	ClearOnMSCDown bool `yaml:"clear_on_msc_down" mapstructure:"clear_on_msc_down"`
}

type PatchConfig struct {
	Assignment bool `yaml:"assignment" mapstructure:"assignment"`
	Strict     bool `yaml:"strict"     mapstructure:"strict"`
}

// InputConfig names the capture replayed by a dry run.
type InputConfig struct {
	PcapFile string `yaml:"pcap_file" mapstructure:"pcap_file"`
}

type TraceConfig struct {
	PcapFile string `yaml:"pcap_file" mapstructure:"pcap_file"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"   mapstructure:"level"`
	File    string `yaml:"file"    mapstructure:"file"`
	Console bool   `yaml:"console" mapstructure:"console"`
}

type StatsConfig struct {
	Enabled           bool   `yaml:"enabled"             mapstructure:"enabled"`
	ReportIntervalSec int    `yaml:"report_interval_sec" mapstructure:"report_interval_sec"`
	ExportFile        string `yaml:"export_file"         mapstructure:"export_file"`
}

type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"        mapstructure:"enabled"`
	Listen        string `yaml:"listen"         mapstructure:"listen"`
	StatsdAddress string `yaml:"statsd_address" mapstructure:"statsd_address"`
	StatsdPrefix  string `yaml:"statsd_prefix"  mapstructure:"statsd_prefix"`
}

// SetDefaults configures default values for the configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("link.transport", "udp")
	v.SetDefault("link.opc", 0)
	v.SetDefault("link.dpc", 1)
	v.SetDefault("link.sls", 13)
	v.SetDefault("link.ni", 2)
	v.SetDefault("link.local_address", "0.0.0.0")
	v.SetDefault("link.local_port", 1313)
	v.SetDefault("link.remote_port", 3456)
	v.SetDefault("link.reset_timeout_sec", 180)
	v.SetDefault("msc.address", "127.0.0.1")
	v.SetDefault("msc.port", 5000)
	v.SetDefault("msc.unit_name", "udt-relay")
	v.SetDefault("msc.reconnect_sec", 20)
	v.SetDefault("msc.keepalive_sec", 30)
	v.SetDefault("timing.sltm_interval_sec", 20)
	v.SetDefault("timing.sltm_window_sec", 5)
	v.SetDefault("timing.sltm_once", false)
	v.SetDefault("timing.reset_ack_timeout_sec", 20)
	v.SetDefault("timing.timer_tick_ms", 100)
	v.SetDefault("queue.clear_on_msc_down", false)
	v.SetDefault("patch.assignment", true)
	v.SetDefault("patch.strict", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("stats.enabled", true)
	v.SetDefault("stats.report_interval_sec", 60)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9105")
	v.SetDefault("metrics.statsd_prefix", "udt_relay")
}

// Load reads configuration from a YAML file and returns a Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

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

// LoadWithViper reads configuration using an existing viper instance (for CLI flag binding).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Summary returns a human-readable summary of the configuration.
func (c *Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Transport:     %s\n", c.Link.Transport))
	sb.WriteString(fmt.Sprintf("  Point codes:   opc=%d dpc=%d sls=%d ni=%d\n", c.Link.OPC, c.Link.DPC, c.Link.SLS, c.Link.NI))
	sb.WriteString(fmt.Sprintf("  BSC link:      %s:%d -> %s:%d\n", c.Link.LocalAddress, c.Link.LocalPort, c.Link.RemoteAddress, c.Link.RemotePort))
	sb.WriteString(fmt.Sprintf("  MSC:           %s:%d (reconnect %ds)\n", c.MSC.Address, c.MSC.Port, c.MSC.ReconnectSec))
	sb.WriteString(fmt.Sprintf("  SLTM:          every %ds, window %ds, once=%v\n", c.Timing.SLTMIntervalSec, c.Timing.SLTMWindowSec, c.Timing.SLTMOnce))
	sb.WriteString(fmt.Sprintf("  Reset timeout: %ds\n", c.Timing.ResetAckTimeoutSec))
	sb.WriteString(fmt.Sprintf("  Patching:      assignment=%v strict=%v\n", c.Patch.Assignment, c.Patch.Strict))
	if c.Trace.PcapFile != "" {
		sb.WriteString(fmt.Sprintf("  Trace:         %s\n", c.Trace.PcapFile))
	}
	if c.Metrics.StatsdAddress != "" {
		sb.WriteString(fmt.Sprintf("  Statsd:        %s (prefix %s)\n", c.Metrics.StatsdAddress, c.Metrics.StatsdPrefix))
	}
	return sb.String()
}
