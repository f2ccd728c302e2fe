package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

const maxPointCode = 1<<14 - 1

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Link.Transport {
	case "udp":
		if net.ParseIP(c.Link.RemoteAddress) == nil {
			errs = append(errs, fmt.Sprintf("link.remote_address must be a valid IP address, got %q", c.Link.RemoteAddress))
		}
		if c.Link.LocalAddress != "" && net.ParseIP(c.Link.LocalAddress) == nil {
			errs = append(errs, fmt.Sprintf("link.local_address must be a valid IP address, got %q", c.Link.LocalAddress))
		}
		if c.Link.LocalPort <= 0 || c.Link.LocalPort > 65535 {
			errs = append(errs, fmt.Sprintf("link.local_port must be between 1 and 65535, got %d", c.Link.LocalPort))
		}
		if c.Link.RemotePort <= 0 || c.Link.RemotePort > 65535 {
			errs = append(errs, fmt.Sprintf("link.remote_port must be between 1 and 65535, got %d", c.Link.RemotePort))
		}
		if c.Link.ResetTimeoutSec < 0 {
			errs = append(errs, "link.reset_timeout_sec must be >= 0")
		}
	case "loopback", "c7":
	default:
		errs = append(errs, fmt.Sprintf("link.transport must be one of udp/loopback/c7, got %q", c.Link.Transport))
	}

	// Point codes are 14 bit ITU
	if c.Link.OPC < 0 || c.Link.OPC > maxPointCode {
		errs = append(errs, fmt.Sprintf("link.opc must be between 0 and %d, got %d", maxPointCode, c.Link.OPC))
	}
	if c.Link.DPC < 0 || c.Link.DPC > maxPointCode {
		errs = append(errs, fmt.Sprintf("link.dpc must be between 0 and %d, got %d", maxPointCode, c.Link.DPC))
	}
	if c.Link.SLS < 0 || c.Link.SLS > 15 {
		errs = append(errs, fmt.Sprintf("link.sls must be between 0 and 15, got %d", c.Link.SLS))
	}
	if c.Link.NI < 0 || c.Link.NI > 3 {
		errs = append(errs, fmt.Sprintf("link.ni must be between 0 and 3, got %d", c.Link.NI))
	}
	if c.Link.DataLink < 0 || c.Link.DataLink > 0xffff {
		errs = append(errs, fmt.Sprintf("link.data_link must fit 16 bits, got %d", c.Link.DataLink))
	}

	if c.MSC.Address == "" {
		errs = append(errs, "msc.address must be specified")
	}
	if c.MSC.Port <= 0 || c.MSC.Port > 65535 {
		errs = append(errs, fmt.Sprintf("msc.port must be between 1 and 65535, got %d", c.MSC.Port))
	}
	if c.MSC.ReconnectSec <= 0 {
		errs = append(errs, "msc.reconnect_sec must be > 0")
	}
	if c.MSC.KeepaliveSec < 0 {
		errs = append(errs, "msc.keepalive_sec must be >= 0")
	}

	if c.Timing.SLTMIntervalSec <= 0 {
		errs = append(errs, "timing.sltm_interval_sec must be > 0")
	}
	if c.Timing.SLTMWindowSec <= 0 {
		errs = append(errs, "timing.sltm_window_sec must be > 0")
	} else if !c.Timing.SLTMOnce && c.Timing.SLTMWindowSec >= c.Timing.SLTMIntervalSec {
		errs = append(errs, "timing.sltm_window_sec must be shorter than timing.sltm_interval_sec")
	}
	if c.Timing.ResetAckTimeoutSec <= 0 {
		errs = append(errs, "timing.reset_ack_timeout_sec must be > 0")
	}
	if c.Timing.TimerTickMs <= 0 {
		errs = append(errs, "timing.timer_tick_ms must be > 0")
	}

	// A replay input must exist when given
	if c.Input.PcapFile != "" {
		if _, err := os.Stat(c.Input.PcapFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("pcap file not found: %s", c.Input.PcapFile))
		}
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			errs = append(errs, fmt.Sprintf("metrics.listen must be host:port, got %q", c.Metrics.Listen))
		}
	}

	if c.Metrics.StatsdAddress != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.StatsdAddress); err != nil {
			errs = append(errs, fmt.Sprintf("metrics.statsd_address must be host:port, got %q", c.Metrics.StatsdAddress))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
