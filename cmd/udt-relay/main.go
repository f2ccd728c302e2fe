package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"udt-relay/internal/config"
	"udt-relay/internal/link"
	"udt-relay/internal/network"
	"udt-relay/internal/pcap"
	"udt-relay/internal/relay"
	"udt-relay/internal/stats"
)

var (
	version = "1.0.0"
	cfgFile string
	dryRun  bool
)

// flagKeys maps CLI override flags to configuration keys.
var flagKeys = map[string]string{
	"pcap":        "trace.pcap_file",
	"input":       "input.pcap_file",
	"transport":   "link.transport",
	"opc":         "link.opc",
	"dpc":         "link.dpc",
	"sls":         "link.sls",
	"ni":          "link.ni",
	"udp-ip":      "link.remote_address",
	"udp-port":    "link.remote_port",
	"src-port":    "link.local_port",
	"msc-address": "msc.address",
	"msc-port":    "msc.port",
	"once":        "timing.sltm_once",
	"strict":      "patch.strict",
	"metrics":     "metrics.listen",
	"statsd":      "metrics.statsd_address",
	"log-level":   "logging.level",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "udt-relay",
		Short: "SCCP relay between a BSC signalling link and an MSC",
		Long: `Relays SCCP messages between a BSC reached over an MTP level 3 link and an
MSC reached over IPA/TCP, rewriting point codes and BSSMAP assignment
details on the way and supervising both sides with BSSMAP resets.`,
		Version: version,
		RunE:    run,
	}

	// Configuration file
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default: udt_relay.yaml)")

	// CLI overrides
	rootCmd.Flags().String("pcap", "", "Trace MSUs exchanged with the BSC to this PCAP file")
	rootCmd.Flags().String("input", "", "PCAP file replayed by --dry-run")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Replay the input PCAP through the relay without any network I/O")
	rootCmd.Flags().String("transport", "", "BSC link transport (udp|loopback|c7)")
	rootCmd.Flags().Int("opc", 0, "Originating point code of the relay")
	rootCmd.Flags().Int("dpc", 0, "Destination point code of the BSC")
	rootCmd.Flags().Int("sls", 0, "Signalling link selection used toward the BSC")
	rootCmd.Flags().Int("ni", 0, "Network indicator")
	rootCmd.Flags().String("udp-ip", "", "Signalling gateway IP address")
	rootCmd.Flags().Int("udp-port", 0, "Signalling gateway UDP port")
	rootCmd.Flags().Int("src-port", 0, "Local UDP port")
	rootCmd.Flags().String("msc-address", "", "MSC address")
	rootCmd.Flags().Int("msc-port", 0, "MSC port")
	rootCmd.Flags().Bool("once", false, "Send a single link test after link up")
	rootCmd.Flags().Bool("strict", false, "Abort on an inconsistent rewrite")
	rootCmd.Flags().Bool("no-assignment-patch", false, "Do not patch BSSMAP assignment messages")
	rootCmd.Flags().String("metrics", "", "Serve Prometheus metrics on this address")
	rootCmd.Flags().String("statsd", "", "Mirror counters to the statsd daemon at this address")
	rootCmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("udt_relay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and CLI flags")
	}

	// Bind CLI flags (override config file values)
	bindViperFlags(v, cmd)

	if noPatch, _ := cmd.Flags().GetBool("no-assignment-patch"); noPatch {
		v.Set("patch.assignment", false)
	}
	if cmd.Flags().Changed("metrics") {
		v.Set("metrics.enabled", true)
	}
	if dryRun {
		v.Set("link.transport", network.TransportLoopback)
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	fmt.Printf("UDT Relay v%s\n", version)
	fmt.Println("==============================")
	fmt.Print(cfg.Summary())
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun && cfg.Input.PcapFile == "" {
		return fmt.Errorf("input.pcap_file must be specified for a dry run")
	}

	instanceID := uuid.NewString()
	log.WithField("instance_id", instanceID).Info("Starting relay")

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statsCollector := stats.NewCollector()
	reporter := stats.NewReporter(statsCollector, cfg.Stats.ReportIntervalSec, cfg.Stats.ExportFile, instanceID)

	var metrics *stats.Metrics
	if cfg.Metrics.Enabled || cfg.Metrics.StatsdAddress != "" {
		metrics = stats.NewMetrics()
		defer metrics.Close()
	}
	if cfg.Metrics.Enabled {
		metrics.Serve(ctx, cfg.Metrics.Listen)
	}
	if cfg.Metrics.StatsdAddress != "" {
		if err := metrics.EnableStatsd(cfg.Metrics.StatsdAddress, cfg.Metrics.StatsdPrefix); err != nil {
			log.WithError(err).Warn("Statsd export disabled")
		}
	}

	bsc, err := network.New(cfg.Link.Transport, network.UDPOptions{
		LocalAddr:    cfg.Link.LocalAddress,
		LocalPort:    cfg.Link.LocalPort,
		RemoteAddr:   cfg.Link.RemoteAddress,
		RemotePort:   cfg.Link.RemotePort,
		DataLink:     uint16(cfg.Link.DataLink),
		Activator:    network.LogActivator{Host: cfg.Link.RemoteAddress},
		ResetTimeout: cfg.Link.ResetTimeoutSec,
	})
	if err != nil {
		return fmt.Errorf("failed to create BSC transport: %w", err)
	}

	timers := link.NewTimers(time.Duration(cfg.Timing.TimerTickMs) * time.Millisecond)
	l := link.New(uint16(cfg.Link.OPC), uint16(cfg.Link.DPC), uint8(cfg.Link.SLS), uint8(cfg.Link.NI), 0)
	opts := relay.Options{
		ResetTimeout:      time.Duration(cfg.Timing.ResetAckTimeoutSec) * time.Second,
		SLTMInterval:      time.Duration(cfg.Timing.SLTMIntervalSec) * time.Second,
		SLTMWindow:        time.Duration(cfg.Timing.SLTMWindowSec) * time.Second,
		SLTMOnce:          cfg.Timing.SLTMOnce,
		KeepaliveInterval: time.Duration(cfg.MSC.KeepaliveSec) * time.Second,
		PatchAssignment:   cfg.Patch.Assignment,
		Strict:            cfg.Patch.Strict,
		ClearOnMSCDown:    cfg.Queue.ClearOnMSCDown,
	}

	var tracer *pcap.Tracer
	if cfg.Trace.PcapFile != "" {
		tracer, err = pcap.NewTracer(cfg.Trace.PcapFile)
		if err != nil {
			return err
		}
		defer tracer.Close()
	}

	if dryRun {
		msc := network.NewMemoryLink()
		r := relay.New(opts, l, bsc, msc, timers, statsCollector)
		if metrics != nil {
			r.SetMetrics(metrics)
		}
		if tracer != nil {
			r.SetTracer(tracer)
		}
		if err := replay(r, msc, cfg); err != nil {
			return err
		}
		finish(cfg, reporter)
		return nil
	}

	mscAddr := net.JoinHostPort(cfg.MSC.Address, strconv.Itoa(cfg.MSC.Port))
	msc := network.NewMSCConn(mscAddr, cfg.MSC.UnitName, time.Duration(cfg.MSC.ReconnectSec)*time.Second)

	r := relay.New(opts, l, bsc, msc, timers, statsCollector)
	if metrics != nil {
		r.SetMetrics(metrics)
	}
	if tracer != nil {
		r.SetTracer(tracer)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGUSR2 {
				log.Info("Closing the MSC connection on request")
				r.CloseMSCConnection()
				continue
			}
			log.WithField("signal", sig).Info("Received shutdown signal")
			cancel()
			return
		}
	}()

	if cfg.Stats.Enabled {
		reporter.StartPeriodicReport(ctx)
	}
	timers.StartMonitor(ctx)

	if err := bsc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start BSC transport: %w", err)
	}
	// The MSC connection outlives ctx so the reset sent by Shutdown still
	// reaches the MSC; Shutdown closes it.
	if err := msc.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start MSC connection: %w", err)
	}

	if err := r.Run(ctx, timers.C); err != nil {
		log.WithError(err).Error("Relay stopped")
	}

	finish(cfg, reporter)
	return nil
}

func finish(cfg *config.Config, reporter *stats.Reporter) {
	if !cfg.Stats.Enabled {
		return
	}
	reporter.PrintFinalReport()
	if err := reporter.ExportJSON(); err != nil {
		log.WithError(err).Warn("Failed to export statistics")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).Warn("Failed to open log file, using console only")
		} else {
			log.SetOutput(f)
		}
	}
}

func bindViperFlags(v *viper.Viper, cmd *cobra.Command) {
	for flag, key := range flagKeys {
		if cmd.Flags().Changed(flag) {
			v.Set(key, cmd.Flags().Lookup(flag).Value.String())
		}
	}
}
