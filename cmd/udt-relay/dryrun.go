package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"udt-relay/internal/config"
	"udt-relay/internal/network"
	"udt-relay/internal/pcap"
	"udt-relay/internal/relay"
	"udt-relay/internal/sccp"
	"udt-relay/pkg/types"
)

// replay feeds the BSC MSUs of the input capture through r. The MSC side is
// a memory link that acknowledges the initial reset, so traffic flows as it
// would on a healthy relay.
func replay(r *relay.Relay, msc *network.MemoryLink, cfg *config.Config) error {
	parser := pcap.NewParser(uint16(cfg.Link.LocalPort))
	msus, err := parser.Parse(cfg.Input.PcapFile)
	if err != nil {
		return fmt.Errorf("failed to parse pcap: %w", err)
	}
	if len(msus) == 0 {
		return fmt.Errorf("no MSUs found in pcap file")
	}

	fmt.Printf("Found %d MSUs\n", len(msus))
	for name, n := range pcap.CountMessages(msus) {
		fmt.Printf("  %-20s %d\n", name, n)
	}
	fmt.Println()

	r.OnTransportEvent(types.TransportEvent{Kind: types.EventLinkUp, Source: types.FromBSC})
	r.OnTransportEvent(types.TransportEvent{Kind: types.EventConnected, Source: types.FromMSC})
	r.OnMessageFromMSC(sccp.NewResetAckUDT())

	for i, raw := range msus {
		log.WithFields(log.Fields{
			"msu":    i + 1,
			"length": len(raw.Data),
		}).Debug("Replaying MSU")
		r.OnMessageFromBSC(raw.Data)
	}

	r.Shutdown()
	fmt.Printf("Dry-run complete: %d messages would have been sent to the MSC, relay ended in state %s\n",
		len(msc.Sent()), r.State())
	return nil
}
