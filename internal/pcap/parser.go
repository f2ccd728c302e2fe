package pcap

import (
	"fmt"
	"io"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"

	"udt-relay/internal/mtp"
	"udt-relay/internal/network"
	"udt-relay/internal/sccp"
	"udt-relay/pkg/types"
)

// Parser reads PCAP files and extracts the MSUs a BSC sent toward the
// relay. Two capture kinds are understood: bare MTP3 records (as written by
// Tracer) and Ethernet/IP/UDP captures of the UDP link.
type Parser struct {
	// Port is the relay's UDP link port; datagrams sent to it carry BSC MSUs.
	Port uint16
}

// NewParser creates a parser for captures of the UDP link on port.
func NewParser(port uint16) *Parser {
	return &Parser{Port: port}
}

// Parse reads a pcap file and returns the BSC MSUs in capture order.
func (p *Parser) Parse(filename string) ([]types.RawMSU, error) {
	handle, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", filename, err)
	}
	defer handle.Close()

	linkType := handle.LinkType()
	log.WithField("link_type", linkType.String()).Debug("PCAP link type detected")
	return p.parse(linkType, gopacket.NewPacketSource(handle, linkType))
}

// ParseReader reads a capture in pcap format from r.
func (p *Parser) ParseReader(r io.Reader) ([]types.RawMSU, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	return p.parse(reader.LinkType(), gopacket.NewPacketSource(reader, reader.LinkType()))
}

func (p *Parser) parse(linkType layers.LinkType, packetSource *gopacket.PacketSource) ([]types.RawMSU, error) {
	packetSource.DecodeOptions.Lazy = true
	packetSource.DecodeOptions.NoCopy = true

	var msus []types.RawMSU
	totalPackets := 0
	linkPackets := 0

	for packet := range packetSource.Packets() {
		totalPackets++
		ts := packet.Metadata().Timestamp

		if linkType == LinkTypeMTP3 {
			msus = append(msus, types.RawMSU{Data: copyBytes(packet.Data()), Timestamp: ts})
			continue
		}

		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || uint16(udp.DstPort) != p.Port {
			continue
		}
		linkPackets++

		hdr, payload, err := network.DecodeDatagram(udp.Payload)
		if err != nil {
			log.WithError(err).WithField("packet", totalPackets).Warn("Failed to decode link header, skipping")
			continue
		}
		if !hdr.IsMSU() {
			log.WithFields(log.Fields{
				"packet":    totalPackets,
				"data_type": hdr.DataType,
			}).Debug("Skipping link control datagram")
			continue
		}

		var srcIP, dstIP net.IP
		if ipv4Layer := packet.Layer(layers.LayerTypeIPv4); ipv4Layer != nil {
			ipv4, _ := ipv4Layer.(*layers.IPv4)
			srcIP = ipv4.SrcIP
			dstIP = ipv4.DstIP
		} else if ipv6Layer := packet.Layer(layers.LayerTypeIPv6); ipv6Layer != nil {
			ipv6, _ := ipv6Layer.(*layers.IPv6)
			srcIP = ipv6.SrcIP
			dstIP = ipv6.DstIP
		}

		msus = append(msus, types.RawMSU{
			Data:      copyBytes(payload),
			Timestamp: ts,
			SrcIP:     srcIP,
			DstIP:     dstIP,
			SrcPort:   uint16(udp.SrcPort),
			DstPort:   uint16(udp.DstPort),
		})

		log.WithFields(log.Fields{
			"packet": totalPackets,
			"src":    fmt.Sprintf("%s:%d", srcIP, udp.SrcPort),
			"length": len(payload),
		}).Debug("Extracted MSU")
	}

	log.WithFields(log.Fields{
		"total_packets": totalPackets,
		"link_packets":  linkPackets,
		"msus":          len(msus),
	}).Info("PCAP parsing complete")

	return msus, nil
}

// CountMessages summarizes msus by service and, for SCCP, message type,
// e.g. "SCCP/UDT" or "SLTM".
func CountMessages(msus []types.RawMSU) map[string]int {
	counts := make(map[string]int)
	for _, raw := range msus {
		m, err := mtp.Decode(raw.Data)
		if err != nil {
			counts["malformed"]++
			continue
		}
		name := mtp.ServiceName(m.SIO.SI)
		if m.SIO.SI == mtp.SISCCP && len(m.Payload) > 0 {
			name += "/" + sccp.MessageType(m.Payload[0]).String()
		}
		counts[name]++
	}
	return counts
}

// copyBytes detaches packet data from the capture buffer, which NoCopy reuses.
func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
