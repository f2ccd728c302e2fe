//go:build ignore

// This program generates a sample capture of the UDP link between a
// signalling gateway and the relay, for use with --dry-run.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"udt-relay/internal/mtp"
	"udt-relay/internal/network"
	"udt-relay/internal/sccp"
)

const (
	gatewayPort = 3456
	relayPort   = 1313
)

func main() {
	filename := "test/testdata/sample.pcap"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}

	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		panic(err)
	}

	gwIP := net.ParseIP("192.168.1.10")
	relayIP := net.ParseIP("192.168.1.20")
	gwMAC, _ := net.ParseMAC("00:11:22:33:44:55")
	relayMAC, _ := net.ParseMAC("66:77:88:99:aa:bb")
	ts := time.Now()

	// Helper to write a link datagram as an Ethernet/IP/UDP frame
	writePacket := func(srcIP, dstIP net.IP, srcMAC, dstMAC net.HardwareAddr, srcPort, dstPort uint16, data []byte) {
		eth := &layers.Ethernet{
			SrcMAC:       srcMAC,
			DstMAC:       dstMAC,
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    srcIP,
			DstIP:    dstIP,
		}
		udp := &layers.UDP{
			SrcPort: layers.UDPPort(srcPort),
			DstPort: layers.UDPPort(dstPort),
		}
		udp.SetNetworkLayerForChecksum(ip)

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(data)); err != nil {
			panic(fmt.Sprintf("failed to serialize: %v", err))
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			panic(fmt.Sprintf("failed to write packet: %v", err))
		}
		ts = ts.Add(10 * time.Millisecond)
	}

	fromBSC := func(data []byte) {
		writePacket(gwIP, relayIP, gwMAC, relayMAC, gatewayPort, relayPort, data)
	}
	toBSC := func(data []byte) {
		writePacket(relayIP, gwIP, relayMAC, gwMAC, relayPort, gatewayPort, data)
	}

	sio := mtp.SIO{NI: mtp.NINational, SI: mtp.SISCCP}
	bscLabel := mtp.Label{DPC: 0, OPC: 1, SLS: 13}
	msu := func(payload []byte) []byte {
		m := &mtp.MSU{SIO: sio, Label: bscLabel, Payload: payload}
		return network.EncodeDatagram(network.DataMSUPrio0, 0, m.Encode())
	}

	// === 1. Link up ===
	fromBSC(network.EncodeDatagram(network.DataLinkUp, 0, nil))

	// === 2. Link test from the BSC and the relay's answer ===
	sltm, err := mtp.NewSLTM(mtp.SIO{NI: mtp.NINational}, bscLabel, []byte("BSCTEST"))
	if err != nil {
		panic(err)
	}
	fromBSC(network.EncodeDatagram(network.DataMSUPrio0, 0, sltm))
	slta, _ := mtp.NewSLTA(mtp.SIO{NI: mtp.NINational}, bscLabel, []byte("BSCTEST"))
	toBSC(network.EncodeDatagram(network.DataMSUPrio0, 0, slta))

	// === 3. BSSMAP reset from the BSC ===
	fromBSC(msu(sccp.NewResetUDT(sccp.CauseEquipmentFailure)))

	// === 4. Connectionless data with point codes in both addresses ===
	fromBSC(msu([]byte{
		0x09, 0x00, 0x03,
		0x07, 0x0b, 0x04, 0x43, 0x0a, 0x00, 0xfe, 0x04,
		0x43, 0x5c, 0x00, 0xfe, 0x10, 0x00, 0x0e, 0x44,
		0x04, 0x01, 0x00, 0x01, 0x00, 0x01, 0x1e, 0x05,
		0x1e, 0x00, 0x00, 0x00, 0x40}))

	// === 5. Connection request with a point code in the calling party ===
	fromBSC(msu([]byte{
		0x01, 0x01, 0x04,
		0x00, 0x02, 0x02, 0x06, 0x04, 0xc3, 0x5c, 0x00,
		0xfe, 0x0f, 0x21, 0x00, 0x1f, 0x57, 0x05, 0x08,
		0x00, 0x72, 0xf4, 0x80, 0x23, 0x29, 0xc3, 0x50,
		0x17, 0x10, 0x05, 0x24, 0x11, 0x03, 0x33, 0x19,
		0x81, 0x08, 0x29, 0x47, 0x80, 0x00, 0x00, 0x00,
		0x00, 0x80, 0x21, 0x01, 0x00}))

	// === 6. Assignment complete on an established connection ===
	fromBSC(msu([]byte{
		0x06, 0x01, 0x05,
		0x2b, 0x00, 0x01, 0x09, 0x00, 0x07, 0x02, 0x21,
		0x08, 0x2c, 0x02, 0x40, 0x11}))

	// === 7. Link down ===
	fromBSC(network.EncodeDatagram(network.DataLinkDown, 0, nil))

	fmt.Printf("Generated %s\n", filename)
}
