package pcap

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udt-relay/internal/mtp"
	"udt-relay/internal/network"
	"udt-relay/internal/sccp"
	"udt-relay/pkg/types"
)

func testMSU(si uint8, payload []byte) []byte {
	m := &mtp.MSU{
		SIO:     mtp.SIO{NI: mtp.NINational, SI: si},
		Label:   mtp.Label{DPC: 0, OPC: 1, SLS: 13},
		Payload: payload,
	}
	return m.Encode()
}

func TestTracer_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracerWriter(&buf)
	require.NoError(t, err)

	reset := testMSU(mtp.SISCCP, sccp.NewResetUDT(sccp.CauseEquipmentFailure))
	sltm, err := mtp.NewSLTM(mtp.SIO{NI: mtp.NINational, SI: mtp.SITest}, mtp.Label{DPC: 1}, mtp.DefaultTestPattern)
	require.NoError(t, err)

	require.NoError(t, tr.WriteMSU(types.FromBSC, reset))
	require.NoError(t, tr.WriteMSU(types.FromMSC, sltm))
	require.NoError(t, tr.Close())

	msus, err := NewParser(1313).ParseReader(&buf)
	require.NoError(t, err)
	require.Len(t, msus, 2)
	assert.Equal(t, reset, msus[0].Data)
	assert.Equal(t, sltm, msus[1].Data)
	assert.False(t, msus[0].Timestamp.IsZero())
}

func TestTracer_HeaderLinkType(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewTracerWriter(&buf)
	require.NoError(t, err)

	r, err := pcapgo.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, LinkTypeMTP3, r.LinkType())
}

func TestNewTracer_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcap")
	tr, err := NewTracer(path)
	require.NoError(t, err)
	require.NoError(t, tr.WriteMSU(types.FromBSC, testMSU(mtp.SISCCP, []byte{0x09})))
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(24))
}

func writeUDP(t *testing.T, w *pcapgo.Writer, srcPort, dstPort uint16, payload []byte, ts time.Time) {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))

	ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(buf.Bytes()), Length: len(buf.Bytes())}
	require.NoError(t, w.WritePacket(ci, buf.Bytes()))
}

func TestParser_UDPLinkCapture(t *testing.T) {
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))

	ts := time.Unix(1700000000, 0)
	reset := testMSU(mtp.SISCCP, sccp.NewResetUDT(sccp.CauseEquipmentFailure))

	writeUDP(t, w, 3456, 1313, network.EncodeDatagram(network.DataLinkUp, 0, nil), ts)
	writeUDP(t, w, 3456, 1313, network.EncodeDatagram(network.DataMSUPrio0, 0, reset), ts.Add(time.Second))
	// relay to BSC, not replayed
	writeUDP(t, w, 1313, 3456, network.EncodeDatagram(network.DataMSUPrio0, 0, reset), ts.Add(2*time.Second))
	// other traffic
	writeUDP(t, w, 5000, 5001, []byte{0x01, 0x02}, ts.Add(3*time.Second))
	// broken header
	writeUDP(t, w, 3456, 1313, []byte{0x02, 0x00}, ts.Add(4*time.Second))

	msus, err := NewParser(1313).ParseReader(&buf)
	require.NoError(t, err)
	require.Len(t, msus, 1)
	assert.Equal(t, reset, msus[0].Data)
	assert.Equal(t, uint16(3456), msus[0].SrcPort)
	assert.Equal(t, "10.0.0.1", msus[0].SrcIP.String())
	assert.True(t, msus[0].Timestamp.Equal(ts.Add(time.Second)))
}

func TestParser_RejectsGarbage(t *testing.T) {
	_, err := NewParser(1313).ParseReader(bytes.NewReader([]byte("not a pcap file at all")))
	assert.Error(t, err)

	_, err = NewParser(1313).Parse(filepath.Join(t.TempDir(), "missing.pcap"))
	assert.Error(t, err)
}

func TestCountMessages(t *testing.T) {
	sltm, err := mtp.NewSLTM(mtp.SIO{NI: mtp.NINational, SI: mtp.SITest}, mtp.Label{}, nil)
	require.NoError(t, err)

	counts := CountMessages([]types.RawMSU{
		{Data: testMSU(mtp.SISCCP, sccp.NewResetUDT(sccp.CauseEquipmentFailure))},
		{Data: testMSU(mtp.SISCCP, sccp.NewResetAckUDT())},
		{Data: sltm},
		{Data: []byte{0x83}},
	})
	assert.Equal(t, map[string]int{"SCCP/UDT": 2, "SLTM": 1, "malformed": 1}, counts)
}
