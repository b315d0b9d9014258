package flowreader

import (
	"testing"

	"github.com/dreadl0ck/gopacket"
	"github.com/dreadl0ck/gopacket/layers"
	"github.com/stretchr/testify/require"

	"netscan"
)

func buildTCPPacket(t *testing.T, syn, ack bool) gopacket.Packet {
	t.Helper()

	eth := &layers.Ethernet{EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    []byte{198, 51, 100, 9},
		DstIP:    []byte{203, 0, 113, 4},
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: 51000,
		DstPort: 22,
		SYN:     syn,
		ACK:     ack,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp))

	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestPacketToFlowDecodesTCP(t *testing.T) {
	pkt := buildTCPPacket(t, true, false)

	rec, ok := packetToFlow(pkt)
	require.True(t, ok)

	require.Equal(t, netscan.ProtoTCP, rec.Proto)
	require.Equal(t, uint16(51000), rec.SrcPort)
	require.Equal(t, uint16(22), rec.DstPort)
	require.Equal(t, "198.51.100.9", rec.SrcIP.String())
	require.Equal(t, "203.0.113.4", rec.DstIP.String())
	require.NotZero(t, rec.TCPFlags&netscan.FlagSYN)
	require.Zero(t, rec.TCPFlags&netscan.FlagACK)
}

func TestPacketToFlowSkipsUnknownTransport(t *testing.T) {
	eth := &layers.Ethernet{EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    []byte{198, 51, 100, 9},
		DstIP:    []byte{203, 0, 113, 4},
		Protocol: layers.IPProtocolIGMP,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip))
	pkt := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)

	_, ok := packetToFlow(pkt)
	require.False(t, ok)
}
