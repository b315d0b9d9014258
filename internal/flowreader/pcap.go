/*
 * netscan - flow-based scanner detection engine
 * Copyright (c) 2020-2026 The netscan Authors
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHORS DISCLAIM ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package flowreader

import (
	"io"
	"net/netip"
	"os"

	"github.com/dreadl0ck/gopacket"
	"github.com/dreadl0ck/gopacket/layers"
	"github.com/dreadl0ck/gopacket/pcapgo"
	"github.com/pkg/errors"

	"netscan"
)

// PcapReader decodes captured packets into FlowRecord values. Unlike
// the text format, a capture carries no pre-aggregated flow; each
// packet becomes its own single-packet FlowRecord, which is a
// reasonable approximation for the classifiers (a scan shows up as
// many one-packet SYNs regardless of which reader produced them) but
// means the grouper will see far more, smaller "flows" than a true
// flow export would for the same traffic.
type PcapReader struct {
	src *gopacket.PacketSource
}

// NewPcapReader opens a pcap or pcapng capture at path.
func NewPcapReader(path string) (*PcapReader, io.Closer, error) {
	f, err := openPcapHandle(path)
	if err != nil {
		return nil, nil, err
	}
	return &PcapReader{src: f.source}, f.closer, nil
}

type pcapHandle struct {
	source *gopacket.PacketSource
	closer io.Closer
}

func openPcapHandle(path string) (*pcapHandle, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening capture %q", path)
	}

	ngReader, err := pcapgo.NewNgReader(fh, pcapgo.DefaultNgReaderOptions)
	if err == nil {
		return &pcapHandle{
			source: gopacket.NewPacketSource(ngReader, ngReader.LinkType()),
			closer: fh,
		}, nil
	}

	if _, seekErr := fh.Seek(0, io.SeekStart); seekErr != nil {
		fh.Close()
		return nil, errors.Wrap(seekErr, "rewinding capture")
	}

	reader, err := pcapgo.NewReader(fh)
	if err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "opening %q as pcap or pcapng", path)
	}
	return &pcapHandle{
		source: gopacket.NewPacketSource(reader, reader.LinkType()),
		closer: fh,
	}, nil
}

// Next decodes the next packet into a FlowRecord, skipping packets
// that carry neither TCP, UDP, nor ICMP, until the capture is
// exhausted.
func (p *PcapReader) Next() (netscan.FlowRecord, error) {
	for {
		packet, err := p.src.NextPacket()
		if err != nil {
			if err == io.EOF {
				return netscan.FlowRecord{}, io.EOF
			}
			return netscan.FlowRecord{}, errors.Wrap(err, "decoding packet")
		}
		rec, ok := packetToFlow(packet)
		if ok {
			return rec, nil
		}
	}
}

func packetToFlow(packet gopacket.Packet) (netscan.FlowRecord, bool) {
	netLayer := packet.NetworkLayer()
	if netLayer == nil {
		return netscan.FlowRecord{}, false
	}
	flow := netLayer.NetworkFlow()
	src, dst := flow.Endpoints()

	sip, ok := netip.AddrFromSlice(src.Raw())
	if !ok {
		return netscan.FlowRecord{}, false
	}
	dip, ok := netip.AddrFromSlice(dst.Raw())
	if !ok {
		return netscan.FlowRecord{}, false
	}

	rec := netscan.FlowRecord{
		SrcIP:   sip.Unmap(),
		DstIP:   dip.Unmap(),
		Packets: 1,
		Bytes:   uint64(len(packet.Data())),
	}
	if ts := packet.Metadata().Timestamp; !ts.IsZero() {
		rec.StartTime = uint32(ts.Unix())
		rec.EndTime = rec.StartTime
	}

	switch {
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		rec.Proto = netscan.ProtoTCP
		rec.SrcPort = uint16(tcp.SrcPort)
		rec.DstPort = uint16(tcp.DstPort)
		rec.TCPFlags = tcpFlagsToByte(tcp)
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		rec.Proto = netscan.ProtoUDP
		rec.SrcPort = uint16(udp.SrcPort)
		rec.DstPort = uint16(udp.DstPort)
	case packet.Layer(layers.LayerTypeICMPv4) != nil:
		icmp := packet.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
		rec.Proto = netscan.ProtoICMP
		rec.ICMPType = icmp.TypeCode.Type()
		rec.ICMPCode = icmp.TypeCode.Code()
	default:
		return netscan.FlowRecord{}, false
	}

	return rec, true
}

func tcpFlagsToByte(tcp *layers.TCP) uint8 {
	var f uint8
	if tcp.FIN {
		f |= netscan.FlagFIN
	}
	if tcp.SYN {
		f |= netscan.FlagSYN
	}
	if tcp.RST {
		f |= netscan.FlagRST
	}
	if tcp.ACK {
		f |= netscan.FlagACK
	}
	return f
}
