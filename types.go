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

package netscan

import "net/netip"

// Protocol numbers this engine understands. Anything else is ignored
// by the grouper.
const (
	ProtoICMP uint8 = 1
	ProtoTCP  uint8 = 6
	ProtoUDP  uint8 = 17
)

// TCP flag bits, matching the on-the-wire values.
const (
	FlagFIN uint8 = 1 << 0
	FlagSYN uint8 = 1 << 1
	FlagRST uint8 = 1 << 2
	FlagACK uint8 = 1 << 4
)

// FlagsState masks the flags TRW cares about when distinguishing a bare
// SYN probe from everything else.
const FlagsState = FlagFIN | FlagSYN | FlagRST | FlagACK

// FlowRecord is a single observed network flow. Ports and ICMP fields
// are meaningful only for the corresponding protocol.
type FlowRecord struct {
	SrcIP     netip.Addr
	DstIP     netip.Addr
	SrcPort   uint16
	DstPort   uint16
	Proto     uint8
	TCPFlags  uint8
	Bytes     uint64
	Packets   uint64
	StartTime uint32
	EndTime   uint32
	ICMPType  uint8
	ICMPCode  uint8
}

// EventClass is the terminal verdict assigned to an event batch.
type EventClass int

const (
	EventUnknown EventClass = iota
	EventBenign
	EventBackscatter
	EventFlood
	EventScan
)

func (c EventClass) String() string {
	switch c {
	case EventBenign:
		return "benign"
	case EventBackscatter:
		return "backscatter"
	case EventFlood:
		return "flood"
	case EventScan:
		return "scan"
	default:
		return "unknown"
	}
}

// ScanModel selects which classifier(s) a worker runs over an event.
type ScanModel int

const (
	ModelHybrid ScanModel = iota
	ModelTRW
	ModelBLR
)

func (m ScanModel) String() string {
	switch m {
	case ModelTRW:
		return "trw"
	case ModelBLR:
		return "blr"
	default:
		return "hybrid"
	}
}

// EventBatch is a maximal contiguous run of input flows sharing source
// IP and protocol, as produced by the grouper.
type EventBatch struct {
	SrcIP     netip.Addr
	Proto     uint8
	StartTime uint32
	EndTime   uint32
	Flows     []FlowRecord
}

// Size returns the number of flows in the batch.
func (b *EventBatch) Size() int {
	return len(b.Flows)
}

// ProtoMetrics is the per-protocol union of derived ratios and run
// lengths computed by the BLR classifier. Exactly one concrete type
// backs this interface for a given event, chosen by EventBatch.Proto.
type ProtoMetrics interface {
	isProtoMetrics()
}

// ICMPMetrics holds the BLR feature set for ICMP events.
type ICMPMetrics struct {
	MaxClassCSubnetRunLength uint32
	MaxClassCDIPRunLength    uint32
	MaxClassCDIPCount        uint32
	TotalDIPCount            uint32
	EchoRatio                float64
}

func (ICMPMetrics) isProtoMetrics() {}

// TCPMetrics holds the BLR feature set for TCP events.
type TCPMetrics struct {
	NoAckRatio       float64
	SmallRatio       float64
	SPDIPRatio       float64
	PayloadRatio     float64
	UniqueDIPRatio   float64
	BackscatterRatio float64
}

func (TCPMetrics) isProtoMetrics() {}

// UDPMetrics holds the BLR feature set for UDP events.
type UDPMetrics struct {
	SmallRatio           float64
	MaxClassCDIPRunLen   uint32
	MaxLowDPHit          uint32
	MaxLowPortRunLength  uint32
	SPDIPRatio           float64
	PayloadRatio         float64
	UniqueSPRatio        float64
}

func (UDPMetrics) isProtoMetrics() {}

// EventMetrics accumulates during classification of a single event
// batch. It starts out UNKNOWN; a SCAN, FLOOD or BACKSCATTER verdict
// from TRW is final, while any other class can still be changed by BLR.
type EventMetrics struct {
	TotalPackets  uint64
	TotalBytes    uint64
	UniqueDIPs    uint32
	UniqueDsts    uint32
	SPCount       uint32
	UniqueSPCount uint32

	// per-flow accumulators feeding the TCP/UDP/ICMP feature sets
	FlowsNoAck       uint32
	FlowsSmall       uint32
	FlowsWithPayload uint32
	FlowsBackscatter uint32
	FlowsICMPEcho    uint32
	TCPFlagCounts    [64]uint32

	Proto ProtoMetrics

	EventClass      EventClass
	ScanProbability float64
	Model           ScanModel
}

// TRWCounters is per-batch scratch state for the TRW classifier. It is
// discarded with the batch once classification completes.
type TRWCounters struct {
	Flows         uint32
	DIPs          uint32
	Hits          uint32
	Misses        uint32
	SYNs          uint32
	BS            uint32
	FloodResponse uint32
	Likelihood    float64
}

// ScannerRecord is the row emitted for every event classified as a scan.
type ScannerRecord struct {
	SrcIP           netip.Addr
	Proto           uint8
	StartTime       uint32
	EndTime         uint32
	Flows           uint32
	Packets         uint64
	Bytes           uint64
	ScanProbability float64
	Model           ScanModel
}
