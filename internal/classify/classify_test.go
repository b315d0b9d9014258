package classify

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netscan"
	"netscan/internal/ipset"
)

func mustAddr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func synFlow(sip, dip string) netscan.FlowRecord {
	return netscan.FlowRecord{
		SrcIP: mustAddr(sip), DstIP: mustAddr(dip),
		Proto: netscan.ProtoTCP, TCPFlags: netscan.FlagSYN,
		Packets: 1, Bytes: 40,
	}
}

func TestTRWScanAfterFourMisses(t *testing.T) {
	shared := ipset.NewShared(ipset.NewSet())
	batch := &netscan.EventBatch{SrcIP: mustAddr("198.51.100.5"), Proto: netscan.ProtoTCP}
	for i := 1; i <= 4; i++ {
		batch.Flows = append(batch.Flows, synFlow("198.51.100.5", fmt.Sprintf("10.0.0.%d", i)))
	}

	class, counters, prob := RunTRW(batch, shared, DefaultTRWConfig())
	assert.Equal(t, netscan.EventScan, class)
	assert.Equal(t, uint32(4), counters.Misses)
	assert.Greater(t, prob, trwEta1)
	assert.Equal(t, 1, shared.ScannerCount())
}

func TestTRWBenignAfterFourHits(t *testing.T) {
	existing := ipset.NewSet()
	for i := 1; i <= 4; i++ {
		existing.Add(mustAddr(fmt.Sprintf("10.0.0.%d", i)))
	}
	shared := ipset.NewShared(existing)

	batch := &netscan.EventBatch{SrcIP: mustAddr("198.51.100.6"), Proto: netscan.ProtoTCP}
	for i := 1; i <= 4; i++ {
		batch.Flows = append(batch.Flows, synFlow("198.51.100.6", fmt.Sprintf("10.0.0.%d", i)))
	}

	class, counters, prob := RunTRW(batch, shared, DefaultTRWConfig())
	assert.Equal(t, netscan.EventBenign, class)
	assert.Equal(t, uint32(4), counters.Hits)
	assert.Less(t, prob, trwEta0)
	assert.Equal(t, 1, shared.BenignCount())
}

func TestTRWBackscatter(t *testing.T) {
	shared := ipset.NewShared(ipset.NewSet())
	batch := &netscan.EventBatch{SrcIP: mustAddr("198.51.100.7"), Proto: netscan.ProtoTCP}
	for i := 0; i < 101; i++ {
		dip := fmt.Sprintf("10.0.0.%d", (i%5)+1)
		batch.Flows = append(batch.Flows, netscan.FlowRecord{
			SrcIP: mustAddr("198.51.100.7"), DstIP: mustAddr(dip),
			Proto: netscan.ProtoTCP, TCPFlags: netscan.FlagRST,
			Packets: 1, Bytes: 40,
		})
	}

	class, counters, _ := RunTRW(batch, shared, DefaultTRWConfig())
	assert.Equal(t, netscan.EventBackscatter, class)
	assert.Equal(t, uint32(101), counters.Flows)
	assert.Equal(t, uint32(101), counters.BS)
}

func TestTRWFlood(t *testing.T) {
	shared := ipset.NewShared(ipset.NewSet())
	batch := &netscan.EventBatch{SrcIP: mustAddr("198.51.100.8"), Proto: netscan.ProtoTCP}
	for i := 0; i < 10; i++ {
		batch.Flows = append(batch.Flows, synFlow("198.51.100.8", "10.0.0.1"))
	}
	for i := 0; i < 5; i++ {
		batch.Flows = append(batch.Flows, netscan.FlowRecord{
			SrcIP: mustAddr("198.51.100.8"), DstIP: mustAddr("10.0.0.1"),
			Proto: netscan.ProtoTCP, TCPFlags: netscan.FlagRST,
			Packets: 1, Bytes: 40,
		})
	}

	class, counters, _ := RunTRW(batch, shared, DefaultTRWConfig())
	assert.Equal(t, netscan.EventFlood, class)
	assert.Equal(t, uint32(1), counters.DIPs)
}

func TestICMPScanProbabilityCrossesThreshold(t *testing.T) {
	m := &netscan.EventMetrics{
		Proto: netscan.ICMPMetrics{
			MaxClassCSubnetRunLength: 1,
			MaxClassCDIPRunLength:    1,
			MaxClassCDIPCount:        20,
			TotalDIPCount:            20,
			EchoRatio:                1.0,
		},
	}
	calculateICMPScanProbability(m)
	require.Greater(t, m.ScanProbability, 0.5)
	assert.Equal(t, netscan.EventScan, m.EventClass)
}

func TestBLRSkipsEventsBelowFlowThreshold(t *testing.T) {
	batch := &netscan.EventBatch{Proto: netscan.ProtoICMP}
	for i := 0; i < 10; i++ {
		batch.Flows = append(batch.Flows, netscan.FlowRecord{
			SrcIP: mustAddr("198.51.100.9"), DstIP: mustAddr(fmt.Sprintf("10.0.0.%d", i+1)),
			Proto: netscan.ProtoICMP, ICMPType: 8, Packets: 1, Bytes: 40,
		})
	}
	m := &netscan.EventMetrics{}
	require.NoError(t, RunBLR(m, batch))
	assert.Equal(t, netscan.EventUnknown, m.EventClass)
}
