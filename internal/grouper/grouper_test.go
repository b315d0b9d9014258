package grouper

import (
	"io"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"netscan"
	"netscan/internal/workqueue"
)

type sliceSource struct {
	flows []netscan.FlowRecord
	pos   int
}

func (s *sliceSource) Next() (netscan.FlowRecord, error) {
	if s.pos >= len(s.flows) {
		return netscan.FlowRecord{}, io.EOF
	}
	rec := s.flows[s.pos]
	s.pos++
	return rec, nil
}

func flow(sip string, proto uint8) netscan.FlowRecord {
	return netscan.FlowRecord{
		SrcIP: netip.MustParseAddr(sip),
		DstIP: netip.MustParseAddr("10.0.0.1"),
		Proto: proto,
	}
}

func TestGrouperSplitsOnSIPAndProto(t *testing.T) {
	src := &sliceSource{flows: []netscan.FlowRecord{
		flow("1.1.1.1", netscan.ProtoTCP),
		flow("1.1.1.1", netscan.ProtoTCP),
		flow("1.1.1.1", netscan.ProtoUDP),
		flow("2.2.2.2", netscan.ProtoTCP),
	}}

	q := workqueue.New[netscan.EventBatch](0)
	g := &Grouper{Summary: netscan.NewSummary(), Queue: q, Logger: zap.NewNop()}

	require.NoError(t, g.Run(src))

	var batches []*netscan.EventBatch
	for {
		b, ok := q.Get()
		if !ok {
			break
		}
		batches = append(batches, b)
		q.Done()
		if len(batches) == 3 {
			q.Deactivate()
		}
	}

	require.Len(t, batches, 3)
	assert.Equal(t, 2, batches[0].Size())
	assert.Equal(t, 1, batches[1].Size())
	assert.Equal(t, 1, batches[2].Size())
	assert.Equal(t, uint8(netscan.ProtoTCP), batches[0].Proto)
	assert.Equal(t, uint8(netscan.ProtoUDP), batches[1].Proto)
}

func TestGrouperIgnoresUntrackedProtocol(t *testing.T) {
	src := &sliceSource{flows: []netscan.FlowRecord{
		flow("1.1.1.1", 47), // GRE, not tracked
		flow("1.1.1.1", netscan.ProtoTCP),
	}}

	q := workqueue.New[netscan.EventBatch](0)
	summary := netscan.NewSummary()
	g := &Grouper{Summary: summary, Queue: q, Logger: zap.NewNop()}
	require.NoError(t, g.Run(src))

	snap := summary.Snapshot()
	assert.Equal(t, uint32(1), snap.IgnoredFlows)
	assert.Equal(t, uint32(2), snap.TotalFlows)

	b, ok := q.Get()
	require.True(t, ok)
	assert.Equal(t, 1, b.Size())
}
