package report

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netscan"
)

func scannerRec(ip string, proto uint8, model netscan.ScanModel, flows uint32) netscan.ScannerRecord {
	return netscan.ScannerRecord{
		SrcIP: netip.MustParseAddr(ip),
		Proto: proto,
		Model: model,
		Flows: flows,
		Bytes: uint64(flows) * 60,
	}
}

func TestBuildAggregatesViews(t *testing.T) {
	scanners := []netscan.ScannerRecord{
		scannerRec("198.51.100.1", netscan.ProtoTCP, netscan.ModelTRW, 50),
		scannerRec("198.51.100.1", netscan.ProtoTCP, netscan.ModelTRW, 10),
		scannerRec("198.51.100.2", netscan.ProtoUDP, netscan.ModelBLR, 5),
	}
	summary := netscan.NewSummary().Snapshot()

	r := Build(summary, scanners, time.Unix(0, 0).UTC())

	require.Equal(t, 3, r.ScannerCount)

	require.Len(t, r.ByProtocol, 2)
	require.Equal(t, netscan.ProtoTCP, r.ByProtocol[0].Proto)
	require.Equal(t, 2, r.ByProtocol[0].Count)
	require.Equal(t, uint32(60), r.ByProtocol[0].Flows)

	require.Len(t, r.ByModel, 2)

	require.Len(t, r.TopTalkers, 2)
	require.Equal(t, "198.51.100.1", r.TopTalkers[0].SrcIP)
	require.Equal(t, uint32(60), r.TopTalkers[0].Flows)
}

func TestWriteJSONProducesReadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	r := Build(netscan.NewSummary().Snapshot(), nil, time.Unix(0, 0).UTC())
	require.NoError(t, WriteJSON(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "generated_at")
}
