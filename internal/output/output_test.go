package output

import (
	"bytes"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netscan"
)

func TestWriteScanPlainColumns(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, DefaultOptions())
	require.NoError(t, err)

	rec := netscan.ScannerRecord{
		SrcIP: netip.MustParseAddr("198.51.100.5"),
		Proto: netscan.ProtoTCP,
		Flows: 42, Packets: 42, Bytes: 1680,
	}
	require.NoError(t, w.WriteScan(rec))
	require.NoError(t, w.Close())

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "sip")
	assert.Contains(t, lines[1], "198.51.100.5")
	assert.Contains(t, lines[1], "42")
}

func TestWriteScanModelFields(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.ModelFields = true
	opts.NoTitles = true
	w, err := New(&buf, opts)
	require.NoError(t, err)

	rec := netscan.ScannerRecord{
		SrcIP: netip.MustParseAddr("198.51.100.6"),
		Proto: netscan.ProtoTCP,
		Model: netscan.ModelTRW, ScanProbability: 123.456,
	}
	require.NoError(t, w.WriteScan(rec))
	require.NoError(t, w.Close())

	assert.Contains(t, buf.String(), "123.456000")
}

func TestWriteScanCompressed(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Compress = true
	w, err := New(&buf, opts)
	require.NoError(t, err)

	rec := netscan.ScannerRecord{SrcIP: netip.MustParseAddr("198.51.100.7"), Proto: netscan.ProtoUDP}
	require.NoError(t, w.WriteScan(rec))
	require.NoError(t, w.Close())

	assert.NotZero(t, buf.Len())
	assert.Equal(t, byte(0x1f), buf.Bytes()[0])
	assert.Equal(t, byte(0x8b), buf.Bytes()[1])
}
