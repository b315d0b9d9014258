package ipset

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadExistingAddressesAndCIDR(t *testing.T) {
	input := strings.NewReader("# comment\n10.0.0.1\n\n10.0.1.0/30\n")
	s, err := readExisting(input)
	require.NoError(t, err)

	assert.True(t, s.Contains(netip.MustParseAddr("10.0.0.1")))
	assert.True(t, s.Contains(netip.MustParseAddr("10.0.1.0")))
	assert.True(t, s.Contains(netip.MustParseAddr("10.0.1.3")))
	assert.False(t, s.Contains(netip.MustParseAddr("10.0.1.4")))
	assert.Equal(t, 5, s.Len())
}

func TestReadExistingRejectsBadLine(t *testing.T) {
	_, err := readExisting(strings.NewReader("not-an-ip\n"))
	assert.Error(t, err)
}

func TestSharedMarksAreIndependentOfExisting(t *testing.T) {
	existing := NewSet()
	existing.Add(netip.MustParseAddr("192.168.1.1"))
	shared := NewShared(existing)

	assert.True(t, shared.CheckExisting(netip.MustParseAddr("192.168.1.1")))
	assert.False(t, shared.CheckExisting(netip.MustParseAddr("192.168.1.2")))

	shared.MarkBenign(netip.MustParseAddr("203.0.113.5"))
	shared.MarkScanner(netip.MustParseAddr("203.0.113.6"))

	assert.Equal(t, 1, shared.BenignCount())
	assert.Equal(t, 1, shared.ScannerCount())
}
