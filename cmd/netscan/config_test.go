package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netscan"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags([]string{"flows.txt"})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.scanModel)
	assert.Equal(t, 1, cfg.threads)
	assert.Equal(t, 1, cfg.queueDepth)
	assert.Equal(t, []string{"flows.txt"}, cfg.args)

	model, err := cfg.model()
	require.NoError(t, err)
	assert.Equal(t, netscan.ModelHybrid, model)
	assert.True(t, cfg.requiresInternalSet())
}

func TestParseFlagsQueueDepthDefaultsToThreads(t *testing.T) {
	cfg, err := parseFlags([]string{"--threads", "4"})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.queueDepth)
}

func TestParseFlagsSipSetAliasFillsInternalSet(t *testing.T) {
	cfg, err := parseFlags([]string{"--trw-sip-set", "/tmp/internal.txt"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/internal.txt", cfg.internalSet)
}

func TestParseFlagsScandbShortcut(t *testing.T) {
	cfg, err := parseFlags([]string{"--scandb"})
	require.NoError(t, err)
	assert.True(t, cfg.noTitles)
	assert.True(t, cfg.noColumns)
	assert.True(t, cfg.modelFields)
	assert.True(t, cfg.noFinalDelimiter)
	assert.True(t, cfg.integerIPs)
}

func TestParseFlagsInvalidScanModel(t *testing.T) {
	cfg, err := parseFlags([]string{"--scan-model", "9"})
	require.NoError(t, err)
	_, err = cfg.model()
	assert.Error(t, err)
}

func TestParseFlagsBLROnlyDoesNotRequireInternalSet(t *testing.T) {
	cfg, err := parseFlags([]string{"--scan-model", "2"})
	require.NoError(t, err)
	assert.False(t, cfg.requiresInternalSet())
}

func TestOutputOptionsDelimitedImpliesNoColumns(t *testing.T) {
	cfg, err := parseFlags([]string{"--delimited=,"})
	require.NoError(t, err)
	opts := cfg.outputOptions()
	assert.True(t, opts.NoColumns)
	assert.True(t, opts.NoFinalDelimiter)
	assert.Equal(t, byte(','), opts.Delimiter)
}

func TestOutputOptionsGzipPathEnablesCompression(t *testing.T) {
	cfg, err := parseFlags([]string{"--output-path", "out.txt.gz"})
	require.NoError(t, err)
	assert.True(t, cfg.outputOptions().Compress)
}

func TestProgressMaskWidths(t *testing.T) {
	assert.Equal(t, uint32(0), progressMask(0))
	assert.Equal(t, uint32(0xFF000000), progressMask(8))
	assert.Equal(t, uint32(0x80000000), progressMask(1))
}
