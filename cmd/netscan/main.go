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

// Command netscan reads a pre-sorted flow-record stream (or a pcap
// capture) and classifies each source IP's per-protocol activity as a
// scanner, benign host, backscatter source, flood source, or unknown.
package main

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/evilsocket/islazy/tui"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netscan"
	"netscan/internal/classify"
	"netscan/internal/flowreader"
	"netscan/internal/grouper"
	"netscan/internal/ipset"
	"netscan/internal/metrics"
	"netscan/internal/output"
	"netscan/internal/report"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func run(cfg *config, logger *zap.Logger) error {
	model, err := cfg.model()
	if err != nil {
		return err
	}

	var shared *ipset.Shared
	if cfg.requiresInternalSet() {
		if cfg.internalSet == "" {
			return fmt.Errorf("--trw-internal-set is required for scan-model %d", cfg.scanModel)
		}
		existing, err := ipset.LoadExisting(cfg.internalSet)
		if err != nil {
			return err
		}
		shared = ipset.NewShared(existing)
		logger.Info("loaded internal address set", zap.Int("addresses", existing.Len()))
	} else {
		shared = ipset.NewShared(ipset.NewSet())
	}

	outDst, closeOut, err := openOutput(cfg.outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	writer, err := output.New(outDst, cfg.outputOptions())
	if err != nil {
		return err
	}

	var collected []netscan.ScannerRecord
	var collectedMu sync.Mutex
	recording := recordingWriter{inner: writer, onWrite: func(rec netscan.ScannerRecord) {
		collectedMu.Lock()
		collected = append(collected, rec)
		collectedMu.Unlock()
	}}

	summary := netscan.NewSummary()
	trwCfg := classify.TRWConfig{Theta0: cfg.theta0, Theta1: cfg.theta1}

	verboseResults, err := cfg.verboseResultsThreshold()
	if err != nil {
		return err
	}

	engine := classify.NewEngine(classify.EngineParams{
		QueueDepth:     cfg.queueDepth,
		NumWorkers:     cfg.threads,
		Model:          model,
		TRW:            trwCfg,
		Shared:         shared,
		Summary:        summary,
		Writer:         recording,
		Logger:         logger,
		VerboseResults: verboseResults,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received signal, stopping the metrics endpoint; input processing continues to the end")
			cancel()
		case <-ctx.Done():
		}
	}()

	var reg *prometheus.Registry
	var metricsErrCh chan error
	if cfg.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		collector := metrics.NewCollector(reg, summary, logger)
		metricsErrCh = make(chan error, 1)
		go func() {
			metricsErrCh <- metrics.Serve(ctx, cfg.metricsAddr, reg, collector, 5*time.Second)
		}()
		logger.Info("metrics endpoint enabled", zap.String("addr", cfg.metricsAddr))
	}

	workersDone := engine.Start()

	grp := &grouper.Grouper{
		Summary:      summary,
		Queue:        engine.Queue,
		Logger:       logger,
		ProgressMask: progressMask(cfg.verboseProgress),
		OnProgress: func(boundary netip.Addr) {
			logger.Info("progress", zap.String("boundary", boundary.String()))
		},
		VerboseFlows: cfg.verboseFlows,
	}

	if err := consumeInputs(cfg, grp, logger); err != nil {
		engine.Shutdown()
		<-workersDone
		return err
	}

	engine.Shutdown()
	<-workersDone
	cancel()
	if metricsErrCh != nil {
		if err := <-metricsErrCh; err != nil {
			logger.Warn("metrics server stopped with error", zap.Error(err))
		}
	}

	if err := writer.Close(); err != nil {
		return err
	}

	snap := summary.Snapshot()
	printSummary(os.Stderr, snap, shared)

	if cfg.reportPath != "" {
		r := report.Build(snap, collected, time.Now().UTC())
		if err := report.WriteJSON(cfg.reportPath, r); err != nil {
			return err
		}
		logger.Info("wrote report", zap.String("path", cfg.reportPath))
	}

	return nil
}

// consumeInputs drains every positional input path (or stdin, if none
// were given) into the grouper, using the pcap reader instead of the
// text reader when --pcap-input names a capture.
func consumeInputs(cfg *config, grp *grouper.Grouper, logger *zap.Logger) error {
	if cfg.pcapInput != "" {
		src, closer, err := flowreader.NewPcapReader(cfg.pcapInput)
		if err != nil {
			return err
		}
		defer closer.Close()
		return grp.Run(src)
	}

	paths := cfg.args
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	for _, path := range paths {
		src, closer, err := flowreader.OpenText(path)
		if err != nil {
			logger.Error("skipping unreadable input", zap.String("path", path), zap.Error(err))
			continue
		}
		err = grp.Run(src)
		closer.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output %q: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// progressMask builds the bitmask for --verbose-progress N by shifting
// a 1 into a 32-bit mask N times: each iteration shifts right and sets
// the top bit, so after N iterations the top N bits are set and the
// rest are clear. N <= 0 yields 0 (progress reporting disabled).
func progressMask(n int) uint32 {
	if n <= 0 {
		return 0
	}
	var mask uint32
	for i := 0; i < n; i++ {
		mask = (mask >> 1) | 0x80000000
	}
	return mask
}

func printSummary(w io.Writer, s netscan.Summary, shared *ipset.Shared) {
	rows := [][]string{
		{"total flows", fmt.Sprint(s.TotalFlows)},
		{"ignored flows", fmt.Sprint(s.IgnoredFlows)},
		{"scanners", fmt.Sprint(s.Scanners)},
		{"benign", fmt.Sprint(s.Benign)},
		{"backscatter", fmt.Sprint(s.Backscatter)},
		{"flood", fmt.Sprint(s.Flooders)},
		{"unknown", fmt.Sprint(s.Unknown)},
		{"benign set size", fmt.Sprint(shared.BenignCount())},
		{"scanner set size", fmt.Sprint(shared.ScannerCount())},
	}
	tui.Table(w, []string{"counter", "value"}, rows)
}

// recordingWriter forwards every scan row to the underlying output
// writer and also appends it to an in-memory slice, so a post-run
// report can be built without re-reading the output stream.
type recordingWriter struct {
	inner   classify.ScanWriter
	onWrite func(netscan.ScannerRecord)
}

func (r recordingWriter) WriteScan(rec netscan.ScannerRecord) error {
	if err := r.inner.WriteScan(rec); err != nil {
		return err
	}
	r.onWrite(rec)
	return nil
}
