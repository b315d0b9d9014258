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

package classify

import (
	"sync"

	"go.uber.org/zap"

	"netscan"
	"netscan/internal/ipset"
	"netscan/internal/workqueue"
)

// ScanWriter receives one row per event classified as a scan. Output
// is serialized by the caller; implementations need not be
// concurrency-safe on their own, since Pool only ever calls WriteScan
// while holding its own output mutex.
type ScanWriter interface {
	WriteScan(netscan.ScannerRecord) error
}

// Config bundles everything a worker needs to classify one event,
// besides the event itself.
type Config struct {
	Model  netscan.ScanModel
	TRW    TRWConfig
	Shared *ipset.Shared

	// VerboseResults, when non-nil, logs every classified event at
	// info level, filtered to ScanProbability >= *VerboseResults.
	VerboseResults *float64
}

// Pool runs NumWorkers goroutines, each pulling event batches off
// Queue and classifying them until the queue is deactivated and
// drained.
type Pool struct {
	Queue      *workqueue.Queue[netscan.EventBatch]
	Summary    *netscan.Summary
	Writer     ScanWriter
	Config     Config
	Logger     *zap.Logger
	NumWorkers int

	outputMu sync.Mutex
}

// Run blocks until Queue is deactivated and every in-flight batch has
// been classified, spawning NumWorkers goroutines to do so.
func (p *Pool) Run() {
	n := p.NumWorkers
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			p.runWorker(id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) runWorker(id int) {
	for {
		batch, ok := p.Queue.Get()
		if !ok {
			return
		}
		p.classify(batch)
		p.Queue.Done()
	}
}

// classify implements the dispatch chain: TRW runs first on TCP
// batches under the hybrid or TRW-only model; BLR then runs on
// whatever hasn't already reached a terminal verdict, under the
// hybrid or BLR-only model.
func (p *Pool) classify(batch *netscan.EventBatch) {
	metrics := &netscan.EventMetrics{}

	if batch.Proto == netscan.ProtoTCP &&
		(p.Config.Model == netscan.ModelHybrid || p.Config.Model == netscan.ModelTRW) {
		class, _, prob := RunTRW(batch, p.Config.Shared, p.Config.TRW)
		metrics.EventClass = class
		metrics.ScanProbability = prob
		metrics.Model = netscan.ModelTRW
		if class == netscan.EventScan {
			// The reference TRW model only bothers computing byte/packet
			// and destination totals once it has already decided to flag
			// the source, since nothing else consumes them on the benign
			// path.
			computeSharedMetrics(batch.Flows, metrics)
		}
	}

	if !isTerminal(metrics.EventClass) &&
		(p.Config.Model == netscan.ModelHybrid || p.Config.Model == netscan.ModelBLR) {
		sortByProtoStartTime(batch.Flows)
		if err := RunBLR(metrics, batch); err != nil {
			p.Logger.Warn("blr classification failed", zap.Error(err), zap.Uint8("proto", batch.Proto))
		}
	}

	p.Summary.Record(metrics.EventClass)

	if p.Config.VerboseResults != nil && metrics.ScanProbability >= *p.Config.VerboseResults {
		p.Logger.Info("event classified",
			zap.String("sip", batch.SrcIP.String()),
			zap.Uint8("proto", batch.Proto),
			zap.String("class", metrics.EventClass.String()),
			zap.String("model", metrics.Model.String()),
			zap.Float64("scan_probability", metrics.ScanProbability),
			zap.Int("flows", batch.Size()),
		)
	}

	if metrics.EventClass == netscan.EventScan {
		record := netscan.ScannerRecord{
			SrcIP:           batch.SrcIP,
			Proto:           batch.Proto,
			StartTime:       batch.StartTime,
			EndTime:         batch.EndTime,
			Flows:           uint32(batch.Size()),
			Packets:         metrics.TotalPackets,
			Bytes:           metrics.TotalBytes,
			ScanProbability: metrics.ScanProbability,
			Model:           metrics.Model,
		}
		p.outputMu.Lock()
		if err := p.Writer.WriteScan(record); err != nil {
			p.Logger.Error("failed to write scan record", zap.Error(err))
		}
		p.outputMu.Unlock()
	}
}

func isTerminal(c netscan.EventClass) bool {
	return c == netscan.EventScan || c == netscan.EventFlood || c == netscan.EventBackscatter
}
