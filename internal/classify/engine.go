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
	"go.uber.org/zap"

	"netscan"
	"netscan/internal/ipset"
	"netscan/internal/workqueue"
)

// Engine owns the three mutex-guarded resources a run shares across
// goroutines: the work queue sitting between producer and workers, the
// TRW shared IP sets, and the summary counters. A grouper feeds Queue
// directly; the Engine only starts and stops the consuming side.
type Engine struct {
	Queue   *workqueue.Queue[netscan.EventBatch]
	Shared  *ipset.Shared
	Summary *netscan.Summary
	Pool    *Pool
}

// EngineParams configures NewEngine. QueueDepth <= 0 means unbounded.
type EngineParams struct {
	QueueDepth int
	NumWorkers int
	Model      netscan.ScanModel
	TRW        TRWConfig
	Shared         *ipset.Shared
	Summary        *netscan.Summary
	Writer         ScanWriter
	Logger         *zap.Logger
	VerboseResults *float64
}

// NewEngine wires a Pool to a fresh Queue per params, ready to Start.
func NewEngine(p EngineParams) *Engine {
	queue := workqueue.New[netscan.EventBatch](p.QueueDepth)
	pool := &Pool{
		Queue:      queue,
		Summary:    p.Summary,
		Writer:     p.Writer,
		Config:     Config{Model: p.Model, TRW: p.TRW, Shared: p.Shared, VerboseResults: p.VerboseResults},
		Logger:     p.Logger,
		NumWorkers: p.NumWorkers,
	}
	return &Engine{Queue: queue, Shared: p.Shared, Summary: p.Summary, Pool: pool}
}

// Start launches the worker pool in the background. The returned
// channel closes once every worker has observed a deactivated, drained
// queue and returned.
func (e *Engine) Start() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		e.Pool.Run()
		close(done)
	}()
	return done
}

// Shutdown deactivates the queue. Workers finish whatever they
// currently hold, drain anything still queued, then exit; it does not
// block on that draining itself — wait on the channel from Start for
// that.
func (e *Engine) Shutdown() {
	e.Queue.Deactivate()
}
