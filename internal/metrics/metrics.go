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

// Package metrics exposes the running Summary counters as Prometheus
// gauges over an optional /metrics endpoint. It is entirely off the
// hot path: nothing here is touched unless --metrics-addr was set, so
// enabling it can never change classification results or output order.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"netscan"
)

// Collector polls a Summary on a timer and republishes its counters as
// gauges. A gauge (not a counter) is the right primitive here because
// the underlying Summary fields can only grow, but scraping them
// through an intermediate poll means Prometheus sees point-in-time
// snapshots rather than a monotonic stream tied to process restarts.
type Collector struct {
	summary *netscan.Summary
	logger  *zap.Logger

	totalFlows   prometheus.Gauge
	ignoredFlows prometheus.Gauge
	scanners     prometheus.Gauge
	benign       prometheus.Gauge
	backscatter  prometheus.Gauge
	flooders     prometheus.Gauge
	unknown      prometheus.Gauge
}

// NewCollector registers the engine's gauges against reg.
func NewCollector(reg prometheus.Registerer, summary *netscan.Summary, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		summary: summary,
		logger:  logger,
		totalFlows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "flows_total", Help: "Flows observed so far.",
		}),
		ignoredFlows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "flows_ignored_total", Help: "Flows skipped for an untracked protocol.",
		}),
		scanners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "events_scanner_total", Help: "Events classified as scanners.",
		}),
		benign: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "events_benign_total", Help: "Events classified as benign.",
		}),
		backscatter: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "events_backscatter_total", Help: "Events classified as backscatter.",
		}),
		flooders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "events_flood_total", Help: "Events classified as floods.",
		}),
		unknown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "netscan", Name: "events_unknown_total", Help: "Events that reached no verdict.",
		}),
	}
}

// Refresh copies the current Summary snapshot into the gauges. Serve
// calls it on every tick of its poll timer; there is no extra refresh
// when the engine finishes.
func (c *Collector) Refresh() {
	snap := c.summary.Snapshot()
	c.totalFlows.Set(float64(snap.TotalFlows))
	c.ignoredFlows.Set(float64(snap.IgnoredFlows))
	c.scanners.Set(float64(snap.Scanners))
	c.benign.Set(float64(snap.Benign))
	c.backscatter.Set(float64(snap.Backscatter))
	c.flooders.Set(float64(snap.Flooders))
	c.unknown.Set(float64(snap.Unknown))
}

// Serve starts an HTTP server on addr exposing /metrics, refreshing
// the gauges from summary every pollInterval until ctx is canceled. It
// returns once the listener is closed.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, c *Collector, pollInterval time.Duration) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Refresh()
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
