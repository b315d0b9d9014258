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
	"fmt"

	"netscan"
)

// RunBLR evaluates batch's per-protocol logistic regression model. The
// counting pass walks the flows in the order it receives them (the
// worker pool sorts them by protocol/start-time before calling); the
// run-length pass needs them sorted by destination IP/source port,
// which is performed here. Batches below eventFlowThreshold keep
// whatever EventClass they already had.
func RunBLR(m *netscan.EventMetrics, batch *netscan.EventBatch) error {
	m.Model = netscan.ModelBLR

	if len(batch.Flows) < eventFlowThreshold {
		return nil
	}

	switch batch.Proto {
	case netscan.ProtoICMP:
		m.Proto = netscan.ICMPMetrics{}
	case netscan.ProtoTCP:
		m.Proto = netscan.TCPMetrics{}
	case netscan.ProtoUDP:
		m.Proto = netscan.UDPMetrics{}
	default:
		return fmt.Errorf("classify: unsupported protocol %d", batch.Proto)
	}

	for i := range batch.Flows {
		f := &batch.Flows[i]
		switch batch.Proto {
		case netscan.ProtoICMP:
			incrementICMPCounters(f, m)
		case netscan.ProtoTCP:
			incrementTCPCounters(f, m)
		case netscan.ProtoUDP:
			incrementUDPCounters(f, m)
		}
	}

	sortByDIPSourcePort(batch.Flows)

	switch batch.Proto {
	case netscan.ProtoICMP:
		calculateICMPMetrics(batch.Flows, m)
		calculateICMPScanProbability(m)
	case netscan.ProtoTCP:
		calculateTCPMetrics(batch.Flows, m)
		calculateTCPScanProbability(m)
	case netscan.ProtoUDP:
		calculateUDPMetrics(batch.Flows, m)
		calculateUDPScanProbability(m)
	}

	return nil
}
