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
	"math"

	"netscan"
)

// addFlagCount bumps the histogram bucket for flags, folding anything
// at or beyond maxTCPFlagCombos into the final bucket.
func addFlagCount(counts *[maxTCPFlagCombos]uint32, value uint8) {
	v := int(value)
	if v >= maxTCPFlagCombos-1 {
		counts[maxTCPFlagCombos-1]++
	} else {
		counts[v]++
	}
}

func incrementTCPCounters(f *netscan.FlowRecord, m *netscan.EventMetrics) {
	if f.TCPFlags&netscan.FlagACK == 0 {
		m.FlowsNoAck++
	}
	if f.Packets < smallPacketCutoff {
		m.FlowsSmall++
	}
	if f.Packets > 0 && f.Bytes/f.Packets > payloadByteCutoff {
		m.FlowsWithPayload++
	}
	if isBackscatterFlags(f.TCPFlags) {
		m.FlowsBackscatter++
	}
	addFlagCount(&m.TCPFlagCounts, f.TCPFlags)
}

// calculateTCPMetrics expects flows sorted by destination IP and
// source port.
func calculateTCPMetrics(flows []netscan.FlowRecord, m *netscan.EventMetrics) {
	computeSharedMetrics(flows, m)

	n := float64(len(flows))
	tcp, _ := m.Proto.(netscan.TCPMetrics)
	tcp.NoAckRatio = float64(m.FlowsNoAck) / n
	tcp.SmallRatio = float64(m.FlowsSmall) / n
	tcp.SPDIPRatio = float64(m.SPCount) / float64(m.UniqueDIPs)
	tcp.PayloadRatio = float64(m.FlowsWithPayload) / n
	tcp.UniqueDIPRatio = float64(m.UniqueDIPs) / n
	tcp.BackscatterRatio = float64(m.FlowsBackscatter) / n
	m.Proto = tcp
}

func calculateTCPScanProbability(m *netscan.EventMetrics) {
	tcp := m.Proto.(netscan.TCPMetrics)
	y := tcpBeta0 +
		tcpBeta2*tcp.NoAckRatio +
		tcpBeta4*tcp.SmallRatio +
		tcpBeta13*tcp.SPDIPRatio +
		tcpBeta15*tcp.PayloadRatio +
		tcpBeta19*tcp.UniqueDIPRatio +
		tcpBeta21*tcp.BackscatterRatio

	m.ScanProbability = math.Exp(y) / (1.0 + math.Exp(y))
	if m.ScanProbability > 0.5 {
		m.EventClass = netscan.EventScan
	}
}
