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

import "netscan"

// computeSharedMetrics fills in the totals every BLR feature set
// depends on: bytes/packets, the running source-port count used by
// the sp/dip ratios, and the unique-destination counters. Flows must
// already be sorted by destination IP (and source port, for TCP/UDP)
// before calling this.
func computeSharedMetrics(flows []netscan.FlowRecord, m *netscan.EventMetrics) {
	if len(flows) == 0 {
		return
	}

	m.SPCount = 1
	m.UniqueDIPs = 1
	m.UniqueDsts = 0

	lastDIP := flows[0].DstIP
	lastSP := flows[0].SrcPort
	var lastDP uint16 = 0xffff

	for i := range flows {
		f := &flows[i]
		m.TotalBytes += f.Bytes
		m.TotalPackets += f.Packets

		if f.DstIP == lastDIP {
			if f.SrcPort != lastSP {
				m.SPCount++
			}
		} else {
			m.SPCount = 1
			m.UniqueDIPs++
		}

		if f.DstIP != lastDIP || f.DstPort != lastDP {
			m.UniqueDsts++
		}

		lastSP = f.SrcPort
		lastDP = f.DstPort
		lastDIP = f.DstIP
	}
}
