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
	"sort"

	"netscan"
)

// sortByProtoStartTime orders flows by protocol then start time. The
// worker pool applies this before handing an event to BLR so that
// increment*Counters sees flows in a stable, reproducible order.
func sortByProtoStartTime(flows []netscan.FlowRecord) {
	sort.SliceStable(flows, func(i, j int) bool {
		a, b := &flows[i], &flows[j]
		if a.Proto != b.Proto {
			return a.Proto < b.Proto
		}
		return a.StartTime < b.StartTime
	})
}

// sortByDIPSourcePort orders flows by destination IP and then by
// source port, for flows of every protocol; the source-port step has
// no protocol condition.
func sortByDIPSourcePort(flows []netscan.FlowRecord) {
	sort.SliceStable(flows, func(i, j int) bool {
		a, b := &flows[i], &flows[j]
		if ipv4Uint32(a.DstIP) != ipv4Uint32(b.DstIP) {
			return ipv4Uint32(a.DstIP) < ipv4Uint32(b.DstIP)
		}
		return a.SrcPort < b.SrcPort
	})
}
