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
	"net/netip"

	"netscan"
)

// classC masks an address down to its /24.
func classC(ip uint32) uint32 {
	return ip & 0xFFFFFF00
}

func ipv4Uint32(a netip.Addr) uint32 {
	if a.Is4In6() {
		a = a.Unmap()
	}
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func incrementICMPCounters(f *netscan.FlowRecord, m *netscan.EventMetrics) {
	if isICMPEchoLike(f.ICMPType) && f.ICMPCode == 0 {
		m.FlowsICMPEcho++
	}
}

func isICMPEchoLike(t uint8) bool {
	return t == 8 || t == 13 || t == 15 || t == 17
}

// calculateICMPMetrics expects flows sorted by destination IP. It
// walks consecutive destinations looking for /24-contiguous and
// same-/24 runs, mirroring the reference implementation's lookahead
// window of exactly one record.
func calculateICMPMetrics(flows []netscan.FlowRecord, m *netscan.EventMetrics) {
	computeSharedMetrics(flows, m)

	icmp, _ := m.Proto.(netscan.ICMPMetrics)

	var (
		run            uint32 = 1
		maxRunCurr     uint32 = 1
		classCRun      uint32 = 1
		maxClassCRun   uint32 = 1
		classCDIPCount uint32 = 1
		maxClassCDIP   uint32 = 1
	)

	n := len(flows)
	for i := 0; i < n; i++ {
		dipCurr := ipv4Uint32(flows[i].DstIP)
		classCCurr := classC(dipCurr)

		hasNext := i+1 < n
		var dipNext, classCNext uint32
		if hasNext {
			dipNext = ipv4Uint32(flows[i+1].DstIP)
			classCNext = classC(dipNext)
		}

		if hasNext && classCCurr == classCNext {
			if dipCurr != dipNext {
				classCDIPCount++
				if dipNext-dipCurr == 1 {
					run++
				} else {
					if run > maxRunCurr {
						maxRunCurr = run
					}
					run = 1
				}
			}
		} else {
			if hasNext && (classCNext-classCCurr)>>8 == 1 {
				classCRun++
			} else {
				if classCRun > maxClassCRun {
					maxClassCRun = classCRun
				}
				classCRun = 1
			}

			if maxRunCurr > icmp.MaxClassCDIPRunLength {
				icmp.MaxClassCDIPRunLength = maxRunCurr
			}

			if classCDIPCount > maxClassCDIP {
				maxClassCDIP = classCDIPCount
			}
			classCDIPCount = 1
		}
	}

	icmp.MaxClassCSubnetRunLength = maxClassCRun
	icmp.EchoRatio = float64(m.FlowsICMPEcho) / float64(n)
	icmp.MaxClassCDIPCount = maxClassCDIP
	icmp.TotalDIPCount = m.UniqueDsts
	m.Proto = icmp
}

func calculateICMPScanProbability(m *netscan.EventMetrics) {
	icmp := m.Proto.(netscan.ICMPMetrics)
	y := icmpBeta0 +
		icmpBeta1*float64(icmp.MaxClassCSubnetRunLength) +
		icmpBeta5*float64(icmp.MaxClassCDIPRunLength) +
		icmpBeta6*float64(icmp.MaxClassCDIPCount) +
		icmpBeta11*float64(icmp.TotalDIPCount) +
		icmpBeta22*icmp.EchoRatio

	m.ScanProbability = math.Exp(y) / (1.0 + math.Exp(y))
	if m.ScanProbability > 0.5 {
		m.EventClass = netscan.EventScan
	}
}
