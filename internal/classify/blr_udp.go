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

// lowPortWindow is the number of low-numbered destination ports the
// UDP classifier tracks a bitmap over, matching the reference
// implementation's 1024-bit low-port bitmap.
const lowPortWindow = 1024

func incrementUDPCounters(f *netscan.FlowRecord, m *netscan.EventMetrics) {
	if f.Packets < smallPacketCutoff {
		m.FlowsSmall++
	}
	if f.Packets > 0 && f.Bytes/f.Packets > payloadByteCutoff {
		m.FlowsWithPayload++
	}
}

// calculateUDPMetrics expects flows sorted by destination IP and
// source port. It tracks, per destination IP, which of the low 1024
// ports were targeted (to find the longest consecutive low-port run
// and the total distinct low-port hit count), and separately a
// set of every source port seen across the whole event.
func calculateUDPMetrics(flows []netscan.FlowRecord, m *netscan.EventMetrics) {
	computeSharedMetrics(flows, m)

	n := len(flows)
	if n == 0 {
		return
	}

	udp, _ := m.Proto.(netscan.UDPMetrics)

	var lowDP [lowPortWindow]bool
	spSeen := make(map[uint16]struct{}, n)

	subnetRun, maxSubnetRun := uint32(1), uint32(1)

	setLowDP := func(port uint16) {
		if int(port) < lowPortWindow {
			lowDP[port] = true
		}
	}
	clearLowDP := func() {
		for i := range lowDP {
			lowDP[i] = false
		}
	}
	highCount := func() uint32 {
		c := uint32(0)
		for _, v := range lowDP {
			if v {
				c++
			}
		}
		return c
	}

	setLowDP(flows[0].DstPort)
	dipNext := ipv4Uint32(flows[0].DstIP)
	classCNext := classC(dipNext)

	for i := 0; i < n; i++ {
		spSeen[flows[i].SrcPort] = struct{}{}

		dipCurr := dipNext
		classCCurr := classCNext

		if i+1 == n {
			dipNext = dipCurr - 1
			classCNext = classCCurr - 0x100
			if subnetRun > maxSubnetRun {
				maxSubnetRun = subnetRun
			}
		} else {
			dipNext = ipv4Uint32(flows[i+1].DstIP)
			classCNext = classC(dipNext)

			if dipCurr == dipNext {
				setLowDP(flows[i+1].DstPort)
			} else if classCCurr == classCNext {
				if dipNext-dipCurr == 1 {
					subnetRun++
				} else if subnetRun > maxSubnetRun {
					maxSubnetRun = subnetRun
					subnetRun = 1
				}
			}
		}

		if dipCurr != dipNext {
			portRun := uint32(0)
			for j := 0; j < lowPortWindow; j++ {
				if lowDP[j] {
					portRun++
				} else if portRun > 0 {
					if portRun > udp.MaxLowPortRunLength {
						udp.MaxLowPortRunLength = portRun
					}
					portRun = 0
				}
			}

			lowDPHit := highCount()
			if lowDPHit > udp.MaxLowDPHit {
				udp.MaxLowDPHit = lowDPHit
			}

			clearLowDP()
			setLowDP(flows[i].DstPort)
		}

		if classCCurr != classCNext {
			if maxSubnetRun > udp.MaxClassCDIPRunLen {
				udp.MaxClassCDIPRunLen = maxSubnetRun
			}
			maxSubnetRun = 1
		}
	}

	m.UniqueSPCount = uint32(len(spSeen))

	udp.SPDIPRatio = float64(m.SPCount) / float64(m.UniqueDsts)
	udp.PayloadRatio = float64(m.FlowsWithPayload) / float64(n)
	udp.UniqueSPRatio = float64(m.UniqueSPCount) / float64(n)
	udp.SmallRatio = float64(m.FlowsSmall) / float64(n)

	m.Proto = udp
}

func calculateUDPScanProbability(m *netscan.EventMetrics) {
	udp := m.Proto.(netscan.UDPMetrics)
	y := udpBeta0 +
		udpBeta4*udp.SmallRatio +
		udpBeta5*float64(udp.MaxClassCDIPRunLen) +
		udpBeta8*float64(udp.MaxLowDPHit) +
		udpBeta10*float64(udp.MaxLowPortRunLength) +
		udpBeta13*udp.SPDIPRatio +
		udpBeta15*udp.PayloadRatio +
		udpBeta20*udp.UniqueSPRatio

	m.ScanProbability = math.Exp(y) / (1.0 + math.Exp(y))
	if m.ScanProbability > 0.5 {
		m.EventClass = netscan.EventScan
	}
}
