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
	"net/netip"

	"netscan"
	"netscan/internal/ipset"
)

// TRWConfig carries the tunable probabilities of the sequential test.
// Everything else (alpha, beta, and the derived eta thresholds) is
// fixed.
type TRWConfig struct {
	Theta0 float64
	Theta1 float64
}

// DefaultTRWConfig returns the standard theta0/theta1 pair.
func DefaultTRWConfig() TRWConfig {
	return TRWConfig{Theta0: DefaultTheta0, Theta1: DefaultTheta1}
}

// RunTRW walks batch's flows in arrival order, maintaining a running
// likelihood ratio of the scanning hypothesis to the benign one, and
// returns as soon as the ratio crosses Eta1 (scan) or drops below
// Eta0 (benign) while every flow seen so far has been a bare SYN. If
// neither bound is crossed it falls through to the backscatter/flood/
// unknown heuristics below. batch.Proto is assumed to be TCP; callers
// are responsible for only invoking TRW on TCP batches.
func RunTRW(batch *netscan.EventBatch, shared *ipset.Shared, cfg TRWConfig) (netscan.EventClass, netscan.TRWCounters, float64) {
	var counters netscan.TRWCounters

	dipPrev := netip.Addr{}
	haveDipPrev := false

	for i := range batch.Flows {
		f := &batch.Flows[i]
		counters.Flows++

		if !haveDipPrev || f.DstIP != dipPrev {
			if shared.CheckExisting(f.DstIP) {
				counters.Hits++
			} else if f.TCPFlags&netscan.FlagsState == netscan.FlagSYN {
				counters.Misses++
			} else {
				counters.Hits++
			}
			counters.DIPs++
		}

		if f.TCPFlags&netscan.FlagsState == netscan.FlagSYN {
			counters.SYNs++
		}

		if isBackscatterFlags(f.TCPFlags) {
			counters.BS++
		}
		if isFloodResponseFlags(f.TCPFlags) {
			counters.FloodResponse++
		}

		if !haveDipPrev || f.DstIP != dipPrev {
			counters.Likelihood = 1.0
			for j := uint32(0); j < counters.Hits; j++ {
				counters.Likelihood *= cfg.Theta1 / cfg.Theta0
			}
			for j := uint32(0); j < counters.Misses; j++ {
				counters.Likelihood *= (1.0 - cfg.Theta1) / (1.0 - cfg.Theta0)
			}
		}

		if i > flowCutoff {
			break
		}

		if counters.SYNs == counters.Flows {
			if counters.Likelihood > trwEta1 {
				shared.MarkScanner(batch.SrcIP)
				return netscan.EventScan, counters, counters.Likelihood
			} else if counters.Likelihood < trwEta0 {
				shared.MarkBenign(batch.SrcIP)
				return netscan.EventBenign, counters, counters.Likelihood
			}
		}

		dipPrev = f.DstIP
		haveDipPrev = true
	}

	if counters.BS == counters.Flows && counters.DIPs > 3 && counters.Flows > 100 {
		return netscan.EventBackscatter, counters, counters.Likelihood
	}
	if counters.DIPs == 1 &&
		float64(counters.SYNs) >= float64(counters.Flows)*0.5 &&
		counters.SYNs+counters.FloodResponse == counters.Flows &&
		counters.Flows > 10 {
		return netscan.EventFlood, counters, counters.Likelihood
	}

	return netscan.EventUnknown, counters, counters.Likelihood
}

func isBackscatterFlags(flags uint8) bool {
	return flags == netscan.FlagRST ||
		flags == (netscan.FlagSYN|netscan.FlagACK) ||
		flags == (netscan.FlagRST|netscan.FlagACK)
}

func isFloodResponseFlags(flags uint8) bool {
	return flags == netscan.FlagRST ||
		flags == (netscan.FlagSYN|netscan.FlagRST) ||
		flags == (netscan.FlagRST|netscan.FlagACK)
}
