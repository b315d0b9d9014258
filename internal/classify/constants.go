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

// Package classify implements the TRW sequential hypothesis test and
// the per-protocol BLR logistic regression classifiers, plus the
// worker pool that dispatches event batches through them.
package classify

// TRW false-positive bound and detection probability. These are fixed
// design points of the sequential test, not exposed as flags.
const (
	trwAlpha = 0.01
	trwBeta  = 0.99
)

// trwEta0 and trwEta1 are the lower and upper decision thresholds derived
// from trwAlpha/trwBeta. Likelihood below Eta0 favors the benign
// hypothesis; above Eta1 favors the scanning hypothesis.
var (
	trwEta0 = (1 - trwBeta) / (1 - trwAlpha)
	trwEta1 = trwBeta / trwAlpha
)

// DefaultTheta0 is the probability a connection succeeds under the
// benign hypothesis.
const DefaultTheta0 = 0.8

// DefaultTheta1 is the probability a connection succeeds under the
// scanning hypothesis.
const DefaultTheta1 = 0.2

// eventFlowThreshold is the minimum batch size BLR will evaluate;
// smaller batches keep whatever class they already had.
const eventFlowThreshold = 32

// flowCutoff bounds how many flows TRW will walk per event before
// giving up, protecting against pathologically long-lived sources.
const flowCutoff = 100000

// smallPacketCutoff and payloadByteCutoff feed the TCP/UDP
// "flows_small" and "flows_with_payload" counters.
const (
	smallPacketCutoff  = 3
	payloadByteCutoff  = 60
)

// maxTCPFlagCombos bounds the flag histogram; combos at or above this
// value are folded into the last bucket.
const maxTCPFlagCombos = 64

// ICMP logistic regression coefficients.
const (
	icmpBeta0  = -4.307079
	icmpBeta1  = -0.08245704
	icmpBeta5  = -0.02800612
	icmpBeta6  = 0.04877852
	icmpBeta11 = -0.000006398878
	icmpBeta22 = 4.016751
)

// TCP logistic regression coefficients.
const (
	tcpBeta0  = -2.838353611
	tcpBeta2  = 3.309023427
	tcpBeta4  = -0.157047027
	tcpBeta13 = -0.002319304
	tcpBeta15 = -1.047413699
	tcpBeta19 = 3.163018548
	tcpBeta21 = -3.260270447
)

// UDP logistic regression coefficients.
const (
	udpBeta0  = -1.887907966
	udpBeta4  = 0.543683505
	udpBeta5  = 0.025150994
	udpBeta8  = 0.529094801
	udpBeta10 = -1.244182168
	udpBeta13 = -0.001841634
	udpBeta15 = -0.224548546
	udpBeta20 = -0.697943155
)
