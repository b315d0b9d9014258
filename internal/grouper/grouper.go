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

// Package grouper turns a pre-sorted stream of flow records into event
// batches, one per contiguous run of flows sharing a source IP and
// protocol. It runs single-threaded ahead of the worker pool, handing
// each finished batch to a bounded queue.
package grouper

import (
	"errors"
	"io"
	"net/netip"

	"go.uber.org/zap"

	"netscan"
	"netscan/internal/workqueue"
)

// Source yields flow records in file order. Next returns io.EOF once
// the stream is exhausted.
type Source interface {
	Next() (netscan.FlowRecord, error)
}

// ProgressFunc is invoked whenever the grouper crosses a CIDR block
// boundary of the configured size, for operators tailing a large run.
type ProgressFunc func(boundary netip.Addr)

// Grouper reads flows from a Source, partitions them into EventBatch
// values, and enqueues each finished batch.
type Grouper struct {
	Summary      *netscan.Summary
	Queue        *workqueue.Queue[netscan.EventBatch]
	Logger       *zap.Logger
	ProgressMask uint32 // 0 disables progress reporting
	OnProgress   ProgressFunc
	VerboseFlows bool // log every ICMP/TCP/UDP flow record at debug level
}

// Run drains src, emitting one EventBatch per (source IP, protocol)
// run. It returns when src is exhausted or returns a non-EOF error.
func (g *Grouper) Run(src Source) error {
	var (
		current   *netscan.EventBatch
		lastSIP   netip.Addr
		lastProto uint8
		haveLast  bool
	)

	flush := func(nextSIP netip.Addr) {
		if current == nil || len(current.Flows) == 0 {
			return
		}
		if g.ProgressMask != 0 && g.OnProgress != nil {
			// Deliberately mirrors the reference implementation's quirk:
			// the boundary check uses the SIP of the record that triggered
			// this flush, not the SIP the batch actually ended on, so a
			// boundary crossing that lands exactly on the last flow of a
			// batch can be missed.
			progIP := maskAddr(nextSIP, g.ProgressMask)
			lastMasked := maskAddr(lastSIP, g.ProgressMask)
			if lastMasked != progIP {
				g.OnProgress(progIP)
			}
		}
		g.Queue.Put(current)
		current = nil
	}

	for {
		rec, err := src.Next()
		done := false
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			done = true
		} else {
			g.Summary.AddFlow()
		}

		if !done && !isTracked(rec.Proto) {
			g.Summary.AddIgnored()
			continue
		}

		if !done && g.VerboseFlows && g.Logger != nil {
			g.Logger.Debug("flow",
				zap.String("sip", rec.SrcIP.String()),
				zap.String("dip", rec.DstIP.String()),
				zap.Uint8("proto", rec.Proto),
				zap.Uint16("sport", rec.SrcPort),
				zap.Uint16("dport", rec.DstPort),
			)
		}

		boundary := !done && (!haveLast || rec.SrcIP != lastSIP || rec.Proto != lastProto)
		if boundary || done {
			flushSIP := lastSIP
			if !done {
				flushSIP = rec.SrcIP
			}
			flush(flushSIP)
		}
		if done {
			return nil
		}

		if current == nil {
			current = &netscan.EventBatch{
				SrcIP:     rec.SrcIP,
				Proto:     rec.Proto,
				StartTime: rec.StartTime,
				EndTime:   rec.EndTime,
			}
		}
		current.Flows = append(current.Flows, rec)
		if rec.StartTime < current.StartTime {
			current.StartTime = rec.StartTime
		}
		if rec.EndTime > current.EndTime {
			current.EndTime = rec.EndTime
		}
		lastSIP = rec.SrcIP
		lastProto = rec.Proto
		haveLast = true
	}
}

func isTracked(proto uint8) bool {
	return proto == netscan.ProtoICMP || proto == netscan.ProtoTCP || proto == netscan.ProtoUDP
}

func maskAddr(ip netip.Addr, mask uint32) uint32 {
	if !ip.Is4() {
		ip = ip.Unmap()
	}
	if !ip.Is4() {
		return 0
	}
	b := ip.As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return v & mask
}
