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

package report

import (
	"sort"

	"netscan"
)

// ProtocolView aggregates scanner rows sharing one protocol number.
type ProtocolView struct {
	Proto   uint8  `json:"proto"`
	Count   int    `json:"count"`
	Flows   uint32 `json:"flows"`
	Bytes   uint64 `json:"bytes"`
	BytesSI string `json:"bytes_human"`
}

func byProtocol(scanners []netscan.ScannerRecord) []ProtocolView {
	byProto := map[uint8]*ProtocolView{}
	for _, rec := range scanners {
		v, ok := byProto[rec.Proto]
		if !ok {
			v = &ProtocolView{Proto: rec.Proto}
			byProto[rec.Proto] = v
		}
		v.Count++
		v.Flows += rec.Flows
		v.Bytes += rec.Bytes
	}

	views := make([]ProtocolView, 0, len(byProto))
	for _, v := range byProto {
		v.BytesSI = humanBytes(v.Bytes)
		views = append(views, *v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Proto < views[j].Proto })
	return views
}
