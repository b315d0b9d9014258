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

// TalkerView is one source IP's aggregate footprint across every event
// it was flagged in, ranked by total flows driven.
type TalkerView struct {
	SrcIP string `json:"src_ip"`
	Events int `json:"events"`
	Flows  uint32 `json:"flows"`
	Bytes  uint64 `json:"bytes"`
}

// topTalkers ranks source IPs by total flow count, descending, and
// returns at most limit entries.
func topTalkers(scanners []netscan.ScannerRecord, limit int) []TalkerView {
	byIP := map[string]*TalkerView{}
	for _, rec := range scanners {
		key := rec.SrcIP.String()
		v, ok := byIP[key]
		if !ok {
			v = &TalkerView{SrcIP: key}
			byIP[key] = v
		}
		v.Events++
		v.Flows += rec.Flows
		v.Bytes += rec.Bytes
	}

	views := make([]TalkerView, 0, len(byIP))
	for _, v := range byIP {
		views = append(views, *v)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Flows != views[j].Flows {
			return views[i].Flows > views[j].Flows
		}
		return views[i].SrcIP < views[j].SrcIP
	})
	if len(views) > limit {
		views = views[:limit]
	}
	return views
}
