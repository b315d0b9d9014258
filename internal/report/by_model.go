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

// ModelView aggregates scanner rows by which classifier produced the
// verdict, plus the mean scan probability that classifier reported.
type ModelView struct {
	Model       string  `json:"model"`
	Count       int     `json:"count"`
	MeanScanProbability float64 `json:"mean_scan_probability"`
}

func byModel(scanners []netscan.ScannerRecord) []ModelView {
	type accum struct {
		count int
		sum   float64
	}
	byModel := map[netscan.ScanModel]*accum{}
	for _, rec := range scanners {
		a, ok := byModel[rec.Model]
		if !ok {
			a = &accum{}
			byModel[rec.Model] = a
		}
		a.count++
		a.sum += rec.ScanProbability
	}

	views := make([]ModelView, 0, len(byModel))
	for model, a := range byModel {
		mean := 0.0
		if a.count > 0 {
			mean = a.sum / float64(a.count)
		}
		views = append(views, ModelView{Model: model.String(), Count: a.count, MeanScanProbability: mean})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Model < views[j].Model })
	return views
}
