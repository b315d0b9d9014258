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

// Package report builds a post-run summary over the scanner rows
// collected during a scan, one view per file the way the teacher kept
// one transform per entity attribute. Each view is a plain function
// over a []netscan.ScannerRecord slice rather than a graph transform,
// since there is no Maltego entity graph here, just a flat record set.
package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"netscan"
)

// Report is the top-level document written to --report-path.
type Report struct {
	GeneratedAt   time.Time             `json:"generated_at"`
	Totals        netscan.Summary       `json:"totals"`
	ByProtocol    []ProtocolView        `json:"by_protocol"`
	ByModel       []ModelView           `json:"by_model"`
	TopTalkers    []TalkerView          `json:"top_talkers"`
	ScannerCount  int                   `json:"scanner_count"`
}

// Build assembles a Report from the final summary snapshot and the
// full set of scanner rows collected over the run.
func Build(summary netscan.Summary, scanners []netscan.ScannerRecord, now time.Time) Report {
	return Report{
		GeneratedAt:  now,
		Totals:       summary,
		ByProtocol:   byProtocol(scanners),
		ByModel:      byModel(scanners),
		TopTalkers:   topTalkers(scanners, 10),
		ScannerCount: len(scanners),
	}
}

// WriteJSON renders r as indented JSON to path, creating or truncating
// the file as needed.
func WriteJSON(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating report %q", path)
	}
	defer f.Close()
	return encodeJSON(f, r)
}

func encodeJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// humanBytes renders n the way the teacher's CLI output formats byte
// counts for a human reader, e.g. "4.2 MB".
func humanBytes(n uint64) string {
	return humanize.Bytes(n)
}
