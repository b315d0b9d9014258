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

// Package output writes the fixed-column scanner-row format: one line
// per event classified as a scan, suitable for loading into a
// relational database or for piping straight to a terminal.
package output

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	gzip "github.com/klauspost/pgzip"

	"netscan"
)

// fieldDef is one output column: its header label and its fixed
// display width when columnar output is enabled.
type fieldDef struct {
	label string
	width int
}

var fieldDefs = []fieldDef{
	{"sip", 16},
	{"proto", 6},
	{"stime", 24},
	{"etime", 24},
	{"flows", 10},
	{"packets", 10},
	{"bytes", 10},
	{"scan_model", 12},
	{"scan_prob", 10},
}

// modelFieldIndex and scanProbFieldIndex locate the two trailing
// columns that are only written when Options.ModelFields is set.
const (
	modelFieldIndex    = 7
	scanProbFieldIndex = 8
)

// defaultCompressionBlockSize matches the teacher's own gzip tuning:
// at least 100KB per block so pgzip's concurrent writer has enough
// work per goroutine to be worth the overhead.
const defaultCompressionBlockSize = 100 << 10

// Options controls the textual shape of the writer's output, mirroring
// the original program's column-formatting switches.
type Options struct {
	NoTitles          bool
	NoColumns         bool
	Delimiter         byte
	NoFinalDelimiter  bool
	IntegerIPs        bool
	ModelFields       bool
	Compress          bool
}

// DefaultOptions returns the original program's defaults: titled,
// columnar, pipe-delimited output.
func DefaultOptions() Options {
	return Options{Delimiter: '|'}
}

// Writer serializes ScannerRecord values to an underlying stream,
// optionally gzip-compressed with a parallel writer the way the
// teacher's Writer configures pgzip.
type Writer struct {
	opts Options

	mu   sync.Mutex
	w    *bufio.Writer
	gz   *gzip.Writer
	underlying io.Writer

	wroteHeader bool
}

// New wraps dst, compressing through pgzip when opts.Compress is set.
func New(dst io.Writer, opts Options) (*Writer, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = '|'
	}

	w := &Writer{opts: opts, underlying: dst}
	if opts.Compress {
		gz := gzip.NewWriter(dst)
		if err := gz.SetConcurrency(defaultCompressionBlockSize, runtime.GOMAXPROCS(0)*2); err != nil {
			return nil, fmt.Errorf("configuring parallel gzip writer: %w", err)
		}
		w.gz = gz
		w.w = bufio.NewWriter(gz)
	} else {
		w.w = bufio.NewWriter(dst)
	}
	return w, nil
}

// WriteScan appends one scan record, writing the column header first
// if it hasn't been written yet and titles are enabled.
func (w *Writer) WriteScan(rec netscan.ScannerRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.wroteHeader {
		w.wroteHeader = true
		if !w.opts.NoTitles {
			if err := w.writeHeader(); err != nil {
				return err
			}
		}
	}

	var sb strings.Builder
	first := true
	for i, fd := range fieldDefs {
		if (i == modelFieldIndex || i == scanProbFieldIndex) && !w.opts.ModelFields {
			continue
		}
		if !first {
			sb.WriteByte(w.opts.Delimiter)
		}
		first = false
		sb.WriteString(w.formatField(i, fd, rec))
	}
	if !w.opts.NoFinalDelimiter {
		sb.WriteByte(w.opts.Delimiter)
	}
	sb.WriteByte('\n')

	_, err := w.w.WriteString(sb.String())
	return err
}

func (w *Writer) writeHeader() error {
	var sb strings.Builder
	first := true
	for i, fd := range fieldDefs {
		if (i == modelFieldIndex || i == scanProbFieldIndex) && !w.opts.ModelFields {
			continue
		}
		if !first {
			sb.WriteByte(w.opts.Delimiter)
		}
		first = false
		sb.WriteString(w.pad(fd.width, fd.label))
	}
	if !w.opts.NoFinalDelimiter {
		sb.WriteByte(w.opts.Delimiter)
	}
	sb.WriteByte('\n')
	_, err := w.w.WriteString(sb.String())
	return err
}

func (w *Writer) pad(width int, s string) string {
	if w.opts.NoColumns {
		width = 0
	}
	if width <= 0 || len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func (w *Writer) formatField(idx int, fd fieldDef, rec netscan.ScannerRecord) string {
	switch idx {
	case 0: // sip
		if w.opts.IntegerIPs && rec.SrcIP.Is4() {
			b := rec.SrcIP.As4()
			v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
			return w.pad(fd.width, strconv.FormatUint(uint64(v), 10))
		}
		return w.pad(fd.width, rec.SrcIP.String())
	case 1: // proto
		return w.pad(fd.width, strconv.Itoa(int(rec.Proto)))
	case 2: // stime
		return w.pad(fd.width, formatTimestamp(rec.StartTime))
	case 3: // etime
		return w.pad(fd.width, formatTimestamp(rec.EndTime))
	case 4: // flows
		return w.pad(fd.width, strconv.FormatUint(uint64(rec.Flows), 10))
	case 5: // packets
		return w.pad(fd.width, strconv.FormatUint(rec.Packets, 10))
	case 6: // bytes
		return w.pad(fd.width, strconv.FormatUint(rec.Bytes, 10))
	case modelFieldIndex:
		return w.pad(fd.width, strconv.Itoa(int(rec.Model)))
	case scanProbFieldIndex:
		return w.pad(fd.width, strconv.FormatFloat(rec.ScanProbability, 'f', 6, 64))
	default:
		return ""
	}
}

func formatTimestamp(ts uint32) string {
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04:05")
}

// Close flushes any buffered output and closes the gzip stream, if
// one was configured.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return err
		}
	}
	return nil
}
