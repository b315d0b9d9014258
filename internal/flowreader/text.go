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

// Package flowreader decodes flow records from the line-oriented text
// format and from pcap/pcapng captures, both producing the same
// netscan.FlowRecord stream so the grouper stays agnostic of the
// source.
package flowreader

import (
	"bufio"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"netscan"
)

// TextReader decodes whitespace-separated flow records, one per line:
// sip dip sport dport proto flags bytes packets stime etime icmptype
// icmpcode. Blank lines are skipped.
type TextReader struct {
	scanner *bufio.Scanner
	lineNo  int
}

// NewTextReader wraps r, which should already be gzip-decompressed if
// needed.
func NewTextReader(r io.Reader) *TextReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &TextReader{scanner: sc}
}

// Next returns the next decoded record, or io.EOF once the stream is
// exhausted.
func (t *TextReader) Next() (netscan.FlowRecord, error) {
	for t.scanner.Scan() {
		t.lineNo++
		line := strings.TrimSpace(t.scanner.Text())
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return netscan.FlowRecord{}, errors.Wrapf(err, "line %d", t.lineNo)
		}
		return rec, nil
	}
	if err := t.scanner.Err(); err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "reading flow stream")
	}
	return netscan.FlowRecord{}, io.EOF
}

func parseLine(line string) (netscan.FlowRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != 12 {
		return netscan.FlowRecord{}, errors.Errorf("expected 12 fields, got %d", len(fields))
	}

	sip, err := netip.ParseAddr(fields[0])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "sip")
	}
	dip, err := netip.ParseAddr(fields[1])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "dip")
	}

	sport, err := parseUint16(fields[2])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "sport")
	}
	dport, err := parseUint16(fields[3])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "dport")
	}
	proto, err := parseUint8(fields[4])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "proto")
	}
	flags, err := parseUint8(fields[5])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "flags")
	}
	bytes, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "bytes")
	}
	packets, err := strconv.ParseUint(fields[7], 10, 64)
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "packets")
	}
	stime, err := parseUint32(fields[8])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "stime")
	}
	etime, err := parseUint32(fields[9])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "etime")
	}
	icmpType, err := parseUint8(fields[10])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "icmptype")
	}
	icmpCode, err := parseUint8(fields[11])
	if err != nil {
		return netscan.FlowRecord{}, errors.Wrap(err, "icmpcode")
	}

	return netscan.FlowRecord{
		SrcIP:     sip,
		DstIP:     dip,
		SrcPort:   sport,
		DstPort:   dport,
		Proto:     proto,
		TCPFlags:  flags,
		Bytes:     bytes,
		Packets:   packets,
		StartTime: stime,
		EndTime:   etime,
		ICMPType:  icmpType,
		ICMPCode:  icmpCode,
	}, nil
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	return uint16(v), err
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
