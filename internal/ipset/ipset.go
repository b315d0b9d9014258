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

// Package ipset provides the IP containers backing the TRW classifier:
// a read-only "existing" set of addresses considered internal to the
// network under observation, and the append-only "benign"/"scanners"
// sets a worker populates as it reaches a verdict. All three live
// behind a single mutex in Shared, matching how the original program
// guards trw_data_t with one lock rather than per-set locks. Set itself
// holds no lock of its own, so that single mutex is never acquired
// while nested inside another.
package ipset

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Set is a plain container of IPv4/IPv6 addresses. It has no locking
// of its own; callers that share a Set across goroutines, such as
// Shared, are responsible for serializing access to it.
type Set struct {
	addr map[netip.Addr]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{addr: make(map[netip.Addr]struct{})}
}

// Add inserts ip into the set.
func (s *Set) Add(ip netip.Addr) {
	s.addr[ip] = struct{}{}
}

// Contains reports whether ip is a member of the set.
func (s *Set) Contains(ip netip.Addr) bool {
	_, ok := s.addr[ip]
	return ok
}

// Len returns the number of addresses currently in the set.
func (s *Set) Len() int {
	return len(s.addr)
}

// LoadExisting reads a newline-delimited list of IPs or CIDR blocks
// from path and returns a populated, read-only Set. Blank lines and
// lines starting with '#' are ignored. This is the Go-native stand-in
// for the binary IPset format the original internal-address list was
// stored in; a CIDR line expands to its network and broadcast
// addresses being treated as members only implicitly through Contains
// doing a prefix scan would be too costly for large blocks, so ranges
// are expanded eagerly at load time.
func LoadExisting(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening internal address set %q", path)
	}
	defer f.Close()
	return readExisting(f)
}

func readExisting(r io.Reader) (*Set, error) {
	s := NewSet()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "/") {
			prefix, err := netip.ParsePrefix(line)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: invalid CIDR %q", lineNo, line)
			}
			if err := addPrefix(s, prefix); err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNo)
			}
			continue
		}
		addr, err := netip.ParseAddr(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid address %q", lineNo, line)
		}
		s.Add(addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading internal address set")
	}
	return s, nil
}

// maxExpandedPrefixHosts bounds how large a single CIDR block this
// loader will expand into individual addresses, to keep a mistyped
// /8 from exhausting memory.
const maxExpandedPrefixHosts = 1 << 20

func addPrefix(s *Set, prefix netip.Prefix) error {
	prefix = prefix.Masked()
	bits := prefix.Addr().BitLen() - prefix.Bits()
	if bits > 20 {
		return fmt.Errorf("prefix %s is too large to expand (max /%d)", prefix, prefix.Addr().BitLen()-20)
	}
	addr := prefix.Addr()
	count := 0
	for {
		s.Add(addr)
		count++
		if count >= maxExpandedPrefixHosts {
			break
		}
		next := addr.Next()
		if !next.IsValid() || !prefix.Contains(next) {
			break
		}
		addr = next
	}
	return nil
}

// Shared is the single-mutex triple of IP containers the TRW
// classifier reads and mutates while scoring every event: existing is
// loaded once at startup and never written again, while benign and
// scanners accumulate one address per terminal verdict.
type Shared struct {
	mu       sync.Mutex
	existing *Set
	benign   *Set
	scanners *Set
}

// NewShared wraps an already-loaded internal address set.
func NewShared(existing *Set) *Shared {
	return &Shared{
		existing: existing,
		benign:   NewSet(),
		scanners: NewSet(),
	}
}

// CheckExisting reports whether ip belongs to the internal address
// set. It holds the shared mutex even though existing never changes
// after load, to match the single critical section the TRW classifier
// takes around every destination-IP lookup.
func (s *Shared) CheckExisting(ip netip.Addr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing.Contains(ip)
}

// MarkBenign records sip as a source that passed TRW's benign test.
func (s *Shared) MarkBenign(sip netip.Addr) {
	s.mu.Lock()
	s.benign.Add(sip)
	s.mu.Unlock()
}

// MarkScanner records sip as a source that failed TRW's benign test.
func (s *Shared) MarkScanner(sip netip.Addr) {
	s.mu.Lock()
	s.scanners.Add(sip)
	s.mu.Unlock()
}

// BenignCount and ScannerCount report the current size of the
// respective accumulated sets, for the end-of-run summary.
func (s *Shared) BenignCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.benign.Len()
}

func (s *Shared) ScannerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanners.Len()
}
