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

package netscan

import "sync"

// Summary holds the run-wide totals tracked across all workers. All
// fields are mutated under a single mutex, mirroring how the shared
// TRW sets are guarded by one lock rather than one per field.
type Summary struct {
	mu sync.Mutex

	TotalFlows    uint32
	IgnoredFlows  uint32
	Scanners      uint32
	Benign        uint32
	Backscatter   uint32
	Flooders      uint32
	Unknown       uint32
}

// NewSummary returns a zeroed Summary ready for use.
func NewSummary() *Summary {
	return &Summary{}
}

// AddFlow records one successfully read input flow.
func (s *Summary) AddFlow() {
	s.mu.Lock()
	s.TotalFlows++
	s.mu.Unlock()
}

// AddIgnored records one flow skipped because its protocol is not one
// of ICMP, TCP, or UDP.
func (s *Summary) AddIgnored() {
	s.mu.Lock()
	s.IgnoredFlows++
	s.mu.Unlock()
}

// Record bumps the counter matching class. It is the single place a
// worker reports the outcome of classifying one event.
func (s *Summary) Record(class EventClass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch class {
	case EventScan:
		s.Scanners++
	case EventBenign:
		s.Benign++
	case EventBackscatter:
		s.Backscatter++
	case EventFlood:
		s.Flooders++
	default:
		s.Unknown++
	}
}

// Snapshot returns a copy of the current totals, safe to read without
// holding the lock further.
func (s *Summary) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		TotalFlows:   s.TotalFlows,
		IgnoredFlows: s.IgnoredFlows,
		Scanners:     s.Scanners,
		Benign:       s.Benign,
		Backscatter:  s.Backscatter,
		Flooders:     s.Flooders,
		Unknown:      s.Unknown,
	}
}

// EventsProcessed returns the number of events that received a
// terminal classification so far.
func (s Summary) EventsProcessed() uint32 {
	return s.Scanners + s.Benign + s.Backscatter + s.Flooders + s.Unknown
}
