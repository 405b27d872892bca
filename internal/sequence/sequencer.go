// Package sequence issues human-readable submission identifiers of the form
// "<year>-<4-digit counter>". The counter is process-scoped, monotonically
// increasing within a calendar year, and resets when the UTC year changes.
//
// An identifier is handed out before the corresponding booking is transmitted
// anywhere, and is never reclaimed: a downstream rejection still consumes the
// number.
package sequence

import (
	"fmt"
	"sync"
	"time"
)

// Sequencer issues yearly-scoped sequential submission IDs.
// The zero value is not usable; construct with New.
type Sequencer struct {
	mu      sync.Mutex
	year    int
	counter int

	// now is a clock hook for tests.
	now func() time.Time
}

// New returns a Sequencer using the UTC wall clock.
func New() *Sequencer {
	return &Sequencer{now: func() time.Time { return time.Now().UTC() }}
}

// Next returns the next submission ID, e.g. "2026-0001". Crossing a year
// boundary resets the counter so the first ID of a year is always "-0001".
func (s *Sequencer) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := s.now().Year()
	if year != s.year {
		s.year, s.counter = year, 0
	}
	s.counter++
	return fmt.Sprintf("%d-%04d", s.year, s.counter)
}

// Resume advances the sequencer past a previously issued ID so that a restart
// against persisted bookings does not re-issue taken numbers. Malformed or
// older IDs are ignored.
func (s *Sequencer) Resume(lastID string) {
	var year, n int
	if _, err := fmt.Sscanf(lastID, "%d-%d", &year, &n); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if year > s.year || (year == s.year && n > s.counter) {
		s.year, s.counter = year, n
	}
}
