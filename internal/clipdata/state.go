// Package clipdata holds the in-memory clipboard snapshots that clipfs serves.
//
// A State owns one Snapshot per Mode, each behind its own mutex. Readers
// (filesystem callbacks) take the lock with Lock, run any number of queries,
// and release it; the single writer (the Watcher) replaces the Snapshot with
// Swap. Queries never fail: a miss yields a zero value.
package clipdata

import (
	"fmt"
	"sync"
	"time"

	"go.klb.dev/clipfs/internal/mimepath"
)

// Source is the query surface the filesystem adapter needs. Every method
// other than Lock must be called with the Mode's lock held.
type Source interface {
	// Lock acquires the lock for mode and returns the function releasing it.
	Lock(mode Mode) (unlock func())

	HasData(mode Mode) bool
	MainTypes(mode Mode) []string
	MainTypeCount(mode Mode) int
	SubTypes(mode Mode, main string) []string
	SubTypeCount(mode Mode, main string) int
	HasMainType(mode Mode, main string) bool
	HasSubType(mode Mode, sub string) bool
	HasFullType(mode Mode, full string) bool
	DataSize(mode Mode, full string) (int, bool)
	ReadBytes(mode Mode, full string) ([]byte, bool)
}

type slot struct {
	mu   sync.Mutex
	snap *Snapshot
	gen  uint64
}

// State holds the current Snapshot for each Mode. Construct one with
// NewState and share it by pointer between the watchers and the filesystem.
type State struct {
	slots [2]slot
}

var _ Source = (*State)(nil)

// NewState returns a State whose modes all hold an empty Snapshot.
func NewState() *State {
	s := &State{}
	for i := range s.slots {
		s.slots[i].snap = EmptySnapshot()
	}
	return s
}

// slot panics on an out-of-range Mode; that is a programming error.
func (s *State) slot(mode Mode) *slot {
	if mode < 0 || int(mode) >= len(s.slots) {
		panic(fmt.Sprintf("clipdata: invalid mode %d", int(mode)))
	}
	return &s.slots[mode]
}

// Lock implements Source.
func (s *State) Lock(mode Mode) func() {
	sl := s.slot(mode)
	sl.mu.Lock()
	return sl.mu.Unlock
}

// Swap replaces the Snapshot for mode and returns the one it replaced. The
// new snapshot is stamped with the next generation number and the swap time.
func (s *State) Swap(mode Mode, snap *Snapshot) (old *Snapshot) {
	if snap == nil {
		snap = EmptySnapshot()
	}
	sl := s.slot(mode)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.gen++
	snap.generation = sl.gen
	snap.swappedAt = time.Now()
	old, sl.snap = sl.snap, snap
	return old
}

// Snapshot returns the current Snapshot for mode. It takes the lock itself;
// the returned value is immutable and stays valid after later swaps.
func (s *State) Snapshot(mode Mode) *Snapshot {
	sl := s.slot(mode)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.snap
}

func (s *State) current(mode Mode) *Snapshot { return s.slot(mode).snap }

// HasData implements Source.
func (s *State) HasData(mode Mode) bool { return s.current(mode).Len() != 0 }

// MainTypes implements Source. The result is sorted.
func (s *State) MainTypes(mode Mode) []string {
	mt := s.current(mode).mainTypes
	out := make([]string, len(mt))
	copy(out, mt)
	return out
}

// MainTypeCount implements Source.
func (s *State) MainTypeCount(mode Mode) int { return len(s.current(mode).mainTypes) }

// SubTypes implements Source. The result is sorted.
func (s *State) SubTypes(mode Mode, main string) []string {
	var out []string
	for _, full := range s.current(mode).Types() {
		if mimepath.HasMainType(full, main) {
			out = append(out, full[len(main)+1:])
		}
	}
	return out
}

// SubTypeCount implements Source.
func (s *State) SubTypeCount(mode Mode, main string) int {
	n := 0
	for full := range s.current(mode).data {
		if mimepath.HasMainType(full, main) {
			n++
		}
	}
	return n
}

// HasMainType implements Source.
func (s *State) HasMainType(mode Mode, main string) bool {
	for _, m := range s.current(mode).mainTypes {
		if m == main {
			return true
		}
	}
	return false
}

// HasSubType implements Source.
func (s *State) HasSubType(mode Mode, sub string) bool {
	for full := range s.current(mode).data {
		if mimepath.HasSubType(full, sub) {
			return true
		}
	}
	return false
}

// HasFullType implements Source.
func (s *State) HasFullType(mode Mode, full string) bool {
	_, ok := s.current(mode).data[full]
	return ok
}

// DataSize implements Source.
func (s *State) DataSize(mode Mode, full string) (int, bool) {
	b, ok := s.current(mode).data[full]
	return len(b), ok
}

// ReadBytes implements Source. The returned slice belongs to the Snapshot
// and must not be modified.
func (s *State) ReadBytes(mode Mode, full string) ([]byte, bool) {
	b, ok := s.current(mode).data[full]
	return b, ok
}
