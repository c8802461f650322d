package clipdata

import (
	"encoding/hex"
	"sort"
	"time"

	"github.com/zeebo/blake3"

	"go.klb.dev/clipfs/internal/mimepath"
)

// Snapshot is a point-in-time copy of one clipboard: every offered MIME type
// mapped to its payload. A Snapshot is never modified after NewSnapshot
// returns; the Watcher replaces it wholesale.
type Snapshot struct {
	data      map[string][]byte
	mainTypes []string // sorted, distinct
	digest    string
	createdAt time.Time

	// generation and swappedAt are assigned by State.Swap.
	generation uint64
	swappedAt  time.Time
}

// Entry is one MIME representation held by a Snapshot.
type Entry struct {
	MIME string
	Data []byte
}

// NewSnapshot builds a Snapshot from entries. Types without a '/' or with an
// empty main type are dropped. When a type appears more than once the last
// payload wins.
func NewSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{
		data:      make(map[string][]byte, len(entries)),
		createdAt: time.Now(),
	}
	seen := make(map[string]struct{})
	for _, e := range entries {
		main, _, ok := mimepath.Split(e.MIME)
		if !ok || main == "" {
			continue
		}
		s.data[e.MIME] = e.Data
		if _, dup := seen[main]; !dup {
			seen[main] = struct{}{}
			s.mainTypes = append(s.mainTypes, main)
		}
	}
	sort.Strings(s.mainTypes)
	s.digest = digestOf(s)
	return s
}

// EmptySnapshot returns a Snapshot with no entries.
func EmptySnapshot() *Snapshot { return NewSnapshot(nil) }

// Len returns the number of MIME types held.
func (s *Snapshot) Len() int { return len(s.data) }

// Size returns the total payload size in bytes.
func (s *Snapshot) Size() int {
	n := 0
	for _, b := range s.data {
		n += len(b)
	}
	return n
}

// Types returns every full MIME type, sorted.
func (s *Snapshot) Types() []string {
	out := make([]string, 0, len(s.data))
	for t := range s.data {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Entries returns every entry sorted by MIME type. The payloads are shared
// with the snapshot and must not be modified.
func (s *Snapshot) Entries() []Entry {
	types := s.Types()
	out := make([]Entry, len(types))
	for i, t := range types {
		out[i] = Entry{MIME: t, Data: s.data[t]}
	}
	return out
}

// Digest returns the hex BLAKE3 digest over all entries.
func (s *Snapshot) Digest() string { return s.digest }

// CreatedAt returns the time the snapshot was built.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// Generation returns the swap sequence number, 0 for the initial snapshot.
func (s *Snapshot) Generation() uint64 { return s.generation }

// SwappedAt returns when the snapshot was swapped in, or the zero time for
// the initial snapshot.
func (s *Snapshot) SwappedAt() time.Time { return s.swappedAt }

// Equal reports whether both snapshots hold the same content.
func (s *Snapshot) Equal(o *Snapshot) bool {
	return s != nil && o != nil && s.digest == o.digest
}

// PayloadDigest returns the hex BLAKE3 digest of one payload.
func PayloadDigest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// digestOf hashes the entries in MIME order, each as a length-prefixed type
// followed by a length-prefixed payload.
func digestOf(s *Snapshot) string {
	h := blake3.New()
	var lenBuf [8]byte
	writeLen := func(n int) {
		for i := range lenBuf {
			lenBuf[i] = byte(uint64(n) >> (8 * i))
		}
		_, _ = h.Write(lenBuf[:])
	}
	for _, t := range s.Types() {
		writeLen(len(t))
		_, _ = h.Write([]byte(t))
		b := s.data[t]
		writeLen(len(b))
		_, _ = h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}
