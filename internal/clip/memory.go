package clip

import (
	"fmt"
	"sync"
)

// Memory is an in-process Provider whose contents are set directly. It is
// used by tests and by embedders feeding clipfs from their own source.
type Memory struct {
	mu      sync.Mutex
	types   []string
	data    map[string][]byte
	err     error
	fetches int
	watchCh chan struct{}
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{
		data:    make(map[string][]byte),
		watchCh: make(chan struct{}, 1),
	}
}

// Set replaces the contents with pairs of MIME type and payload, in order,
// and signals a change.
func (m *Memory) Set(pairs ...string) {
	if len(pairs)%2 != 0 {
		panic("clip: Memory.Set needs MIME/payload pairs")
	}
	m.mu.Lock()
	m.types = m.types[:0]
	m.data = make(map[string][]byte, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m.types = append(m.types, pairs[i])
		m.data[pairs[i]] = []byte(pairs[i+1])
	}
	m.err = nil
	m.mu.Unlock()
	notify(m.watchCh)
}

// Fail makes Formats return err until the next Set, and signals a change.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	notify(m.watchCh)
}

// Notify signals a change without altering the contents.
func (m *Memory) Notify() { notify(m.watchCh) }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Formats() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.types...), nil
}

func (m *Memory) Payload(mime string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	b, ok := m.data[mime]
	if !ok {
		return nil, fmt.Errorf("no payload for %s", mime)
	}
	return b, nil
}

// Fetches returns how many times Payload has been called.
func (m *Memory) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }
func (m *Memory) Close()                 {}
