// Package message defines the clipfs status protocol spoken over the local
// IPC socket.
//
// Every message is one line of JSON: <json>\n. A client sends STATUS and the
// daemon answers with STATUS_RESPONSE, or ERROR if it cannot.
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	TypeStatus         Type = "STATUS"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeError          Type = "ERROR"
)

// Entry describes one MIME representation held by a snapshot.
type Entry struct {
	MIME   string `json:"mime" yaml:"mime"`
	Path   string `json:"path" yaml:"path"`
	Size   int    `json:"size" yaml:"size"`
	Digest string `json:"digest" yaml:"digest"`
}

// ModeStatus describes the current snapshot of one clipboard mode.
type ModeStatus struct {
	Mode       string    `json:"mode" yaml:"mode"`
	Mounted    bool      `json:"mounted" yaml:"mounted"`
	Provider   string    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Generation uint64    `json:"generation" yaml:"generation"`
	SwappedAt  time.Time `json:"swapped_at" yaml:"swapped_at"`
	Digest     string    `json:"digest" yaml:"digest"`
	Entries    []Entry   `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// STATUS_RESPONSE
	Mountpoint string       `json:"mountpoint,omitempty"`
	Version    string       `json:"version,omitempty"`
	StartedAt  time.Time    `json:"started_at,omitempty"`
	Modes      []ModeStatus `json:"modes,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// Errorf builds an ERROR message.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}
