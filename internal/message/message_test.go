package message

import "testing"

func TestDecodeStatus(t *testing.T) {
	m, err := Decode([]byte(`{"type":"STATUS"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Type != TypeStatus {
		t.Errorf("Type = %q", m.Type)
	}
}

func TestErrorf(t *testing.T) {
	m := Errorf("unknown request %q", "PING")
	if m.Type != TypeError || m.Error != `unknown request "PING"` {
		t.Errorf("Errorf = %+v", m)
	}
	raw, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(raw)
	if err != nil || back.Error != m.Error {
		t.Errorf("Decode(Encode) = %+v, %v", back, err)
	}
}
