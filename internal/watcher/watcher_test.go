package watcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.klb.dev/clipfs/internal/clip"
	"go.klb.dev/clipfs/internal/clipdata"
	"go.klb.dev/clipfs/internal/metrics"
)

func read(st *clipdata.State, mode clipdata.Mode, mime string) (string, bool) {
	unlock := st.Lock(mode)
	defer unlock()
	b, ok := st.ReadBytes(mode, mime)
	return string(b), ok
}

func TestRebuildSwapsSnapshot(t *testing.T) {
	st := clipdata.NewState()
	mem := clip.NewMemory()
	mem.Set("text/plain", "hi", "image/png", "0123456789abcdefg", "TARGETS", "x")

	w := New(Config{Mode: clipdata.Clipboard, Provider: mem, State: st})
	if !w.Rebuild() {
		t.Fatal("Rebuild failed")
	}

	snap := st.Snapshot(clipdata.Clipboard)
	if got := strings.Join(snap.Types(), ","); got != "image/png,text/plain" {
		t.Errorf("types = %s", got)
	}
	if got, _ := read(st, clipdata.Clipboard, "text/plain"); got != "hi" {
		t.Errorf("text/plain = %q", got)
	}
	if st.Snapshot(clipdata.Selection).Len() != 0 {
		t.Error("selection mode was touched")
	}
	// Each offered format is fetched exactly once.
	if got := mem.Fetches(); got != 3 {
		t.Errorf("fetches = %d, want 3", got)
	}
}

func TestRebuildKeepsSnapshotOnProviderError(t *testing.T) {
	st := clipdata.NewState()
	mem := clip.NewMemory()
	mem.Set("text/plain", "kept")
	m := metrics.New()

	w := New(Config{Mode: clipdata.Clipboard, Provider: mem, State: st, Metrics: m})
	w.Rebuild()
	gen := st.Snapshot(clipdata.Clipboard).Generation()

	mem.Fail(errors.New("display gone"))
	if w.Rebuild() {
		t.Error("Rebuild reported success on provider error")
	}
	if got, ok := read(st, clipdata.Clipboard, "text/plain"); !ok || got != "kept" {
		t.Errorf("snapshot lost: %q, %v", got, ok)
	}
	if st.Snapshot(clipdata.Clipboard).Generation() != gen {
		t.Error("snapshot swapped despite error")
	}
}

// failingPayload offers two types but can only deliver one of them.
type failingPayload struct {
	*clip.Memory
}

func (f failingPayload) Payload(mime string) ([]byte, error) {
	if mime == "image/png" {
		return nil, errors.New("conversion failed")
	}
	return f.Memory.Payload(mime)
}

func TestRebuildSkipsFailedPayload(t *testing.T) {
	st := clipdata.NewState()
	mem := clip.NewMemory()
	mem.Set("text/plain", "ok", "image/png", "png")

	w := New(Config{Mode: clipdata.Selection, Provider: failingPayload{mem}, State: st})
	if !w.Rebuild() {
		t.Fatal("Rebuild failed")
	}
	snap := st.Snapshot(clipdata.Selection)
	if got := strings.Join(snap.Types(), ","); got != "text/plain" {
		t.Errorf("types = %s, want text/plain", got)
	}
}

func TestRunFollowsChanges(t *testing.T) {
	st := clipdata.NewState()
	mem := clip.NewMemory()
	mem.Set("text/plain", "first")

	w := New(Config{Mode: clipdata.Clipboard, Provider: mem, State: st, MinRebuildInterval: -1})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool {
		got, _ := read(st, clipdata.Clipboard, "text/plain")
		return got == "first"
	})

	mem.Set("text/html", "<b>second</b>")
	waitFor(t, func() bool {
		got, _ := read(st, clipdata.Clipboard, "text/html")
		return got == "<b>second</b>"
	})
	if _, ok := read(st, clipdata.Clipboard, "text/plain"); ok {
		t.Error("old entry survived the swap")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunCoalescesAndRateLimits(t *testing.T) {
	const interval = 200 * time.Millisecond

	st := clipdata.NewState()
	mem := clip.NewMemory()
	mem.Set("text/plain", "hi")
	<-mem.Watch()

	w := New(Config{Mode: clipdata.Clipboard, Provider: mem, State: st, MinRebuildInterval: interval})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	generation := func() uint64 { return st.Snapshot(clipdata.Clipboard).Generation() }
	waitFor(t, func() bool { return generation() == 1 })

	// The limiter starts with one token, so the first change is immediate.
	mem.Notify()
	waitFor(t, func() bool { return generation() == 2 })
	second := st.Snapshot(clipdata.Clipboard)

	for range 5 {
		mem.Notify()
	}
	waitFor(t, func() bool { return generation() == 3 })
	third := st.Snapshot(clipdata.Clipboard)

	time.Sleep(3 * interval)
	if g := generation(); g != 3 {
		t.Errorf("generation = %d after a burst of 5 signals, want 3", g)
	}
	if got := mem.Fetches(); got != 3 {
		t.Errorf("Fetches = %d, want 3 (initial, single change, coalesced burst)", got)
	}
	if gap := third.SwappedAt().Sub(second.SwappedAt()); gap < interval-20*time.Millisecond {
		t.Errorf("rebuilds %v apart, want at least %v", gap, interval)
	}
}

func TestLogSnapshot(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	snap := clipdata.NewSnapshot([]clipdata.Entry{
		{MIME: "text/plain", Data: []byte(strings.Repeat("x", 200))},
		{MIME: "image/png", Data: make([]byte, 42)},
	})

	LogSnapshot(logger, "clipboard changed", snap)

	out := buf.String()
	if !strings.Contains(out, "clipboard changed") {
		t.Errorf("missing INFO line: %s", out)
	}
	if !strings.Contains(out, "size_bytes=42") {
		t.Errorf("missing binary item size: %s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 121)) {
		t.Errorf("text preview not truncated")
	}
}

func TestPreviewKeepsRunes(t *testing.T) {
	// Byte 120 falls inside the two-byte rune that starts at byte 119.
	text := "a" + strings.Repeat("é", 100)

	got := preview([]byte(text))
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	want := "a" + strings.Repeat("é", 59) + "…"
	if got != want {
		t.Errorf("preview = %q, want %q", got, want)
	}
	if got := preview([]byte("short")); got != "short" {
		t.Errorf("preview(short) = %q", got)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	LogSnapshot(logger, "clipboard changed", clipdata.NewSnapshot([]clipdata.Entry{
		{MIME: "text/plain", Data: []byte(text)},
	}))
	if out := buf.String(); strings.Contains(out, `\x`) || !utf8.ValidString(out) {
		t.Errorf("log line carries a split rune: %s", out)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
