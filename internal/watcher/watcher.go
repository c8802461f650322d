// Package watcher keeps a clipdata.State in step with a clipboard provider.
//
// A Watcher owns one Mode. It rebuilds a full Snapshot whenever the provider
// signals a change and swaps it into the State under that Mode's lock. All
// provider calls happen before the swap, outside the lock, so filesystem
// requests are never blocked on the display server.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"go.klb.dev/clipfs/internal/clip"
	"go.klb.dev/clipfs/internal/clipdata"
	"go.klb.dev/clipfs/internal/metrics"
)

// DefaultMinRebuildInterval bounds how often a burst of change signals can
// trigger a rebuild.
const DefaultMinRebuildInterval = 50 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	Mode     clipdata.Mode
	Provider clip.Provider
	State    *clipdata.State

	// MinRebuildInterval is the minimum time between two rebuilds. Zero uses
	// DefaultMinRebuildInterval; a negative value disables the limit.
	MinRebuildInterval time.Duration

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Watcher rebuilds and swaps snapshots for one Mode.
type Watcher struct {
	cfg     Config
	limiter *rate.Limiter
	log     *slog.Logger
}

// New returns a Watcher. Call Run to start it.
func New(cfg Config) *Watcher {
	interval := cfg.MinRebuildInterval
	if interval == 0 {
		interval = DefaultMinRebuildInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Watcher{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     slog.Default().With("mode", cfg.Mode.String()),
	}
}

// Run performs an initial rebuild and then rebuilds on every change signal
// until ctx is cancelled. It always returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("clipboard watcher started", "provider", w.cfg.Provider.Name())
	w.Rebuild()

	changes := w.cfg.Provider.Watch()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("clipboard watcher stopped")
			return ctx.Err()
		case <-changes:
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		// Signals that arrived while waiting are covered by this rebuild.
		select {
		case <-changes:
		default:
		}
		w.Rebuild()
	}
}

// Rebuild reads every format from the provider, builds a Snapshot and swaps
// it in. If the format list cannot be read the current snapshot is kept and
// false is returned. A single unreadable payload only drops that format.
func (w *Watcher) Rebuild() bool {
	mode := w.cfg.Mode.String()

	formats, err := w.cfg.Provider.Formats()
	if err != nil {
		w.log.Warn("clipboard formats unavailable, keeping last snapshot", "err", err)
		w.cfg.Metrics.ProviderError(mode)
		return false
	}

	entries := make([]clipdata.Entry, 0, len(formats))
	fetched := make(map[string]struct{}, len(formats))
	for _, mime := range formats {
		if _, dup := fetched[mime]; dup {
			continue
		}
		fetched[mime] = struct{}{}
		data, err := w.cfg.Provider.Payload(mime)
		if err != nil {
			w.log.Warn("clipboard payload unavailable", "mime", mime, "err", err)
			w.cfg.Metrics.ProviderError(mode)
			continue
		}
		entries = append(entries, clipdata.Entry{MIME: mime, Data: data})
	}

	snap := clipdata.NewSnapshot(entries)
	old := w.cfg.State.Swap(w.cfg.Mode, snap)
	w.cfg.Metrics.SnapshotSwapped(mode, snap.Len(), snap.Size())

	if snap.Equal(old) {
		w.log.Debug("clipboard unchanged", "digest", short(snap.Digest()), "generation", snap.Generation())
		return true
	}
	LogSnapshot(w.log, "clipboard changed", snap)
	return true
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
