// Package clip provides the clipboard providers clipfs snapshots. Each
// provider serves one clipboard mode:
//
//	design.go    golang.design/x/clipboard, text/plain + image/png, clipboard only
//	atotto.go    github.com/atotto/clipboard, text/plain, clipboard or PRIMARY selection
//	command.go   xclip / wl-paste, every offered target, both modes
//	headless.go  no-op for machines without a display server
//	memory.go    in-process provider for tests
//
// Platform clipboards have no portable change notification, so every real
// provider polls and signals Watch when the clipboard fingerprint changes.
package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"go.klb.dev/clipfs/internal/clipdata"
)

// DefaultPollInterval is how often providers check for clipboard changes.
const DefaultPollInterval = 250 * time.Millisecond

// Provider is the interface every clipboard backend satisfies.
type Provider interface {
	// Name returns a human-readable name for the provider.
	Name() string

	// Formats returns the MIME types currently offered.
	Formats() ([]string, error)

	// Payload returns the bytes for one offered MIME type.
	Payload(mime string) ([]byte, error)

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. Signals coalesce: several changes between two receives
	// produce one signal. The channel is never closed.
	Watch() <-chan struct{}

	// Close stops change detection and releases resources.
	Close()
}

// Backend names accepted by New.
const (
	BackendAuto     = "auto"
	BackendDesign   = "design"
	BackendAtotto   = "atotto"
	BackendXclip    = "xclip"
	BackendWayland  = "wayland"
	BackendHeadless = "headless"
)

// Options tunes provider construction.
type Options struct {
	PollInterval time.Duration
}

func (o Options) interval() time.Duration {
	if o.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return o.PollInterval
}

// New returns the provider named by backend for mode. BackendAuto picks
// wl-paste under Wayland, xclip under X11 when installed, and otherwise
// golang.design (clipboard) or atotto (selection).
func New(backend string, mode clipdata.Mode, opts Options) (Provider, error) {
	if backend == "" || backend == BackendAuto {
		backend = detect(mode)
		slog.Debug("clipboard backend selected", "mode", mode, "backend", backend)
	}
	switch backend {
	case BackendDesign:
		if mode != clipdata.Clipboard {
			return nil, fmt.Errorf("backend %q has no %s support", backend, mode)
		}
		return newDesign(opts)
	case BackendAtotto:
		return newAtotto(mode, opts)
	case BackendXclip:
		return newCommand(xclipTool, mode, opts)
	case BackendWayland:
		return newCommand(wlTool, mode, opts)
	case BackendHeadless:
		return NewHeadless(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", backend)
	}
}

func detect(mode clipdata.Mode) string {
	if os.Getenv("WAYLAND_DISPLAY") != "" && onPath("wl-paste") {
		return BackendWayland
	}
	if os.Getenv("DISPLAY") != "" && onPath("xclip") {
		return BackendXclip
	}
	if mode == clipdata.Selection {
		return BackendAtotto
	}
	return BackendDesign
}

func onPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// notify sends a coalescing change signal on ch.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// poller calls fingerprint every interval and signals watchCh when the
// result differs from the previous one.
type poller struct {
	watchCh chan struct{}
	done    chan struct{}
}

func newPoller() *poller {
	return &poller{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *poller) run(interval time.Duration, fingerprint func() []byte) {
	last := fingerprint()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-t.C:
			fp := fingerprint()
			if !bytes.Equal(fp, last) {
				last = fp
				notify(p.watchCh)
			}
		}
	}
}

func (p *poller) Watch() <-chan struct{} { return p.watchCh }
func (p *poller) Close()                 { close(p.done) }
