package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"go.klb.dev/clipfs/internal/clipdata"
)

// commandTimeout bounds one helper invocation; a clipboard owner that never
// answers must not stall the watcher forever.
const commandTimeout = 2 * time.Second

// tool describes how to drive one clipboard helper program.
type tool struct {
	name string
	// list returns the arguments that print the offered targets, one per line.
	list func(mode clipdata.Mode) []string
	// fetch returns the arguments that print the payload for mime.
	fetch func(mode clipdata.Mode, mime string) []string
}

var xclipTool = tool{
	name: "xclip",
	list: func(mode clipdata.Mode) []string {
		return []string{"-selection", xSelection(mode), "-o", "-t", "TARGETS"}
	},
	fetch: func(mode clipdata.Mode, mime string) []string {
		return []string{"-selection", xSelection(mode), "-o", "-t", mime}
	},
}

var wlTool = tool{
	name: "wl-paste",
	list: func(mode clipdata.Mode) []string {
		return append(wlPrimary(mode), "--list-types")
	},
	fetch: func(mode clipdata.Mode, mime string) []string {
		return append(wlPrimary(mode), "--no-newline", "--type", mime)
	},
}

func xSelection(mode clipdata.Mode) string {
	if mode == clipdata.Selection {
		return "primary"
	}
	return "clipboard"
}

func wlPrimary(mode clipdata.Mode) []string {
	if mode == clipdata.Selection {
		return []string{"--primary"}
	}
	return nil
}

// commandProvider enumerates every target the clipboard owner offers by
// running an external helper.
type commandProvider struct {
	*poller
	tool   tool
	mode   clipdata.Mode
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func newCommand(t tool, mode clipdata.Mode, opts Options) (Provider, error) {
	if !onPath(t.name) {
		return nil, fmt.Errorf("%s not found in PATH", t.name)
	}
	p := &commandProvider{poller: newPoller(), tool: t, mode: mode, runner: runCommand}
	go p.run(opts.interval(), p.fingerprint)
	return p, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (p *commandProvider) Name() string { return p.tool.name + " (" + p.mode.String() + ")" }

func (p *commandProvider) call(args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := p.runner(ctx, p.tool.name, args...)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s timed out after %s", p.tool.name, commandTimeout)
	}
	return out, err
}

// Formats returns the offered targets that look like MIME types. X11
// pseudo-targets such as TARGETS or UTF8_STRING are dropped.
func (p *commandProvider) Formats() ([]string, error) {
	out, err := p.call(p.tool.list(p.mode))
	if err != nil {
		return nil, err
	}
	return parseTargets(out), nil
}

func (p *commandProvider) Payload(mime string) ([]byte, error) {
	return p.call(p.tool.fetch(p.mode, mime))
}

// fingerprint hashes the target list and the preferred text payload. An
// empty or unreadable clipboard hashes to the empty digest.
func (p *commandProvider) fingerprint() []byte {
	h := blake3.New()
	formats, err := p.Formats()
	if err != nil {
		return h.Sum(nil)
	}
	for _, f := range formats {
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{'\n'})
	}
	if mime := preferredText(formats); mime != "" {
		if b, err := p.Payload(mime); err == nil {
			_, _ = h.Write(b)
		}
	} else if len(formats) > 0 {
		if b, err := p.Payload(formats[0]); err == nil {
			_, _ = h.Write(b)
		}
	}
	return h.Sum(nil)
}

func parseTargets(out []byte) []string {
	var targets []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		t := strings.TrimSpace(line)
		if !strings.Contains(t, "/") {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}
	return targets
}

func preferredText(formats []string) string {
	for _, want := range []string{"text/plain;charset=utf-8", "text/plain"} {
		for _, f := range formats {
			if f == want {
				return f
			}
		}
	}
	return ""
}
