package clip

import (
	"fmt"

	"github.com/zeebo/blake3"
	"golang.design/x/clipboard"
)

type designProvider struct {
	*poller
}

// newDesign returns the golang.design clipboard provider. clipboard.Init is
// called here rather than in init() so that the status sub-command never
// touches the display.
func newDesign(opts Options) (Provider, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	p := &designProvider{poller: newPoller()}
	go p.run(opts.interval(), p.fingerprint)
	return p, nil
}

func (p *designProvider) Name() string { return "golang.design clipboard (poll)" }

func (p *designProvider) fingerprint() []byte {
	h := blake3.New()
	_, _ = h.Write(clipboard.Read(clipboard.FmtText))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(clipboard.Read(clipboard.FmtImage))
	return h.Sum(nil)
}

func (p *designProvider) Formats() ([]string, error) {
	var out []string
	if clipboard.Read(clipboard.FmtText) != nil {
		out = append(out, "text/plain")
	}
	if clipboard.Read(clipboard.FmtImage) != nil {
		out = append(out, "image/png")
	}
	return out, nil
}

func (p *designProvider) Payload(mime string) ([]byte, error) {
	var b []byte
	switch mime {
	case "text/plain":
		b = clipboard.Read(clipboard.FmtText)
	case "image/png":
		b = clipboard.Read(clipboard.FmtImage)
	default:
		return nil, fmt.Errorf("unsupported MIME type: %s", mime)
	}
	if b == nil {
		return nil, fmt.Errorf("%s no longer on the clipboard", mime)
	}
	return b, nil
}
