package clip

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"

	"go.klb.dev/clipfs/internal/clipdata"
)

// atottoMu serialises access to the atotto package, whose PRIMARY switch is
// a package-level variable.
var atottoMu sync.Mutex

type atottoProvider struct {
	*poller
	mode clipdata.Mode
}

// newAtotto returns a text-only provider backed by atotto/clipboard, which
// shells out to xclip, xsel or wl-clipboard on Unix. Selection mode reads the
// X11 PRIMARY selection and is only available where atotto supports it.
func newAtotto(mode clipdata.Mode, opts Options) (Provider, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("atotto clipboard: no clipboard utility found")
	}
	if mode == clipdata.Selection && !primarySupported {
		return nil, fmt.Errorf("atotto clipboard: no selection support on this platform")
	}
	p := &atottoProvider{poller: newPoller(), mode: mode}
	go p.run(opts.interval(), func() []byte {
		text, _ := p.read()
		return []byte(text)
	})
	return p, nil
}

func (p *atottoProvider) Name() string { return "atotto clipboard (" + p.mode.String() + ")" }

func (p *atottoProvider) read() (string, error) {
	atottoMu.Lock()
	defer atottoMu.Unlock()
	setPrimary(p.mode == clipdata.Selection)
	return clipboard.ReadAll()
}

func (p *atottoProvider) Formats() ([]string, error) {
	text, err := p.read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.mode, err)
	}
	if text == "" {
		return nil, nil
	}
	return []string{"text/plain"}, nil
}

func (p *atottoProvider) Payload(mime string) ([]byte, error) {
	if mime != "text/plain" {
		return nil, fmt.Errorf("unsupported MIME type: %s", mime)
	}
	text, err := p.read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.mode, err)
	}
	return []byte(text), nil
}
