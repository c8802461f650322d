package clip

// headlessProvider is a no-op provider for environments without a display
// server (servers, containers, CI). It never signals Watch and is always
// empty.
type headlessProvider struct {
	watchCh chan struct{}
}

// NewHeadless returns the no-op provider.
func NewHeadless() Provider {
	return &headlessProvider{watchCh: make(chan struct{})}
}

func (p *headlessProvider) Name() string                   { return "headless (no-op)" }
func (p *headlessProvider) Formats() ([]string, error)     { return nil, nil }
func (p *headlessProvider) Payload(string) ([]byte, error) { return nil, nil }
func (p *headlessProvider) Watch() <-chan struct{}         { return p.watchCh }
func (p *headlessProvider) Close()                         {}
