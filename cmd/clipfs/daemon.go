package main

import (
	"path/filepath"
	"time"

	"go.klb.dev/clipfs/internal/clip"
	"go.klb.dev/clipfs/internal/clipdata"
	"go.klb.dev/clipfs/internal/clipfs"
	"go.klb.dev/clipfs/internal/message"
	"go.klb.dev/clipfs/internal/mimepath"
)

// daemon answers status requests for a running mount.
type daemon struct {
	mountpoint string
	state      *clipdata.State
	startedAt  time.Time

	// mounted maps each mounted mode to its provider. Written before the
	// status socket starts serving, read-only afterwards.
	mounted map[clipdata.Mode]clip.Provider
}

func (d *daemon) handle(req *message.Message) *message.Message {
	switch req.Type {
	case message.TypeStatus:
		return d.status()
	default:
		return message.Errorf("unsupported request %q", req.Type)
	}
}

func (d *daemon) status() *message.Message {
	resp := &message.Message{
		Type:       message.TypeStatusResponse,
		Mountpoint: d.mountpoint,
		Version:    Version,
		StartedAt:  d.startedAt,
	}
	for _, mode := range clipdata.Modes {
		resp.Modes = append(resp.Modes, d.modeStatus(mode))
	}
	return resp
}

func (d *daemon) modeStatus(mode clipdata.Mode) message.ModeStatus {
	snap := d.state.Snapshot(mode)
	ms := message.ModeStatus{
		Mode:       mode.String(),
		Generation: snap.Generation(),
		SwappedAt:  snap.SwappedAt(),
		Digest:     snap.Digest(),
	}
	p, ok := d.mounted[mode]
	if !ok {
		return ms
	}
	ms.Mounted = true
	ms.Provider = p.Name()

	root := rootName(mode)
	for _, e := range snap.Entries() {
		main, _, _ := mimepath.Split(e.MIME)
		ms.Entries = append(ms.Entries, message.Entry{
			MIME:   e.MIME,
			Path:   filepath.Join(d.mountpoint, root, main, mimepath.FileName(e.MIME)),
			Size:   len(e.Data),
			Digest: clipdata.PayloadDigest(e.Data),
		})
	}
	return ms
}

func rootName(mode clipdata.Mode) string {
	if mode == clipdata.Selection {
		return clipfs.SelectionRoot.Name
	}
	return clipfs.ClipboardRoot.Name
}
