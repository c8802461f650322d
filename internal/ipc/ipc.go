// Package ipc provides the local Unix-socket channel the clipfs status
// command uses to query a running mount daemon.
package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/clipfs/internal/message"
	"go.klb.dev/clipfs/internal/wire"
)

const dialTimeout = 2 * time.Second

// SocketPath returns the IPC socket path: $CLIPFS_SOCKET if set, else
// $XDG_RUNTIME_DIR/clipfs.sock, else $TMPDIR/clipfs.sock.
func SocketPath() string {
	if s := os.Getenv("CLIPFS_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipfs.sock")
	}
	return filepath.Join(os.TempDir(), "clipfs.sock")
}

// IsRunning reports whether a daemon appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on path, removing a stale socket left by a
// crashed run. It refuses to take over a socket a live daemon answers on.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, fmt.Errorf("another clipfs daemon is listening on %s", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("restricting socket permissions: %w", err)
	}
	return ln, nil
}

// Request sends req to the daemon on path and returns its single reply.
func Request(path string, req *message.Message) (*message.Message, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	wc.SetReadDeadline(5 * time.Second)
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, fmt.Errorf("daemon: %s", resp.Error)
	}
	return resp, nil
}

// Handler answers one request.
type Handler func(req *message.Message) *message.Message

// Serve accepts connections on ln until it is closed, answering one request
// per connection with h.
func Serve(ln net.Listener, h Handler) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handle(conn, h)
	}
}

func handle(conn net.Conn, h Handler) {
	wc := wire.New(conn)
	defer wc.Close()

	wc.SetReadDeadline(5 * time.Second)
	req, err := wc.ReadMsg()
	if err != nil {
		return
	}
	_ = wc.WriteMsg(h(req))
}
