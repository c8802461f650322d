package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipfs/internal/clip"
	"go.klb.dev/clipfs/internal/clipdata"
	"go.klb.dev/clipfs/internal/clipfs"
	"go.klb.dev/clipfs/internal/ipc"
	"go.klb.dev/clipfs/internal/metrics"
	"go.klb.dev/clipfs/internal/watcher"
)

func newMountCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "mount [mountpoint]",
		Short: "Mount the clipboard filesystem and keep it in sync",
		Long: `Mounts the clipboard at the given directory and runs until unmounted or
interrupted. SIGINT and SIGTERM unmount cleanly.

Layout:
  <mountpoint>/clipboard/<main>/file.<sub>
  <mountpoint>/selection/<main>/file.<sub>   (with --selection)

Backends: auto, design, atotto, xclip, wayland, headless. auto prefers
wl-paste under Wayland, xclip under X11, and falls back to the built-in
clipboard libraries.

Precedence (lowest → highest): defaults → config file → CLIPFS_* env vars → flags`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("mountpoint", args[0])
			}
			return runMount(v)
		},
	}

	f := cmd.Flags()
	f.String("mountpoint", "", "directory to mount on (may also be given as an argument)")
	f.String("backend", clip.BackendAuto, "clipboard backend: auto|design|atotto|xclip|wayland|headless")
	f.Bool("selection", false, "also mount the primary selection under /selection")
	f.Bool("allow-other", false, "let other users access the mount (needs user_allow_other)")
	f.Duration("poll-interval", clip.DefaultPollInterval, "how often to check the clipboard for changes")
	f.Duration("min-rebuild-interval", watcher.DefaultMinRebuildInterval, "minimum time between two snapshot rebuilds")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address (empty = disabled)")
	f.String("socket", "", "status socket path (default: $XDG_RUNTIME_DIR/clipfs.sock)")
	f.Bool("debug-fuse", false, "trace every FUSE request")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runMount(v *viper.Viper) error {
	setupLogging(v)

	mountpoint := v.GetString("mountpoint")
	if mountpoint == "" {
		return errors.New("mountpoint is required")
	}
	backend := v.GetString("backend")
	selection := v.GetBool("selection")

	modes := []clipdata.Mode{clipdata.Clipboard}
	if selection {
		modes = append(modes, clipdata.Selection)
	}

	slog.Info("clipfs starting",
		"version", Version,
		"mountpoint", mountpoint,
		"backend", backend,
		"selection", selection,
	)

	state := clipdata.NewState()
	m := metrics.New()

	d := &daemon{
		mountpoint: mountpoint,
		state:      state,
		startedAt:  time.Now(),
		mounted:    make(map[clipdata.Mode]clip.Provider),
	}

	opts := clip.Options{PollInterval: v.GetDuration("poll-interval")}
	var watchers []*watcher.Watcher
	for _, mode := range modes {
		p, err := clip.New(backend, mode, opts)
		if err != nil {
			slog.Warn("clipboard backend unavailable, using headless", "mode", mode, "backend", backend, "err", err)
			p = clip.NewHeadless()
		}
		defer p.Close()
		d.mounted[mode] = p
		watchers = append(watchers, watcher.New(watcher.Config{
			Mode:               mode,
			Provider:           p,
			State:              state,
			MinRebuildInterval: v.GetDuration("min-rebuild-interval"),
			Metrics:            m,
		}))
	}

	server, err := clipfs.Mount(clipfs.Options{
		Mountpoint: mountpoint,
		Source:     state,
		Selection:  selection,
		AllowOther: v.GetBool("allow-other"),
		Debug:      v.GetBool("debug-fuse"),
		Metrics:    m,
	})
	if err != nil {
		return fmt.Errorf("mount %s: %w", mountpoint, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w *watcher.Watcher) {
			defer wg.Done()
			_ = w.Run(ctx)
		}(w)
	}

	socket := v.GetString("socket")
	if socket == "" {
		socket = ipc.SocketPath()
	}
	if ln, err := ipc.Listen(socket); err != nil {
		slog.Warn("status socket unavailable", "err", err)
	} else {
		slog.Info("status socket listening", "path", socket)
		defer os.Remove(socket)
		defer ln.Close()
		go ipc.Serve(ln, d.handle)
	}

	if addr := v.GetString("metrics-addr"); addr != "" {
		srv, err := serveMetrics(addr, m)
		if err != nil {
			slog.Warn("metrics listener unavailable", "addr", addr, "err", err)
		} else {
			defer srv.Close()
		}
	}

	unmounted := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-unmounted:
			return
		}
		slog.Info("unmounting", "mountpoint", mountpoint)
		if err := server.Unmount(); err != nil {
			slog.Error("unmount failed", "mountpoint", mountpoint, "err", err)
		}
	}()

	server.Wait()
	close(unmounted)
	stop()
	wg.Wait()
	slog.Info("clipfs stopped")
	return nil
}

// serveMetrics starts an HTTP listener exposing /metrics.
func serveMetrics(addr string, m *metrics.Metrics) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	slog.Info("metrics listening", "addr", ln.Addr())
	return srv, nil
}
