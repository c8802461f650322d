package clipfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"go.klb.dev/clipfs/internal/clipdata"
	"go.klb.dev/clipfs/internal/metrics"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted. It is
	// created if it does not exist.
	Mountpoint string

	// Source provides the clipboard snapshots.
	Source clipdata.Source

	// Selection additionally mounts the selection buffer under /selection.
	Selection bool

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug enables go-fuse request tracing.
	Debug bool

	// Metrics records served requests. May be nil.
	Metrics *metrics.Metrics

	// Logger receives diagnostic messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server is a mounted clipboard filesystem.
type Server struct {
	*fuse.Server
	adapter *Adapter
}

// Wait blocks until the filesystem is unmounted, then runs the adapter's
// destroy hook.
func (s *Server) Wait() {
	s.Server.Wait()
	s.adapter.Destroy()
}

// Mount mounts the clipboard filesystem. The caller must Unmount the
// returned Server when done.
func Mount(options Options) (*Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Source == nil {
		return nil, fmt.Errorf("clipboard source is required")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	roots := []Root{ClipboardRoot}
	if options.Selection {
		roots = append(roots, SelectionRoot)
	}
	adapter := NewAdapter(options.Source, AdapterOptions{
		Roots:   roots,
		Metrics: options.Metrics,
		Logger:  options.Logger,
	})

	// The clipboard changes underneath the kernel; never let it cache
	// entries, attributes or negative lookups.
	var noCache time.Duration
	server, err := gofuse.Mount(options.Mountpoint, &rootNode{node: node{adapter: adapter}}, &gofuse.Options{
		EntryTimeout:    &noCache,
		AttrTimeout:     &noCache,
		NegativeTimeout: &noCache,
		UID:             uint32(os.Getuid()),
		GID:             uint32(os.Getgid()),
		MountOptions: fuse.MountOptions{
			FsName:     "clipfs",
			Name:       "clipfs",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("clipboard filesystem mounted",
		"mountpoint", options.Mountpoint,
		"selection", options.Selection,
	)
	return &Server{Server: server, adapter: adapter}, nil
}

// node is any file or directory in the tree. Everything it reports comes
// from the adapter, keyed by the node's absolute path.
type node struct {
	gofuse.Inode
	adapter *Adapter
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeReader = (*node)(nil)

func (n *node) path() string { return "/" + n.Path(nil) }

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	attr, errno := n.adapter.GetAttr(path.Join(n.path(), name))
	if errno != 0 {
		return nil, errno
	}
	fillAttr(&out.Attr, attr)
	child := n.NewInode(ctx, &node{adapter: n.adapter}, gofuse.StableAttr{Mode: attr.Mode & syscall.S_IFMT})
	return child, 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, errno := n.adapter.GetAttr(n.path())
	if errno != 0 {
		return errno
	}
	fillAttr(&out.Attr, attr)
	return 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, errno := n.adapter.ReadDir(n.path())
	if errno != 0 {
		return nil, errno
	}
	// go-fuse synthesizes "." and ".." itself.
	out := entries[:0]
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, e)
	}
	return gofuse.NewListDirStream(out), 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if errno := n.adapter.Open(n.path(), flags); errno != 0 {
		return nil, 0, errno
	}
	// Sizes change with the clipboard; bypass the page cache.
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	count, errno := n.adapter.Read(n.path(), dest, off)
	if errno != 0 {
		return nil, errno
	}
	return fuse.ReadResultData(dest[:count]), 0
}

// rootNode is the mount root. It runs the adapter's init hook.
type rootNode struct {
	node
}

var _ gofuse.NodeOnAdder = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	r.adapter.Init()
}

func fillAttr(out *fuse.Attr, attr Attr) {
	out.Mode = attr.Mode
	out.Nlink = attr.Nlink
	out.Size = attr.Size
	out.Blocks = (attr.Size + 511) / 512
}
