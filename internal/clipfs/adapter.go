package clipfs

import (
	"log/slog"
	"strings"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"go.klb.dev/clipfs/internal/clipdata"
	"go.klb.dev/clipfs/internal/metrics"
	"go.klb.dev/clipfs/internal/mimepath"
)

const (
	dirMode  = syscall.S_IFDIR | 0o755
	fileMode = syscall.S_IFREG | 0o444
)

// Root binds a top-level directory name to the clipboard mode it serves.
type Root struct {
	Name string
	Mode clipdata.Mode
}

// ClipboardRoot is always mounted. SelectionRoot is optional.
var (
	ClipboardRoot = Root{Name: "clipboard", Mode: clipdata.Clipboard}
	SelectionRoot = Root{Name: "selection", Mode: clipdata.Selection}
)

// Attr is the subset of file attributes the adapter synthesizes.
type Attr struct {
	Mode  uint32
	Nlink uint32
	Size  uint64
}

// IsDir reports whether the attributes describe a directory.
func (a Attr) IsDir() bool { return a.Mode&syscall.S_IFMT == syscall.S_IFDIR }

// Adapter serves filesystem requests by absolute path. It keeps no state
// between calls.
type Adapter struct {
	src     clipdata.Source
	roots   []Root
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// AdapterOptions configures an Adapter. Zero values are usable.
type AdapterOptions struct {
	// Roots lists the mounted mode directories. Empty means ClipboardRoot only.
	Roots []Root

	// Metrics records served requests. May be nil.
	Metrics *metrics.Metrics

	// Logger receives mount bookkeeping. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewAdapter returns an Adapter answering from src.
func NewAdapter(src clipdata.Source, options AdapterOptions) *Adapter {
	roots := options.Roots
	if len(roots) == 0 {
		roots = []Root{ClipboardRoot}
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		src:     src,
		roots:   roots,
		metrics: options.Metrics,
		logger:  logger,
	}
}

// Init is called once the filesystem is mounted.
func (a *Adapter) Init() {
	names := make([]string, len(a.roots))
	for i, r := range a.roots {
		names[i] = r.Name
	}
	a.logger.Debug("clipfs init", "roots", names)
}

// Destroy is called once the filesystem is unmounted.
func (a *Adapter) Destroy() {
	a.logger.Debug("clipfs destroy")
}

// split resolves path to a mode root. rest is the part after "/<root>/";
// inRoot is false for the root directory itself.
func (a *Adapter) split(path string) (root Root, rest string, inRoot bool, ok bool) {
	p := strings.TrimPrefix(path, "/")
	name, rest, inRoot := strings.Cut(p, "/")
	for _, r := range a.roots {
		if r.Name == name {
			return r, rest, inRoot, true
		}
	}
	return Root{}, "", false, false
}

// GetAttr returns the attributes of path.
func (a *Adapter) GetAttr(path string) (attr Attr, errno syscall.Errno) {
	defer func() { a.metrics.Request("getattr", errno) }()

	if path == "/" {
		return Attr{Mode: dirMode, Nlink: uint32(2 + len(a.roots))}, 0
	}
	root, rest, inRoot, ok := a.split(path)
	if !ok {
		return Attr{}, syscall.ENOENT
	}

	unlock := a.src.Lock(root.Mode)
	defer unlock()

	if !inRoot {
		return Attr{Mode: dirMode, Nlink: uint32(2 + a.src.MainTypeCount(root.Mode))}, 0
	}
	if a.src.HasMainType(root.Mode, rest) {
		return Attr{Mode: dirMode, Nlink: uint32(2 + a.src.SubTypeCount(root.Mode, rest))}, 0
	}
	if full, ok := mimepath.MimeType(rest); ok {
		if size, ok := a.src.DataSize(root.Mode, full); ok {
			return Attr{Mode: fileMode, Nlink: 1, Size: uint64(size)}, 0
		}
	}
	return Attr{}, syscall.ENOENT
}

// ReadDir lists path. The listing always starts with "." and "..".
func (a *Adapter) ReadDir(path string) (entries []fuse.DirEntry, errno syscall.Errno) {
	defer func() { a.metrics.Request("readdir", errno) }()

	entries = []fuse.DirEntry{
		{Name: ".", Mode: syscall.S_IFDIR},
		{Name: "..", Mode: syscall.S_IFDIR},
	}
	if path == "/" {
		for _, r := range a.roots {
			entries = append(entries, fuse.DirEntry{Name: r.Name, Mode: syscall.S_IFDIR})
		}
		return entries, 0
	}
	root, rest, inRoot, ok := a.split(path)
	if !ok {
		return nil, syscall.ENOENT
	}

	unlock := a.src.Lock(root.Mode)
	defer unlock()

	if !inRoot {
		for _, main := range a.src.MainTypes(root.Mode) {
			entries = append(entries, fuse.DirEntry{Name: main, Mode: syscall.S_IFDIR})
		}
		return entries, 0
	}
	if !a.src.HasMainType(root.Mode, rest) {
		return nil, syscall.ENOENT
	}
	for _, sub := range a.src.SubTypes(root.Mode, rest) {
		entries = append(entries, fuse.DirEntry{
			Name: mimepath.FileName(rest + "/" + sub),
			Mode: syscall.S_IFREG,
		})
	}
	return entries, 0
}

// Open checks that path names a clipboard file and that flags request
// read-only access. No handle state is kept.
func (a *Adapter) Open(path string, flags uint32) (errno syscall.Errno) {
	defer func() { a.metrics.Request("open", errno) }()

	if flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return syscall.EACCES
	}
	root, rest, inRoot, ok := a.split(path)
	if !ok || !inRoot {
		return syscall.ENOENT
	}

	unlock := a.src.Lock(root.Mode)
	defer unlock()

	full, ok := mimepath.MimeType(rest)
	if !ok || !a.src.HasFullType(root.Mode, full) {
		return syscall.ENOENT
	}
	return 0
}

// Read copies the payload for path starting at off into dest and returns
// the number of bytes copied. Reading at or past the end returns 0.
func (a *Adapter) Read(path string, dest []byte, off int64) (n int, errno syscall.Errno) {
	defer func() {
		a.metrics.Request("read", errno)
		a.metrics.Read(n)
	}()

	if off < 0 {
		return 0, syscall.EINVAL
	}
	root, rest, inRoot, ok := a.split(path)
	if !ok || !inRoot {
		return 0, syscall.ENOENT
	}

	unlock := a.src.Lock(root.Mode)
	defer unlock()

	full, ok := mimepath.MimeType(rest)
	if !ok {
		return 0, syscall.ENOENT
	}
	data, ok := a.src.ReadBytes(root.Mode, full)
	if !ok {
		return 0, syscall.ENOENT
	}
	if off >= int64(len(data)) {
		return 0, 0
	}
	return copy(dest, data[off:]), 0
}
