package clipfs

import (
	"bytes"
	"reflect"
	"syscall"
	"testing"

	"go.klb.dev/clipfs/internal/clipdata"
)

var png17 = []byte("\x89PNG\r\n\x1a\n0123456789"[:17])

// newTestAdapter returns an adapter over a state holding the text/image
// scenario in Clipboard mode and one text entry in Selection mode.
func newTestAdapter(t *testing.T, roots ...Root) (*Adapter, *clipdata.State) {
	t.Helper()
	st := clipdata.NewState()
	st.Swap(clipdata.Clipboard, clipdata.NewSnapshot([]clipdata.Entry{
		{MIME: "text/plain", Data: []byte("hi")},
		{MIME: "image/png", Data: png17},
	}))
	st.Swap(clipdata.Selection, clipdata.NewSnapshot([]clipdata.Entry{
		{MIME: "text/plain", Data: []byte("selected")},
	}))
	return NewAdapter(st, AdapterOptions{Roots: roots}), st
}

func dirNames(t *testing.T, a *Adapter, path string) []string {
	t.Helper()
	entries, errno := a.ReadDir(path)
	if errno != 0 {
		t.Fatalf("ReadDir(%q) = %v", path, errno)
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestReadDirScenario(t *testing.T) {
	a, _ := newTestAdapter(t)

	tests := []struct {
		path string
		want []string
	}{
		{"/", []string{".", "..", "clipboard"}},
		{"/clipboard", []string{".", "..", "image", "text"}},
		{"/clipboard/text", []string{".", "..", "file.plain"}},
		{"/clipboard/image", []string{".", "..", "file.png"}},
	}
	for _, tt := range tests {
		if got := dirNames(t, a, tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ReadDir(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReadDirNotFound(t *testing.T) {
	a, _ := newTestAdapter(t)
	for _, p := range []string{"/audio", "/clipboard/audio", "/clipboard/text/file.plain", "/selection"} {
		if _, errno := a.ReadDir(p); errno != syscall.ENOENT {
			t.Errorf("ReadDir(%q) errno = %v, want ENOENT", p, errno)
		}
	}
}

func TestGetAttr(t *testing.T) {
	a, _ := newTestAdapter(t)

	tests := []struct {
		path  string
		want  Attr
		errno syscall.Errno
	}{
		{"/", Attr{Mode: dirMode, Nlink: 3}, 0},
		{"/clipboard", Attr{Mode: dirMode, Nlink: 4}, 0},
		{"/clipboard/text", Attr{Mode: dirMode, Nlink: 3}, 0},
		{"/clipboard/text/file.plain", Attr{Mode: fileMode, Nlink: 1, Size: 2}, 0},
		{"/clipboard/image/file.png", Attr{Mode: fileMode, Nlink: 1, Size: 17}, 0},
		{"/clipboard/image/file.gif", Attr{}, syscall.ENOENT},
		{"/clipboard/audio", Attr{}, syscall.ENOENT},
		{"/clipboard/text/plain", Attr{}, syscall.ENOENT},
		{"/clipboard/", Attr{}, syscall.ENOENT},
		{"/other", Attr{}, syscall.ENOENT},
		{"/selection/text/file.plain", Attr{}, syscall.ENOENT},
	}
	for _, tt := range tests {
		got, errno := a.GetAttr(tt.path)
		if errno != tt.errno || got != tt.want {
			t.Errorf("GetAttr(%q) = %+v, %v, want %+v, %v", tt.path, got, errno, tt.want, tt.errno)
		}
	}
}

func TestGetAttrUnknownMainTypeAfterSwap(t *testing.T) {
	a, st := newTestAdapter(t)
	st.Swap(clipdata.Clipboard, clipdata.NewSnapshot([]clipdata.Entry{
		{MIME: "text/html", Data: []byte("<p>")},
	}))

	if _, errno := a.GetAttr("/clipboard/image"); errno != syscall.ENOENT {
		t.Errorf("GetAttr(/clipboard/image) errno = %v, want ENOENT", errno)
	}
	if _, errno := a.GetAttr("/clipboard/text/file.plain"); errno != syscall.ENOENT {
		t.Errorf("stale file still visible: %v", errno)
	}
	attr, errno := a.GetAttr("/clipboard/text/file.html")
	if errno != 0 || attr.Size != 3 {
		t.Errorf("GetAttr(file.html) = %+v, %v", attr, errno)
	}
}

func TestListedFilesAreReachable(t *testing.T) {
	a, st := newTestAdapter(t)
	st.Swap(clipdata.Clipboard, clipdata.NewSnapshot([]clipdata.Entry{
		{MIME: "file/x", Data: []byte("1")},
		{MIME: "files/plain", Data: []byte("22")},
		{MIME: "filesystem/x", Data: []byte("333")},
		{MIME: "profile/file", Data: []byte("4444")},
	}))

	for _, main := range dirNames(t, a, "/clipboard")[2:] {
		dir := "/clipboard/" + main
		for _, name := range dirNames(t, a, dir)[2:] {
			p := dir + "/" + name
			attr, errno := a.GetAttr(p)
			if errno != 0 || attr.IsDir() || attr.Size == 0 {
				t.Errorf("GetAttr(%q) = %+v, %v", p, attr, errno)
				continue
			}
			if errno := a.Open(p, syscall.O_RDONLY); errno != 0 {
				t.Errorf("Open(%q) = %v", p, errno)
			}
			buf := make([]byte, 16)
			n, errno := a.Read(p, buf, 0)
			if errno != 0 || uint64(n) != attr.Size {
				t.Errorf("Read(%q) = %d, %v, want %d bytes", p, n, errno, attr.Size)
			}
		}
	}
}

func TestOpen(t *testing.T) {
	a, _ := newTestAdapter(t)

	tests := []struct {
		path  string
		flags uint32
		errno syscall.Errno
	}{
		{"/clipboard/text/file.plain", syscall.O_RDONLY, 0},
		{"/clipboard/image/file.png", syscall.O_RDONLY, 0},
		{"/clipboard/text/file.plain", syscall.O_WRONLY, syscall.EACCES},
		{"/clipboard/text/file.plain", syscall.O_RDWR, syscall.EACCES},
		{"/clipboard/text/file.rtf", syscall.O_WRONLY, syscall.EACCES},
		{"/clipboard/text/file.rtf", syscall.O_RDONLY, syscall.ENOENT},
		{"/clipboard/text", syscall.O_RDONLY, syscall.ENOENT},
		{"/clipboard", syscall.O_RDONLY, syscall.ENOENT},
		{"/nowhere/text/file.plain", syscall.O_RDONLY, syscall.ENOENT},
	}
	for _, tt := range tests {
		if errno := a.Open(tt.path, tt.flags); errno != tt.errno {
			t.Errorf("Open(%q, %#o) = %v, want %v", tt.path, tt.flags, errno, tt.errno)
		}
	}
}

func TestReadScenario(t *testing.T) {
	a, _ := newTestAdapter(t)

	buf := make([]byte, 10)
	n, errno := a.Read("/clipboard/text/file.plain", buf, 0)
	if errno != 0 || string(buf[:n]) != "hi" {
		t.Errorf("Read = %q, %v, want %q", buf[:n], errno, "hi")
	}
}

func TestReadOffsets(t *testing.T) {
	a, _ := newTestAdapter(t)
	const p = "/clipboard/image/file.png"

	tests := []struct {
		size int
		off  int64
		want []byte
	}{
		{len(png17), 0, png17},
		{100, 0, png17},
		{4, 0, png17[:4]},
		{4, 8, png17[8:12]},
		{100, 15, png17[15:]},
		{10, 17, nil},
		{10, 18, nil},
		{10, 1 << 40, nil},
		{0, 3, nil},
	}
	for _, tt := range tests {
		buf := make([]byte, tt.size)
		n, errno := a.Read(p, buf, tt.off)
		if errno != 0 {
			t.Errorf("Read(size=%d, off=%d) errno = %v", tt.size, tt.off, errno)
			continue
		}
		if !bytes.Equal(buf[:n], tt.want) {
			t.Errorf("Read(size=%d, off=%d) = %q, want %q", tt.size, tt.off, buf[:n], tt.want)
		}
	}
}

func TestReadErrors(t *testing.T) {
	a, _ := newTestAdapter(t)
	buf := make([]byte, 4)

	if _, errno := a.Read("/clipboard/text/file.rtf", buf, 0); errno != syscall.ENOENT {
		t.Errorf("missing type errno = %v, want ENOENT", errno)
	}
	if _, errno := a.Read("/clipboard/text/plain", buf, 0); errno != syscall.ENOENT {
		t.Errorf("malformed path errno = %v, want ENOENT", errno)
	}
	if _, errno := a.Read("/clipboard/text/file.plain", buf, -1); errno != syscall.EINVAL {
		t.Errorf("negative offset errno = %v, want EINVAL", errno)
	}
}

func TestSelectionRoot(t *testing.T) {
	a, _ := newTestAdapter(t, ClipboardRoot, SelectionRoot)

	if got, want := dirNames(t, a, "/"), []string{".", "..", "clipboard", "selection"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ReadDir(/) = %v, want %v", got, want)
	}
	if attr, _ := a.GetAttr("/"); attr.Nlink != 4 {
		t.Errorf("root nlink = %d, want 4", attr.Nlink)
	}
	if got, want := dirNames(t, a, "/selection"), []string{".", "..", "text"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ReadDir(/selection) = %v, want %v", got, want)
	}

	buf := make([]byte, 64)
	n, errno := a.Read("/selection/text/file.plain", buf, 0)
	if errno != 0 || string(buf[:n]) != "selected" {
		t.Errorf("selection read = %q, %v", buf[:n], errno)
	}
	n, _ = a.Read("/clipboard/text/file.plain", buf, 0)
	if string(buf[:n]) != "hi" {
		t.Errorf("modes were merged: clipboard read %q", buf[:n])
	}
}

func TestAttrIsDir(t *testing.T) {
	if !(Attr{Mode: dirMode}).IsDir() {
		t.Error("dirMode not a directory")
	}
	if (Attr{Mode: fileMode}).IsDir() {
		t.Error("fileMode is a directory")
	}
}
