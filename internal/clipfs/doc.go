// Package clipfs implements a read-only FUSE filesystem over the live
// system clipboard.
//
// The mount exposes one directory per clipboard mode (always "clipboard",
// plus "selection" when enabled). Each holds one directory per MIME main
// type, which in turn holds one file per sub-type:
//
//	/clipboard/text/file.plain
//	/clipboard/text/file.html
//	/clipboard/image/file.png
//
// Reading a file returns the raw clipboard payload for that MIME type.
//
// # Layers
//
// Adapter answers path-level getattr, readdir, open and read requests against
// a clipdata.Source. It holds the relevant mode's lock for the whole body of
// each call, so a request sees either the snapshot before a clipboard change
// or the one after it, never a mix.
//
// The go-fuse bridge (Mount) turns inode callbacks into absolute paths and
// delegates to the Adapter. No state is cached on inodes: entry and attribute
// timeouts are zero and files are opened with direct I/O, so every request
// reflects the current clipboard.
//
// # Write Path
//
// Not implemented. Opening a file for writing returns EACCES and the
// directory tree cannot be modified.
package clipfs
