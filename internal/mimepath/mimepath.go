// Package mimepath translates between full MIME types ("image/png") and the
// synthetic file names clipfs exposes for them ("image/file.png").
//
// The sub-type is carried verbatim: no escaping is applied, so a sub-type
// containing '/' or '.' produces a name that may be ambiguous or may not be a
// valid single path component. Callers treat an undecodable path as missing.
package mimepath

import "strings"

// BaseName is the name of every clipboard file, without extension.
const BaseName = "file"

// Split splits a full MIME type at its first '/'.
func Split(full string) (main, sub string, ok bool) {
	i := strings.IndexByte(full, '/')
	if i < 0 {
		return "", "", false
	}
	return full[:i], full[i+1:], true
}

// FileName returns the file name for a full MIME type: "text/plain" becomes
// "file.plain". A type without a '/' is used whole as the extension.
func FileName(full string) string {
	_, sub, ok := Split(full)
	if !ok {
		sub = full
	}
	return BaseName + "." + sub
}

// MimeType decodes a path relative to a mode root ("image/file.png") back into
// the full MIME type ("image/png"). The main type is everything before the
// first '/' and must be non-empty; the component after it must start with
// BaseName followed by a '.'.
func MimeType(rel string) (string, bool) {
	main, name, ok := Split(rel)
	if !ok || main == "" {
		return "", false
	}
	sub, ok := strings.CutPrefix(name, BaseName+".")
	if !ok {
		return "", false
	}
	return main + "/" + sub, true
}

// HasMainType reports whether full has exactly main as its main type: the
// byte after the shared prefix is '/' and the one after that is not.
func HasMainType(full, main string) bool {
	return len(full) > len(main)+1 &&
		strings.HasPrefix(full, main) &&
		full[len(main)] == '/' &&
		full[len(main)+1] != '/'
}

// HasSubType is the mirror of HasMainType, anchored at the end of full.
func HasSubType(full, sub string) bool {
	n := len(full) - len(sub)
	return n >= 2 &&
		strings.HasSuffix(full, sub) &&
		full[n-1] == '/' &&
		full[n-2] != '/'
}
