//go:build freebsd || linux || netbsd || openbsd || solaris || dragonfly

package clip

import "github.com/atotto/clipboard"

const primarySupported = true

func setPrimary(on bool) { clipboard.Primary = on }
