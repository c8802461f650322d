//go:build !(freebsd || linux || netbsd || openbsd || solaris || dragonfly)

package clip

const primarySupported = false

func setPrimary(bool) {}
