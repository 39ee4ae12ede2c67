//go:build !aix && !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris
// +build !aix,!darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd,!solaris

package session

import "syscall"

// net package enables SO_BROADCAST on datagram sockets by default.
func broadcastControl(network, address string, c syscall.RawConn) error { return nil }
