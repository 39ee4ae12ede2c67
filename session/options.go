package session

import (
	"net"
	"time"

	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/protocol"
)

const (
	DefaultListenAddr     = "0.0.0.0:6500"
	DefaultDiscoveryAddr  = "0.0.0.0:6000"
	DefaultBroadcastAddr  = "255.255.255.255:6000"
	DefaultAcceptTimeout  = 2 * time.Minute
	DefaultNetworkTimeout = 30 * time.Second
)

type Options struct {
	Log *log2.Log

	ListenAddr    string
	DiscoveryAddr string // local UDP address for SEARCH broadcast
	BroadcastAddr string

	// Zero means default, negative waits until context is done.
	AcceptTimeout  time.Duration
	NetworkTimeout time.Duration
	ReadLimit      int

	// Listener is used instead of ListenAddr when set. Open closes it.
	Listener net.Listener
}

func (o *Options) applyDefaults() {
	if o.ListenAddr == "" {
		o.ListenAddr = DefaultListenAddr
	}
	if o.DiscoveryAddr == "" {
		o.DiscoveryAddr = DefaultDiscoveryAddr
	}
	if o.BroadcastAddr == "" {
		o.BroadcastAddr = DefaultBroadcastAddr
	}
	if o.AcceptTimeout == 0 {
		o.AcceptTimeout = DefaultAcceptTimeout
	}
	if o.NetworkTimeout <= 0 {
		o.NetworkTimeout = DefaultNetworkTimeout
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = protocol.DefaultReadLimit
	}
}
