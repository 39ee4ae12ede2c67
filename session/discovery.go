package session

import (
	"context"
	"net"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/ws1001/protocol"
	"golang.org/x/net/ipv4"
)

// Broadcast sends one SEARCH command from opt.DiscoveryAddr to opt.BroadcastAddr.
// Console answers by connecting to our TCP listener.
func Broadcast(ctx context.Context, opt Options) error {
	opt.applyDefaults()
	frame, err := protocol.Search().Bytes()
	if err != nil {
		return errors.Annotate(err, "encode search")
	}

	dst, err := net.ResolveUDPAddr("udp4", opt.BroadcastAddr)
	if err != nil {
		return errors.Annotatef(err, "broadcast address=%s", opt.BroadcastAddr)
	}
	lc := net.ListenConfig{Control: broadcastControl}
	conn, err := lc.ListenPacket(ctx, "udp4", opt.DiscoveryAddr)
	if err != nil {
		return transportError(err, "discovery bind "+opt.DiscoveryAddr)
	}
	defer conn.Close()

	// don't hear our own broadcast
	if err = ipv4.NewPacketConn(conn).SetMulticastLoopback(false); err != nil {
		return transportError(err, "multicast loopback")
	}

	deadline := time.Now().Add(opt.NetworkTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = conn.SetWriteDeadline(deadline); err != nil {
		return transportError(err, "discovery deadline")
	}
	if _, err = conn.WriteTo(frame, dst); err != nil {
		return transportError(err, "discovery send")
	}
	opt.Log.Debugf("discovery sent search local=%s remote=%s b=%x", conn.LocalAddr(), dst, frame)
	return nil
}
