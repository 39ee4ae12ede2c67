package session

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/ws1001/helpers"
	"github.com/temoto/ws1001/helpers/atomic_clock"
	"github.com/temoto/ws1001/log2"
	"github.com/temoto/ws1001/protocol"
)

var aLongTimeAgo = time.Unix(1, 0)

// Session is a connected console. Methods are safe for concurrent use,
// query cycles are serialized.
type Session struct {
	sync.Mutex
	state State
	stat  SessionStat
	err   helpers.AtomicError
	last  atomic_clock.Clock
	log   *log2.Log
	opt   Options
	net   net.Conn
	w     io.Writer
	fr    protocol.FrameReader
	query []byte
}

// Open performs discovery handshake and returns connected session.
// Blocks until console connects, AcceptTimeout expires or ctx is done.
func Open(ctx context.Context, opt Options) (*Session, error) {
	opt.applyDefaults()
	s := &Session{
		log: opt.Log,
		opt: opt,
	}
	query, err := protocol.Query().Bytes()
	if err != nil {
		return nil, errors.Annotate(err, "encode query")
	}
	s.query = query
	s.setState(StateDiscovering)

	conn, err := s.discover(ctx)
	if err != nil {
		s.setState(StateFailed)
		s.log.Errorf("session open: %s", shortError(err))
		return nil, err
	}
	s.attach(conn)
	s.setState(StateConnected)
	s.log.Infof("session connected local=%s remote=%s", conn.LocalAddr(), conn.RemoteAddr())
	return s, nil
}

func (s *Session) discover(ctx context.Context) (net.Conn, error) {
	ln := s.opt.Listener
	if ln == nil {
		var lc net.ListenConfig
		var err error
		if ln, err = lc.Listen(ctx, "tcp4", s.opt.ListenAddr); err != nil {
			return nil, transportError(err, "listen "+s.opt.ListenAddr)
		}
	}
	defer ln.Close()
	s.log.Debugf("session listen=%s", ln.Addr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	type result struct {
		conn net.Conn
		err  error
	}
	acceptch := make(chan result, 1)
	go func() {
		conn, err := acceptOne(ctx, ln, s.opt.AcceptTimeout)
		acceptch <- result{conn, err}
	}()

	if err := Broadcast(ctx, s.opt); err != nil {
		cancel()
		if r := <-acceptch; r.conn != nil {
			_ = r.conn.Close()
		}
		return nil, err
	}
	s.setState(StateAwaitingConnection)
	r := <-acceptch
	return r.conn, r.err
}

func acceptOne(ctx context.Context, ln net.Listener, timeout time.Duration) (net.Conn, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if dl, ok := ln.(interface{ SetDeadline(time.Time) error }); ok && !deadline.IsZero() {
		if err := dl.SetDeadline(deadline); err != nil {
			return nil, transportError(err, "accept deadline")
		}
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	defer func() {
		close(done)
		<-stopped
	}()
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	conn, err := ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Annotate(ctxErr, "accept")
		}
		return nil, transportError(err, "accept")
	}
	return conn, nil
}

func (s *Session) attach(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetKeepAlive(false)
		_ = tcp.SetNoDelay(true)
	}
	s.net = conn
	statread := helpers.NewStatReader(conn, &s.stat.Recv.Size)
	s.w = helpers.NewStatWriter(conn, &s.stat.Send.Size)
	s.fr.Attach(bufio.NewReader(statread), s.opt.ReadLimit)
	s.last.SetNow()
}

// Close releases transport. Safe to call many times.
func (s *Session) Close() error {
	if s.net == nil {
		return nil
	}
	s.setStateUnlessTerminal(StateClosed)
	_ = s.die(ErrClosed)
	return nil
}

// NextRecord runs exactly one query/response cycle.
// Returns io.EOF if console closed stream at frame boundary, session stays usable.
// Any other error is terminal: transport is closed, session state is Failed,
// and every later call returns the first error.
func (s *Session) NextRecord(ctx context.Context) (*protocol.WeatherRecord, error) {
	s.Lock()
	defer s.Unlock()
	if err, found := s.err.Load(); found {
		return nil, err
	}
	s.setStateUnlessTerminal(StatePolling)

	deadline := time.Now().Add(s.opt.NetworkTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.net.SetDeadline(deadline); err != nil {
		return nil, s.fail(transportError(err, "set deadline"))
	}
	stop := s.watch(ctx)
	r, err := s.cycle()
	stop()

	switch {
	case err == nil:
		s.stat.Records.Add(1)
		s.setStateUnlessTerminal(StateConnected)
		return r, nil
	case err == io.EOF:
		s.stat.Skipped.Add(1)
		s.setStateUnlessTerminal(StateConnected)
		s.log.Debugf("session end of stream remote=%s", s.RemoteAddr())
		return nil, io.EOF
	case ctx.Err() != nil:
		return nil, s.fail(errors.Annotatef(ctx.Err(), "cycle interrupted (%s)", shortError(err)))
	}
	return nil, s.fail(err)
}

func (s *Session) cycle() (*protocol.WeatherRecord, error) {
	s.log.Debugf("session send query b=%x", s.query)
	if err := helpers.WriteAll(s.w, s.query); err != nil {
		return nil, transportError(err, "send query")
	}
	s.stat.Queries.Add(1)
	s.stat.Send.Count.Add(1)

	b, err := s.fr.Read()
	if err == io.EOF {
		return nil, err
	}
	if err != nil {
		if protocol.IsDecoding(err) {
			return nil, errors.Annotate(err, "receive")
		}
		return nil, transportError(err, "receive")
	}
	s.stat.Recv.Count.Add(1)
	s.last.SetNow()
	s.log.Debugf("session recv b=(%d)%x", len(b), b)

	resp, err := protocol.DecodeResponse(b)
	if err != nil {
		return nil, errors.Annotate(err, "decode")
	}
	switch r := resp.(type) {
	case *protocol.WeatherRecord:
		return r, nil
	default:
		return nil, errors.Annotatef(protocol.ErrUnimplementedResponse, "response type=%T", resp)
	}
}

// watch interrupts blocked I/O when ctx is done. stop waits for watcher goroutine.
func (s *Session) watch(ctx context.Context) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			_ = s.net.SetDeadline(aLongTimeAgo)
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

func (s *Session) fail(e error) error {
	s.setStateUnlessTerminal(StateFailed)
	if _, found := s.err.Load(); !found {
		s.stat.Errors.Add(1)
		s.log.Errorf("session remote=%s %s", s.RemoteAddr(), shortError(e))
	}
	return s.die(e)
}

// die keeps first error and closes transport. Returns the kept error.
func (s *Session) die(e error) error {
	if err, found := s.err.StoreOnce(e); found {
		return err
	}
	_ = s.net.Close()
	s.log.Debugf("session die +close local=%s remote=%s e=%s", s.net.LocalAddr(), s.RemoteAddr(), shortError(e))
	return e
}

func (s *Session) Err() error {
	err, _ := s.err.Load()
	return err
}

func (s *Session) RemoteAddr() net.Addr {
	if s.net == nil {
		return nil
	}
	return s.net.RemoteAddr()
}

func (s *Session) SinceLastRecv() time.Duration { return atomic_clock.Since(&s.last) }
func (s *Session) Stat() *SessionStat           { return &s.stat }
