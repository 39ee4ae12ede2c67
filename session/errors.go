package session

import (
	"fmt"
	"net"
	"strings"

	"github.com/juju/errors"
)

var ErrClosed = fmt.Errorf("session closed")

// TransportError wraps network failures: bind, send, accept, read, write.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Timeout() bool {
	if ne, ok := errors.Cause(e.Err).(net.Error); ok && ne.Timeout() {
		return true
	}
	return strings.HasSuffix(e.Err.Error(), "i/o timeout")
}

func transportError(err error, op string) error {
	return errors.Trace(&TransportError{Op: op, Err: err})
}

func IsTransport(err error) bool {
	_, ok := errors.Cause(err).(*TransportError)
	return ok
}

func IsTimeout(err error) bool {
	te, ok := errors.Cause(err).(*TransportError)
	return ok && te.Timeout()
}

// reformat some well known errors for easier log reading
func shortError(e error) string {
	estr := e.Error()
	if IsTimeout(e) || strings.HasSuffix(estr, "i/o timeout") {
		return "timeout"
	} else if strings.HasSuffix(estr, "connection reset by peer") {
		return "closed by remote"
	}
	return estr
}
