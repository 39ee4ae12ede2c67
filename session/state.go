package session

import (
	"strconv"
	"sync/atomic"
)

type State uint32

const (
	StateIdle State = iota
	StateDiscovering
	StateAwaitingConnection
	StateConnected
	StatePolling
	StateClosed
	StateFailed
)

var stateNames = [...]string{
	StateIdle:               "Idle",
	StateDiscovering:        "Discovering",
	StateAwaitingConnection: "AwaitingConnection",
	StateConnected:          "Connected",
	StatePolling:            "Polling",
	StateClosed:             "Closed",
	StateFailed:             "Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.FormatUint(uint64(s), 10) + ")"
}

// Closed and Failed are final.
func (s State) Terminal() bool { return s == StateClosed || s == StateFailed }

func (s *Session) State() State { return State(atomic.LoadUint32((*uint32)(&s.state))) }

func (s *Session) setState(new State) {
	old := State(atomic.SwapUint32((*uint32)(&s.state), uint32(new)))
	if old != new {
		s.log.Debugf("session state %s -> %s", old, new)
	}
}

// Terminal states never change.
func (s *Session) setStateUnlessTerminal(new State) {
	for {
		old := s.State()
		if old.Terminal() {
			return
		}
		if atomic.CompareAndSwapUint32((*uint32)(&s.state), uint32(old), uint32(new)) {
			if old != new {
				s.log.Debugf("session state %s -> %s", old, new)
			}
			return
		}
	}
}
